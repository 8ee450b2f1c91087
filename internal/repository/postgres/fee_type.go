package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Kerhoff/fastclub/internal/models"
	"github.com/Kerhoff/fastclub/internal/repository"
)

type feeTypeRepository struct {
	db *sql.DB
}

// NewFeeTypeRepository creates a new fee type repository
func NewFeeTypeRepository(db *sql.DB) repository.FeeTypeRepository {
	return &feeTypeRepository{db: db}
}

func (r *feeTypeRepository) Create(ctx context.Context, feeType *models.FeeType) (*models.FeeType, error) {
	query := `
		INSERT INTO fee_types (club_id, name, amount, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	now := time.Now()
	feeType.CreatedAt = now
	feeType.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, query,
		feeType.ClubID,
		feeType.Name,
		feeType.Amount,
		feeType.Description,
		feeType.CreatedAt,
		feeType.UpdatedAt,
	).Scan(&feeType.ID, &feeType.CreatedAt, &feeType.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create fee type: %w", err)
	}

	return feeType, nil
}

func (r *feeTypeRepository) GetByClubID(ctx context.Context, clubID int64) ([]*models.FeeType, error) {
	query := `
		SELECT id, club_id, name, amount, description, created_at, updated_at
		FROM fee_types
		WHERE club_id = $1
		ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query, clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to query fee types: %w", err)
	}
	defer rows.Close()

	var feeTypes []*models.FeeType
	for rows.Next() {
		ft := &models.FeeType{}
		if err := rows.Scan(&ft.ID, &ft.ClubID, &ft.Name, &ft.Amount, &ft.Description, &ft.CreatedAt, &ft.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan fee type: %w", err)
		}
		feeTypes = append(feeTypes, ft)
	}

	return feeTypes, rows.Err()
}

func (r *feeTypeRepository) GetByName(ctx context.Context, clubID int64, name string) (*models.FeeType, error) {
	query := `
		SELECT id, club_id, name, amount, description, created_at, updated_at
		FROM fee_types
		WHERE club_id = $1 AND lower(name) = lower($2)`

	ft := &models.FeeType{}
	err := r.db.QueryRowContext(ctx, query, clubID, name).
		Scan(&ft.ID, &ft.ClubID, &ft.Name, &ft.Amount, &ft.Description, &ft.CreatedAt, &ft.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get fee type by name: %w", err)
	}

	return ft, nil
}

func (r *feeTypeRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM fee_types WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete fee type: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("fee type with ID %d: %w", id, repository.ErrNotFound)
	}

	return nil
}
