package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Kerhoff/fastclub/internal/models"
	"github.com/Kerhoff/fastclub/internal/repository"
)

type clubRepository struct {
	db *sql.DB
}

// NewClubRepository creates a new club repository
func NewClubRepository(db *sql.DB) repository.ClubRepository {
	return &clubRepository{db: db}
}

const clubColumns = `id, chat_id, name, annual_fee, timezone, created_at, updated_at`

func scanClub(row interface{ Scan(...any) error }) (*models.Club, error) {
	club := &models.Club{}
	err := row.Scan(
		&club.ID,
		&club.ChatID,
		&club.Name,
		&club.AnnualFee,
		&club.Timezone,
		&club.CreatedAt,
		&club.UpdatedAt,
	)
	return club, err
}

func (r *clubRepository) Create(ctx context.Context, club *models.Club) (*models.Club, error) {
	query := `
		INSERT INTO clubs (chat_id, name, annual_fee, timezone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	now := time.Now()
	club.CreatedAt = now
	club.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, query,
		club.ChatID,
		club.Name,
		club.AnnualFee,
		club.Timezone,
		club.CreatedAt,
		club.UpdatedAt,
	).Scan(&club.ID, &club.CreatedAt, &club.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create club: %w", err)
	}

	return club, nil
}

func (r *clubRepository) GetByID(ctx context.Context, id int64) (*models.Club, error) {
	query := `SELECT ` + clubColumns + ` FROM clubs WHERE id = $1`

	club, err := scanClub(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get club by ID: %w", err)
	}

	return club, nil
}

func (r *clubRepository) GetByChatID(ctx context.Context, chatID int64) (*models.Club, error) {
	query := `SELECT ` + clubColumns + ` FROM clubs WHERE chat_id = $1`

	club, err := scanClub(r.db.QueryRowContext(ctx, query, chatID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get club by chat ID: %w", err)
	}

	return club, nil
}

func (r *clubRepository) List(ctx context.Context) ([]*models.Club, error) {
	query := `SELECT ` + clubColumns + ` FROM clubs ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query clubs: %w", err)
	}
	defer rows.Close()

	var clubs []*models.Club
	for rows.Next() {
		club, err := scanClub(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan club: %w", err)
		}
		clubs = append(clubs, club)
	}

	return clubs, rows.Err()
}

func (r *clubRepository) Update(ctx context.Context, club *models.Club) (*models.Club, error) {
	query := `
		UPDATE clubs
		SET name = $2, annual_fee = $3, timezone = $4, updated_at = $5
		WHERE id = $1
		RETURNING updated_at`

	club.UpdatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		club.ID,
		club.Name,
		club.AnnualFee,
		club.Timezone,
		club.UpdatedAt,
	).Scan(&club.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to update club: %w", err)
	}

	return club, nil
}
