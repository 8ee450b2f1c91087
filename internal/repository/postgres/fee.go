package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Kerhoff/fastclub/internal/models"
	"github.com/Kerhoff/fastclub/internal/repository"
)

// uniqueViolation is the Postgres SQLSTATE for unique constraint failures
const uniqueViolation = "23505"

type feeRepository struct {
	db *sql.DB
}

// NewFeeRepository creates a new fee obligation repository
func NewFeeRepository(db *sql.DB) repository.FeeRepository {
	return &feeRepository{db: db}
}

const feeColumns = `id, club_id, member_id, fee_type, amount, due_date, paid_date, status, payment_method, notes, batch_id, created_at, updated_at`

const feeInsert = `
		INSERT INTO fee_obligations (club_id, member_id, fee_type, amount, due_date, paid_date, status, payment_method, notes, batch_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`

func scanFee(row interface{ Scan(...any) error }) (*models.FeeObligation, error) {
	fee := &models.FeeObligation{}
	err := row.Scan(
		&fee.ID,
		&fee.ClubID,
		&fee.MemberID,
		&fee.FeeType,
		&fee.Amount,
		&fee.DueDate,
		&fee.PaidDate,
		&fee.Status,
		&fee.PaymentMethod,
		&fee.Notes,
		&fee.BatchID,
		&fee.CreatedAt,
		&fee.UpdatedAt,
	)
	return fee, err
}

func feeArgs(fee *models.FeeObligation) []interface{} {
	return []interface{}{
		fee.ClubID,
		fee.MemberID,
		fee.FeeType,
		fee.Amount,
		dateParam(fee.DueDate),
		nullDateParam(fee.PaidDate),
		fee.Status,
		fee.PaymentMethod,
		fee.Notes,
		fee.BatchID,
		fee.CreatedAt,
		fee.UpdatedAt,
	}
}

// mapInsertError translates a unique violation into ErrDuplicateObligation
func mapInsertError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", repository.ErrDuplicateObligation, pqErr.Constraint)
	}
	return err
}

func (r *feeRepository) Create(ctx context.Context, fee *models.FeeObligation) (*models.FeeObligation, error) {
	now := time.Now()
	fee.CreatedAt = now
	fee.UpdatedAt = now

	if fee.Status == "" {
		fee.Status = models.FeeStatusPending
	}

	err := r.db.QueryRowContext(ctx, feeInsert, feeArgs(fee)...).
		Scan(&fee.ID, &fee.CreatedAt, &fee.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create fee obligation: %w", mapInsertError(err))
	}

	return fee, nil
}

// CreateBatch inserts every obligation in one transaction. On any failure
// nothing is stored and the IDs of the input are left unset.
func (r *feeRepository) CreateBatch(ctx context.Context, fees []*models.FeeObligation) error {
	if len(fees) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, feeInsert)
	if err != nil {
		return fmt.Errorf("failed to prepare fee insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	ids := make([]int64, len(fees))
	for i, fee := range fees {
		fee.CreatedAt = now
		fee.UpdatedAt = now
		if err := stmt.QueryRowContext(ctx, feeArgs(fee)...).Scan(&ids[i], &fee.CreatedAt, &fee.UpdatedAt); err != nil {
			return fmt.Errorf("failed to insert fee for member %d: %w", fee.MemberID, mapInsertError(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit fee batch: %w", err)
	}

	for i, fee := range fees {
		fee.ID = ids[i]
	}
	return nil
}

func (r *feeRepository) GetByID(ctx context.Context, id int64) (*models.FeeObligation, error) {
	query := `SELECT ` + feeColumns + ` FROM fee_obligations WHERE id = $1`

	fee, err := scanFee(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get fee obligation: %w", err)
	}

	return fee, nil
}

func (r *feeRepository) GetByClubID(ctx context.Context, clubID int64, filters repository.FeeFilters) ([]*models.FeeObligation, error) {
	query := `SELECT ` + feeColumns + ` FROM fee_obligations WHERE club_id = $1`
	args := []interface{}{clubID}
	argIdx := 2

	if filters.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *filters.Status)
		argIdx++
	}
	if filters.MemberID != nil {
		query += fmt.Sprintf(" AND member_id = $%d", argIdx)
		args = append(args, *filters.MemberID)
		argIdx++
	}
	if filters.FeeType != "" {
		query += fmt.Sprintf(" AND fee_type = $%d", argIdx)
		args = append(args, filters.FeeType)
		argIdx++
	}

	query += " ORDER BY due_date ASC, id ASC"
	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filters.Limit)
		argIdx++
	}
	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, filters.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fee obligations: %w", err)
	}
	defer rows.Close()

	var fees []*models.FeeObligation
	for rows.Next() {
		fee, err := scanFee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fee obligation: %w", err)
		}
		fees = append(fees, fee)
	}

	return fees, rows.Err()
}

func (r *feeRepository) Update(ctx context.Context, fee *models.FeeObligation) (*models.FeeObligation, error) {
	query := `
		UPDATE fee_obligations
		SET status = $2, paid_date = $3, payment_method = $4, notes = $5, updated_at = $6
		WHERE id = $1
		RETURNING updated_at`

	fee.UpdatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		fee.ID,
		fee.Status,
		nullDateParam(fee.PaidDate),
		fee.PaymentMethod,
		fee.Notes,
		fee.UpdatedAt,
	).Scan(&fee.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("fee obligation %d: %w", fee.ID, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update fee obligation: %w", err)
	}

	return fee, nil
}
