package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Kerhoff/fastclub/internal/models"
	"github.com/Kerhoff/fastclub/internal/repository"
)

type memberRepository struct {
	db *sql.DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *sql.DB) repository.MemberRepository {
	return &memberRepository{db: db}
}

const memberColumns = `id, club_id, telegram_id, first_name, last_name, email, membership_start_date, status, current_position, created_at, updated_at`

func scanMember(row interface{ Scan(...any) error }) (*models.Member, error) {
	member := &models.Member{}
	err := row.Scan(
		&member.ID,
		&member.ClubID,
		&member.TelegramID,
		&member.FirstName,
		&member.LastName,
		&member.Email,
		&member.MembershipStartDate,
		&member.Status,
		&member.CurrentPosition,
		&member.CreatedAt,
		&member.UpdatedAt,
	)
	return member, err
}

func (r *memberRepository) Create(ctx context.Context, member *models.Member) (*models.Member, error) {
	query := `
		INSERT INTO members (club_id, telegram_id, first_name, last_name, email, membership_start_date, status, current_position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	now := time.Now()
	member.CreatedAt = now
	member.UpdatedAt = now

	if member.Status == "" {
		member.Status = models.MemberStatusActive
	}

	err := r.db.QueryRowContext(ctx, query,
		member.ClubID,
		member.TelegramID,
		member.FirstName,
		member.LastName,
		member.Email,
		dateParam(member.MembershipStartDate),
		member.Status,
		member.CurrentPosition,
		member.CreatedAt,
		member.UpdatedAt,
	).Scan(&member.ID, &member.CreatedAt, &member.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create member: %w", err)
	}

	return member, nil
}

func (r *memberRepository) GetByID(ctx context.Context, id int64) (*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`

	member, err := scanMember(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	return member, nil
}

func (r *memberRepository) GetByTelegramID(ctx context.Context, clubID, telegramID int64) (*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE club_id = $1 AND telegram_id = $2`

	member, err := scanMember(r.db.QueryRowContext(ctx, query, clubID, telegramID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get member by telegram ID: %w", err)
	}

	return member, nil
}

func (r *memberRepository) GetByClubID(ctx context.Context, clubID int64, filters repository.MemberFilters) ([]*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE club_id = $1`
	args := []interface{}{clubID}
	argIdx := 2

	if filters.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *filters.Status)
		argIdx++
	}

	query += " ORDER BY last_name ASC, first_name ASC, id ASC"
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
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}

	return members, rows.Err()
}

func (r *memberRepository) Update(ctx context.Context, member *models.Member) (*models.Member, error) {
	query := `
		UPDATE members
		SET telegram_id = $2, first_name = $3, last_name = $4, email = $5, status = $6, current_position = $7, updated_at = $8
		WHERE id = $1
		RETURNING membership_start_date, updated_at`

	member.UpdatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		member.ID,
		member.TelegramID,
		member.FirstName,
		member.LastName,
		member.Email,
		member.Status,
		member.CurrentPosition,
		member.UpdatedAt,
	).Scan(&member.MembershipStartDate, &member.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to update member: %w", err)
	}

	return member, nil
}

func (r *memberRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM members WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("member with ID %d: %w", id, repository.ErrNotFound)
	}

	return nil
}
