package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Kerhoff/fastclub/internal/models"
	"github.com/Kerhoff/fastclub/internal/repository"
)

type meetingRuleRepository struct {
	db *sql.DB
}

// NewMeetingRuleRepository creates a new meeting rule repository
func NewMeetingRuleRepository(db *sql.DB) repository.MeetingRuleRepository {
	return &meetingRuleRepository{db: db}
}

func (r *meetingRuleRepository) GetByClubID(ctx context.Context, clubID int64) ([]*models.MeetingRule, error) {
	query := `
		SELECT id, club_id, meeting_type, week_of_month, day_of_week, time_of_day, location, active, created_at, updated_at
		FROM meeting_rules
		WHERE club_id = $1
		ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to query meeting rules: %w", err)
	}
	defer rows.Close()

	var rules []*models.MeetingRule
	for rows.Next() {
		rule := &models.MeetingRule{}
		if err := rows.Scan(
			&rule.ID,
			&rule.ClubID,
			&rule.MeetingType,
			&rule.WeekOfMonth,
			&rule.DayOfWeek,
			&rule.TimeOfDay,
			&rule.Location,
			&rule.Active,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan meeting rule: %w", err)
		}
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

// ReplaceAll deletes the club's rules and inserts the given set in a single
// transaction, so readers see either the old set or the new one.
func (r *meetingRuleRepository) ReplaceAll(ctx context.Context, clubID int64, rules []*models.MeetingRule) ([]*models.MeetingRule, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM meeting_rules WHERE club_id = $1`, clubID); err != nil {
		return nil, fmt.Errorf("failed to delete meeting rules: %w", err)
	}

	query := `
		INSERT INTO meeting_rules (club_id, meeting_type, week_of_month, day_of_week, time_of_day, location, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare meeting rule insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, rule := range rules {
		rule.ClubID = clubID
		rule.CreatedAt = now
		rule.UpdatedAt = now

		if err := stmt.QueryRowContext(ctx,
			rule.ClubID,
			rule.MeetingType,
			rule.WeekOfMonth,
			rule.DayOfWeek,
			rule.TimeOfDay,
			rule.Location,
			rule.Active,
			rule.CreatedAt,
			rule.UpdatedAt,
		).Scan(&rule.ID); err != nil {
			return nil, fmt.Errorf("failed to insert meeting rule: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit meeting rules: %w", err)
	}

	return rules, nil
}
