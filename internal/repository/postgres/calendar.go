package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Kerhoff/fastclub/internal/models"
	"github.com/Kerhoff/fastclub/internal/repository"
)

type calendarRepository struct {
	db *sql.DB
}

// NewCalendarRepository creates a new club event repository
func NewCalendarRepository(db *sql.DB) repository.CalendarRepository {
	return &calendarRepository{db: db}
}

const eventColumns = `id, club_id, title, description, start_time, end_time, all_day, location, created_by_id, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (*models.CalendarEvent, error) {
	event := &models.CalendarEvent{}
	err := row.Scan(
		&event.ID,
		&event.ClubID,
		&event.Title,
		&event.Description,
		&event.StartTime,
		&event.EndTime,
		&event.AllDay,
		&event.Location,
		&event.CreatedByID,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	return event, err
}

// eventWhere renders the filter conditions for a club's events.
func eventWhere(clubID int64, filters repository.CalendarFilters) (string, []interface{}) {
	conds := []string{"club_id = $1"}
	args := []interface{}{clubID}

	if filters.From != nil {
		args = append(args, *filters.From)
		conds = append(conds, fmt.Sprintf("start_time >= $%d", len(args)))
	}
	if filters.To != nil {
		args = append(args, *filters.To)
		conds = append(conds, fmt.Sprintf("start_time <= $%d", len(args)))
	}
	return strings.Join(conds, " AND "), args
}

func (r *calendarRepository) Create(ctx context.Context, event *models.CalendarEvent) (*models.CalendarEvent, error) {
	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO calendar_events (club_id, title, description, start_time, end_time, all_day, location, created_by_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		event.ClubID, event.Title, event.Description, event.StartTime, event.EndTime,
		event.AllDay, event.Location, event.CreatedByID, event.CreatedAt, event.UpdatedAt,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create event %q for club %d: %w", event.Title, event.ClubID, err)
	}

	return event, nil
}

func (r *calendarRepository) GetByID(ctx context.Context, id int64) (*models.CalendarEvent, error) {
	event, err := scanEvent(r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM calendar_events WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event %d: %w", id, err)
	}
	return event, nil
}

func (r *calendarRepository) GetByClubID(ctx context.Context, clubID int64, filters repository.CalendarFilters) ([]*models.CalendarEvent, error) {
	where, args := eventWhere(clubID, filters)
	query := `SELECT ` + eventColumns + ` FROM calendar_events WHERE ` + where + ` ORDER BY start_time ASC, id ASC`
	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events of club %d: %w", clubID, err)
	}
	defer rows.Close()

	var events []*models.CalendarEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *calendarRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM calendar_events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event %d: %w", id, err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	} else if n == 0 {
		return fmt.Errorf("event %d: %w", id, repository.ErrNotFound)
	}
	return nil
}
