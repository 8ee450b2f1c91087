package models

import "time"

// CalendarEvent represents a one-off club event such as a ceremony or a
// charity dinner.
type CalendarEvent struct {
	ID          int64      `json:"id" db:"id"`
	ClubID      int64      `json:"club_id" db:"club_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	StartTime   time.Time  `json:"start_time" db:"start_time"`
	EndTime     *time.Time `json:"end_time" db:"end_time"`
	AllDay      bool       `json:"all_day" db:"all_day"`
	Location    string     `json:"location" db:"location"`
	CreatedByID *int64     `json:"created_by_id" db:"created_by_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// IsUpcoming returns true if the event starts after now
func (e *CalendarEvent) IsUpcoming(now time.Time) bool {
	return now.Before(e.StartTime)
}

// IsOngoing returns true if the event is happening at now. Events without
// an end time are assumed to last one hour.
func (e *CalendarEvent) IsOngoing(now time.Time) bool {
	if e.EndTime == nil {
		return now.After(e.StartTime) && now.Before(e.StartTime.Add(time.Hour))
	}
	return now.After(e.StartTime) && now.Before(*e.EndTime)
}

// AgendaItem is an entry of a club's merged agenda: either a projected
// meeting or a stored event.
type AgendaItem struct {
	Kind     string             `json:"kind"` // meeting or event
	Title    string             `json:"title"`
	StartsAt time.Time          `json:"starts_at"`
	AllDay   bool               `json:"all_day"`
	Location string             `json:"location"`
	Meeting  *MeetingOccurrence `json:"meeting,omitempty"`
	Event    *CalendarEvent     `json:"event,omitempty"`
}
