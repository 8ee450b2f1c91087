package models

import (
	"fmt"
	"time"
)

// MeetingType is the semantic category of a recurring meeting
type MeetingType string

const (
	MeetingTypeBoard           MeetingType = "board_meeting"
	MeetingTypeGeneralAssembly MeetingType = "general_assembly"
	MeetingTypeFireside        MeetingType = "fireside"
)

// Valid reports whether t is one of the known meeting types
func (t MeetingType) Valid() bool {
	switch t {
	case MeetingTypeBoard, MeetingTypeGeneralAssembly, MeetingTypeFireside:
		return true
	}
	return false
}

// Label returns a human readable name for the meeting type
func (t MeetingType) Label() string {
	switch t {
	case MeetingTypeBoard:
		return "Board meeting"
	case MeetingTypeGeneralAssembly:
		return "General assembly"
	case MeetingTypeFireside:
		return "Fireside"
	default:
		return string(t)
	}
}

// LastWeekOfMonth selects the last occurrence of a weekday in a month.
const LastWeekOfMonth = -1

// MeetingRule describes a meeting held on the Nth weekday of every month.
// DayOfWeek follows time.Weekday numbering (0 = Sunday). TimeOfDay is a
// wall-clock "HH:MM" in the club's zone.
type MeetingRule struct {
	ID          int64       `json:"id" db:"id"`
	ClubID      int64       `json:"club_id" db:"club_id"`
	MeetingType MeetingType `json:"meeting_type" db:"meeting_type"`
	WeekOfMonth int         `json:"week_of_month" db:"week_of_month"`
	DayOfWeek   int         `json:"day_of_week" db:"day_of_week"`
	TimeOfDay   string      `json:"time_of_day" db:"time_of_day"`
	Location    string      `json:"location" db:"location"`
	Active      bool        `json:"active" db:"active"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// Describe returns a short description such as "3rd Thursday at 19:30"
func (r *MeetingRule) Describe() string {
	var week string
	switch r.WeekOfMonth {
	case 1:
		week = "1st"
	case 2:
		week = "2nd"
	case 3:
		week = "3rd"
	case 4:
		week = "4th"
	case LastWeekOfMonth:
		week = "Last"
	default:
		week = fmt.Sprintf("#%d", r.WeekOfMonth)
	}
	return fmt.Sprintf("%s %s at %s", week, time.Weekday(r.DayOfWeek%7), r.TimeOfDay)
}

// MeetingOccurrence is a single concrete meeting derived from a rule. It is
// computed on demand and never stored.
type MeetingOccurrence struct {
	RuleID      int64       `json:"rule_id"`
	MeetingType MeetingType `json:"meeting_type"`
	Date        time.Time   `json:"date"`
	Time        string      `json:"time"`
	Location    string      `json:"location"`
	StartsAt    time.Time   `json:"starts_at"`
}
