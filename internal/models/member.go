package models

import "time"

// MemberStatus represents a member's standing in the club
type MemberStatus string

const (
	MemberStatusActive   MemberStatus = "active"
	MemberStatusHonorary MemberStatus = "honorary"
	MemberStatusEmeritus MemberStatus = "emeritus"
	MemberStatusGuest    MemberStatus = "guest"
	MemberStatusInactive MemberStatus = "inactive"
)

// Valid reports whether s is one of the known member statuses
func (s MemberStatus) Valid() bool {
	switch s {
	case MemberStatusActive, MemberStatusHonorary, MemberStatusEmeritus,
		MemberStatusGuest, MemberStatusInactive:
		return true
	}
	return false
}

// Member represents a club member. MembershipStartDate anchors the yearly
// fee anniversary and is never changed after creation.
type Member struct {
	ID                  int64        `json:"id" db:"id"`
	ClubID              int64        `json:"club_id" db:"club_id"`
	TelegramID          *int64       `json:"telegram_id" db:"telegram_id"`
	FirstName           string       `json:"first_name" db:"first_name"`
	LastName            string       `json:"last_name" db:"last_name"`
	Email               string       `json:"email" db:"email"`
	MembershipStartDate time.Time    `json:"membership_start_date" db:"membership_start_date"`
	Status              MemberStatus `json:"status" db:"status"`
	CurrentPosition     string       `json:"current_position" db:"current_position"`
	CreatedAt           time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at" db:"updated_at"`
}

// FullName returns the member's full name
func (m *Member) FullName() string {
	if m.LastName != "" {
		return m.FirstName + " " + m.LastName
	}
	return m.FirstName
}

// IsActive returns true if the member is in active standing and therefore
// liable for the annual fee.
func (m *Member) IsActive() bool {
	return m.Status == MemberStatusActive
}
