package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Club represents a tenant club. A club may be bound to a Telegram group chat.
type Club struct {
	ID        int64           `json:"id" db:"id"`
	ChatID    *int64          `json:"chat_id" db:"chat_id"`
	Name      string          `json:"name" db:"name"`
	AnnualFee decimal.Decimal `json:"annual_fee" db:"annual_fee"`
	Timezone  string          `json:"timezone" db:"timezone"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// Location returns the club's time zone, falling back to the process local
// zone when none is configured or the name is unknown.
func (c *Club) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// HasChat returns true if the club is bound to a Telegram chat
func (c *Club) HasChat() bool {
	return c.ChatID != nil && *c.ChatID != 0
}
