package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeeStatus represents the lifecycle state of a fee obligation
type FeeStatus string

const (
	FeeStatusPending FeeStatus = "pending"
	FeeStatusPaid    FeeStatus = "paid"
	FeeStatusOverdue FeeStatus = "overdue"
	FeeStatusWaived  FeeStatus = "waived"
)

// AnnualFeeType is the fee type produced by the yearly generation run
const AnnualFeeType = "annual"

// FeeType is an entry of a club's fee catalogue
type FeeType struct {
	ID          int64           `json:"id" db:"id"`
	ClubID      int64           `json:"club_id" db:"club_id"`
	Name        string          `json:"name" db:"name"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	Description string          `json:"description" db:"description"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// FeeObligation is an amount a member owes the club. Status holds the stored
// lifecycle state; whether a pending fee is late is derived at read time.
type FeeObligation struct {
	ID            int64           `json:"id" db:"id"`
	ClubID        int64           `json:"club_id" db:"club_id"`
	MemberID      int64           `json:"member_id" db:"member_id"`
	FeeType       string          `json:"fee_type" db:"fee_type"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	DueDate       time.Time       `json:"due_date" db:"due_date"`
	PaidDate      *time.Time      `json:"paid_date" db:"paid_date"`
	Status        FeeStatus       `json:"status" db:"status"`
	PaymentMethod string          `json:"payment_method" db:"payment_method"`
	Notes         string          `json:"notes" db:"notes"`
	BatchID       uuid.NullUUID   `json:"batch_id" db:"batch_id"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// IsAnnual returns true for obligations of the annual fee type
func (f *FeeObligation) IsAnnual() bool {
	return f.FeeType == AnnualFeeType
}

// IsClosed returns true once the obligation has been paid or waived
func (f *FeeObligation) IsClosed() bool {
	return f.Status == FeeStatusPaid || f.Status == FeeStatusWaived
}

// Valid reports whether s is one of the known fee statuses
func (s FeeStatus) Valid() bool {
	switch s {
	case FeeStatusPending, FeeStatusPaid, FeeStatusOverdue, FeeStatusWaived:
		return true
	}
	return false
}
