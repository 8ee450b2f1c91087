// Package fees computes membership fee due dates, generates annual fee
// obligations and classifies their status. Every function takes "today"
// explicitly and never touches storage.
package fees

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Kerhoff/fastclub/internal/calendar"
	"github.com/Kerhoff/fastclub/internal/models"
)

// ErrObligationClosed is returned when a paid or waived obligation is asked
// to change state again.
var ErrObligationClosed = errors.New("fee obligation is already closed")

// AnnualDueDate re-anchors the month and day of membershipStart to
// targetYear. If that date is already behind today it moves forward exactly
// one year.
func AnnualDueDate(membershipStart time.Time, targetYear int, today time.Time) time.Time {
	loc := today.Location()
	due := calendar.AnniversaryIn(membershipStart, targetYear, loc)
	if calendar.BeforeDay(due, today) {
		due = calendar.AnniversaryIn(membershipStart, targetYear+1, loc)
	}
	return due
}

// Generation is the outcome of one annual fee run.
type Generation struct {
	Year        int
	Obligations []*models.FeeObligation
	// Skipped counts active members already holding an annual obligation.
	Skipped int
	// Ineligible counts members not in active standing.
	Ineligible int
}

// GenerateAnnual builds the annual obligations missing from existing for the
// active members. It only returns the new obligations; persisting them as
// one batch is the caller's job.
//
// A member is considered covered when an annual obligation is already due in
// the current year, or in the year of the due date that would be generated.
// The second check keeps reruns idempotent after the anniversary rolled the
// due date into next year.
func GenerateAnnual(members []*models.Member, existing []*models.FeeObligation, amount decimal.Decimal, today time.Time) Generation {
	year := today.Year()
	gen := Generation{Year: year}

	covered := make(map[coverKey]struct{}, len(existing))
	for _, ob := range existing {
		if ob == nil || !ob.IsAnnual() {
			continue
		}
		covered[coverKey{ob.MemberID, ob.DueDate.Year()}] = struct{}{}
	}

	for _, m := range members {
		if m == nil {
			continue
		}
		if !m.IsActive() {
			gen.Ineligible++
			continue
		}
		if _, ok := covered[coverKey{m.ID, year}]; ok {
			gen.Skipped++
			continue
		}

		due := AnnualDueDate(m.MembershipStartDate, year, today)
		if _, ok := covered[coverKey{m.ID, due.Year()}]; ok {
			gen.Skipped++
			continue
		}

		status := models.FeeStatusPending
		if calendar.BeforeDay(due, today) {
			status = models.FeeStatusOverdue
		}

		gen.Obligations = append(gen.Obligations, &models.FeeObligation{
			ClubID:   m.ClubID,
			MemberID: m.ID,
			FeeType:  models.AnnualFeeType,
			Amount:   amount,
			DueDate:  due,
			Status:   status,
			Notes:    fmt.Sprintf("Annual fee %d (system generated)", year),
		})
		// Duplicate member records in one run get a single obligation.
		covered[coverKey{m.ID, due.Year()}] = struct{}{}
		covered[coverKey{m.ID, year}] = struct{}{}
	}

	return gen
}

type coverKey struct {
	memberID int64
	year     int
}

// DisplayStatus classifies an obligation for display. A pending obligation
// whose due date is behind today reads as overdue; the stored record is
// left untouched.
func DisplayStatus(ob *models.FeeObligation, today time.Time) models.FeeStatus {
	switch ob.Status {
	case models.FeeStatusPaid, models.FeeStatusWaived:
		return ob.Status
	case models.FeeStatusPending:
		if calendar.BeforeDay(ob.DueDate, today) {
			return models.FeeStatusOverdue
		}
	}
	return ob.Status
}

// MarkPaid returns a copy of ob settled on paidDate with the given method.
func MarkPaid(ob models.FeeObligation, paidDate time.Time, paymentMethod string) (models.FeeObligation, error) {
	if ob.IsClosed() {
		return ob, fmt.Errorf("%w: obligation %d is %s", ErrObligationClosed, ob.ID, ob.Status)
	}
	paid := calendar.DateOf(paidDate)
	ob.Status = models.FeeStatusPaid
	ob.PaidDate = &paid
	ob.PaymentMethod = paymentMethod
	return ob, nil
}

// Waive returns a copy of ob released from payment. A non-empty reason is
// appended to the notes.
func Waive(ob models.FeeObligation, reason string) (models.FeeObligation, error) {
	if ob.IsClosed() {
		return ob, fmt.Errorf("%w: obligation %d is %s", ErrObligationClosed, ob.ID, ob.Status)
	}
	ob.Status = models.FeeStatusWaived
	if reason != "" {
		if ob.Notes != "" {
			ob.Notes += "; "
		}
		ob.Notes += "waived: " + reason
	}
	return ob, nil
}

// StatusTotal aggregates the obligations sharing one display status.
type StatusTotal struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// Summarize groups obligations by display status.
func Summarize(obligations []*models.FeeObligation, today time.Time) map[models.FeeStatus]StatusTotal {
	out := make(map[models.FeeStatus]StatusTotal, 4)
	for _, ob := range obligations {
		status := DisplayStatus(ob, today)
		total := out[status]
		total.Count++
		total.Amount = total.Amount.Add(ob.Amount)
		out[status] = total
	}
	return out
}
