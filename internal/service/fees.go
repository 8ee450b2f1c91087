package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/fastclub/internal/calendar"
	"github.com/Kerhoff/fastclub/internal/fees"
	"github.com/Kerhoff/fastclub/internal/models"
	"github.com/Kerhoff/fastclub/internal/repository"
)

// FeeView pairs a stored obligation with the status shown to users.
type FeeView struct {
	*models.FeeObligation
	DisplayStatus models.FeeStatus `json:"display_status"`
}

// GenerationSummary reports the outcome of an annual fee run.
type GenerationSummary struct {
	ClubID      int64                   `json:"club_id"`
	Year        int                     `json:"year"`
	BatchID     uuid.UUID               `json:"batch_id"`
	Amount      decimal.Decimal         `json:"amount"`
	Created     int                     `json:"created"`
	Skipped     int                     `json:"skipped"`
	Ineligible  int                     `json:"ineligible"`
	Obligations []*models.FeeObligation `json:"obligations"`
}

// CreateFeeType adds an entry to the club's fee catalogue.
func (s *Service) CreateFeeType(ctx context.Context, feeType *models.FeeType) (*models.FeeType, error) {
	if _, err := s.GetClub(ctx, feeType.ClubID); err != nil {
		return nil, err
	}
	feeType.Name = strings.TrimSpace(feeType.Name)
	if feeType.Name == "" {
		return nil, invalid("fee type name is required")
	}
	if feeType.Amount.IsNegative() {
		return nil, invalid("fee type amount must not be negative")
	}

	feeType, err := s.FeeTypes.Create(ctx, feeType)
	if err != nil {
		return nil, fmt.Errorf("failed to create fee type: %w", err)
	}
	return feeType, nil
}

// ListFeeTypes returns the club's fee catalogue.
func (s *Service) ListFeeTypes(ctx context.Context, clubID int64) ([]*models.FeeType, error) {
	feeTypes, err := s.FeeTypes.GetByClubID(ctx, clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to get fee types of club %d: %w", clubID, err)
	}
	return feeTypes, nil
}

// DeleteFeeType removes a catalogue entry. Existing obligations keep their
// fee type name.
func (s *Service) DeleteFeeType(ctx context.Context, id int64) error {
	if err := s.FeeTypes.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete fee type %d: %w", id, err)
	}
	return nil
}

// annualAmount resolves the annual fee: the configured override first, then
// the club's "annual" fee type, then the club default.
func (s *Service) annualAmount(ctx context.Context, club *models.Club) (decimal.Decimal, error) {
	if s.opts.AnnualFeeAmount.IsPositive() {
		return s.opts.AnnualFeeAmount, nil
	}
	feeType, err := s.FeeTypes.GetByName(ctx, club.ID, models.AnnualFeeType)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to lookup annual fee type: %w", err)
	}
	if feeType != nil {
		return feeType.Amount, nil
	}
	return club.AnnualFee, nil
}

// GenerateAnnualFees creates the missing annual fee obligations of the
// club's active members as one batch. Running it again the same year
// creates nothing. If the batch insert fails nothing is stored.
func (s *Service) GenerateAnnualFees(ctx context.Context, clubID int64) (*GenerationSummary, error) {
	club, err := s.GetClub(ctx, clubID)
	if err != nil {
		return nil, err
	}
	today := s.Today(club)

	amount, err := s.annualAmount(ctx, club)
	if err != nil {
		return nil, err
	}

	members, err := s.Members.GetByClubID(ctx, clubID, repository.MemberFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list members of club %d: %w", clubID, err)
	}
	existing, err := s.Fees.GetByClubID(ctx, clubID, repository.FeeFilters{FeeType: models.AnnualFeeType})
	if err != nil {
		return nil, fmt.Errorf("failed to list annual fees of club %d: %w", clubID, err)
	}

	gen := fees.GenerateAnnual(members, existing, amount, today)
	summary := &GenerationSummary{
		ClubID:      clubID,
		Year:        gen.Year,
		BatchID:     uuid.New(),
		Amount:      amount,
		Skipped:     gen.Skipped,
		Ineligible:  gen.Ineligible,
		Obligations: gen.Obligations,
	}

	if len(gen.Obligations) > 0 {
		batch := uuid.NullUUID{UUID: summary.BatchID, Valid: true}
		for _, ob := range gen.Obligations {
			ob.BatchID = batch
		}
		if err := s.Fees.CreateBatch(ctx, gen.Obligations); err != nil {
			s.metrics.FeeBatchFailures.Inc()
			return nil, fmt.Errorf("failed to store annual fees of club %d: %w", clubID, err)
		}
	}
	summary.Created = len(gen.Obligations)

	s.metrics.FeesGenerated.Add(float64(summary.Created))
	s.metrics.FeesSkipped.Add(float64(summary.Skipped))
	s.logger.WithFields(logrus.Fields{
		"club_id":    clubID,
		"batch_id":   summary.BatchID,
		"year":       summary.Year,
		"created":    summary.Created,
		"skipped":    summary.Skipped,
		"ineligible": summary.Ineligible,
	}).Info("Annual fee generation finished")

	return summary, nil
}

// ListFees returns the club's obligations with their display status. When
// status is set it filters on the display status, so "overdue" also matches
// pending obligations past their due date.
func (s *Service) ListFees(ctx context.Context, clubID int64, memberID *int64, status *models.FeeStatus) ([]FeeView, error) {
	club, err := s.GetClub(ctx, clubID)
	if err != nil {
		return nil, err
	}
	if status != nil && !status.Valid() {
		return nil, invalid("unknown fee status %q", *status)
	}

	filters := repository.FeeFilters{MemberID: memberID}
	if status != nil && (*status == models.FeeStatusPaid || *status == models.FeeStatusWaived) {
		filters.Status = status
	}
	obligations, err := s.Fees.GetByClubID(ctx, clubID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list fees of club %d: %w", clubID, err)
	}

	today := s.Today(club)
	views := make([]FeeView, 0, len(obligations))
	for _, ob := range obligations {
		display := fees.DisplayStatus(ob, today)
		if status != nil && display != *status {
			continue
		}
		views = append(views, FeeView{FeeObligation: ob, DisplayStatus: display})
	}
	return views, nil
}

// CreateFee records a one-off obligation for a member, e.g. a dinner
// contribution. An empty fee type defaults to "other"; a zero amount is
// taken from the matching catalogue entry.
func (s *Service) CreateFee(ctx context.Context, ob *models.FeeObligation) (*models.FeeObligation, error) {
	member, err := s.GetMember(ctx, ob.MemberID)
	if err != nil {
		return nil, err
	}
	if member.ClubID != ob.ClubID {
		return nil, invalid("member %d does not belong to club %d", member.ID, ob.ClubID)
	}
	if ob.DueDate.IsZero() {
		return nil, invalid("due date is required")
	}

	ob.FeeType = strings.TrimSpace(ob.FeeType)
	if ob.FeeType == "" {
		ob.FeeType = "other"
	}
	if ob.Amount.IsZero() {
		feeType, err := s.FeeTypes.GetByName(ctx, ob.ClubID, ob.FeeType)
		if err != nil {
			return nil, fmt.Errorf("failed to lookup fee type %q: %w", ob.FeeType, err)
		}
		if feeType != nil {
			ob.Amount = feeType.Amount
		}
	}
	if ob.Amount.IsNegative() {
		return nil, invalid("amount must not be negative")
	}
	ob.DueDate = calendar.DateOf(ob.DueDate)
	ob.Status = models.FeeStatusPending
	ob.PaidDate = nil

	created, err := s.Fees.Create(ctx, ob)
	if err != nil {
		return nil, fmt.Errorf("failed to create fee: %w", err)
	}
	return created, nil
}

// GetFee loads an obligation or returns repository.ErrNotFound.
func (s *Service) GetFee(ctx context.Context, id int64) (*models.FeeObligation, error) {
	ob, err := s.Fees.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup fee %d: %w", id, err)
	}
	if ob == nil {
		return nil, fmt.Errorf("fee %d: %w", id, repository.ErrNotFound)
	}
	return ob, nil
}

// MarkFeePaid settles an open obligation. A zero paidDate means today in the
// club's zone. Paid and waived obligations return fees.ErrObligationClosed.
func (s *Service) MarkFeePaid(ctx context.Context, id int64, paidDate time.Time, paymentMethod string) (*models.FeeObligation, error) {
	ob, err := s.GetFee(ctx, id)
	if err != nil {
		return nil, err
	}
	if paidDate.IsZero() {
		club, err := s.GetClub(ctx, ob.ClubID)
		if err != nil {
			return nil, err
		}
		paidDate = s.Today(club)
	}

	paid, err := fees.MarkPaid(*ob, paidDate, strings.TrimSpace(paymentMethod))
	if err != nil {
		return nil, err
	}
	return s.storeTransition(ctx, &paid)
}

// WaiveFee releases a member from an open obligation.
func (s *Service) WaiveFee(ctx context.Context, id int64, reason string) (*models.FeeObligation, error) {
	ob, err := s.GetFee(ctx, id)
	if err != nil {
		return nil, err
	}

	waived, err := fees.Waive(*ob, strings.TrimSpace(reason))
	if err != nil {
		return nil, err
	}
	return s.storeTransition(ctx, &waived)
}

func (s *Service) storeTransition(ctx context.Context, ob *models.FeeObligation) (*models.FeeObligation, error) {
	updated, err := s.Fees.Update(ctx, ob)
	if err != nil {
		return nil, fmt.Errorf("failed to update fee %d: %w", ob.ID, err)
	}
	s.metrics.FeeTransitions.WithLabelValues(string(updated.Status)).Inc()
	s.logger.WithFields(logrus.Fields{
		"fee_id":    updated.ID,
		"member_id": updated.MemberID,
		"status":    updated.Status,
	}).Info("Fee status changed")
	return updated, nil
}

// FeeSummary totals the club's obligations per display status.
func (s *Service) FeeSummary(ctx context.Context, clubID int64) (map[models.FeeStatus]fees.StatusTotal, error) {
	club, err := s.GetClub(ctx, clubID)
	if err != nil {
		return nil, err
	}
	obligations, err := s.Fees.GetByClubID(ctx, clubID, repository.FeeFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list fees of club %d: %w", clubID, err)
	}
	return fees.Summarize(obligations, s.Today(club)), nil
}
