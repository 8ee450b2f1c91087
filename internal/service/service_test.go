package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Kerhoff/fastclub/internal/calendar"
	"github.com/Kerhoff/fastclub/internal/fees"
	"github.com/Kerhoff/fastclub/internal/models"
	"github.com/Kerhoff/fastclub/internal/repository"
)

// 2025-06-10 is the second Tuesday of June.
var now = time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedClub(t *testing.T, svc *Service) *models.Club {
	t.Helper()
	chatID := int64(-1001)
	club, err := svc.CreateClub(context.Background(), &models.Club{
		Name:      "Rotary Nord",
		ChatID:    &chatID,
		AnnualFee: decimal.NewFromInt(120),
		Timezone:  "UTC",
	})
	require.NoError(t, err)
	return club
}

func seedMember(t *testing.T, svc *Service, clubID int64, name string, start time.Time, status models.MemberStatus) *models.Member {
	t.Helper()
	m, err := svc.CreateMember(context.Background(), &models.Member{
		ClubID:              clubID,
		FirstName:           name,
		MembershipStartDate: start,
		Status:              status,
	})
	require.NoError(t, err)
	return m
}

func TestGenerateAnnualFees_RerunCreatesNothing(t *testing.T) {
	svc := newTestService(t, now)
	ctx := context.Background()
	club := seedClub(t, svc)

	alice := seedMember(t, svc, club.ID, "Alice", date(2020, 3, 15), models.MemberStatusActive)
	bob := seedMember(t, svc, club.ID, "Bob", date(2019, 9, 1), models.MemberStatusActive)
	seedMember(t, svc, club.ID, "Carl", date(2018, 1, 1), models.MemberStatusGuest)

	first, err := svc.GenerateAnnualFees(ctx, club.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Created)
	assert.Equal(t, 1, first.Ineligible)
	assert.True(t, first.Amount.Equal(decimal.NewFromInt(120)))

	due := map[int64]string{}
	for _, ob := range first.Obligations {
		due[ob.MemberID] = ob.DueDate.Format("2006-01-02")
		assert.Equal(t, first.BatchID, ob.BatchID.UUID)
		assert.Equal(t, models.FeeStatusPending, ob.Status)
	}
	assert.Equal(t, "2026-03-15", due[alice.ID], "anniversary already passed rolls into next year")
	assert.Equal(t, "2025-09-01", due[bob.ID])

	second, err := svc.GenerateAnnualFees(ctx, club.ID)
	require.NoError(t, err)
	assert.Zero(t, second.Created)
	assert.Equal(t, 2, second.Skipped)
	assert.Len(t, storedFees(t, svc, club.ID), 2)

	assert.Equal(t, 2.0, testutil.ToFloat64(svc.metrics.FeesGenerated))
	assert.Equal(t, 2.0, testutil.ToFloat64(svc.metrics.FeesSkipped))
}

func TestGenerateAnnualFees_AmountFromFeeType(t *testing.T) {
	svc := newTestService(t, now)
	ctx := context.Background()
	club := seedClub(t, svc)
	seedMember(t, svc, club.ID, "Alice", date(2020, 8, 1), models.MemberStatusActive)

	_, err := svc.CreateFeeType(ctx, &models.FeeType{ClubID: club.ID, Name: "Annual", Amount: decimal.RequireFromString("95.50")})
	require.NoError(t, err)

	summary, err := svc.GenerateAnnualFees(ctx, club.ID)
	require.NoError(t, err)
	require.Len(t, summary.Obligations, 1)
	assert.Equal(t, "95.50", summary.Obligations[0].Amount.StringFixed(2))
}

func TestGenerateAnnualFees_FailedBatchStoresNothing(t *testing.T) {
	svc := newTestService(t, now)
	ctx := context.Background()
	club := seedClub(t, svc)
	seedMember(t, svc, club.ID, "Alice", date(2020, 8, 1), models.MemberStatusActive)
	seedMember(t, svc, club.ID, "Bob", date(2021, 8, 1), models.MemberStatusActive)

	store := svc.Fees
	svc.Fees = failingFees{FeeRepository: store, err: errors.New("connection reset")}
	_, err := svc.GenerateAnnualFees(ctx, club.ID)
	require.Error(t, err)
	assert.Empty(t, storedFees(t, svc, club.ID))
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.metrics.FeeBatchFailures))

	svc.Fees = store
	summary, err := svc.GenerateAnnualFees(ctx, club.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Created)
}

func TestGenerateAnnualFees_UnknownClub(t *testing.T) {
	svc := newTestService(t, now)
	_, err := svc.GenerateAnnualFees(context.Background(), 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGenerateAnnualFees_Idempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		today := time.Date(rapid.IntRange(2000, 2040).Draw(rt, "year"), time.Month(rapid.IntRange(1, 12).Draw(rt, "month")),
			rapid.IntRange(1, 28).Draw(rt, "day"), 12, 0, 0, 0, time.UTC)
		svc := newTestService(t, today)
		ctx := context.Background()
		club := seedClub(t, svc)

		statuses := []models.MemberStatus{
			models.MemberStatusActive, models.MemberStatusInactive, models.MemberStatusGuest,
			models.MemberStatusEmeritus, models.MemberStatusHonorary,
		}
		n := rapid.IntRange(0, 8).Draw(rt, "members")
		for i := 0; i < n; i++ {
			start := time.Date(rapid.IntRange(1980, 2040).Draw(rt, "start_year"), time.Month(rapid.IntRange(1, 12).Draw(rt, "start_month")),
				rapid.IntRange(1, 31).Draw(rt, "start_day"), 0, 0, 0, 0, time.UTC)
			seedMember(t, svc, club.ID, "M", start, rapid.SampledFrom(statuses).Draw(rt, "status"))
		}

		first, err := svc.GenerateAnnualFees(ctx, club.ID)
		require.NoError(rt, err)
		stored := len(storedFees(t, svc, club.ID))

		second, err := svc.GenerateAnnualFees(ctx, club.ID)
		require.NoError(rt, err)
		assert.Zero(rt, second.Created)
		assert.Equal(rt, first.Created, second.Skipped)
		assert.Len(rt, storedFees(t, svc, club.ID), stored)
	})
}

func TestListFees_DisplayStatusLeavesStoreUntouched(t *testing.T) {
	svc := newTestService(t, now)
	ctx := context.Background()
	club := seedClub(t, svc)
	bob := seedMember(t, svc, club.ID, "Bob", date(2019, 9, 1), models.MemberStatusActive)

	late, err := svc.CreateFee(ctx, &models.FeeObligation{ClubID: club.ID, MemberID: bob.ID, FeeType: "dinner", Amount: decimal.NewFromInt(35), DueDate: date(2025, 5, 1)})
	require.NoError(t, err)
	_, err = svc.CreateFee(ctx, &models.FeeObligation{ClubID: club.ID, MemberID: bob.ID, FeeType: "dinner", Amount: decimal.NewFromInt(35), DueDate: date(2025, 7, 1)})
	require.NoError(t, err)

	overdue := models.FeeStatusOverdue
	views, err := svc.ListFees(ctx, club.ID, nil, &overdue)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, late.ID, views[0].ID)
	assert.Equal(t, models.FeeStatusOverdue, views[0].DisplayStatus)
	stored, err := svc.GetFee(ctx, late.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FeeStatusPending, stored.Status)

	pending := models.FeeStatusPending
	views, err = svc.ListFees(ctx, club.ID, nil, &pending)
	require.NoError(t, err)
	assert.Len(t, views, 1)

	summary, err := svc.FeeSummary(ctx, club.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary[models.FeeStatusOverdue].Count)
	assert.Equal(t, 1, summary[models.FeeStatusPending].Count)
}

func TestCreateFee_RejectsForeignMember(t *testing.T) {
	svc := newTestService(t, now)
	ctx := context.Background()
	club := seedClub(t, svc)
	other, err := svc.CreateClub(ctx, &models.Club{Name: "Lions", Timezone: "UTC"})
	require.NoError(t, err)
	bob := seedMember(t, svc, other.ID, "Bob", date(2019, 9, 1), models.MemberStatusActive)

	_, err = svc.CreateFee(ctx, &models.FeeObligation{ClubID: club.ID, MemberID: bob.ID, Amount: decimal.NewFromInt(10), DueDate: date(2025, 7, 1)})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMarkFeePaid_IsTerminal(t *testing.T) {
	svc := newTestService(t, now)
	ctx := context.Background()
	club := seedClub(t, svc)
	bob := seedMember(t, svc, club.ID, "Bob", date(2019, 9, 1), models.MemberStatusActive)

	ob, err := svc.CreateFee(ctx, &models.FeeObligation{ClubID: club.ID, MemberID: bob.ID, FeeType: "dinner", Amount: decimal.NewFromInt(35), DueDate: date(2025, 5, 1)})
	require.NoError(t, err)

	paid, err := svc.MarkFeePaid(ctx, ob.ID, time.Time{}, "transfer")
	require.NoError(t, err)
	assert.Equal(t, models.FeeStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidDate)
	assert.Equal(t, "2025-06-10", paid.PaidDate.Format("2006-01-02"))
	assert.Equal(t, "transfer", paid.PaymentMethod)

	_, err = svc.MarkFeePaid(ctx, ob.ID, time.Time{}, "cash")
	assert.ErrorIs(t, err, fees.ErrObligationClosed)
	_, err = svc.WaiveFee(ctx, ob.ID, "goodwill")
	assert.ErrorIs(t, err, fees.ErrObligationClosed)

	_, err = svc.MarkFeePaid(ctx, 999, time.Time{}, "cash")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestReplaceMeetingRules_InvalidSetStoresNothing(t *testing.T) {
	svc := newTestService(t, now)
	ctx := context.Background()
	club := seedClub(t, svc)

	_, err := svc.ReplaceMeetingRules(ctx, club.ID, []*models.MeetingRule{
		{MeetingType: models.MeetingTypeBoard, WeekOfMonth: 2, DayOfWeek: 2, TimeOfDay: "19:00", Active: true},
		{MeetingType: models.MeetingTypeFireside, WeekOfMonth: 5, DayOfWeek: 2, TimeOfDay: "19:00", Active: true},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
	rules, err := svc.ListMeetingRules(ctx, club.ID)
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestUpcomingMeetings(t *testing.T) {
	svc := newTestService(t, now)
	ctx := context.Background()
	club := seedClub(t, svc)

	_, err := svc.ReplaceMeetingRules(ctx, club.ID, []*models.MeetingRule{
		{MeetingType: models.MeetingTypeBoard, WeekOfMonth: 2, DayOfWeek: 2, TimeOfDay: "19:00", Active: true},
		{MeetingType: models.MeetingTypeFireside, WeekOfMonth: -1, DayOfWeek: 4, TimeOfDay: "20:00", Active: false},
	})
	require.NoError(t, err)

	occ, err := svc.UpcomingMeetings(ctx, club.ID, 2)
	require.NoError(t, err)
	require.Len(t, occ, 3)
	assert.Equal(t, "2025-06-10", occ[0].Date.Format("2006-01-02"))
	assert.Equal(t, "2025-07-08", occ[1].Date.Format("2006-01-02"))
	assert.Equal(t, "2025-08-12", occ[2].Date.Format("2006-01-02"))
	assert.Equal(t, 3.0, testutil.ToFloat64(svc.metrics.OccurrencesProjected))
}

func TestUpcomingMeetings_HorizonIsBounded(t *testing.T) {
	svc := newTestService(t, now)
	ctx := context.Background()
	club := seedClub(t, svc)

	_, err := svc.UpcomingMeetings(ctx, club.ID, calendar.MaxMonthsAhead+1)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Agenda(ctx, club.ID, 3000000)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.UpcomingMeetings(ctx, club.ID, calendar.MaxMonthsAhead)
	assert.NoError(t, err)
}

func TestAgenda_MergesMeetingsAndEvents(t *testing.T) {
	svc := newTestService(t, now)
	ctx := context.Background()
	club := seedClub(t, svc)

	_, err := svc.ReplaceMeetingRules(ctx, club.ID, []*models.MeetingRule{
		{MeetingType: models.MeetingTypeBoard, WeekOfMonth: 2, DayOfWeek: 2, TimeOfDay: "19:00", Location: "Club house", Active: true},
	})
	require.NoError(t, err)
	_, err = svc.CreateEvent(ctx, &models.CalendarEvent{ClubID: club.ID, Title: "Charity dinner", StartTime: time.Date(2025, 6, 12, 18, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	_, err = svc.CreateEvent(ctx, &models.CalendarEvent{ClubID: club.ID, Title: "Past", StartTime: time.Date(2025, 5, 1, 18, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	items, err := svc.Agenda(ctx, club.ID, 1)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "meeting", items[0].Kind)
	assert.Equal(t, "Club house", items[0].Location)
	assert.Equal(t, "Charity dinner", items[1].Title)
	assert.Equal(t, "2025-07-08", items[2].StartsAt.Format("2006-01-02"))
}

func TestCreateEvent_Validation(t *testing.T) {
	svc := newTestService(t, now)
	club := seedClub(t, svc)

	end := now.Add(-time.Hour)
	_, err := svc.CreateEvent(context.Background(), &models.CalendarEvent{ClubID: club.ID, StartTime: now, EndTime: &end})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "title is required")
	assert.Contains(t, err.Error(), "end time is before start time")
}

func TestUpdateMember_KeepsStartDate(t *testing.T) {
	svc := newTestService(t, now)
	ctx := context.Background()
	club := seedClub(t, svc)
	m := seedMember(t, svc, club.ID, "Alice", date(2020, 3, 15), models.MemberStatusActive)

	emeritus := models.MemberStatusEmeritus
	updated, err := svc.UpdateMember(ctx, m.ID, MemberUpdate{Status: &emeritus})
	require.NoError(t, err)
	assert.Equal(t, models.MemberStatusEmeritus, updated.Status)
	assert.Equal(t, "2020-03-15", updated.MembershipStartDate.Format("2006-01-02"))

	bogus := models.MemberStatus("retired")
	_, err = svc.UpdateMember(ctx, m.ID, MemberUpdate{Status: &bogus})
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, svc.DeleteMember(ctx, m.ID))
	assert.ErrorIs(t, svc.DeleteMember(ctx, m.ID), repository.ErrNotFound)
}

func TestEnsureClub(t *testing.T) {
	svc := newTestService(t, now)
	ctx := context.Background()

	club, err := svc.EnsureClub(ctx, 77, "Rotary")
	require.NoError(t, err)
	again, err := svc.EnsureClub(ctx, 77, "Rotary Nord")
	require.NoError(t, err)
	assert.Equal(t, club.ID, again.ID)
	assert.Equal(t, "Rotary Nord", again.Name)
}
