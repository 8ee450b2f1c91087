package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/fastclub/internal/calendar"
	"github.com/Kerhoff/fastclub/internal/models"
	"github.com/Kerhoff/fastclub/internal/repository"
)

// ListMeetingRules returns the club's stored rules, inactive ones included.
func (s *Service) ListMeetingRules(ctx context.Context, clubID int64) ([]*models.MeetingRule, error) {
	rules, err := s.MeetingRules.GetByClubID(ctx, clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to get meeting rules of club %d: %w", clubID, err)
	}
	return rules, nil
}

// ReplaceMeetingRules validates rules and swaps them in for the club's whole
// rule set. Nothing is stored when any rule is invalid.
func (s *Service) ReplaceMeetingRules(ctx context.Context, clubID int64, rules []*models.MeetingRule) ([]*models.MeetingRule, error) {
	if _, err := s.GetClub(ctx, clubID); err != nil {
		return nil, err
	}
	for _, rule := range rules {
		rule.ClubID = clubID
		rule.Location = strings.TrimSpace(rule.Location)
	}
	if err := calendar.ValidateRules(rules); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	stored, err := s.MeetingRules.ReplaceAll(ctx, clubID, rules)
	if err != nil {
		return nil, fmt.Errorf("failed to replace meeting rules of club %d: %w", clubID, err)
	}
	s.logger.WithFields(logrus.Fields{
		"club_id": clubID,
		"rules":   len(stored),
	}).Info("Replaced meeting rules")
	return stored, nil
}

// UpcomingMeetings projects the club's meetings from today through
// monthsAhead months. Zero covers the rest of the current month; a negative
// value selects the default horizon. More than calendar.MaxMonthsAhead
// months is an invalid input.
func (s *Service) UpcomingMeetings(ctx context.Context, clubID int64, monthsAhead int) ([]models.MeetingOccurrence, error) {
	club, err := s.GetClub(ctx, clubID)
	if err != nil {
		return nil, err
	}
	monthsAhead, err = s.horizon(monthsAhead)
	if err != nil {
		return nil, err
	}

	rules, err := s.ListMeetingRules(ctx, clubID)
	if err != nil {
		return nil, err
	}

	occurrences := calendar.ProjectOccurrences(rules, monthsAhead, s.Today(club))
	s.metrics.OccurrencesProjected.Add(float64(len(occurrences)))
	return occurrences, nil
}

// horizon resolves a caller supplied projection horizon. Negative values
// select the default; values beyond calendar.MaxMonthsAhead are rejected.
func (s *Service) horizon(monthsAhead int) (int, error) {
	switch {
	case monthsAhead < 0:
		return s.opts.MonthsAhead, nil
	case monthsAhead > calendar.MaxMonthsAhead:
		return 0, invalid("months must be between 0 and %d", calendar.MaxMonthsAhead)
	}
	return monthsAhead, nil
}

// MeetingsOn returns the club's meetings falling on the given day.
func (s *Service) MeetingsOn(ctx context.Context, club *models.Club, day time.Time) ([]models.MeetingOccurrence, error) {
	rules, err := s.ListMeetingRules(ctx, club.ID)
	if err != nil {
		return nil, err
	}
	day = day.In(club.Location())
	return calendar.OccurrencesBetween(rules, day, day), nil
}

// Agenda merges projected meetings and stored events between today and
// the end of the month monthsAhead months from now, in start order. A
// negative monthsAhead selects the default horizon.
func (s *Service) Agenda(ctx context.Context, clubID int64, monthsAhead int) ([]models.AgendaItem, error) {
	club, err := s.GetClub(ctx, clubID)
	if err != nil {
		return nil, err
	}
	monthsAhead, err = s.horizon(monthsAhead)
	if err != nil {
		return nil, err
	}

	today := s.Today(club)
	from := calendar.DateOf(today)
	year, month := calendar.AddMonths(from.Year(), from.Month(), monthsAhead)
	to := time.Date(year, month, calendar.DaysIn(year, month), 23, 59, 59, 0, from.Location())

	rules, err := s.ListMeetingRules(ctx, clubID)
	if err != nil {
		return nil, err
	}
	events, err := s.Calendar.GetByClubID(ctx, clubID, repository.CalendarFilters{From: &from, To: &to})
	if err != nil {
		return nil, fmt.Errorf("failed to get events of club %d: %w", clubID, err)
	}

	occurrences := calendar.ProjectOccurrences(rules, monthsAhead, today)
	s.metrics.OccurrencesProjected.Add(float64(len(occurrences)))

	items := make([]models.AgendaItem, 0, len(occurrences)+len(events))
	for i := range occurrences {
		occ := &occurrences[i]
		items = append(items, models.AgendaItem{
			Kind:     "meeting",
			Title:    occ.MeetingType.Label(),
			StartsAt: occ.StartsAt,
			Location: occ.Location,
			Meeting:  occ,
		})
	}
	for _, e := range events {
		items = append(items, models.AgendaItem{
			Kind:     "event",
			Title:    e.Title,
			StartsAt: e.StartTime,
			AllDay:   e.AllDay,
			Location: e.Location,
			Event:    e,
		})
	}

	slices.SortStableFunc(items, func(a, b models.AgendaItem) int {
		return a.StartsAt.Compare(b.StartsAt)
	})
	return items, nil
}

// CreateEvent validates and stores a one-off club event.
func (s *Service) CreateEvent(ctx context.Context, event *models.CalendarEvent) (*models.CalendarEvent, error) {
	if _, err := s.GetClub(ctx, event.ClubID); err != nil {
		return nil, err
	}

	var result *multierror.Error
	event.Title = strings.TrimSpace(event.Title)
	if event.Title == "" {
		result = multierror.Append(result, errors.New("title is required"))
	}
	if event.StartTime.IsZero() {
		result = multierror.Append(result, errors.New("start time is required"))
	}
	if event.EndTime != nil && event.EndTime.Before(event.StartTime) {
		result = multierror.Append(result, errors.New("end time is before start time"))
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	event, err := s.Calendar.Create(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"club_id":  event.ClubID,
		"event_id": event.ID,
	}).Infof("Created event %q", event.Title)
	return event, nil
}

// ListEvents returns the club's events starting in [from, to]. Nil bounds
// are open.
func (s *Service) ListEvents(ctx context.Context, clubID int64, from, to *time.Time) ([]*models.CalendarEvent, error) {
	events, err := s.Calendar.GetByClubID(ctx, clubID, repository.CalendarFilters{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("failed to get events of club %d: %w", clubID, err)
	}
	return events, nil
}

// DeleteEvent removes an event.
func (s *Service) DeleteEvent(ctx context.Context, id int64) error {
	if err := s.Calendar.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete event %d: %w", id, err)
	}
	return nil
}
