package calendar

import (
	"cmp"
	"errors"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/Kerhoff/fastclub/internal/models"
)

// DefaultMonthsAhead is the projection horizon used when callers have no
// preference.
const DefaultMonthsAhead = 6

// MaxMonthsAhead bounds the projection horizon accepted from callers.
const MaxMonthsAhead = 24

// ErrInvalidRule is returned for rules outside the week/weekday/time domain.
var ErrInvalidRule = errors.New("invalid meeting rule")

// ValidateRule checks a single rule against the domain invariants.
func ValidateRule(rule *models.MeetingRule) error {
	if !rule.MeetingType.Valid() {
		return fmt.Errorf("%w: unknown meeting type %q", ErrInvalidRule, rule.MeetingType)
	}
	if rule.WeekOfMonth != models.LastWeekOfMonth && (rule.WeekOfMonth < 1 || rule.WeekOfMonth > 4) {
		return fmt.Errorf("%w: week of month %d not in {1,2,3,4,-1}", ErrInvalidRule, rule.WeekOfMonth)
	}
	if rule.DayOfWeek < 0 || rule.DayOfWeek > 6 {
		return fmt.Errorf("%w: day of week %d not in [0,6]", ErrInvalidRule, rule.DayOfWeek)
	}
	if _, _, err := ParseClock(rule.TimeOfDay); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	return nil
}

// ValidateRules validates a whole rule set and reports every bad rule.
func ValidateRules(rules []*models.MeetingRule) error {
	var result *multierror.Error
	for i, rule := range rules {
		if err := ValidateRule(rule); err != nil {
			result = multierror.Append(result, fmt.Errorf("rule %d: %w", i+1, err))
		}
	}
	return result.ErrorOrNil()
}

// Occurrences lazily yields the meetings produced by rules from the month of
// reference through monthsAhead months later, in ascending start order.
// Inactive and invalid rules yield nothing. Meetings dated before reference
// are dropped; a meeting later on the reference day is kept even if its
// time has already passed.
func Occurrences(rules []*models.MeetingRule, monthsAhead int, reference time.Time) iter.Seq[models.MeetingOccurrence] {
	return func(yield func(models.MeetingOccurrence) bool) {
		if monthsAhead < 0 {
			monthsAhead = 0
		}

		usable := make([]*models.MeetingRule, 0, len(rules))
		for _, rule := range rules {
			if rule != nil && rule.Active && ValidateRule(rule) == nil {
				usable = append(usable, rule)
			}
		}
		if len(usable) == 0 {
			return
		}

		loc := reference.Location()
		today := DateOf(reference)
		startYear, startMonth := today.Year(), today.Month()

		// Months are disjoint, so sorting within a month keeps the whole
		// sequence ordered.
		month := make([]models.MeetingOccurrence, 0, len(usable))
		for i := 0; i <= monthsAhead; i++ {
			year, m := AddMonths(startYear, startMonth, i)

			month = month[:0]
			for _, rule := range usable {
				if occ, ok := occurrenceIn(rule, year, m, loc); ok && !occ.Date.Before(today) {
					month = append(month, occ)
				}
			}
			slices.SortStableFunc(month, compareOccurrences)

			for _, occ := range month {
				if !yield(occ) {
					return
				}
			}
		}
	}
}

// ProjectOccurrences collects Occurrences into a slice.
func ProjectOccurrences(rules []*models.MeetingRule, monthsAhead int, reference time.Time) []models.MeetingOccurrence {
	return slices.Collect(Occurrences(rules, monthsAhead, reference))
}

// OccurrencesBetween returns the meetings whose date lies in [from, to].
func OccurrencesBetween(rules []*models.MeetingRule, from, to time.Time) []models.MeetingOccurrence {
	if BeforeDay(to, from) {
		return nil
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())

	var out []models.MeetingOccurrence
	for occ := range Occurrences(rules, months, from) {
		if BeforeDay(to, occ.Date) {
			break
		}
		out = append(out, occ)
	}
	return out
}

func occurrenceIn(rule *models.MeetingRule, year int, month time.Month, loc *time.Location) (models.MeetingOccurrence, bool) {
	date, ok := NthWeekday(year, month, time.Weekday(rule.DayOfWeek), rule.WeekOfMonth, loc)
	if !ok {
		return models.MeetingOccurrence{}, false
	}
	hour, minute, err := ParseClock(rule.TimeOfDay)
	if err != nil {
		return models.MeetingOccurrence{}, false
	}
	return models.MeetingOccurrence{
		RuleID:      rule.ID,
		MeetingType: rule.MeetingType,
		Date:        date,
		Time:        fmt.Sprintf("%02d:%02d", hour, minute),
		Location:    rule.Location,
		StartsAt:    At(date, hour, minute),
	}, true
}

func compareOccurrences(a, b models.MeetingOccurrence) int {
	if c := a.StartsAt.Compare(b.StartsAt); c != 0 {
		return c
	}
	if c := cmp.Compare(a.MeetingType, b.MeetingType); c != 0 {
		return c
	}
	return cmp.Compare(a.RuleID, b.RuleID)
}
