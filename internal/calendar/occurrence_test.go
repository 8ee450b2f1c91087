package calendar

import (
	"errors"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Kerhoff/fastclub/internal/models"
)

func rule(id int64, week, weekday int, at string) *models.MeetingRule {
	return &models.MeetingRule{
		ID:          id,
		MeetingType: models.MeetingTypeBoard,
		WeekOfMonth: week,
		DayOfWeek:   weekday,
		TimeOfDay:   at,
		Location:    "Club house",
		Active:      true,
	}
}

func TestProjectOccurrences_ThirdThursday(t *testing.T) {
	got := ProjectOccurrences([]*models.MeetingRule{rule(1, 3, 4, "19:30")}, 0, day(2024, time.March, 1))

	require.Len(t, got, 1)
	assert.Equal(t, day(2024, time.March, 21), got[0].Date)
	assert.Equal(t, "19:30", got[0].Time)
	assert.Equal(t, "Club house", got[0].Location)
	assert.Equal(t, models.MeetingTypeBoard, got[0].MeetingType)
	assert.Equal(t, time.Date(2024, time.March, 21, 19, 30, 0, 0, time.UTC), got[0].StartsAt)
}

func TestProjectOccurrences_LastMonday(t *testing.T) {
	got := ProjectOccurrences([]*models.MeetingRule{rule(1, -1, 1, "18:00")}, 0, day(2024, time.February, 1))

	require.Len(t, got, 1)
	assert.Equal(t, day(2024, time.February, 26), got[0].Date)
}

func TestProjectOccurrences_HorizonAndRollover(t *testing.T) {
	// Third Thursday of March 2024 (the 21st) has passed on the 25th.
	got := ProjectOccurrences([]*models.MeetingRule{rule(1, 3, 4, "19:30")}, 2, day(2024, time.March, 25))

	require.Len(t, got, 2)
	assert.Equal(t, day(2024, time.April, 18), got[0].Date)
	assert.Equal(t, day(2024, time.May, 16), got[1].Date)
}

func TestProjectOccurrences_SameDayKeptAfterMeetingTime(t *testing.T) {
	late := time.Date(2024, time.March, 21, 23, 0, 0, 0, time.UTC)
	got := ProjectOccurrences([]*models.MeetingRule{rule(1, 3, 4, "19:30")}, 0, late)

	require.Len(t, got, 1)
	assert.Equal(t, day(2024, time.March, 21), got[0].Date)
}

func TestProjectOccurrences_YearBoundary(t *testing.T) {
	got := ProjectOccurrences([]*models.MeetingRule{rule(1, 1, 1, "12:00")}, 2, day(2024, time.November, 1))

	require.Len(t, got, 3)
	assert.Equal(t, day(2024, time.November, 4), got[0].Date)
	assert.Equal(t, day(2024, time.December, 2), got[1].Date)
	assert.Equal(t, day(2025, time.January, 6), got[2].Date)
}

func TestProjectOccurrences_InactiveRuleContributesNothing(t *testing.T) {
	rules := []*models.MeetingRule{rule(1, 1, 2, "19:00"), rule(2, 3, 4, "19:30")}
	ref := day(2024, time.January, 1)

	all := ProjectOccurrences(rules, 6, ref)
	rules[1].Active = false
	fewer := ProjectOccurrences(rules, 6, ref)

	assert.Len(t, all, 14)
	assert.Len(t, fewer, 7)
	for _, occ := range fewer {
		assert.Equal(t, int64(1), occ.RuleID)
	}
}

func TestProjectOccurrences_InvalidRulesYieldNothing(t *testing.T) {
	rules := []*models.MeetingRule{
		rule(1, 5, 1, "19:00"),
		rule(2, 1, 7, "19:00"),
		rule(3, 1, 1, "late"),
		nil,
	}
	assert.Empty(t, ProjectOccurrences(rules, 6, day(2024, time.January, 1)))
}

func TestProjectOccurrences_MergesRulesInDateOrder(t *testing.T) {
	fireside := rule(2, 1, 5, "20:00")
	fireside.MeetingType = models.MeetingTypeFireside
	rules := []*models.MeetingRule{rule(1, -1, 1, "19:00"), fireside}

	got := ProjectOccurrences(rules, 1, day(2024, time.March, 1))

	require.Len(t, got, 4)
	assert.Equal(t, day(2024, time.March, 1), got[0].Date)
	assert.Equal(t, day(2024, time.March, 25), got[1].Date)
	assert.Equal(t, day(2024, time.April, 5), got[2].Date)
	assert.Equal(t, day(2024, time.April, 29), got[3].Date)
}

func TestOccurrences_StopsEarly(t *testing.T) {
	var seen int
	for range Occurrences([]*models.MeetingRule{rule(1, 1, 1, "12:00")}, 24, day(2024, time.January, 1)) {
		seen++
		if seen == 3 {
			break
		}
	}
	assert.Equal(t, 3, seen)
}

func TestOccurrencesBetween(t *testing.T) {
	rules := []*models.MeetingRule{rule(1, 3, 4, "19:30")}
	got := OccurrencesBetween(rules, day(2024, time.March, 1), day(2024, time.April, 17))
	require.Len(t, got, 1)
	assert.Equal(t, day(2024, time.March, 21), got[0].Date)

	assert.Empty(t, OccurrencesBetween(rules, day(2024, time.April, 1), day(2024, time.March, 1)))
}

func TestValidateRules_ReportsEveryBadRule(t *testing.T) {
	bad := rule(2, 0, 9, "19:00")
	bad.MeetingType = "picnic"
	err := ValidateRules([]*models.MeetingRule{rule(1, 1, 1, "19:00"), bad, rule(3, 2, 3, "99:99")})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRule))
	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 2)

	assert.NoError(t, ValidateRules([]*models.MeetingRule{rule(1, -1, 0, "09:15")}))
}

func TestProjectOccurrences_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 6).Draw(t, "rules")
		rules := make([]*models.MeetingRule, n)
		for i := range rules {
			rules[i] = &models.MeetingRule{
				ID:          int64(i + 1),
				MeetingType: rapid.SampledFrom([]models.MeetingType{models.MeetingTypeBoard, models.MeetingTypeFireside, models.MeetingTypeGeneralAssembly}).Draw(t, "type"),
				WeekOfMonth: rapid.SampledFrom([]int{1, 2, 3, 4, -1}).Draw(t, "week"),
				DayOfWeek:   rapid.IntRange(0, 6).Draw(t, "weekday"),
				TimeOfDay:   rapid.SampledFrom([]string{"08:00", "12:30", "19:00", "21:45"}).Draw(t, "time"),
				Active:      rapid.Bool().Draw(t, "active"),
			}
		}
		months := rapid.IntRange(0, 12).Draw(t, "months")
		ref := day(rapid.IntRange(2000, 2040).Draw(t, "year"), time.Month(rapid.IntRange(1, 12).Draw(t, "month")), rapid.IntRange(1, 28).Draw(t, "day"))

		got := ProjectOccurrences(rules, months, ref)

		active := 0
		for _, r := range rules {
			if r.Active {
				active++
			}
		}
		if len(got) > active*(months+1) {
			t.Fatalf("got %d occurrences for %d active rules over %d months", len(got), active, months+1)
		}
		for i, occ := range got {
			if occ.Date.Before(ref) {
				t.Fatalf("occurrence %v before reference %v", occ.Date, ref)
			}
			if int(occ.Date.Weekday()) != rules[occ.RuleID-1].DayOfWeek {
				t.Fatalf("occurrence %v on wrong weekday", occ.Date)
			}
			if i > 0 && occ.StartsAt.Before(got[i-1].StartsAt) {
				t.Fatalf("occurrences out of order: %v after %v", occ.StartsAt, got[i-1].StartsAt)
			}
		}
	})
}
