// Package calendar projects recurring club meetings onto concrete dates.
// All functions are pure: the reference date is always passed in, and the
// zone of that date is used for every date the package constructs.
package calendar

import (
	"fmt"
	"time"
)

// DateOf truncates t to midnight in t's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// BeforeDay reports whether the calendar date of a is strictly before the
// calendar date of b. Times of day are ignored.
// Each date is read in its own location, so a DATE column scanned as UTC
// compares correctly against a club-local "today".
func BeforeDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay < by
	}
	if am != bm {
		return am < bm
	}
	return ad < bd
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	// Day 0 of the next month normalises to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonths moves (year, month) forward by n months, n may be negative.
func AddMonths(year int, month time.Month, n int) (int, time.Month) {
	idx := year*12 + int(month) - 1 + n
	return idx / 12, time.Month(idx%12 + 1)
}

// WeekdaysInMonth returns every date in the month falling on weekday, in
// ascending order. The result always has four or five entries.
func WeekdaysInMonth(year int, month time.Month, weekday time.Weekday, loc *time.Location) []time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	offset := (int(weekday) - int(first.Weekday()) + 7) % 7

	days := DaysIn(year, month)
	dates := make([]time.Time, 0, 5)
	for day := 1 + offset; day <= days; day += 7 {
		dates = append(dates, time.Date(year, month, day, 0, 0, 0, 0, loc))
	}
	return dates
}

// NthWeekday returns the nth occurrence of weekday in the month. n counts
// from 1; n == -1 selects the last occurrence. ok is false when the month
// has no such occurrence.
func NthWeekday(year int, month time.Month, weekday time.Weekday, n int, loc *time.Location) (time.Time, bool) {
	candidates := WeekdaysInMonth(year, month, weekday, loc)
	switch {
	case n == -1:
		return candidates[len(candidates)-1], true
	case n >= 1 && n <= len(candidates):
		return candidates[n-1], true
	default:
		return time.Time{}, false
	}
}

// AnniversaryIn re-anchors the month and day of anchor to year in loc.
// A 29 February anchor falls on 28 February in non-leap years.
func AnniversaryIn(anchor time.Time, year int, loc *time.Location) time.Time {
	month, day := anchor.Month(), anchor.Day()
	if last := DaysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// ParseClock parses a wall-clock "HH:MM" string.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q: want HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}

// At combines the date of day with a wall-clock hour and minute.
func At(day time.Time, hour, minute int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, day.Location())
}
