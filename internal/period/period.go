// Package period provides calendar-date arithmetic for daily and weekly
// statistics periods. Dates are normalized to UTC midnight so they compare
// and key consistently regardless of the wall clock they were derived from.
package period

import "time"

// DateOf returns the calendar date of t in the given location, normalized to
// UTC midnight.
func DateOf(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the Monday of the week containing date.
func WeekStart(date time.Time) time.Time {
	daysSinceMonday := (int(date.Weekday()) + 6) % 7
	return date.AddDate(0, 0, -daysSinceMonday)
}

// PreviousWeekStart returns the Monday of the week before the one containing
// date. This is the key the weekly pipeline writes under: when it runs early
// in a new week, the finished week is the previous one.
func PreviousWeekStart(date time.Time) time.Time {
	return WeekStart(date).AddDate(0, 0, -7)
}

// SameDate reports whether a and b fall on the same calendar date. Both are
// expected to be normalized dates.
func SameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
