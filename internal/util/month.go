package util

import "time"

// LastDayOfMonth returns the number of days in the given month.
func LastDayOfMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonths advances a date by n calendar months, clamping the day to
// the target month's length (Jan 31 + 1 month is Feb 28/29, not Mar 3).
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	// Normalize via day 1 so time.Date's own overflow handling can't skip a month
	anchor := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	last := LastDayOfMonth(anchor.Year(), anchor.Month())
	if day > last {
		day = last
	}
	return time.Date(anchor.Year(), anchor.Month(), day, 0, 0, 0, 0, time.UTC)
}

// DateOnly truncates a time to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ClampDay returns the actual date for a target day in a given month,
// handling months with fewer days (day 31 in February returns Feb 28/29).
// Invalid days (<= 0) are clamped to 1.
func ClampDay(year int, month time.Month, targetDay int) time.Time {
	day := targetDay
	if day < 1 {
		day = 1
	}
	if last := LastDayOfMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
