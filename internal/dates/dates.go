// Package dates holds the ISO calendar-date helpers shared by the
// semester and schedule packages.
//
// Dates are carried around as "YYYY-MM-DD" strings. Because the format
// is fixed-width and zero-padded, plain string comparison is a total
// order identical to calendar order, so range tests stay as string
// comparisons at the call sites. time.Time is only brought in where
// actual arithmetic (day stepping, weekday math) is needed.
package dates

import (
	"time"
)

// Layout is the ISO calendar date layout used throughout.
const Layout = "2006-01-02"

// Parse parses an ISO date string. Dates are naive calendar dates; UTC
// is used as a neutral location so no DST transition can shift a day.
func Parse(s string) (time.Time, error) {
	return time.ParseInLocation(Layout, s, time.UTC)
}

// Format renders t as an ISO date string.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// Valid reports whether s is a well-formed ISO date.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// AddDays returns s shifted by n calendar days. Malformed input yields "".
func AddDays(s string, n int) string {
	t, err := Parse(s)
	if err != nil {
		return ""
	}
	return Format(t.AddDate(0, 0, n))
}

// Weekday returns the weekday of s. Malformed input yields Sunday,
// which callers treat as "not a class day".
func Weekday(s string) time.Weekday {
	t, err := Parse(s)
	if err != nil {
		return time.Sunday
	}
	return t.Weekday()
}

// DaysBetween returns the number of calendar days from a to b
// (positive when b is after a). Malformed input yields 0.
func DaysBetween(a, b string) int {
	ta, err := Parse(a)
	if err != nil {
		return 0
	}
	tb, err := Parse(b)
	if err != nil {
		return 0
	}
	return int(tb.Sub(ta).Hours() / 24)
}

// MondayOf returns the Monday of the calendar week containing s.
// A Sunday steps back six days; any other weekday steps back to the
// Monday of its own week.
func MondayOf(s string) string {
	wd := Weekday(s)
	if wd == time.Sunday {
		return AddDays(s, -6)
	}
	return AddDays(s, -int(wd-time.Monday))
}

// DisplayShort renders s as a short human date, e.g. "Feb 2".
func DisplayShort(s string) string {
	t, err := Parse(s)
	if err != nil {
		return s
	}
	return t.Format("Jan 2")
}

// DisplayWithYear renders s with its year, e.g. "Feb 2, 2026". Used when
// a date falls outside the calendar's own span (grades due the next term).
func DisplayWithYear(s string) string {
	t, err := Parse(s)
	if err != nil {
		return s
	}
	return t.Format("Jan 2, 2006")
}
