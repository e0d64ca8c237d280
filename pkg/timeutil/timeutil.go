// Package timeutil provides calendar helpers for visitor tracking.
// Calendar dates are UTC and rendered as YYYY-MM-DD keys so that a stored
// set of visited days compares the same on every server.
package timeutil

import (
	"fmt"
	"time"
)

// DateKeyLayout is the layout of a calendar date key.
const DateKeyLayout = "2006-01-02"

// Now returns the current time in UTC.
func Now() time.Time {
	return time.Now().UTC()
}

// DateKey returns the UTC calendar date of t as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateKeyLayout)
}

// YesterdayKey returns the date key of the instant 24 hours before t.
func YesterdayKey(t time.Time) string {
	return DateKey(t.Add(-24 * time.Hour))
}

// ParseDateKey parses a YYYY-MM-DD key into midnight UTC.
func ParseDateKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation(DateKeyLayout, key, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date key %q: %w", key, err)
	}
	return t, nil
}

// IsDateKey reports whether s is a well-formed date key.
func IsDateKey(s string) bool {
	_, err := time.ParseInLocation(DateKeyLayout, s, time.UTC)
	return err == nil
}

// StartOfDay returns midnight UTC of t's calendar date.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last nanosecond of t's UTC calendar date.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).Add(24*time.Hour - time.Nanosecond)
}

// IsSameDay checks if two times fall on the same UTC date.
func IsSameDay(t1, t2 time.Time) bool {
	return DateKey(t1) == DateKey(t2)
}

// DaysBetween returns the absolute number of calendar days between t1 and t2.
func DaysBetween(t1, t2 time.Time) int {
	days := int(StartOfDay(t2).Sub(StartOfDay(t1)).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}

// SecondsBetween returns the non-negative number of seconds from start to end.
func SecondsBetween(start, end time.Time) float64 {
	if end.Before(start) {
		return 0
	}
	return end.Sub(start).Seconds()
}

// FormatRelative renders t relative to now, e.g. "5 minutes ago".
func FormatRelative(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d.Minutes()), "minute") + " ago"
	case d < 24*time.Hour:
		return plural(int(d.Hours()), "hour") + " ago"
	default:
		return plural(int(d.Hours()/24), "day") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
