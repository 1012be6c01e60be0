// Package dates provides helpers for the YYYY-MM-DD date keys used as ledger
// indices throughout the workspace document. Keys sort lexically in calendar
// order, so plain string comparison is safe.
package dates

import (
	"fmt"
	"time"
)

// KeyLayout is the date key format.
const KeyLayout = "2006-01-02"

// Key returns the date key for t in t's location.
func Key(t time.Time) string {
	return t.Format(KeyLayout)
}

// Parse converts a date key back to a time at midnight local time.
func Parse(key string) (time.Time, error) {
	t, err := time.ParseInLocation(KeyLayout, key, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date key %q: %w", key, err)
	}
	return t, nil
}

// Valid reports whether key is a well-formed date key.
func Valid(key string) bool {
	_, err := Parse(key)
	return err == nil
}

// Weekday returns the weekday of key (0=Sunday..6=Saturday), or -1 when key
// is malformed.
func Weekday(key string) int {
	t, err := Parse(key)
	if err != nil {
		return -1
	}
	return int(t.Weekday())
}

// AddDays returns the key n days after key. Malformed keys come back
// unchanged.
func AddDays(key string, n int) string {
	t, err := Parse(key)
	if err != nil {
		return key
	}
	return Key(t.AddDate(0, 0, n))
}

// DaysBetween returns the whole-day distance from a to b (positive when b is
// later). Returns 0 when either key is malformed.
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

// WeekKey returns the ISO-8601 week identifier for t, e.g. "2026-W09".
// ISO weeks are Thursday-anchored: a week belongs to the year containing its
// Thursday. The freeze allowance resets on exactly this boundary.
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}
