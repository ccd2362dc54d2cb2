package domain

import (
	"fmt"
	"time"
)

// DateLayout is the canonical date key format.
const DateLayout = "2006-01-02"

// DateKey formats t as a UTC calendar date key.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD key into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	if err := ValidateDate(s); err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, NewValidationError("parse date", fmt.Errorf("invalid date %q: %w", s, err))
	}
	return t, nil
}

// ParseDateRange parses start and end keys and checks that start <= end.
func ParseDateRange(start, end string) (time.Time, time.Time, error) {
	from, err := ParseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := ParseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, NewValidationError("parse date range",
			fmt.Errorf("start date %s is after end date %s", start, end))
	}
	return from, to, nil
}

// DaysBetween returns the number of calendar days in [start, end], inclusive.
func DaysBetween(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}

// DefaultRange returns the window of the given number of days ending today.
func DefaultRange(days int) (string, string) {
	if days < 1 {
		days = 1
	}
	end := Now().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -(days - 1))
	return DateKey(start), DateKey(end)
}
