package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is a package-level time source so tests can freeze "today" via SetClock.
// Production code uses the real clock; tests inject a fake for deterministic date ranges.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source used for report timestamps and default
// analysis windows. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the current time in UTC according to the package clock.
func Now() time.Time {
	return clock.Now().UTC()
}

// Today returns the current UTC date key.
func Today() string {
	return DateKey(Now())
}
