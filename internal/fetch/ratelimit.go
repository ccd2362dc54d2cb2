package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

// DefaultRateInterval is the minimum spacing between outbound dispatches.
const DefaultRateInterval = time.Second

// RateLimiter enforces a minimum interval between request dispatches. It is
// shared by every request a Client issues, including concurrent ones: each
// caller atomically reserves the next free slot and then waits for it, so
// dispatch times are spaced by at least the interval while the requests
// themselves may overlap.
type RateLimiter struct {
	limiter  *rate.Limiter
	clock    clockwork.Clock
	interval time.Duration

	mu   sync.Mutex
	last time.Time
}

// NewRateLimiter creates a limiter with the given minimum interval. An
// interval <= 0 disables limiting. A nil clock uses real time.
func NewRateLimiter(interval time.Duration, clock clockwork.Clock) *RateLimiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &RateLimiter{
		limiter:  rate.NewLimiter(limit, 1),
		clock:    clock,
		interval: max(interval, 0),
	}
}

// Interval returns the configured minimum interval.
func (r *RateLimiter) Interval() time.Duration { return r.interval }

// LastDispatch returns the time of the most recent dispatch slot handed out.
func (r *RateLimiter) LastDispatch() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Wait blocks until the caller's dispatch slot arrives and returns how long
// it waited. If ctx ends first the slot is released and ctx's error returned.
func (r *RateLimiter) Wait(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	now := r.clock.Now()
	res := r.limiter.ReserveN(now, 1)
	if !res.OK() {
		return 0, errors.New("rate limiter: reservation exceeds burst")
	}

	delay := res.DelayFrom(now)
	if delay > 0 {
		timer := r.clock.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			res.CancelAt(r.clock.Now())
			return 0, fmt.Errorf("rate limit wait canceled: %w", ctx.Err())
		case <-timer.Chan():
		}
	}

	dispatched := now.Add(delay)
	r.mu.Lock()
	if dispatched.After(r.last) {
		r.last = dispatched
	}
	r.mu.Unlock()

	return delay, nil
}
