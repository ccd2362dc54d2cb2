// Package fetch retrieves activity events and weather from upstream sources
// with a shared rate governor, per-attempt timeouts, retry with exponential
// backoff, and a circuit breaker per source.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/couchcryptid/activity-insights-service/internal/domain"
	"github.com/couchcryptid/activity-insights-service/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"
)

// Breaker and metric source names.
const (
	SourceEvents  = "events"
	SourceWeather = "weather"
)

// DefaultMaxEventPages bounds event pagination. The events API serves at
// most 300 events at 100 per page.
const DefaultMaxEventPages = 3

// EventsSource reads one page of activity events. It returns the events on
// the page and the next page number, or 0 when there are no more pages.
type EventsSource interface {
	UserEventsPage(ctx context.Context, username string, page int) ([]domain.RawEvent, int, error)
	OrgEventsPage(ctx context.Context, org string, page int) ([]domain.RawEvent, int, error)
}

// WeatherSource reads daily weather for an inclusive date range.
type WeatherSource interface {
	DailyWeather(ctx context.Context, start, end string) (domain.WeatherSeries, error)
}

// Settings tunes the client's resilience behavior.
type Settings struct {
	RateInterval            time.Duration
	Retry                   RetryPolicy
	MaxEventPages           int
	BreakerFailureThreshold uint32        // consecutive retryable failures that open a breaker
	BreakerOpenTimeout      time.Duration // how long an open breaker rejects calls
	Clock                   clockwork.Clock
}

// DefaultSettings returns production defaults.
func DefaultSettings() Settings {
	return Settings{
		RateInterval:            DefaultRateInterval,
		Retry:                   DefaultRetryPolicy(),
		MaxEventPages:           DefaultMaxEventPages,
		BreakerFailureThreshold: 5,
		BreakerOpenTimeout:      30 * time.Second,
	}
}

// Option customizes a Client.
type Option func(*Client)

// WithSleepFunc overrides how the client waits between retries.
func WithSleepFunc(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = fn }
}

// WithJitterFunc overrides the random source for backoff jitter. fn must
// return a value in [0, 1).
func WithJitterFunc(fn func() float64) Option {
	return func(c *Client) { c.jitter = fn }
}

// Client fetches from the events and weather sources. All requests share one
// RateLimiter.
type Client struct {
	events  EventsSource
	weather WeatherSource
	limiter *RateLimiter
	retry   RetryPolicy
	pages   int

	eventsBreaker  *gobreaker.CircuitBreaker[struct{}]
	weatherBreaker *gobreaker.CircuitBreaker[struct{}]

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() float64

	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewClient creates a Client. weather may be nil when weather is not needed.
func NewClient(events EventsSource, weather WeatherSource, s Settings, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Client {
	clock := s.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	pages := s.MaxEventPages
	if pages < 1 {
		pages = DefaultMaxEventPages
	}
	threshold := s.BreakerFailureThreshold
	if threshold == 0 {
		threshold = DefaultSettings().BreakerFailureThreshold
	}

	c := &Client{
		events:  events,
		weather: weather,
		limiter: NewRateLimiter(s.RateInterval, clock),
		retry:   s.Retry.normalized(),
		pages:   pages,
		sleep:   clockSleep(clock),
		jitter:  rand.Float64,
		logger:  logger,
		metrics: metrics,
	}
	c.eventsBreaker = c.newBreaker(SourceEvents, threshold, s.BreakerOpenTimeout)
	c.weatherBreaker = c.newBreaker(SourceWeather, threshold, s.BreakerOpenTimeout)

	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) newBreaker(name string, threshold uint32, timeout time.Duration) *gobreaker.CircuitBreaker[struct{}] {
	c.metrics.BreakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Only failures worth retrying say anything about upstream health.
		IsSuccessful: func(err error) bool {
			return err == nil || !shouldRetry(ClassifyError("", "", err))
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed", "source", name, "from", from.String(), "to", to.String())
			c.metrics.BreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
}

// Limiter returns the client's rate governor.
func (c *Client) Limiter() *RateLimiter { return c.limiter }

// CheckReadiness returns an error while the events breaker is open.
func (c *Client) CheckReadiness(_ context.Context) error {
	if c.eventsBreaker.State() == gobreaker.StateOpen {
		return errors.New("events source circuit breaker is open")
	}
	return nil
}

// FetchUserEvents returns the push events of a user.
func (c *Client) FetchUserEvents(ctx context.Context, username string) ([]domain.RawEvent, error) {
	if err := domain.ValidateIdentifier(username); err != nil {
		return nil, err
	}
	return c.fetchEventPages(ctx, "fetch user events", username, c.events.UserEventsPage)
}

// FetchOrgEvents returns the push events of an organization.
func (c *Client) FetchOrgEvents(ctx context.Context, org string) ([]domain.RawEvent, error) {
	if err := domain.ValidateIdentifier(org); err != nil {
		return nil, err
	}
	return c.fetchEventPages(ctx, "fetch org events", org, c.events.OrgEventsPage)
}

type pageFunc func(ctx context.Context, name string, page int) ([]domain.RawEvent, int, error)

func (c *Client) fetchEventPages(ctx context.Context, op, name string, fetchPage pageFunc) ([]domain.RawEvent, error) {
	var pushes []domain.RawEvent
	page := 1
	for range c.pages {
		var (
			events []domain.RawEvent
			next   int
		)
		err := c.do(ctx, op, SourceEvents, name, c.eventsBreaker, func(ctx context.Context) error {
			var err error
			events, next, err = fetchPage(ctx, name, page)
			return err
		})
		if err != nil {
			return nil, err
		}

		for _, ev := range events {
			if ev.IsPush() {
				pushes = append(pushes, ev)
			}
		}
		if next <= page {
			break
		}
		page = next
	}
	return pushes, nil
}

// FetchWeatherData returns daily weather for the inclusive range [start, end].
func (c *Client) FetchWeatherData(ctx context.Context, start, end string) (domain.WeatherSeries, error) {
	const op = "fetch weather"
	if _, _, err := domain.ParseDateRange(start, end); err != nil {
		return domain.WeatherSeries{}, err
	}
	if c.weather == nil {
		return domain.WeatherSeries{}, &domain.Error{Kind: domain.KindNetwork, Op: op, Err: errors.New("weather source not configured")}
	}

	var series domain.WeatherSeries
	err := c.do(ctx, op, SourceWeather, start+".."+end, c.weatherBreaker, func(ctx context.Context) error {
		var err error
		series, err = c.weather.DailyWeather(ctx, start, end)
		return err
	})
	if err != nil {
		return domain.WeatherSeries{}, err
	}
	if series.Time == nil {
		return domain.WeatherSeries{}, domain.NewValidationError(op, errors.New("response has no daily time array"))
	}
	return series, nil
}

// FetchMultipleOrgEvents fetches every distinct organization concurrently and
// waits for all of them. Repeated names are fetched once and reported once,
// so SuccessCount+ErrorCount equals the number of distinct names in orgs. A
// failing organization never aborts the others; its error is recorded in the
// outcome. An error is returned only when no organizations were requested or
// none succeeded.
func (c *Client) FetchMultipleOrgEvents(ctx context.Context, orgs []string) (domain.FetchOutcome, error) {
	names := dedupe(orgs)
	if len(names) == 0 {
		return domain.NewFetchOutcome(nil, nil),
			domain.NewValidationError("fetch org events", errors.New("no organizations requested"))
	}

	var (
		mu      sync.Mutex
		results = make(map[string][]domain.RawEvent, len(names))
		errs    = make(map[string]error)
		g       errgroup.Group
	)
	for _, org := range names {
		g.Go(func() error {
			events, err := c.FetchOrgEvents(ctx, org)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				c.logger.Warn("organization fetch failed", "source", org, "error", err)
				errs[org] = err
				// Settle all: never fail the group.
				return nil
			}
			results[org] = events
			return nil
		})
	}
	_ = g.Wait()

	outcome := domain.NewFetchOutcome(results, errs)
	if outcome.SuccessCount == 0 {
		joined := make([]error, 0, len(names))
		for _, name := range names {
			joined = append(joined, errs[name])
		}
		return outcome, fmt.Errorf("fetch org events: all %d organizations failed: %w", len(names), errors.Join(joined...))
	}
	return outcome, nil
}

// do runs fn under the rate governor, the per-attempt timeout and the
// source's breaker, retrying retryable failures with backoff. The returned
// error is always a classified *domain.Error.
func (c *Client) do(ctx context.Context, op, source, target string, breaker *gobreaker.CircuitBreaker[struct{}], fn func(context.Context) error) error {
	var last *domain.Error
	for attempt := range c.retry.MaxAttempts {
		if attempt > 0 {
			delay := c.retry.Backoff(attempt-1, c.jitter)
			c.metrics.FetchRetries.WithLabelValues(source).Inc()
			c.logger.Warn("retrying upstream request",
				"op", op, "source", target, "attempt", attempt+1, "delay", delay, "error", last)
			if err := c.sleep(ctx, delay); err != nil {
				break
			}
		}

		err := c.attempt(ctx, source, breaker, fn)
		if err == nil {
			c.metrics.FetchRequests.WithLabelValues(source, "success").Inc()
			return nil
		}

		last = ClassifyError(op, target, err)
		if ctx.Err() != nil || !shouldRetry(last) {
			break
		}
	}

	c.metrics.FetchRequests.WithLabelValues(source, "error").Inc()
	return last
}

func (c *Client) attempt(ctx context.Context, source string, breaker *gobreaker.CircuitBreaker[struct{}], fn func(context.Context) error) error {
	waited, err := c.limiter.Wait(ctx)
	if err != nil {
		return err
	}
	c.metrics.RateLimitWait.Observe(waited.Seconds())

	attemptCtx, cancel := context.WithTimeout(ctx, c.retry.Timeout)
	defer cancel()

	start := time.Now()
	_, err = breaker.Execute(func() (struct{}, error) {
		return struct{}{}, fn(attemptCtx)
	})
	c.metrics.FetchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	return err
}

func clockSleep(clock clockwork.Clock) func(context.Context, time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		if d <= 0 {
			return ctx.Err()
		}
		timer := clock.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.Chan():
			return nil
		}
	}
}

func dedupe(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}
