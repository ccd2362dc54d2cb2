package fetch

import (
	"context"
	"errors"
	"math"
	"net"
	"net/http"
	"time"

	"github.com/couchcryptid/activity-insights-service/internal/domain"
	"github.com/sony/gobreaker/v2"
)

// RetryPolicy configures how a single upstream operation is attempted.
type RetryPolicy struct {
	MaxAttempts int           // total attempts, including the first
	BaseDelay   time.Duration // delay before the first retry, doubled each retry
	Jitter      time.Duration // upper bound of the uniform random delay added to each retry
	Timeout     time.Duration // hard limit on a single attempt
}

// DefaultRetryPolicy returns the defaults for upstream calls.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Jitter:      500 * time.Millisecond,
		Timeout:     30 * time.Second,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Timeout <= 0 {
		p.Timeout = DefaultRetryPolicy().Timeout
	}
	p.BaseDelay = max(p.BaseDelay, 0)
	p.Jitter = max(p.Jitter, 0)
	return p
}

// Backoff returns the delay before retry number retry (0 for the first
// retry): BaseDelay*2^retry plus jitter scaled by rnd, which must return a
// value in [0, 1).
func (p RetryPolicy) Backoff(retry int, rnd func() float64) time.Duration {
	delay := float64(p.BaseDelay) * math.Pow(2, float64(retry))
	if p.Jitter > 0 && rnd != nil {
		delay += rnd() * float64(p.Jitter)
	}
	return time.Duration(delay)
}

// ClassifyError maps any failure from an upstream call to a typed domain
// error. It is the only place transport failures, HTTP statuses and breaker
// rejections are turned into error kinds, and it is used both for the retry
// decision and for the error returned to callers. A nil err returns nil.
func ClassifyError(op, source string, err error) *domain.Error {
	if err == nil {
		return nil
	}

	var de *domain.Error
	if errors.As(err, &de) {
		return de
	}

	kind := domain.KindNetwork
	status := 0

	var se *domain.StatusError
	var ne net.Error
	switch {
	case errors.As(err, &se):
		status = se.StatusCode
		kind = kindForStatus(se.StatusCode)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		kind = domain.KindNetwork
	case errors.Is(err, context.DeadlineExceeded):
		kind = domain.KindTimeout
	case errors.As(err, &ne) && ne.Timeout():
		kind = domain.KindTimeout
	}

	return &domain.Error{Kind: kind, Op: op, Source: source, StatusCode: status, Err: err}
}

func kindForStatus(code int) domain.ErrorKind {
	switch {
	case code == http.StatusNotFound:
		return domain.KindNotFound
	case code == http.StatusTooManyRequests, code == http.StatusForbidden:
		return domain.KindRateLimit
	case code == http.StatusRequestTimeout, code == http.StatusGatewayTimeout:
		return domain.KindTimeout
	case code >= 500:
		return domain.KindNetwork
	default:
		return domain.KindValidation
	}
}

// breakerRejected reports whether err came from an open or saturated breaker.
func breakerRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// shouldRetry reports whether a failed attempt may be retried.
func shouldRetry(err error) bool {
	if breakerRejected(err) || errors.Is(err, context.Canceled) {
		return false
	}
	kind := domain.KindOf(err)
	return kind.Retryable()
}
