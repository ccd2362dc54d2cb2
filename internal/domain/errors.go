package domain

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes a failure for retry decisions and reporting.
type ErrorKind string

const (
	KindValidation  ErrorKind = "validation"
	KindNotFound    ErrorKind = "not_found"
	KindRateLimit   ErrorKind = "rate_limit"
	KindTimeout     ErrorKind = "timeout"
	KindNetwork     ErrorKind = "network"
	KindAggregation ErrorKind = "aggregation"
)

// Sentinels for errors.Is matching against an *Error of the same kind.
var (
	ErrValidation  = errors.New("validation error")
	ErrNotFound    = errors.New("not found")
	ErrRateLimit   = errors.New("rate limited")
	ErrTimeout     = errors.New("timed out")
	ErrNetwork     = errors.New("network error")
	ErrAggregation = errors.New("aggregation error")
)

var kindSentinels = map[ErrorKind]error{
	KindValidation:  ErrValidation,
	KindNotFound:    ErrNotFound,
	KindRateLimit:   ErrRateLimit,
	KindTimeout:     ErrTimeout,
	KindNetwork:     ErrNetwork,
	KindAggregation: ErrAggregation,
}

// Retryable reports whether a failure of this kind may succeed on a later attempt.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindRateLimit, KindTimeout, KindNetwork:
		return true
	default:
		return false
	}
}

// Error is the typed failure returned across package boundaries.
type Error struct {
	Kind       ErrorKind
	Op         string // operation, e.g. "fetch org events"
	Source     string // identifier of the upstream source, if any
	StatusCode int    // HTTP status when the failure came from a response
	Err        error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Source != "" {
		msg += " (" + e.Source + ")"
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" status %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && sentinel == target
}

// Retryable reports whether the failure may succeed on a later attempt.
func (e *Error) Retryable() bool { return e.Kind.Retryable() }

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

func NewValidationError(op string, err error) *Error {
	return &Error{Kind: KindValidation, Op: op, Err: err}
}

func NewAggregationError(source string, err error) *Error {
	return &Error{Kind: KindAggregation, Op: "aggregate", Source: source, Err: err}
}

// StatusError is returned by source adapters when an upstream responded with a
// non-success HTTP status. Classification into an ErrorKind happens in one place
// (fetch.ClassifyError), not in the adapters.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Message)
}
