package http

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RateLimitError indicates the server throttled or banned the request.
// It includes the status code and optional Retry-After duration.
type RateLimitError struct {
	// StatusCode is the HTTP status code (429, 412, or 503)
	StatusCode int
	// RetryAfter indicates how long to wait before retrying
	RetryAfter time.Duration
	// IsBanned indicates the anti-crawler ban response (412)
	IsBanned bool
}

// Error returns a string representation of the rate limit error.
func (e *RateLimitError) Error() string {
	if e.IsBanned {
		return fmt.Sprintf("request banned (status %d): retry after %v", e.StatusCode, e.RetryAfter)
	}
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (status %d): retry after %v", e.StatusCode, e.RetryAfter)
	}
	return fmt.Sprintf("rate limited (status %d)", e.StatusCode)
}

// Minimum waits applied after throttle responses that carry no Retry-After.
// Bans get a much longer cooldown than ordinary throttling.
const (
	throttleFloor = 5 * time.Second
	banFloor      = 30 * time.Second
)

// DelayHint returns the minimum wait before retrying after this error.
// Rate limit responses always wait at least a throttle floor, so retries back
// off further than they would for an ordinary transient failure.
func (e *RateLimitError) DelayHint() time.Duration {
	floor := throttleFloor
	if e.IsBanned {
		floor = banFloor
	}
	if e.RetryAfter > floor {
		return e.RetryAfter
	}
	return floor
}

// HTTPError indicates a non-2xx HTTP response.
type HTTPError struct {
	// StatusCode is the HTTP status code
	StatusCode int
	// Body is the response body
	Body []byte
}

// Error returns a string representation of the HTTP error.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: status %d", e.StatusCode)
}

// Sentinel errors for HTTP operations.
var (
	// ErrNoResponse indicates no response was received from the server.
	ErrNoResponse = fmt.Errorf("no response received")

	// ErrRequestFailed indicates the request itself failed (network error).
	ErrRequestFailed = fmt.Errorf("http request failed")
)

// IsTransient reports whether an error is worth retrying at the same page:
// network failures, 5xx responses, and rate limiting. Context cancellation
// and other 4xx responses are permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return true
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500
	}

	return errors.Is(err, ErrRequestFailed) || errors.Is(err, ErrNoResponse)
}

// IsRateLimited reports whether the error is a throttle/ban response.
// Callers should back off longer than for ordinary transient errors.
func IsRateLimited(err error) bool {
	var rlErr *RateLimitError
	return errors.As(err, &rlErr)
}

// RetryAfter returns the server-suggested wait for a rate limit error,
// or zero when the error carries no such hint.
func RetryAfter(err error) time.Duration {
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return rlErr.RetryAfter
	}
	return 0
}
