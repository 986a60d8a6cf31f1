// Package http provides HTTP client infrastructure for Bilibili API
// interactions with built-in rate limiting and error classification.
package http

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter enforces a minimum interval between outbound requests using a
// token bucket with a burst of one. All collection traffic funnels through a
// single limiter instance, which is what bounds the aggregate request rate;
// the limiter stays correct if callers ever issue requests concurrently.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a rate limiter permitting one request per interval.
// A non-positive interval disables limiting.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	if interval <= 0 {
		return &RateLimiter{}
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Wait blocks until the rate limit allows the next request. It returns an
// error only when the context is canceled or its deadline passes.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl == nil || rl.limiter == nil {
		return nil
	}
	return rl.limiter.Wait(ctx)
}

// Interval returns the configured minimum inter-request interval.
func (rl *RateLimiter) Interval() time.Duration {
	if rl == nil || rl.limiter == nil {
		return 0
	}
	limit := rl.limiter.Limit()
	if limit <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / float64(limit))
}
