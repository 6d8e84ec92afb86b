// Package resilience implements the per-provider call protections: token
// bucket rate limiting, a bulkhead bounding concurrency, a circuit breaker,
// and retry with jittered backoff. Policy composes them in that order under
// a per-call deadline. Rejections surface as coded errors; callers translate
// them into provider status codes.
package resilience

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/labelwise/labelwise/internal/config"
	"github.com/labelwise/labelwise/pkg/errors"
)

// RateLimiter is a token bucket: cfg.Limit tokens refilling every
// cfg.Period, with the bucket size equal to the refill amount.
type RateLimiter struct {
	limiter        *rate.Limiter
	acquireTimeout time.Duration
}

// NewRateLimiter builds a limiter from the provider declaration. A
// non-positive limit means unlimited.
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	if cfg.Limit <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	period := cfg.Period
	if period <= 0 {
		period = time.Second
	}
	return &RateLimiter{
		limiter:        rate.NewLimiter(rate.Every(period/time.Duration(cfg.Limit)), cfg.Limit),
		acquireTimeout: cfg.AcquireTimeout,
	}
}

// Acquire blocks until a token is available, the acquire timeout elapses, or
// ctx is done. Timeout and cancellation both reject with rate_limited.
func (r *RateLimiter) Acquire(ctx context.Context) error {
	if r.acquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.acquireTimeout)
		defer cancel()
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, errors.CodeRateLimited, "rate limit token unavailable")
	}
	return nil
}
