package resilience

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/labelwise/labelwise/internal/config"
	"github.com/labelwise/labelwise/pkg/errors"
)

// statsDecay is the weight given to history in the exponential moving
// averages; each new call contributes 1-statsDecay.
const statsDecay = 0.9

// CallStats is a decayed view of a provider's recent calls.
type CallStats struct {
	ErrorRate    float64
	AvgLatencyMS float64
	Calls        int64
}

type statsTracker struct {
	mu        sync.Mutex
	errRate   float64
	latencyMS float64
	calls     int64
}

func (s *statsTracker) observe(d time.Duration, failed bool) {
	ms := float64(d) / float64(time.Millisecond)
	outcome := 0.0
	if failed {
		outcome = 1.0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == 0 {
		s.errRate = outcome
		s.latencyMS = ms
	} else {
		s.errRate = statsDecay*s.errRate + (1-statsDecay)*outcome
		s.latencyMS = statsDecay*s.latencyMS + (1-statsDecay)*ms
	}
	s.calls++
}

func (s *statsTracker) snapshot() CallStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CallStats{
		ErrorRate:    math.Round(s.errRate*1000) / 1000,
		AvgLatencyMS: math.Round(s.latencyMS*100) / 100,
		Calls:        s.calls,
	}
}

// Policy composes the protections for one provider. Call order is fixed:
// rate limiter, then bulkhead, then breaker, with retry innermost, all under
// the per-call deadline. A rejection at any outer layer never consumes a
// slot or counts against the breaker.
type Policy struct {
	name     string
	limiter  *RateLimiter
	bulkhead *Bulkhead
	breaker  *Breaker
	deadline time.Duration

	maxRetries   int
	retryBackoff time.Duration

	stats *statsTracker
}

// NewPolicy builds the composed policy for one provider declaration.
func NewPolicy(cfg config.ProviderConfig, onBreakerChange func(name, from, to string)) *Policy {
	deadline := cfg.PerCallDeadline
	if deadline <= 0 {
		deadline = 3 * time.Second
	}
	return &Policy{
		name:         cfg.ID,
		limiter:      NewRateLimiter(cfg.RateLimit),
		bulkhead:     NewBulkhead(cfg.MaxConcurrent),
		breaker:      NewBreaker(cfg.ID, cfg.Breaker, onBreakerChange),
		deadline:     deadline,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		stats:        &statsTracker{},
	}
}

// Do runs fn under the full policy. The returned error always carries a
// status code: rate_limited, bulkhead_full, breaker_open for rejections,
// timeout when the per-call deadline elapses, or whatever code fn reported.
func (p *Policy) Do(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, p.deadline)
	defer cancel()

	if err := p.limiter.Acquire(ctx); err != nil {
		return err
	}
	if err := p.bulkhead.Acquire(ctx); err != nil {
		return err
	}
	defer p.bulkhead.Release()

	start := time.Now()
	err := p.breaker.Execute(func() error {
		return Retry(ctx, p.maxRetries, p.retryBackoff, func(ctx context.Context) error {
			callErr := fn(ctx)
			if callErr != nil && ctx.Err() == context.DeadlineExceeded {
				return errors.Wrap(callErr, errors.CodeTimeout, "per-call deadline exceeded")
			}
			return callErr
		})
	})
	p.stats.observe(time.Since(start), err != nil)
	return err
}

// BreakerState reports the provider's current breaker state name.
func (p *Policy) BreakerState() string {
	return p.breaker.State()
}

// Stats reports the decayed error rate and latency of recent calls.
func (p *Policy) Stats() CallStats {
	return p.stats.snapshot()
}
