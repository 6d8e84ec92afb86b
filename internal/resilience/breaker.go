package resilience

import (
	"github.com/sony/gobreaker"

	"github.com/labelwise/labelwise/internal/config"
	"github.com/labelwise/labelwise/pkg/errors"
)

// Breaker state names as reported by health endpoints.
const (
	StateClosed   = "closed"
	StateOpen     = "open"
	StateHalfOpen = "half_open"
)

// Breaker wraps a circuit breaker for one provider. It trips when the
// failure rate over a sliding window crosses the configured threshold,
// stays open for the configured cool-off, then admits a bounded number of
// half-open probes.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// NewBreaker builds a breaker from the provider declaration. onChange, if
// non-nil, observes every state transition (for logs and metrics).
func NewBreaker(name string, cfg config.BreakerConfig, onChange func(name, from, to string)) *Breaker {
	probes := cfg.HalfOpenProbes
	if probes < 1 {
		probes = 1
	}
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: uint32(probes),
		Interval:    cfg.Window,
		Timeout:     cfg.OpenDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < uint32(cfg.MinCalls) {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRate
		},
	}
	if onChange != nil {
		settings.OnStateChange = func(name string, from, to gobreaker.State) {
			onChange(name, stateName(from), stateName(to))
		}
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

func stateName(s gobreaker.State) string {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}

// State returns the current breaker state name.
func (b *Breaker) State() string {
	return stateName(b.cb.State())
}

// Execute runs fn under the breaker. An open breaker (or an exhausted
// half-open probe budget) rejects with breaker_open without invoking fn.
func (b *Breaker) Execute(fn func() error) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	switch err {
	case nil:
		return nil
	case gobreaker.ErrOpenState, gobreaker.ErrTooManyRequests:
		return errors.New(errors.CodeBreakerOpen, "circuit breaker is open")
	default:
		return err
	}
}
