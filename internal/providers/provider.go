// Package providers implements the adapters for the external ingredient
// information sources and the registry that owns them. Each source runs
// behind its own resilience policy; a source never returns an error to the
// orchestrator — every outcome, success or failure, is an ingredient.Fact.
package providers

import (
	"context"
	"time"

	"github.com/labelwise/labelwise/internal/config"
	"github.com/labelwise/labelwise/internal/domain/ingredient"
	"github.com/labelwise/labelwise/internal/resilience"
	"github.com/labelwise/labelwise/pkg/errors"
)

// Adapter translates one upstream API into facts. Implementations parse and
// normalize only; deadlines, retries and breakers belong to the Source
// wrapping them.
type Adapter interface {
	ID() ingredient.ProviderID
	Fetch(ctx context.Context, name string) (ingredient.Fact, error)
}

// Source pairs an adapter with its resilience policy and declaration.
type Source struct {
	adapter Adapter
	policy  *resilience.Policy
	cfg     config.ProviderConfig
	nowFunc func() time.Time
}

// NewSource wraps adapter with the policy derived from cfg.
func NewSource(adapter Adapter, cfg config.ProviderConfig, onBreakerChange func(name, from, to string)) *Source {
	return &Source{
		adapter: adapter,
		policy:  resilience.NewPolicy(cfg, onBreakerChange),
		cfg:     cfg,
		nowFunc: time.Now,
	}
}

// ID returns the provider id.
func (s *Source) ID() ingredient.ProviderID { return s.adapter.ID() }

// Enabled reports whether the source participates in fan-out.
func (s *Source) Enabled() bool { return s.cfg.Enabled }

// TTL returns how long this source's facts stay fresh.
func (s *Source) TTL() time.Duration { return s.cfg.TTL }

// BreakerState reports the source's breaker state name.
func (s *Source) BreakerState() string { return s.policy.BreakerState() }

// Stats reports the decayed call statistics of the source.
func (s *Source) Stats() resilience.CallStats { return s.policy.Stats() }

// Resolve fetches a fact for name under the full resilience policy. It never
// returns an error: any failure becomes a Fact with Success=false and a
// status code naming the failure class.
func (s *Source) Resolve(ctx context.Context, name string) ingredient.Fact {
	var fact ingredient.Fact
	err := s.policy.Do(ctx, func(ctx context.Context) error {
		var fetchErr error
		fact, fetchErr = s.adapter.Fetch(ctx, name)
		return fetchErr
	})
	if err != nil {
		code := errors.GetCode(err)
		if code == errors.CodeUnknown {
			code = errors.CodeUpstream5xx
		}
		return ingredient.FailedFact(s.ID(), name, code, s.nowFunc().UTC())
	}
	fact.Provider = s.ID()
	fact.CanonicalName = name
	fact.Success = true
	fact.StatusCode = errors.CodeOK
	if fact.FetchedAt.IsZero() {
		fact.FetchedAt = s.nowFunc().UTC()
	}
	if !fact.RiskLevel.Valid() || fact.RiskLevel == "" {
		fact.RiskLevel = ingredient.RiskUnknown
	}
	return fact
}
