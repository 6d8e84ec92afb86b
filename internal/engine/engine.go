// Package engine implements label resolution: canonicalization, cache
// lookups, concurrent provider fan-out, aggregation, persistence, and the
// product-level verdict. Engine owns all cross-request state; there are no
// package-level globals, so several engines can coexist in one process.
package engine

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/labelwise/labelwise/internal/cache/memory"
	"github.com/labelwise/labelwise/internal/config"
	"github.com/labelwise/labelwise/internal/domain/ingredient"
	"github.com/labelwise/labelwise/internal/infrastructure/messaging/kafka"
	"github.com/labelwise/labelwise/internal/infrastructure/monitoring/logging"
	"github.com/labelwise/labelwise/internal/infrastructure/monitoring/metrics"
	"github.com/labelwise/labelwise/internal/resilience"
	"github.com/labelwise/labelwise/pkg/errors"
)

// Source is one external provider as the engine sees it. *providers.Source
// satisfies it; tests use fakes.
type Source interface {
	ID() ingredient.ProviderID
	Enabled() bool
	TTL() time.Duration
	BreakerState() string
	Stats() resilience.CallStats
	Resolve(ctx context.Context, name string) ingredient.Fact
}

// EventPublisher publishes envelopes to the message bus. Optional; a nil
// publisher disables events.
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, env kafka.Envelope) error
}

// Deps carries everything an Engine needs. Records is required; SourceLog,
// Mirror, FactCache, Publisher and Metrics are optional.
type Deps struct {
	Config    *config.Config
	Sources   []Source
	Records   ingredient.RecordRepository
	SourceLog ingredient.SourceLogRepository
	Mirror    ingredient.Mirror
	FactCache ingredient.FactCache
	Publisher EventPublisher
	Metrics   *metrics.Metrics
	Logger    logging.Logger
}

// Engine is the resolution orchestrator.
type Engine struct {
	cfg       *config.Config
	sources   []Source
	records   ingredient.RecordRepository
	sourceLog ingredient.SourceLogRepository
	mirror    ingredient.Mirror
	factCache ingredient.FactCache
	publisher EventPublisher
	metrics   *metrics.Metrics
	logger    logging.Logger

	l1        *memory.Cache
	sf        singleflight.Group
	globalSem *semaphore.Weighted
	rules     ingredient.AggregationRules
	nowFunc   func() time.Time
}

// New builds an Engine from deps.
func New(deps Deps) (*Engine, error) {
	if deps.Config == nil {
		return nil, errors.New(errors.CodeConfigError, "engine requires a configuration")
	}
	if deps.Records == nil {
		return nil, errors.New(errors.CodeConfigError, "engine requires a record repository")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	maxInFlight := deps.Config.Orchestrator.MaxGlobalInFlight
	if maxInFlight < 1 {
		maxInFlight = 64
	}

	return &Engine{
		cfg:       deps.Config,
		sources:   deps.Sources,
		records:   deps.Records,
		sourceLog: deps.SourceLog,
		mirror:    deps.Mirror,
		factCache: deps.FactCache,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		logger:    logger.Named("engine"),
		l1:        memory.New(deps.Config.Cache.MaxEntries, maxCacheTTL(deps.Config)),
		globalSem: semaphore.NewWeighted(int64(maxInFlight)),
		rules:     rulesFromConfig(deps.Config),
		nowFunc:   time.Now,
	}, nil
}

// maxCacheTTL is the upper bound the in-process cache enforces: the longest
// provider TTL or the record max age, whichever is larger.
func maxCacheTTL(cfg *config.Config) time.Duration {
	max := cfg.Cache.RecordMaxAge
	for _, p := range cfg.Providers {
		if p.TTL > max {
			max = p.TTL
		}
	}
	if max <= 0 {
		max = 24 * time.Hour
	}
	return max
}

// rulesFromConfig derives the aggregation priority order and weights from
// the provider declarations. The seed catalog slots in after every external
// source; PubChem stays last as a purely chemical signal.
func rulesFromConfig(cfg *config.Config) ingredient.AggregationRules {
	decls := make([]config.ProviderConfig, len(cfg.Providers))
	copy(decls, cfg.Providers)
	sort.SliceStable(decls, func(i, j int) bool { return decls[i].Priority < decls[j].Priority })

	var (
		order   []ingredient.ProviderID
		weights = make(map[ingredient.ProviderID]float64, len(decls))
		hasPub  bool
	)
	for _, d := range decls {
		id := ingredient.ProviderID(d.ID)
		if id == ingredient.ProviderPubChem {
			hasPub = true
			weights[id] = d.Weight
			continue
		}
		order = append(order, id)
		weights[id] = d.Weight
	}
	order = append(order, ingredient.ProviderLocalSeed)
	if hasPub {
		order = append(order, ingredient.ProviderPubChem)
	}
	return ingredient.NewAggregationRules(order, weights)
}

// enabledSources returns the sources participating in fan-out.
func (e *Engine) enabledSources() []Source {
	out := make([]Source, 0, len(e.sources))
	for _, s := range e.sources {
		if s.Enabled() {
			out = append(out, s)
		}
	}
	return out
}

// CacheStats exposes the in-process cache counters for health reporting.
func (e *Engine) CacheStats() (size int, stats memory.Stats) {
	return e.l1.Len(), e.l1.TotalStats()
}
