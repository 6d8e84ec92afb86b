package engine

import (
	"context"
	"time"

	"github.com/labelwise/labelwise/pkg/types/analysis"
)

// Health reports the engine's operational state: per-provider breaker state
// and call statistics, cache counters, and store reachability. It never
// returns an error; an unreachable store shows up as a field.
func (e *Engine) Health(ctx context.Context) analysis.HealthReport {
	report := analysis.HealthReport{
		Providers: make(map[string]analysis.ProviderHealth, len(e.sources)),
	}
	for _, src := range e.sources {
		stats := src.Stats()
		report.Providers[string(src.ID())] = analysis.ProviderHealth{
			BreakerState:    src.BreakerState(),
			RecentErrorRate: stats.ErrorRate,
			AvgLatencyMS:    stats.AvgLatencyMS,
			Enabled:         src.Enabled(),
		}
	}

	size, stats := e.CacheStats()
	report.Cache = analysis.CacheHealth{
		Size:      size,
		Hits:      stats.Hits,
		Misses:    stats.Misses,
		Evictions: stats.Evictions,
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	report.StoreReachable = e.records.Ping(pingCtx) == nil
	return report
}
