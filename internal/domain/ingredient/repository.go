package ingredient

import (
	"context"
	"time"
)

// RecordRepository is the authoritative store of aggregated records (the L2
// cache). Implementations must serialize concurrent upserts per canonical
// name; a successful Upsert is durable before it returns.
type RecordRepository interface {
	// Get returns the record for name, or a CodeNotFound error.
	Get(ctx context.Context, name CanonicalName) (*Record, error)

	// Upsert inserts or replaces the record keyed by its CanonicalName.
	Upsert(ctx context.Context, record Record) error

	// Ping reports store reachability for health checks.
	Ping(ctx context.Context) error
}

// SourceLogRepository appends audit rows for provider fetch outcomes.
// Append failures must not fail a resolution; callers log and continue.
type SourceLogRepository interface {
	Append(ctx context.Context, entry SourceLogEntry) error
}

// Mirror is the best-effort document-store copy of aggregated records.
// A Put failure never fails the resolution that triggered it; the caller
// reports it for asynchronous reconciliation.
type Mirror interface {
	Put(ctx context.Context, record Record) error
	Get(ctx context.Context, name CanonicalName) (*Record, error)
}

// FactCache is an optional shared cache of provider facts, letting multiple
// process instances reuse fetch results. The in-process L1 remains in front
// of it.
type FactCache interface {
	Get(ctx context.Context, provider ProviderID, name CanonicalName) (*Fact, error)
	Set(ctx context.Context, fact Fact, ttl time.Duration) error
}
