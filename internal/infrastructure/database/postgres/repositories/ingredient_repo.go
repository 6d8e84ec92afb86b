// Package repositories provides the PostgreSQL implementations of the domain
// repository interfaces.
package repositories

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labelwise/labelwise/internal/domain/ingredient"
	"github.com/labelwise/labelwise/internal/infrastructure/monitoring/logging"
	"github.com/labelwise/labelwise/pkg/errors"
)

// querier is the slice of pgxpool.Pool the repositories use; it exists so
// tests can substitute a transaction or a stub.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// IngredientRepo persists aggregated records, one row per canonical name.
type IngredientRepo struct {
	db     querier
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewIngredientRepo constructs the repository over a live pool.
func NewIngredientRepo(pool *pgxpool.Pool, log logging.Logger) *IngredientRepo {
	return &IngredientRepo{db: pool, pool: pool, logger: log}
}

var _ ingredient.RecordRepository = (*IngredientRepo)(nil)

const getRecordSQL = `
SELECT canonical_name, eco_score, risk_level, benefits, risks_detailed,
       sources, created_at, updated_at, schema_version
FROM ingredients
WHERE canonical_name = $1`

// Get returns the record for name, or a not_found error.
func (r *IngredientRepo) Get(ctx context.Context, name ingredient.CanonicalName) (*ingredient.Record, error) {
	var (
		rec        ingredient.Record
		sourcesRaw []byte
	)
	err := r.db.QueryRow(ctx, getRecordSQL, string(name)).Scan(
		&rec.CanonicalName,
		&rec.EcoScore,
		&rec.RiskLevel,
		&rec.Benefits,
		&rec.RisksDetailed,
		&sourcesRaw,
		&rec.CreatedAt,
		&rec.UpdatedAt,
		&rec.SchemaVersion,
	)
	if err == pgx.ErrNoRows {
		return nil, errors.Newf(errors.CodeNotFound, "no record for %q", name)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "reading ingredient record")
	}
	if err := json.Unmarshal(sourcesRaw, &rec.Sources); err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "decoding record sources")
	}
	return &rec, nil
}

const upsertRecordSQL = `
INSERT INTO ingredients (canonical_name, eco_score, risk_level, benefits,
                         risks_detailed, sources, created_at, updated_at,
                         schema_version)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (canonical_name) DO UPDATE SET
    eco_score      = EXCLUDED.eco_score,
    risk_level     = EXCLUDED.risk_level,
    benefits       = EXCLUDED.benefits,
    risks_detailed = EXCLUDED.risks_detailed,
    sources        = EXCLUDED.sources,
    updated_at     = GREATEST(ingredients.updated_at, EXCLUDED.updated_at),
    schema_version = EXCLUDED.schema_version`

// Upsert inserts or replaces the record keyed by canonical name. The stored
// updated_at never moves backwards even under concurrent writers.
func (r *IngredientRepo) Upsert(ctx context.Context, record ingredient.Record) error {
	sources := record.Sources
	if sources == nil {
		sources = []ingredient.ProviderID{}
	}
	sourcesRaw, err := json.Marshal(sources)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "encoding record sources")
	}
	_, err = r.db.Exec(ctx, upsertRecordSQL,
		record.CanonicalName,
		record.EcoScore,
		string(record.RiskLevel),
		record.Benefits,
		record.RisksDetailed,
		sourcesRaw,
		record.CreatedAt,
		record.UpdatedAt,
		record.SchemaVersion,
	)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "upserting ingredient record")
	}
	return nil
}

// Ping reports store reachability.
func (r *IngredientRepo) Ping(ctx context.Context) error {
	if r.pool == nil {
		return nil
	}
	if err := r.pool.Ping(ctx); err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "database ping failed")
	}
	return nil
}
