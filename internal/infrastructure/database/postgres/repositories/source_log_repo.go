package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labelwise/labelwise/internal/domain/ingredient"
	"github.com/labelwise/labelwise/internal/infrastructure/monitoring/logging"
	"github.com/labelwise/labelwise/pkg/errors"
)

// SourceLogRepo appends audit rows recording every provider fetch outcome.
type SourceLogRepo struct {
	db     querier
	logger logging.Logger
}

// NewSourceLogRepo constructs the repository over a live pool.
func NewSourceLogRepo(pool *pgxpool.Pool, log logging.Logger) *SourceLogRepo {
	return &SourceLogRepo{db: pool, logger: log}
}

var _ ingredient.SourceLogRepository = (*SourceLogRepo)(nil)

const appendLogSQL = `
INSERT INTO external_source_log (id, source_id, canonical_name, status_code,
                                 fetched_at, summary)
VALUES ($1, $2, $3, $4, $5, $6)`

// Append writes one audit row. Callers treat failures as non-fatal.
func (r *SourceLogRepo) Append(ctx context.Context, entry ingredient.SourceLogEntry) error {
	id := entry.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := r.db.Exec(ctx, appendLogSQL,
		id,
		string(entry.Provider),
		entry.CanonicalName,
		string(entry.StatusCode),
		entry.FetchedAt,
		entry.Summary,
	)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "appending source log entry")
	}
	return nil
}
