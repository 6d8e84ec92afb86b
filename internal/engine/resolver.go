package engine

import (
	"context"
	"sync"
	"time"

	"github.com/labelwise/labelwise/internal/domain/ingredient"
	"github.com/labelwise/labelwise/internal/infrastructure/messaging/kafka"
	"github.com/labelwise/labelwise/internal/infrastructure/monitoring/logging"
	"github.com/labelwise/labelwise/pkg/errors"
)

const (
	recordKeyPrefix = "record:"
	factKeyPrefix   = "fact:"
)

func recordKey(name ingredient.CanonicalName) string {
	return recordKeyPrefix + string(name)
}

func factKey(provider ingredient.ProviderID, name ingredient.CanonicalName) string {
	return factKeyPrefix + string(provider) + ":" + string(name)
}

// ResolveIngredients resolves a raw label token list to aggregated records,
// one per distinct canonical name, in first-appearance order. Tokens that
// canonicalize to nothing (measurements, noise) are dropped silently.
//
// The only errors a caller sees are invalid_input, deadline_exceeded, and
// internal_error; every provider failure is absorbed into the records.
func (e *Engine) ResolveIngredients(ctx context.Context, rawNames []string) ([]ingredient.Record, error) {
	if len(rawNames) == 0 {
		return nil, errors.New(errors.CodeInvalidInput, "ingredient list is empty")
	}
	if max := e.cfg.Orchestrator.MaxTokens; max > 0 && len(rawNames) > max {
		return nil, errors.Newf(errors.CodeInvalidInput, "ingredient list exceeds %d tokens", max)
	}
	if err := e.checkTokenLengths(rawNames); err != nil {
		return nil, err
	}

	names := e.canonicalizeAll(rawNames)
	if len(names) == 0 {
		return []ingredient.Record{}, nil
	}
	if e.metrics != nil {
		e.metrics.ResolutionSize.Observe(float64(len(names)))
	}

	start := e.nowFunc()
	if d := e.cfg.Orchestrator.OverallDeadline; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	records := make([]ingredient.Record, len(names))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for i, name := range names {
		wg.Add(1)
		go func(i int, name ingredient.CanonicalName) {
			defer wg.Done()
			rec, err := e.resolveOne(ctx, name)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			records[i] = rec
		}(i, name)
	}
	wg.Wait()

	if e.metrics != nil {
		e.metrics.ResolutionDuration.Observe(e.nowFunc().Sub(start).Seconds())
	}
	if firstErr != nil {
		return nil, surfaced(firstErr)
	}
	return records, nil
}

// GetIngredient resolves a single raw name. A token that canonicalizes to
// nothing is invalid_input here, unlike in list resolution where it is
// silently dropped.
func (e *Engine) GetIngredient(ctx context.Context, raw string) (ingredient.Record, error) {
	if err := e.checkTokenLengths([]string{raw}); err != nil {
		return ingredient.Record{}, err
	}
	name, ok := ingredient.Canonicalize(raw)
	if !ok {
		return ingredient.Record{}, errors.Newf(errors.CodeInvalidInput, "%q is not an ingredient name", raw)
	}
	if d := e.cfg.Orchestrator.OverallDeadline; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	rec, err := e.resolveOne(ctx, name)
	if err != nil {
		return ingredient.Record{}, surfaced(err)
	}
	return rec, nil
}

// checkTokenLengths rejects tokens over the configured length cap. An
// over-limit token is caller error, not noise to drop.
func (e *Engine) checkTokenLengths(rawNames []string) error {
	max := e.cfg.Orchestrator.MaxTokenLength
	if max <= 0 {
		return nil
	}
	for _, raw := range rawNames {
		if len(raw) > max {
			return errors.Newf(errors.CodeInvalidInput, "ingredient token exceeds %d characters", max)
		}
	}
	return nil
}

// canonicalizeAll maps raw tokens to deduplicated canonical names in
// first-appearance order.
func (e *Engine) canonicalizeAll(rawNames []string) []ingredient.CanonicalName {
	seen := make(map[ingredient.CanonicalName]struct{}, len(rawNames))
	var names []ingredient.CanonicalName
	for _, raw := range rawNames {
		name, ok := ingredient.Canonicalize(raw)
		if !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// surfaced maps an internal error to one of the three caller-visible codes.
func surfaced(err error) error {
	code := errors.GetCode(err)
	if errors.IsSurfaced(code) {
		return err
	}
	if code == errors.CodeTimeout {
		return errors.Wrap(err, errors.CodeDeadlineExceeded, "resolution deadline exceeded")
	}
	return errors.Wrap(err, errors.CodeInternal, "resolution failed")
}

// resolveOne produces the record for one canonical name: L1 cache, then the
// store, then provider fan-out. Concurrent requests for the same name share
// one resolution via single-flight; the leader runs on a detached context so
// a canceled follower cannot abort work others are waiting on.
func (e *Engine) resolveOne(ctx context.Context, name ingredient.CanonicalName) (ingredient.Record, error) {
	if cached, ok := e.l1.Get(recordKey(name)); ok {
		if rec, ok := cached.(ingredient.Record); ok {
			return rec, nil
		}
	}

	ch := e.sf.DoChan(string(name), func() (any, error) {
		leaderCtx := context.WithoutCancel(ctx)
		if d := e.cfg.Orchestrator.OverallDeadline; d > 0 {
			var cancel context.CancelFunc
			leaderCtx, cancel = context.WithTimeout(leaderCtx, d)
			defer cancel()
		}
		return e.resolveLeader(leaderCtx, name)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return ingredient.Record{}, res.Err
		}
		return res.Val.(ingredient.Record), nil
	case <-ctx.Done():
		return ingredient.Record{}, errors.Wrap(ctx.Err(), errors.CodeDeadlineExceeded, "resolution deadline exceeded")
	}
}

// resolveLeader is the single-flight body: store freshness check, fan-out,
// aggregation, persistence.
func (e *Engine) resolveLeader(ctx context.Context, name ingredient.CanonicalName) (ingredient.Record, error) {
	now := e.nowFunc().UTC()

	var prev *ingredient.Record
	stored, err := e.records.Get(ctx, name)
	switch {
	case err == nil:
		prev = stored
		if age := now.Sub(stored.UpdatedAt); age <= e.cfg.Cache.RecordMaxAge {
			e.cacheRecord(*stored)
			return *stored, nil
		}
	case errors.IsCode(err, errors.CodeNotFound):
		// First resolution for this name.
	default:
		// Store trouble must not block resolution; providers can still answer.
		e.logger.Warn("record store read failed, continuing with fan-out",
			logging.String("name", string(name)), logging.Err(err))
	}

	facts := e.fanOut(ctx, name)

	// The seed catalog never counts toward the freshness threshold; it only
	// enriches a fresh record or backstops a name no provider could answer.
	succeeded := 0
	for _, f := range facts {
		if f.Success {
			succeeded++
		}
	}
	seed, hasSeed := ingredient.SeedFact(name, now)

	minFresh := e.cfg.Orchestrator.MinProvidersForFresh
	if minFresh < 1 {
		minFresh = 1
	}
	if succeeded < minFresh {
		if prev != nil {
			// Too few providers answered; the stale record beats anything a
			// partial fan-out could assemble.
			e.cacheRecord(*prev)
			return *prev, nil
		}
		if !hasSeed {
			return ingredient.UnknownRecord(string(name), now), nil
		}
		facts = []ingredient.Fact{seed}
	} else if hasSeed {
		facts = append(facts, seed)
	}

	record := ingredient.Stamp(ingredient.Aggregate(name, facts, e.rules), prev, now)
	if err := e.persist(ctx, record); err != nil {
		return ingredient.Record{}, err
	}
	e.cacheRecord(record)
	return record, nil
}

// fanOut queries every enabled source concurrently under the global
// in-flight cap and returns one fact per source.
func (e *Engine) fanOut(ctx context.Context, name ingredient.CanonicalName) []ingredient.Fact {
	sources := e.enabledSources()
	facts := make([]ingredient.Fact, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			facts[i] = e.fetchFact(ctx, src, name)
		}(i, src)
	}
	wg.Wait()

	for _, f := range facts {
		e.audit(ctx, f)
	}
	return facts
}

// fetchFact returns the fact for one source: L1 fact cache, then the shared
// fact cache, then a live call under the global semaphore.
func (e *Engine) fetchFact(ctx context.Context, src Source, name ingredient.CanonicalName) ingredient.Fact {
	key := factKey(src.ID(), name)
	if cached, ok := e.l1.Get(key); ok {
		if fact, ok := cached.(ingredient.Fact); ok {
			return fact
		}
	}
	if e.factCache != nil {
		if fact, err := e.factCache.Get(ctx, src.ID(), name); err == nil && fact != nil {
			e.l1.Set(key, *fact, e.factTTL(src, fact.FetchedAt))
			return *fact
		}
	}

	if err := e.globalSem.Acquire(ctx, 1); err != nil {
		return ingredient.FailedFact(src.ID(), string(name), errors.CodeTimeout, e.nowFunc().UTC())
	}
	start := e.nowFunc()
	fact := src.Resolve(ctx, string(name))
	e.globalSem.Release(1)

	if e.metrics != nil {
		e.metrics.ObserveProviderCall(string(src.ID()), string(fact.StatusCode), e.nowFunc().Sub(start))
	}
	if fact.Success {
		e.l1.Set(key, fact, src.TTL())
		if e.factCache != nil {
			if err := e.factCache.Set(ctx, fact, src.TTL()); err != nil {
				e.logger.Debug("shared fact cache write failed", logging.Err(err))
			}
		}
	}
	return fact
}

// factTTL computes the remaining freshness of a fact fetched at fetchedAt.
func (e *Engine) factTTL(src Source, fetchedAt time.Time) time.Duration {
	remaining := src.TTL() - e.nowFunc().UTC().Sub(fetchedAt)
	if remaining < time.Minute {
		remaining = time.Minute
	}
	return remaining
}

// audit records one provider outcome in the source log and on the bus. Both
// are best-effort.
func (e *Engine) audit(ctx context.Context, fact ingredient.Fact) {
	if e.sourceLog != nil {
		entry := ingredient.SourceLogEntry{
			Provider:      fact.Provider,
			CanonicalName: fact.CanonicalName,
			StatusCode:    fact.StatusCode,
			FetchedAt:     fact.FetchedAt,
			Summary:       fact.PayloadSummary,
		}
		if err := e.sourceLog.Append(ctx, entry); err != nil {
			e.logger.Warn("source log append failed", logging.Err(err))
		}
	}
	if e.publisher != nil {
		env, err := kafka.NewEnvelope(kafka.EventProviderFetch, kafka.ProviderFetchPayload{
			Provider:      string(fact.Provider),
			CanonicalName: fact.CanonicalName,
			StatusCode:    string(fact.StatusCode),
			FetchedAt:     fact.FetchedAt,
		})
		if err == nil {
			if err := e.publisher.Publish(ctx, kafka.TopicAudit, fact.CanonicalName, env); err != nil {
				e.logger.Debug("audit event publish failed", logging.Err(err))
			}
		}
	}
}

// persist writes the record to the store and mirrors it. The primary write
// is the one non-recoverable step: its failure fails the resolution. The
// mirror stays best-effort and queues a reconciliation event on failure.
func (e *Engine) persist(ctx context.Context, record ingredient.Record) error {
	if err := e.records.Upsert(ctx, record); err != nil {
		e.logger.Error("record upsert failed",
			logging.String("name", record.CanonicalName), logging.Err(err))
		return errors.Wrap(err, errors.CodeInternal, "persisting record")
	}
	if e.mirror == nil {
		return nil
	}
	if err := e.mirror.Put(ctx, record); err != nil {
		e.logger.Warn("mirror write failed, queueing reconciliation",
			logging.String("name", record.CanonicalName), logging.Err(err))
		if e.publisher != nil {
			env, envErr := kafka.NewEnvelope(kafka.EventMirrorWriteFailed, kafka.MirrorFailedPayload{
				CanonicalName: record.CanonicalName,
				Reason:        err.Error(),
			})
			if envErr == nil {
				if pubErr := e.publisher.Publish(ctx, kafka.TopicMirrorFailed, record.CanonicalName, env); pubErr != nil {
					e.logger.Error("mirror reconciliation event lost", logging.Err(pubErr))
				}
			}
		}
	}
	return nil
}

// cacheRecord stores a record in L1 for the configured record max age.
func (e *Engine) cacheRecord(record ingredient.Record) {
	ttl := e.cfg.Cache.RecordMaxAge
	if ttl <= 0 {
		ttl = e.cfg.Cache.DefaultTTL
	}
	e.l1.Set(recordKey(ingredient.CanonicalName(record.CanonicalName)), record, ttl)
}
