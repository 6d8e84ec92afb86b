package engine_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labelwise/labelwise/internal/config"
	"github.com/labelwise/labelwise/internal/domain/ingredient"
	"github.com/labelwise/labelwise/internal/engine"
	"github.com/labelwise/labelwise/internal/infrastructure/messaging/kafka"
	"github.com/labelwise/labelwise/internal/resilience"
	"github.com/labelwise/labelwise/pkg/errors"
	"github.com/labelwise/labelwise/pkg/types/analysis"
)

// ── fakes ──

type fakeSource struct {
	id      ingredient.ProviderID
	enabled bool
	ttl     time.Duration
	delay   time.Duration
	calls   atomic.Int32
	resolve func(name string) ingredient.Fact
}

func (f *fakeSource) ID() ingredient.ProviderID      { return f.id }
func (f *fakeSource) Enabled() bool                  { return f.enabled }
func (f *fakeSource) TTL() time.Duration             { return f.ttl }
func (f *fakeSource) BreakerState() string           { return resilience.StateClosed }
func (f *fakeSource) Stats() resilience.CallStats    { return resilience.CallStats{} }
func (f *fakeSource) Resolve(ctx context.Context, name string) ingredient.Fact {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ingredient.FailedFact(f.id, name, errors.CodeTimeout, time.Now().UTC())
		}
	}
	return f.resolve(name)
}

func okSource(id ingredient.ProviderID, risk ingredient.RiskLevel, eco int) *fakeSource {
	return &fakeSource{
		id: id, enabled: true, ttl: time.Hour,
		resolve: func(name string) ingredient.Fact {
			return ingredient.Fact{
				Provider: id, CanonicalName: name, FetchedAt: time.Now().UTC(),
				StatusCode: errors.CodeOK, RiskLevel: risk, EcoScore: &eco, Success: true,
			}
		},
	}
}

func failingSource(id ingredient.ProviderID, code errors.ErrorCode) *fakeSource {
	return &fakeSource{
		id: id, enabled: true, ttl: time.Hour,
		resolve: func(name string) ingredient.Fact {
			return ingredient.FailedFact(id, name, code, time.Now().UTC())
		},
	}
}

type fakeRepo struct {
	mu          sync.Mutex
	records     map[string]ingredient.Record
	getCalls    int
	upsertCalls int
	upsertErr   error
	pingErr     error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: map[string]ingredient.Record{}}
}

func (r *fakeRepo) Get(_ context.Context, name ingredient.CanonicalName) (*ingredient.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getCalls++
	rec, ok := r.records[string(name)]
	if !ok {
		return nil, errors.Newf(errors.CodeNotFound, "no record for %q", name)
	}
	return &rec, nil
}

func (r *fakeRepo) Upsert(_ context.Context, record ingredient.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upsertCalls++
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.records[record.CanonicalName] = record
	return nil
}

func (r *fakeRepo) setUpsertErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upsertErr = err
}

func (r *fakeRepo) Ping(context.Context) error { return r.pingErr }

func (r *fakeRepo) counts() (gets, upserts int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getCalls, r.upsertCalls
}

type fakeMirror struct {
	mu     sync.Mutex
	putErr error
	puts   []string
}

func (m *fakeMirror) Put(_ context.Context, record ingredient.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.puts = append(m.puts, record.CanonicalName)
	return nil
}

func (m *fakeMirror) Get(context.Context, ingredient.CanonicalName) (*ingredient.Record, error) {
	return nil, errors.New(errors.CodeNotFound, "not mirrored")
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	topic string
	key   string
	env   kafka.Envelope
}

func (p *fakePublisher) Publish(_ context.Context, topic, key string, env kafka.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{topic: topic, key: key, env: env})
	return nil
}

func (p *fakePublisher) byTopic(topic string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.topic == topic {
			out = append(out, e)
		}
	}
	return out
}

// ── helpers ──

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Cache = config.CacheConfig{MaxEntries: 256, DefaultTTL: time.Hour, RecordMaxAge: time.Hour}
	cfg.Orchestrator = config.OrchestratorConfig{
		MaxGlobalInFlight:    8,
		OverallDeadline:      2 * time.Second,
		MinProvidersForFresh: 1,
		MaxTokens:            50,
		MaxTokenLength:       128,
	}
	return cfg
}

func newTestEngine(t *testing.T, cfg *config.Config, repo *fakeRepo, sources ...engine.Source) *engine.Engine {
	t.Helper()
	e, err := engine.New(engine.Deps{
		Config:  cfg,
		Sources: sources,
		Records: repo,
	})
	require.NoError(t, err)
	return e
}

// ── resolution ──

func TestResolveDedupAndOrder(t *testing.T) {
	repo := newFakeRepo()
	src := okSource("ewg", ingredient.RiskLow, 80)
	e := newTestEngine(t, testConfig(), repo, src)

	records, err := e.ResolveIngredients(context.Background(),
		[]string{"Aqua", "Glycerin", "water", "5 mg", "GLYCERIN", "Niacinamide"})
	require.NoError(t, err)

	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.CanonicalName
	}
	// Aqua and water collapse; the measurement is dropped; order is first
	// appearance.
	assert.Equal(t, []string{"water", "glycerin", "niacinamide"}, names)
}

func TestResolveEmptyListRejected(t *testing.T) {
	e := newTestEngine(t, testConfig(), newFakeRepo())
	_, err := e.ResolveIngredients(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestResolveTooManyTokensRejected(t *testing.T) {
	cfg := testConfig()
	cfg.Orchestrator.MaxTokens = 3
	e := newTestEngine(t, cfg, newFakeRepo())

	_, err := e.ResolveIngredients(context.Background(), []string{"a1x", "b2x", "c3x", "d4x"})
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestResolveAllNoiseYieldsEmpty(t *testing.T) {
	e := newTestEngine(t, testConfig(), newFakeRepo())
	records, err := e.ResolveIngredients(context.Background(), []string{"5 mg", "20%", "and"})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSingleFlightCollapsesConcurrentRequests(t *testing.T) {
	repo := newFakeRepo()
	src := okSource("ewg", ingredient.RiskLow, 80)
	src.delay = 50 * time.Millisecond
	e := newTestEngine(t, testConfig(), repo, src)

	const workers = 8
	var wg sync.WaitGroup
	results := make([]ingredient.Record, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = e.GetIngredient(context.Background(), "xyzbutanol")
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
	}
	assert.Equal(t, int32(1), src.calls.Load(), "provider fetched more than once")
	for i := 1; i < workers; i++ {
		assert.Equal(t, results[0], results[i])
	}
}

func TestSecondResolutionServedFromCache(t *testing.T) {
	repo := newFakeRepo()
	src := okSource("ewg", ingredient.RiskLow, 80)
	e := newTestEngine(t, testConfig(), repo, src)
	ctx := context.Background()

	first, err := e.GetIngredient(ctx, "xyzbutanol")
	require.NoError(t, err)
	gets, upserts := repo.counts()
	assert.Equal(t, 1, gets)
	assert.Equal(t, 1, upserts)

	second, err := e.GetIngredient(ctx, "xyzbutanol")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	gets2, upserts2 := repo.counts()
	assert.Equal(t, 1, gets2, "cache hit should not touch the store")
	assert.Equal(t, 1, upserts2)
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestFreshStoreRecordSkipsFanOut(t *testing.T) {
	repo := newFakeRepo()
	now := time.Now().UTC()
	repo.records["xyzbutanol"] = ingredient.Record{
		CanonicalName: "xyzbutanol", EcoScore: 77, RiskLevel: ingredient.RiskLow,
		Sources:   []ingredient.ProviderID{"ewg"},
		CreatedAt: now, UpdatedAt: now, SchemaVersion: ingredient.SchemaVersion,
	}
	src := okSource("ewg", ingredient.RiskHigh, 10)
	e := newTestEngine(t, testConfig(), repo, src)

	rec, err := e.GetIngredient(context.Background(), "xyzbutanol")
	require.NoError(t, err)
	assert.Equal(t, 77, rec.EcoScore)
	assert.Equal(t, int32(0), src.calls.Load(), "fresh store record should not fan out")
}

func TestStaleRecordServedWhenAllSourcesFail(t *testing.T) {
	repo := newFakeRepo()
	stale := time.Now().UTC().Add(-48 * time.Hour)
	repo.records["xyzbutanol"] = ingredient.Record{
		CanonicalName: "xyzbutanol", EcoScore: 70, RiskLevel: ingredient.RiskLow,
		Sources:   []ingredient.ProviderID{"ewg"},
		CreatedAt: stale, UpdatedAt: stale, SchemaVersion: ingredient.SchemaVersion,
	}
	src := failingSource("ewg", errors.CodeUpstream5xx)
	e := newTestEngine(t, testConfig(), repo, src)

	rec, err := e.GetIngredient(context.Background(), "xyzbutanol")
	require.NoError(t, err)
	assert.Equal(t, 70, rec.EcoScore, "stale record should be served over unknown")

	_, upserts := repo.counts()
	assert.Zero(t, upserts, "a failed refresh must not overwrite the stored record")
}

func TestUnknownRecordNotPersisted(t *testing.T) {
	repo := newFakeRepo()
	src := failingSource("ewg", errors.CodeTimeout)
	e := newTestEngine(t, testConfig(), repo, src)

	rec, err := e.GetIngredient(context.Background(), "xyzbutanol")
	require.NoError(t, err)
	assert.Equal(t, ingredient.RiskUnknown, rec.RiskLevel)
	assert.Equal(t, 50, rec.EcoScore)

	_, upserts := repo.counts()
	assert.Zero(t, upserts)
}

func TestSeedCatalogAnswersWithoutSources(t *testing.T) {
	repo := newFakeRepo()
	e := newTestEngine(t, testConfig(), repo)

	rec, err := e.GetIngredient(context.Background(), "Aqua")
	require.NoError(t, err)
	assert.Equal(t, "water", rec.CanonicalName)
	assert.Equal(t, ingredient.RiskNone, rec.RiskLevel)
	assert.Equal(t, []ingredient.ProviderID{ingredient.ProviderLocalSeed}, rec.Sources)

	_, upserts := repo.counts()
	assert.Equal(t, 1, upserts, "seed-backed record is persisted")
}

func TestPrimaryStoreWriteFailureFailsResolution(t *testing.T) {
	repo := newFakeRepo()
	repo.setUpsertErr(errors.New(errors.CodeDatabaseError, "connection refused"))
	mirror := &fakeMirror{}
	src := okSource("ewg", ingredient.RiskLow, 80)

	e, err := engine.New(engine.Deps{
		Config:  testConfig(),
		Sources: []engine.Source{src},
		Records: repo,
		Mirror:  mirror,
	})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = e.GetIngredient(ctx, "xyzbutanol")
	require.Error(t, err, "resolution must fail when the primary store write fails")
	assert.Equal(t, errors.CodeInternal, errors.GetCode(err))
	assert.Empty(t, mirror.puts, "the mirror must not receive a record the store rejected")

	// Once the store recovers the same name resolves again: the failed
	// attempt must not have left a record in the in-process cache.
	repo.setUpsertErr(nil)
	rec, err := e.GetIngredient(ctx, "xyzbutanol")
	require.NoError(t, err)
	assert.Equal(t, 80, rec.EcoScore)
	_, upserts := repo.counts()
	assert.Equal(t, 2, upserts, "second resolution should retry the write, not hit the cache")
}

func TestFreshRecordRequiresMinimumProviders(t *testing.T) {
	cfg := testConfig()
	cfg.Orchestrator.MinProvidersForFresh = 2
	repo := newFakeRepo()
	e := newTestEngine(t, cfg, repo,
		okSource("ewg", ingredient.RiskLow, 80),
		failingSource("fda", errors.CodeUpstream5xx))

	rec, err := e.GetIngredient(context.Background(), "xyzbutanol")
	require.NoError(t, err)
	assert.Equal(t, ingredient.RiskUnknown, rec.RiskLevel, "one success out of two required must not produce a fresh record")

	_, upserts := repo.counts()
	assert.Zero(t, upserts)
}

func TestBelowThresholdFallsBackToStaleRecord(t *testing.T) {
	cfg := testConfig()
	cfg.Orchestrator.MinProvidersForFresh = 2
	repo := newFakeRepo()
	stale := time.Now().UTC().Add(-48 * time.Hour)
	repo.records["xyzbutanol"] = ingredient.Record{
		CanonicalName: "xyzbutanol", EcoScore: 70, RiskLevel: ingredient.RiskLow,
		Sources:   []ingredient.ProviderID{"ewg"},
		CreatedAt: stale, UpdatedAt: stale, SchemaVersion: ingredient.SchemaVersion,
	}
	e := newTestEngine(t, cfg, repo,
		okSource("ewg", ingredient.RiskHigh, 10),
		failingSource("fda", errors.CodeUpstream5xx))

	rec, err := e.GetIngredient(context.Background(), "xyzbutanol")
	require.NoError(t, err)
	assert.Equal(t, 70, rec.EcoScore, "stale record wins over an under-threshold refresh")
}

func TestSeedDoesNotCountTowardFreshThreshold(t *testing.T) {
	cfg := testConfig()
	cfg.Orchestrator.MinProvidersForFresh = 2
	repo := newFakeRepo()
	e := newTestEngine(t, cfg, repo, okSource("ewg", ingredient.RiskHigh, 10))

	// "retinol" is in the seed catalog; with only one of two required
	// providers answering, the record falls back to the seed alone.
	rec, err := e.GetIngredient(context.Background(), "Retinol")
	require.NoError(t, err)
	assert.Equal(t, []ingredient.ProviderID{ingredient.ProviderLocalSeed}, rec.Sources)
	assert.Equal(t, ingredient.RiskModerate, rec.RiskLevel)
}

func TestOverlongTokenRejected(t *testing.T) {
	cfg := testConfig()
	cfg.Orchestrator.MaxTokenLength = 16
	e := newTestEngine(t, cfg, newFakeRepo())
	ctx := context.Background()
	long := "hydroxymethylcellulose acetate succinate"

	_, err := e.ResolveIngredients(ctx, []string{"Aqua", long})
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = e.GetIngredient(ctx, long)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestDeadlineSurfacedToCaller(t *testing.T) {
	cfg := testConfig()
	cfg.Orchestrator.OverallDeadline = 50 * time.Millisecond
	repo := newFakeRepo()
	// This source ignores cancellation, so the caller's deadline fires while
	// the leader is still working.
	src := &fakeSource{
		id: "ewg", enabled: true, ttl: time.Hour,
		resolve: func(name string) ingredient.Fact {
			time.Sleep(500 * time.Millisecond)
			return ingredient.FailedFact("ewg", name, errors.CodeTimeout, time.Now().UTC())
		},
	}
	e := newTestEngine(t, cfg, repo, src)

	_, err := e.GetIngredient(context.Background(), "xyzbutanol")
	require.Error(t, err)
	assert.Equal(t, errors.CodeDeadlineExceeded, errors.GetCode(err))
}

func TestInvalidSingleNameRejected(t *testing.T) {
	e := newTestEngine(t, testConfig(), newFakeRepo())
	_, err := e.GetIngredient(context.Background(), "5 mg")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestMirrorFailureQueuesReconciliation(t *testing.T) {
	repo := newFakeRepo()
	mirror := &fakeMirror{putErr: errors.New(errors.CodeMirrorError, "bucket down")}
	publisher := &fakePublisher{}
	src := okSource("ewg", ingredient.RiskLow, 80)

	e, err := engine.New(engine.Deps{
		Config:    testConfig(),
		Sources:   []engine.Source{src},
		Records:   repo,
		Mirror:    mirror,
		Publisher: publisher,
	})
	require.NoError(t, err)

	rec, err := e.GetIngredient(context.Background(), "xyzbutanol")
	require.NoError(t, err, "mirror failure must not fail the resolution")
	assert.Equal(t, 80, rec.EcoScore)

	events := publisher.byTopic(kafka.TopicMirrorFailed)
	require.Len(t, events, 1)
	assert.Equal(t, "xyzbutanol", events[0].key)
	assert.Equal(t, kafka.EventMirrorWriteFailed, events[0].env.Type)
}

// ── product analysis ──

func TestAnalyzeProductSuitable(t *testing.T) {
	e := newTestEngine(t, testConfig(), newFakeRepo())

	result, err := e.AnalyzeProduct(context.Background(), "Plain Moisturizer",
		[]string{"Aqua", "Glycerin"}, "")
	require.NoError(t, err)
	assert.Equal(t, analysis.SuitabilitySuitable, result.Suitability)
	assert.GreaterOrEqual(t, result.AvgEcoScore, 75)
	assert.Len(t, result.Ingredients, 2)
	assert.NotEmpty(t, result.Recommendations)
}

func TestAnalyzeProductAvoidOnLowScore(t *testing.T) {
	e := newTestEngine(t, testConfig(), newFakeRepo())

	result, err := e.AnalyzeProduct(context.Background(), "Harsh Cleanser",
		[]string{"Sodium Lauryl Sulfate"}, "")
	require.NoError(t, err)
	assert.Equal(t, analysis.SuitabilityAvoid, result.Suitability)
}

func TestAnalyzeProductSensitiveContextForcesAvoid(t *testing.T) {
	e := newTestEngine(t, testConfig(), newFakeRepo())
	ctx := context.Background()

	// Without the sensitivity marker this mix averages into caution range.
	neutral, err := e.AnalyzeProduct(ctx, "Cleanser",
		[]string{"Aqua", "Sodium Lauryl Sulfate"}, "normal skin")
	require.NoError(t, err)
	assert.Equal(t, analysis.SuitabilityCaution, neutral.Suitability)

	sensitive, err := e.AnalyzeProduct(ctx, "Cleanser",
		[]string{"Aqua", "Sodium Lauryl Sulfate"}, "sensitive skin, atopic")
	require.NoError(t, err)
	assert.Equal(t, analysis.SuitabilityAvoid, sensitive.Suitability)
	assert.Contains(t, sensitive.Recommendations, "sodium lauryl sulfate")
}

func TestAnalyzeProductNoRecognizableIngredients(t *testing.T) {
	e := newTestEngine(t, testConfig(), newFakeRepo())

	result, err := e.AnalyzeProduct(context.Background(), "Mystery", []string{"5 mg", "20%"}, "")
	require.NoError(t, err)
	assert.Empty(t, result.Ingredients)
	assert.Equal(t, analysis.SuitabilityCaution, result.Suitability)
}

// ── health ──

func TestHealthReport(t *testing.T) {
	repo := newFakeRepo()
	src := okSource("ewg", ingredient.RiskLow, 80)
	e := newTestEngine(t, testConfig(), repo, src)

	report := e.Health(context.Background())
	assert.True(t, report.StoreReachable)
	require.Contains(t, report.Providers, "ewg")
	assert.Equal(t, resilience.StateClosed, report.Providers["ewg"].BreakerState)
	assert.True(t, report.Providers["ewg"].Enabled)

	repo.pingErr = errors.New(errors.CodeDatabaseError, "down")
	report = e.Health(context.Background())
	assert.False(t, report.StoreReachable)
}
