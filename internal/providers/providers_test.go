package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labelwise/labelwise/internal/config"
	"github.com/labelwise/labelwise/internal/domain/ingredient"
	"github.com/labelwise/labelwise/pkg/errors"
)

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestFDAAdapterSeriousEvents(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(200, `{
		"meta": {"results": {"total": 12}},
		"results": [
			{"outcomes": ["Hospitalization"]},
			{"outcomes": ["Other Outcome"]}
		]
	}`))
	defer srv.Close()

	a := newFDAAdapter(srv.URL, "", srv.Client())
	fact, err := a.Fetch(context.Background(), "retinol")
	require.NoError(t, err)
	assert.Equal(t, ingredient.RiskHigh, fact.RiskLevel)
	require.NotNil(t, fact.EcoScore)
	assert.Equal(t, 30, *fact.EcoScore)
	assert.Contains(t, fact.RisksDetailed, "serious")
}

func TestFDAAdapterNotFoundMeansClean(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(404, `{"error": {"code": "NOT_FOUND"}}`))
	defer srv.Close()

	a := newFDAAdapter(srv.URL, "", srv.Client())
	fact, err := a.Fetch(context.Background(), "water")
	require.NoError(t, err)
	assert.Equal(t, ingredient.RiskNone, fact.RiskLevel)
	require.NotNil(t, fact.EcoScore)
	assert.Equal(t, 90, *fact.EcoScore)
}

func TestFDAAdapterReportVolume(t *testing.T) {
	cases := []struct {
		total int
		want  ingredient.RiskLevel
	}{
		{0, ingredient.RiskNone},
		{3, ingredient.RiskLow},
		{9, ingredient.RiskModerate},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(jsonHandler(200,
			`{"meta": {"results": {"total": `+strconv.Itoa(tc.total)+`}}, "results": []}`))
		a := newFDAAdapter(srv.URL, "", srv.Client())
		fact, err := a.Fetch(context.Background(), "x")
		srv.Close()
		require.NoError(t, err)
		assert.Equal(t, tc.want, fact.RiskLevel, "total %d", tc.total)
	}
}

func TestEWGAdapterScoreInversion(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(200, `{
		"name": "fragrance",
		"hazard_score": 8,
		"concerns": ["allergies", "immunotoxicity"],
		"functions": ["masking"]
	}`))
	defer srv.Close()

	a := newEWGAdapter(srv.URL, "", srv.Client())
	fact, err := a.Fetch(context.Background(), "fragrance")
	require.NoError(t, err)
	assert.Equal(t, ingredient.RiskHigh, fact.RiskLevel)
	require.NotNil(t, fact.EcoScore)
	assert.Equal(t, 20, *fact.EcoScore)
	assert.Equal(t, "allergies, immunotoxicity", fact.RisksDetailed)
	assert.Equal(t, "masking", fact.Benefits)
}

func TestEWGAdapterRiskBands(t *testing.T) {
	cases := []struct {
		hazard int
		want   ingredient.RiskLevel
	}{
		{1, ingredient.RiskNone},
		{3, ingredient.RiskLow},
		{5, ingredient.RiskModerate},
		{10, ingredient.RiskHigh},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(jsonHandler(200,
			`{"hazard_score": `+strconv.Itoa(tc.hazard)+`}`))
		a := newEWGAdapter(srv.URL, "", srv.Client())
		fact, err := a.Fetch(context.Background(), "x")
		srv.Close()
		require.NoError(t, err)
		assert.Equal(t, tc.want, fact.RiskLevel, "hazard %d", tc.hazard)
	}
}

func TestPubChemAdapterSignalWords(t *testing.T) {
	cases := []struct {
		ghsBody  string
		wantRisk ingredient.RiskLevel
		wantEco  int
	}{
		{`{"Record": {"Section": [{"String": "Danger"}]}}`, ingredient.RiskHigh, 30},
		{`{"Record": {"Section": [{"String": "Warning"}]}}`, ingredient.RiskModerate, 60},
		{`{"Record": {"Section": []}}`, ingredient.RiskNone, 90},
	}
	for _, tc := range cases {
		mux := http.NewServeMux()
		mux.HandleFunc("/pug/compound/name/", jsonHandler(200, `{"IdentifierList": {"CID": [702]}}`))
		mux.HandleFunc("/pug_view/data/compound/702/JSON", jsonHandler(200, tc.ghsBody))
		srv := httptest.NewServer(mux)

		a := newPubChemAdapter(srv.URL+"/pug", "", srv.Client())
		fact, err := a.Fetch(context.Background(), "ethanol")
		srv.Close()
		require.NoError(t, err)
		assert.Equal(t, tc.wantRisk, fact.RiskLevel)
		require.NotNil(t, fact.EcoScore)
		assert.Equal(t, tc.wantEco, *fact.EcoScore)
	}
}

func TestPubChemAdapterNoCompound(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(200, `{"IdentifierList": {"CID": []}}`))
	defer srv.Close()

	a := newPubChemAdapter(srv.URL+"/pug", "", srv.Client())
	fact, err := a.Fetch(context.Background(), "notachemical")
	require.NoError(t, err)
	assert.Equal(t, ingredient.RiskUnknown, fact.RiskLevel)
	assert.Nil(t, fact.EcoScore)
}

func TestCosIngAdapterAnnexMapping(t *testing.T) {
	cases := []struct {
		annex string
		want  ingredient.RiskLevel
	}{
		{"II/1372", ingredient.RiskHigh},
		{"III/98", ingredient.RiskModerate},
		{"", ingredient.RiskLow},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(jsonHandler(200, `{
			"results": [{"inciName": "X", "functions": ["skin conditioning"], "annexRef": "`+tc.annex+`", "restriction": "max 2%"}]
		}`))
		a := newCosIngAdapter(srv.URL, "", srv.Client())
		fact, err := a.Fetch(context.Background(), "x")
		srv.Close()
		require.NoError(t, err)
		assert.Equal(t, tc.want, fact.RiskLevel, "annex %q", tc.annex)
	}
}

func TestReviewAdapterConclusionMapping(t *testing.T) {
	cases := []struct {
		conclusion string
		want       ingredient.RiskLevel
	}{
		{"Safe as used in cosmetics", ingredient.RiskLow},
		{"Safe with qualifications: rinse-off only", ingredient.RiskModerate},
		{"Insufficient data to support safety", ingredient.RiskModerate},
		{"Not safe for use in cosmetic products", ingredient.RiskHigh},
		{"No conclusion reached", ingredient.RiskUnknown},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(jsonHandler(200, `{
			"entries": [{"title": "Final report", "conclusion": "`+tc.conclusion+`", "year": 2019}]
		}`))
		a := newReviewAdapter(ingredient.ProviderCIR)(srv.URL, "", srv.Client())
		fact, err := a.Fetch(context.Background(), "x")
		srv.Close()
		require.NoError(t, err)
		assert.Equal(t, tc.want, fact.RiskLevel, "conclusion %q", tc.conclusion)
	}
}

func TestIARCAdapterGroups(t *testing.T) {
	cases := []struct {
		group string
		want  ingredient.RiskLevel
	}{
		{"1", ingredient.RiskHigh},
		{"2A", ingredient.RiskHigh},
		{"2B", ingredient.RiskModerate},
		{"3", ingredient.RiskNone},
		{"", ingredient.RiskUnknown},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(jsonHandler(200, `{"agent": "X", "group": "`+tc.group+`"}`))
		a := newIARCAdapter(srv.URL, "", srv.Client())
		fact, err := a.Fetch(context.Background(), "x")
		srv.Close()
		require.NoError(t, err)
		assert.Equal(t, tc.want, fact.RiskLevel, "group %q", tc.group)
	}
}

func testSourceConfig(id string) config.ProviderConfig {
	return config.ProviderConfig{
		ID:      id,
		Enabled: true,
		RateLimit: config.RateLimitConfig{
			Period: time.Second, Limit: 100, AcquireTimeout: 50 * time.Millisecond,
		},
		Breaker: config.BreakerConfig{
			FailureRate: 0.5, MinCalls: 100, Window: time.Minute,
			OpenDuration: time.Second, HalfOpenProbes: 1,
		},
		MaxConcurrent:   4,
		PerCallDeadline: time.Second,
		TTL:             time.Hour,
	}
}

func TestSourceResolveAbsorbsFailures(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(503, `oops`))
	defer srv.Close()

	src := NewSource(newEWGAdapter(srv.URL, "", srv.Client()), testSourceConfig("ewg"), nil)
	fact := src.Resolve(context.Background(), "water")
	assert.False(t, fact.Success)
	assert.Equal(t, errors.CodeUpstream5xx, fact.StatusCode)
	assert.Equal(t, ingredient.ProviderEWG, fact.Provider)
	assert.Equal(t, "water", fact.CanonicalName)
	assert.Equal(t, ingredient.RiskUnknown, fact.RiskLevel)
	assert.False(t, fact.FetchedAt.IsZero())
}

func TestSourceResolveNormalizesSuccess(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(200, `{"hazard_score": 2}`))
	defer srv.Close()

	src := NewSource(newEWGAdapter(srv.URL, "", srv.Client()), testSourceConfig("ewg"), nil)
	fact := src.Resolve(context.Background(), "glycerin")
	assert.True(t, fact.Success)
	assert.Equal(t, errors.CodeOK, fact.StatusCode)
	assert.Equal(t, "glycerin", fact.CanonicalName)
}

func TestRegistryRejectsUnknownProvider(t *testing.T) {
	_, err := NewRegistry([]config.ProviderConfig{testSourceConfig("mystery")}, nil, nil)
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigError, errors.GetCode(err))
}

func TestRegistryPriorityOrderAndEnabled(t *testing.T) {
	a := testSourceConfig("ewg")
	a.Priority = 6
	b := testSourceConfig("fda")
	b.Priority = 2
	c := testSourceConfig("cosing")
	c.Priority = 9
	c.Enabled = false

	r, err := NewRegistry([]config.ProviderConfig{a, b, c}, nil, nil)
	require.NoError(t, err)

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, ingredient.ProviderFDA, all[0].ID())
	assert.Equal(t, ingredient.ProviderEWG, all[1].ID())

	enabled := r.Enabled()
	require.Len(t, enabled, 2)
	assert.Equal(t, ingredient.ProviderFDA, enabled[0].ID())

	assert.NotNil(t, r.Get(ingredient.ProviderFDA))
	assert.Nil(t, r.Get(ingredient.ProviderIARC))
}
