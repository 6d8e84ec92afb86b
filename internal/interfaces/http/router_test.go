package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labelwise/labelwise/internal/domain/ingredient"
	"github.com/labelwise/labelwise/internal/infrastructure/monitoring/logging"
	httpapi "github.com/labelwise/labelwise/internal/interfaces/http"
	"github.com/labelwise/labelwise/pkg/errors"
	"github.com/labelwise/labelwise/pkg/types/analysis"
)

type stubResolver struct {
	analyzeErr error
	getErr     error
	ready      bool
}

func (s *stubResolver) AnalyzeProduct(_ context.Context, productName string, rawNames []string, _ string) (analysis.ProductAnalysis, error) {
	if s.analyzeErr != nil {
		return analysis.ProductAnalysis{}, s.analyzeErr
	}
	return analysis.ProductAnalysis{
		ProductName: productName,
		Ingredients: make([]analysis.IngredientDetail, len(rawNames)),
		AvgEcoScore: 82,
		Suitability: analysis.SuitabilitySuitable,
	}, nil
}

func (s *stubResolver) GetIngredient(_ context.Context, raw string) (ingredient.Record, error) {
	if s.getErr != nil {
		return ingredient.Record{}, s.getErr
	}
	return ingredient.Record{
		CanonicalName: strings.ToLower(raw),
		EcoScore:      90,
		RiskLevel:     ingredient.RiskLow,
		Sources:       []ingredient.ProviderID{ingredient.ProviderEWG},
		UpdatedAt:     time.Now().UTC(),
	}, nil
}

func (s *stubResolver) Health(context.Context) analysis.HealthReport {
	return analysis.HealthReport{
		Providers:      map[string]analysis.ProviderHealth{"ewg": {BreakerState: "closed", Enabled: true}},
		StoreReachable: s.ready,
	}
}

func newTestRouter(resolver *stubResolver) *gin.Engine {
	return httpapi.NewRouter(gin.TestMode, resolver, prometheus.NewRegistry(), logging.NewNop())
}

func TestAnalyzeEndpoint(t *testing.T) {
	router := newTestRouter(&stubResolver{ready: true})

	body := `{"product_name": "Cleanser", "ingredients": ["Aqua", "Glycerin"], "user_context": ""}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var result analysis.ProductAnalysis
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "Cleanser", result.ProductName)
	assert.Equal(t, analysis.SuitabilitySuitable, result.Suitability)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAnalyzeEndpointRejectsMalformedBody(t *testing.T) {
	router := newTestRouter(&stubResolver{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(`{broken`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_input")
}

func TestAnalyzeEndpointMapsEngineErrors(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{errors.New(errors.CodeInvalidInput, "ingredient list is empty"), http.StatusBadRequest, "invalid_input"},
		{errors.New(errors.CodeDeadlineExceeded, "resolution deadline exceeded"), http.StatusGatewayTimeout, "deadline_exceeded"},
		{errors.New(errors.CodeDatabaseError, "internal detail"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		router := newTestRouter(&stubResolver{analyzeErr: tc.err})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze",
			strings.NewReader(`{"ingredients": ["Aqua"]}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, tc.wantStatus, w.Code)
		assert.Contains(t, w.Body.String(), tc.wantCode)
		// Internal detail never leaks.
		assert.NotContains(t, w.Body.String(), "internal detail")
	}
}

func TestIngredientEndpoint(t *testing.T) {
	router := newTestRouter(&stubResolver{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ingredients/Aqua", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var record ingredient.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	assert.Equal(t, "aqua", record.CanonicalName)
}

func TestIngredientEndpointInvalidName(t *testing.T) {
	resolver := &stubResolver{getErr: errors.New(errors.CodeInvalidInput, "not an ingredient name")}
	router := newTestRouter(resolver)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ingredients/5mg", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthEndpoints(t *testing.T) {
	ready := newTestRouter(&stubResolver{ready: true})

	w := httptest.NewRecorder()
	ready.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	ready.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	notReady := newTestRouter(&stubResolver{ready: false})
	w = httptest.NewRecorder()
	notReady.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(&stubResolver{ready: true})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestIDPropagated(t *testing.T) {
	router := newTestRouter(&stubResolver{ready: true})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}
