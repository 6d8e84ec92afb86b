// Package metrics defines the Prometheus instrumentation of the engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector the engine emits. Construct once and share.
type Metrics struct {
	ProviderCalls        *prometheus.CounterVec
	ProviderCallDuration *prometheus.HistogramVec
	CacheHits            *prometheus.CounterVec
	CacheMisses          *prometheus.CounterVec
	CacheEvictions       *prometheus.CounterVec
	BreakerTransitions   *prometheus.CounterVec
	ResolutionDuration   prometheus.Histogram
	ResolutionSize       prometheus.Histogram
}

// New registers all collectors on reg. Pass prometheus.DefaultRegisterer in
// production; tests use a fresh registry to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ProviderCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "labelwise",
			Name:      "provider_calls_total",
			Help:      "Provider fetch outcomes by status code.",
		}, []string{"provider", "status_code"}),
		ProviderCallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "labelwise",
			Name:      "provider_call_duration_seconds",
			Help:      "Provider fetch latency, including retries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		CacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "labelwise",
			Name:      "cache_hits_total",
			Help:      "Cache hits by key prefix.",
		}, []string{"prefix"}),
		CacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "labelwise",
			Name:      "cache_misses_total",
			Help:      "Cache misses by key prefix.",
		}, []string{"prefix"}),
		CacheEvictions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "labelwise",
			Name:      "cache_evictions_total",
			Help:      "Cache evictions by key prefix.",
		}, []string{"prefix"}),
		BreakerTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "labelwise",
			Name:      "breaker_transitions_total",
			Help:      "Circuit breaker state transitions.",
		}, []string{"provider", "to"}),
		ResolutionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "labelwise",
			Name:      "resolution_duration_seconds",
			Help:      "End-to-end label resolution latency.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		}),
		ResolutionSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "labelwise",
			Name:      "resolution_ingredients",
			Help:      "Distinct canonical names per resolution.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 200},
		}),
	}
}

// ObserveProviderCall records one provider fetch outcome.
func (m *Metrics) ObserveProviderCall(provider, statusCode string, d time.Duration) {
	m.ProviderCalls.WithLabelValues(provider, statusCode).Inc()
	m.ProviderCallDuration.WithLabelValues(provider).Observe(d.Seconds())
}
