// Package metrics holds the Prometheus collectors shared by the compile,
// validate and cache paths.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeSuccess     = "success"
	OutcomeParseFailed = "parse_failed"
	OutcomeFailed      = "compile_failed"
	OutcomeValid       = "valid"
	OutcomeInvalid     = "invalid"
)

// Metrics is the process-wide collector set.
type Metrics struct {
	SchemaCompilations   *prometheus.CounterVec
	SchemaCompileSeconds prometheus.Histogram
	Validations          *prometheus.CounterVec
	CacheRequests        prometheus.Counter
	CacheHits            prometheus.Counter

	collectors []prometheus.Collector
}

// New creates the collectors and registers them on reg. A nil reg creates
// unregistered collectors.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SchemaCompilations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "xsdgate_schema_compilations_total",
			Help: "Total number of schema compilations by outcome.",
		}, []string{"outcome"}),
		SchemaCompileSeconds: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "xsdgate_schema_compile_duration_seconds",
			Help:    "Time spent parsing and compiling schemas.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		Validations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "xsdgate_validations_total",
			Help: "Total number of document validations by outcome.",
		}, []string{"outcome"}),
		CacheRequests: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "xsdgate_schema_cache_requests_total",
			Help: "Total number of compiled schema cache lookups.",
		}),
		CacheHits: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "xsdgate_schema_cache_hits_total",
			Help: "Total number of compiled schema cache lookups served without recompiling.",
		}),
	}
	m.collectors = []prometheus.Collector{
		m.SchemaCompilations,
		m.SchemaCompileSeconds,
		m.Validations,
		m.CacheRequests,
		m.CacheHits,
	}
	return m
}

// Unregister removes the collectors from reg.
func (m *Metrics) Unregister(reg prometheus.Registerer) {
	if m == nil || reg == nil {
		return
	}
	for _, c := range m.collectors {
		reg.Unregister(c)
	}
}
