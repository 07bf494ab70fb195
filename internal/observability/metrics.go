package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	SubmissionsTotal     *prometheus.CounterVec
	CatalogCacheTotal    *prometheus.CounterVec
	CatalogFetchDuration prometheus.Histogram

	registry *prometheus.Registry
}

// NewRegistry holds the service's own collectors. The default registry
// keeps the runtime collectors and anything gorm plugins register.
func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		SubmissionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subscribe_submissions_total",
				Help: "Subscription submissions by outcome and action",
			},
			[]string{"outcome", "action"},
		),
		CatalogCacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subscribe_plan_catalog_cache_total",
				Help: "Plan catalog cache lookups by result",
			},
			[]string{"result"},
		),
		CatalogFetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "subscribe_plan_catalog_fetch_duration_seconds",
				Help:    "Time spent fetching the full plan catalog from its source",
				Buckets: prometheus.DefBuckets,
			},
		),
		registry: registry,
	}

	registry.MustRegister(m.SubmissionsTotal, m.CatalogCacheTotal, m.CatalogFetchDuration)
	return m
}

func (m *Metrics) ObserveSubmission(outcome, action string) {
	if m == nil {
		return
	}
	m.SubmissionsTotal.WithLabelValues(outcome, action).Inc()
}

func (m *Metrics) ObserveCatalogCache(result string) {
	if m == nil {
		return
	}
	m.CatalogCacheTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveCatalogFetch(seconds float64) {
	if m == nil {
		return
	}
	m.CatalogFetchDuration.Observe(seconds)
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(
		prometheus.Gatherers{m.registry, prometheus.DefaultGatherer},
		promhttp.HandlerOpts{},
	)
}
