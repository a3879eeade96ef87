package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "climate_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for a run.
type Metrics struct {
	PipelineRunning prometheus.Gauge
	LocationsBuilt  prometheus.Counter
	BuildErrors     prometheus.Counter
	BuildDuration   prometheus.Histogram
	RowsPublished   prometheus.Counter
	FlaggedValues   *prometheus.CounterVec // labels: metric={air,sea,rain,wind,wave}, reason={coverage,missing,estimated}

	// Provider metrics.
	ProviderRequests  *prometheus.CounterVec   // labels: api={archive,marine}, outcome={success,error,retry}
	ProviderDuration  *prometheus.HistogramVec // labels: api={archive,marine}
	ProviderFailures  *prometheus.CounterVec   // labels: kind, provider
	ProviderFallbacks *prometheus.CounterVec   // labels: kind, provider (the provider that succeeded)
	CacheLookups      *prometheus.CounterVec   // labels: namespace, result={hit,miss,stale}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)

	prometheus.MustRegister(
		m.PipelineRunning,
		m.LocationsBuilt,
		m.BuildErrors,
		m.BuildDuration,
		m.RowsPublished,
		m.FlaggedValues,
		m.ProviderRequests,
		m.ProviderDuration,
		m.ProviderFailures,
		m.ProviderFallbacks,
		m.CacheLookups,
	)

	return m
}

// NewUnregisteredMetrics creates Metrics that are not attached to any
// registry, for tools that count nothing they expose.
func NewUnregisteredMetrics() *Metrics {
	return newMetrics(true)
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}

	return &Metrics{
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      help("1 while locations are being built, 0 otherwise."),
		}),
		LocationsBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "locations_built_total",
			Help:      help("Locations whose monthly table was built."),
		}),
		BuildErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "build_errors_total",
			Help:      help("Locations whose table could not be built."),
		}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      help("Duration of building one location's table, fetches included."),
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		RowsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_published_total",
			Help:      help("Monthly rows written to the Kafka topic."),
		}),
		FlaggedValues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flagged_values_total",
			Help:      help("Monthly values disclosed as low-confidence, by metric and reason."),
		}, []string{"metric", "reason"}),
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      help("Provider API requests by API and outcome."),
		}, []string{"api", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      help("Provider API request duration in seconds."),
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"api"}),
		ProviderFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_failures_total",
			Help:      help("Provider fetches that failed, by source kind and provider."),
		}, []string{"kind", "provider"}),
		ProviderFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_fallbacks_total",
			Help:      help("Fetches served by a fallback provider, by source kind and provider."),
		}, []string{"kind", "provider"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      help("Disk cache lookups by namespace and result."),
		}, []string{"namespace", "result"}),
	}
}
