package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "camera_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the camera pipeline.
type Metrics struct {
	RefreshesTotal  *prometheus.CounterVec // labels: outcome={success,error}
	RefreshDuration prometheus.Histogram
	PipelineRunning prometheus.Gauge

	// Normalization metrics.
	RecordsNormalized *prometheus.CounterVec // labels: source
	RecordsRejected   *prometheus.CounterVec // labels: source
	FeedsDegraded     *prometheus.CounterVec // labels: source
	Groups            *prometheus.GaugeVec   // labels: classification={single-source,mixed-source}

	// Elevation metrics.
	ElevationRequests    *prometheus.CounterVec // labels: outcome={success,error,no_data}
	ElevationCache       *prometheus.CounterVec // labels: result={hit,miss}
	ElevationAPIDuration prometheus.Histogram
	ElevationUnresolved  prometheus.Counter
	ElevationEnabled     prometheus.Gauge

	SinkErrors *prometheus.CounterVec // labels: sink
}

func newMetrics() *Metrics {
	return &Metrics{
		RefreshesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Refresh cycles by outcome.",
		}, []string{"outcome"}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a complete load-normalize-enrich-publish cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		RecordsNormalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_normalized_total",
			Help:      "Provider rows normalized into camera records.",
		}, []string{"source"}),
		RecordsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_rejected_total",
			Help:      "Provider rows dropped for missing or invalid coordinates.",
		}, []string{"source"}),
		FeedsDegraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feeds_degraded_total",
			Help:      "Feed descriptors built from a fallback.",
		}, []string{"source"}),
		Groups: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "location_groups",
			Help:      "Location groups in the current snapshot by classification.",
		}, []string{"classification"}),
		ElevationRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "elevation_requests_total",
			Help:      "Elevation API requests by outcome.",
		}, []string{"outcome"}),
		ElevationCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "elevation_cache_total",
			Help:      "Elevation cache lookups by result.",
		}, []string{"result"}),
		ElevationAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "elevation_api_duration_seconds",
			Help:      "Elevation API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		ElevationUnresolved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "elevation_unresolved_total",
			Help:      "Coordinates left without an elevation after a batch.",
		}),
		ElevationEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "elevation_enabled",
			Help:      "1 when elevation enrichment is enabled, 0 otherwise.",
		}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Artifact publish failures by sink.",
		}, []string{"sink"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RefreshesTotal,
		m.RefreshDuration,
		m.PipelineRunning,
		m.RecordsNormalized,
		m.RecordsRejected,
		m.FeedsDegraded,
		m.Groups,
		m.ElevationRequests,
		m.ElevationCache,
		m.ElevationAPIDuration,
		m.ElevationUnresolved,
		m.ElevationEnabled,
		m.SinkErrors,
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics registered on a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}
