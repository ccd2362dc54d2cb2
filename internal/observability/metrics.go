package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "activity_insights"

// Metrics holds the Prometheus counters, histograms, and gauges for the insights service.
type Metrics struct {
	// Upstream fetch metrics.
	FetchRequests *prometheus.CounterVec   // labels: source={events,weather}, outcome={success,error}
	FetchRetries  *prometheus.CounterVec   // labels: source
	FetchDuration *prometheus.HistogramVec // labels: source
	RateLimitWait prometheus.Histogram
	BreakerState  *prometheus.GaugeVec   // labels: source; 0 closed, 1 half-open, 2 open
	WeatherCache  *prometheus.CounterVec // labels: result={hit,miss}

	// Analysis metrics.
	AggregationWarnings prometheus.Counter
	Analyses            *prometheus.CounterVec // labels: outcome={success,error}
	AnalysisDuration    prometheus.Histogram
	InsightsGenerated   *prometheus.CounterVec // labels: category
	ReportsPublished    *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FetchRequests,
		m.FetchRetries,
		m.FetchDuration,
		m.RateLimitWait,
		m.BreakerState,
		m.WeatherCache,
		m.AggregationWarnings,
		m.Analyses,
		m.AnalysisDuration,
		m.InsightsGenerated,
		m.ReportsPublished,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "Upstream fetch operations by source and final outcome.",
		}, []string{"source", "outcome"}),
		FetchRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_retries_total",
			Help:      "Upstream request retries by source.",
		}, []string{"source"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_attempt_duration_seconds",
			Help:      "Duration of a single upstream request attempt.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		RateLimitWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rate_limit_wait_seconds",
			Help:      "Time spent waiting for a dispatch slot.",
			Buckets:   []float64{0, 0.1, 0.5, 1, 2, 5, 10, 30},
		}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state by source: 0 closed, 1 half-open, 2 open.",
		}, []string{"source"}),
		WeatherCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_cache_total",
			Help:      "Weather cache lookups by result.",
		}, []string{"result"}),
		AggregationWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregation_warnings_total",
			Help:      "Malformed records skipped during aggregation.",
		}),
		Analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Completed analyses by outcome.",
		}, []string{"outcome"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Duration of a complete fetch-process-analyse run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		InsightsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "insights_generated_total",
			Help:      "Insights produced by category.",
		}, []string{"category"}),
		ReportsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_published_total",
			Help:      "Reports written to the report topic by outcome.",
		}, []string{"outcome"}),
	}
}
