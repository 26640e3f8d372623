package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gasmap"

// Metrics holds the Prometheus collectors for the station search pipeline.
type Metrics struct {
	Runs             *prometheus.CounterVec   // labels: strategy, outcome
	RunDuration      *prometheus.HistogramVec // labels: strategy
	UpstreamRequests *prometheus.CounterVec   // labels: endpoint, outcome={success,error}
	UpstreamDuration *prometheus.HistogramVec // labels: endpoint
	StationCache     *prometheus.CounterVec   // labels: result={hit,miss}
	StaleDiscarded   prometheus.Counter
	MarkersReturned  prometheus.Histogram
}

// NewMetrics creates the pipeline metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_runs_total",
			Help:      "Search runs by location strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_run_duration_seconds",
			Help:      "Duration of a complete search run.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"strategy"}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Price monitor requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Price monitor request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"endpoint"}),
		StationCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "station_cache_total",
			Help:      "Station payload cache lookups by result.",
		}, []string{"result"}),
		StaleDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_results_discarded_total",
			Help:      "Search results dropped because a newer search superseded them.",
		}),
		MarkersReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "markers_returned",
			Help:      "Number of station markers per successful search.",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100},
		}),
	}

	reg.MustRegister(
		m.Runs,
		m.RunDuration,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.StationCache,
		m.StaleDiscarded,
		m.MarkersReturned,
	)

	return m
}

// NewMetricsForTesting creates Metrics on a throwaway registry so tests can
// build as many as they like.
func NewMetricsForTesting() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}

// ObserveUpstream records one request to the price monitor service. Its
// signature matches api.Observer.
func (m *Metrics) ObserveUpstream(endpoint string, d time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.UpstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	m.UpstreamDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}
