// Package metrics defines the Prometheus metric collectors used across
// specmatch and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the system. Each instance
// carries its own registry, so servers and tests can construct as many
// as they need.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal       *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	RunsInFlight    prometheus.Gauge
	QueueDepth      prometheus.Gauge
	SpectraImported *prometheus.CounterVec
	ScoresComputed  prometheus.Counter

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "runs_total",
				Help: "Total scoring runs by status (completed, failed).",
			},
			[]string{"status"},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "run_duration_seconds",
				Help:    "Wall-clock duration of one scoring run in seconds.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
			},
		),
		RunsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "runs_in_flight",
				Help: "Number of scoring runs currently executing.",
			},
		),
		QueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "run_queue_depth",
				Help: "Number of queued runs waiting for a worker.",
			},
		),
		SpectraImported: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spectra_imported_total",
				Help: "Total spectra imported into runs by role (query, reference).",
			},
			[]string{"role"},
		),
		ScoresComputed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "scores_computed_total",
				Help: "Total score coordinates retained across completed runs.",
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, route, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
	}

	m.registry.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.RunsInFlight,
		m.QueueDepth,
		m.SpectraImported,
		m.ScoresComputed,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
	)

	return m
}

// Handler returns the Prometheus scrape handler for this instance's
// registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRun records the outcome of one scoring run.
func (m *Metrics) ObserveRun(status string, seconds float64) {
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.Observe(seconds)
}
