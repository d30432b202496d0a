// Package metrics provides Prometheus metrics export for the chat core.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter registers and records lexchat metrics. It implements the
// orchestrator's Recorder interface.
type Exporter struct {
	registry *prometheus.Registry

	// Orchestrator metrics
	intents       *prometheus.CounterVec
	intentLatency *prometheus.HistogramVec
	knownSessions prometheus.Gauge

	// Backend HTTP metrics
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

// Config configures the exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default exporter configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
	}
}

// NewExporter creates a new metrics exporter.
func NewExporter(cfg Config) *Exporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &Exporter{registry: registry}

	e.intents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lexchat",
			Subsystem: "orchestrator",
			Name:      "intents_total",
			Help:      "Total number of orchestrator intents",
		},
		[]string{"intent", "status"},
	)

	e.intentLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lexchat",
			Subsystem: "orchestrator",
			Name:      "intent_latency_seconds",
			Help:      "Orchestrator intent latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"intent"},
	)

	e.knownSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lexchat",
			Subsystem: "orchestrator",
			Name:      "known_sessions",
			Help:      "Number of sessions known to the orchestrator",
		},
	)

	e.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lexchat",
			Subsystem: "server",
			Name:      "http_requests_total",
			Help:      "Total number of backend HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	e.httpLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lexchat",
			Subsystem: "server",
			Name:      "http_latency_seconds",
			Help:      "Backend HTTP request latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"method", "path"},
	)

	registry.MustRegister(
		e.intents,
		e.intentLatency,
		e.knownSessions,
		e.httpRequests,
		e.httpLatency,
	)

	return e
}

// RecordIntent records one orchestrator intent invocation.
func (e *Exporter) RecordIntent(intent string, latency time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	e.intents.WithLabelValues(intent, status).Inc()
	e.intentLatency.WithLabelValues(intent).Observe(latency.Seconds())
}

// SetKnownSessions sets the known-session gauge.
func (e *Exporter) SetKnownSessions(count int) {
	e.knownSessions.Set(float64(count))
}

// RecordHTTPRequest records one backend HTTP request.
func (e *Exporter) RecordHTTPRequest(method, path string, status int, latency time.Duration) {
	e.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	e.httpLatency.WithLabelValues(method, path).Observe(latency.Seconds())
}

// Handler returns the HTTP handler for the metrics endpoint.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}
