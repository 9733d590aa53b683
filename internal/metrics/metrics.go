// Package metrics provides Prometheus metrics collection for the application.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Session metrics
	SessionsActive prometheus.Gauge
	SessionsOpened prometheus.Counter
	SessionsClosed prometheus.Counter
	ChatTurnsTotal *prometheus.CounterVec
	LeadsArchived  prometheus.Counter

	// Assistant metrics
	AssistantCallsTotal  *prometheus.CounterVec
	AssistantCallSeconds prometheus.Histogram

	// Rate limiting metrics
	RateLimitHitsTotal prometheus.Counter

	registry prometheus.Gatherer
}

// NewMetrics creates a new Metrics instance registered on the default
// registry.
func NewMetrics() *Metrics {
	m := newMetricsWithRegistry(prometheus.DefaultRegisterer)
	m.registry = prometheus.DefaultGatherer
	return m
}

// NewMetricsWithRegistry creates metrics using a custom registry (for testing).
func NewMetricsWithRegistry(reg *prometheus.Registry) *Metrics {
	m := newMetricsWithRegistry(reg)
	m.registry = reg
	return m
}

func newMetricsWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "buildmart_http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status code",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "buildmart_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "buildmart_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "buildmart_sessions_active",
				Help: "Number of live chat sessions in this process",
			},
		),
		SessionsOpened: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "buildmart_sessions_opened_total",
				Help: "Total number of chat sessions opened",
			},
		),
		SessionsClosed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "buildmart_sessions_closed_total",
				Help: "Total number of chat sessions closed",
			},
		),
		ChatTurnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "buildmart_chat_turns_total",
				Help: "Total number of chat turns by mode and outcome",
			},
			[]string{"mode", "outcome"}, // outcome: ok/error
		),
		LeadsArchived: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "buildmart_leads_archived_total",
				Help: "Total number of leads archived from closed sessions",
			},
		),

		AssistantCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "buildmart_assistant_calls_total",
				Help: "Total number of upstream assistant calls by result code",
			},
			[]string{"code"},
		),
		AssistantCallSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "buildmart_assistant_call_duration_seconds",
				Help:    "Upstream assistant call duration in seconds",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),

		RateLimitHitsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "buildmart_rate_limit_hits_total",
				Help: "Total number of requests rejected by the rate limiter",
			},
		),
	}
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry != nil {
		return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}

// ObserveHTTPRequest records one completed HTTP request.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveAssistantCall records one upstream assistant call.
func (m *Metrics) ObserveAssistantCall(code string, duration time.Duration) {
	m.AssistantCallsTotal.WithLabelValues(code).Inc()
	m.AssistantCallSeconds.Observe(duration.Seconds())
}
