package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	registry *prometheus.Registry

	// Webhook metrics
	WebhookRequestsTotal     *prometheus.CounterVec
	WebhookRequestDuration   *prometheus.HistogramVec
	SignatureRejectionsTotal *prometheus.CounterVec

	// Command metrics
	CommandsDispatchedTotal *prometheus.CounterVec
	BlockActionsTotal       prometheus.Counter

	// Outbound metrics
	NotificationsSentTotal    prometheus.Counter
	NotificationFailuresTotal prometheus.Counter
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		// Webhook metrics
		WebhookRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhook_requests_total",
				Help: "Total number of webhook requests received",
			},
			[]string{"source", "outcome"},
		),
		WebhookRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "webhook_request_duration_seconds",
				Help:    "Duration of webhook request handling in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		SignatureRejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signature_rejections_total",
				Help: "Total number of webhook requests rejected for a bad signature",
			},
			[]string{"source"},
		),

		// Command metrics
		CommandsDispatchedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commands_dispatched_total",
				Help: "Total number of chat commands dispatched",
			},
			[]string{"command"},
		),
		BlockActionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "block_actions_total",
				Help: "Total number of interactive block actions processed",
			},
		),

		// Outbound metrics
		NotificationsSentTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "notifications_sent_total",
				Help: "Total number of outbound chat notifications sent",
			},
		),
		NotificationFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "notification_failures_total",
				Help: "Total number of outbound chat notifications that failed",
			},
		),
	}

	// Register all metrics
	m.registerMetrics()

	return m
}

// registerMetrics registers all metrics with the registry
func (m *Metrics) registerMetrics() {
	m.registry.MustRegister(m.WebhookRequestsTotal)
	m.registry.MustRegister(m.WebhookRequestDuration)
	m.registry.MustRegister(m.SignatureRejectionsTotal)
	m.registry.MustRegister(m.CommandsDispatchedTotal)
	m.registry.MustRegister(m.BlockActionsTotal)
	m.registry.MustRegister(m.NotificationsSentTotal)
	m.registry.MustRegister(m.NotificationFailuresTotal)
}

// Registry returns the underlying Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
