package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metric names as constants for consistency.
const (
	MetricChatMessages   = "monitor_chat_messages_total"
	MetricMarkedMessages = "monitor_marked_messages_total"
	MetricRevenueEvents  = "monitor_revenue_events_total"
	MetricAudienceTicks  = "monitor_audience_ticks_total"
	MetricAppendErrors   = "monitor_append_errors_total"
	MetricSessionsOpened = "monitor_sessions_opened_total"
	MetricSessionsEnded  = "monitor_sessions_ended_total"
)

// Metrics contains Prometheus metrics for the live monitor. All operations
// are thread-safe.
type Metrics struct {
	chatMessages   prometheus.Counter
	markedMessages prometheus.Counter
	revenueEvents  prometheus.Counter
	audienceTicks  prometheus.Counter
	appendErrors   prometheus.Counter
	sessionsOpened prometheus.Counter
	sessionsEnded  prometheus.Counter
}

// NewMetrics creates a Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a
// registry.
func NewMetrics() *Metrics {
	return &Metrics{
		chatMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricChatMessages,
			Help: "Total number of chat messages routed by the monitor",
		}),
		markedMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricMarkedMessages,
			Help: "Total number of chat messages classified as marked",
		}),
		revenueEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRevenueEvents,
			Help: "Total number of revenue events (gift, super message, guard purchase) persisted",
		}),
		audienceTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricAudienceTicks,
			Help: "Total number of viewer, high-energy and watched ticks persisted",
		}),
		appendErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricAppendErrors,
			Help: "Total number of storage append failures (events dropped)",
		}),
		sessionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricSessionsOpened,
			Help: "Total number of sessions opened",
		}),
		sessionsEnded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricSessionsEnded,
			Help: "Total number of sessions ended",
		}),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns all Prometheus collectors.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.chatMessages,
		m.markedMessages,
		m.revenueEvents,
		m.audienceTicks,
		m.appendErrors,
		m.sessionsOpened,
		m.sessionsEnded,
	}
}

// IncChatMessages increments the chat message counter.
func (m *Metrics) IncChatMessages() { m.chatMessages.Inc() }

// IncMarkedMessages increments the marked message counter.
func (m *Metrics) IncMarkedMessages() { m.markedMessages.Inc() }

// IncRevenueEvents increments the revenue event counter.
func (m *Metrics) IncRevenueEvents() { m.revenueEvents.Inc() }

// IncAudienceTicks increments the audience tick counter.
func (m *Metrics) IncAudienceTicks() { m.audienceTicks.Inc() }

// IncAppendErrors increments the append error counter.
func (m *Metrics) IncAppendErrors() { m.appendErrors.Inc() }

// IncSessionsOpened increments the sessions opened counter.
func (m *Metrics) IncSessionsOpened() { m.sessionsOpened.Inc() }

// IncSessionsEnded increments the sessions ended counter.
func (m *Metrics) IncSessionsEnded() { m.sessionsEnded.Inc() }

// MetricsHandler creates an HTTP handler for the Prometheus metrics
// endpoint backed by the provided registry.
func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
