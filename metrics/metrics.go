// Package metrics exposes prometheus instrumentation for the relay
// server: live sessions, routed traffic, and signaling activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the relay server collectors.
type Metrics struct {
	registry *prometheus.Registry

	SessionsOnline  prometheus.Gauge
	EventsReceived  *prometheus.CounterVec
	EventsDropped   prometheus.Counter
	MessagesRelayed prometheus.Counter
	CallsActive     prometheus.Gauge
}

// New creates and registers the relay collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SessionsOnline: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relay_sessions_online",
			Help: "Number of live user sessions.",
		}),
		EventsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_events_received_total",
			Help: "Inbound events by tag.",
		}, []string{"event"}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relay_events_dropped_total",
			Help: "Outbound events dropped on full or closed channels.",
		}),
		MessagesRelayed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relay_messages_relayed_total",
			Help: "Chat messages persisted and routed.",
		}),
		CallsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relay_calls_active",
			Help: "Call sessions currently tracked.",
		}),
	}

	m.registry.MustRegister(
		m.SessionsOnline,
		m.EventsReceived,
		m.EventsDropped,
		m.MessagesRelayed,
		m.CallsActive,
	)
	return m
}

// Handler returns the HTTP handler serving the collectors.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
