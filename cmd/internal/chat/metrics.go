package chat

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments the chat core. All fields are optional at call sites:
// a nil *Metrics disables instrumentation entirely.
type Metrics struct {
	ConnectionsOpen       prometheus.Gauge
	MessagesPersisted     prometheus.Counter
	PersistFailures       prometheus.Counter
	BroadcastSendFailures prometheus.Counter
}

// NewMetrics constructs and registers the chat metric set.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ConnectionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sharebase",
			Subsystem: "chat",
			Name:      "connections_open",
			Help:      "Currently open realtime connections across all groups.",
		}),
		MessagesPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sharebase",
			Subsystem: "chat",
			Name:      "messages_persisted_total",
			Help:      "Chat messages accepted and written to the message store.",
		}),
		PersistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sharebase",
			Subsystem: "chat",
			Name:      "persist_failures_total",
			Help:      "Message store writes that failed.",
		}),
		BroadcastSendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sharebase",
			Subsystem: "chat",
			Name:      "broadcast_send_failures_total",
			Help:      "Individual sends that failed during broadcast fanout.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.ConnectionsOpen,
			m.MessagesPersisted,
			m.PersistFailures,
			m.BroadcastSendFailures,
		)
	}
	return m
}
