// Package metrics registers the service's prometheus collectors.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Commands counts user command executions by outcome.
	Commands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "user_commands_total",
			Help: "Total number of executed user commands",
		},
		[]string{"command", "outcome"},
	)

	// SocketConnections tracks live websocket connections per gateway.
	SocketConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "socket_connections",
			Help: "Currently open websocket connections",
		},
		[]string{"gateway"},
	)

	// OutboxEvents counts outbox dispatch attempts by outcome.
	OutboxEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbox_events_total",
			Help: "Total number of dispatched outbox events",
		},
		[]string{"channel", "outcome"},
	)
)

// Register installs all collectors on the default registry.
func Register() {
	prometheus.MustRegister(Commands)
	prometheus.MustRegister(SocketConnections)
	prometheus.MustRegister(OutboxEvents)
}
