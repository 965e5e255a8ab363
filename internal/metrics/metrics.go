// Package metrics exposes the chat subsystem's prometheus collectors. HTTP
// request metrics come from the echoprometheus middleware; these cover what
// that middleware cannot see inside websocket sessions.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// ChatConnections tracks currently open chat connections.
	ChatConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_open_connections",
		Help: "Currently open chat websocket connections.",
	})

	// ChatRooms tracks rooms with at least one live connection.
	ChatRooms = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_active_rooms",
		Help: "Rooms with at least one live connection.",
	})

	// MessagesPersisted counts messages appended to room logs.
	MessagesPersisted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_messages_persisted_total",
		Help: "Chat messages accepted, persisted, and broadcast.",
	})

	// MessagesRejected counts messages flagged by the moderation predicate.
	MessagesRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_messages_rejected_total",
		Help: "Chat messages rejected by moderation.",
	})

	// HandshakeFailures counts connections closed during the handshake.
	HandshakeFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_handshake_failures_total",
		Help: "Chat connections closed before admission.",
	})
)

// Init registers the chat collectors with the default registry.
func Init() {
	prometheus.MustRegister(ChatConnections, ChatRooms, MessagesPersisted, MessagesRejected, HandshakeFailures)
}
