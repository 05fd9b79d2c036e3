// Package metrics provides Prometheus metrics for the notification client.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Connected is 1 while the transport holds a live broker connection.
	Connected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "notify_ws_connected",
		Help: "Whether the notification transport is currently connected",
	})
	ConnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notify_ws_connects_total",
		Help: "Successful broker connections (including reconnects)",
	})
	ReconnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notify_ws_reconnect_waits_total",
		Help: "Reconnect delays served by the fixed retry policy",
	})
	TransportErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notify_ws_transport_errors_total",
		Help: "Socket-level failures (dial, handshake, read)",
	})
	StompErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notify_stomp_errors_total",
		Help: "ERROR frames received from the broker",
	})
	MessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notify_messages_total",
		Help: "MESSAGE frames delivered to a subscription handler",
	})
	DecodeFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notify_decode_failures_total",
		Help: "Notification payloads dropped as malformed or incomplete",
	})
	OrdersReceivedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notify_orders_received_total",
		Help: "Successfully decoded order notifications",
	})
	AlertsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notify_alerts_total",
		Help: "User-visible order alerts dispatched",
	})
	SessionsStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notify_sessions_started_total",
		Help: "Notification sessions created by the session gate",
	})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
