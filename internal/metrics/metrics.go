// Package metrics provides Prometheus instrumentation for the donor
// client. It exposes counters for API traffic and realtime chat activity
// plus gauges for connection state, for headless deployments that scrape
// their clients.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// APIRequestsTotal counts backend REST calls, labeled by outcome:
	// "ok", "error", or "unauthorized".
	APIRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lifelink_api_requests_total",
		Help: "Total number of backend API requests",
	}, []string{"outcome"})

	// SessionClearsTotal counts forced session clears triggered by 401
	// responses.
	SessionClearsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lifelink_session_clears_total",
		Help: "Total number of sessions cleared after an unauthorized response",
	})

	// RealtimeReconnectsTotal counts broker reconnects.
	RealtimeReconnectsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lifelink_realtime_reconnects_total",
		Help: "Total number of realtime transport reconnects",
	})

	// MessagesTotal counts chat messages, labeled by direction:
	// "sent" or "received".
	MessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lifelink_chat_messages_total",
		Help: "Total number of chat messages processed",
	}, []string{"direction"})

	// OpenSurfaces tracks the current number of mounted chat surfaces.
	OpenSurfaces = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lifelink_chat_surfaces_open",
		Help: "Current number of open chat surfaces",
	})

	// RealtimeConnected is 1 while the shared broker connection is up.
	RealtimeConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lifelink_realtime_connected",
		Help: "Whether the realtime transport is currently connected",
	})
)

func init() {
	prometheus.MustRegister(
		APIRequestsTotal,
		SessionClearsTotal,
		RealtimeReconnectsTotal,
		MessagesTotal,
		OpenSurfaces,
		RealtimeConnected,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
