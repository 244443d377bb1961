package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamRequestsTotal tracks outbound calls to the PDPJ process API.
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdpj_upstream_requests_total",
			Help: "Total number of PDPJ API requests made (by endpoint and status).",
		},
		[]string{"endpoint", "status"},
	)

	// UpstreamRequestDuration measures the duration of outbound PDPJ calls.
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pdpj_upstream_request_duration_seconds",
			Help:    "Duration of PDPJ API requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 13), // 5ms → ~20s
		},
		[]string{"endpoint"},
	)

	// AuthLoginsTotal counts password-grant logins against the SSO by result.
	AuthLoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdpj_auth_logins_total",
			Help: "Number of SSO logins performed (by result).",
		},
		[]string{"result"},
	)

	// SSEActiveConnections is the number of open /sse streams.
	SSEActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_active_connections",
			Help: "Number of currently open SSE connections.",
		},
	)

	// SSEEventsTotal counts SSE events written, by event name.
	SSEEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sse_events_total",
			Help: "Number of SSE events written (by event).",
		},
		[]string{"event"},
	)
)

// ObserveUpstream records one outbound PDPJ call. status 0 means the request never got a response.
func ObserveUpstream(endpoint string, status int, start time.Time) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	UpstreamRequestsTotal.WithLabelValues(endpoint, label).Inc()
	UpstreamRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// IncAuthLogin increments the login counter ("success" or "failure").
func IncAuthLogin(result string) {
	AuthLoginsTotal.WithLabelValues(result).Inc()
}

// IncSSEEvent increments the SSE event counter.
func IncSSEEvent(event string) {
	SSEEventsTotal.WithLabelValues(event).Inc()
}
