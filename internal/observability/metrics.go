package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry *prometheus.Registry

	// Upstream HidroWeb call rate. Watch for: error vs success ratio.
	UpstreamCallsTotal *prometheus.CounterVec

	// Upstream latency per attempt. Watch for: p95 > 2s (upstream degradation).
	UpstreamDuration *prometheus.HistogramVec

	// Retry attempts against the upstream. High retries = unstable upstream.
	UpstreamRetriesTotal prometheus.Counter

	// Authentication round trips, including re-auth after 401.
	AuthRequestsTotal *prometheus.CounterVec
)

func init() {
	registry = prometheus.NewRegistry()

	UpstreamCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hidrowebUpstreamCallsTotal",
			Help: "Total number of HidroWeb API attempts",
		},
		[]string{"status"},
	)
	UpstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hidrowebUpstreamDurationSeconds",
			Help:    "HidroWeb API attempt latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)
	UpstreamRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hidrowebUpstreamRetriesTotal",
			Help: "Total number of retried HidroWeb API attempts",
		},
	)
	AuthRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hidrowebAuthRequestsTotal",
			Help: "Total number of token authentication requests",
		},
		[]string{"status"},
	)

	registry.MustRegister(
		UpstreamCallsTotal,
		UpstreamDuration,
		UpstreamRetriesTotal,
		AuthRequestsTotal,
	)
}

// Registry exposes the SDK metrics registry so embedding applications can
// mount it on their own /metrics handler.
func Registry() *prometheus.Registry {
	return registry
}

// StatusLabel maps an HTTP status code onto the stable label set used by the
// upstream call metrics.
func StatusLabel(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "success"
	case statusCode == 429:
		return "rate_limited"
	case statusCode >= 400 && statusCode < 500:
		return "client_error"
	case statusCode >= 500:
		return "server_error"
	default:
		return "error"
	}
}
