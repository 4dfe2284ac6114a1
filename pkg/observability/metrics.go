// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the relais adapter and its companion services.
package observability

import "github.com/prometheus/client_golang/prometheus"

// RelayBuckets defines histogram buckets suited for proxied tool-call
// latencies, ranging from 10ms to 60s.
var RelayBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60}

var (
	// RequestsTotal counts all HTTP requests by method, status class, and route.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relais_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status", "route"},
	)

	// RequestDuration records HTTP request duration in seconds by method and route.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relais_request_duration_seconds",
			Help:    "Request duration",
			Buckets: RelayBuckets,
		},
		[]string{"method", "route"},
	)

	// UpstreamRequestsTotal counts tool calls relayed to the upstream MCP
	// REST endpoint by tool name and outcome.
	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relais_upstream_requests_total",
			Help: "Upstream relay requests",
		},
		[]string{"tool", "status"},
	)

	// UpstreamLatency records upstream relay latency in seconds per tool.
	UpstreamLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relais_upstream_latency_seconds",
			Help:    "Upstream relay latency",
			Buckets: RelayBuckets,
		},
		[]string{"tool"},
	)

	// VaultOperationsTotal counts key exchanges against Vault by operation
	// (get, put, health) and outcome.
	VaultOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relais_vault_operations_total",
			Help: "Vault operations",
		},
		[]string{"operation", "status"},
	)

	// StoreOperationsTotal counts datagroup store operations by operation
	// (put, get) and outcome (ok, not_found, denied, error).
	StoreOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relais_store_operations_total",
			Help: "Datagroup store operations",
		},
		[]string{"operation", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		UpstreamRequestsTotal,
		UpstreamLatency,
		VaultOperationsTotal,
		StoreOperationsTotal,
	)
}
