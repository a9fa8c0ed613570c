// Package metrics holds the Prometheus collectors exported on /metrics.
//
// Collectors are registered with the default registry at init via promauto,
// so importing the package is enough to expose them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Search index synchronizer

	SyncCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_index_sync_cycles_total",
			Help: "Synchronizer cycles by kind (bulk, poll, reconcile) and result",
		},
		[]string{"kind", "result"},
	)

	SyncItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_index_sync_items_total",
			Help: "Per-novel index writes by operation and result",
		},
		[]string{"op", "result"},
	)

	SyncRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inkwell_index_sync_retries_total",
			Help: "Index write attempts retried after a transient failure",
		},
	)

	SyncStaleDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inkwell_index_sync_stale_deleted_total",
			Help: "Index documents removed because the novel no longer exists",
		},
	)

	SyncRepairs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_index_sync_repairs_total",
			Help: "Documents re-pushed by full reconciliation, by reason",
		},
		[]string{"reason"},
	)

	SyncCursor = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "inkwell_index_sync_cursor_timestamp_seconds",
			Help: "Exclusive lower bound of the next incremental poll",
		},
	)

	SyncQueueDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inkwell_index_sync_queue_dropped_total",
			Help: "Write-path index hints dropped because the queue was full",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "inkwell_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Recommendations

	RecommendCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_recommend_cache_total",
			Help: "Recommendation cache lookups by result (hit, miss, refresh)",
		},
		[]string{"result"},
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "inkwell_recommend_compute_seconds",
			Help:    "Time spent computing a recommendation bundle",
			Buckets: prometheus.DefBuckets,
		},
	)

	// HTTP

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_http_requests_total",
			Help: "HTTP requests by method, route pattern and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inkwell_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route pattern",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
