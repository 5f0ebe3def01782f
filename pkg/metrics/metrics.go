// Package metrics provides the centralized Prometheus metrics registry
// for the community API client. All metrics are defined in their
// respective packages (client, cache, netmon, prefetch) to maintain
// modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available
// metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the client.
// All metrics are automatically registered via promauto in their
// respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - townsq_requests_total{endpoint, outcome} (Counter): Requests by endpoint and outcome
//     (HTTP status, "timeout", "network_unusable", "offline_cache", "cancelled", ...)
//   - townsq_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - townsq_cache_fallbacks_total{reason} (Counter): Responses served from cache after a failure
//   - townsq_offline_serves_total (Counter): Responses served from cache while offline
//
// Cache Metrics (pkg/cache):
//   - townsq_cache_hits_total (Counter): Cache hits
//   - townsq_cache_misses_total (Counter): Cache misses (absent, expired, or corrupt)
//   - townsq_cache_evictions_total (Counter): Entries evicted by side-effecting reads
//   - townsq_cache_errors_total{operation} (Counter): Swallowed best-effort failures
//
// Connectivity Metrics (pkg/netmon):
//   - townsq_network_usable (Gauge): Current usability (1 usable, 0 not)
//   - townsq_network_transitions_total{usable} (Counter): State transitions by resulting usability
//   - townsq_network_subscriber_panics_total (Counter): Subscriber callbacks that panicked
//
// Prefetch Metrics (pkg/prefetch):
//   - townsq_prefetch_warmed_total (Counter): Endpoints successfully warmed
//   - townsq_prefetch_failures_total (Counter): Warm-up attempts that failed
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(townsq_cache_hits_total[5m])) /
//   (sum(rate(townsq_cache_hits_total[5m])) + sum(rate(townsq_cache_misses_total[5m])))
//
//   # Share of responses served stale (fallback or offline)
//   (sum(rate(townsq_cache_fallbacks_total[5m])) + rate(townsq_offline_serves_total[5m])) /
//   sum(rate(townsq_requests_total[5m]))
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(townsq_request_duration_seconds_bucket[5m]))
//
//   # Timeout Rate by Endpoint
//   rate(townsq_requests_total{outcome="timeout"}[5m])
