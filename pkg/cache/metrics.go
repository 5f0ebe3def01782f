package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cacheHits tracks reads served from a valid entry.
	cacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "townsq_cache_hits_total",
			Help: "Total number of cache hits",
		},
	)

	// cacheMisses tracks reads with no valid entry (absent, expired, or corrupt).
	cacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "townsq_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	// cacheEvictions tracks entries physically deleted by a side-effecting read.
	cacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "townsq_cache_evictions_total",
			Help: "Total number of entries evicted on read (expired or corrupt)",
		},
	)

	// cacheErrors tracks best-effort operations that failed and were swallowed.
	cacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "townsq_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete", "clear"
	)
)
