package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by freshness ("fresh", "stale")
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dex_cache_hits_total",
			Help: "Total number of response cache hits",
		},
		[]string{"freshness"},
	)

	// CacheMisses tracks cache misses
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dex_cache_misses_total",
			Help: "Total number of response cache misses",
		},
	)

	// CacheWrites tracks stored entries
	CacheWrites = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dex_cache_writes_total",
			Help: "Total number of response cache writes",
		},
	)

	// CacheBytesWritten tracks the serialized size of stored entries
	CacheBytesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dex_cache_bytes_written_total",
			Help: "Total bytes written to the response cache",
		},
	)

	// NotModifiedResponses tracks 304 Not Modified responses
	NotModifiedResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dex_304_responses_total",
			Help: "Total number of 304 Not Modified responses",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dex_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
