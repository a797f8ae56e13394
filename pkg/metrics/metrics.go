// Package metrics provides the Prometheus registry and HTTP handler for the
// dex browser. All metrics are defined in their respective packages
// (client, cache, catalog, pagination) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the dex browser.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer collects the metrics registered on Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the registered metrics in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Names lists every metric family the dex browser registers.
var Names = []string{
	"dex_requests_total",
	"dex_request_duration_seconds",
	"dex_errors_total",
	"dex_retries_total",
	"dex_retry_backoff_seconds",
	"dex_retry_exhausted_total",
	"dex_cache_hits_total",
	"dex_cache_misses_total",
	"dex_cache_writes_total",
	"dex_cache_bytes_written_total",
	"dex_304_responses_total",
	"dex_cache_errors_total",
	"dex_catalog_records",
	"dex_catalog_duplicates_total",
	"dex_pages_loaded_total",
	"dex_page_failures_total",
	"dex_detail_failures_total",
	"dex_scroll_signals_dropped_total",
	"dex_page_load_duration_seconds",
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - dex_requests_total{op, status} (Counter): Requests by operation (list, detail) and HTTP status
//   - dex_request_duration_seconds{op} (Histogram): Request duration by operation
//   - dex_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network, decode)
//
// Retry Metrics (pkg/client):
//   - dex_retries_total{error_class} (Counter): Retry attempts by error class
//   - dex_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - dex_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Cache Metrics (pkg/cache):
//   - dex_cache_hits_total{freshness} (Counter): Cache hits, fresh or stale
//   - dex_cache_misses_total (Counter): Cache misses
//   - dex_cache_writes_total (Counter): Entries written to Redis
//   - dex_cache_bytes_written_total (Counter): Body bytes written to Redis
//   - dex_304_responses_total (Counter): 304 Not Modified responses
//   - dex_cache_errors_total{operation} (Counter): Cache operation errors
//
// Catalog Metrics (pkg/catalog):
//   - dex_catalog_records (Gauge): Records held by the catalog store
//   - dex_catalog_duplicates_total (Counter): Records dropped because their id was already present
//
// Pagination Metrics (pkg/pagination):
//   - dex_pages_loaded_total (Counter): Pages appended to the catalog
//   - dex_page_failures_total (Counter): Page loads aborted by a listing failure
//   - dex_detail_failures_total (Counter): Detail fetches omitted from their page
//   - dex_scroll_signals_dropped_total (Counter): At-bottom signals dropped while a page was loading
//   - dex_page_load_duration_seconds (Histogram): Full page load duration
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(dex_cache_hits_total[5m])) /
//   (sum(rate(dex_cache_hits_total[5m])) + sum(rate(dex_cache_misses_total[5m])))
//
//   # Detail Failure Ratio
//   rate(dex_detail_failures_total[5m]) / rate(dex_requests_total{op="detail"}[5m])
//
//   # P95 Page Load Latency
//   histogram_quantile(0.95, rate(dex_page_load_duration_seconds_bucket[5m]))
//
//   # 304 Response Rate
//   rate(dex_304_responses_total[5m]) / rate(dex_requests_total[5m])
