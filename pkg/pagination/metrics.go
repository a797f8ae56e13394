package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pagesLoadedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dex_pages_loaded_total",
		Help: "Total number of pages appended to the catalog",
	})

	pageFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dex_page_failures_total",
		Help: "Total number of page loads aborted by a listing failure",
	})

	detailFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dex_detail_failures_total",
		Help: "Total number of detail fetches that failed and were omitted from their page",
	})

	scrollSignalsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dex_scroll_signals_dropped_total",
		Help: "Total number of at-bottom scroll signals dropped because a page load was in flight",
	})

	pageLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dex_page_load_duration_seconds",
		Help:    "Duration of a full page load, listing and details",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})
)
