package engine

import "github.com/prometheus/client_golang/prometheus"

// engineMetrics are the counters and histograms spec.md §9 names:
// corekb_searches_total, corekb_search_duration_seconds,
// corekb_cache_hit_ratio, corekb_index_size. Each engine instance owns
// a private prometheus.Registry rather than registering onto the
// global default one, so constructing more than one engine in the
// same process (as the test suite does) never hits a duplicate-
// registration panic. No HTTP exporter is wired; scraping is a
// transport concern outside this package's scope.
type engineMetrics struct {
	searchesTotal  *prometheus.CounterVec
	searchDuration prometheus.Histogram
	cacheHitRatio  prometheus.Gauge
	indexSize      prometheus.Gauge
}

func newEngineMetrics(reg *prometheus.Registry) *engineMetrics {
	m := &engineMetrics{
		searchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "corekb_searches_total",
			Help: "Total Search calls, labeled by outcome (hit, miss, empty, error).",
		}, []string{"outcome"}),
		searchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "corekb_search_duration_seconds",
			Help:    "Search call latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		cacheHitRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "corekb_cache_hit_ratio",
			Help: "Most recently observed cache hit ratio.",
		}),
		indexSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "corekb_index_size",
			Help: "Estimated index size in bytes.",
		}),
	}
	reg.MustRegister(m.searchesTotal, m.searchDuration, m.cacheHitRatio, m.indexSize)
	return m
}
