// Package monitoring provides Prometheus metrics and health endpoints for
// the nearway server.
package monitoring

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/osmtools/nearway/pkg/version"
)

const (
	// ServiceName for metrics
	ServiceName = "nearway"
)

var (
	// MCP request metrics
	MCPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nearway_mcp_requests_total",
			Help: "Total number of MCP requests processed",
		},
		[]string{"tool", "status"},
	)

	MCPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nearway_mcp_request_duration_seconds",
			Help:    "MCP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"tool"},
	)

	// OSM API fetch metrics
	MapFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nearway_map_fetches_total",
			Help: "Total number of OSM map fetches",
		},
		[]string{"status"},
	)

	MapFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nearway_map_fetch_duration_seconds",
			Help:    "OSM map fetch duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
		},
	)

	RateLimitWaitTime = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nearway_rate_limit_wait_duration_seconds",
			Help:    "Time spent waiting for the OSM API rate limit",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
	)

	// Nearest-query metrics
	NearestQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nearway_nearest_queries_total",
			Help: "Total number of nearest-way queries",
		},
		[]string{"status"},
	)

	WaysScanned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nearway_ways_scanned_per_query",
			Help:    "Number of ways scanned per nearest-way query",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	// Cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nearway_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nearway_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	// System metrics
	SystemInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nearway_system_info",
			Help: "System information",
		},
		[]string{"version", "go_version", "build_commit", "build_date"},
	)

	GoRoutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nearway_goroutines",
			Help: "Number of goroutines",
		},
	)

	MemoryUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nearway_memory_usage_bytes",
			Help: "Memory usage in bytes",
		},
	)
)

// InitSystemInfo records static build information.
func InitSystemInfo() {
	SystemInfo.WithLabelValues(
		version.BuildVersion,
		runtime.Version(),
		version.BuildCommit,
		version.BuildDate,
	).Set(1)
}

// RecordToolRequest records one MCP tool invocation.
func RecordToolRequest(tool, status string, duration time.Duration) {
	MCPRequestsTotal.WithLabelValues(tool, status).Inc()
	MCPRequestDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordMapFetch records one OSM map fetch attempt.
func RecordMapFetch(duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	MapFetchesTotal.WithLabelValues(status).Inc()
	MapFetchDuration.Observe(duration.Seconds())
}

// RecordCacheLookup records a cache hit or miss for the given cache type.
func RecordCacheLookup(cacheType string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cacheType).Inc()
	} else {
		CacheMisses.WithLabelValues(cacheType).Inc()
	}
}
