// Package observability holds the Prometheus collectors of the service.
package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		},
		[]string{"method", "route", "status"},
	)

	framesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "frames_computed_total",
			Help: "Frames computed by origin (view, session).",
		},
		[]string{"origin"},
	)

	frameCells = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "frame_cells",
			Help:    "Number of cells in a computed frame after compaction.",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 7, 8, 10},
		},
	)

	frameDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "frame_compute_duration_seconds",
			Help:    "Time spent computing a frame.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12),
		},
	)

	locateTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "locate_total",
			Help: "Locate requests by kind (cell, coordinate) and outcome (resolved, invalid).",
		},
		[]string{"kind", "outcome"},
	)

	cellsetCacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cellset_cache_results_total",
			Help: "Cell-set cache lookups by tier and outcome.",
		},
		[]string{"tier", "outcome"},
	)

	cacheOpTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_op_total",
			Help: "Redis operations by op and result.",
		},
		[]string{"op", "result"},
	)

	redisOpDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Latency of Redis operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"op"},
	)

	viewEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "view_events_total",
			Help: "View events handed to the publisher by outcome (queued, dropped, error).",
		},
		[]string{"outcome"},
	)

	sessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessions_active",
			Help: "Map sessions currently held in memory.",
		},
	)

	buildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)
)

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveFrame(origin string, cells int, durationSeconds float64) {
	framesTotal.WithLabelValues(origin).Inc()
	frameCells.Observe(float64(cells))
	frameDurationSeconds.Observe(durationSeconds)
}

func IncLocate(kind string, resolved bool) {
	outcome := "invalid"
	if resolved {
		outcome = "resolved"
	}
	locateTotal.WithLabelValues(kind, outcome).Inc()
}

func IncCellSetCache(tier, outcome string) {
	cellsetCacheResults.WithLabelValues(tier, outcome).Inc()
}

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	cacheOpTotal.WithLabelValues(op, result).Inc()
	redisOpDurationSeconds.WithLabelValues(op).Observe(durationSeconds)
}

func IncViewEvent(outcome string) {
	viewEventsTotal.WithLabelValues(outcome).Inc()
}

func SetSessionsActive(n int) {
	sessionsActive.Set(float64(n))
}

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}
