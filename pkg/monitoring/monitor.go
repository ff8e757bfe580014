package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// SnapshotCacheCounter tracks cache layer outcomes per scope kind:
	// hit, miss, bypass (backend unreachable, served by direct computation).
	SnapshotCacheCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_snapshot_cache_total",
			Help: "Snapshot cache lookups by outcome",
		},
		[]string{"outcome"},
	)

	SnapshotComputeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dashboard_snapshot_compute_seconds",
			Help:    "Duration of snapshot aggregation runs",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2},
		},
	)

	StreamSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashboard_stream_subscribers",
			Help: "Currently connected dashboard stream subscribers",
		},
	)

	CoalescedUpdates = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_stream_coalesced_total",
			Help: "Snapshots replaced in a subscriber slot before delivery",
		},
	)

	ReportCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reports_total",
			Help: "Report jobs by terminal outcome",
		},
		[]string{"type", "outcome"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(SnapshotCacheCounter)
	prometheus.MustRegister(SnapshotComputeDuration)
	prometheus.MustRegister(StreamSubscribers)
	prometheus.MustRegister(CoalescedUpdates)
	prometheus.MustRegister(ReportCounter)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
