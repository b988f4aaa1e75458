package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stellarcanvas",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "stellarcanvas",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "stellarcanvas",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Engine metrics
	CoordinateWarnings = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stellarcanvas",
		Subsystem: "engine",
		Name:      "coordinate_warnings_total",
		Help:      "Inputs degraded by sanitization, by kind",
	}, []string{"kind"})

	CorrectionLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stellarcanvas",
		Subsystem: "engine",
		Name:      "correction_lookups_total",
		Help:      "Alignment correction lookups by matched source",
	}, []string{"source"})

	CorrectionUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stellarcanvas",
		Subsystem: "engine",
		Name:      "correction_updates_total",
		Help:      "Alignment correction writes by operation and origin",
	}, []string{"op", "origin"})

	OffGridTiles = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "stellarcanvas",
		Subsystem: "engine",
		Name:      "off_grid_tiles_total",
		Help:      "Tile requests outside the pyramid",
	})

	// Gazetteer metrics
	GazetteerLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stellarcanvas",
		Subsystem: "gazetteer",
		Name:      "loads_total",
		Help:      "Gazetteer loads by body and result",
	}, []string{"body", "result"})

	GazetteerLoadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "stellarcanvas",
		Subsystem: "gazetteer",
		Name:      "load_duration_seconds",
		Help:      "Duration of gazetteer loads",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"body"})

	GazetteerFeatures = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "stellarcanvas",
		Subsystem: "gazetteer",
		Name:      "features",
		Help:      "Features held in memory per body",
	}, []string{"body"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "stellarcanvas",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stellarcanvas",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stellarcanvas",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "stellarcanvas",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "stellarcanvas",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "stellarcanvas",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		// Route pattern, not the raw path, keeps label cardinality bounded.
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	}
}

// PoolStat is the subset of pgxpool.Stat the pool gauges read.
type PoolStat interface {
	AcquiredConns() int32
	IdleConns() int32
	TotalConns() int32
}

// UpdateDBPoolMetrics copies pool stats into the gauges.
func UpdateDBPoolMetrics(s PoolStat) {
	DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
	DBPoolConnsIdle.Set(float64(s.IdleConns()))
	DBPoolConnsOpen.Set(float64(s.TotalConns()))
}
