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
		Namespace: "passtheplate",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "passtheplate",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "passtheplate",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Marketplace metrics
	DonationsPosted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "passtheplate",
		Subsystem: "marketplace",
		Name:      "donations_posted_total",
		Help:      "Total item donations posted",
	}, []string{"category"})

	DonationTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "passtheplate",
		Subsystem: "marketplace",
		Name:      "donation_transitions_total",
		Help:      "Donation status changes by target status",
	}, []string{"status"})

	MonetaryDonationAmount = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "passtheplate",
		Subsystem: "payments",
		Name:      "monetary_donation_usd_total",
		Help:      "Sum of completed monetary donations in USD",
	})

	GiftCardsRedeemed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "passtheplate",
		Subsystem: "rewards",
		Name:      "gift_cards_redeemed_total",
		Help:      "Gift cards redeemed by brand",
	}, []string{"brand"})

	// AI gateway metrics
	AIGatewayAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "passtheplate",
		Subsystem: "ai",
		Name:      "endpoint_attempts_total",
		Help:      "Model endpoint attempts by outcome (ok, transport_error or HTTP status)",
	}, []string{"endpoint", "outcome"})

	AIParseFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "passtheplate",
		Subsystem: "ai",
		Name:      "parse_fallbacks_total",
		Help:      "Structured replies that needed pattern extraction",
	}, []string{"task"})

	PredictionRefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "passtheplate",
		Subsystem: "ml",
		Name:      "refresh_duration_seconds",
		Help:      "Duration of highest-need prediction refreshes",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	PredictionRefreshErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "passtheplate",
		Subsystem: "ml",
		Name:      "refresh_errors_total",
		Help:      "Total failed highest-need prediction refreshes",
	})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "passtheplate",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "passtheplate",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "passtheplate",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "passtheplate",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "passtheplate",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "passtheplate",
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
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// UpdateDBPoolMetrics copies pool gauges from a *pgxpool.Stat. The argument is
// untyped so this package does not depend on pgx.
func UpdateDBPoolMetrics(stat interface{}) {
	type poolStat interface {
		AcquiredConns() int32
		IdleConns() int32
		TotalConns() int32
	}

	if s, ok := stat.(poolStat); ok {
		DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
		DBPoolConnsIdle.Set(float64(s.IdleConns()))
		DBPoolConnsOpen.Set(float64(s.TotalConns()))
	}
}
