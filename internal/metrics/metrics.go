package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	joinTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "group_join_total",
			Help: "Total number of group session join attempts by outcome",
		},
		[]string{"outcome"},
	)

	stockStreamSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stock_stream_subscribers",
			Help: "Number of currently connected stock stream subscribers",
		},
	)

	stockBroadcastsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stock_broadcasts_total",
			Help: "Total number of stock delta broadcasts committed",
		},
	)
)

// Middleware collects Prometheus metrics for every HTTP request. The SSE
// stream endpoint is excluded from the duration histogram since its request
// lifetime is the connection lifetime.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(c.Request.Method, endpoint, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// RecordJoinOutcome counts one join attempt by its coordinator outcome tag.
func RecordJoinOutcome(outcome string) {
	joinTotal.WithLabelValues(outcome).Inc()
}

// SubscriberConnected / SubscriberDisconnected track the live stream gauge.
func SubscriberConnected()    { stockStreamSubscribers.Inc() }
func SubscriberDisconnected() { stockStreamSubscribers.Dec() }

// RecordBroadcast counts one committed stock delta broadcast.
func RecordBroadcast() { stockBroadcastsTotal.Inc() }
