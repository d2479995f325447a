package mw

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)

	httpRequestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
		[]string{"service"},
	)

	// PredictionsTotal counts scored rows by endpoint and outcome.
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of rows scored by the price model",
		},
		[]string{"endpoint", "status"},
	)

	// SimulationsTotal counts threshold simulator runs.
	SimulationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "simulations_total",
		Help: "Total number of delay threshold simulations",
	})
)

// RecordPredictions adds n rows to the prediction counter.
func RecordPredictions(endpoint string, n int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	PredictionsTotal.WithLabelValues(endpoint, status).Add(float64(n))
}

// Metrics records request count and latency under the route pattern, so
// path parameters and query strings do not multiply the series.
func Metrics(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		inFlight := httpRequestsInFlight.WithLabelValues(service)
		inFlight.Inc()
		defer inFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(service, c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(service, c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

// MetricsHandler exposes the default registry.
func MetricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
