package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zaplinker/backend/internal/metrics"
)

// unmatchedRoute labels requests no route matched, keeping path cardinality bounded
const unmatchedRoute = "unmatched"

// MetricsMiddleware collects HTTP metrics for Prometheus.
// Paths are labelled by route template so every short link shares "/:customUrl".
func MetricsMiddleware() gin.HandlerFunc {
	m := metrics.Get()

	return func(c *gin.Context) {
		method := c.Request.Method
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}

		m.HTTPActiveConnections.WithLabelValues(method, route).Inc()
		defer m.HTTPActiveConnections.WithLabelValues(method, route).Dec()

		if c.Request.ContentLength > 0 {
			m.HTTPRequestSize.WithLabelValues(method, route).Observe(float64(c.Request.ContentLength))
		}

		startTime := time.Now()
		c.Next()

		// Use numeric status code as string (e.g., "200", "500") for Prometheus label
		status := strconv.Itoa(c.Writer.Status())
		m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, route, status).Observe(time.Since(startTime).Seconds())

		if size := c.Writer.Size(); size > 0 {
			m.HTTPResponseSize.WithLabelValues(method, route, status).Observe(float64(size))
		}
		if c.Writer.Status() >= 500 {
			RecordError("http_5xx", route)
		}
	}
}

// RecordRateLimitExceeded counts a rejected request
func RecordRateLimitExceeded(scope, method string) {
	metrics.Get().RateLimitExceededTotal.WithLabelValues(scope, method).Inc()
}

// RecordError counts an error by type and route
func RecordError(errorType, endpoint string) {
	metrics.Get().ErrorsTotal.WithLabelValues(errorType, endpoint).Inc()
}
