package middleware

import (
	"strconv"
	"time"

	"github.com/ErlanBelekov/shortly/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics records request latency and counts. Code lookups all land on
// the NoRoute handler and share one path label.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "/:code"
		}
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}
