package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/okian/resumatch/pkg/logger"
	"github.com/okian/resumatch/pkg/metrics"
)

// MetricsMiddleware records request counts and latency per route template.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		durationMs := float64(time.Since(start).Milliseconds())

		metrics.RecordHTTPRequest(endpoint, c.Request.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, c.Request.Method, status, durationMs)
	}
}

// RequestLogger logs one line per request at debug level.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug(c.Request.Context(), "http request",
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", c.Writer.Status()),
			logger.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	}
}
