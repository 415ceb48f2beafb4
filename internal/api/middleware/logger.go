package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger middleware logs HTTP request details. The UI polls /health and
// /api/v1/sync/status continuously, so those are logged at debug to keep
// the agent log readable.
func Logger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		correlationID := GetCorrelationID(c)

		requestLogger := logger
		if correlationID != "" {
			requestLogger = logger.With("correlation_id", correlationID)
		}

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		method := c.Request.Method

		if raw != "" {
			path = path + "?" + raw
		}

		logFn := requestLogger.Info
		if isPollingPath(c.Request.URL.Path) && statusCode < 400 {
			logFn = requestLogger.Debug
		}

		logFn("HTTP request",
			"method", method,
			"path", path,
			"status", statusCode,
			"latency", latency,
		)
	}
}

func isPollingPath(path string) bool {
	return path == "/health" || path == "/api/v1/sync/status"
}
