package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"supplytrack/pkg/logger"
)

// Logger emits one structured line per request after the handler chain
// finishes. Trace and request IDs come in through the context fields.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		// Capture before handlers can rewrite the request.
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"query", query,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
			fields = append(fields, "error", errs.String())
		}

		log.WithContext(c.Request.Context()).Infow("http request", fields...)
	}
}
