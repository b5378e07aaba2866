package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/slotpipe/logger"
)

// probePaths are polled by orchestrators and not worth a log line each.
var probePaths = map[string]bool{
	"/health": true,
	"/alive":  true,
}

// RequestLogger returns a Gin middleware that logs every request with method,
// path, status code and duration. Probe paths are skipped.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if probePaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := logger.Fields(
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			logger.FieldDuration, time.Since(start).Milliseconds(),
		)
		if id, ok := c.Get(RequestIDKey); ok {
			fields["request_id"] = id
		}

		switch {
		case status >= 500:
			log.Error("request completed", fields)
		case status >= 400:
			log.Warn("request completed", fields)
		default:
			log.Debug("request completed", fields)
		}
	}
}
