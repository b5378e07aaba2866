package endpoint

import (
	"context"

	"github.com/gin-gonic/gin"
)

// StatusFunc reports the current progress of the binary, typically pipeline
// stats. A returned *errors.AppError selects the HTTP status.
type StatusFunc func(ctx context.Context) (any, error)

// Status returns a handler that serves the StatusFunc result wrapped in the
// data envelope.
func Status(serviceName string, status StatusFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if status == nil {
			RespondOK(c, gin.H{"service": serviceName})
			return
		}
		data, err := status(c.Request.Context())
		if err != nil {
			RespondWithError(c, err)
			return
		}
		RespondOK(c, data)
	}
}
