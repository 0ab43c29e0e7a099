package middleware

import (
	"log/slog"
	"time"

	"storefront/logging"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// RequestLogger attaches a request scoped logger to the request context and
// logs one line per request once it finishes.
func RequestLogger(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(RequestIDHeader, reqID)

		l := base.With("request_id", reqID)
		c.Request = c.Request.WithContext(logging.IntoContext(c.Request.Context(), l))

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"identity", GetIdentity(c).Kind().String(),
		}
		switch {
		case status >= 500:
			l.ErrorContext(c.Request.Context(), "request", attrs...)
		case status >= 400:
			l.WarnContext(c.Request.Context(), "request", attrs...)
		default:
			l.InfoContext(c.Request.Context(), "request", attrs...)
		}
	}
}
