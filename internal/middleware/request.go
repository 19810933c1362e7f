package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const HeaderRequestID = "X-Request-ID"

// RequestLog tags each request with an id and writes one slog line when it
// finishes.
func RequestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(HeaderRequestID, id)

		start := time.Now()
		c.Next()

		slog.Info("http.request",
			"request_id", id,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"email", c.GetString(ctxEmail),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}
