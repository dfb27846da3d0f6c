package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rachael-ai/orchestrator/common/logger"
)

// Logger emits one structured record per request, enriched with whatever
// trace/span context otelgin attached upstream.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{
			Component: "http.request",
		})
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		slog.InfoContext(ctx, "http request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	}
}
