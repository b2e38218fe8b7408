package api

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/familytree/internal/auth"
	"github.com/your-org/familytree/internal/observability"
)

// LoggingMiddleware logs each request with slog and records its
// duration. The metric is labeled with the route template, not the raw
// path, so person ids don't blow up the label cardinality.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration", duration.String(),
			"ip", c.ClientIP(),
		}
		if ident := auth.IdentityFrom(c); ident != nil {
			attrs = append(attrs, "user_id", ident.UserID)
		}
		slog.Info("request", attrs...)

		route := c.FullPath()
		if route == "" {
			route = path
		}
		observability.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			route,
			fmt.Sprintf("%d", status),
		).Observe(duration.Seconds())
	}
}
