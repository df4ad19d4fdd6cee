package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nonprofit-edge/evaluation-api/internal/service"
)

// Metrics records method, route, status, and latency for every request.
// Uses the route template so path parameters do not explode cardinality.
func Metrics(metrics *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
