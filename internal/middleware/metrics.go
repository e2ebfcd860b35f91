package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/egradu-api/internal/service"
)

// unmatchedRoute labels requests that hit no registered route. Raw paths carry
// ids and signed tokens and would explode the label set.
const unmatchedRoute = "unmatched"

// Metrics records request count and latency per route template. Prometheus
// scrapes of the given skip paths are not counted.
func Metrics(metricsSvc *service.MetricsService, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if _, ok := skip[route]; ok {
			return
		}
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
