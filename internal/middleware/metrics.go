package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/tool-portal/internal/metrics"
)

// MetricsMiddleware 请求指标中间件，按路由模板统计
func MetricsMiddleware(m *metrics.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
