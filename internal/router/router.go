package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/tool-portal/internal/handler"
	"github.com/ashwinyue/tool-portal/internal/middleware"
	"github.com/ashwinyue/tool-portal/internal/service"
)

// SetupRouter 设置路由
func SetupRouter(h *handler.Handlers, svc *service.Services) *gin.Engine {
	r := gin.New()
	log := svc.Logger.Named("http")

	// 中间件
	r.Use(middleware.RecoveryMiddleware(log))
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware(log))
	r.Use(middleware.MetricsMiddleware(svc.Metrics))
	r.Use(middleware.CORSMiddleware(svc.Config.CORS.Origin))

	// 公开接口
	r.GET("/", h.System.Welcome)
	r.GET("/health", h.System.Health)
	r.GET("/metrics", gin.WrapH(svc.Metrics.Handler()))

	// API
	api := r.Group("/api")
	api.Use(middleware.RequireAuth(svc.Auth, svc.Metrics, log))
	{
		api.GET("/tools", h.Tool.ListTools)
	}

	return r
}
