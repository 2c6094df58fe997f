package api

import (
	routes "censuspop/internal/api/handlers"
	"censuspop/internal/config"
	"censuspop/internal/metrics"
	"censuspop/internal/service/population"

	"github.com/gin-gonic/gin"
)

// SetupRouter initializes all application routes
func SetupRouter(r *gin.Engine, svc *population.Service, cfg config.Config) {
	r.Use(RequestID(), CORS(), RequestMetrics())

	// Setup main handlers
	routes.SetupMainHandlers(r.Group(""), svc)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// API group
	api := r.Group("/api")

	// Setup population handlers
	routes.SetupPopulationHandlers(api, svc, cfg.MaxUploadBytes)
}
