package routes

import (
	"net/http"

	"censuspop/internal/service/population"

	"github.com/gin-gonic/gin"
)

// SetupMainHandlers registers the service status endpoints
func SetupMainHandlers(router *gin.RouterGroup, svc *population.Service) {
	router.GET("/health", func(c *gin.Context) {
		cities := svc.Cities()
		if len(cities) == 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "loading",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"cities": len(cities),
		})
	})
}
