package stats

import (
	"activity-assistant/internal/global/middleware"

	"github.com/gin-gonic/gin"
)

func (*ModuleStats) InitRouter(r *gin.RouterGroup) {
	statsGroup := r.Group("/stats", middleware.Auth())
	{
		activityGroup := statsGroup.Group("/activities/:id")
		{
			activityGroup.GET("", ActivityStats)
			activityGroup.GET("/export", Export)
		}
		statsGroup.GET("/users/:id", UserStats)
		statsGroup.GET("/my", MyStats)
	}
}
