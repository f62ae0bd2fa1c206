package activity

import (
	"activity-assistant/internal/global/middleware"

	"github.com/gin-gonic/gin"
)

func (p *ModuleActivity) InitRouter(r *gin.RouterGroup) {
	activityGroup := r.Group("/activities", middleware.Auth())
	{
		activityGroup.POST("", CreateActivity)
		activityGroup.GET("", ListActivities)
		activityGroup.GET("/my", ListMyActivities)
		activityGroup.GET("/:id", GetActivity)
		activityGroup.PUT("/:id", UpdateActivity)
		activityGroup.DELETE("/:id", DeleteActivity)

		activityGroup.POST("/:id/publish", PublishActivity)
		activityGroup.POST("/:id/cancel", CancelActivity)
		activityGroup.PUT("/:id/managers", UpdateManagers)

		// 封面走对象存储直传
		activityGroup.POST("/:id/cover", PresignCover)
	}
}
