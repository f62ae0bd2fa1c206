package review

import (
	"activity-assistant/internal/global/middleware"

	"github.com/gin-gonic/gin"
)

func (p *ModuleReview) InitRouter(r *gin.RouterGroup) {
	reviewGroup := r.Group("/reviews", middleware.Auth())
	{
		reviewGroup.POST("", SubmitReview)
		reviewGroup.GET("/my", MyReview)
		reviewGroup.GET("/activity/:id", ListActivityReviews)
		reviewGroup.GET("/activity/:id/statistics", ReviewStatistics)
		reviewGroup.PUT("/:id", UpdateReview)
		reviewGroup.DELETE("/:id", DeleteReview)
		reviewGroup.DELETE("/:id/admin", ModerateReview)
	}
}
