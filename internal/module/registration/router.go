package registration

import (
	"activity-assistant/config"
	"activity-assistant/internal/global/middleware"
	"activity-assistant/internal/global/redis"
	"activity-assistant/tools"

	"github.com/gin-gonic/gin"
)

func (p *ModuleRegistration) InitRouter(r *gin.RouterGroup) {
	limit, err := middleware.RateLimiter(config.Get().RateLimit.Rate, redis.Client)
	tools.PanicOnErr(err)

	registrationGroup := r.Group("/registrations", middleware.Auth())
	{
		registrationGroup.POST("", limit, CreateRegistration)
		registrationGroup.GET("/my", ListMyRegistrations)
		registrationGroup.GET("/activity/:id", ListActivityRegistrations)
		registrationGroup.GET("/:id", GetRegistration)
		registrationGroup.PUT("/:id/approve", ApproveRegistration)
		registrationGroup.DELETE("/:id", CancelRegistration)
	}
}
