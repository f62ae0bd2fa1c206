package checkin

import (
	"activity-assistant/config"
	"activity-assistant/internal/global/middleware"
	"activity-assistant/internal/global/redis"
	"activity-assistant/tools"

	"github.com/gin-gonic/gin"
)

func (p *ModuleCheckin) InitRouter(r *gin.RouterGroup) {
	limit, err := middleware.RateLimiter(config.Get().RateLimit.Rate, redis.Client)
	tools.PanicOnErr(err)

	checkinGroup := r.Group("/checkins", middleware.Auth())
	{
		checkinGroup.POST("", limit, CreateCheckin)
		checkinGroup.GET("/my", ListMyCheckins)
		checkinGroup.GET("/activity/:id", ListActivityCheckins)
		checkinGroup.GET("/:id", GetCheckin)
	}
}
