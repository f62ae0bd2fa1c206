package ping

import (
	"activity-assistant/config"
	"activity-assistant/internal/global/response"
	"time"

	"github.com/gin-gonic/gin"
)

const Version = "1.0.0"

func (p *ModulePing) InitRouter(r *gin.RouterGroup) {
	r.GET("/ping", Ping)
}

// Ping 健康检查，不需要登录
func Ping(c *gin.Context) {
	response.Success(c, gin.H{
		"message": "pong",
		"version": Version,
		"storage": config.Get().Storage.Driver,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}
