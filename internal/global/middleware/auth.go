package middleware

import (
	"activity-assistant/internal/global/jwt"
	"activity-assistant/internal/global/response"
	"strings"

	"github.com/gin-gonic/gin"
)

// Auth 校验 Bearer 令牌，载荷写入 context 供 jwt.GetUserPayload 读取
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 获取 Authorization 头
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Fail(c, response.ErrUnauthorized)
			c.Abort()
			return
		}

		// 检查 Bearer 前缀并提取 token
		if !strings.HasPrefix(authHeader, "Bearer ") {
			response.Fail(c, response.ErrTokenInvalid)
			c.Abort()
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")

		payload, valid := jwt.ParseToken(token)
		if !valid {
			response.Fail(c, response.ErrTokenInvalid)
			c.Abort()
			return
		}
		c.Set(jwt.PayloadKey, payload)
		c.Next()
	}
}
