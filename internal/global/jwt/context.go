package jwt

import (
	"github.com/gin-gonic/gin"
)

const PayloadKey = "payload"

func GetUserPayload(c *gin.Context) (userPayload *Claims, exist bool) {
	payload, _ := c.Get(PayloadKey)
	userPayload, exist = payload.(*Claims)
	return
}

// UserID 取当前登录用户，Auth 中间件之后调用
func UserID(c *gin.Context) string {
	if p, ok := GetUserPayload(c); ok {
		return p.UserID
	}
	return ""
}
