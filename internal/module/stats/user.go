package stats

import (
	"activity-assistant/internal/global/jwt"
	"activity-assistant/internal/global/response"

	"github.com/gin-gonic/gin"
)

// UserStats 只能查看自己的统计
func UserStats(c *gin.Context) {
	st, err := svc.User(c.Request.Context(), c.Param("id"), jwt.UserID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, st)
}

func MyStats(c *gin.Context) {
	userID := jwt.UserID(c)
	st, err := svc.User(c.Request.Context(), userID, userID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, st)
}
