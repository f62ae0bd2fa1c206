package checkin

import (
	"activity-assistant/internal/core"
	checkincore "activity-assistant/internal/core/checkin"
	"activity-assistant/internal/global/jwt"
	"activity-assistant/internal/global/logger"
	"activity-assistant/internal/global/response"

	"github.com/gin-gonic/gin"
)

// CheckinCreateReq 坐标为 WGS84，纬度 0 是合法值所以用指针判断是否传入
type CheckinCreateReq struct {
	ActivityID string   `json:"activity_id" binding:"required"`
	Latitude   *float64 `json:"latitude" binding:"required"`
	Longitude  *float64 `json:"longitude" binding:"required"`
	Address    string   `json:"address"`
}

// CreateCheckin 超出范围的签到也会落库，返回 is_valid=false
func CreateCheckin(c *gin.Context) {
	var req CheckinCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("绑定签到请求失败", "error", err)
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}

	userID := jwt.UserID(c)
	ck, err := svc.Create(c.Request.Context(), req.ActivityID, userID, checkincore.Input{
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Address:   req.Address,
	})
	if err != nil {
		logger.WithContext(log, c).Warn("签到失败", "error", err, "activity_id", req.ActivityID, "user_id", userID)
		response.Fail(c, err)
		return
	}
	response.Success(c, ck)
}

func ListMyCheckins(c *gin.Context) {
	var req response.PageReq
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}

	page := core.Page(req.Page, req.PageSize)
	items, total, err := svc.ListMine(c.Request.Context(), jwt.UserID(c), page)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.SuccessPage(c, items, total, page)
}

func ListActivityCheckins(c *gin.Context) {
	var req response.PageReq
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}

	page := core.Page(req.Page, req.PageSize)
	items, total, err := svc.ListByActivity(c.Request.Context(), c.Param("id"), jwt.UserID(c), page)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.SuccessPage(c, items, total, page)
}

func GetCheckin(c *gin.Context) {
	ck, err := svc.Get(c.Request.Context(), c.Param("id"), jwt.UserID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, ck)
}
