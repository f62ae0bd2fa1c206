package registration

import (
	"activity-assistant/internal/core"
	registrationcore "activity-assistant/internal/core/registration"
	"activity-assistant/internal/global/jwt"
	"activity-assistant/internal/global/logger"
	"activity-assistant/internal/global/response"
	"activity-assistant/internal/model"

	"github.com/gin-gonic/gin"
)

type RegistrationCreateReq struct {
	ActivityID string        `json:"activity_id" binding:"required"`
	Name       string        `json:"name" binding:"required"`
	Mobile     string        `json:"mobile"`
	GroupID    string        `json:"group_id"`
	CustomData []model.Field `json:"custom_data"` // 按表单顺序提交
}

// CreateRegistration 无需审核的活动直接通过并占用名额
func CreateRegistration(c *gin.Context) {
	var req RegistrationCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("绑定报名请求失败", "error", err)
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}

	userID := jwt.UserID(c)
	reg, err := svc.Create(c.Request.Context(), req.ActivityID, userID, registrationcore.Input{
		Name:       req.Name,
		Mobile:     req.Mobile,
		GroupID:    req.GroupID,
		CustomData: req.CustomData,
	})
	if err != nil {
		logger.WithContext(log, c).Warn("报名失败", "error", err, "activity_id", req.ActivityID, "user_id", userID)
		response.Fail(c, err)
		return
	}
	response.Success(c, reg)
}

type ListRegistrationsReq struct {
	Status []model.RegistrationStatus `form:"status"` // 可重复，缺省为全部
	response.PageReq
}

func ListMyRegistrations(c *gin.Context) {
	var req ListRegistrationsReq
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}

	page := core.Page(req.Page, req.PageSize)
	items, total, err := svc.ListMine(c.Request.Context(), jwt.UserID(c), req.Status, page)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.SuccessPage(c, items, total, page)
}

// ListActivityRegistrations 组织者和管理员查看活动报名
func ListActivityRegistrations(c *gin.Context) {
	var req ListRegistrationsReq
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}

	page := core.Page(req.Page, req.PageSize)
	items, total, err := svc.ListByActivity(c.Request.Context(), c.Param("id"), jwt.UserID(c), req.Status, page)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.SuccessPage(c, items, total, page)
}

func GetRegistration(c *gin.Context) {
	reg, err := svc.Get(c.Request.Context(), c.Param("id"), jwt.UserID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, reg)
}

type ApproveReq struct {
	Approved *bool  `json:"approved" binding:"required"`
	Note     string `json:"note"`
}

func ApproveRegistration(c *gin.Context) {
	var req ApproveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}

	reg, err := svc.Approve(c.Request.Context(), c.Param("id"), jwt.UserID(c), *req.Approved, req.Note)
	if err != nil {
		response.Fail(c, err)
		return
	}
	log.Info("报名已审核", "id", reg.ID, "status", reg.Status)
	response.Success(c, reg)
}

func CancelRegistration(c *gin.Context) {
	reg, err := svc.Cancel(c.Request.Context(), c.Param("id"), jwt.UserID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, reg)
}
