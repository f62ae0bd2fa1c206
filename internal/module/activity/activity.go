package activity

import (
	"activity-assistant/internal/core"
	activitycore "activity-assistant/internal/core/activity"
	"activity-assistant/internal/core/policy"
	"activity-assistant/internal/global/jwt"
	"activity-assistant/internal/global/pictureBed"
	"activity-assistant/internal/global/response"
	"activity-assistant/internal/model"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// ActivityCreateReq 时间均为 RFC 3339
type ActivityCreateReq struct {
	Title            string     `json:"title" binding:"required"`
	Description      string     `json:"description"`
	Type             string     `json:"type" binding:"required"`
	Image            string     `json:"image"`
	StartTime        time.Time  `json:"start_time" binding:"required"`
	EndTime          time.Time  `json:"end_time" binding:"required"`
	RegisterDeadline *time.Time `json:"register_deadline"` // 为空时取开始时间

	Place         string  `json:"place"`
	Address       string  `json:"address"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	CheckinRadius float64 `json:"checkin_radius"`

	Total           int           `json:"total" binding:"required"`
	MinParticipants int           `json:"min_participants"`
	Fee             float64       `json:"fee"`
	FeeType         model.FeeType `json:"fee_type"`

	NeedReview  bool  `json:"need_review"`
	IsPublic    *bool `json:"is_public"` // 默认公开
	OpenCheckin bool  `json:"open_checkin"`

	OrganizerName   string `json:"organizer_name"`
	OrganizerPhone  string `json:"organizer_phone"`
	OrganizerWechat string `json:"organizer_wechat"`

	Groups []model.Group `json:"groups"` // 为空表示不分组
}

func (r ActivityCreateReq) input() activitycore.Input {
	in := activitycore.Input{
		Title:           r.Title,
		Description:     r.Description,
		Type:            r.Type,
		Image:           r.Image,
		StartTime:       r.StartTime.UTC(),
		EndTime:         r.EndTime.UTC(),
		Place:           r.Place,
		Address:         r.Address,
		Latitude:        r.Latitude,
		Longitude:       r.Longitude,
		CheckinRadius:   r.CheckinRadius,
		Total:           r.Total,
		MinParticipants: r.MinParticipants,
		Fee:             r.Fee,
		FeeType:         r.FeeType,
		NeedReview:      r.NeedReview,
		IsPublic:        lo.FromPtrOr(r.IsPublic, true),
		OpenCheckin:     r.OpenCheckin,
		OrganizerName:   r.OrganizerName,
		OrganizerPhone:  r.OrganizerPhone,
		OrganizerWechat: r.OrganizerWechat,
		Groups:          r.Groups,
	}
	if r.RegisterDeadline != nil {
		in.RegisterDeadline = r.RegisterDeadline.UTC()
	}
	return in
}

// ActivityUpdateReq 使用指针类型支持部分更新
type ActivityUpdateReq struct {
	Title            *string    `json:"title"`
	Description      *string    `json:"description"`
	Type             *string    `json:"type"`
	Image            *string    `json:"image"`
	StartTime        *time.Time `json:"start_time"`
	EndTime          *time.Time `json:"end_time"`
	RegisterDeadline *time.Time `json:"register_deadline"`

	Place         *string  `json:"place"`
	Address       *string  `json:"address"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	CheckinRadius *float64 `json:"checkin_radius"`

	Total           *int           `json:"total"`
	MinParticipants *int           `json:"min_participants"`
	Fee             *float64       `json:"fee"`
	FeeType         *model.FeeType `json:"fee_type"`

	NeedReview  *bool `json:"need_review"`
	IsPublic    *bool `json:"is_public"`
	OpenCheckin *bool `json:"open_checkin"`

	Groups []model.Group `json:"groups"` // 不传保持不变，同 ID 的分组保留已报名数
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	return lo.ToPtr(t.UTC())
}

func (r ActivityUpdateReq) patch() activitycore.Patch {
	return activitycore.Patch{
		Title:            r.Title,
		Description:      r.Description,
		Type:             r.Type,
		Image:            r.Image,
		StartTime:        utc(r.StartTime),
		EndTime:          utc(r.EndTime),
		RegisterDeadline: utc(r.RegisterDeadline),
		Place:            r.Place,
		Address:          r.Address,
		Latitude:         r.Latitude,
		Longitude:        r.Longitude,
		CheckinRadius:    r.CheckinRadius,
		Total:            r.Total,
		MinParticipants:  r.MinParticipants,
		Fee:              r.Fee,
		FeeType:          r.FeeType,
		NeedReview:       r.NeedReview,
		IsPublic:         r.IsPublic,
		OpenCheckin:      r.OpenCheckin,
		Groups:           r.Groups,
	}
}

// CreateActivity 创建草稿
func CreateActivity(c *gin.Context) {
	var req ActivityCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("绑定创建活动请求失败", "error", err)
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}

	userID := jwt.UserID(c)
	a, err := svc.Create(c.Request.Context(), userID, req.input())
	if err != nil {
		response.Fail(c, err)
		return
	}
	log.Info("活动创建成功", "id", a.ID, "organizer_id", userID)
	response.Success(c, a)
}

type ListActivitiesReq struct {
	Type    string               `form:"type"`
	Keyword string               `form:"keyword"`
	Status  model.ActivityStatus `form:"status"`
	response.PageReq
}

// ListActivities 公开活动列表
func ListActivities(c *gin.Context) {
	var req ListActivitiesReq
	if err := c.ShouldBindQuery(&req); err != nil {
		log.Error("绑定查询参数失败", "error", err)
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}

	page := core.Page(req.Page, req.PageSize)
	items, total, err := svc.List(c.Request.Context(), activitycore.ListQuery{
		Type:    req.Type,
		Keyword: req.Keyword,
		Status:  req.Status,
		Page:    page,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.SuccessPage(c, items, total, page)
}

// ListMyActivities 我组织的活动，含草稿和已删除
func ListMyActivities(c *gin.Context) {
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

func GetActivity(c *gin.Context) {
	a, err := svc.Get(c.Request.Context(), c.Param("id"), jwt.UserID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, a)
}

func UpdateActivity(c *gin.Context) {
	var req ActivityUpdateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("绑定更新活动请求失败", "error", err)
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}

	a, err := svc.Update(c.Request.Context(), c.Param("id"), jwt.UserID(c), req.patch())
	if err != nil {
		response.Fail(c, err)
		return
	}
	log.Info("活动更新成功", "id", a.ID)
	response.Success(c, a)
}

func DeleteActivity(c *gin.Context) {
	id := c.Param("id")
	if err := svc.Delete(c.Request.Context(), id, jwt.UserID(c)); err != nil {
		response.Fail(c, err)
		return
	}
	log.Info("活动已删除", "id", id)
	response.Success(c)
}

func PublishActivity(c *gin.Context) {
	a, err := svc.Publish(c.Request.Context(), c.Param("id"), jwt.UserID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	log.Info("活动已发布", "id", a.ID)
	response.Success(c, a)
}

func CancelActivity(c *gin.Context) {
	a, err := svc.Cancel(c.Request.Context(), c.Param("id"), jwt.UserID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	log.Info("活动已取消", "id", a.ID)
	response.Success(c, a)
}

// ManagersReq 字段缺省表示不修改，传空数组表示清空
type ManagersReq struct {
	Administrators []string               `json:"administrators"`
	Whitelist      []string               `json:"whitelist"`
	Blacklist      []model.BlacklistEntry `json:"blacklist"`
}

func UpdateManagers(c *gin.Context) {
	var req ManagersReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}

	a, err := svc.UpdateManagers(c.Request.Context(), c.Param("id"), jwt.UserID(c), activitycore.Managers{
		Administrators: req.Administrators,
		Whitelist:      req.Whitelist,
		Blacklist:      req.Blacklist,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, a)
}

type CoverReq struct {
	ContentType string `json:"content_type" binding:"required"`
}

// PresignCover 只有组织者能为活动申请封面上传地址
func PresignCover(c *gin.Context) {
	var req CoverReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}
	if _, ok := pictureBed.CoverTypes[req.ContentType]; !ok {
		response.Fail(c, response.ErrInvalidRequest.WithTips("封面只支持 "+strings.Join(lo.Keys(pictureBed.CoverTypes), ", ")))
		return
	}
	if pictureBed.Default == nil {
		response.Fail(c, response.ErrThirdParty.WithTips("对象存储未启用"))
		return
	}

	userID := jwt.UserID(c)
	a, err := svc.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	if !policy.IsOrganizer(a, userID) {
		response.Fail(c, response.ErrForbidden)
		return
	}

	up, err := pictureBed.Default.PresignCoverUpload(c.Request.Context(), a.ID, req.ContentType)
	if err != nil {
		log.Error("生成封面上传地址失败", "error", err, "id", a.ID)
		response.Fail(c, response.ErrThirdParty.WithOrigin(err))
		return
	}
	response.Success(c, up)
}
