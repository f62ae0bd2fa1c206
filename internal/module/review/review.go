package review

import (
	"activity-assistant/internal/core"
	reviewcore "activity-assistant/internal/core/review"
	"activity-assistant/internal/global/jwt"
	"activity-assistant/internal/global/logger"
	"activity-assistant/internal/global/response"
	"activity-assistant/internal/model"
	"activity-assistant/internal/store"

	"github.com/gin-gonic/gin"
)

type ReviewReq struct {
	Rating  int    `json:"rating" binding:"required"`
	Content string `json:"content"`
}

type SubmitReviewReq struct {
	ActivityID string `json:"activity_id" binding:"required"`
	ReviewReq
}

// SubmitReview 已评价过的活动再次提交会覆盖原评价
func SubmitReview(c *gin.Context) {
	var req SubmitReviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("绑定评价请求失败", "error", err)
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}

	userID := jwt.UserID(c)
	r, err := svc.Submit(c.Request.Context(), req.ActivityID, userID, reviewcore.Input{Rating: req.Rating, Content: req.Content})
	if err != nil {
		logger.WithContext(log, c).Warn("评价失败", "error", err, "activity_id", req.ActivityID, "user_id", userID)
		response.Fail(c, err)
		return
	}
	response.Success(c, r)
}

func UpdateReview(c *gin.Context) {
	var req ReviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}

	r, err := svc.Update(c.Request.Context(), c.Param("id"), jwt.UserID(c), reviewcore.Input{Rating: req.Rating, Content: req.Content})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, r)
}

func DeleteReview(c *gin.Context) {
	if err := svc.Delete(c.Request.Context(), c.Param("id"), jwt.UserID(c)); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, nil)
}

type ModerateReq struct {
	Reason string `json:"reason" binding:"required"`
}

// ModerateReview 组织者和管理员删除评价
func ModerateReview(c *gin.Context) {
	var req ModerateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}

	if err := svc.Moderate(c.Request.Context(), c.Param("id"), jwt.UserID(c), req.Reason); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, nil)
}

type MyReviewReq struct {
	ActivityID string `form:"activity_id" binding:"required"`
}

type MyReviewResp struct {
	Reviewed bool          `json:"reviewed"`
	Review   *model.Review `json:"review"`
}

func MyReview(c *gin.Context) {
	var req MyReviewReq
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}

	r, err := svc.Mine(c.Request.Context(), req.ActivityID, jwt.UserID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, MyReviewResp{Reviewed: r != nil, Review: r})
}

type ListReviewsReq struct {
	Rating int              `form:"rating"` // 0 表示全部
	Sort   store.ReviewSort `form:"sort"`   // latest 或 rating
	response.PageReq
}

func ListActivityReviews(c *gin.Context) {
	var req ListReviewsReq
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Fail(c, response.ErrInvalidRequest.WithOrigin(err))
		return
	}

	page := core.Page(req.Page, req.PageSize)
	items, total, err := svc.ListByActivity(c.Request.Context(), c.Param("id"), jwt.UserID(c), reviewcore.ListQuery{
		Rating: req.Rating,
		Sort:   req.Sort,
		Page:   page,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.SuccessPage(c, items, total, page)
}

func ReviewStatistics(c *gin.Context) {
	st, err := svc.Statistics(c.Request.Context(), c.Param("id"), jwt.UserID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, st)
}
