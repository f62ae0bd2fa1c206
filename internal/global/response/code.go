package response

import "net/http"

const CodeSuccess int32 = 200

// 通用错误
var (
	ErrInvalidRequest = newError(400, http.StatusBadRequest, "请求参数错误")
	ErrTokenInvalid   = newError(401, http.StatusUnauthorized, "登录状态无效")
	ErrUnauthorized   = newError(402, http.StatusUnauthorized, "未登录或权限不足")
	ErrForbidden      = newError(403, http.StatusForbidden, "无权限执行该操作")
	ErrNotFound       = newError(404, http.StatusNotFound, "资源不存在")
	ErrTooManyRequest = newError(429, http.StatusTooManyRequests, "请求过于频繁")
	ErrServerInternal = newError(500, http.StatusInternalServerError, "服务器内部错误")
	ErrDatabase       = newError(501, http.StatusInternalServerError, "数据库错误")
	ErrThirdParty     = newError(502, http.StatusBadGateway, "第三方服务错误")
)

// 活动
var (
	ErrInvalidTransition = newError(2010, http.StatusConflict, "活动状态不允许该操作")
	ErrInvalidState      = newError(2011, http.StatusConflict, "当前状态不允许该操作")
	ErrCapacityConflict  = newError(2012, http.StatusConflict, "人数上限不能小于已报名人数")
	ErrConflict          = newError(2013, http.StatusConflict, "活动已有报名，无法删除")
)

// 报名
var (
	ErrFull      = newError(3001, http.StatusConflict, "活动名额已满")
	ErrNotOpen   = newError(3002, http.StatusConflict, "活动未开放报名")
	ErrDuplicate = newError(3003, http.StatusConflict, "请勿重复操作")
)

// 签到
var (
	ErrOutOfWindow = newError(4001, http.StatusConflict, "不在签到时间范围内")
	ErrNotEligible = newError(4002, http.StatusForbidden, "没有签到资格")
)
