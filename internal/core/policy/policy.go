// Package policy 活动相关的权限判断，只依赖活动快照，不访问存储
package policy

import (
	"activity-assistant/internal/model"
	"time"

	"github.com/samber/lo"
)

func IsOrganizer(a *model.Activity, userID string) bool {
	return userID != "" && a.OrganizerID == userID
}

// IsManager 组织者或活动管理员，可查看报名、签到和统计
func IsManager(a *model.Activity, userID string) bool {
	return IsOrganizer(a, userID) || lo.Contains(a.Administrators, userID)
}

// CanView 活动详情是否可见。registered 表示该用户在活动下有报名记录。
func CanView(a *model.Activity, userID string, registered bool) bool {
	switch {
	case a.IsDeleted:
		return false
	case IsManager(a, userID):
		return true
	case a.Status == model.ActivityDraft:
		return false
	case !a.IsPublic:
		return registered || lo.Contains(a.Whitelist, userID)
	}
	return true
}

// CanRegister 黑名单中的用户、不在白名单的私密活动都不能报名
func CanRegister(a *model.Activity, userID string, now time.Time) bool {
	if a.Blacklisted(userID, now) {
		return false
	}
	if !a.IsPublic && !IsManager(a, userID) && !lo.Contains(a.Whitelist, userID) {
		return false
	}
	return true
}

func CanReadRegistration(a *model.Activity, r *model.Registration, userID string) bool {
	return r.UserID == userID || IsManager(a, userID)
}

// CanCancelRegistration 报名者本人或组织者
func CanCancelRegistration(a *model.Activity, r *model.Registration, userID string) bool {
	return r.UserID == userID || IsOrganizer(a, userID)
}

func CanReadCheckin(a *model.Activity, c *model.Checkin, userID string) bool {
	return c.UserID == userID || IsManager(a, userID)
}

// AllowsOpenCheckin 免报名签到需要组织者显式开启，且仅限无需审核的公开活动
func AllowsOpenCheckin(a *model.Activity) bool {
	return a.OpenCheckin && !a.NeedReview && a.IsPublic
}
