package policy

import (
	"activity-assistant/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func activity() *model.Activity {
	return &model.Activity{
		Model:          model.Model{ID: "A1"},
		OrganizerID:    "org",
		Status:         model.ActivityPublished,
		IsPublic:       true,
		Administrators: []string{"admin"},
	}
}

func TestCanView(t *testing.T) {
	a := activity()
	assert.True(t, CanView(a, "stranger", false))

	a.Status = model.ActivityDraft
	assert.True(t, CanView(a, "org", false))
	assert.True(t, CanView(a, "admin", false))
	assert.False(t, CanView(a, "stranger", false), "草稿不公开")

	a = activity()
	a.IsPublic = false
	a.Whitelist = []string{"friend"}
	assert.False(t, CanView(a, "stranger", false))
	assert.True(t, CanView(a, "stranger", true), "已报名用户可见")
	assert.True(t, CanView(a, "friend", false))

	a = activity()
	a.IsDeleted = true
	assert.False(t, CanView(a, "org", false), "已删除活动对所有详情读取隐藏")
}

func TestCanRegister(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	expired := now.Add(-time.Hour)
	a := activity()
	a.Blacklist = []model.BlacklistEntry{
		{UserID: "bad", Reason: "no-show"},
		{UserID: "forgiven", ExpiresAt: &expired},
	}
	assert.True(t, CanRegister(a, "someone", now))
	assert.False(t, CanRegister(a, "bad", now))
	assert.True(t, CanRegister(a, "forgiven", now), "黑名单过期后可以报名")

	a.IsPublic = false
	a.Whitelist = []string{"friend"}
	assert.False(t, CanRegister(a, "someone", now))
	assert.True(t, CanRegister(a, "friend", now))
}

func TestRoles(t *testing.T) {
	a := activity()
	r := &model.Registration{UserID: "u1"}
	c := &model.Checkin{UserID: "u1"}

	assert.True(t, IsOrganizer(a, "org"))
	assert.False(t, IsOrganizer(a, "admin"))
	assert.False(t, IsOrganizer(a, ""))
	assert.True(t, IsManager(a, "admin"))

	assert.True(t, CanReadRegistration(a, r, "u1"))
	assert.True(t, CanReadRegistration(a, r, "admin"))
	assert.False(t, CanReadRegistration(a, r, "u2"))

	assert.True(t, CanCancelRegistration(a, r, "org"))
	assert.False(t, CanCancelRegistration(a, r, "admin"), "管理员不能代为取消")

	assert.True(t, CanReadCheckin(a, c, "admin"))
	assert.False(t, CanReadCheckin(a, c, "u2"))
}

func TestAllowsOpenCheckin(t *testing.T) {
	a := activity()
	assert.False(t, AllowsOpenCheckin(a), "默认关闭")
	a.OpenCheckin = true
	assert.True(t, AllowsOpenCheckin(a))
	a.NeedReview = true
	assert.False(t, AllowsOpenCheckin(a))
	a.NeedReview = false
	a.IsPublic = false
	assert.False(t, AllowsOpenCheckin(a))
}
