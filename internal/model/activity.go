package model

import (
	"slices"
	"time"

	"gorm.io/datatypes"
)

type ActivityStatus string

const (
	ActivityDraft     ActivityStatus = "draft"
	ActivityPublished ActivityStatus = "published"
	ActivityOngoing   ActivityStatus = "ongoing"
	ActivityFinished  ActivityStatus = "finished"
	ActivityCancelled ActivityStatus = "cancelled"
)

func (s ActivityStatus) rank() int {
	switch s {
	case ActivityDraft:
		return 0
	case ActivityPublished:
		return 1
	case ActivityOngoing:
		return 2
	case ActivityFinished:
		return 3
	}
	return -1
}

func (s ActivityStatus) Valid() bool {
	return s.rank() >= 0 || s == ActivityCancelled
}

type FeeType string

const (
	FeeFree  FeeType = "free"
	FeeFixed FeeType = "fixed"
	FeeAA    FeeType = "aa"
)

func (t FeeType) Valid() bool {
	return t == FeeFree || t == FeeFixed || t == FeeAA
}

type BlacklistEntry struct {
	UserID    string     `json:"user_id"`
	Reason    string     `json:"reason"`
	AddedAt   time.Time  `json:"added_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Group 活动内的报名分组，名额独立计数，同时占用活动总名额
type Group struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Total  int    `json:"total"`
	Joined int    `json:"joined"`
}

type Activity struct {
	Model
	OrganizerID      string         `gorm:"type:varchar(64);not null;index" json:"organizer_id"`
	Title            string         `gorm:"type:varchar(100);not null" json:"title"`
	Description      string         `gorm:"type:text" json:"description"`
	Type             string         `gorm:"type:varchar(32);index" json:"type"`
	Image            string         `gorm:"type:varchar(255)" json:"image"` // 封面 URL
	Status           ActivityStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	StartTime        time.Time      `gorm:"not null" json:"start_time"`
	EndTime          time.Time      `gorm:"not null" json:"end_time"`
	RegisterDeadline time.Time      `gorm:"not null" json:"register_deadline"`

	Place         string  `gorm:"type:varchar(100)" json:"place"`
	Address       string  `gorm:"type:varchar(255)" json:"address"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	CheckinRadius float64 `json:"checkin_radius"` // 米

	Total           int `gorm:"not null" json:"total"`
	Joined          int `gorm:"not null;default:0" json:"joined"`
	MinParticipants int `gorm:"not null;default:0" json:"min_participants"`

	Fee     float64 `gorm:"type:decimal(10,2)" json:"fee"`
	FeeType FeeType `gorm:"type:varchar(8)" json:"fee_type"`

	NeedReview  bool `json:"need_review"`
	IsPublic    bool `json:"is_public"`
	OpenCheckin bool `json:"open_checkin"` // 允许未报名用户直接签到
	IsDeleted   bool `gorm:"index" json:"is_deleted"`

	// 创建时的组织者联系方式快照
	OrganizerName   string `gorm:"type:varchar(50)" json:"organizer_name"`
	OrganizerPhone  string `gorm:"type:varchar(20)" json:"organizer_phone"`
	OrganizerWechat string `gorm:"type:varchar(50)" json:"organizer_wechat"`

	Administrators datatypes.JSONSlice[string]         `json:"administrators"`
	Whitelist      datatypes.JSONSlice[string]         `json:"whitelist"`
	Blacklist      datatypes.JSONSlice[BlacklistEntry] `json:"blacklist"`

	Groups datatypes.JSONSlice[Group] `json:"groups"` // 为空表示不分组
}

// EffectiveStatus 根据当前时间推算对外可见的状态。
// draft 和 cancelled 不随时间变化；其余状态取持久化状态与时间推算状态中较后者。
func (a *Activity) EffectiveStatus(now time.Time) ActivityStatus {
	if a.Status == ActivityDraft || a.Status == ActivityCancelled {
		return a.Status
	}
	derived := ActivityPublished
	switch {
	case !now.Before(a.EndTime):
		derived = ActivityFinished
	case !now.Before(a.StartTime):
		derived = ActivityOngoing
	}
	if a.Status.rank() > derived.rank() {
		return a.Status
	}
	return derived
}

func (a *Activity) HasGroups() bool {
	return len(a.Groups) > 0
}

// Group 返回分组的指针，修改会写回活动
func (a *Activity) Group(id string) *Group {
	for i := range a.Groups {
		if a.Groups[i].ID == id {
			return &a.Groups[i]
		}
	}
	return nil
}

func (a *Activity) Remaining() int {
	return a.Total - a.Joined
}

// Blacklisted 判断用户是否在未过期的黑名单中
func (a *Activity) Blacklisted(userID string, now time.Time) bool {
	for _, e := range a.Blacklist {
		if e.UserID != userID {
			continue
		}
		if e.ExpiresAt == nil || now.Before(*e.ExpiresAt) {
			return true
		}
	}
	return false
}

// Clone 深拷贝，内存存储用它隔离调用方的修改
func (a *Activity) Clone() *Activity {
	c := *a
	c.Administrators = slices.Clone(a.Administrators)
	c.Whitelist = slices.Clone(a.Whitelist)
	c.Blacklist = slices.Clone(a.Blacklist)
	c.Groups = slices.Clone(a.Groups)
	return &c
}
