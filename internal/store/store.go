// Package store 持久化活动、报名、签到和评价。
// 所有改变报名名额的操作都必须在 Transaction 中先 LockActivity，再读写报名记录。
package store

import (
	"activity-assistant/internal/model"
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("record not found")

// Page Limit 为 0 表示不分页
type Page struct {
	Offset int
	Limit  int
}

type ActivityFilter struct {
	OrganizerID    string
	Type           string
	Keyword        string // 标题或描述模糊匹配
	Statuses       []model.ActivityStatus
	PublicOnly     bool
	IncludeDeleted bool

	// 以下时间条件用于按有效状态筛选
	StartedBy    *time.Time // start_time <= t
	NotStartedBy *time.Time // start_time > t
	EndedBy      *time.Time // end_time <= t
	NotEndedBy   *time.Time // end_time > t

	Page
}

type RegistrationFilter struct {
	ActivityID string
	UserID     string
	Statuses   []model.RegistrationStatus
	Page
}

type CheckinFilter struct {
	ActivityID string
	UserID     string
	Page
}

// ReviewSort 缺省按创建时间倒序
type ReviewSort string

const (
	ReviewLatest ReviewSort = "latest"
	ReviewRating ReviewSort = "rating" // 评分高的在前，同分按时间倒序
)

// ReviewFilter 只返回未删除的评价
type ReviewFilter struct {
	ActivityID string
	UserID     string
	Rating     int // 0 表示全部
	Sort       ReviewSort
	Page
}

// CheckinCounts Late 只统计有效且迟到的签到
type CheckinCounts struct {
	Total   int64
	Valid   int64
	Late    int64
	Invalid int64
}

type Reader interface {
	GetActivity(ctx context.Context, id string) (*model.Activity, error)
	ListActivities(ctx context.Context, f ActivityFilter) ([]*model.Activity, int64, error)
	CountActivities(ctx context.Context, f ActivityFilter) (int64, error)

	GetRegistration(ctx context.Context, id string) (*model.Registration, error)
	ListRegistrations(ctx context.Context, f RegistrationFilter) ([]*model.Registration, int64, error)
	CountRegistrations(ctx context.Context, f RegistrationFilter) (map[model.RegistrationStatus]int64, error)
	// CountDistinctActivities 统计满足条件的报名涉及多少个不同的活动
	CountDistinctActivities(ctx context.Context, f RegistrationFilter) (int64, error)

	GetCheckin(ctx context.Context, id string) (*model.Checkin, error)
	ListCheckins(ctx context.Context, f CheckinFilter) ([]*model.Checkin, int64, error)
	CountCheckins(ctx context.Context, f CheckinFilter) (CheckinCounts, error)

	GetReview(ctx context.Context, id string) (*model.Review, error)
	ListReviews(ctx context.Context, f ReviewFilter) ([]*model.Review, int64, error)
	// CountRatings 活动下未删除评价按星级计数
	CountRatings(ctx context.Context, activityID string) (map[int]int64, error)
}

// Tx 事务内的读写。Find* 不加锁，依赖事务开头对活动行的锁保证一致性。
type Tx interface {
	CreateActivity(a *model.Activity) error
	LockActivity(id string) (*model.Activity, error)
	SaveActivity(a *model.Activity) error

	GetRegistration(id string) (*model.Registration, error)
	// FindRegistrations userID 为空时返回活动下所有报名
	FindRegistrations(activityID, userID string) ([]*model.Registration, error)
	CreateRegistration(r *model.Registration) error
	SaveRegistration(r *model.Registration) error

	FindCheckins(activityID, userID string) ([]*model.Checkin, error)
	CreateCheckin(c *model.Checkin) error

	GetReview(id string) (*model.Review, error)
	// FindReview 用户在活动下未删除的评价，没有时返回 ErrNotFound
	FindReview(activityID, userID string) (*model.Review, error)
	CreateReview(r *model.Review) error
	SaveReview(r *model.Review) error
}

type Store interface {
	Reader
	// Transaction fn 返回错误时所有写入都不生效
	Transaction(ctx context.Context, fn func(tx Tx) error) error
}
