// Package stats 活动与用户的统计，每次请求现算，不维护增量计数
package stats

import (
	"activity-assistant/internal/core"
	"activity-assistant/internal/core/policy"
	"activity-assistant/internal/core/review"
	"activity-assistant/internal/global/logger"
	"activity-assistant/internal/global/response"
	"activity-assistant/internal/model"
	"activity-assistant/internal/store"
	"activity-assistant/tools"
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/xuri/excelize/v2"
)

type Service struct {
	core.Deps
	log *slog.Logger
}

func NewService(deps core.Deps) *Service {
	return &Service{Deps: deps.WithDefaults(), log: logger.New("Core.Stats")}
}

type RegistrationCounts struct {
	Pending   int64 `json:"pending"`
	Approved  int64 `json:"approved"`
	Rejected  int64 `json:"rejected"`
	Cancelled int64 `json:"cancelled"`
}

type ActivityStats struct {
	ActivityID    string               `json:"activity_id"`
	Status        model.ActivityStatus `json:"status"`
	Total         int                  `json:"total"`
	Joined        int                  `json:"joined"`
	Registrations RegistrationCounts   `json:"registrations"`
	Checkins      int64                `json:"checkins"` // 含无效签到
	ValidCheckins int64                `json:"valid_checkins"`
	LateCheckins  int64                `json:"late_checkins"`
	CheckinRate   float64              `json:"checkin_rate"` // 百分比，保留一位小数
	Groups        []model.Group        `json:"groups,omitempty"`
	Reviews       review.Statistics    `json:"reviews"`
}

type UserStats struct {
	UserID          string  `json:"user_id"`
	Organized       int64   `json:"organized"`
	Participated    int64   `json:"participated"`
	Registrations   int64   `json:"registrations"`
	Approved        int64   `json:"approved"`
	ValidCheckins   int64   `json:"valid_checkins"`
	LateCheckins    int64   `json:"late_checkins"`
	InvalidCheckins int64   `json:"invalid_checkins"`
	CheckinRate     float64 `json:"checkin_rate"`
}

// Rate 有效签到数 / 已通过报名数，返回保留一位小数的百分比。
// 分母为 0 时返回 0；免报名签到可能让分子更大，结果不超过 100。
func Rate(valid, approved int64) float64 {
	if approved <= 0 {
		return 0
	}
	r := math.Round(float64(valid)*1000/float64(approved)) / 10
	return math.Min(r, 100)
}

func (s *Service) activity(ctx context.Context, activityID, callerID string) (*model.Activity, error) {
	a, err := s.Store.GetActivity(ctx, activityID)
	if err != nil {
		return nil, core.Err(err, "活动不存在")
	}
	if a.IsDeleted {
		return nil, response.ErrNotFound.WithTips("活动不存在")
	}
	if !policy.IsManager(a, callerID) {
		return nil, response.ErrForbidden.WithTips("只有组织者和管理员可以查看统计")
	}
	return a, nil
}

func (s *Service) Activity(ctx context.Context, activityID, callerID string) (*ActivityStats, error) {
	a, err := s.activity(ctx, activityID, callerID)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.Store.CountRegistrations(ctx, store.RegistrationFilter{ActivityID: a.ID})
	if err != nil {
		return nil, core.Err(err)
	}
	checkins, err := s.Store.CountCheckins(ctx, store.CheckinFilter{ActivityID: a.ID})
	if err != nil {
		return nil, core.Err(err)
	}
	ratings, err := s.Store.CountRatings(ctx, a.ID)
	if err != nil {
		return nil, core.Err(err)
	}

	st := &ActivityStats{
		ActivityID: a.ID,
		Status:     a.EffectiveStatus(s.Now()),
		Total:      a.Total,
		Joined:     a.Joined,
		Registrations: RegistrationCounts{
			Pending:   byStatus[model.RegistrationPending],
			Approved:  byStatus[model.RegistrationApproved],
			Rejected:  byStatus[model.RegistrationRejected],
			Cancelled: byStatus[model.RegistrationCancelled],
		},
		Checkins:      checkins.Total,
		ValidCheckins: checkins.Valid,
		LateCheckins:  checkins.Late,
		Groups:        a.Groups,
		Reviews:       review.Summarize(ratings),
	}
	st.CheckinRate = Rate(st.ValidCheckins, st.Registrations.Approved)
	return st, nil
}

// User 用户统计，只能查看自己的
func (s *Service) User(ctx context.Context, userID, callerID string) (*UserStats, error) {
	if userID != callerID {
		return nil, response.ErrForbidden.WithTips("只能查看自己的统计")
	}

	organized, err := s.Store.CountActivities(ctx, store.ActivityFilter{OrganizerID: userID})
	if err != nil {
		return nil, core.Err(err)
	}
	byStatus, err := s.Store.CountRegistrations(ctx, store.RegistrationFilter{UserID: userID})
	if err != nil {
		return nil, core.Err(err)
	}
	participated, err := s.Store.CountDistinctActivities(ctx, store.RegistrationFilter{
		UserID:   userID,
		Statuses: []model.RegistrationStatus{model.RegistrationApproved},
	})
	if err != nil {
		return nil, core.Err(err)
	}
	checkins, err := s.Store.CountCheckins(ctx, store.CheckinFilter{UserID: userID})
	if err != nil {
		return nil, core.Err(err)
	}

	var registrations int64
	for _, n := range byStatus {
		registrations += n
	}
	st := &UserStats{
		UserID:          userID,
		Organized:       organized,
		Participated:    participated,
		Registrations:   registrations,
		Approved:        byStatus[model.RegistrationApproved],
		ValidCheckins:   checkins.Valid,
		LateCheckins:    checkins.Late,
		InvalidCheckins: checkins.Invalid,
	}
	st.CheckinRate = Rate(st.ValidCheckins, st.Approved)
	return st, nil
}

// RegistrationRow 导出表中的一行报名
type RegistrationRow struct {
	ID            string `excel:"报名ID"`
	UserID        string `excel:"用户ID"`
	Name          string `excel:"姓名"`
	Mobile        string `excel:"手机号"`
	Group         string `excel:"分组"`
	Status        string `excel:"状态"`
	CheckinStatus string `excel:"签到状态"`
	CreatedAt     string `excel:"报名时间"`
	CheckinTime   string `excel:"签到时间"`
	Note          string `excel:"备注"`
}

type CheckinRow struct {
	ID          string  `excel:"签到ID"`
	UserID      string  `excel:"用户ID"`
	Address     string  `excel:"地址"`
	Distance    float64 `excel:"距离(米)"`
	CheckinTime string  `excel:"签到时间"`
	IsValid     bool    `excel:"有效"`
	IsLate      bool    `excel:"迟到"`
	Note        string  `excel:"备注"`
}

type Export struct {
	Activity      *model.Activity
	Summary       *ActivityStats
	Registrations []RegistrationRow
	Checkins      []CheckinRow
}

func groupName(a *model.Activity, id string) string {
	if g := a.Group(id); g != nil {
		return g.Name
	}
	return id
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// Export 导出活动下的全部报名和签到
func (s *Service) Export(ctx context.Context, activityID, callerID string) (*Export, error) {
	summary, err := s.Activity(ctx, activityID, callerID)
	if err != nil {
		return nil, err
	}
	a, err := s.Store.GetActivity(ctx, activityID)
	if err != nil {
		return nil, core.Err(err, "活动不存在")
	}
	regs, _, err := s.Store.ListRegistrations(ctx, store.RegistrationFilter{ActivityID: activityID})
	if err != nil {
		return nil, core.Err(err)
	}
	checkins, _, err := s.Store.ListCheckins(ctx, store.CheckinFilter{ActivityID: activityID})
	if err != nil {
		return nil, core.Err(err)
	}

	out := &Export{
		Activity:      a,
		Summary:       summary,
		Registrations: make([]RegistrationRow, 0, len(regs)),
		Checkins:      make([]CheckinRow, 0, len(checkins)),
	}
	for _, r := range regs {
		created := r.CreatedAt
		out.Registrations = append(out.Registrations, RegistrationRow{
			ID:            r.ID,
			UserID:        r.UserID,
			Name:          r.Name,
			Mobile:        r.Mobile,
			Group:         groupName(a, r.GroupID),
			Status:        string(r.Status),
			CheckinStatus: string(r.CheckinStatus),
			CreatedAt:     formatTime(&created),
			CheckinTime:   formatTime(r.CheckinTime),
			Note:          r.Note,
		})
	}
	for _, c := range checkins {
		t := c.CheckinTime
		out.Checkins = append(out.Checkins, CheckinRow{
			ID:          c.ID,
			UserID:      c.UserID,
			Address:     c.Address,
			Distance:    c.Distance,
			CheckinTime: formatTime(&t),
			IsValid:     c.IsValid,
			IsLate:      c.IsLate,
			Note:        c.Note,
		})
	}
	s.log.Info("导出活动数据", "activity_id", activityID, "registrations", len(regs), "checkins", len(checkins))
	return out, nil
}

type summaryRow struct {
	ActivityID    string               `excel:"活动ID"`
	Title         string               `excel:"标题"`
	Status        model.ActivityStatus `excel:"状态"`
	Total         int                  `excel:"人数上限"`
	Joined        int                  `excel:"已报名"`
	Pending       int64                `excel:"待审核"`
	Approved      int64                `excel:"已通过"`
	ValidCheckins int64                `excel:"有效签到"`
	LateCheckins  int64                `excel:"迟到"`
	CheckinRate   float64              `excel:"签到率(%)"`
	Reviews       int64                `excel:"评价数"`
	AverageRating float64              `excel:"平均评分"`
}

// Workbook 生成 xlsx：概览、报名、签到三个工作表
func (e *Export) Workbook() ([]byte, error) {
	summary := []summaryRow{{
		ActivityID:    e.Activity.ID,
		Title:         e.Activity.Title,
		Status:        e.Summary.Status,
		Total:         e.Summary.Total,
		Joined:        e.Summary.Joined,
		Pending:       e.Summary.Registrations.Pending,
		Approved:      e.Summary.Registrations.Approved,
		ValidCheckins: e.Summary.ValidCheckins,
		LateCheckins:  e.Summary.LateCheckins,
		CheckinRate:   e.Summary.CheckinRate,
		Reviews:       e.Summary.Reviews.Total,
		AverageRating: e.Summary.Reviews.Average,
	}}
	return tools.Workbook(func(f *excelize.File) error {
		if err := tools.WriteSheet(f, "概览", summary); err != nil {
			return err
		}
		if err := tools.WriteSheet(f, "报名", e.Registrations); err != nil {
			return err
		}
		return tools.WriteSheet(f, "签到", e.Checkins)
	})
}

// FileName 导出文件名
func (e *Export) FileName() string {
	return e.Activity.ID + "-" + time.Now().UTC().Format("20060102150405") + ".xlsx"
}
