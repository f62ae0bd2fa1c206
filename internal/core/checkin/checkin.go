// Package checkin 活动现场签到：时间窗口、地理围栏与迟到判定
package checkin

import (
	"activity-assistant/internal/core"
	"activity-assistant/internal/core/geo"
	"activity-assistant/internal/core/policy"
	"activity-assistant/internal/global/idgen"
	"activity-assistant/internal/global/logger"
	"activity-assistant/internal/global/mq"
	"activity-assistant/internal/global/response"
	"activity-assistant/internal/model"
	"activity-assistant/internal/store"
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/samber/lo"
)

type Config struct {
	GracePeriod   time.Duration // 开始前多久可以签到
	LateThreshold time.Duration // 开始后多久算迟到
	MaxAttempts   int           // 每人每活动最多签到次数，0 表示直到有效签到前不限
}

func DefaultConfig() Config {
	return Config{GracePeriod: 30 * time.Minute, LateThreshold: 15 * time.Minute}
}

type Service struct {
	core.Deps
	cfg Config
	log *slog.Logger
}

func NewService(deps core.Deps, cfg Config) *Service {
	return &Service{Deps: deps.WithDefaults(), cfg: cfg, log: logger.New("Core.Checkin")}
}

type Input struct {
	Latitude  float64
	Longitude float64
	Address   string
}

// Create 记录一次签到。超出范围的签到同样落库，但标记为无效；
// 有效签到之后再签到返回 ErrDuplicate。
func (s *Service) Create(ctx context.Context, activityID, userID string, in Input) (*model.Checkin, error) {
	if math.Abs(in.Latitude) > 90 || math.Abs(in.Longitude) > 180 {
		return nil, response.ErrInvalidRequest.WithTips("经纬度超出范围")
	}
	id, err := s.IDs.Next(ctx, idgen.Checkin)
	if err != nil {
		return nil, response.ErrServerInternal.WithOrigin(err)
	}

	var c *model.Checkin
	err = s.Store.Transaction(ctx, func(tx store.Tx) error {
		a, err := tx.LockActivity(activityID)
		if err != nil {
			return err
		}
		if a.IsDeleted {
			return store.ErrNotFound
		}
		now := s.Now()
		switch a.EffectiveStatus(now) {
		case model.ActivityDraft, model.ActivityCancelled:
			return response.ErrNotOpen.WithTips("活动未发布或已取消")
		}

		regs, err := tx.FindRegistrations(a.ID, userID)
		if err != nil {
			return err
		}
		reg, hasReg := lo.Find(regs, func(r *model.Registration) bool {
			return r.Status == model.RegistrationApproved
		})
		if !hasReg && !(policy.AllowsOpenCheckin(a) && policy.CanRegister(a, userID, now)) {
			return response.ErrNotEligible.WithTips("没有已通过的报名")
		}

		if now.Before(a.StartTime.Add(-s.cfg.GracePeriod)) || now.After(a.EndTime) {
			return response.ErrOutOfWindow
		}

		prior, err := tx.FindCheckins(a.ID, userID)
		if err != nil {
			return err
		}
		if lo.ContainsBy(prior, func(p *model.Checkin) bool { return p.IsValid }) {
			return response.ErrDuplicate.WithTips("已签到")
		}
		if s.cfg.MaxAttempts > 0 && len(prior) >= s.cfg.MaxAttempts {
			return response.ErrDuplicate.WithTips("签到次数已用完")
		}

		res := geo.Check(
			geo.Point{Latitude: a.Latitude, Longitude: a.Longitude},
			geo.Point{Latitude: in.Latitude, Longitude: in.Longitude},
			a.CheckinRadius, now, a.StartTime, s.cfg.LateThreshold,
		)
		c = &model.Checkin{
			Model:       model.Model{ID: id, CreatedAt: now, UpdatedAt: now},
			ActivityID:  a.ID,
			UserID:      userID,
			Latitude:    in.Latitude,
			Longitude:   in.Longitude,
			Address:     in.Address,
			Distance:    math.Round(res.Distance*100) / 100,
			CheckinTime: now,
			IsLate:      res.Late,
			IsValid:     res.Valid,
			Note:        note(res, a, now),
		}
		if hasReg {
			c.RegistrationID = reg.ID
		}
		if err := tx.CreateCheckin(c); err != nil {
			return err
		}

		if hasReg && res.Valid {
			reg.CheckinStatus = model.CheckinChecked
			if res.Late {
				reg.CheckinStatus = model.CheckinLate
			}
			reg.CheckinTime = &now
			reg.UpdatedAt = now
			return tx.SaveRegistration(reg)
		}
		return nil
	})
	if err != nil {
		return nil, core.Err(err, "活动不存在")
	}

	s.log.Info("签到完成", "checkin_id", c.ID, "activity_id", activityID, "user_id", userID,
		"valid", c.IsValid, "late", c.IsLate, "distance", c.Distance)
	s.Emit(ctx, s.log, mq.TopicCheckinCreated, activityID, c)
	return c, nil
}

func note(res geo.Result, a *model.Activity, now time.Time) string {
	switch {
	case !res.Valid:
		return fmt.Sprintf("距离活动地点%.0f米，超出签到范围%.0f米", res.Distance, a.CheckinRadius)
	case res.Late:
		return fmt.Sprintf("迟到%d分钟", int(now.Sub(a.StartTime).Minutes()))
	}
	return ""
}

func (s *Service) Get(ctx context.Context, id, callerID string) (*model.Checkin, error) {
	c, err := s.Store.GetCheckin(ctx, id)
	if err != nil {
		return nil, core.Err(err, "签到记录不存在")
	}
	a, err := s.Store.GetActivity(ctx, c.ActivityID)
	if err != nil {
		return nil, core.Err(err, "活动不存在")
	}
	if !policy.CanReadCheckin(a, c, callerID) {
		return nil, response.ErrForbidden
	}
	return c, nil
}

func (s *Service) ListMine(ctx context.Context, userID string, page store.Page) ([]*model.Checkin, int64, error) {
	items, total, err := s.Store.ListCheckins(ctx, store.CheckinFilter{UserID: userID, Page: page})
	return items, total, core.Err(err)
}

// ListByActivity 活动下的全部签到（含无效签到），仅组织者和管理员可见
func (s *Service) ListByActivity(ctx context.Context, activityID, callerID string, page store.Page) ([]*model.Checkin, int64, error) {
	a, err := s.Store.GetActivity(ctx, activityID)
	if err != nil {
		return nil, 0, core.Err(err, "活动不存在")
	}
	if !policy.IsManager(a, callerID) {
		return nil, 0, response.ErrForbidden.WithTips("只有组织者和管理员可以查看签到列表")
	}
	items, total, err := s.Store.ListCheckins(ctx, store.CheckinFilter{ActivityID: activityID, Page: page})
	return items, total, core.Err(err)
}
