// Package registration 报名与审核。
// 占用名额的操作（免审核报名、审核通过、取消已通过的报名）都在锁住活动行的事务内完成，
// joined 及所属分组 joined 的变化与报名记录的写入要么同时生效，要么都不生效。
package registration

import (
	"activity-assistant/internal/core"
	"activity-assistant/internal/core/policy"
	"activity-assistant/internal/global/idgen"
	"activity-assistant/internal/global/logger"
	"activity-assistant/internal/global/mq"
	"activity-assistant/internal/global/response"
	"activity-assistant/internal/model"
	"activity-assistant/internal/store"
	"context"
	"encoding/json"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/samber/lo"
)

// MaxCustomDataBytes 自定义报名信息序列化后的大小上限
const MaxCustomDataBytes = 8 << 10

type Service struct {
	core.Deps
	log *slog.Logger
}

func NewService(deps core.Deps) *Service {
	return &Service{Deps: deps.WithDefaults(), log: logger.New("Core.Registration")}
}

type Input struct {
	Name       string
	Mobile     string
	GroupID    string // 分组活动必填
	CustomData []model.Field
}

func validateInput(in Input) error {
	invalid := response.ErrInvalidRequest.WithTips
	if in.Name == "" || utf8.RuneCountInString(in.Name) > 50 {
		return invalid("姓名不能为空且不超过50字")
	}
	if len(in.Mobile) > 20 {
		return invalid("手机号格式错误")
	}
	return ValidateCustomData(in.CustomData)
}

// ValidateCustomData 只校验编码和大小，不解释内容
func ValidateCustomData(fields []model.Field) error {
	invalid := response.ErrInvalidRequest.WithTips
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.Key == "" {
			return invalid("自定义字段名不能为空")
		}
		if !utf8.ValidString(f.Key) || !utf8.ValidString(f.Value) {
			return invalid("自定义字段必须是 UTF-8 文本")
		}
		if _, dup := seen[f.Key]; dup {
			return invalid("自定义字段重复", f.Key)
		}
		seen[f.Key] = struct{}{}
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return response.ErrInvalidRequest.WithOrigin(err)
	}
	if len(b) > MaxCustomDataBytes {
		return invalid("自定义字段过大")
	}
	return nil
}

// lockActivity 锁住活动行；已删除的活动视为不存在
func lockActivity(tx store.Tx, id string) (*model.Activity, error) {
	a, err := tx.LockActivity(id)
	if err != nil {
		return nil, err
	}
	if a.IsDeleted {
		return nil, store.ErrNotFound
	}
	return a, nil
}

// checkGroup 分组活动必须选择存在的分组，不分组的活动不能带分组
func checkGroup(a *model.Activity, groupID string) error {
	switch {
	case !a.HasGroups() && groupID != "":
		return response.ErrInvalidRequest.WithTips("该活动不分组")
	case a.HasGroups() && groupID == "":
		return response.ErrInvalidRequest.WithTips("请选择分组")
	case a.HasGroups() && a.Group(groupID) == nil:
		return response.ErrInvalidRequest.WithTips("分组不存在", groupID)
	}
	return nil
}

// admit 占用活动名额和分组名额，调用方必须已持有活动行锁
func admit(tx store.Tx, a *model.Activity, groupID string, now time.Time) error {
	if a.Joined >= a.Total {
		return response.ErrFull
	}
	var g *model.Group
	if groupID != "" {
		if g = a.Group(groupID); g == nil {
			return response.ErrInvalidState.WithTips("分组已被移除", groupID)
		}
		if g.Joined >= g.Total {
			return response.ErrFull.WithTips("分组" + g.Name + "名额已满")
		}
		g.Joined++
	}
	a.Joined++
	a.UpdatedAt = now
	return tx.SaveActivity(a)
}

// release 归还 admit 占用的名额
func release(tx store.Tx, a *model.Activity, groupID string, now time.Time) error {
	if a.Joined > 0 {
		a.Joined--
	}
	if g := a.Group(groupID); g != nil && g.Joined > 0 {
		g.Joined--
	}
	a.UpdatedAt = now
	return tx.SaveActivity(a)
}

func (s *Service) Create(ctx context.Context, activityID, userID string, in Input) (*model.Registration, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	id, err := s.IDs.Next(ctx, idgen.Registration)
	if err != nil {
		return nil, response.ErrServerInternal.WithOrigin(err)
	}

	var r *model.Registration
	err = s.Store.Transaction(ctx, func(tx store.Tx) error {
		a, err := lockActivity(tx, activityID)
		if err != nil {
			return err
		}
		now := s.Now()
		switch a.EffectiveStatus(now) {
		case model.ActivityPublished, model.ActivityOngoing:
		default:
			return response.ErrNotOpen
		}
		if now.After(a.RegisterDeadline) {
			return response.ErrNotOpen.WithTips("报名已截止")
		}
		if !policy.CanRegister(a, userID, now) {
			return response.ErrForbidden.WithTips("无法报名该活动")
		}
		if err := checkGroup(a, in.GroupID); err != nil {
			return err
		}

		existing, err := tx.FindRegistrations(a.ID, userID)
		if err != nil {
			return err
		}
		if lo.ContainsBy(existing, func(r *model.Registration) bool { return r.Active() }) {
			return response.ErrDuplicate.WithTips("已报名该活动")
		}

		r = &model.Registration{
			Model:         model.Model{ID: id, CreatedAt: now, UpdatedAt: now},
			ActivityID:    a.ID,
			UserID:        userID,
			GroupID:       in.GroupID,
			Name:          in.Name,
			Mobile:        in.Mobile,
			CustomData:    in.CustomData,
			Status:        model.RegistrationPending,
			CheckinStatus: model.CheckinNone,
		}
		if !a.NeedReview {
			if err := admit(tx, a, in.GroupID, now); err != nil {
				return err
			}
			r.Status = model.RegistrationApproved
			r.DecidedAt = &now
		}
		return tx.CreateRegistration(r)
	})
	if err != nil {
		return nil, core.Err(err, "活动不存在")
	}

	s.log.Info("报名成功", "registration_id", r.ID, "activity_id", activityID, "user_id", userID, "status", r.Status)
	s.Emit(ctx, s.log, mq.TopicRegistrationCreated, activityID, event(r))
	if r.Status == model.RegistrationApproved {
		s.Emit(ctx, s.log, mq.TopicRegistrationApproved, activityID, event(r))
	}
	return r, nil
}

// Approve 审核报名。名额不足时返回 ErrFull，报名保持待审核。
func (s *Service) Approve(ctx context.Context, registrationID, approverID string, approved bool, note string) (*model.Registration, error) {
	current, err := s.Store.GetRegistration(ctx, registrationID)
	if err != nil {
		return nil, core.Err(err, "报名不存在")
	}

	var r *model.Registration
	err = s.Store.Transaction(ctx, func(tx store.Tx) error {
		a, err := lockActivity(tx, current.ActivityID)
		if err != nil {
			return err
		}
		if !policy.IsOrganizer(a, approverID) {
			return response.ErrForbidden.WithTips("只有组织者可以审核")
		}
		// 锁住活动后重新读取，拿到最新状态
		r, err = tx.GetRegistration(registrationID)
		if err != nil {
			return err
		}
		if r.Status != model.RegistrationPending {
			return response.ErrInvalidState.WithTips("报名不是待审核状态")
		}

		now := s.Now()
		if approved {
			switch a.EffectiveStatus(now) {
			case model.ActivityCancelled, model.ActivityFinished:
				return response.ErrNotOpen.WithTips("活动已取消或结束")
			}
			if err := admit(tx, a, r.GroupID, now); err != nil {
				return err
			}
			r.Status = model.RegistrationApproved
		} else {
			r.Status = model.RegistrationRejected
		}
		r.DecidedAt = &now
		r.DecidedBy = approverID
		r.Note = note
		r.UpdatedAt = now
		return tx.SaveRegistration(r)
	})
	if err != nil {
		return nil, core.Err(err, "报名不存在")
	}

	topic := mq.TopicRegistrationRejected
	if approved {
		topic = mq.TopicRegistrationApproved
	}
	s.log.Info("报名审核完成", "registration_id", registrationID, "approver_id", approverID, "status", r.Status)
	s.Emit(ctx, s.log, topic, r.ActivityID, event(r))
	return r, nil
}

// Cancel 报名者本人或组织者取消报名，已通过的报名会释放名额
func (s *Service) Cancel(ctx context.Context, registrationID, callerID string) (*model.Registration, error) {
	current, err := s.Store.GetRegistration(ctx, registrationID)
	if err != nil {
		return nil, core.Err(err, "报名不存在")
	}

	var r *model.Registration
	err = s.Store.Transaction(ctx, func(tx store.Tx) error {
		a, err := lockActivity(tx, current.ActivityID)
		if err != nil {
			return err
		}
		r, err = tx.GetRegistration(registrationID)
		if err != nil {
			return err
		}
		if !policy.CanCancelRegistration(a, r, callerID) {
			return response.ErrForbidden.WithTips("无权取消该报名")
		}
		switch r.Status {
		case model.RegistrationCancelled, model.RegistrationRejected:
			return response.ErrInvalidState.WithTips("报名已取消或被拒绝")
		}
		now := s.Now()
		if a.EffectiveStatus(now) == model.ActivityFinished {
			return response.ErrNotOpen.WithTips("活动已结束")
		}

		if r.Status == model.RegistrationApproved {
			if err := release(tx, a, r.GroupID, now); err != nil {
				return err
			}
		}
		r.Status = model.RegistrationCancelled
		r.DecidedAt = &now
		r.DecidedBy = callerID
		r.UpdatedAt = now
		return tx.SaveRegistration(r)
	})
	if err != nil {
		return nil, core.Err(err, "报名不存在")
	}

	s.log.Info("报名已取消", "registration_id", registrationID, "caller_id", callerID)
	s.Emit(ctx, s.log, mq.TopicRegistrationCancelled, r.ActivityID, event(r))
	return r, nil
}

func (s *Service) Get(ctx context.Context, registrationID, callerID string) (*model.Registration, error) {
	r, err := s.Store.GetRegistration(ctx, registrationID)
	if err != nil {
		return nil, core.Err(err, "报名不存在")
	}
	a, err := s.Store.GetActivity(ctx, r.ActivityID)
	if err != nil {
		return nil, core.Err(err, "活动不存在")
	}
	if !policy.CanReadRegistration(a, r, callerID) {
		return nil, response.ErrForbidden
	}
	return r, nil
}

// ListMine 当前用户的所有报名，不区分状态
func (s *Service) ListMine(ctx context.Context, userID string, statuses []model.RegistrationStatus, page store.Page) ([]*model.Registration, int64, error) {
	items, total, err := s.Store.ListRegistrations(ctx, store.RegistrationFilter{
		UserID:   userID,
		Statuses: statuses,
		Page:     page,
	})
	return items, total, core.Err(err)
}

// ListByActivity 活动下的报名，仅组织者和管理员可见
func (s *Service) ListByActivity(ctx context.Context, activityID, callerID string, statuses []model.RegistrationStatus, page store.Page) ([]*model.Registration, int64, error) {
	a, err := s.Store.GetActivity(ctx, activityID)
	if err != nil {
		return nil, 0, core.Err(err, "活动不存在")
	}
	if a.IsDeleted && !policy.IsOrganizer(a, callerID) {
		return nil, 0, response.ErrNotFound.WithTips("活动不存在")
	}
	if !policy.IsManager(a, callerID) {
		return nil, 0, response.ErrForbidden.WithTips("只有组织者和管理员可以查看报名列表")
	}
	items, total, err := s.Store.ListRegistrations(ctx, store.RegistrationFilter{
		ActivityID: activityID,
		Statuses:   statuses,
		Page:       page,
	})
	return items, total, core.Err(err)
}

type registrationEvent struct {
	RegistrationID string                   `json:"registration_id"`
	ActivityID     string                   `json:"activity_id"`
	UserID         string                   `json:"user_id"`
	GroupID        string                   `json:"group_id,omitempty"`
	Status         model.RegistrationStatus `json:"status"`
	DecidedAt      *time.Time               `json:"decided_at,omitempty"`
}

func event(r *model.Registration) registrationEvent {
	return registrationEvent{
		RegistrationID: r.ID,
		ActivityID:     r.ActivityID,
		UserID:         r.UserID,
		GroupID:        r.GroupID,
		Status:         r.Status,
		DecidedAt:      r.DecidedAt,
	}
}
