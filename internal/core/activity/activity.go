// Package activity 活动的创建、编辑与生命周期流转
package activity

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
	"log/slog"
	"math"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/samber/lo"
)

type Service struct {
	core.Deps
	log *slog.Logger
}

func NewService(deps core.Deps) *Service {
	return &Service{Deps: deps.WithDefaults(), log: logger.New("Core.Activity")}
}

// Input 创建和编辑共用的可编辑字段
type Input struct {
	Title            string
	Description      string
	Type             string
	Image            string
	StartTime        time.Time
	EndTime          time.Time
	RegisterDeadline time.Time

	Place         string
	Address       string
	Latitude      float64
	Longitude     float64
	CheckinRadius float64

	Total           int
	MinParticipants int
	Fee             float64
	FeeType         model.FeeType

	NeedReview  bool
	IsPublic    bool
	OpenCheckin bool

	OrganizerName   string
	OrganizerPhone  string
	OrganizerWechat string

	Groups []model.Group // 忽略 Joined
}

// Patch 编辑时只修改非 nil 字段
type Patch struct {
	Title            *string
	Description      *string
	Type             *string
	Image            *string
	StartTime        *time.Time
	EndTime          *time.Time
	RegisterDeadline *time.Time

	Place         *string
	Address       *string
	Latitude      *float64
	Longitude     *float64
	CheckinRadius *float64

	Total           *int
	MinParticipants *int
	Fee             *float64
	FeeType         *model.FeeType

	NeedReview  *bool
	IsPublic    *bool
	OpenCheckin *bool

	// Groups 整体替换，nil 表示不修改；同 ID 的分组保留已报名人数
	Groups []model.Group
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func (p Patch) apply(a *model.Activity) {
	set(&a.Title, p.Title)
	set(&a.Description, p.Description)
	set(&a.Type, p.Type)
	set(&a.Image, p.Image)
	set(&a.StartTime, p.StartTime)
	set(&a.EndTime, p.EndTime)
	set(&a.RegisterDeadline, p.RegisterDeadline)
	set(&a.Place, p.Place)
	set(&a.Address, p.Address)
	set(&a.Latitude, p.Latitude)
	set(&a.Longitude, p.Longitude)
	set(&a.CheckinRadius, p.CheckinRadius)
	set(&a.Total, p.Total)
	set(&a.MinParticipants, p.MinParticipants)
	set(&a.Fee, p.Fee)
	set(&a.FeeType, p.FeeType)
	set(&a.NeedReview, p.NeedReview)
	set(&a.IsPublic, p.IsPublic)
	set(&a.OpenCheckin, p.OpenCheckin)
}

// mergeGroups 用新的分组定义替换旧的，已有报名的分组不能删除或缩到已报名人数以下
func mergeGroups(old []model.Group, next []model.Group) ([]model.Group, error) {
	joined := lo.SliceToMap(old, func(g model.Group) (string, int) { return g.ID, g.Joined })
	merged := make([]model.Group, len(next))
	for i, g := range next {
		g.Joined = joined[g.ID]
		if g.Total < g.Joined {
			return nil, response.ErrCapacityConflict.WithTips("分组"+g.Name+"已报名", strconv.Itoa(g.Joined))
		}
		merged[i] = g
	}
	for _, g := range old {
		if g.Joined > 0 && !lo.ContainsBy(merged, func(m model.Group) bool { return m.ID == g.ID }) {
			return nil, response.ErrCapacityConflict.WithTips("分组"+g.Name+"已有报名，不能删除")
		}
	}
	return merged, nil
}

func validateGroups(a *model.Activity) error {
	invalid := response.ErrInvalidRequest.WithTips
	seen := make(map[string]struct{}, len(a.Groups))
	for _, g := range a.Groups {
		switch {
		case g.ID == "" || len(g.ID) > 32:
			return invalid("分组ID不能为空且不超过32字符")
		case g.Name == "":
			return invalid("分组名称不能为空")
		case g.Total < 1 || g.Total > a.Total:
			return invalid("分组人数上限必须在1到活动人数上限之间")
		}
		if _, dup := seen[g.ID]; dup {
			return invalid("分组ID重复", g.ID)
		}
		seen[g.ID] = struct{}{}
	}
	return nil
}

func validate(a *model.Activity) error {
	invalid := response.ErrInvalidRequest.WithTips
	switch {
	case a.Title == "" || utf8.RuneCountInString(a.Title) > 100:
		return invalid("标题不能为空且不超过100字")
	case a.StartTime.IsZero() || a.EndTime.IsZero():
		return invalid("开始和结束时间不能为空")
	case !a.StartTime.Before(a.EndTime):
		return invalid("开始时间必须早于结束时间")
	case a.CheckinRadius <= 0:
		return invalid("签到半径必须大于0")
	case math.Abs(a.Latitude) > 90 || math.Abs(a.Longitude) > 180:
		return invalid("经纬度超出范围")
	case a.Total < 1:
		return invalid("人数上限至少为1")
	case a.MinParticipants < 0:
		return invalid("最少人数不能为负数")
	case !a.FeeType.Valid():
		return invalid("费用类型无效")
	case a.Fee < 0 || (a.FeeType == model.FeeFree && a.Fee != 0):
		return invalid("费用与费用类型不匹配")
	case a.OpenCheckin && !policy.AllowsOpenCheckin(a):
		return invalid("仅无需审核的公开活动可以开启免报名签到")
	}
	return validateGroups(a)
}

func (s *Service) Create(ctx context.Context, organizerID string, in Input) (*model.Activity, error) {
	a := &model.Activity{
		OrganizerID:      organizerID,
		Title:            in.Title,
		Description:      in.Description,
		Type:             in.Type,
		Image:            in.Image,
		Status:           model.ActivityDraft,
		StartTime:        in.StartTime.UTC(),
		EndTime:          in.EndTime.UTC(),
		RegisterDeadline: in.RegisterDeadline.UTC(),
		Place:            in.Place,
		Address:          in.Address,
		Latitude:         in.Latitude,
		Longitude:        in.Longitude,
		CheckinRadius:    in.CheckinRadius,
		Total:            in.Total,
		MinParticipants:  in.MinParticipants,
		Fee:              in.Fee,
		FeeType:          in.FeeType,
		NeedReview:       in.NeedReview,
		IsPublic:         in.IsPublic,
		OpenCheckin:      in.OpenCheckin,
		OrganizerName:    in.OrganizerName,
		OrganizerPhone:   in.OrganizerPhone,
		OrganizerWechat:  in.OrganizerWechat,
	}
	if len(in.Groups) > 0 {
		a.Groups = lo.Map(in.Groups, func(g model.Group, _ int) model.Group {
			g.Joined = 0
			return g
		})
	}
	if a.FeeType == "" {
		a.FeeType = model.FeeFree
	}
	if in.RegisterDeadline.IsZero() {
		a.RegisterDeadline = a.StartTime
	}
	if err := validate(a); err != nil {
		return nil, err
	}

	id, err := s.IDs.Next(ctx, idgen.Activity)
	if err != nil {
		return nil, response.ErrServerInternal.WithOrigin(err)
	}
	a.ID = id
	a.CreatedAt = s.Now()
	a.UpdatedAt = a.CreatedAt

	err = s.Store.Transaction(ctx, func(tx store.Tx) error {
		return tx.CreateActivity(a)
	})
	if err != nil {
		s.log.Error("创建活动失败", "error", err, "organizer_id", organizerID)
		return nil, core.Err(err)
	}
	s.log.Info("活动创建成功", "activity_id", a.ID, "organizer_id", organizerID)
	return a, nil
}

// mutate 锁住活动行执行 fn，统一处理不存在、已删除和组织者校验
func (s *Service) mutate(ctx context.Context, id, callerID string, fn func(tx store.Tx, a *model.Activity, now time.Time) error) (*model.Activity, error) {
	var result *model.Activity
	err := s.Store.Transaction(ctx, func(tx store.Tx) error {
		a, err := tx.LockActivity(id)
		if err != nil {
			return err
		}
		if a.IsDeleted {
			return store.ErrNotFound
		}
		if !policy.IsOrganizer(a, callerID) {
			return response.ErrForbidden.WithTips("只有组织者可以执行该操作")
		}
		now := s.Now()
		if err := fn(tx, a, now); err != nil {
			return err
		}
		a.UpdatedAt = now
		result = a
		return tx.SaveActivity(a)
	})
	if err != nil {
		return nil, core.Err(err, "活动不存在")
	}
	return result, nil
}

func (s *Service) Update(ctx context.Context, id, callerID string, p Patch) (*model.Activity, error) {
	a, err := s.mutate(ctx, id, callerID, func(_ store.Tx, a *model.Activity, now time.Time) error {
		switch a.EffectiveStatus(now) {
		case model.ActivityDraft, model.ActivityPublished:
		default:
			return response.ErrInvalidState.WithTips("活动已开始、结束或取消，不能编辑")
		}
		p.apply(a)
		if p.Groups != nil {
			groups, err := mergeGroups(a.Groups, p.Groups)
			if err != nil {
				return err
			}
			a.Groups = groups
		}
		a.StartTime, a.EndTime, a.RegisterDeadline = a.StartTime.UTC(), a.EndTime.UTC(), a.RegisterDeadline.UTC()
		if a.Total < a.Joined {
			return response.ErrCapacityConflict.WithTips("当前已报名", strconv.Itoa(a.Joined))
		}
		return validate(a)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("活动更新成功", "activity_id", id)
	return s.present(a), nil
}

func (s *Service) Publish(ctx context.Context, id, callerID string) (*model.Activity, error) {
	a, err := s.mutate(ctx, id, callerID, func(_ store.Tx, a *model.Activity, now time.Time) error {
		if a.Status != model.ActivityDraft {
			return response.ErrInvalidTransition.WithTips("只有草稿可以发布")
		}
		if a.Total < a.MinParticipants {
			return response.ErrInvalidTransition.WithTips("人数上限小于最少成行人数")
		}
		if !a.StartTime.After(now) {
			return response.ErrInvalidTransition.WithTips("开始时间已过")
		}
		a.Status = model.ActivityPublished
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("活动已发布", "activity_id", id)
	s.Emit(ctx, s.log, mq.TopicActivityPublished, id, event(a))
	return s.present(a), nil
}

func (s *Service) Cancel(ctx context.Context, id, callerID string) (*model.Activity, error) {
	a, err := s.mutate(ctx, id, callerID, func(_ store.Tx, a *model.Activity, now time.Time) error {
		switch a.EffectiveStatus(now) {
		case model.ActivityDraft, model.ActivityPublished:
			a.Status = model.ActivityCancelled
			return nil
		}
		return response.ErrInvalidTransition.WithTips("只有草稿或未开始的活动可以取消")
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("活动已取消", "activity_id", id)
	s.Emit(ctx, s.log, mq.TopicActivityCancelled, id, event(a))
	return a, nil
}

// Delete 软删除草稿或已取消的活动，并作废其下仍有效的报名
func (s *Service) Delete(ctx context.Context, id, callerID string) error {
	var voided int
	a, err := s.mutate(ctx, id, callerID, func(tx store.Tx, a *model.Activity, now time.Time) error {
		regs, err := tx.FindRegistrations(a.ID, "")
		if err != nil {
			return err
		}
		live := lo.Filter(regs, func(r *model.Registration, _ int) bool {
			return r.Status == model.RegistrationPending || r.Status == model.RegistrationApproved
		})

		switch a.EffectiveStatus(now) {
		case model.ActivityDraft, model.ActivityCancelled:
		default:
			if len(live) > 0 {
				return response.ErrConflict
			}
			return response.ErrInvalidTransition.WithTips("只能删除草稿或已取消的活动")
		}

		for _, r := range live {
			r.Status = model.RegistrationCancelled
			r.Note = "activity deleted"
			r.DecidedAt = &now
			r.UpdatedAt = now
			if err := tx.SaveRegistration(r); err != nil {
				return err
			}
		}
		voided = len(live)
		a.Joined = 0
		for i := range a.Groups {
			a.Groups[i].Joined = 0
		}
		a.IsDeleted = true
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("活动已删除", "activity_id", id, "voided_registrations", voided)
	s.Emit(ctx, s.log, mq.TopicActivityDeleted, id, event(a))
	return nil
}

// Get 活动详情，状态按当前时间计算
func (s *Service) Get(ctx context.Context, id, callerID string) (*model.Activity, error) {
	a, err := s.Store.GetActivity(ctx, id)
	if err != nil {
		return nil, core.Err(err, "活动不存在")
	}
	if a.IsDeleted {
		return nil, response.ErrNotFound.WithTips("活动不存在")
	}
	if a.Status == model.ActivityDraft && !policy.IsManager(a, callerID) {
		return nil, response.ErrNotFound.WithTips("活动不存在")
	}

	registered := false
	if !a.IsPublic && !policy.IsManager(a, callerID) {
		counts, err := s.Store.CountRegistrations(ctx, store.RegistrationFilter{
			ActivityID: id,
			UserID:     callerID,
			Statuses:   []model.RegistrationStatus{model.RegistrationPending, model.RegistrationApproved, model.RegistrationRejected},
		})
		if err != nil {
			return nil, core.Err(err)
		}
		registered = lo.Sum(lo.Values(counts)) > 0
	}
	if !policy.CanView(a, callerID, registered) {
		return nil, response.ErrForbidden.WithTips("私密活动")
	}
	return s.present(a), nil
}

// ListQuery 公开活动列表条件，Status 为对外可见的有效状态
type ListQuery struct {
	Type    string
	Keyword string
	Status  model.ActivityStatus
	store.Page
}

func (s *Service) List(ctx context.Context, q ListQuery) ([]*model.Activity, int64, error) {
	now := s.Now()
	f := store.ActivityFilter{Type: q.Type, Keyword: q.Keyword, PublicOnly: true, Page: q.Page}
	switch q.Status {
	case "":
		f.Statuses = []model.ActivityStatus{model.ActivityPublished, model.ActivityOngoing, model.ActivityFinished, model.ActivityCancelled}
	case model.ActivityPublished:
		f.Statuses = []model.ActivityStatus{model.ActivityPublished}
		f.NotStartedBy = &now
	case model.ActivityOngoing:
		f.Statuses = []model.ActivityStatus{model.ActivityPublished, model.ActivityOngoing}
		f.StartedBy = &now
		f.NotEndedBy = &now
	case model.ActivityFinished:
		f.Statuses = []model.ActivityStatus{model.ActivityPublished, model.ActivityOngoing, model.ActivityFinished}
		f.EndedBy = &now
	case model.ActivityCancelled:
		f.Statuses = []model.ActivityStatus{model.ActivityCancelled}
	default:
		return nil, 0, response.ErrInvalidRequest.WithTips("不支持的状态筛选")
	}

	items, total, err := s.Store.ListActivities(ctx, f)
	if err != nil {
		return nil, 0, core.Err(err)
	}
	return s.presentAll(items), total, nil
}

// ListMine 组织者自己的活动，包括草稿和已删除的
func (s *Service) ListMine(ctx context.Context, organizerID string, page store.Page) ([]*model.Activity, int64, error) {
	items, total, err := s.Store.ListActivities(ctx, store.ActivityFilter{
		OrganizerID:    organizerID,
		IncludeDeleted: true,
		Page:           page,
	})
	if err != nil {
		return nil, 0, core.Err(err)
	}
	return s.presentAll(items), total, nil
}

// Managers 管理员、白名单、黑名单整体替换；nil 表示不修改
type Managers struct {
	Administrators []string
	Whitelist      []string
	Blacklist      []model.BlacklistEntry
}

func (s *Service) UpdateManagers(ctx context.Context, id, callerID string, m Managers) (*model.Activity, error) {
	a, err := s.mutate(ctx, id, callerID, func(_ store.Tx, a *model.Activity, now time.Time) error {
		if m.Administrators != nil {
			a.Administrators = lo.Uniq(lo.Without(m.Administrators, a.OrganizerID, ""))
		}
		if m.Whitelist != nil {
			a.Whitelist = lo.Uniq(lo.Without(m.Whitelist, ""))
		}
		if m.Blacklist != nil {
			entries := lo.UniqBy(m.Blacklist, func(e model.BlacklistEntry) string { return e.UserID })
			for i := range entries {
				if entries[i].UserID == "" || entries[i].UserID == a.OrganizerID {
					return response.ErrInvalidRequest.WithTips("黑名单用户无效")
				}
				if entries[i].AddedAt.IsZero() {
					entries[i].AddedAt = now
				}
			}
			a.Blacklist = entries
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("活动管理名单已更新", "activity_id", id)
	return s.present(a), nil
}

func (s *Service) present(a *model.Activity) *model.Activity {
	a.Status = a.EffectiveStatus(s.Now())
	return a
}

func (s *Service) presentAll(items []*model.Activity) []*model.Activity {
	now := s.Now()
	for _, a := range items {
		a.Status = a.EffectiveStatus(now)
	}
	return items
}

type activityEvent struct {
	ActivityID  string               `json:"activity_id"`
	OrganizerID string               `json:"organizer_id"`
	Title       string               `json:"title"`
	Status      model.ActivityStatus `json:"status"`
	Joined      int                  `json:"joined"`
}

func event(a *model.Activity) activityEvent {
	return activityEvent{
		ActivityID:  a.ID,
		OrganizerID: a.OrganizerID,
		Title:       a.Title,
		Status:      a.Status,
		Joined:      a.Joined,
	}
}
