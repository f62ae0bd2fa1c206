// Package review 活动结束后的评价与评分统计。
// 只有报名已通过的参与者可以评价，每人每活动保留一条未删除的评价，重复提交视为修改。
package review

import (
	"activity-assistant/internal/core"
	"activity-assistant/internal/core/activity"
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
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

const (
	MinRating = 1
	MaxRating = 5

	MaxContentLen = 500
	MaxReasonLen  = 255
)

type Service struct {
	core.Deps
	activities *activity.Service
	log        *slog.Logger
}

func NewService(deps core.Deps) *Service {
	deps = deps.WithDefaults()
	return &Service{Deps: deps, activities: activity.NewService(deps), log: logger.New("Core.Review")}
}

type Input struct {
	Rating  int
	Content string
}

func (in Input) validate() error {
	if in.Rating < MinRating || in.Rating > MaxRating {
		return response.ErrInvalidRequest.WithTips("评分只能是1到5星")
	}
	if utf8.RuneCountInString(in.Content) > MaxContentLen {
		return response.ErrInvalidRequest.WithTips("评价内容不能超过500字")
	}
	return nil
}

// Submit 创建或修改自己对活动的评价
func (s *Service) Submit(ctx context.Context, activityID, userID string, in Input) (*model.Review, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	id, err := s.IDs.Next(ctx, idgen.Review)
	if err != nil {
		return nil, response.ErrServerInternal.WithOrigin(err)
	}

	var (
		r       *model.Review
		created bool
	)
	err = s.Store.Transaction(ctx, func(tx store.Tx) error {
		// 锁活动行让同一用户的并发提交串行，保证只留一条评价
		a, err := tx.LockActivity(activityID)
		if err != nil {
			return err
		}
		if a.IsDeleted {
			return store.ErrNotFound
		}
		now := s.Now()
		if a.EffectiveStatus(now) != model.ActivityFinished {
			return response.ErrInvalidState.WithTips("只能评价已结束的活动")
		}

		regs, err := tx.FindRegistrations(a.ID, userID)
		if err != nil {
			return err
		}
		reg, ok := lo.Find(regs, func(r *model.Registration) bool { return r.Status == model.RegistrationApproved })
		if !ok {
			return response.ErrForbidden.WithTips("未参加该活动，无法评价")
		}

		r, err = tx.FindReview(a.ID, userID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			created = true
			r = &model.Review{
				Model:      model.Model{ID: id, CreatedAt: now, UpdatedAt: now},
				ActivityID: a.ID,
				UserID:     userID,
				UserName:   reg.Name,
				Rating:     in.Rating,
				Content:    in.Content,
			}
			return tx.CreateReview(r)
		case err != nil:
			return err
		}
		r.Rating = in.Rating
		r.Content = in.Content
		r.UpdatedAt = now
		return tx.SaveReview(r)
	})
	if err != nil {
		return nil, core.Err(err, "活动不存在")
	}

	s.log.Info("评价已提交", "review_id", r.ID, "activity_id", r.ActivityID, "user_id", userID, "created", created)
	s.Emit(ctx, s.log, mq.TopicReviewSubmitted, r.ActivityID, event(r))
	return r, nil
}

// own 读取调用者自己的、未删除的评价
func own(tx store.Tx, reviewID, userID string) (*model.Review, error) {
	r, err := tx.GetReview(reviewID)
	if err != nil {
		return nil, err
	}
	if r.UserID != userID {
		return nil, response.ErrForbidden.WithTips("只能操作自己的评价")
	}
	if r.IsDeleted {
		return nil, response.ErrInvalidState.WithTips("评价已删除")
	}
	return r, nil
}

func (s *Service) Update(ctx context.Context, reviewID, userID string, in Input) (*model.Review, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var r *model.Review
	err := s.Store.Transaction(ctx, func(tx store.Tx) (err error) {
		if r, err = own(tx, reviewID, userID); err != nil {
			return err
		}
		r.Rating = in.Rating
		r.Content = in.Content
		r.UpdatedAt = s.Now()
		return tx.SaveReview(r)
	})
	if err != nil {
		return nil, core.Err(err, "评价不存在")
	}
	s.Emit(ctx, s.log, mq.TopicReviewSubmitted, r.ActivityID, event(r))
	return r, nil
}

// Delete 删除自己的评价，之后可以重新评价
func (s *Service) Delete(ctx context.Context, reviewID, userID string) error {
	var r *model.Review
	err := s.Store.Transaction(ctx, func(tx store.Tx) (err error) {
		if r, err = own(tx, reviewID, userID); err != nil {
			return err
		}
		remove(r, userID, "", s.Now())
		return tx.SaveReview(r)
	})
	if err != nil {
		return core.Err(err, "评价不存在")
	}
	s.log.Info("评价已删除", "review_id", reviewID, "user_id", userID)
	s.Emit(ctx, s.log, mq.TopicReviewRemoved, r.ActivityID, event(r))
	return nil
}

// Moderate 组织者或活动管理员删除不当评价，必须给出原因
func (s *Service) Moderate(ctx context.Context, reviewID, callerID, reason string) error {
	if reason == "" || utf8.RuneCountInString(reason) > MaxReasonLen {
		return response.ErrInvalidRequest.WithTips("请填写删除原因，不超过255字")
	}
	var r *model.Review
	err := s.Store.Transaction(ctx, func(tx store.Tx) error {
		var err error
		if r, err = tx.GetReview(reviewID); err != nil {
			return err
		}
		a, err := tx.LockActivity(r.ActivityID)
		if err != nil {
			return err
		}
		if !policy.IsManager(a, callerID) {
			return response.ErrForbidden.WithTips("只有组织者和管理员可以删除评价")
		}
		if r.IsDeleted {
			return response.ErrInvalidState.WithTips("评价已删除")
		}
		remove(r, callerID, reason, s.Now())
		return tx.SaveReview(r)
	})
	if err != nil {
		return core.Err(err, "评价不存在")
	}
	s.log.Warn("评价被管理员删除", "review_id", reviewID, "caller_id", callerID, "reason", reason)
	s.Emit(ctx, s.log, mq.TopicReviewRemoved, r.ActivityID, event(r))
	return nil
}

func remove(r *model.Review, by, reason string, now time.Time) {
	r.IsDeleted = true
	r.DeletedBy = by
	r.DeleteReason = reason
	r.DeletedAt = &now
	r.UpdatedAt = now
}

// Mine 用户在活动下的评价，未评价时返回 nil
func (s *Service) Mine(ctx context.Context, activityID, userID string) (*model.Review, error) {
	items, _, err := s.Store.ListReviews(ctx, store.ReviewFilter{ActivityID: activityID, UserID: userID, Page: store.Page{Limit: 1}})
	if err != nil {
		return nil, core.Err(err)
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// visible 评价跟随活动详情的可见性
func (s *Service) visible(ctx context.Context, activityID, callerID string) error {
	_, err := s.activities.Get(ctx, activityID, callerID)
	return err
}

type ListQuery struct {
	Rating int // 0 表示全部
	Sort   store.ReviewSort
	Page   store.Page
}

func (s *Service) ListByActivity(ctx context.Context, activityID, callerID string, q ListQuery) ([]*model.Review, int64, error) {
	if q.Rating != 0 && (q.Rating < MinRating || q.Rating > MaxRating) {
		return nil, 0, response.ErrInvalidRequest.WithTips("评分只能是1到5星")
	}
	switch q.Sort {
	case "", store.ReviewLatest, store.ReviewRating:
	default:
		return nil, 0, response.ErrInvalidRequest.WithTips("排序方式只能是 latest 或 rating")
	}
	if err := s.visible(ctx, activityID, callerID); err != nil {
		return nil, 0, err
	}
	items, total, err := s.Store.ListReviews(ctx, store.ReviewFilter{
		ActivityID: activityID,
		Rating:     q.Rating,
		Sort:       q.Sort,
		Page:       q.Page,
	})
	if err != nil {
		return nil, 0, core.Err(err)
	}
	return items, total, nil
}

// Statistics 评分统计，Distribution 总是包含 1 到 5 星
type Statistics struct {
	Total        int64         `json:"total"`
	Average      float64       `json:"average"` // 保留一位小数，无评价时为 0
	Distribution map[int]int64 `json:"distribution"`
}

// Summarize 由各星级的评价数计算统计
func Summarize(counts map[int]int64) Statistics {
	st := Statistics{Distribution: make(map[int]int64, MaxRating)}
	var sum int64
	for star := MinRating; star <= MaxRating; star++ {
		n := counts[star]
		st.Distribution[star] = n
		st.Total += n
		sum += n * int64(star)
	}
	if st.Total > 0 {
		st.Average = math.Round(float64(sum)*10/float64(st.Total)) / 10
	}
	return st
}

func (s *Service) Statistics(ctx context.Context, activityID, callerID string) (*Statistics, error) {
	if err := s.visible(ctx, activityID, callerID); err != nil {
		return nil, err
	}
	counts, err := s.Store.CountRatings(ctx, activityID)
	if err != nil {
		return nil, core.Err(err)
	}
	st := Summarize(counts)
	return &st, nil
}

type reviewEvent struct {
	ReviewID   string `json:"review_id"`
	ActivityID string `json:"activity_id"`
	UserID     string `json:"user_id"`
	Rating     int    `json:"rating"`
	Deleted    bool   `json:"deleted"`
}

func event(r *model.Review) reviewEvent {
	return reviewEvent{ReviewID: r.ID, ActivityID: r.ActivityID, UserID: r.UserID, Rating: r.Rating, Deleted: r.IsDeleted}
}
