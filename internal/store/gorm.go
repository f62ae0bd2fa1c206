package store

import (
	"activity-assistant/internal/model"
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Models 需要自动迁移的表
var Models = []any{
	&model.Activity{},
	&model.Registration{},
	&model.Checkin{},
	&model.Review{},
}

type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (s *Gorm) Transaction(ctx context.Context, fn func(tx Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
}

func first[T any](db *gorm.DB, id string) (*T, error) {
	var v T
	if err := db.First(&v, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.WithStack(err)
	}
	return &v, nil
}

func paginate(db *gorm.DB, p Page) *gorm.DB {
	if p.Limit > 0 {
		db = db.Offset(p.Offset).Limit(p.Limit)
	}
	return db
}

func list[T any](db *gorm.DB, order string, p Page) ([]*T, int64, error) {
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, errors.WithStack(err)
	}
	var items []*T
	if err := paginate(db.Order(order), p).Find(&items).Error; err != nil {
		return nil, 0, errors.WithStack(err)
	}
	return items, total, nil
}

func (s *Gorm) activityQuery(ctx context.Context, f ActivityFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&model.Activity{})
	if f.OrganizerID != "" {
		q = q.Where("organizer_id = ?", f.OrganizerID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Keyword != "" {
		kw := "%" + f.Keyword + "%"
		q = q.Where("(title LIKE ? OR description LIKE ?)", kw, kw)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.PublicOnly {
		q = q.Where("is_public = ?", true)
	}
	if !f.IncludeDeleted {
		q = q.Where("is_deleted = ?", false)
	}
	if f.StartedBy != nil {
		q = q.Where("start_time <= ?", *f.StartedBy)
	}
	if f.NotStartedBy != nil {
		q = q.Where("start_time > ?", *f.NotStartedBy)
	}
	if f.EndedBy != nil {
		q = q.Where("end_time <= ?", *f.EndedBy)
	}
	if f.NotEndedBy != nil {
		q = q.Where("end_time > ?", *f.NotEndedBy)
	}
	return q
}

func (s *Gorm) GetActivity(ctx context.Context, id string) (*model.Activity, error) {
	return first[model.Activity](s.db.WithContext(ctx), id)
}

func (s *Gorm) ListActivities(ctx context.Context, f ActivityFilter) ([]*model.Activity, int64, error) {
	return list[model.Activity](s.activityQuery(ctx, f), "start_time DESC, id DESC", f.Page)
}

func (s *Gorm) CountActivities(ctx context.Context, f ActivityFilter) (int64, error) {
	var n int64
	err := s.activityQuery(ctx, f).Count(&n).Error
	return n, errors.WithStack(err)
}

func (s *Gorm) registrationQuery(ctx context.Context, f RegistrationFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&model.Registration{})
	if f.ActivityID != "" {
		q = q.Where("activity_id = ?", f.ActivityID)
	}
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	return q
}

func (s *Gorm) GetRegistration(ctx context.Context, id string) (*model.Registration, error) {
	return first[model.Registration](s.db.WithContext(ctx), id)
}

func (s *Gorm) ListRegistrations(ctx context.Context, f RegistrationFilter) ([]*model.Registration, int64, error) {
	return list[model.Registration](s.registrationQuery(ctx, f), "created_at DESC, id DESC", f.Page)
}

func (s *Gorm) CountRegistrations(ctx context.Context, f RegistrationFilter) (map[model.RegistrationStatus]int64, error) {
	var rows []struct {
		Status model.RegistrationStatus
		N      int64
	}
	err := s.registrationQuery(ctx, f).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.WithStack(err)
	}
	counts := make(map[model.RegistrationStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.N
	}
	return counts, nil
}

func (s *Gorm) CountDistinctActivities(ctx context.Context, f RegistrationFilter) (int64, error) {
	var n int64
	err := s.registrationQuery(ctx, f).Distinct("activity_id").Count(&n).Error
	return n, errors.WithStack(err)
}

func (s *Gorm) checkinQuery(ctx context.Context, f CheckinFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&model.Checkin{})
	if f.ActivityID != "" {
		q = q.Where("activity_id = ?", f.ActivityID)
	}
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	return q
}

func (s *Gorm) GetCheckin(ctx context.Context, id string) (*model.Checkin, error) {
	return first[model.Checkin](s.db.WithContext(ctx), id)
}

func (s *Gorm) ListCheckins(ctx context.Context, f CheckinFilter) ([]*model.Checkin, int64, error) {
	return list[model.Checkin](s.checkinQuery(ctx, f), "checkin_time DESC, id DESC", f.Page)
}

func (s *Gorm) CountCheckins(ctx context.Context, f CheckinFilter) (CheckinCounts, error) {
	var c CheckinCounts
	err := s.checkinQuery(ctx, f).
		Select("COUNT(*) AS total, "+
			"COALESCE(SUM(CASE WHEN is_valid = ? THEN 1 ELSE 0 END), 0) AS valid, "+
			"COALESCE(SUM(CASE WHEN is_valid = ? AND is_late = ? THEN 1 ELSE 0 END), 0) AS late, "+
			"COALESCE(SUM(CASE WHEN is_valid = ? THEN 1 ELSE 0 END), 0) AS invalid",
			true, true, true, false).
		Scan(&c).Error
	return c, errors.WithStack(err)
}

func (s *Gorm) reviewQuery(ctx context.Context, f ReviewFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&model.Review{}).Where("is_deleted = ?", false)
	if f.ActivityID != "" {
		q = q.Where("activity_id = ?", f.ActivityID)
	}
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Rating > 0 {
		q = q.Where("rating = ?", f.Rating)
	}
	return q
}

func (s *Gorm) GetReview(ctx context.Context, id string) (*model.Review, error) {
	return first[model.Review](s.db.WithContext(ctx), id)
}

func (s *Gorm) ListReviews(ctx context.Context, f ReviewFilter) ([]*model.Review, int64, error) {
	order := "created_at DESC, id DESC"
	if f.Sort == ReviewRating {
		order = "rating DESC, " + order
	}
	return list[model.Review](s.reviewQuery(ctx, f), order, f.Page)
}

func (s *Gorm) CountRatings(ctx context.Context, activityID string) (map[int]int64, error) {
	var rows []struct {
		Rating int
		N      int64
	}
	err := s.reviewQuery(ctx, ReviewFilter{ActivityID: activityID}).
		Select("rating, COUNT(*) AS n").
		Group("rating").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.WithStack(err)
	}
	counts := make(map[int]int64, len(rows))
	for _, r := range rows {
		counts[r.Rating] = r.N
	}
	return counts, nil
}

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) CreateActivity(a *model.Activity) error {
	return errors.WithStack(t.db.Create(a).Error)
}

// LockActivity SELECT ... FOR UPDATE，锁住活动行直到事务结束
func (t *gormTx) LockActivity(id string) (*model.Activity, error) {
	return first[model.Activity](t.db.Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (t *gormTx) SaveActivity(a *model.Activity) error {
	return errors.WithStack(t.db.Save(a).Error)
}

func (t *gormTx) GetRegistration(id string) (*model.Registration, error) {
	return first[model.Registration](t.db, id)
}

func (t *gormTx) FindRegistrations(activityID, userID string) ([]*model.Registration, error) {
	q := t.db.Where("activity_id = ?", activityID)
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	var items []*model.Registration
	return items, errors.WithStack(q.Order("created_at, id").Find(&items).Error)
}

func (t *gormTx) CreateRegistration(r *model.Registration) error {
	return errors.WithStack(t.db.Create(r).Error)
}

func (t *gormTx) SaveRegistration(r *model.Registration) error {
	return errors.WithStack(t.db.Save(r).Error)
}

func (t *gormTx) FindCheckins(activityID, userID string) ([]*model.Checkin, error) {
	var items []*model.Checkin
	err := t.db.Where("activity_id = ? AND user_id = ?", activityID, userID).
		Order("checkin_time, id").
		Find(&items).Error
	return items, errors.WithStack(err)
}

func (t *gormTx) CreateCheckin(c *model.Checkin) error {
	return errors.WithStack(t.db.Create(c).Error)
}

func (t *gormTx) GetReview(id string) (*model.Review, error) {
	return first[model.Review](t.db, id)
}

func (t *gormTx) FindReview(activityID, userID string) (*model.Review, error) {
	var r model.Review
	err := t.db.Where("activity_id = ? AND user_id = ? AND is_deleted = ?", activityID, userID, false).
		Order("created_at DESC").
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &r, nil
}

func (t *gormTx) CreateReview(r *model.Review) error {
	return errors.WithStack(t.db.Create(r).Error)
}

func (t *gormTx) SaveReview(r *model.Review) error {
	return errors.WithStack(t.db.Save(r).Error)
}
