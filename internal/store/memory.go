package store

import (
	"activity-assistant/internal/model"
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
)

// Memory 进程内存储，用于开发模式和测试。
// 写事务串行执行并先写入暂存区，fn 成功后才提交，读操作只持有读锁。
type Memory struct {
	mu            sync.RWMutex
	activities    map[string]*model.Activity
	registrations map[string]*model.Registration
	checkins      map[string]*model.Checkin
	reviews       map[string]*model.Review
}

func NewMemory() *Memory {
	return &Memory{
		activities:    make(map[string]*model.Activity),
		registrations: make(map[string]*model.Registration),
		checkins:      make(map[string]*model.Checkin),
		reviews:       make(map[string]*model.Review),
	}
}

func (s *Memory) Transaction(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{
		s:             s,
		activities:    make(map[string]*model.Activity),
		registrations: make(map[string]*model.Registration),
		checkins:      make(map[string]*model.Checkin),
		reviews:       make(map[string]*model.Review),
	}
	if err := fn(tx); err != nil {
		return err
	}
	for id, a := range tx.activities {
		s.activities[id] = a
	}
	for id, r := range tx.registrations {
		s.registrations[id] = r
	}
	for id, c := range tx.checkins {
		s.checkins[id] = c
	}
	for id, r := range tx.reviews {
		s.reviews[id] = r
	}
	return nil
}

func cloneCheckin(c *model.Checkin) *model.Checkin {
	v := *c
	return &v
}

func pageOf[T any](items []T, p Page) []T {
	if p.Limit <= 0 {
		return items
	}
	if p.Offset >= len(items) {
		return []T{}
	}
	return items[p.Offset:min(p.Offset+p.Limit, len(items))]
}

// byTimeDesc 时间倒序，时间相同按 id 倒序
func byTimeDesc[T any](key func(T) (time.Time, string)) func(a, b T) int {
	return func(a, b T) int {
		ta, ia := key(a)
		tb, ib := key(b)
		if c := tb.Compare(ta); c != 0 {
			return c
		}
		return cmp.Compare(ib, ia)
	}
}

func matchActivity(a *model.Activity, f ActivityFilter) bool {
	switch {
	case f.OrganizerID != "" && a.OrganizerID != f.OrganizerID,
		f.Type != "" && a.Type != f.Type,
		f.Keyword != "" && !strings.Contains(a.Title, f.Keyword) && !strings.Contains(a.Description, f.Keyword),
		len(f.Statuses) > 0 && !slices.Contains(f.Statuses, a.Status),
		f.PublicOnly && !a.IsPublic,
		!f.IncludeDeleted && a.IsDeleted,
		f.StartedBy != nil && a.StartTime.After(*f.StartedBy),
		f.NotStartedBy != nil && !a.StartTime.After(*f.NotStartedBy),
		f.EndedBy != nil && a.EndTime.After(*f.EndedBy),
		f.NotEndedBy != nil && !a.EndTime.After(*f.NotEndedBy):
		return false
	}
	return true
}

func (s *Memory) GetActivity(_ context.Context, id string) (*model.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.activities[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a.Clone(), nil
}

func (s *Memory) filterActivities(f ActivityFilter) []*model.Activity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var items []*model.Activity
	for _, a := range s.activities {
		if matchActivity(a, f) {
			items = append(items, a.Clone())
		}
	}
	return items
}

func (s *Memory) ListActivities(_ context.Context, f ActivityFilter) ([]*model.Activity, int64, error) {
	items := s.filterActivities(f)
	slices.SortFunc(items, byTimeDesc(func(a *model.Activity) (time.Time, string) { return a.StartTime, a.ID }))
	return pageOf(items, f.Page), int64(len(items)), nil
}

func (s *Memory) CountActivities(_ context.Context, f ActivityFilter) (int64, error) {
	return int64(len(s.filterActivities(f))), nil
}

func matchRegistration(r *model.Registration, f RegistrationFilter) bool {
	return (f.ActivityID == "" || r.ActivityID == f.ActivityID) &&
		(f.UserID == "" || r.UserID == f.UserID) &&
		(len(f.Statuses) == 0 || slices.Contains(f.Statuses, r.Status))
}

func (s *Memory) filterRegistrations(f RegistrationFilter) []*model.Registration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var items []*model.Registration
	for _, r := range s.registrations {
		if matchRegistration(r, f) {
			items = append(items, r.Clone())
		}
	}
	return items
}

func (s *Memory) GetRegistration(_ context.Context, id string) (*model.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.registrations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r.Clone(), nil
}

func (s *Memory) ListRegistrations(_ context.Context, f RegistrationFilter) ([]*model.Registration, int64, error) {
	items := s.filterRegistrations(f)
	slices.SortFunc(items, byTimeDesc(func(r *model.Registration) (time.Time, string) { return r.CreatedAt, r.ID }))
	return pageOf(items, f.Page), int64(len(items)), nil
}

func (s *Memory) CountRegistrations(_ context.Context, f RegistrationFilter) (map[model.RegistrationStatus]int64, error) {
	counts := lo.CountValuesBy(s.filterRegistrations(f), func(r *model.Registration) model.RegistrationStatus {
		return r.Status
	})
	return lo.MapValues(counts, func(n int, _ model.RegistrationStatus) int64 { return int64(n) }), nil
}

func (s *Memory) CountDistinctActivities(_ context.Context, f RegistrationFilter) (int64, error) {
	ids := lo.Uniq(lo.Map(s.filterRegistrations(f), func(r *model.Registration, _ int) string { return r.ActivityID }))
	return int64(len(ids)), nil
}

func (s *Memory) filterCheckins(f CheckinFilter) []*model.Checkin {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var items []*model.Checkin
	for _, c := range s.checkins {
		if (f.ActivityID == "" || c.ActivityID == f.ActivityID) && (f.UserID == "" || c.UserID == f.UserID) {
			items = append(items, cloneCheckin(c))
		}
	}
	return items
}

func (s *Memory) GetCheckin(_ context.Context, id string) (*model.Checkin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.checkins[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneCheckin(c), nil
}

func (s *Memory) ListCheckins(_ context.Context, f CheckinFilter) ([]*model.Checkin, int64, error) {
	items := s.filterCheckins(f)
	slices.SortFunc(items, byTimeDesc(func(c *model.Checkin) (time.Time, string) { return c.CheckinTime, c.ID }))
	return pageOf(items, f.Page), int64(len(items)), nil
}

func (s *Memory) CountCheckins(_ context.Context, f CheckinFilter) (CheckinCounts, error) {
	var counts CheckinCounts
	for _, c := range s.filterCheckins(f) {
		counts.Total++
		switch {
		case !c.IsValid:
			counts.Invalid++
		case c.IsLate:
			counts.Valid++
			counts.Late++
		default:
			counts.Valid++
		}
	}
	return counts, nil
}

func matchReview(r *model.Review, f ReviewFilter) bool {
	return !r.IsDeleted &&
		(f.ActivityID == "" || r.ActivityID == f.ActivityID) &&
		(f.UserID == "" || r.UserID == f.UserID) &&
		(f.Rating <= 0 || r.Rating == f.Rating)
}

func (s *Memory) filterReviews(f ReviewFilter) []*model.Review {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var items []*model.Review
	for _, r := range s.reviews {
		if matchReview(r, f) {
			items = append(items, r.Clone())
		}
	}
	return items
}

func (s *Memory) GetReview(_ context.Context, id string) (*model.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reviews[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r.Clone(), nil
}

func (s *Memory) ListReviews(_ context.Context, f ReviewFilter) ([]*model.Review, int64, error) {
	items := s.filterReviews(f)
	latest := byTimeDesc(func(r *model.Review) (time.Time, string) { return r.CreatedAt, r.ID })
	slices.SortFunc(items, func(a, b *model.Review) int {
		if f.Sort == ReviewRating {
			if c := cmp.Compare(b.Rating, a.Rating); c != 0 {
				return c
			}
		}
		return latest(a, b)
	})
	return pageOf(items, f.Page), int64(len(items)), nil
}

func (s *Memory) CountRatings(_ context.Context, activityID string) (map[int]int64, error) {
	counts := lo.CountValuesBy(s.filterReviews(ReviewFilter{ActivityID: activityID}), func(r *model.Review) int {
		return r.Rating
	})
	return lo.MapValues(counts, func(n int, _ int) int64 { return int64(n) }), nil
}

// memoryTx 在 Memory 的写锁内运行，读取时暂存区优先
type memoryTx struct {
	s             *Memory
	activities    map[string]*model.Activity
	registrations map[string]*model.Registration
	checkins      map[string]*model.Checkin
	reviews       map[string]*model.Review
}

// stamp 只补全调用方没有设置的时间，业务时间由领域服务按注入的时钟填写
func stamp(m *model.Model) {
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.CreatedAt
	}
}

func (t *memoryTx) activity(id string) (*model.Activity, bool) {
	if a, ok := t.activities[id]; ok {
		return a, true
	}
	a, ok := t.s.activities[id]
	return a, ok
}

func (t *memoryTx) CreateActivity(a *model.Activity) error {
	stamp(&a.Model)
	t.activities[a.ID] = a.Clone()
	return nil
}

func (t *memoryTx) LockActivity(id string) (*model.Activity, error) {
	a, ok := t.activity(id)
	if !ok {
		return nil, ErrNotFound
	}
	return a.Clone(), nil
}

func (t *memoryTx) SaveActivity(a *model.Activity) error {
	stamp(&a.Model)
	t.activities[a.ID] = a.Clone()
	return nil
}

func (t *memoryTx) GetRegistration(id string) (*model.Registration, error) {
	if r, ok := t.registrations[id]; ok {
		return r.Clone(), nil
	}
	if r, ok := t.s.registrations[id]; ok {
		return r.Clone(), nil
	}
	return nil, ErrNotFound
}

func (t *memoryTx) FindRegistrations(activityID, userID string) ([]*model.Registration, error) {
	f := RegistrationFilter{ActivityID: activityID, UserID: userID}
	merged := make(map[string]*model.Registration)
	for id, r := range t.s.registrations {
		if matchRegistration(r, f) {
			merged[id] = r
		}
	}
	for id, r := range t.registrations {
		if matchRegistration(r, f) {
			merged[id] = r
		}
	}
	items := lo.Map(lo.Values(merged), func(r *model.Registration, _ int) *model.Registration { return r.Clone() })
	slices.SortFunc(items, func(a, b *model.Registration) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return items, nil
}

func (t *memoryTx) CreateRegistration(r *model.Registration) error {
	stamp(&r.Model)
	t.registrations[r.ID] = r.Clone()
	return nil
}

func (t *memoryTx) SaveRegistration(r *model.Registration) error {
	stamp(&r.Model)
	t.registrations[r.ID] = r.Clone()
	return nil
}

func (t *memoryTx) FindCheckins(activityID, userID string) ([]*model.Checkin, error) {
	var items []*model.Checkin
	for _, src := range []map[string]*model.Checkin{t.s.checkins, t.checkins} {
		for _, c := range src {
			if c.ActivityID == activityID && c.UserID == userID {
				items = append(items, cloneCheckin(c))
			}
		}
	}
	slices.SortFunc(items, func(a, b *model.Checkin) int {
		if c := a.CheckinTime.Compare(b.CheckinTime); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return items, nil
}

func (t *memoryTx) CreateCheckin(c *model.Checkin) error {
	stamp(&c.Model)
	t.checkins[c.ID] = cloneCheckin(c)
	return nil
}

func (t *memoryTx) GetReview(id string) (*model.Review, error) {
	if r, ok := t.reviews[id]; ok {
		return r.Clone(), nil
	}
	if r, ok := t.s.reviews[id]; ok {
		return r.Clone(), nil
	}
	return nil, ErrNotFound
}

func (t *memoryTx) FindReview(activityID, userID string) (*model.Review, error) {
	f := ReviewFilter{ActivityID: activityID, UserID: userID}
	for _, r := range t.reviews {
		if matchReview(r, f) {
			return r.Clone(), nil
		}
	}
	for id, r := range t.s.reviews {
		if _, staged := t.reviews[id]; !staged && matchReview(r, f) {
			return r.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (t *memoryTx) CreateReview(r *model.Review) error {
	stamp(&r.Model)
	t.reviews[r.ID] = r.Clone()
	return nil
}

func (t *memoryTx) SaveReview(r *model.Review) error {
	stamp(&r.Model)
	t.reviews[r.ID] = r.Clone()
	return nil
}
