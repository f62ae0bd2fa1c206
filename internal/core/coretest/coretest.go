// Package coretest 领域服务测试共用的时钟、存储和活动样例
package coretest

import (
	"activity-assistant/internal/core"
	"activity-assistant/internal/global/mq"
	"activity-assistant/internal/model"
	"activity-assistant/internal/store"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const Organizer = "organizer"

// Clock 可手动拨动的时钟
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

func NewClock(t time.Time) *Clock {
	return &Clock{t: t.UTC()}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t.UTC()
	c.mu.Unlock()
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// Env 一套基于内存存储的依赖
type Env struct {
	Store  *store.Memory
	Clock  *Clock
	Events *mq.Recorder
	Deps   core.Deps
}

// Epoch 测试的起始时间，活动样例默认在此一天后开始
var Epoch = time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

func NewEnv() *Env {
	e := &Env{
		Store:  store.NewMemory(),
		Clock:  NewClock(Epoch),
		Events: &mq.Recorder{},
	}
	e.Deps = core.Deps{Store: e.Store, Publisher: e.Events, Now: e.Clock.Now}.WithDefaults()
	return e
}

// Activity 一个已发布、公开、免审核的活动
func Activity(id string, opts ...func(a *model.Activity)) *model.Activity {
	start := Epoch.Add(24 * time.Hour)
	a := &model.Activity{
		Model:            model.Model{ID: id},
		OrganizerID:      Organizer,
		Title:            "周末徒步",
		Description:      "沿江徒步十公里",
		Type:             "sport",
		Status:           model.ActivityPublished,
		StartTime:        start,
		EndTime:          start.Add(3 * time.Hour),
		RegisterDeadline: start,
		Place:            "人民广场",
		Address:          "上海市黄浦区人民大道",
		Latitude:         31.2304,
		Longitude:        121.4737,
		CheckinRadius:    200,
		Total:            10,
		FeeType:          model.FeeFree,
		IsPublic:         true,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Seed 直接写入活动，绕过创建和发布流程
func (e *Env) Seed(t *testing.T, a *model.Activity) *model.Activity {
	t.Helper()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = e.Clock.Now()
		a.UpdatedAt = a.CreatedAt
	}
	require.NoError(t, e.Store.Transaction(context.Background(), func(tx store.Tx) error {
		return tx.CreateActivity(a)
	}))
	return a
}

// Load 读取最新的活动快照
func (e *Env) Load(t *testing.T, id string) *model.Activity {
	t.Helper()
	a, err := e.Store.GetActivity(context.Background(), id)
	require.NoError(t, err)
	return a
}
