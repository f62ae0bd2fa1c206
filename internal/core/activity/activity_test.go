package activity_test

import (
	"activity-assistant/internal/core/activity"
	"activity-assistant/internal/core/coretest"
	"activity-assistant/internal/core/registration"
	"activity-assistant/internal/global/lock"
	"activity-assistant/internal/global/mq"
	"activity-assistant/internal/global/response"
	"activity-assistant/internal/model"
	"activity-assistant/internal/store"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const organizer = coretest.Organizer

func input() activity.Input {
	start := coretest.Epoch.Add(48 * time.Hour)
	return activity.Input{
		Title:            "读书会",
		Description:      "一起读《活着》",
		Type:             "study",
		StartTime:        start,
		EndTime:          start.Add(2 * time.Hour),
		RegisterDeadline: start.Add(-time.Hour),
		Place:            "图书馆",
		Address:          "北京市东城区",
		Latitude:         39.9042,
		Longitude:        116.4074,
		CheckinRadius:    150,
		Total:            20,
		MinParticipants:  3,
		Fee:              15,
		FeeType:          model.FeeAA,
		IsPublic:         true,
		OrganizerName:    "张三",
		OrganizerPhone:   "13800000000",
	}
}

func TestCreateThenGet(t *testing.T) {
	env := coretest.NewEnv()
	svc := activity.NewService(env.Deps)
	ctx := context.Background()

	created, err := svc.Create(ctx, organizer, input())
	require.NoError(t, err)
	assert.Equal(t, model.ActivityDraft, created.Status)
	assert.Regexp(t, `^A20250501\d{6}$`, created.ID)

	fetched, err := svc.Get(ctx, created.ID, organizer)
	require.NoError(t, err)
	assert.Equal(t, created, fetched)
}

func TestCreateValidation(t *testing.T) {
	env := coretest.NewEnv()
	svc := activity.NewService(env.Deps)

	tests := []struct {
		name   string
		modify func(in *activity.Input)
	}{
		{"empty title", func(in *activity.Input) { in.Title = "" }},
		{"end before start", func(in *activity.Input) { in.EndTime = in.StartTime.Add(-time.Minute) }},
		{"zero radius", func(in *activity.Input) { in.CheckinRadius = 0 }},
		{"zero total", func(in *activity.Input) { in.Total = 0 }},
		{"free with fee", func(in *activity.Input) { in.FeeType = model.FeeFree }},
		{"open checkin with review", func(in *activity.Input) { in.OpenCheckin, in.NeedReview = true, true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := input()
			tt.modify(&in)
			_, err := svc.Create(context.Background(), organizer, in)
			assert.ErrorIs(t, err, response.ErrInvalidRequest)
		})
	}
}

func TestCreateDefaultsDeadlineToStart(t *testing.T) {
	env := coretest.NewEnv()
	svc := activity.NewService(env.Deps)

	in := input()
	in.RegisterDeadline = time.Time{}
	a, err := svc.Create(context.Background(), organizer, in)
	require.NoError(t, err)
	assert.Equal(t, a.StartTime, a.RegisterDeadline)
}

func TestPublish(t *testing.T) {
	ctx := context.Background()

	t.Run("total below minimum", func(t *testing.T) {
		env := coretest.NewEnv()
		svc := activity.NewService(env.Deps)
		in := input()
		in.Total, in.MinParticipants = 5, 10
		a, err := svc.Create(ctx, organizer, in)
		require.NoError(t, err)

		_, err = svc.Publish(ctx, a.ID, organizer)
		assert.ErrorIs(t, err, response.ErrInvalidTransition)
		assert.Equal(t, model.ActivityDraft, env.Load(t, a.ID).Status)
	})

	t.Run("start in the past", func(t *testing.T) {
		env := coretest.NewEnv()
		svc := activity.NewService(env.Deps)
		a, err := svc.Create(ctx, organizer, input())
		require.NoError(t, err)

		env.Clock.Set(a.StartTime)
		_, err = svc.Publish(ctx, a.ID, organizer)
		assert.ErrorIs(t, err, response.ErrInvalidTransition)
	})

	t.Run("only organizer", func(t *testing.T) {
		env := coretest.NewEnv()
		svc := activity.NewService(env.Deps)
		a, err := svc.Create(ctx, organizer, input())
		require.NoError(t, err)

		_, err = svc.Publish(ctx, a.ID, "someone")
		assert.ErrorIs(t, err, response.ErrForbidden)
	})

	t.Run("twice", func(t *testing.T) {
		env := coretest.NewEnv()
		svc := activity.NewService(env.Deps)
		a, err := svc.Create(ctx, organizer, input())
		require.NoError(t, err)

		published, err := svc.Publish(ctx, a.ID, organizer)
		require.NoError(t, err)
		assert.Equal(t, model.ActivityPublished, published.Status)
		assert.Equal(t, []string{mq.TopicActivityPublished}, env.Events.Topics())

		_, err = svc.Publish(ctx, a.ID, organizer)
		assert.ErrorIs(t, err, response.ErrInvalidTransition)
	})
}

func TestCancelBlocksRegistration(t *testing.T) {
	env := coretest.NewEnv()
	ctx := context.Background()
	svc := activity.NewService(env.Deps)
	regs := registration.NewService(env.Deps)
	a := env.Seed(t, coretest.Activity("A1"))

	r, err := regs.Create(ctx, a.ID, "u1", registration.Input{Name: "小王"})
	require.NoError(t, err)
	require.Equal(t, model.RegistrationApproved, r.Status)

	cancelled, err := svc.Cancel(ctx, a.ID, organizer)
	require.NoError(t, err)
	assert.Equal(t, model.ActivityCancelled, cancelled.Status)

	_, err = regs.Create(ctx, a.ID, "u2", registration.Input{Name: "小李"})
	assert.ErrorIs(t, err, response.ErrNotOpen)

	_, err = svc.Cancel(ctx, a.ID, organizer)
	assert.ErrorIs(t, err, response.ErrInvalidTransition, "cancelled 是终态")
	_, err = svc.Publish(ctx, a.ID, organizer)
	assert.ErrorIs(t, err, response.ErrInvalidTransition)
}

func TestCancelOngoing(t *testing.T) {
	env := coretest.NewEnv()
	svc := activity.NewService(env.Deps)
	a := env.Seed(t, coretest.Activity("A1"))

	env.Clock.Set(a.StartTime.Add(time.Minute))
	_, err := svc.Cancel(context.Background(), a.ID, organizer)
	assert.ErrorIs(t, err, response.ErrInvalidTransition)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("total below joined", func(t *testing.T) {
		env := coretest.NewEnv()
		svc := activity.NewService(env.Deps)
		a := env.Seed(t, coretest.Activity("A1", func(a *model.Activity) { a.Joined = 3 }))

		total := 2
		_, err := svc.Update(ctx, a.ID, organizer, activity.Patch{Total: &total})
		assert.ErrorIs(t, err, response.ErrCapacityConflict)
		assert.Equal(t, 10, env.Load(t, a.ID).Total)

		total = 3
		updated, err := svc.Update(ctx, a.ID, organizer, activity.Patch{Total: &total})
		require.NoError(t, err)
		assert.Equal(t, 3, updated.Total)
	})

	t.Run("partial patch", func(t *testing.T) {
		env := coretest.NewEnv()
		svc := activity.NewService(env.Deps)
		a := env.Seed(t, coretest.Activity("A1"))

		title := "夜跑"
		updated, err := svc.Update(ctx, a.ID, organizer, activity.Patch{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "夜跑", updated.Title)
		assert.Equal(t, a.Description, updated.Description)
		assert.Equal(t, a.StartTime, updated.StartTime)
	})

	t.Run("invalid patch leaves activity unchanged", func(t *testing.T) {
		env := coretest.NewEnv()
		svc := activity.NewService(env.Deps)
		a := env.Seed(t, coretest.Activity("A1"))

		title, radius := "新标题", -1.0
		_, err := svc.Update(ctx, a.ID, organizer, activity.Patch{Title: &title, CheckinRadius: &radius})
		assert.ErrorIs(t, err, response.ErrInvalidRequest)
		assert.Equal(t, a.Title, env.Load(t, a.ID).Title)
	})

	t.Run("ongoing", func(t *testing.T) {
		env := coretest.NewEnv()
		svc := activity.NewService(env.Deps)
		a := env.Seed(t, coretest.Activity("A1"))

		env.Clock.Set(a.StartTime)
		title := "夜跑"
		_, err := svc.Update(ctx, a.ID, organizer, activity.Patch{Title: &title})
		assert.ErrorIs(t, err, response.ErrInvalidState)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("published with registrations", func(t *testing.T) {
		env := coretest.NewEnv()
		svc := activity.NewService(env.Deps)
		regs := registration.NewService(env.Deps)
		a := env.Seed(t, coretest.Activity("A1"))
		_, err := regs.Create(ctx, a.ID, "u1", registration.Input{Name: "小王"})
		require.NoError(t, err)

		err = svc.Delete(ctx, a.ID, organizer)
		assert.ErrorIs(t, err, response.ErrConflict)
		assert.False(t, env.Load(t, a.ID).IsDeleted)
	})

	t.Run("published without registrations", func(t *testing.T) {
		env := coretest.NewEnv()
		svc := activity.NewService(env.Deps)
		a := env.Seed(t, coretest.Activity("A1"))

		assert.ErrorIs(t, svc.Delete(ctx, a.ID, organizer), response.ErrInvalidTransition)
	})

	t.Run("cancelled voids registrations", func(t *testing.T) {
		env := coretest.NewEnv()
		svc := activity.NewService(env.Deps)
		regs := registration.NewService(env.Deps)
		a := env.Seed(t, coretest.Activity("A1"))
		r, err := regs.Create(ctx, a.ID, "u1", registration.Input{Name: "小王"})
		require.NoError(t, err)
		_, err = svc.Cancel(ctx, a.ID, organizer)
		require.NoError(t, err)

		require.NoError(t, svc.Delete(ctx, a.ID, organizer))

		stored := env.Load(t, a.ID)
		assert.True(t, stored.IsDeleted)
		assert.Zero(t, stored.Joined)
		voided, err := env.Store.GetRegistration(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RegistrationCancelled, voided.Status)
		assert.Equal(t, "activity deleted", voided.Note)

		_, err = svc.Get(ctx, a.ID, organizer)
		assert.ErrorIs(t, err, response.ErrNotFound)
		mine, total, err := svc.ListMine(ctx, organizer, store.Page{})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.True(t, mine[0].IsDeleted)

		assert.ErrorIs(t, svc.Delete(ctx, a.ID, organizer), response.ErrNotFound)
	})
}

func TestGetVisibility(t *testing.T) {
	env := coretest.NewEnv()
	ctx := context.Background()
	svc := activity.NewService(env.Deps)
	regs := registration.NewService(env.Deps)

	draft := env.Seed(t, coretest.Activity("A1", func(a *model.Activity) {
		a.Status = model.ActivityDraft
		a.Administrators = []string{"admin"}
	}))
	private := env.Seed(t, coretest.Activity("A2", func(a *model.Activity) {
		a.IsPublic = false
		a.Whitelist = []string{"friend"}
	}))

	_, err := svc.Get(ctx, draft.ID, "someone")
	assert.ErrorIs(t, err, response.ErrNotFound)
	_, err = svc.Get(ctx, draft.ID, "admin")
	assert.NoError(t, err)

	_, err = svc.Get(ctx, private.ID, "someone")
	assert.ErrorIs(t, err, response.ErrForbidden)
	_, err = svc.Get(ctx, private.ID, "friend")
	assert.NoError(t, err)

	_, err = regs.Create(ctx, private.ID, "friend", registration.Input{Name: "朋友"})
	require.NoError(t, err)
	_, err = svc.UpdateManagers(ctx, private.ID, organizer, activity.Managers{Whitelist: []string{}})
	require.NoError(t, err)
	_, err = svc.Get(ctx, private.ID, "friend")
	assert.NoError(t, err, "有报名记录的用户仍可见")

	_, err = svc.Get(ctx, "missing", organizer)
	assert.ErrorIs(t, err, response.ErrNotFound)
}

func TestGetEffectiveStatus(t *testing.T) {
	env := coretest.NewEnv()
	svc := activity.NewService(env.Deps)
	a := env.Seed(t, coretest.Activity("A1"))

	env.Clock.Set(a.StartTime)
	got, err := svc.Get(context.Background(), a.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.ActivityOngoing, got.Status)

	env.Clock.Set(a.EndTime)
	got, err = svc.Get(context.Background(), a.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.ActivityFinished, got.Status)
	assert.Equal(t, model.ActivityPublished, env.Load(t, a.ID).Status, "读取不改变持久化状态")
}

func TestList(t *testing.T) {
	env := coretest.NewEnv()
	ctx := context.Background()
	svc := activity.NewService(env.Deps)

	day := 24 * time.Hour
	env.Seed(t, coretest.Activity("A1"))
	env.Seed(t, coretest.Activity("A2", func(a *model.Activity) {
		a.StartTime = coretest.Epoch.Add(-time.Hour)
		a.EndTime = coretest.Epoch.Add(time.Hour)
	}))
	env.Seed(t, coretest.Activity("A3", func(a *model.Activity) {
		a.StartTime = coretest.Epoch.Add(-2 * day)
		a.EndTime = coretest.Epoch.Add(-day)
		a.Type = "study"
	}))
	env.Seed(t, coretest.Activity("A4", func(a *model.Activity) { a.Status = model.ActivityDraft }))
	env.Seed(t, coretest.Activity("A5", func(a *model.Activity) { a.IsPublic = false }))
	env.Seed(t, coretest.Activity("A6", func(a *model.Activity) { a.Status = model.ActivityCancelled }))

	ids := func(status model.ActivityStatus, typ string) []string {
		items, _, err := svc.List(ctx, activity.ListQuery{Status: status, Type: typ})
		require.NoError(t, err)
		out := make([]string, 0, len(items))
		for _, a := range items {
			out = append(out, a.ID)
			if status != "" {
				assert.Equal(t, status, a.Status)
			}
		}
		return out
	}

	assert.ElementsMatch(t, []string{"A1", "A2", "A3", "A6"}, ids("", ""))
	assert.Equal(t, []string{"A1"}, ids(model.ActivityPublished, ""))
	assert.Equal(t, []string{"A2"}, ids(model.ActivityOngoing, ""))
	assert.Equal(t, []string{"A3"}, ids(model.ActivityFinished, ""))
	assert.Equal(t, []string{"A6"}, ids(model.ActivityCancelled, ""))
	assert.Equal(t, []string{"A3"}, ids("", "study"))

	_, _, err := svc.List(ctx, activity.ListQuery{Status: model.ActivityDraft})
	assert.ErrorIs(t, err, response.ErrInvalidRequest)

	page, total, err := svc.List(ctx, activity.ListQuery{Page: store.Page{Offset: 0, Limit: 2}})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Len(t, page, 2)
}

func TestUpdateManagers(t *testing.T) {
	env := coretest.NewEnv()
	svc := activity.NewService(env.Deps)
	a := env.Seed(t, coretest.Activity("A1"))

	updated, err := svc.UpdateManagers(context.Background(), a.ID, organizer, activity.Managers{
		Administrators: []string{"admin", "admin", organizer},
		Blacklist:      []model.BlacklistEntry{{UserID: "troll", Reason: "多次爽约"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"admin"}, []string(updated.Administrators))
	require.Len(t, updated.Blacklist, 1)
	assert.Equal(t, coretest.Epoch, updated.Blacklist[0].AddedAt)

	_, err = svc.UpdateManagers(context.Background(), a.ID, "admin", activity.Managers{Whitelist: []string{"x"}})
	assert.ErrorIs(t, err, response.ErrForbidden, "管理员不能修改名单")
}

func TestSweep(t *testing.T) {
	env := coretest.NewEnv()
	ctx := context.Background()
	svc := activity.NewService(env.Deps)
	a := env.Seed(t, coretest.Activity("A1"))
	b := env.Seed(t, coretest.Activity("A2", func(a *model.Activity) {
		a.StartTime = a.StartTime.Add(24 * time.Hour)
		a.EndTime = a.EndTime.Add(24 * time.Hour)
	}))

	n, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	env.Clock.Set(a.StartTime.Add(time.Minute))
	n, err = svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, model.ActivityOngoing, env.Load(t, a.ID).Status)
	assert.Equal(t, model.ActivityPublished, env.Load(t, b.ID).Status)

	env.Clock.Set(a.EndTime)
	activity.NewSweeper(svc, lock.New(nil), time.Minute).RunOnce(ctx)
	assert.Equal(t, model.ActivityFinished, env.Load(t, a.ID).Status)
}

func TestGroupDefinitions(t *testing.T) {
	ctx := context.Background()
	groups := func() []model.Group {
		return []model.Group{{ID: "g1", Name: "男子组", Total: 10, Joined: 7}, {ID: "g2", Name: "女子组", Total: 10}}
	}

	t.Run("create ignores joined", func(t *testing.T) {
		env := coretest.NewEnv()
		svc := activity.NewService(env.Deps)
		in := input()
		in.Groups = groups()

		a, err := svc.Create(ctx, organizer, in)
		require.NoError(t, err)
		require.Len(t, a.Groups, 2)
		assert.Zero(t, a.Group("g1").Joined)
	})

	t.Run("invalid", func(t *testing.T) {
		env := coretest.NewEnv()
		svc := activity.NewService(env.Deps)
		for name, modify := range map[string]func(g []model.Group){
			"duplicate id":    func(g []model.Group) { g[1].ID = "g1" },
			"empty name":      func(g []model.Group) { g[0].Name = "" },
			"above total":     func(g []model.Group) { g[0].Total = 21 },
			"zero group size": func(g []model.Group) { g[1].Total = 0 },
		} {
			in := input()
			in.Groups = groups()
			modify(in.Groups)
			_, err := svc.Create(ctx, organizer, in)
			assert.ErrorIs(t, err, response.ErrInvalidRequest, name)
		}
	})

	t.Run("update keeps joined", func(t *testing.T) {
		env := coretest.NewEnv()
		svc := activity.NewService(env.Deps)
		a := env.Seed(t, coretest.Activity("A1", func(a *model.Activity) {
			a.Total, a.Joined = 20, 7
			a.Groups = groups()
		}))

		shrunk := []model.Group{{ID: "g1", Name: "男子组", Total: 6}}
		_, err := svc.Update(ctx, a.ID, organizer, activity.Patch{Groups: shrunk})
		assert.ErrorIs(t, err, response.ErrCapacityConflict, "缩到已报名人数以下")

		without := []model.Group{{ID: "g2", Name: "女子组", Total: 10}}
		_, err = svc.Update(ctx, a.ID, organizer, activity.Patch{Groups: without})
		assert.ErrorIs(t, err, response.ErrCapacityConflict, "已有报名的分组不能删除")

		next := []model.Group{{ID: "g1", Name: "成人组", Total: 8}, {ID: "g3", Name: "亲子组", Total: 5, Joined: 5}}
		updated, err := svc.Update(ctx, a.ID, organizer, activity.Patch{Groups: next})
		require.NoError(t, err)
		assert.Equal(t, []model.Group{
			{ID: "g1", Name: "成人组", Total: 8, Joined: 7},
			{ID: "g3", Name: "亲子组", Total: 5},
		}, []model.Group(updated.Groups))
		assert.Equal(t, env.Clock.Now(), env.Load(t, a.ID).UpdatedAt)
	})

	t.Run("delete resets group counters", func(t *testing.T) {
		env := coretest.NewEnv()
		svc := activity.NewService(env.Deps)
		regs := registration.NewService(env.Deps)
		a := env.Seed(t, coretest.Activity("A1", func(a *model.Activity) { a.Groups = groups()[1:] }))
		_, err := regs.Create(ctx, a.ID, "u1", registration.Input{Name: "小李", GroupID: "g2"})
		require.NoError(t, err)
		require.Equal(t, 1, env.Load(t, a.ID).Group("g2").Joined)

		_, err = svc.Cancel(ctx, a.ID, organizer)
		require.NoError(t, err)
		require.NoError(t, svc.Delete(ctx, a.ID, organizer))
		assert.Zero(t, env.Load(t, a.ID).Group("g2").Joined)
	})
}
