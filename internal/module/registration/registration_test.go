package registration

import (
	"activity-assistant/internal/core/coretest"
	registrationcore "activity-assistant/internal/core/registration"
	"activity-assistant/internal/global/logger"
	"activity-assistant/internal/global/response"
	"activity-assistant/internal/model"
	"activity-assistant/test"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, opts ...func(a *model.Activity)) (*coretest.Env, *model.Activity) {
	t.Helper()
	env := coretest.NewEnv()
	log = logger.New("Registration")
	svc = registrationcore.NewService(env.Deps)
	return env, env.Seed(t, coretest.Activity("A1", opts...))
}

func register(t *testing.T, userID, activityID string) response.ResponseBody {
	t.Helper()
	return test.DoRequest(t, CreateRegistration, test.Request{
		Method: http.MethodPost,
		UserID: userID,
		Body: map[string]any{
			"activity_id": activityID,
			"name":        "张三",
			"mobile":      "13800000000",
			"custom_data": []model.Field{{Key: "学号", Value: "2023001"}, {Key: "学院", Value: "软件"}},
		},
	})
}

func TestCreateRegistration(t *testing.T) {
	env, a := setup(t)

	reg := test.Data[model.Registration](t, register(t, "u1", a.ID))
	assert.Equal(t, model.RegistrationApproved, reg.Status)
	assert.Equal(t, "学号", reg.CustomData[0].Key, "保持提交顺序")
	assert.Equal(t, 1, env.Load(t, a.ID).Joined)

	test.ErrorEqual(t, response.ErrDuplicate, register(t, "u1", a.ID))
	test.ErrorEqual(t, response.ErrNotFound, register(t, "u2", "A404"))

	resp := test.DoRequest(t, CreateRegistration, test.Request{Method: http.MethodPost, UserID: "u3", Body: map[string]any{"activity_id": a.ID}})
	test.ErrorEqual(t, response.ErrInvalidRequest, resp)
}

func TestApproveFlow(t *testing.T) {
	_, a := setup(t, func(a *model.Activity) { a.NeedReview = true })
	reg := test.Data[model.Registration](t, register(t, "u1", a.ID))
	require.Equal(t, model.RegistrationPending, reg.Status)

	approve := func(userID string, body map[string]any) response.ResponseBody {
		return test.DoRequest(t, ApproveRegistration, test.Request{
			Method: http.MethodPut,
			UserID: userID,
			Params: map[string]string{"id": reg.ID},
			Body:   body,
		})
	}

	test.ErrorEqual(t, response.ErrInvalidRequest, approve(coretest.Organizer, map[string]any{"note": "缺少结论"}))
	test.ErrorEqual(t, response.ErrForbidden, approve("u1", map[string]any{"approved": true}))

	approved := test.Data[model.Registration](t, approve(coretest.Organizer, map[string]any{"approved": true, "note": "欢迎"}))
	assert.Equal(t, model.RegistrationApproved, approved.Status)
	assert.Equal(t, coretest.Organizer, approved.DecidedBy)

	test.ErrorEqual(t, response.ErrInvalidState, approve(coretest.Organizer, map[string]any{"approved": false}))
}

func TestListAndCancel(t *testing.T) {
	_, a := setup(t)
	r1 := test.Data[model.Registration](t, register(t, "u1", a.ID))
	test.Data[model.Registration](t, register(t, "u2", a.ID))

	resp := test.DoRequest(t, ListActivityRegistrations, test.Request{UserID: coretest.Organizer, Params: map[string]string{"id": a.ID}})
	all := test.Data[response.PageResult[model.Registration]](t, resp)
	assert.EqualValues(t, 2, all.Total)

	resp = test.DoRequest(t, ListActivityRegistrations, test.Request{UserID: "u1", Params: map[string]string{"id": a.ID}})
	test.ErrorEqual(t, response.ErrForbidden, resp)

	resp = test.DoRequest(t, CancelRegistration, test.Request{Method: http.MethodDelete, UserID: "u2", Params: map[string]string{"id": r1.ID}})
	test.ErrorEqual(t, response.ErrForbidden, resp)

	resp = test.DoRequest(t, CancelRegistration, test.Request{Method: http.MethodDelete, UserID: "u1", Params: map[string]string{"id": r1.ID}})
	assert.Equal(t, model.RegistrationCancelled, test.Data[model.Registration](t, resp).Status)

	resp = test.DoRequest(t, ListMyRegistrations, test.Request{UserID: "u1", Query: url.Values{"status": {"approved"}}})
	assert.Empty(t, test.Data[response.PageResult[model.Registration]](t, resp).List)

	resp = test.DoRequest(t, ListMyRegistrations, test.Request{UserID: "u1", Query: url.Values{"status": {"approved", "cancelled"}}})
	assert.EqualValues(t, 1, test.Data[response.PageResult[model.Registration]](t, resp).Total)

	resp = test.DoRequest(t, GetRegistration, test.Request{UserID: coretest.Organizer, Params: map[string]string{"id": r1.ID}})
	assert.Equal(t, r1.ID, test.Data[model.Registration](t, resp).ID)
}

func TestRegisterIntoGroup(t *testing.T) {
	env, a := setup(t, func(a *model.Activity) {
		a.Groups = []model.Group{{ID: "g1", Name: "一组", Total: 1}, {ID: "g2", Name: "二组", Total: 3}}
	})
	join := func(userID, groupID string) response.ResponseBody {
		return test.DoRequest(t, CreateRegistration, test.Request{
			Method: http.MethodPost,
			UserID: userID,
			Body:   map[string]any{"activity_id": a.ID, "name": userID, "group_id": groupID},
		})
	}

	test.ErrorEqual(t, response.ErrInvalidRequest, join("u1", ""))
	reg := test.Data[model.Registration](t, join("u1", "g1"))
	assert.Equal(t, "g1", reg.GroupID)
	test.ErrorEqual(t, response.ErrFull, join("u2", "g1"))
	test.Data[model.Registration](t, join("u2", "g2"))

	got := env.Load(t, a.ID)
	assert.Equal(t, 2, got.Joined)
	assert.Equal(t, 1, got.Group("g1").Joined)
	assert.Equal(t, 1, got.Group("g2").Joined)
}
