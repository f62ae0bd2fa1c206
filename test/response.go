package test

import (
	"activity-assistant/internal/global/response"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func ErrorEqual(t *testing.T, expected *response.Error, resp response.ResponseBody) {
	t.Helper()
	require.Equal(t, expected.Code, resp.Code, resp.Msg)
}

func NoError(t *testing.T, resp response.ResponseBody) {
	t.Helper()
	require.Equal(t, response.CodeSuccess, resp.Code, resp.Msg)
}

// Data 把 resp.Data 转成具体类型
func Data[T any](t *testing.T, resp response.ResponseBody) T {
	t.Helper()
	NoError(t, resp)
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}
