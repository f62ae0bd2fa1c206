package test

import (
	"activity-assistant/internal/global/jwt"
	"activity-assistant/internal/global/response"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Request 直接调用 handler 时的请求参数，UserID 非空时视为已登录
type Request struct {
	Method string
	UserID string
	Params map[string]string
	Query  url.Values
	Body   any
}

// Do 用 gin.CreateTestContext 调用 handler 并返回原始响应
func Do(t *testing.T, handlerFunc gin.HandlerFunc, req Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if req.Body != nil {
		requestBytes, err := json.Marshal(req.Body)
		require.NoError(t, err)
		body = bytes.NewReader(requestBytes)
	}
	target := "/test"
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}
	c.Request = httptest.NewRequest(method, target, body)
	if body != nil {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.Params {
		c.Params = append(c.Params, gin.Param{Key: k, Value: v})
	}
	if req.UserID != "" {
		c.Set(jwt.PayloadKey, &jwt.Claims{UserID: req.UserID})
	}

	handlerFunc(c)
	return w
}

// DoRequest 以 JSON 响应体解析结果
func DoRequest(t *testing.T, handlerFunc gin.HandlerFunc, req Request) (resp response.ResponseBody) {
	t.Helper()
	w := Do(t, handlerFunc, req)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return
}
