package middleware

import (
	"activity-assistant/config"
	"activity-assistant/internal/global/jwt"
	"activity-assistant/internal/global/response"
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	cfg := *config.Get()
	cfg.JWT.AccessSecret = "middleware-secret"
	config.Set(&cfg)
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(Recovery())
	handlers = append(handlers, func(c *gin.Context) {
		response.Success(c, jwt.UserID(c))
	})
	r.GET("/x", handlers...)
	return r
}

func do(t *testing.T, r http.Handler, token string) (int, response.ResponseBody) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	r.ServeHTTP(w, req)
	var body response.ResponseBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return w.Code, body
}

func TestAuth(t *testing.T) {
	r := newRouter(Auth())
	token, err := jwt.CreateToken("u1")
	require.NoError(t, err)

	code, body := do(t, r, "Bearer "+token)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "u1", body.Data)

	_, body = do(t, r, "")
	assert.Equal(t, response.ErrUnauthorized.Code, body.Code)
	_, body = do(t, r, token)
	assert.Equal(t, response.ErrTokenInvalid.Code, body.Code)
	_, body = do(t, r, "Bearer nope")
	assert.Equal(t, response.ErrTokenInvalid.Code, body.Code)
}

func TestRateLimiter(t *testing.T) {
	limit, err := RateLimiter("2-M", nil)
	require.NoError(t, err)
	r := newRouter(Auth(), limit)

	u1, err := jwt.CreateToken("u1")
	require.NoError(t, err)
	u2, err := jwt.CreateToken("u2")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, body := do(t, r, "Bearer "+u1)
		assert.Equal(t, response.CodeSuccess, body.Code)
	}
	code, body := do(t, r, "Bearer "+u1)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, response.ErrTooManyRequest.Code, body.Code)

	_, body = do(t, r, "Bearer "+u2)
	assert.Equal(t, response.CodeSuccess, body.Code, "按用户分别计数")

	_, err = RateLimiter("lots", nil)
	assert.Error(t, err)
}

func TestRecovery(t *testing.T) {
	r := newRouter(func(c *gin.Context) { panic("boom") })
	code, body := do(t, r, "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, response.ErrServerInternal.Code, body.Code)
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	r := newRouter(Logger(log))
	do(t, r, "")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "/x", entry["path"])
	assert.EqualValues(t, 200, entry["status"])
	assert.Contains(t, entry["response_body"], "success")
}
