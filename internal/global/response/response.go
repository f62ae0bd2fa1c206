package response

import (
	"activity-assistant/config"
	"activity-assistant/internal/global/sentry"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type ResponseBody struct {
	Code   int32  `json:"code"`
	Msg    string `json:"msg"`
	Origin string `json:"origin,omitempty"`
	Data   any    `json:"data,omitempty"`
}

func Success(c *gin.Context, data ...any) {
	body := ResponseBody{Code: CodeSuccess, Msg: "success"}
	if len(data) > 0 {
		body.Data = data[0]
	}
	c.Set(ResponseContextKey, body)
	c.JSON(http.StatusOK, body)
}

// Fail 写回错误响应；非 *Error 的错误统一视为服务器内部错误
func Fail(c *gin.Context, err error) {
	var e *Error
	if !errors.As(err, &e) {
		e = ErrServerInternal.WithOrigin(err)
	}

	body := ResponseBody{Code: e.Code, Msg: e.Message}
	if config.Get().Mode == config.ModeDebug {
		body.Origin = e.Origin
	}

	c.Set(ErrorContextKey, e)
	c.Set(ResponseContextKey, body)
	sentry.CaptureException(c, e)
	c.JSON(e.HTTPStatus(), body)
}

// Recovery 用在 defer 中，把 panic 转为 500 响应
func Recovery(c *gin.Context) {
	r := recover()
	if r == nil {
		return
	}
	err, ok := r.(error)
	if !ok {
		err = fmt.Errorf("%v", r)
	}
	Fail(c, ErrServerInternal.WithOrigin(err))
	c.Abort()
}
