package response

import (
	"errors"
	"fmt"
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

// ErrorContextKey 是 gin.Context 中存放错误对象的键
const ErrorContextKey = "error"

// ResponseContextKey 是 gin.Context 中存放响应体的键，供 Sentry 上报使用
const ResponseContextKey = "response_body"

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// Error 业务错误：错误码 + 提示 + 可选的原始错误链
type Error struct {
	Code    int32  `json:"code"`
	Message string `json:"msg"`
	Origin  string `json:"origin,omitempty"`

	status int
	cause  error
	stack  pkgerrors.StackTrace
}

func newError(code int32, status int, msg string) *Error {
	return &Error{
		Code:    code,
		Message: msg,
		status:  status,
	}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("code:%d, msg:%s, origin:%v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("code:%d, msg:%s", e.Code, e.Message)
}

// GetCode 实现 sentry.CodedError
func (e *Error) GetCode() int32 {
	return e.Code
}

// HTTPStatus 返回写回客户端的 HTTP 状态码
func (e *Error) HTTPStatus() int {
	if e.status == 0 {
		return http.StatusOK
	}
	return e.status
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) StackTrace() pkgerrors.StackTrace {
	if e.stack != nil {
		return e.stack
	}
	if st, ok := e.cause.(stackTracer); ok {
		return st.StackTrace()
	}
	return nil
}

// Is 只比较错误码，WithTips/WithOrigin 派生出的错误与原错误相等
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithOrigin 附带原始错误（debug 模式下返回给前端），保留堆栈供 Sentry 提取
func (e *Error) WithOrigin(err error) *Error {
	if err == nil {
		return e
	}
	wrapped := ensureStack(err)
	n := e.clone()
	n.Origin = fmt.Sprintf("%+v", wrapped)
	n.cause = wrapped
	if st, ok := wrapped.(stackTracer); ok {
		n.stack = st.StackTrace()
	}
	return n
}

// WithTips 追加给前端的提示信息（release 模式也可见）
func (e *Error) WithTips(details ...string) *Error {
	n := e.clone()
	n.Message = e.Message + " " + fmt.Sprintf("%v", details)
	return n
}

func (e *Error) clone() *Error {
	n := *e
	return &n
}

func ensureStack(err error) error {
	if _, ok := err.(stackTracer); ok {
		return err
	}
	return pkgerrors.WithStack(err)
}
