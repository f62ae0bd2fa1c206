package httpclient

import (
	"activity-assistant/internal/global/sentry/tracing"
	"time"

	"github.com/go-resty/resty/v2"
)

var Client *resty.Client

func Init() {
	Client = New(10 * time.Second)
}

// New 创建带重试和 Sentry 追踪的客户端
func New(timeout time.Duration) *resty.Client {
	c := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond)
	if tracing.IsEnabled() {
		tracing.SetupResty(c)
	}
	return c
}
