// Package core 领域服务共享的依赖和错误转换
package core

import (
	"activity-assistant/internal/global/idgen"
	"activity-assistant/internal/global/mq"
	"activity-assistant/internal/global/response"
	"activity-assistant/internal/store"
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
)

type Deps struct {
	Store     store.Store
	IDs       idgen.Generator
	Publisher mq.Publisher
	Now       func() time.Time
}

// WithDefaults 补齐未设置的依赖，Store 必须由调用方提供
func (d Deps) WithDefaults() Deps {
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	if d.IDs == nil {
		d.IDs = idgen.NewLocal(d.Now)
	}
	if d.Publisher == nil {
		d.Publisher = mq.Nop()
	}
	return d
}

// Emit 发布事件，失败只记日志
func (d Deps) Emit(ctx context.Context, log *slog.Logger, topic, key string, payload any) {
	if err := d.Publisher.Publish(ctx, topic, key, payload); err != nil {
		log.Warn("事件发送失败", "topic", topic, "key", key, "error", err)
	}
}

// Err 把存储层错误转为业务错误，已是 *response.Error 的原样返回
func Err(err error, notFoundTips ...string) error {
	if err == nil {
		return nil
	}
	var e *response.Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, store.ErrNotFound) {
		if len(notFoundTips) > 0 {
			return response.ErrNotFound.WithTips(notFoundTips...)
		}
		return response.ErrNotFound
	}
	return response.ErrDatabase.WithOrigin(err)
}

// Page 规范化分页参数
func Page(page, size int) store.Page {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}
	if size > 100 {
		size = 100
	}
	return store.Page{Offset: (page - 1) * size, Limit: size}
}
