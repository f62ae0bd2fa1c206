package tracing

import (
	"activity-assistant/config"
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisHook 为 Redis 命令创建 Sentry span
type RedisHook struct {
	slowThreshold time.Duration
}

func NewRedisHook() *RedisHook {
	return &RedisHook{
		slowThreshold: time.Duration(config.Get().Sentry.Tracing.RedisSlowThresholdMs) * time.Millisecond,
	}
}

func (h *RedisHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *RedisHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		span := StartSpan(ctx, "db.redis", strings.ToUpper(cmd.Name()))
		if span != nil {
			span.SetData("db.system", "redis")
			ctx = span.Context()
		}
		err := next(ctx, cmd)
		if errors.Is(err, redis.Nil) {
			finish(span, time.Since(start), h.slowThreshold, nil)
		} else {
			finish(span, time.Since(start), h.slowThreshold, err)
		}
		return err
	}
}

func (h *RedisHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		names := make([]string, 0, 3)
		for i, cmd := range cmds {
			if i == 3 {
				names = append(names, "...")
				break
			}
			names = append(names, strings.ToUpper(cmd.Name()))
		}
		span := StartSpan(ctx, "db.redis.pipeline", "PIPELINE: "+strings.Join(names, ", "))
		if span != nil {
			span.SetData("redis.pipeline_length", len(cmds))
			ctx = span.Context()
		}
		err := next(ctx, cmds)
		finish(span, time.Since(start), h.slowThreshold, err)
		return err
	}
}
