package redis

import (
	"activity-assistant/config"
	"activity-assistant/internal/global/sentry/tracing"
	"context"
	"net"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Client 未配置 Redis 时为 nil，调用方需要自行降级
var Client *redis.Client

func Init() error {
	cfg := config.Get().Redis
	if !cfg.Enabled() {
		return nil
	}

	c := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if tracing.IsEnabled() {
		c.AddHook(tracing.NewRedisHook())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, "redis ping")
	}
	Client = c
	return nil
}

func Close() error {
	if Client == nil {
		return nil
	}
	return Client.Close()
}
