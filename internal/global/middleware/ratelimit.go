package middleware

import (
	"activity-assistant/internal/global/jwt"
	"activity-assistant/internal/global/response"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// RateLimiter 按登录用户限流，未登录时按 IP。rate 形如 "20-M"，为空时不限流。
// client 为 nil 时计数保存在本进程内。
func RateLimiter(rate string, client *redis.Client) (gin.HandlerFunc, error) {
	if rate == "" {
		return func(c *gin.Context) { c.Next() }, nil
	}
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, errors.Wrapf(err, "rate %q", rate)
	}

	var store limiter.Store
	if client != nil {
		store, err = sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: "limiter"})
		if err != nil {
			return nil, errors.Wrap(err, "limiter redis store")
		}
	} else {
		store = memory.NewStore()
	}

	return mgin.NewMiddleware(limiter.New(store, r),
		mgin.WithKeyGetter(func(c *gin.Context) string {
			if id := jwt.UserID(c); id != "" {
				return "user:" + id
			}
			return "ip:" + c.ClientIP()
		}),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			response.Fail(c, response.ErrTooManyRequest)
			c.Abort()
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			response.Fail(c, response.ErrServerInternal.WithOrigin(err))
			c.Abort()
		}),
	), nil
}
