// Package idgen 生成形如 A20250101000001 的业务主键：类型前缀 + 日期 + 当日序号
package idgen

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type Kind string

const (
	Activity     Kind = "A"
	Registration Kind = "R"
	Checkin      Kind = "C"
	Review       Kind = "V"
)

const dateLayout = "20060102"

type Generator interface {
	Next(ctx context.Context, kind Kind) (string, error)
}

type redisGenerator struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedis 用 INCR 维护每日序号，多实例共享
func NewRedis(client *redis.Client) Generator {
	return &redisGenerator{client: client, now: time.Now}
}

func (g *redisGenerator) Next(ctx context.Context, kind Kind) (string, error) {
	date := g.now().Format(dateLayout)
	key := "idgen:" + string(kind) + ":" + date
	n, err := g.client.Incr(ctx, key).Result()
	if err != nil {
		return "", errors.Wrap(err, "idgen incr")
	}
	if n == 1 {
		// 序号只在当天有效，留一天余量
		g.client.Expire(ctx, key, 48*time.Hour)
	}
	return format(kind, date, n), nil
}

type localGenerator struct {
	mu   sync.Mutex
	now  func() time.Time
	date map[Kind]string
	seq  map[Kind]int64
}

// NewLocal 进程内计数，只适合数据与进程同生命周期的内存存储
func NewLocal(now func() time.Time) Generator {
	if now == nil {
		now = time.Now
	}
	return &localGenerator{now: now, date: make(map[Kind]string), seq: make(map[Kind]int64)}
}

func (g *localGenerator) Next(_ context.Context, kind Kind) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	date := g.now().Format(dateLayout)
	if g.date[kind] != date {
		g.date[kind] = date
		g.seq[kind] = 0
	}
	g.seq[kind]++
	return format(kind, date, g.seq[kind]), nil
}

type uuidGenerator struct{}

// NewUUID 没有 Redis 时的兜底：日期后接随机串
func NewUUID() Generator {
	return uuidGenerator{}
}

func (uuidGenerator) Next(_ context.Context, kind Kind) (string, error) {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	return string(kind) + time.Now().Format(dateLayout) + suffix, nil
}

func format(kind Kind, date string, n int64) string {
	return fmt.Sprintf("%s%s%06d", kind, date, n)
}

// Default 由 Init 按运行环境选择
var Default Generator = NewUUID()

// Init 有 Redis 用全局序号；内存存储时数据随进程消失，进程内计数即可
func Init(client *redis.Client, inMemory bool) {
	switch {
	case client != nil:
		Default = NewRedis(client)
	case inMemory:
		Default = NewLocal(nil)
	default:
		Default = NewUUID()
	}
}
