// Package lock 提供跨实例的互斥锁，用于只允许单实例执行的定时任务
package lock

import (
	"context"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var ErrNotAcquired = errors.New("lock not acquired")

type Locker interface {
	// TryLock 不等待；拿不到锁返回 ErrNotAcquired
	TryLock(ctx context.Context, name string, ttl time.Duration) (unlock func(), err error)
}

type redsyncLocker struct {
	rs *redsync.Redsync
}

// New client 为 nil 时退化为进程内锁
func New(client *redis.Client) Locker {
	if client == nil {
		return &localLocker{held: make(map[string]struct{})}
	}
	return &redsyncLocker{rs: redsync.New(goredis.NewPool(client))}
}

func (l *redsyncLocker) TryLock(ctx context.Context, name string, ttl time.Duration) (func(), error) {
	m := l.rs.NewMutex("mutex:"+name, redsync.WithExpiry(ttl), redsync.WithTries(1))
	if err := m.LockContext(ctx); err != nil {
		return nil, errors.Wrap(ErrNotAcquired, err.Error())
	}
	return func() {
		_, _ = m.UnlockContext(context.Background())
	}, nil
}

type localLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func (l *localLocker) TryLock(_ context.Context, name string, _ time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[name]; ok {
		return nil, ErrNotAcquired
	}
	l.held[name] = struct{}{}
	return func() {
		l.mu.Lock()
		delete(l.held, name)
		l.mu.Unlock()
	}, nil
}
