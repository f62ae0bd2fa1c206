package activity

import (
	"activity-assistant/internal/core"
	"activity-assistant/internal/global/lock"
	"activity-assistant/internal/model"
	"activity-assistant/internal/store"
	"context"
	"time"

	"github.com/pkg/errors"
)

// Sweep 把已开始或已结束的活动状态落库，返回更新的数量。
// 读接口始终按时间计算状态，这里只是让库里的状态不至于长期滞后。
func (s *Service) Sweep(ctx context.Context) (int, error) {
	now := s.Now()
	stale, _, err := s.Store.ListActivities(ctx, store.ActivityFilter{
		Statuses:       []model.ActivityStatus{model.ActivityPublished, model.ActivityOngoing},
		StartedBy:      &now,
		IncludeDeleted: true,
	})
	if err != nil {
		return 0, core.Err(err)
	}

	updated := 0
	for _, candidate := range stale {
		if candidate.EffectiveStatus(now) == candidate.Status {
			continue
		}
		err := s.Store.Transaction(ctx, func(tx store.Tx) error {
			a, err := tx.LockActivity(candidate.ID)
			if err != nil {
				return err
			}
			next := a.EffectiveStatus(now)
			if next == a.Status {
				return nil
			}
			a.Status = next
			a.UpdatedAt = now
			updated++
			return tx.SaveActivity(a)
		})
		if err != nil {
			return updated, core.Err(err)
		}
	}
	return updated, nil
}

// Sweeper 定时执行 Sweep，多实例部署时靠分布式锁保证同一时刻只有一个实例在跑
type Sweeper struct {
	svc      *Service
	locker   lock.Locker
	interval time.Duration
}

func NewSweeper(svc *Service, locker lock.Locker, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{svc: svc, locker: locker, interval: interval}
}

// Run 阻塞直到 ctx 结束
func (w *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		w.RunOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Sweeper) RunOnce(ctx context.Context) {
	unlock, err := w.locker.TryLock(ctx, "activity-status-sweep", w.interval)
	if err != nil {
		if !errors.Is(err, lock.ErrNotAcquired) {
			w.svc.log.Warn("获取状态同步锁失败", "error", err)
		}
		return
	}
	defer unlock()

	n, err := w.svc.Sweep(ctx)
	if err != nil {
		w.svc.log.Error("活动状态同步失败", "error", err)
		return
	}
	if n > 0 {
		w.svc.log.Info("活动状态已同步", "count", n)
	}
}
