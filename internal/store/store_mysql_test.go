//go:build mysql

// MySQL 上的并发测试。SQLite 的写事务本身串行，只有在 MySQL 上 LockActivity 的行锁才真正承担互斥。
// 运行方式：MYSQL_TEST_DSN='user:pass@tcp(127.0.0.1:3306)/activity_test?parseTime=true&loc=UTC' go test -tags mysql ./internal/store/
package store_test

import (
	"activity-assistant/internal/core"
	"activity-assistant/internal/core/registration"
	"activity-assistant/internal/global/response"
	"activity-assistant/internal/model"
	"activity-assistant/internal/store"
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMySQL(t *testing.T) store.Store {
	dsn := os.Getenv("MYSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("MYSQL_TEST_DSN 未设置")
	}
	db, err := gorm.Open(gormmysql.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(32)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrator().DropTable(store.Models...))
	require.NoError(t, db.AutoMigrate(store.Models...))
	return store.NewGorm(db)
}

// race 并发报名同一个活动，返回成功和名额已满的次数
func race(t *testing.T, svc *registration.Service, activityID, groupID string, n int) (ok, full int64) {
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, err := svc.Create(context.Background(), activityID, fmt.Sprintf("u%02d", i), registration.Input{Name: "并发", GroupID: groupID})
			switch {
			case err == nil:
				atomic.AddInt64(&ok, 1)
			case errors.Is(err, response.ErrFull):
				atomic.AddInt64(&full, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	close(start)
	wg.Wait()
	return ok, full
}

func TestMySQLLastSlot(t *testing.T) {
	s := newMySQL(t)
	now := time.Now().UTC()
	svc := registration.NewService(core.Deps{Store: s, Now: func() time.Time { return now }})

	a := activity("A1", now.Add(24*time.Hour))
	a.Total = 3
	a.Joined = 2
	a.Blacklist = nil
	create(t, s, func(tx store.Tx) error { return tx.CreateActivity(a) })

	ok, full := race(t, svc, a.ID, "", 30)
	assert.EqualValues(t, 1, ok)
	assert.EqualValues(t, 29, full)

	got, err := s.GetActivity(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Joined)
	counts, err := s.CountRegistrations(context.Background(), store.RegistrationFilter{ActivityID: a.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts[model.RegistrationApproved])
}

func TestMySQLLastGroupSlot(t *testing.T) {
	s := newMySQL(t)
	now := time.Now().UTC()
	svc := registration.NewService(core.Deps{Store: s, Now: func() time.Time { return now }})

	a := activity("A1", now.Add(24*time.Hour))
	a.Total = 20
	a.Joined = 1
	a.Blacklist = nil
	a.Groups = []model.Group{{ID: "g1", Name: "一组", Total: 2, Joined: 1}, {ID: "g2", Name: "二组", Total: 10}}
	create(t, s, func(tx store.Tx) error { return tx.CreateActivity(a) })

	ok, full := race(t, svc, a.ID, "g1", 30)
	assert.EqualValues(t, 1, ok)
	assert.EqualValues(t, 29, full)

	got, err := s.GetActivity(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Joined)
	assert.Equal(t, 2, got.Group("g1").Joined)
	assert.Zero(t, got.Group("g2").Joined)
}
