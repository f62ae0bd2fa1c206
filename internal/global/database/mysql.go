package database

import (
	"activity-assistant/config"
	"activity-assistant/internal/global/sentry/tracing"
	"activity-assistant/internal/store"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var DB *gorm.DB

// Store 业务层使用的存储，按 Storage.Driver 选择实现
var Store store.Store

func Init() error {
	switch config.Get().Storage.Driver {
	case config.StorageMysql:
		db, err := Open(config.Get().Mysql)
		if err != nil {
			return err
		}
		if err := db.AutoMigrate(store.Models...); err != nil {
			return errors.Wrap(err, "auto migrate")
		}
		DB = db
		Store = store.NewGorm(db)
	default:
		Store = store.NewMemory()
	}
	return nil
}

// DSN 时间统一按 UTC 存取
func DSN(cfg config.Mysql) string {
	c := mysql.NewConfig()
	c.User = cfg.Username
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, cfg.Port)
	c.DBName = cfg.DBName
	c.ParseTime = true
	c.Loc = time.UTC
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c.FormatDSN()
}

func Open(cfg config.Mysql) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: true}, // 还是单数表名好
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}

	switch config.Get().Mode {
	case config.ModeDebug:
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	case config.ModeRelease:
		gormConfig.Logger = logger.Discard
	}

	db, err := gorm.Open(gormmysql.Open(DSN(cfg)), gormConfig)
	if err != nil {
		return nil, errors.Wrap(err, "open mysql")
	}
	if tracing.IsEnabled() {
		if err := db.Use(tracing.NewGormPlugin()); err != nil {
			return nil, errors.Wrap(err, "gorm tracing")
		}
	}
	return db, nil
}
