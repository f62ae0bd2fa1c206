package server

import (
	"activity-assistant/config"
	"activity-assistant/internal/core/activity"
	"activity-assistant/internal/global/database"
	"activity-assistant/internal/global/httpclient"
	"activity-assistant/internal/global/idgen"
	"activity-assistant/internal/global/lock"
	"activity-assistant/internal/global/logger"
	"activity-assistant/internal/global/middleware"
	"activity-assistant/internal/global/mq"
	internalOtel "activity-assistant/internal/global/otel"
	"activity-assistant/internal/global/pictureBed"
	"activity-assistant/internal/global/redis"
	"activity-assistant/internal/global/sentry"
	"activity-assistant/internal/module"
	activitymodule "activity-assistant/internal/module/activity"
	"activity-assistant/tools"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

var log *slog.Logger

func Init() {
	config.Init()
	log = logger.New("Server")

	tools.PanicOnErr(sentry.Init())

	if config.Get().OTel.Enable {
		log.Info("OTel Enabled")
		tools.PanicOnErr(internalOtel.Init(context.Background()))
	}

	tools.PanicOnErr(redis.Init())
	tools.PanicOnErr(database.Init())
	log.Info("存储已就绪", "driver", config.Get().Storage.Driver)

	httpclient.Init()
	mq.Init()
	idgen.Init(redis.Client, database.DB == nil)
	tools.PanicOnErr(pictureBed.Init(context.Background()))

	for _, m := range module.Modules {
		log.Info(fmt.Sprintf("Init Module: %s", m.GetName()))
		m.Init()
	}
}

// NewRouter 组装中间件和各模块路由
func NewRouter() *gin.Engine {
	gin.SetMode(string(config.Get().Mode))
	r := gin.New()

	r.Use(sentry.Middleware())
	r.Use(middleware.SentryEnrichIP())
	switch config.Get().Mode {
	case config.ModeRelease:
		r.Use(middleware.Logger(logger.Get()))
	case config.ModeDebug:
		r.Use(gin.Logger())
	}
	r.Use(middleware.Cors())
	r.Use(middleware.Recovery())

	if config.Get().OTel.Enable {
		r.Use(middleware.Trace())
	}

	for _, m := range module.Modules {
		log.Info(fmt.Sprintf("Init Router: %s", m.GetName()))
		m.InitRouter(r.Group("/" + config.Get().Prefix))
	}
	return r
}

func Run() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeper := activity.NewSweeper(activitymodule.Service(), lock.New(redis.Client), config.Get().Sweep.Interval)
	go sweeper.Run(ctx)

	srv := &http.Server{
		Addr:    net.JoinHostPort(config.Get().Host, config.Get().Port),
		Handler: NewRouter(),
	}
	go func() {
		log.Info("HTTP 服务启动", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP 服务异常退出", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("正在关闭服务")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP 服务关闭失败", "error", err)
	}
	if err := mq.Default.Close(); err != nil {
		log.Warn("事件发送器关闭失败", "error", err)
	}
	if err := internalOtel.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shutdown TracerProvider", "error", err)
	}
	if err := redis.Close(); err != nil {
		log.Warn("Redis 关闭失败", "error", err)
	}
	sentry.Flush(2 * time.Second)
}
