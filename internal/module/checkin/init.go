package checkin

import (
	"activity-assistant/config"
	"activity-assistant/internal/core"
	checkincore "activity-assistant/internal/core/checkin"
	"activity-assistant/internal/global/database"
	"activity-assistant/internal/global/idgen"
	"activity-assistant/internal/global/logger"
	"activity-assistant/internal/global/mq"
	"log/slog"
)

var (
	log *slog.Logger
	svc *checkincore.Service
)

type ModuleCheckin struct{}

func (p *ModuleCheckin) GetName() string {
	return "Checkin"
}

func (p *ModuleCheckin) Init() {
	log = logger.New("Checkin")
	cfg := config.Get().Checkin
	svc = checkincore.NewService(core.Deps{
		Store:     database.Store,
		IDs:       idgen.Default,
		Publisher: mq.Default,
	}, checkincore.Config{
		GracePeriod:   cfg.GracePeriod,
		LateThreshold: cfg.LateThreshold,
		MaxAttempts:   cfg.MaxAttempts,
	})
}
