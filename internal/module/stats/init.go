package stats

import (
	"activity-assistant/internal/core"
	statscore "activity-assistant/internal/core/stats"
	"activity-assistant/internal/global/database"
	"activity-assistant/internal/global/logger"
	"log/slog"
)

var (
	log *slog.Logger
	svc *statscore.Service
)

type ModuleStats struct{}

func (*ModuleStats) GetName() string {
	return "Stats"
}

func (*ModuleStats) Init() {
	log = logger.New("Stats")
	svc = statscore.NewService(core.Deps{Store: database.Store})
}
