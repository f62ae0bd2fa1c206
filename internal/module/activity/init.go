package activity

import (
	"activity-assistant/internal/core"
	activitycore "activity-assistant/internal/core/activity"
	"activity-assistant/internal/global/database"
	"activity-assistant/internal/global/idgen"
	"activity-assistant/internal/global/logger"
	"activity-assistant/internal/global/mq"
	"log/slog"
)

var (
	log *slog.Logger
	svc *activitycore.Service
)

type ModuleActivity struct{}

func (p *ModuleActivity) GetName() string {
	return "Activity"
}

func (p *ModuleActivity) Init() {
	log = logger.New("Activity")
	svc = activitycore.NewService(core.Deps{
		Store:     database.Store,
		IDs:       idgen.Default,
		Publisher: mq.Default,
	})
}

// Service 供状态巡检任务复用
func Service() *activitycore.Service {
	return svc
}
