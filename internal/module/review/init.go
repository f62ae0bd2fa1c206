package review

import (
	"activity-assistant/internal/core"
	reviewcore "activity-assistant/internal/core/review"
	"activity-assistant/internal/global/database"
	"activity-assistant/internal/global/idgen"
	"activity-assistant/internal/global/logger"
	"activity-assistant/internal/global/mq"
	"log/slog"
)

var (
	log *slog.Logger
	svc *reviewcore.Service
)

type ModuleReview struct{}

func (p *ModuleReview) GetName() string {
	return "Review"
}

func (p *ModuleReview) Init() {
	log = logger.New("Review")
	svc = reviewcore.NewService(core.Deps{
		Store:     database.Store,
		IDs:       idgen.Default,
		Publisher: mq.Default,
	})
}
