package registration

import (
	"activity-assistant/internal/core"
	registrationcore "activity-assistant/internal/core/registration"
	"activity-assistant/internal/global/database"
	"activity-assistant/internal/global/idgen"
	"activity-assistant/internal/global/logger"
	"activity-assistant/internal/global/mq"
	"log/slog"
)

var (
	log *slog.Logger
	svc *registrationcore.Service
)

type ModuleRegistration struct{}

func (p *ModuleRegistration) GetName() string {
	return "Registration"
}

func (p *ModuleRegistration) Init() {
	log = logger.New("Registration")
	svc = registrationcore.NewService(core.Deps{
		Store:     database.Store,
		IDs:       idgen.Default,
		Publisher: mq.Default,
	})
}
