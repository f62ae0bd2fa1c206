package module

import (
	"activity-assistant/internal/module/activity"
	"activity-assistant/internal/module/checkin"
	"activity-assistant/internal/module/ping"
	"activity-assistant/internal/module/registration"
	"activity-assistant/internal/module/review"
	"activity-assistant/internal/module/stats"

	"github.com/gin-gonic/gin"
)

type Module interface {
	GetName() string
	Init()
	InitRouter(r *gin.RouterGroup)
}

var Modules []Module

func registerModule(m []Module) {
	Modules = append(Modules, m...)
}

func init() {
	// Register your module here
	registerModule([]Module{
		&ping.ModulePing{},
		&activity.ModuleActivity{},
		&registration.ModuleRegistration{},
		&checkin.ModuleCheckin{},
		&stats.ModuleStats{},
		&review.ModuleReview{},
	})
}
