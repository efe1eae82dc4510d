package app

import (
	"github.com/yungbote/dormguard-backend/internal/handlers"
	"github.com/yungbote/dormguard-backend/internal/pkg/logger"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	User       *handlers.UserHandler
	Inspection *handlers.InspectionHandler
	Setting    *handlers.SettingHandler
	Template   *handlers.TemplateHandler
	Schedule   *handlers.ScheduleHandler
}

func wireHandlers(log *logger.Logger, serviceset Services, reposet Repos) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Auth:       handlers.NewAuthHandler(serviceset.Auth),
		User:       handlers.NewUserHandler(serviceset.User),
		Inspection: handlers.NewInspectionHandler(serviceset.Inspection),
		Setting:    handlers.NewSettingHandler(serviceset.Settings),
		Template:   handlers.NewTemplateHandler(serviceset.Template),
		Schedule:   handlers.NewScheduleHandler(reposet.Schedule),
	}
}
