package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/dormguard-backend/internal/server"
)

func wireRouter(handlerset Handlers, mw Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AuthHandler:       handlerset.Auth,
		UserHandler:       handlerset.User,
		InspectionHandler: handlerset.Inspection,
		SettingHandler:    handlerset.Setting,
		TemplateHandler:   handlerset.Template,
		ScheduleHandler:   handlerset.Schedule,
		AuthMiddleware:    mw.Auth,
	})
}
