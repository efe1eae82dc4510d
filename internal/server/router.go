package server

import (
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yungbote/dormguard-backend/internal/handlers"
	"github.com/yungbote/dormguard-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler       *handlers.AuthHandler
	UserHandler       *handlers.UserHandler
	InspectionHandler *handlers.InspectionHandler
	SettingHandler    *handlers.SettingHandler
	TemplateHandler   *handlers.TemplateHandler
	ScheduleHandler   *handlers.ScheduleHandler
	AuthMiddleware    *middleware.AuthMiddleware
}

func allowedOrigins() []string {
	if raw := os.Getenv("CORS_ALLOWED_ORIGINS"); raw != "" {
		return strings.Split(raw, ",")
	}
	return []string{
		"http://localhost:80",
		"http://localhost:3000",
		"http://localhost:5174",
	}
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", handlers.Healthcheck)
	api := router.Group("/api")
	{
		api.POST("/auth/register", cfg.AuthHandler.Register)
		api.POST("/auth/login", cfg.AuthHandler.Login)
	}

	// Authenticated residents
	protected := api.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	{
		protected.GET("/me", cfg.UserHandler.Me)
		protected.PATCH("/me", cfg.UserHandler.UpdateMe)

		protected.POST("/inspections", cfg.InspectionHandler.Submit)
		protected.POST("/inspections/reinspect", cfg.InspectionHandler.Resubmit)
		protected.GET("/inspections/today", cfg.InspectionHandler.GetToday)
		protected.GET("/inspections/window", cfg.SettingHandler.CheckWindow)

		protected.GET("/schedules", cfg.ScheduleHandler.List)
	}

	// Admin
	admin := protected.Group("/admin")
	admin.Use(cfg.AuthMiddleware.RequireAdmin())
	{
		admin.GET("/inspections", cfg.InspectionHandler.List)
		admin.GET("/inspections/:id", cfg.InspectionHandler.Get)
		admin.POST("/inspections/:id/pass", cfg.InspectionHandler.ManualPass)
		admin.POST("/inspections/:id/fail", cfg.InspectionHandler.ManualFail)
		admin.POST("/inspections/:id/comment", cfg.InspectionHandler.SetComment)
		admin.DELETE("/inspections/:id", cfg.InspectionHandler.Reject)
		admin.GET("/statistics", cfg.InspectionHandler.Statistics)

		admin.GET("/buildings", cfg.InspectionHandler.ListBuildings)
		admin.GET("/buildings/:building/status", cfg.InspectionHandler.BuildingStatus)
		admin.GET("/buildings/:building/residents", cfg.UserHandler.Roster)
		admin.POST("/users/:id/active", cfg.UserHandler.SetActive)

		admin.GET("/settings", cfg.SettingHandler.List)
		admin.POST("/settings", cfg.SettingHandler.Create)
		admin.GET("/settings/:id", cfg.SettingHandler.Get)
		admin.PATCH("/settings/:id", cfg.SettingHandler.Update)
		admin.DELETE("/settings/:id", cfg.SettingHandler.Delete)

		admin.GET("/templates", cfg.TemplateHandler.List)
		admin.POST("/templates", cfg.TemplateHandler.Create)
		admin.PATCH("/templates/:id", cfg.TemplateHandler.SetEnabled)
		admin.DELETE("/templates/:id", cfg.TemplateHandler.Delete)
	}

	return router
}
