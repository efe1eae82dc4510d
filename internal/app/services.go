package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/dormguard-backend/internal/pkg/logger"
	"github.com/yungbote/dormguard-backend/internal/services"
)

type Services struct {
	Auth       services.AuthService
	User       services.UserService
	Settings   services.SettingsService
	Exif       services.ExifService
	Scorer     services.ScorerService
	File       services.FileService
	Template   services.TemplateService
	Inspection services.InspectionService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	bucket, err := services.NewBucketService(log)
	if err != nil {
		log.Warn("Bucket unavailable, photos will not be persisted to object storage", "error", err)
		bucket = nil
	}
	fileService := services.NewFileService(log, bucket)

	authService := services.NewAuthService(db, log, reposet.User, cfg.JWTSecretKey, cfg.AccessTokenTTL)
	userService := services.NewUserService(db, log, reposet.User)
	settingsService := services.NewSettingsService(db, log, reposet.InspectionSetting, reposet.Schedule)
	exifService := services.NewExifService(log)
	scorerService := services.NewScorerService(log, clients.Gemini)
	templateService := services.NewTemplateService(db, log, reposet.RoomTemplate, fileService)

	inspectionService := services.NewInspectionService(
		db, log,
		reposet.User, reposet.Inspection, reposet.RoomTemplate, reposet.BuildingConfig,
		settingsService, exifService, scorerService, fileService, clients.Cache,
	)

	return Services{
		Auth:       authService,
		User:       userService,
		Settings:   settingsService,
		Exif:       exifService,
		Scorer:     scorerService,
		File:       fileService,
		Template:   templateService,
		Inspection: inspectionService,
	}, nil
}
