package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/dormguard-backend/internal/pkg/logger"
	"github.com/yungbote/dormguard-backend/internal/repos"
)

type Repos struct {
	User              repos.UserRepo
	Inspection        repos.InspectionRepo
	InspectionSetting repos.InspectionSettingRepo
	RoomTemplate      repos.RoomTemplateRepo
	BuildingConfig    repos.BuildingConfigRepo
	Schedule          repos.ScheduleRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:              repos.NewUserRepo(db, log),
		Inspection:        repos.NewInspectionRepo(db, log),
		InspectionSetting: repos.NewInspectionSettingRepo(db, log),
		RoomTemplate:      repos.NewRoomTemplateRepo(db, log),
		BuildingConfig:    repos.NewBuildingConfigRepo(db, log),
		Schedule:          repos.NewScheduleRepo(db, log),
	}
}
