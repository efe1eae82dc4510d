package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/dormguard-backend/internal/pkg/logger"
	"github.com/yungbote/dormguard-backend/internal/types"
	"github.com/yungbote/dormguard-backend/internal/utils"
)

type DatabaseService struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewDatabaseService opens Postgres by default; DB_DRIVER=sqlite switches to
// a local file database for development.
func NewDatabaseService(log *logger.Logger) (*DatabaseService, error) {
	serviceLog := log.With("service", "DatabaseService")

	driver := strings.ToLower(utils.GetEnv("DB_DRIVER", "postgres", log))
	if driver == "sqlite" {
		path := utils.GetEnv("SQLITE_PATH", "dormguard.db", log)
		log.Info("Connecting to SQLite...", "path", path)
		sdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
			TranslateError: true,
		})
		if err != nil {
			return nil, fmt.Errorf("Failed to open SQLite database: %w", err)
		}
		return &DatabaseService{db: sdb, log: serviceLog}, nil
	}

	log.Info("Loading environment variables...")
	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "dormguard", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	pdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		log.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("Failed to connect to Postgres: %w", err)
	}

	if err := pdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		log.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("Failed to enable uuid-ossp extension: %w", err)
	}

	return &DatabaseService{db: pdb, log: serviceLog}, nil
}

func (s *DatabaseService) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	err := s.db.AutoMigrate(
		&types.User{},
		&types.Inspection{},
		&types.InspectionSetting{},
		&types.RoomTemplate{},
		&types.BuildingConfig{},
		&types.Schedule{},
	)
	if err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if s.db.Dialector.Name() != "postgres" {
		return nil
	}
	s.log.Info("Configuring constraints...")
	if err := s.db.Exec(`
		ALTER TABLE "inspection"
		DROP CONSTRAINT IF EXISTS "fk_inspection_user_id";
	`).Error; err != nil {
		return fmt.Errorf("Failed to reset fk_inspection_user_id: %w", err)
	}
	if err := s.db.Exec(`
		ALTER TABLE "inspection"
		ADD CONSTRAINT "fk_inspection_user_id"
		FOREIGN KEY ("user_id")
		REFERENCES "user"("id")
		ON DELETE CASCADE
	`).Error; err != nil {
		return fmt.Errorf("Failed to add fk_inspection_user_id: %w", err)
	}
	// One passing record per resident per day, enforced where it cannot race.
	if err := s.db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS "uq_inspection_daily_pass"
		ON "inspection" ("user_id", "inspection_date")
		WHERE "status" = 'PASS'
	`).Error; err != nil {
		return fmt.Errorf("Failed to add uq_inspection_daily_pass: %w", err)
	}
	return nil
}

func (s *DatabaseService) DB() *gorm.DB {
	return s.db
}
