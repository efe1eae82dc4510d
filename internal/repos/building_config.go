package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/dormguard-backend/internal/pkg/logger"
	"github.com/yungbote/dormguard-backend/internal/types"
)

type BuildingConfigRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.BuildingConfig) ([]*types.BuildingConfig, error)
	GetByBuilding(ctx context.Context, tx *gorm.DB, building string) (*types.BuildingConfig, error)
	ListAll(ctx context.Context, tx *gorm.DB) ([]*types.BuildingConfig, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type buildingConfigRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBuildingConfigRepo(db *gorm.DB, baseLog *logger.Logger) BuildingConfigRepo {
	return &buildingConfigRepo{db: db, log: baseLog.With("repo", "BuildingConfigRepo")}
}

func (r *buildingConfigRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.BuildingConfig) ([]*types.BuildingConfig, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.BuildingConfig{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *buildingConfigRepo) GetByBuilding(ctx context.Context, tx *gorm.DB, building string) (*types.BuildingConfig, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if building == "" {
		return nil, nil
	}
	var out []*types.BuildingConfig
	if err := t.WithContext(ctx).
		Where("building = ?", building).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *buildingConfigRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.BuildingConfig, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.BuildingConfig
	if err := t.WithContext(ctx).
		Order("building ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *buildingConfigRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now()
	return t.WithContext(ctx).
		Model(&types.BuildingConfig{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *buildingConfigRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.BuildingConfig{}).Error
}
