package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/dormguard-backend/internal/pkg/logger"
	"github.com/yungbote/dormguard-backend/internal/types"
)

type RoomTemplateRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.RoomTemplate) ([]*types.RoomTemplate, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.RoomTemplate, error)
	GetActiveByBuilding(ctx context.Context, tx *gorm.DB, building string) (*types.RoomTemplate, error)
	ListAll(ctx context.Context, tx *gorm.DB) ([]*types.RoomTemplate, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type roomTemplateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRoomTemplateRepo(db *gorm.DB, baseLog *logger.Logger) RoomTemplateRepo {
	return &roomTemplateRepo{db: db, log: baseLog.With("repo", "RoomTemplateRepo")}
}

func (r *roomTemplateRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.RoomTemplate) ([]*types.RoomTemplate, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.RoomTemplate{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *roomTemplateRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.RoomTemplate, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.RoomTemplate
	if err := t.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

// GetActiveByBuilding picks the newest enabled template for a building.
func (r *roomTemplateRepo) GetActiveByBuilding(ctx context.Context, tx *gorm.DB, building string) (*types.RoomTemplate, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.RoomTemplate
	if err := t.WithContext(ctx).
		Where("enabled = ? AND building = ?", true, building).
		Order("created_at DESC").
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *roomTemplateRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.RoomTemplate, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.RoomTemplate
	if err := t.WithContext(ctx).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *roomTemplateRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now()
	return t.WithContext(ctx).
		Model(&types.RoomTemplate{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *roomTemplateRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.RoomTemplate{}).Error
}
