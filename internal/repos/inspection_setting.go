package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/dormguard-backend/internal/pkg/logger"
	"github.com/yungbote/dormguard-backend/internal/types"
	"github.com/yungbote/dormguard-backend/internal/utils"
)

type InspectionSettingRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.InspectionSetting) ([]*types.InspectionSetting, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.InspectionSetting, error)
	GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.InspectionSetting, error)
	ListAll(ctx context.Context, tx *gorm.DB) ([]*types.InspectionSetting, error)
	ListEnabled(ctx context.Context, tx *gorm.DB) ([]*types.InspectionSetting, error)
	NextScheduledOnOrAfter(ctx context.Context, tx *gorm.DB, date time.Time) (*types.InspectionSetting, error)
	ClearDefaultExcept(ctx context.Context, tx *gorm.DB, keep uuid.UUID) error
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type inspectionSettingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInspectionSettingRepo(db *gorm.DB, baseLog *logger.Logger) InspectionSettingRepo {
	return &inspectionSettingRepo{db: db, log: baseLog.With("repo", "InspectionSettingRepo")}
}

func (r *inspectionSettingRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.InspectionSetting) ([]*types.InspectionSetting, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.InspectionSetting{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *inspectionSettingRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.InspectionSetting, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.InspectionSetting
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

func (r *inspectionSettingRepo) GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.InspectionSetting, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if name == "" {
		return nil, nil
	}
	var out []*types.InspectionSetting
	if err := t.WithContext(ctx).
		Where("name = ?", name).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *inspectionSettingRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.InspectionSetting, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.InspectionSetting
	if err := t.WithContext(ctx).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *inspectionSettingRepo) ListEnabled(ctx context.Context, tx *gorm.DB) ([]*types.InspectionSetting, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.InspectionSetting
	if err := t.WithContext(ctx).
		Where("enabled = ?", true).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// NextScheduledOnOrAfter finds the soonest enabled date-pinned policy whose
// date is on or after the given day.
func (r *inspectionSettingRepo) NextScheduledOnOrAfter(ctx context.Context, tx *gorm.DB, date time.Time) (*types.InspectionSetting, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.InspectionSetting
	if err := t.WithContext(ctx).
		Where("enabled = ? AND date IS NOT NULL AND date >= ?", true, utils.DateOnly(date)).
		Order("date ASC").
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *inspectionSettingRepo) ClearDefaultExcept(ctx context.Context, tx *gorm.DB, keep uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).
		Model(&types.InspectionSetting{}).
		Where("is_default = ? AND id <> ?", true, keep).
		Updates(map[string]interface{}{"is_default": false, "updated_at": time.Now()}).Error
}

func (r *inspectionSettingRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now()
	return t.WithContext(ctx).
		Model(&types.InspectionSetting{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *inspectionSettingRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.InspectionSetting{}).Error
}
