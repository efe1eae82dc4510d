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

type ScheduleRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Schedule) ([]*types.Schedule, error)
	GetBySettingID(ctx context.Context, tx *gorm.DB, settingID uuid.UUID) (*types.Schedule, error)
	ListByDateRange(ctx context.Context, tx *gorm.DB, from, to time.Time) ([]*types.Schedule, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	FullDeleteBySettingID(ctx context.Context, tx *gorm.DB, settingID uuid.UUID) error
}

type scheduleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewScheduleRepo(db *gorm.DB, baseLog *logger.Logger) ScheduleRepo {
	return &scheduleRepo{db: db, log: baseLog.With("repo", "ScheduleRepo")}
}

func (r *scheduleRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Schedule) ([]*types.Schedule, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Schedule{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *scheduleRepo) GetBySettingID(ctx context.Context, tx *gorm.DB, settingID uuid.UUID) (*types.Schedule, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if settingID == uuid.Nil {
		return nil, nil
	}
	var out []*types.Schedule
	if err := t.WithContext(ctx).
		Where("setting_id = ?", settingID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *scheduleRepo) ListByDateRange(ctx context.Context, tx *gorm.DB, from, to time.Time) ([]*types.Schedule, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Schedule
	if err := t.WithContext(ctx).
		Where("date >= ? AND date <= ?", utils.DateOnly(from), utils.DateOnly(to)).
		Order("date ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *scheduleRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now()
	return t.WithContext(ctx).
		Model(&types.Schedule{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *scheduleRepo) FullDeleteBySettingID(ctx context.Context, tx *gorm.DB, settingID uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if settingID == uuid.Nil {
		return nil
	}
	return t.WithContext(ctx).
		Where("setting_id = ?", settingID).
		Delete(&types.Schedule{}).Error
}
