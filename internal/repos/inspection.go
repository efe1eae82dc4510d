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

// InspectionSummary carries aggregate counts for a day or for all time.
type InspectionSummary struct {
	Total         int64 `json:"total"`
	Passed        int64 `json:"passed"`
	Failed        int64 `json:"failed"`
	ReInspections int64 `json:"re_inspections"`
}

type InspectionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Inspection) ([]*types.Inspection, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Inspection, error)
	ListByUserAndDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, date time.Time) ([]*types.Inspection, error)
	ListByDate(ctx context.Context, tx *gorm.DB, date time.Time) ([]*types.Inspection, error)
	ListByBuildingAndDate(ctx context.Context, tx *gorm.DB, building string, date time.Time) ([]*types.Inspection, error)
	ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Inspection, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	CountSummary(ctx context.Context, tx *gorm.DB, date *time.Time) (*InspectionSummary, error)
}

type inspectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInspectionRepo(db *gorm.DB, baseLog *logger.Logger) InspectionRepo {
	return &inspectionRepo{db: db, log: baseLog.With("repo", "InspectionRepo")}
}

func (r *inspectionRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Inspection) ([]*types.Inspection, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Inspection{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *inspectionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Inspection, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Inspection
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

// ListByUserAndDate returns the subject's records for one day, newest first.
func (r *inspectionRepo) ListByUserAndDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, date time.Time) ([]*types.Inspection, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Inspection
	if userID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("user_id = ? AND inspection_date = ?", userID, utils.DateOnly(date)).
		Order("submitted_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *inspectionRepo) ListByDate(ctx context.Context, tx *gorm.DB, date time.Time) ([]*types.Inspection, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Inspection
	if err := t.WithContext(ctx).
		Where("inspection_date = ?", utils.DateOnly(date)).
		Order("submitted_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *inspectionRepo) ListByBuildingAndDate(ctx context.Context, tx *gorm.DB, building string, date time.Time) ([]*types.Inspection, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Inspection
	if building == "" {
		return r.ListByDate(ctx, tx, date)
	}
	if err := t.WithContext(ctx).
		Where("building = ? AND inspection_date = ?", building, utils.DateOnly(date)).
		Order("submitted_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *inspectionRepo) ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Inspection, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 {
		limit = 200
	}
	var out []*types.Inspection
	if err := t.WithContext(ctx).
		Order("submitted_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *inspectionRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now()
	return t.WithContext(ctx).
		Model(&types.Inspection{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *inspectionRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.Inspection{}).Error
}

func (r *inspectionRepo) CountSummary(ctx context.Context, tx *gorm.DB, date *time.Time) (*InspectionSummary, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(ctx).Model(&types.Inspection{})
	if date != nil {
		q = q.Where("inspection_date = ?", utils.DateOnly(*date))
	}
	var out InspectionSummary
	if err := q.Select(
		"COUNT(*) AS total, " +
			"COUNT(*) FILTER (WHERE status = 'PASS') AS passed, " +
			"COUNT(*) FILTER (WHERE status = 'FAIL') AS failed, " +
			"COUNT(*) FILTER (WHERE is_re_inspection) AS re_inspections",
	).Scan(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}
