package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/yungbote/dormguard-backend/internal/pkg/errors"
	"github.com/yungbote/dormguard-backend/internal/pkg/logger"
	"github.com/yungbote/dormguard-backend/internal/repos"
	"github.com/yungbote/dormguard-backend/internal/types"
	"github.com/yungbote/dormguard-backend/internal/utils"
)

const defaultSettingName = "default"

type SettingsService interface {
	EnsureDefault(ctx context.Context) error
	Create(ctx context.Context, row *types.InspectionSetting) (*types.InspectionSetting, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*types.InspectionSetting, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*types.InspectionSetting, error)
	List(ctx context.Context) ([]*types.InspectionSetting, error)

	// CheckSubmissionAllowed runs the time gate against the enabled policies
	// and decorates denials with the next scheduled opportunity.
	CheckSubmissionAllowed(ctx context.Context, now time.Time) (*GateDecision, error)
}

type settingsService struct {
	db           *gorm.DB
	log          *logger.Logger
	settingRepo  repos.InspectionSettingRepo
	scheduleRepo repos.ScheduleRepo
}

func NewSettingsService(db *gorm.DB, log *logger.Logger, settingRepo repos.InspectionSettingRepo, scheduleRepo repos.ScheduleRepo) SettingsService {
	return &settingsService{
		db:           db,
		log:          log.With("service", "SettingsService"),
		settingRepo:  settingRepo,
		scheduleRepo: scheduleRepo,
	}
}

// EnsureDefault seeds the nightly 21:00-23:59 policy on first boot so a
// fresh install starts with a sane window.
func (s *settingsService) EnsureDefault(ctx context.Context) error {
	existing, err := s.settingRepo.GetByName(ctx, nil, defaultSettingName)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	row := &types.InspectionSetting{
		ID:               uuid.New(),
		Name:             defaultSettingName,
		StartTime:        "21:00",
		EndTime:          "23:59",
		Weekdays:         types.WeekdaysAll,
		IsDefault:        true,
		Enabled:          true,
		PassScore:        6,
		ExifEnabled:      true,
		TimeToleranceMin: 10,
		ExifFailPolicy:   types.ExifFailPolicyZero,
		ExifFailPenalty:  3,
		GPSRadiusM:       100,
	}
	_, err = s.settingRepo.Create(ctx, nil, []*types.InspectionSetting{row})
	if err == nil {
		s.log.Info("Seeded default inspection setting")
	}
	return err
}

func (s *settingsService) Create(ctx context.Context, row *types.InspectionSetting) (*types.InspectionSetting, error) {
	if row == nil || row.Name == "" {
		return nil, fmt.Errorf("%w: setting name required", pkgerrors.ErrInvalidArgument)
	}
	if _, err := parseClock(row.StartTime); err != nil {
		return nil, err
	}
	if _, err := parseClock(row.EndTime); err != nil {
		return nil, err
	}
	existing, err := s.settingRepo.GetByName(ctx, nil, row.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: setting %q already exists", pkgerrors.ErrConflict, row.Name)
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.Weekdays == "" {
		row.Weekdays = types.WeekdaysAll
	}
	if row.PassScore == 0 {
		row.PassScore = 6
	}
	if row.ExifFailPolicy == "" {
		row.ExifFailPolicy = types.ExifFailPolicyZero
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.settingRepo.Create(ctx, tx, []*types.InspectionSetting{row}); err != nil {
			return err
		}
		if row.IsDefault {
			if err := s.settingRepo.ClearDefaultExcept(ctx, tx, row.ID); err != nil {
				return err
			}
		}
		return s.syncSchedule(ctx, tx, row)
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *settingsService) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*types.InspectionSetting, error) {
	existing, err := s.settingRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: setting %s", pkgerrors.ErrNotFound, id)
	}
	if v, ok := updates["start_time"].(string); ok {
		if _, err := parseClock(v); err != nil {
			return nil, err
		}
	}
	if v, ok := updates["end_time"].(string); ok {
		if _, err := parseClock(v); err != nil {
			return nil, err
		}
	}

	var updated *types.InspectionSetting
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.settingRepo.UpdateFields(ctx, tx, id, updates); err != nil {
			return err
		}
		if v, ok := updates["is_default"].(bool); ok && v {
			if err := s.settingRepo.ClearDefaultExcept(ctx, tx, id); err != nil {
				return err
			}
		}
		row, err := s.settingRepo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		updated = row
		return s.syncSchedule(ctx, tx, row)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *settingsService) Delete(ctx context.Context, id uuid.UUID) error {
	existing, err := s.settingRepo.GetByID(ctx, nil, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("%w: setting %s", pkgerrors.ErrNotFound, id)
	}
	if existing.IsDefault {
		return fmt.Errorf("%w: the default setting cannot be deleted", pkgerrors.ErrInvalidArgument)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.scheduleRepo.FullDeleteBySettingID(ctx, tx, id); err != nil {
			return err
		}
		return s.settingRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{id})
	})
}

func (s *settingsService) Get(ctx context.Context, id uuid.UUID) (*types.InspectionSetting, error) {
	row, err := s.settingRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("%w: setting %s", pkgerrors.ErrNotFound, id)
	}
	return row, nil
}

func (s *settingsService) List(ctx context.Context) ([]*types.InspectionSetting, error) {
	return s.settingRepo.ListAll(ctx, nil)
}

func (s *settingsService) CheckSubmissionAllowed(ctx context.Context, now time.Time) (*GateDecision, error) {
	policies, err := s.settingRepo.ListEnabled(ctx, nil)
	if err != nil {
		return nil, err
	}
	decision := EvaluateGate(now, policies)
	if decision.Allowed {
		return &decision, nil
	}

	denied := &GateDeniedError{Reason: decision.Reason}
	next, err := s.settingRepo.NextScheduledOnOrAfter(ctx, nil, now)
	if err != nil {
		s.log.Warn("Could not look up next scheduled inspection", "error", err)
	} else if next != nil && next.Date != nil {
		d := utils.DateOnly(*next.Date)
		denied.NextDate = &d
		denied.DaysUntil = int(d.Sub(utils.DateOnly(now)).Hours() / 24)
	}
	return nil, denied
}

// syncSchedule keeps the calendar row of a date-pinned setting in step with
// the setting itself.
func (s *settingsService) syncSchedule(ctx context.Context, tx *gorm.DB, row *types.InspectionSetting) error {
	if row == nil {
		return nil
	}
	existing, err := s.scheduleRepo.GetBySettingID(ctx, tx, row.ID)
	if err != nil {
		return err
	}
	if row.Date == nil {
		if existing != nil {
			return s.scheduleRepo.FullDeleteBySettingID(ctx, tx, row.ID)
		}
		return nil
	}
	title := "Room inspection: " + row.Name
	if existing != nil {
		return s.scheduleRepo.UpdateFields(ctx, tx, existing.ID, map[string]interface{}{
			"title": title,
			"date":  utils.DateOnly(*row.Date),
		})
	}
	settingID := row.ID
	_, err = s.scheduleRepo.Create(ctx, tx, []*types.Schedule{{
		ID:        uuid.New(),
		Title:     title,
		Category:  types.ScheduleCategoryInspection,
		Date:      utils.DateOnly(*row.Date),
		SettingID: &settingID,
	}})
	return err
}
