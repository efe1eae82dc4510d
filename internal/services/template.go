package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/yungbote/dormguard-backend/internal/pkg/errors"
	"github.com/yungbote/dormguard-backend/internal/pkg/logger"
	"github.com/yungbote/dormguard-backend/internal/repos"
	"github.com/yungbote/dormguard-backend/internal/types"
)

// TemplateService manages the reference photos a building's submissions can
// be compared against.
type TemplateService interface {
	Create(ctx context.Context, name, building, roomType, mimeType string, photo []byte) (*types.RoomTemplate, error)
	Get(ctx context.Context, id uuid.UUID) (*types.RoomTemplate, error)
	List(ctx context.Context) ([]*types.RoomTemplate, error)
	SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) (*types.RoomTemplate, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type templateService struct {
	db           *gorm.DB
	log          *logger.Logger
	templateRepo repos.RoomTemplateRepo
	files        FileService
}

func NewTemplateService(db *gorm.DB, log *logger.Logger, templateRepo repos.RoomTemplateRepo, files FileService) TemplateService {
	return &templateService{
		db:           db,
		log:          log.With("service", "TemplateService"),
		templateRepo: templateRepo,
		files:        files,
	}
}

func (ts *templateService) Create(ctx context.Context, name, building, roomType, mimeType string, photo []byte) (*types.RoomTemplate, error) {
	name = strings.TrimSpace(name)
	building = strings.TrimSpace(building)
	if name == "" || building == "" {
		return nil, fmt.Errorf("%w: name and building are required", pkgerrors.ErrInvalidArgument)
	}
	if len(photo) == 0 {
		return nil, fmt.Errorf("%w: photo required", pkgerrors.ErrInvalidArgument)
	}
	stored, err := ts.files.SaveTemplatePhoto(ctx, building, mimeType, photo)
	if err != nil {
		return nil, err
	}
	row := &types.RoomTemplate{
		ID:       uuid.New(),
		Name:     name,
		Building: building,
		RoomType: roomType,
		PhotoKey: stored.Key,
		PhotoURL: stored.URL,
		MimeType: mimeType,
		Enabled:  true,
	}
	if _, err := ts.templateRepo.Create(ctx, nil, []*types.RoomTemplate{row}); err != nil {
		return nil, err
	}
	return row, nil
}

func (ts *templateService) Get(ctx context.Context, id uuid.UUID) (*types.RoomTemplate, error) {
	row, err := ts.templateRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("%w: template %s", pkgerrors.ErrNotFound, id)
	}
	return row, nil
}

func (ts *templateService) List(ctx context.Context) ([]*types.RoomTemplate, error) {
	return ts.templateRepo.ListAll(ctx, nil)
}

func (ts *templateService) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) (*types.RoomTemplate, error) {
	if _, err := ts.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := ts.templateRepo.UpdateFields(ctx, nil, id, map[string]interface{}{"enabled": enabled}); err != nil {
		return nil, err
	}
	return ts.Get(ctx, id)
}

func (ts *templateService) Delete(ctx context.Context, id uuid.UUID) error {
	row, err := ts.Get(ctx, id)
	if err != nil {
		return err
	}
	if row.PhotoKey != "" {
		if err := ts.files.DeletePhoto(ctx, row.PhotoKey); err != nil {
			ts.log.Warn("Could not delete template photo blob", "key", row.PhotoKey, "error", err)
		}
	}
	return ts.templateRepo.FullDeleteByIDs(ctx, nil, []uuid.UUID{id})
}
