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

// ProfileUpdate carries the fields a resident may change on their own
// profile. Nil fields are left untouched.
type ProfileUpdate struct {
	Name       *string
	RoomNumber *string
	Building   *string
}

type UserService interface {
	Get(ctx context.Context, id uuid.UUID) (*types.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*types.User, error)
	Roster(ctx context.Context, building string) ([]*types.User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*types.User, error)
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) UserService {
	return &userService{db: db, log: log.With("service", "UserService"), userRepo: userRepo}
}

func (us *userService) Get(ctx context.Context, id uuid.UUID) (*types.User, error) {
	user, err := us.userRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", pkgerrors.ErrNotFound, id)
	}
	return user, nil
}

func (us *userService) UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*types.User, error) {
	if _, err := us.Get(ctx, id); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", pkgerrors.ErrInvalidArgument)
		}
		updates["name"] = name
	}
	if update.RoomNumber != nil {
		updates["room_number"] = strings.TrimSpace(*update.RoomNumber)
	}
	if update.Building != nil {
		updates["building"] = strings.TrimSpace(*update.Building)
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", pkgerrors.ErrInvalidArgument)
	}
	if err := us.userRepo.UpdateFields(ctx, nil, id, updates); err != nil {
		return nil, err
	}
	return us.Get(ctx, id)
}

func (us *userService) Roster(ctx context.Context, building string) ([]*types.User, error) {
	return us.userRepo.ListActiveByBuilding(ctx, nil, building)
}

func (us *userService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*types.User, error) {
	if _, err := us.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := us.userRepo.UpdateFields(ctx, nil, id, map[string]interface{}{"is_active": active}); err != nil {
		return nil, err
	}
	return us.Get(ctx, id)
}
