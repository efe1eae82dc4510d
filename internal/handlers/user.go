package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/dormguard-backend/internal/middleware"
	pkgerrors "github.com/yungbote/dormguard-backend/internal/pkg/errors"
	"github.com/yungbote/dormguard-backend/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (uh *UserHandler) Me(c *gin.Context) {
	userID, ok := middleware.UserIDFrom(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", pkgerrors.ErrUnauthorized)
		return
	}
	user, err := uh.userService.Get(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"user": user})
}

func (uh *UserHandler) UpdateMe(c *gin.Context) {
	userID, ok := middleware.UserIDFrom(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", pkgerrors.ErrUnauthorized)
		return
	}
	var req struct {
		Name       *string `json:"name"`
		RoomNumber *string `json:"room_number"`
		Building   *string `json:"building"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", fmt.Errorf("%w: invalid request body", pkgerrors.ErrInvalidArgument))
		return
	}
	user, err := uh.userService.UpdateProfile(c.Request.Context(), userID, services.ProfileUpdate{
		Name:       req.Name,
		RoomNumber: req.RoomNumber,
		Building:   req.Building,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"user": user})
}

func (uh *UserHandler) Roster(c *gin.Context) {
	users, err := uh.userService.Roster(c.Request.Context(), c.Param("building"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"residents": users})
}

func (uh *UserHandler) SetActive(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	var req struct {
		Active *bool `json:"active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", fmt.Errorf("%w: active flag required", pkgerrors.ErrInvalidArgument))
		return
	}
	user, err := uh.userService.SetActive(c.Request.Context(), id, *req.Active)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"user": user})
}
