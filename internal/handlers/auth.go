package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/yungbote/dormguard-backend/internal/pkg/errors"
	"github.com/yungbote/dormguard-backend/internal/services"
	"github.com/yungbote/dormguard-backend/internal/types"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (ah *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		Name       string `json:"name"`
		RoomNumber string `json:"room_number"`
		Building   string `json:"building"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", fmt.Errorf("%w: invalid request body", pkgerrors.ErrInvalidArgument))
		return
	}
	user := types.User{
		Email:      req.Email,
		Password:   req.Password,
		Name:       req.Name,
		RoomNumber: req.RoomNumber,
		Building:   req.Building,
	}
	created, err := ah.authService.RegisterUser(c.Request.Context(), &user)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"user": created})
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", fmt.Errorf("%w: invalid request body", pkgerrors.ErrInvalidArgument))
		return
	}
	token, user, err := ah.authService.LoginUser(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"access_token": token, "user": user})
}
