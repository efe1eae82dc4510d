package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/yungbote/dormguard-backend/internal/pkg/errors"
	"github.com/yungbote/dormguard-backend/internal/services"
)

type TemplateHandler struct {
	templateService services.TemplateService
}

func NewTemplateHandler(templateService services.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService: templateService}
}

func (th *TemplateHandler) Create(c *gin.Context) {
	photo, mimeType, err := readPhoto(c)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	row, err := th.templateService.Create(
		c.Request.Context(),
		c.PostForm("name"),
		c.PostForm("building"),
		c.PostForm("room_type"),
		mimeType,
		photo,
	)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"template": row})
}

func (th *TemplateHandler) List(c *gin.Context) {
	rows, err := th.templateService.List(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"templates": rows})
}

func (th *TemplateHandler) SetEnabled(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", fmt.Errorf("%w: enabled flag required", pkgerrors.ErrInvalidArgument))
		return
	}
	row, err := th.templateService.SetEnabled(c.Request.Context(), id, *req.Enabled)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"template": row})
}

func (th *TemplateHandler) Delete(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if err := th.templateService.Delete(c.Request.Context(), id); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}
