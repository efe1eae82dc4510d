package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/dormguard-backend/internal/middleware"
	pkgerrors "github.com/yungbote/dormguard-backend/internal/pkg/errors"
	"github.com/yungbote/dormguard-backend/internal/services"
	"github.com/yungbote/dormguard-backend/internal/types"
)

// maxPhotoBytes caps a single upload at 10 MiB.
const maxPhotoBytes = 10 << 20

type InspectionHandler struct {
	inspectionService services.InspectionService
}

func NewInspectionHandler(inspectionService services.InspectionService) *InspectionHandler {
	return &InspectionHandler{inspectionService: inspectionService}
}

func readPhoto(c *gin.Context) (data []byte, mimeType string, err error) {
	fh, err := c.FormFile("photo")
	if err != nil {
		return nil, "", fmt.Errorf("%w: photo file required", pkgerrors.ErrInvalidArgument)
	}
	if fh.Size > maxPhotoBytes {
		return nil, "", fmt.Errorf("%w: photo exceeds %d bytes", pkgerrors.ErrInvalidArgument, maxPhotoBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	data, err = io.ReadAll(io.LimitReader(f, maxPhotoBytes+1))
	if err != nil {
		return nil, "", err
	}
	if len(data) > maxPhotoBytes {
		return nil, "", fmt.Errorf("%w: photo exceeds %d bytes", pkgerrors.ErrInvalidArgument, maxPhotoBytes)
	}
	mimeType = fh.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return data, mimeType, nil
}

func (ih *InspectionHandler) submit(c *gin.Context, reinspect bool) {
	userID, ok := middleware.UserIDFrom(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", pkgerrors.ErrUnauthorized)
		return
	}
	photo, mimeType, err := readPhoto(c)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	input := services.SubmitInput{
		UserID:     userID,
		RoomNumber: c.PostForm("room_number"),
		MimeType:   mimeType,
		Photo:      photo,
	}
	var rec any
	if reinspect {
		rec, err = ih.inspectionService.Resubmit(c.Request.Context(), input)
	} else {
		rec, err = ih.inspectionService.Submit(c.Request.Context(), input)
	}
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"inspection": rec})
}

func (ih *InspectionHandler) Submit(c *gin.Context) {
	ih.submit(c, false)
}

func (ih *InspectionHandler) Resubmit(c *gin.Context) {
	ih.submit(c, true)
}

func (ih *InspectionHandler) GetToday(c *gin.Context) {
	userID, ok := middleware.UserIDFrom(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", pkgerrors.ErrUnauthorized)
		return
	}
	rows, err := ih.inspectionService.GetToday(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"inspections": rows})
}

func parseDateParam(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD", pkgerrors.ErrInvalidArgument, name)
	}
	return &d, nil
}

func idParam(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id", pkgerrors.ErrInvalidArgument)
	}
	return id, nil
}

// List serves the admin feed: a specific date when ?date= is given, most
// recent submissions otherwise.
func (ih *InspectionHandler) List(c *gin.Context) {
	date, err := parseDateParam(c, "date")
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	var rows []*services.AdminRecord
	if date != nil {
		rows, err = ih.inspectionService.ListByDate(c.Request.Context(), *date)
	} else {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
		rows, err = ih.inspectionService.ListRecent(c.Request.Context(), limit)
	}
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"inspections": rows})
}

func (ih *InspectionHandler) Get(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	rec, err := ih.inspectionService.Get(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"inspection": rec})
}

type commentRequest struct {
	Comment string `json:"comment"`
}

func (ih *InspectionHandler) ManualPass(c *gin.Context) {
	ih.override(c, ih.inspectionService.ManualPass)
}

func (ih *InspectionHandler) ManualFail(c *gin.Context) {
	ih.override(c, ih.inspectionService.ManualFail)
}

func (ih *InspectionHandler) SetComment(c *gin.Context) {
	ih.override(c, ih.inspectionService.SetAdminComment)
}

func (ih *InspectionHandler) override(c *gin.Context, op func(ctx context.Context, id uuid.UUID, comment string) (*types.Inspection, error)) {
	id, err := idParam(c)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	var req commentRequest
	_ = c.ShouldBindJSON(&req)
	rec, err := op(c.Request.Context(), id, req.Comment)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"inspection": rec})
}

func (ih *InspectionHandler) Reject(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if err := ih.inspectionService.Reject(c.Request.Context(), id); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

func (ih *InspectionHandler) Statistics(c *gin.Context) {
	date, err := parseDateParam(c, "date")
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	sum, err := ih.inspectionService.Statistics(c.Request.Context(), date)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"statistics": sum})
}

func (ih *InspectionHandler) ListBuildings(c *gin.Context) {
	buildings, err := ih.inspectionService.ListBuildings(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"buildings": buildings})
}

func (ih *InspectionHandler) BuildingStatus(c *gin.Context) {
	building := c.Param("building")
	date := time.Now()
	if d, err := parseDateParam(c, "date"); err != nil {
		RespondServiceError(c, err)
		return
	} else if d != nil {
		date = *d
	}
	status, err := ih.inspectionService.BuildingStatus(c.Request.Context(), building, date)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, status)
}
