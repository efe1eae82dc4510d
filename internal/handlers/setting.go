package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/dormguard-backend/internal/middleware"
	pkgerrors "github.com/yungbote/dormguard-backend/internal/pkg/errors"
	"github.com/yungbote/dormguard-backend/internal/services"
	"github.com/yungbote/dormguard-backend/internal/types"
)

type SettingHandler struct {
	settingsService services.SettingsService
}

func NewSettingHandler(settingsService services.SettingsService) *SettingHandler {
	return &SettingHandler{settingsService: settingsService}
}

type settingRequest struct {
	Name             *string  `json:"name"`
	StartTime        *string  `json:"start_time"`
	EndTime          *string  `json:"end_time"`
	Date             *string  `json:"date"`
	Weekdays         *string  `json:"weekdays"`
	IsDefault        *bool    `json:"is_default"`
	Enabled          *bool    `json:"enabled"`
	PassScore        *int     `json:"pass_score"`
	ExifEnabled      *bool    `json:"exif_enabled"`
	TimeToleranceMin *int     `json:"time_tolerance_min"`
	ExifFailPolicy   *string  `json:"exif_fail_policy"`
	ExifFailPenalty  *int     `json:"exif_fail_penalty"`
	GPSEnabled       *bool    `json:"gps_enabled"`
	GPSLatitude      *float64 `json:"gps_latitude"`
	GPSLongitude     *float64 `json:"gps_longitude"`
	GPSRadiusM       *float64 `json:"gps_radius_m"`
}

func parseSettingDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", pkgerrors.ErrInvalidArgument)
	}
	return &d, nil
}

func (sh *SettingHandler) Create(c *gin.Context) {
	var req settingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", fmt.Errorf("%w: invalid request body", pkgerrors.ErrInvalidArgument))
		return
	}
	row := &types.InspectionSetting{Weekdays: types.WeekdaysAll, Enabled: true, PassScore: 6, ExifEnabled: true, TimeToleranceMin: 10, ExifFailPolicy: types.ExifFailPolicyZero, ExifFailPenalty: 3, GPSRadiusM: 100}
	if req.Name != nil {
		row.Name = *req.Name
	}
	if req.StartTime != nil {
		row.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		row.EndTime = *req.EndTime
	}
	if req.Date != nil {
		d, err := parseSettingDate(*req.Date)
		if err != nil {
			RespondServiceError(c, err)
			return
		}
		row.Date = d
	}
	if req.Weekdays != nil {
		row.Weekdays = *req.Weekdays
	}
	if req.IsDefault != nil {
		row.IsDefault = *req.IsDefault
	}
	if req.Enabled != nil {
		row.Enabled = *req.Enabled
	}
	if req.PassScore != nil {
		row.PassScore = *req.PassScore
	}
	if req.ExifEnabled != nil {
		row.ExifEnabled = *req.ExifEnabled
	}
	if req.TimeToleranceMin != nil {
		row.TimeToleranceMin = *req.TimeToleranceMin
	}
	if req.ExifFailPolicy != nil {
		row.ExifFailPolicy = *req.ExifFailPolicy
	}
	if req.ExifFailPenalty != nil {
		row.ExifFailPenalty = *req.ExifFailPenalty
	}
	if req.GPSEnabled != nil {
		row.GPSEnabled = *req.GPSEnabled
	}
	row.GPSLatitude = req.GPSLatitude
	row.GPSLongitude = req.GPSLongitude
	if req.GPSRadiusM != nil {
		row.GPSRadiusM = *req.GPSRadiusM
	}
	created, err := sh.settingsService.Create(c.Request.Context(), row)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"setting": created})
}

func (sh *SettingHandler) Update(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	var req settingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", fmt.Errorf("%w: invalid request body", pkgerrors.ErrInvalidArgument))
		return
	}
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.StartTime != nil {
		updates["start_time"] = *req.StartTime
	}
	if req.EndTime != nil {
		updates["end_time"] = *req.EndTime
	}
	if req.Date != nil {
		d, err := parseSettingDate(*req.Date)
		if err != nil {
			RespondServiceError(c, err)
			return
		}
		updates["date"] = d
	}
	if req.Weekdays != nil {
		updates["weekdays"] = *req.Weekdays
	}
	if req.IsDefault != nil {
		updates["is_default"] = *req.IsDefault
	}
	if req.Enabled != nil {
		updates["enabled"] = *req.Enabled
	}
	if req.PassScore != nil {
		updates["pass_score"] = *req.PassScore
	}
	if req.ExifEnabled != nil {
		updates["exif_enabled"] = *req.ExifEnabled
	}
	if req.TimeToleranceMin != nil {
		updates["time_tolerance_min"] = *req.TimeToleranceMin
	}
	if req.ExifFailPolicy != nil {
		updates["exif_fail_policy"] = *req.ExifFailPolicy
	}
	if req.ExifFailPenalty != nil {
		updates["exif_fail_penalty"] = *req.ExifFailPenalty
	}
	if req.GPSEnabled != nil {
		updates["gps_enabled"] = *req.GPSEnabled
	}
	if req.GPSLatitude != nil {
		updates["gps_latitude"] = *req.GPSLatitude
	}
	if req.GPSLongitude != nil {
		updates["gps_longitude"] = *req.GPSLongitude
	}
	if req.GPSRadiusM != nil {
		updates["gps_radius_m"] = *req.GPSRadiusM
	}
	if len(updates) == 0 {
		RespondError(c, http.StatusBadRequest, "invalid_body", fmt.Errorf("%w: no fields to update", pkgerrors.ErrInvalidArgument))
		return
	}
	updated, err := sh.settingsService.Update(c.Request.Context(), id, updates)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"setting": updated})
}

func (sh *SettingHandler) Delete(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if err := sh.settingsService.Delete(c.Request.Context(), id); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

func (sh *SettingHandler) Get(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	row, err := sh.settingsService.Get(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"setting": row})
}

func (sh *SettingHandler) List(c *gin.Context) {
	rows, err := sh.settingsService.List(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"settings": rows})
}

// CheckWindow lets clients ask whether a submission would be accepted right
// now, without uploading anything.
func (sh *SettingHandler) CheckWindow(c *gin.Context) {
	if _, ok := middleware.UserIDFrom(c); !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", pkgerrors.ErrUnauthorized)
		return
	}
	decision, err := sh.settingsService.CheckSubmissionAllowed(c.Request.Context(), time.Now())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	resp := gin.H{"allowed": decision.Allowed, "reason": decision.Reason}
	if decision.Policy != nil {
		resp["window"] = gin.H{
			"name":       decision.Policy.Name,
			"start_time": decision.Policy.StartTime,
			"end_time":   decision.Policy.EndTime,
		}
	}
	RespondOK(c, resp)
}
