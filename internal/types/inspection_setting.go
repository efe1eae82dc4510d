package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	// WeekdaysAll marks a policy that applies every day of the week.
	WeekdaysAll = "ALL"

	ExifFailPolicyZero    = "zero"
	ExifFailPolicyPenalty = "penalty"
)

// InspectionSetting is one submission-window policy. A non-nil Date pins the
// policy to a single calendar day; otherwise Weekdays decides applicability.
type InspectionSetting struct {
	ID               uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name             string     `gorm:"uniqueIndex;not null;column:name" json:"name"`
	StartTime        string     `gorm:"not null;column:start_time" json:"start_time"` // "HH:MM"
	EndTime          string     `gorm:"not null;column:end_time" json:"end_time"`     // "HH:MM"
	Date             *time.Time `gorm:"type:date;column:date" json:"date,omitempty"`
	Weekdays         string     `gorm:"not null;default:ALL;column:weekdays" json:"weekdays"` // "MON,WED" or "ALL"
	IsDefault        bool       `gorm:"not null;default:false;column:is_default" json:"is_default"`
	Enabled          bool       `gorm:"not null;default:true;column:enabled" json:"enabled"`
	PassScore        int        `gorm:"not null;default:6;column:pass_score" json:"pass_score"`
	ExifEnabled      bool       `gorm:"not null;default:true;column:exif_enabled" json:"exif_enabled"`
	TimeToleranceMin int        `gorm:"not null;default:10;column:time_tolerance_min" json:"time_tolerance_min"` // minutes; 0 disables the capture-time check
	ExifFailPolicy   string     `gorm:"not null;default:zero;column:exif_fail_policy" json:"exif_fail_policy"`
	ExifFailPenalty  int        `gorm:"not null;default:3;column:exif_fail_penalty" json:"exif_fail_penalty"`
	GPSEnabled       bool       `gorm:"not null;default:false;column:gps_enabled" json:"gps_enabled"`
	GPSLatitude      *float64   `gorm:"column:gps_latitude" json:"gps_latitude,omitempty"`
	GPSLongitude     *float64   `gorm:"column:gps_longitude" json:"gps_longitude,omitempty"`
	GPSRadiusM       float64    `gorm:"not null;default:100;column:gps_radius_m" json:"gps_radius_m"`
	CreatedAt        time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (InspectionSetting) TableName() string {
	return "inspection_setting"
}
