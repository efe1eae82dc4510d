package types

import (
	"time"

	"github.com/google/uuid"
)

const ScheduleCategoryInspection = "inspection"

// Schedule is a dormitory calendar entry. Date-pinned inspection settings
// keep a companion schedule row so the inspection shows on the calendar.
type Schedule struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title     string     `gorm:"not null;column:title" json:"title"`
	Category  string     `gorm:"not null;index;column:category" json:"category"`
	Date      time.Time  `gorm:"type:date;not null;index;column:date" json:"date"`
	SettingID *uuid.UUID `gorm:"type:uuid;index;column:setting_id" json:"setting_id,omitempty"`
	CreatedAt time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (Schedule) TableName() string {
	return "schedule"
}
