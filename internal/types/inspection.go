package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	InspectionStatusPass = "PASS"
	InspectionStatusFail = "FAIL"

	// RoomStatusNotSubmitted is only used in building matrices, never persisted.
	RoomStatusNotSubmitted = "NOT_SUBMITTED"
)

type Inspection struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	RoomNumber     string    `gorm:"not null;column:room_number" json:"room_number"`
	Building       string    `gorm:"column:building" json:"building"`
	PhotoKey       string    `gorm:"column:photo_key" json:"photo_key"`
	PhotoURL       string    `gorm:"column:photo_url" json:"photo_url"`
	Score          int       `gorm:"not null;default:0;column:score" json:"score"`
	Status         string    `gorm:"not null;column:status;index" json:"status"`
	Feedback       string    `gorm:"type:text;column:feedback" json:"feedback"`
	AdminComment   string    `gorm:"type:text;column:admin_comment" json:"admin_comment"`
	IsReInspection bool      `gorm:"not null;default:false;column:is_re_inspection" json:"is_re_inspection"`
	FallbackScored bool      `gorm:"not null;default:false;column:fallback_scored" json:"fallback_scored"`
	InspectionDate time.Time `gorm:"type:date;not null;index;column:inspection_date" json:"inspection_date"`
	SubmittedAt    time.Time `gorm:"not null;column:submitted_at" json:"submitted_at"`
	CreatedAt      time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Inspection) TableName() string {
	return "inspection"
}
