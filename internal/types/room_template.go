package types

import (
	"time"

	"github.com/google/uuid"
)

// RoomTemplate is an admin-uploaded reference photo of a clean room. When an
// enabled template exists for a building the scorer compares submissions
// against it instead of grading in isolation.
type RoomTemplate struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name      string    `gorm:"not null;column:name" json:"name"`
	Building  string    `gorm:"not null;index;column:building" json:"building"`
	RoomType  string    `gorm:"column:room_type" json:"room_type"`
	PhotoKey  string    `gorm:"not null;column:photo_key" json:"photo_key"`
	PhotoURL  string    `gorm:"column:photo_url" json:"photo_url"`
	MimeType  string    `gorm:"column:mime_type" json:"mime_type"`
	Enabled   bool      `gorm:"not null;default:true;column:enabled" json:"enabled"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (RoomTemplate) TableName() string {
	return "room_template"
}
