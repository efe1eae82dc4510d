package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// BuildingConfig pins the floor/room layout used when rendering a building
// status matrix. Layout is a JSON object mapping floor label to the ordered
// list of room numbers on that floor, e.g. {"3": ["301", "302", "303"]}.
// Buildings without a config fall back to a layout derived from the roster.
type BuildingConfig struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Building  string         `gorm:"uniqueIndex;not null;column:building" json:"building"`
	Layout    datatypes.JSON `gorm:"column:layout" json:"layout"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (BuildingConfig) TableName() string {
	return "building_config"
}
