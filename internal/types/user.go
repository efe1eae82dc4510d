package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

type User struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email      string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password   string    `gorm:"not null;column:password" json:"-"`
	Name       string    `gorm:"not null;column:name" json:"name"`
	RoomNumber string    `gorm:"column:room_number" json:"room_number"`
	Building   string    `gorm:"column:building" json:"building"`
	Role       string    `gorm:"not null;default:student;column:role" json:"role"`
	IsActive   bool      `gorm:"not null;default:true;column:is_active" json:"is_active"`
	CreatedAt  time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (User) TableName() string {
	return "user"
}
