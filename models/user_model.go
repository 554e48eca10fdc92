package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Username       string    `gorm:"size:100;not null" json:"username"`
	Email          string    `gorm:"size:255;not null;unique" json:"email"`
	Password       string    `gorm:"not null" json:"-"`
	Role           string    `gorm:"size:20;not null;default:'student'" json:"role"`
	Specialization *string   `gorm:"size:100" json:"specialization,omitempty"`

	XP     int      `gorm:"default:0" json:"xp"`
	Badges []*Badge `gorm:"many2many:user_badges;" json:"badges,omitempty"`

	IsActive bool `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
