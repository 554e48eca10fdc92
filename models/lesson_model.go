package models

import (
	"time"

	"github.com/google/uuid"
)

type Lesson struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Title           string    `gorm:"size:255;not null" json:"title"`
	Description     string    `gorm:"type:text" json:"description"`
	Instrument      string    `gorm:"size:50;index" json:"instrument"`
	Duration        int       `gorm:"not null;default:30" json:"duration"`
	AvailableSlots  *int      `json:"available_slots,omitempty"`
	PremiumOnly     bool      `gorm:"not null;default:false" json:"premium_only"`
	DifficultyLevel int       `gorm:"not null;default:1" json:"difficulty_level"`
	ContentURL      *string   `gorm:"size:255" json:"content_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
