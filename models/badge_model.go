package models

import (
	"time"

	"github.com/google/uuid"
)

type Badge struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name           string    `gorm:"size:255;not null;unique" json:"name"`
	Description    string    `gorm:"type:text;not null" json:"description"`
	PointsRequired int       `gorm:"not null;default:0" json:"points_required"`
	ImageURL       string    `gorm:"size:255" json:"image_url"`
	CreatedAt      time.Time `json:"created_at"`
}
