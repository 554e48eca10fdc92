package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotificationBooking  = "booking"
	NotificationReminder = "reminder"
	NotificationBadge    = "badge"
	NotificationSystem   = "system"
)

type Notification struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Type      string    `gorm:"size:30;not null" json:"type"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
