package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
	BookingCompleted = "completed"
)

// Booking rows are never deleted; cancellation is a status transition.
// The partial unique index keeps at most one non-cancelled booking per slot key.
type Booking struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	StudentID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"student_id"`
	InstructorID *uuid.UUID `gorm:"type:uuid;index" json:"instructor_id,omitempty"`
	LessonType   string     `gorm:"size:100;not null" json:"lesson_type"`
	Date         string     `gorm:"size:10;not null;index" json:"date"`
	StartTime    *string    `gorm:"size:5" json:"start_time,omitempty"`
	EndTime      *string    `gorm:"size:5" json:"end_time,omitempty"`
	SlotKey      string     `gorm:"size:128;not null;uniqueIndex:idx_bookings_active_slot,where:status <> 'cancelled'" json:"-"`
	Status       string     `gorm:"size:20;not null;default:'pending';index" json:"status"`
	QRCode       string     `gorm:"size:255;not null;uniqueIndex" json:"qr_code"`
	Notes        *string    `gorm:"type:text" json:"notes,omitempty"`
	Price        float64    `gorm:"type:numeric(10,2);not null;default:0.00" json:"price"`
	CheckedInAt  *time.Time `json:"checked_in_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
