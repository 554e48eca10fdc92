package models

import (
	"time"

	"github.com/google/uuid"
)

// PasswordResetOTP replaces any process-local OTP map; expired rows are swept by a cron job.
type PasswordResetOTP struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Email      string     `gorm:"size:255;not null;uniqueIndex"`
	CodeHash   string     `gorm:"not null"`
	ExpiresAt  time.Time  `gorm:"not null;index"`
	Attempts   int        `gorm:"not null;default:0"`
	VerifiedAt *time.Time
	CreatedAt  time.Time
}
