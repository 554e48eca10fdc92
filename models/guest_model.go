package models

import (
	"time"

	"github.com/google/uuid"
)

type GuestSession struct {
	GuestID      string    `gorm:"column:guest_id;size:64;primary_key" json:"guest_id"`
	IPAddress    string    `gorm:"size:64" json:"ip_address"`
	UserAgent    string    `gorm:"size:512" json:"user_agent"`
	PlayCount    int       `gorm:"not null;default:0" json:"play_count"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

func (GuestSession) TableName() string {
	return "guest_users"
}

type GuestAccessLog struct {
	ID         uint      `gorm:"primary_key" json:"id"`
	GuestID    string    `gorm:"size:64;not null;index" json:"guest_id"`
	LessonID   uuid.UUID `gorm:"type:uuid;not null" json:"lesson_id"`
	AccessedAt time.Time `gorm:"not null" json:"accessed_at"`
}

type GameProgress struct {
	ID           uint      `gorm:"primary_key" json:"-"`
	GuestID      string    `gorm:"size:64;not null;uniqueIndex:idx_game_progress_guest_game" json:"guest_id"`
	GameID       string    `gorm:"size:64;not null;uniqueIndex:idx_game_progress_guest_game" json:"game_id"`
	Score        int       `gorm:"not null;default:0" json:"score"`
	ProgressData string    `gorm:"type:jsonb" json:"progress_data"`
	Completed    bool      `gorm:"not null;default:false" json:"completed"`
	PlayedAt     time.Time `json:"played_at"`
}

func (GameProgress) TableName() string {
	return "game_progress"
}
