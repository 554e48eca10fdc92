package services

import (
	"context"
	"time"

	"github.com/anjiri1684/mixlab_studio/models"
	"github.com/google/uuid"
)

// BookingUpdate carries a partial update; nil fields keep their stored value.
type BookingUpdate struct {
	Date        *string
	StartTime   *string
	EndTime     *string
	SlotKey     *string
	Status      *string
	CheckedInAt *time.Time
}

type ConflictStore interface {
	ExistsConflictingBooking(ctx context.Context, slotKey string, excludeID *uuid.UUID) (bool, error)
}

type BookingStore interface {
	ConflictStore
	InsertBooking(ctx context.Context, b *models.Booking) error
	UpdateBooking(ctx context.Context, id uuid.UUID, fields BookingUpdate) (*models.Booking, error)
	FindBookingByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	LockBookingByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	FindBookingByQR(ctx context.Context, qr string) (*models.Booking, error)
	FindBookingsByUser(ctx context.Context, userID uuid.UUID) ([]models.Booking, error)
	InBookingTx(ctx context.Context, fn func(tx BookingStore) error) error
}

type GuestStore interface {
	FindGuestByID(ctx context.Context, guestID string) (*models.GuestSession, error)
	LockGuest(ctx context.Context, guestID string) (*models.GuestSession, error)
	TouchGuest(ctx context.Context, g *models.GuestSession) error
	IncrementGuestPlayCount(ctx context.Context, guestID string) error
	FindLessonByID(ctx context.Context, lessonID uuid.UUID) (*models.Lesson, error)
	CountGuestAccesses(ctx context.Context, guestID string) (int64, error)
	InsertGuestAccessLog(ctx context.Context, guestID string, lessonID uuid.UUID) error
	SaveGameProgress(ctx context.Context, p *models.GameProgress) error
	ListGameProgress(ctx context.Context, guestID string) ([]models.GameProgress, error)
	InGuestTx(ctx context.Context, fn func(tx GuestStore) error) error
}

type OTPStore interface {
	UpsertOTP(ctx context.Context, otp *models.PasswordResetOTP) error
	FindOTP(ctx context.Context, email string) (*models.PasswordResetOTP, error)
	UpdateOTP(ctx context.Context, otp *models.PasswordResetOTP) error
	DeleteOTP(ctx context.Context, email string) error
	DeleteExpiredOTPs(ctx context.Context, now time.Time) (int64, error)
}

// Notifier is fire-and-forget: implementations must never fail the caller.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind, message string)
}

// EventPublisher fans domain events out to a broker.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, v any) error
}

// Rewarder grants XP and badges once a lesson is completed.
type Rewarder interface {
	AwardForCompletion(ctx context.Context, studentID uuid.UUID) error
}
