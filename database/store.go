package database

import (
	"context"
	"errors"
	"time"

	"github.com/anjiri1684/mixlab_studio/models"
	"github.com/anjiri1684/mixlab_studio/services"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	_ services.BookingStore = (*GormStore)(nil)
	_ services.GuestStore   = (*GormStore)(nil)
	_ services.OTPStore     = (*GormStore)(nil)
)

// GormStore implements the service stores on top of gorm. Inside a
// transaction it wraps the transaction handle.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) DB() *gorm.DB {
	return s.db
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return services.ErrRecordNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return services.ErrSlotTaken
	default:
		return err
	}
}

func (s *GormStore) ExistsConflictingBooking(ctx context.Context, slotKey string, excludeID *uuid.UUID) (bool, error) {
	q := s.db.WithContext(ctx).Model(&models.Booking{}).
		Where("slot_key = ? AND status <> ?", slotKey, models.BookingCancelled)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GormStore) InsertBooking(ctx context.Context, b *models.Booking) error {
	return translate(s.db.WithContext(ctx).Create(b).Error)
}

func (s *GormStore) UpdateBooking(ctx context.Context, id uuid.UUID, f services.BookingUpdate) (*models.Booking, error) {
	fields := map[string]any{"updated_at": time.Now()}
	if f.Date != nil {
		fields["date"] = *f.Date
	}
	if f.StartTime != nil {
		fields["start_time"] = *f.StartTime
	}
	if f.EndTime != nil {
		fields["end_time"] = *f.EndTime
	}
	if f.SlotKey != nil {
		fields["slot_key"] = *f.SlotKey
	}
	if f.Status != nil {
		fields["status"] = *f.Status
	}
	if f.CheckedInAt != nil {
		fields["checked_in_at"] = *f.CheckedInAt
	}

	res := s.db.WithContext(ctx).Model(&models.Booking{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, services.ErrRecordNotFound
	}
	return s.FindBookingByID(ctx, id)
}

func (s *GormStore) FindBookingByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var b models.Booking
	if err := s.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (s *GormStore) LockBookingByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var b models.Booking
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&b, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (s *GormStore) FindBookingByQR(ctx context.Context, qr string) (*models.Booking, error) {
	var b models.Booking
	if err := s.db.WithContext(ctx).First(&b, "qr_code = ?", qr).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (s *GormStore) FindBookingsByUser(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.WithContext(ctx).
		Where("student_id = ? OR instructor_id = ?", userID, userID).
		Order("date DESC").
		Order("start_time DESC NULLS LAST").
		Order("created_at DESC").
		Find(&bookings).Error
	return bookings, err
}

// FindBookingsOnDate returns the active (pending or confirmed) bookings on date.
func (s *GormStore) FindBookingsOnDate(ctx context.Context, date string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.WithContext(ctx).
		Where("date = ? AND status IN ?", date, []string{models.BookingPending, models.BookingConfirmed}).
		Order("start_time NULLS FIRST").
		Find(&bookings).Error
	return bookings, err
}

func (s *GormStore) InBookingTx(ctx context.Context, fn func(tx services.BookingStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (s *GormStore) FindGuestByID(ctx context.Context, guestID string) (*models.GuestSession, error) {
	var g models.GuestSession
	if err := s.db.WithContext(ctx).First(&g, "guest_id = ?", guestID).Error; err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

func (s *GormStore) LockGuest(ctx context.Context, guestID string) (*models.GuestSession, error) {
	var g models.GuestSession
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&g, "guest_id = ?", guestID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

func (s *GormStore) TouchGuest(ctx context.Context, g *models.GuestSession) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "guest_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_activity"}),
		}).
		Create(g).Error
}

func (s *GormStore) IncrementGuestPlayCount(ctx context.Context, guestID string) error {
	return s.db.WithContext(ctx).Model(&models.GuestSession{}).
		Where("guest_id = ?", guestID).
		UpdateColumn("play_count", gorm.Expr("play_count + ?", 1)).Error
}

func (s *GormStore) FindLessonByID(ctx context.Context, lessonID uuid.UUID) (*models.Lesson, error) {
	var l models.Lesson
	if err := s.db.WithContext(ctx).First(&l, "id = ?", lessonID).Error; err != nil {
		return nil, translate(err)
	}
	return &l, nil
}

func (s *GormStore) CountGuestAccesses(ctx context.Context, guestID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.GuestAccessLog{}).
		Where("guest_id = ?", guestID).
		Count(&count).Error
	return count, err
}

func (s *GormStore) InsertGuestAccessLog(ctx context.Context, guestID string, lessonID uuid.UUID) error {
	return s.db.WithContext(ctx).Create(&models.GuestAccessLog{
		GuestID:    guestID,
		LessonID:   lessonID,
		AccessedAt: time.Now(),
	}).Error
}

// SaveGameProgress keeps the best score and a sticky completed flag.
func (s *GormStore) SaveGameProgress(ctx context.Context, p *models.GameProgress) error {
	return s.db.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns: []clause.Column{{Name: "guest_id"}, {Name: "game_id"}},
				DoUpdates: clause.Assignments(map[string]any{
					"score":         gorm.Expr("GREATEST(game_progress.score, EXCLUDED.score)"),
					"progress_data": gorm.Expr("EXCLUDED.progress_data"),
					"completed":     gorm.Expr("game_progress.completed OR EXCLUDED.completed"),
					"played_at":     gorm.Expr("EXCLUDED.played_at"),
				}),
			},
			clause.Returning{},
		).
		Create(p).Error
}

func (s *GormStore) ListGameProgress(ctx context.Context, guestID string) ([]models.GameProgress, error) {
	var progress []models.GameProgress
	err := s.db.WithContext(ctx).
		Where("guest_id = ?", guestID).
		Order("played_at DESC").
		Find(&progress).Error
	return progress, err
}

func (s *GormStore) InGuestTx(ctx context.Context, fn func(tx services.GuestStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (s *GormStore) InsertNotification(ctx context.Context, n *models.Notification) error {
	return s.db.WithContext(ctx).Create(n).Error
}

func (s *GormStore) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	q := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&notifications).Error
	return notifications, err
}

func (s *GormStore) MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return services.ErrRecordNotFound
	}
	return nil
}

func (s *GormStore) UpsertOTP(ctx context.Context, otp *models.PasswordResetOTP) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "email"}},
			DoUpdates: clause.Assignments(map[string]any{
				"code_hash":   otp.CodeHash,
				"expires_at":  otp.ExpiresAt,
				"attempts":    0,
				"verified_at": nil,
				"created_at":  otp.CreatedAt,
			}),
		}).
		Create(otp).Error
}

func (s *GormStore) FindOTP(ctx context.Context, email string) (*models.PasswordResetOTP, error) {
	var otp models.PasswordResetOTP
	if err := s.db.WithContext(ctx).First(&otp, "email = ?", email).Error; err != nil {
		return nil, translate(err)
	}
	return &otp, nil
}

func (s *GormStore) UpdateOTP(ctx context.Context, otp *models.PasswordResetOTP) error {
	return s.db.WithContext(ctx).Model(&models.PasswordResetOTP{}).
		Where("email = ?", otp.Email).
		Updates(map[string]any{
			"attempts":    otp.Attempts,
			"verified_at": otp.VerifiedAt,
		}).Error
}

func (s *GormStore) DeleteOTP(ctx context.Context, email string) error {
	return s.db.WithContext(ctx).Where("email = ?", email).Delete(&models.PasswordResetOTP{}).Error
}

func (s *GormStore) DeleteExpiredOTPs(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.PasswordResetOTP{})
	return res.RowsAffected, res.Error
}
