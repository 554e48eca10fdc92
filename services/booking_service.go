package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anjiri1684/mixlab_studio/models"
	"github.com/anjiri1684/mixlab_studio/utils"
	"github.com/google/uuid"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

type CreateBookingInput struct {
	StudentID    uuid.UUID
	LessonType   string
	Date         string
	InstructorID *uuid.UUID
	StartTime    *string
	EndTime      *string
	Notes        *string
	Price        float64
}

type RescheduleInput struct {
	Date      *string
	StartTime *string
	EndTime   *string
}

// CheckInInput resolves a booking either by id or by its QR payload.
type CheckInInput struct {
	BookingID *uuid.UUID
	QRCode    string
}

type BookingService struct {
	store     BookingStore
	checker   *ConflictChecker
	notifier  Notifier
	publisher EventPublisher
	rewards   Rewarder
	now       func() time.Time
}

type BookingOption func(*BookingService)

func WithEventPublisher(p EventPublisher) BookingOption {
	return func(s *BookingService) { s.publisher = p }
}

func WithRewarder(r Rewarder) BookingOption {
	return func(s *BookingService) { s.rewards = r }
}

func WithClock(now func() time.Time) BookingOption {
	return func(s *BookingService) { s.now = now }
}

func NewBookingService(store BookingStore, checker *ConflictChecker, notifier Notifier, opts ...BookingOption) *BookingService {
	s := &BookingService{store: store, checker: checker, notifier: notifier, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BookingService) Create(ctx context.Context, in CreateBookingInput) (b *models.Booking, err error) {
	defer func() { bookingOpsTotal.WithLabelValues("create", outcomeOf(err)).Inc() }()

	if in.StudentID == uuid.Nil {
		return nil, ValidationError("student_id", "student_id is required")
	}
	in.Date = strings.TrimSpace(in.Date)
	if in.Date == "" {
		return nil, ValidationError("date", "date is required")
	}
	if err := validateSchedule(in.Date, in.StartTime, in.EndTime); err != nil {
		return nil, err
	}

	slot := SlotRequest{Date: in.Date, InstructorID: in.InstructorID, StartTime: in.StartTime}
	now := s.now()
	booking := &models.Booking{
		ID:           uuid.New(),
		StudentID:    in.StudentID,
		InstructorID: in.InstructorID,
		LessonType:   strings.TrimSpace(in.LessonType),
		Date:         in.Date,
		StartTime:    in.StartTime,
		EndTime:      in.EndTime,
		SlotKey:      s.checker.SlotKey(slot),
		Status:       models.BookingPending,
		QRCode:       utils.GenerateQRPayload(in.StudentID, in.Date),
		Notes:        in.Notes,
		Price:        in.Price,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.store.InBookingTx(ctx, func(tx BookingStore) error {
		conflict, err := s.checker.Check(ctx, tx, slot, nil)
		if err != nil {
			return err
		}
		if conflict {
			return slotTaken()
		}
		if err := tx.InsertBooking(ctx, booking); err != nil {
			if errors.Is(err, ErrSlotTaken) {
				return slotTaken()
			}
			return StoreError("insert booking", err)
		}
		return nil
	})
	if err != nil {
		return nil, asAppError("create booking", err)
	}

	s.notify(ctx, booking.StudentID, fmt.Sprintf("Your %s booking on %s has been created", lessonLabel(booking), describeSlot(booking)))
	if booking.InstructorID != nil {
		s.notify(ctx, *booking.InstructorID, fmt.Sprintf("New %s booking from student %s on %s", lessonLabel(booking), booking.StudentID, describeSlot(booking)))
	}
	s.publish(ctx, "booking.created", booking)
	return booking, nil
}

func (s *BookingService) Reschedule(ctx context.Context, id uuid.UUID, in RescheduleInput) (b *models.Booking, err error) {
	defer func() { bookingOpsTotal.WithLabelValues("reschedule", outcomeOf(err)).Inc() }()

	in.Date = blankToNil(in.Date)
	in.StartTime = blankToNil(in.StartTime)
	in.EndTime = blankToNil(in.EndTime)
	var updated *models.Booking
	err = s.store.InBookingTx(ctx, func(tx BookingStore) error {
		current, err := tx.LockBookingByID(ctx, id)
		if err != nil {
			return lookupError(err)
		}
		switch current.Status {
		case models.BookingCancelled:
			return ConflictError("booking-cancelled", "Cancelled bookings cannot be rescheduled")
		case models.BookingCompleted:
			return ConflictError("booking-completed", "Completed bookings cannot be rescheduled")
		}
		if in.Date == nil && in.StartTime == nil && in.EndTime == nil {
			return ValidationError("reschedule", "at least one of date, start_time or end_time is required")
		}

		date := current.Date
		if in.Date != nil {
			date = *in.Date
		}
		start := coalesce(in.StartTime, current.StartTime)
		end := coalesce(in.EndTime, current.EndTime)
		if err := validateSchedule(date, start, end); err != nil {
			return err
		}

		slot := SlotRequest{Date: date, InstructorID: current.InstructorID, StartTime: start}
		conflict, err := s.checker.Check(ctx, tx, slot, &current.ID)
		if err != nil {
			return err
		}
		if conflict {
			return slotTaken()
		}

		key := s.checker.SlotKey(slot)
		updated, err = tx.UpdateBooking(ctx, current.ID, BookingUpdate{
			Date:      in.Date,
			StartTime: in.StartTime,
			EndTime:   in.EndTime,
			SlotKey:   &key,
		})
		if err != nil {
			if errors.Is(err, ErrSlotTaken) {
				return slotTaken()
			}
			return StoreError("update booking", err)
		}
		return nil
	})
	if err != nil {
		return nil, asAppError("reschedule booking", err)
	}

	s.notify(ctx, updated.StudentID, fmt.Sprintf("Your %s booking has been rescheduled to %s", lessonLabel(updated), describeSlot(updated)))
	if updated.InstructorID != nil {
		s.notify(ctx, *updated.InstructorID, fmt.Sprintf("Booking with student %s has been rescheduled to %s", updated.StudentID, describeSlot(updated)))
	}
	s.publish(ctx, "booking.rescheduled", updated)
	return updated, nil
}

// Cancel archives the booking by status. Cancelling twice is a no-op.
func (s *BookingService) Cancel(ctx context.Context, id uuid.UUID) (b *models.Booking, err error) {
	defer func() { bookingOpsTotal.WithLabelValues("cancel", outcomeOf(err)).Inc() }()

	var (
		result    *models.Booking
		unchanged bool
	)
	err = s.store.InBookingTx(ctx, func(tx BookingStore) error {
		current, err := tx.LockBookingByID(ctx, id)
		if err != nil {
			return lookupError(err)
		}
		switch current.Status {
		case models.BookingCancelled:
			result, unchanged = current, true
			return nil
		case models.BookingCompleted:
			return ConflictError("booking-completed", "Completed bookings cannot be cancelled")
		}
		status := models.BookingCancelled
		result, err = tx.UpdateBooking(ctx, current.ID, BookingUpdate{Status: &status})
		if err != nil {
			return StoreError("cancel booking", err)
		}
		return nil
	})
	if err != nil {
		return nil, asAppError("cancel booking", err)
	}
	if unchanged {
		return result, nil
	}

	s.notify(ctx, result.StudentID, fmt.Sprintf("Your %s booking on %s has been cancelled", lessonLabel(result), describeSlot(result)))
	if result.InstructorID != nil {
		s.notify(ctx, *result.InstructorID, fmt.Sprintf("Booking with student %s on %s has been cancelled", result.StudentID, describeSlot(result)))
	}
	s.publish(ctx, "booking.cancelled", result)
	return result, nil
}

// CheckIn confirms a pending booking. Repeating it on a confirmed booking
// succeeds without emitting another notification.
func (s *BookingService) CheckIn(ctx context.Context, in CheckInInput) (b *models.Booking, err error) {
	defer func() { bookingOpsTotal.WithLabelValues("check_in", outcomeOf(err)).Inc() }()

	in.QRCode = strings.TrimSpace(in.QRCode)
	if (in.BookingID == nil || *in.BookingID == uuid.Nil) && in.QRCode == "" {
		return nil, ValidationError("check_in", "booking_id or qr_code is required")
	}

	var (
		result    *models.Booking
		unchanged bool
	)
	err = s.store.InBookingTx(ctx, func(tx BookingStore) error {
		var id uuid.UUID
		if in.BookingID != nil && *in.BookingID != uuid.Nil {
			id = *in.BookingID
		} else {
			found, err := tx.FindBookingByQR(ctx, in.QRCode)
			if err != nil {
				return lookupError(err)
			}
			id = found.ID
		}

		current, err := tx.LockBookingByID(ctx, id)
		if err != nil {
			return lookupError(err)
		}
		switch current.Status {
		case models.BookingConfirmed:
			result, unchanged = current, true
			return nil
		case models.BookingCancelled:
			return ConflictError("booking-cancelled", "Cancelled bookings cannot be checked in")
		case models.BookingCompleted:
			return ConflictError("booking-completed", "This booking has already been completed")
		}

		status := models.BookingConfirmed
		checkedIn := s.now()
		result, err = tx.UpdateBooking(ctx, current.ID, BookingUpdate{Status: &status, CheckedInAt: &checkedIn})
		if err != nil {
			return StoreError("check in booking", err)
		}
		return nil
	})
	if err != nil {
		return nil, asAppError("check in booking", err)
	}
	if unchanged {
		return result, nil
	}

	s.notify(ctx, result.StudentID, fmt.Sprintf("You are checked in for your %s lesson on %s", lessonLabel(result), describeSlot(result)))
	s.publish(ctx, "booking.confirmed", result)
	return result, nil
}

// Complete closes a confirmed booking and grants completion rewards.
func (s *BookingService) Complete(ctx context.Context, id uuid.UUID) (b *models.Booking, err error) {
	defer func() { bookingOpsTotal.WithLabelValues("complete", outcomeOf(err)).Inc() }()

	var (
		result    *models.Booking
		unchanged bool
	)
	err = s.store.InBookingTx(ctx, func(tx BookingStore) error {
		current, err := tx.LockBookingByID(ctx, id)
		if err != nil {
			return lookupError(err)
		}
		switch current.Status {
		case models.BookingCompleted:
			result, unchanged = current, true
			return nil
		case models.BookingPending, models.BookingCancelled:
			return ConflictError("booking-not-confirmed", "Only checked-in bookings can be completed")
		}
		status := models.BookingCompleted
		result, err = tx.UpdateBooking(ctx, current.ID, BookingUpdate{Status: &status})
		if err != nil {
			return StoreError("complete booking", err)
		}
		return nil
	})
	if err != nil {
		return nil, asAppError("complete booking", err)
	}
	if unchanged {
		return result, nil
	}

	if s.rewards != nil {
		if err := s.rewards.AwardForCompletion(ctx, result.StudentID); err != nil {
			slog.WarnContext(ctx, "failed to award completion rewards", "student_id", result.StudentID, "error", err)
		}
	}
	s.notify(ctx, result.StudentID, fmt.Sprintf("Your %s lesson on %s is complete. Keep practising!", lessonLabel(result), describeSlot(result)))
	s.publish(ctx, "booking.completed", result)
	return result, nil
}

func (s *BookingService) Get(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	b, err := s.store.FindBookingByID(ctx, id)
	if err != nil {
		return nil, lookupError(err)
	}
	return b, nil
}

// ListForUser returns bookings where the user is the student or the
// instructor, newest date first.
func (s *BookingService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	if userID == uuid.Nil {
		return nil, ValidationError("user_id", "user_id is required")
	}
	bookings, err := s.store.FindBookingsByUser(ctx, userID)
	if err != nil {
		return nil, StoreError("list bookings", err)
	}
	return bookings, nil
}

func (s *BookingService) notify(ctx context.Context, userID uuid.UUID, message string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, userID, models.NotificationBooking, message)
}

func (s *BookingService) publish(ctx context.Context, subject string, b *models.Booking) {
	if s.publisher == nil {
		return
	}
	event := map[string]any{
		"booking_id": b.ID,
		"student_id": b.StudentID,
		"date":       b.Date,
		"status":     b.Status,
	}
	if b.InstructorID != nil {
		event["instructor_id"] = *b.InstructorID
	}
	if err := s.publisher.Publish(ctx, subject, event); err != nil {
		slog.WarnContext(ctx, "failed to publish booking event", "subject", subject, "booking_id", b.ID, "error", err)
	}
}

func validateSchedule(date string, start, end *string) error {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return ValidationError("date", "date must use the YYYY-MM-DD format")
	}
	var startAt, endAt time.Time
	if start != nil {
		t, err := time.Parse(timeLayout, *start)
		if err != nil {
			return ValidationError("start_time", "start_time must use the HH:MM format")
		}
		startAt = t
	}
	if end != nil {
		t, err := time.Parse(timeLayout, *end)
		if err != nil {
			return ValidationError("end_time", "end_time must use the HH:MM format")
		}
		endAt = t
	}
	if start != nil && end != nil && !endAt.After(startAt) {
		return ValidationError("end_time", "end_time must be after start_time")
	}
	return nil
}

func slotTaken() *AppError {
	return ConflictError("slot-taken", "Time slot already booked")
}

func lookupError(err error) error {
	if errors.Is(err, ErrRecordNotFound) {
		return NotFoundError("booking", "Booking not found")
	}
	return StoreError("find booking", err)
}

func asAppError(op string, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return StoreError(op, err)
}

func blankToNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func coalesce(v, fallback *string) *string {
	if v != nil {
		return v
	}
	return fallback
}

func lessonLabel(b *models.Booking) string {
	if b.LessonType == "" {
		return "lesson"
	}
	return b.LessonType
}

func describeSlot(b *models.Booking) string {
	if b.StartTime == nil {
		return b.Date
	}
	return b.Date + " at " + *b.StartTime
}
