package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/anjiri1684/mixlab_studio/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newTestBookingService(store *memStore, mode SlotKeyMode) (*BookingService, *recordingNotifier, *recordingPublisher) {
	notifier := &recordingNotifier{}
	publisher := &recordingPublisher{}
	checker := NewConflictChecker(store, mode, false)
	svc := NewBookingService(store, checker, notifier,
		WithEventPublisher(publisher),
		WithClock(func() time.Time { return time.Date(2025, 11, 1, 9, 0, 0, 0, time.UTC) }),
	)
	return svc, notifier, publisher
}

func requireKind(t *testing.T, err error, kind ErrorKind, reason string) {
	t.Helper()
	require.Error(t, err)
	var appErr *AppError
	require.True(t, errors.As(err, &appErr), "expected *AppError, got %T", err)
	assert.Equal(t, kind, appErr.Kind)
	if reason != "" {
		assert.Equal(t, reason, appErr.Reason)
	}
}

func TestBookingService_CreateRescheduleScenario(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc, _, _ := newTestBookingService(store, SlotKeyDate)
	student := uuid.New()

	first, err := svc.Create(ctx, CreateBookingInput{StudentID: student, Date: "2025-11-20", LessonType: "Guitar"})
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, first.Status)
	assert.Contains(t, first.QRCode, student.String())
	assert.Contains(t, first.QRCode, "2025-11-20")

	_, err = svc.Create(ctx, CreateBookingInput{StudentID: student, Date: "2025-11-20", LessonType: "Piano"})
	requireKind(t, err, KindConflict, "slot-taken")

	moved, err := svc.Reschedule(ctx, first.ID, RescheduleInput{Date: strPtr("2025-11-21")})
	require.NoError(t, err)
	assert.Equal(t, "2025-11-21", moved.Date)
	assert.Equal(t, models.BookingPending, moved.Status)

	_, err = svc.Create(ctx, CreateBookingInput{StudentID: student, Date: "2025-11-20", LessonType: "Piano"})
	require.NoError(t, err)
}

func TestBookingService_CancelledSlotIsFree(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc, notifier, _ := newTestBookingService(store, SlotKeyDate)

	b, err := svc.Create(ctx, CreateBookingInput{StudentID: uuid.New(), Date: "2025-12-01"})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, cancelled.Status)
	sentAfterCancel := notifier.count()

	again, err := svc.Cancel(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, again.Status)
	assert.Equal(t, sentAfterCancel, notifier.count())

	_, err = svc.Create(ctx, CreateBookingInput{StudentID: uuid.New(), Date: "2025-12-01"})
	require.NoError(t, err)
}

func TestBookingService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	svc, notifier, _ := newTestBookingService(newMemStore(), SlotKeyDate)
	student := uuid.New()

	cases := []struct {
		name   string
		in     CreateBookingInput
		reason string
	}{
		{"missing student", CreateBookingInput{Date: "2025-11-20"}, "student_id"},
		{"missing date", CreateBookingInput{StudentID: student}, "date"},
		{"bad date", CreateBookingInput{StudentID: student, Date: "20/11/2025"}, "date"},
		{"bad start", CreateBookingInput{StudentID: student, Date: "2025-11-20", StartTime: strPtr("9am")}, "start_time"},
		{"end before start", CreateBookingInput{StudentID: student, Date: "2025-11-20", StartTime: strPtr("10:00"), EndTime: strPtr("09:30")}, "end_time"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.in)
			requireKind(t, err, KindValidation, tc.reason)
		})
	}
	assert.Zero(t, notifier.count())
}

func TestBookingService_CreateNotifiesStudentAndInstructor(t *testing.T) {
	ctx := context.Background()
	svc, notifier, publisher := newTestBookingService(newMemStore(), SlotKeyDate)
	student, instructor := uuid.New(), uuid.New()

	_, err := svc.Create(ctx, CreateBookingInput{
		StudentID:    student,
		InstructorID: &instructor,
		Date:         "2025-11-20",
		StartTime:    strPtr("10:00"),
		EndTime:      strPtr("11:00"),
		LessonType:   "Drums",
	})
	require.NoError(t, err)

	require.Len(t, notifier.sent, 2)
	assert.Equal(t, student, notifier.sent[0].UserID)
	assert.Equal(t, instructor, notifier.sent[1].UserID)
	assert.Equal(t, models.NotificationBooking, notifier.sent[0].Kind)
	assert.True(t, strings.Contains(notifier.sent[0].Message, "2025-11-20 at 10:00"))
	assert.Equal(t, []string{"booking.created"}, publisher.subjects)
}

func TestBookingService_PublishFailureDoesNotFailCreate(t *testing.T) {
	store := newMemStore()
	svc, _, publisher := newTestBookingService(store, SlotKeyDate)
	publisher.err = errors.New("broker down")

	_, err := svc.Create(context.Background(), CreateBookingInput{StudentID: uuid.New(), Date: "2025-11-20"})
	require.NoError(t, err)
}

func TestBookingService_InstructorSlotMode(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestBookingService(newMemStore(), SlotKeyInstructorDateTime)
	a, b := uuid.New(), uuid.New()

	_, err := svc.Create(ctx, CreateBookingInput{StudentID: uuid.New(), InstructorID: &a, Date: "2025-11-20", StartTime: strPtr("10:00")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateBookingInput{StudentID: uuid.New(), InstructorID: &b, Date: "2025-11-20", StartTime: strPtr("10:00")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateBookingInput{StudentID: uuid.New(), InstructorID: &a, Date: "2025-11-20", StartTime: strPtr("11:00")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateBookingInput{StudentID: uuid.New(), InstructorID: &a, Date: "2025-11-20", StartTime: strPtr("10:00")})
	requireKind(t, err, KindConflict, "slot-taken")
}

func TestBookingService_ConcurrentCreateSameSlot(t *testing.T) {
	for _, serialized := range []bool{true, false} {
		store := newMemStore()
		store.skipTx = !serialized
		svc, _, _ := newTestBookingService(store, SlotKeyDate)

		const workers = 16
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			ok        int
			conflicts int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.Create(context.Background(), CreateBookingInput{StudentID: uuid.New(), Date: "2025-11-20"})
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					ok++
				} else if KindOf(err) == KindConflict {
					conflicts++
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, ok)
		assert.Equal(t, workers-1, conflicts)
	}
}

func TestBookingService_RescheduleRules(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc, _, _ := newTestBookingService(store, SlotKeyDate)

	b, err := svc.Create(ctx, CreateBookingInput{StudentID: uuid.New(), Date: "2025-11-20", StartTime: strPtr("10:00"), EndTime: strPtr("11:00")})
	require.NoError(t, err)
	other, err := svc.Create(ctx, CreateBookingInput{StudentID: uuid.New(), Date: "2025-11-22"})
	require.NoError(t, err)

	t.Run("same slot keeps own booking", func(t *testing.T) {
		updated, err := svc.Reschedule(ctx, b.ID, RescheduleInput{StartTime: strPtr("10:30")})
		require.NoError(t, err)
		assert.Equal(t, "10:30", *updated.StartTime)
		assert.Equal(t, "2025-11-20", updated.Date)
	})

	t.Run("end must follow merged start", func(t *testing.T) {
		_, err := svc.Reschedule(ctx, b.ID, RescheduleInput{EndTime: strPtr("10:00")})
		requireKind(t, err, KindValidation, "end_time")
	})

	t.Run("taken slot", func(t *testing.T) {
		_, err := svc.Reschedule(ctx, b.ID, RescheduleInput{Date: strPtr(other.Date)})
		requireKind(t, err, KindConflict, "slot-taken")
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := svc.Reschedule(ctx, b.ID, RescheduleInput{Date: strPtr("  ")})
		requireKind(t, err, KindValidation, "reschedule")
	})

	t.Run("unknown booking", func(t *testing.T) {
		_, err := svc.Reschedule(ctx, uuid.New(), RescheduleInput{Date: strPtr("2025-11-25")})
		requireKind(t, err, KindNotFound, "booking")
	})

	t.Run("unknown booking with empty input", func(t *testing.T) {
		_, err := svc.Reschedule(ctx, uuid.New(), RescheduleInput{})
		requireKind(t, err, KindNotFound, "booking")
	})

	t.Run("cancelled booking", func(t *testing.T) {
		_, err := svc.Cancel(ctx, other.ID)
		require.NoError(t, err)
		_, err = svc.Reschedule(ctx, other.ID, RescheduleInput{Date: strPtr("2025-11-25")})
		requireKind(t, err, KindConflict, "booking-cancelled")
	})
}

func TestBookingService_CheckInIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc, notifier, _ := newTestBookingService(store, SlotKeyDate)

	b, err := svc.Create(ctx, CreateBookingInput{StudentID: uuid.New(), Date: "2025-11-20"})
	require.NoError(t, err)
	before := notifier.count()

	first, err := svc.CheckIn(ctx, CheckInInput{QRCode: b.QRCode})
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, first.Status)
	require.NotNil(t, first.CheckedInAt)

	second, err := svc.CheckIn(ctx, CheckInInput{BookingID: &b.ID})
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, second.Status)
	assert.Equal(t, before+1, notifier.count())
}

func TestBookingService_CheckInErrors(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc, _, _ := newTestBookingService(store, SlotKeyDate)

	_, err := svc.CheckIn(ctx, CheckInInput{})
	requireKind(t, err, KindValidation, "check_in")

	_, err = svc.CheckIn(ctx, CheckInInput{QRCode: "booking:nope"})
	requireKind(t, err, KindNotFound, "booking")

	b, err := svc.Create(ctx, CreateBookingInput{StudentID: uuid.New(), Date: "2025-11-20"})
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, b.ID)
	require.NoError(t, err)
	_, err = svc.CheckIn(ctx, CheckInInput{BookingID: &b.ID})
	requireKind(t, err, KindConflict, "booking-cancelled")
}

func TestBookingService_Complete(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	rewards := &recordingRewarder{}
	svc := NewBookingService(store, NewConflictChecker(store, SlotKeyDate, false), &recordingNotifier{}, WithRewarder(rewards))
	student := uuid.New()

	b, err := svc.Create(ctx, CreateBookingInput{StudentID: student, Date: "2025-11-20"})
	require.NoError(t, err)

	_, err = svc.Complete(ctx, b.ID)
	requireKind(t, err, KindConflict, "booking-not-confirmed")

	_, err = svc.CheckIn(ctx, CheckInInput{BookingID: &b.ID})
	require.NoError(t, err)
	done, err := svc.Complete(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCompleted, done.Status)
	assert.Equal(t, []uuid.UUID{student}, rewards.awarded)

	_, err = svc.Complete(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, rewards.awarded, 1)

	_, err = svc.Cancel(ctx, b.ID)
	requireKind(t, err, KindConflict, "booking-completed")
}

func TestBookingService_ListForUser(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc, _, _ := newTestBookingService(store, SlotKeyDate)
	student, instructor := uuid.New(), uuid.New()

	_, err := svc.Create(ctx, CreateBookingInput{StudentID: student, Date: "2025-11-20"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateBookingInput{StudentID: uuid.New(), InstructorID: &instructor, Date: "2025-11-21"})
	require.NoError(t, err)

	mine, err := svc.ListForUser(ctx, student)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	teaching, err := svc.ListForUser(ctx, instructor)
	require.NoError(t, err)
	require.Len(t, teaching, 1)
	assert.Equal(t, "2025-11-21", teaching[0].Date)

	_, err = svc.ListForUser(ctx, uuid.Nil)
	requireKind(t, err, KindValidation, "user_id")
}

func TestBookingService_StoreFailure(t *testing.T) {
	store := newMemStore()
	store.insertErr = errors.New("connection reset")
	svc, notifier, _ := newTestBookingService(store, SlotKeyDate)

	_, err := svc.Create(context.Background(), CreateBookingInput{StudentID: uuid.New(), Date: "2025-11-20"})
	requireKind(t, err, KindStore, "store")
	assert.Zero(t, notifier.count())
}
