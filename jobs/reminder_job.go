package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anjiri1684/mixlab_studio/models"
	"github.com/anjiri1684/mixlab_studio/services"
)

type UpcomingBookings interface {
	FindBookingsOnDate(ctx context.Context, date string) ([]models.Booking, error)
}

// Reminders notifies students and instructors about tomorrow's lessons.
type Reminders struct {
	bookings UpcomingBookings
	notifier services.Notifier
	now      func() time.Time
}

func NewReminders(bookings UpcomingBookings, notifier services.Notifier) *Reminders {
	return &Reminders{bookings: bookings, notifier: notifier, now: time.Now}
}

// SendLessonReminders returns the number of bookings reminded.
func (r *Reminders) SendLessonReminders(ctx context.Context) int {
	slog.Info("Running job: SendLessonReminders")

	tomorrow := r.now().AddDate(0, 0, 1).Format("2006-01-02")
	upcoming, err := r.bookings.FindBookingsOnDate(ctx, tomorrow)
	if err != nil {
		slog.Error("error checking for upcoming lessons", "date", tomorrow, "error", err)
		return 0
	}

	for _, booking := range upcoming {
		when := "tomorrow"
		if booking.StartTime != nil {
			when = "tomorrow at " + *booking.StartTime
		}
		r.notifier.Notify(ctx, booking.StudentID, models.NotificationReminder,
			fmt.Sprintf("Reminder: your %s lesson is %s", booking.LessonType, when))
		if booking.InstructorID != nil {
			r.notifier.Notify(ctx, *booking.InstructorID, models.NotificationReminder,
				fmt.Sprintf("Reminder: you teach a %s lesson %s", booking.LessonType, when))
		}
	}

	if len(upcoming) > 0 {
		slog.Info("lesson reminders sent", "date", tomorrow, "bookings", len(upcoming))
	}
	return len(upcoming)
}
