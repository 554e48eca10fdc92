package analytics

import (
	"context"
	"math"
	"time"

	"github.com/jmoiron/sqlx"
)

type MonthlyRevenue struct {
	Month        string  `db:"month" json:"month"`
	TotalRevenue float64 `db:"total_revenue" json:"total_revenue"`
}

type Engagement struct {
	ActiveStudents int64   `json:"active_students"`
	RepeatStudents int64   `json:"repeat_students"`
	TotalStudents  int64   `json:"total_students"`
	RetentionRate  float64 `json:"retention_rate"`
}

type PopularSlot struct {
	StartTime     string `db:"start_time" json:"start_time"`
	BookingsCount int64  `db:"bookings_count" json:"bookings_count"`
}

type Summary struct {
	TotalUsers    int64 `db:"total_users" json:"total_users"`
	TotalLessons  int64 `db:"total_lessons" json:"total_lessons"`
	TotalBookings int64 `db:"total_bookings" json:"total_bookings"`
}

// Repository runs read-only reporting queries.
type Repository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

func (r *Repository) Revenue(ctx context.Context) ([]MonthlyRevenue, error) {
	rows := []MonthlyRevenue{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT LEFT(date, 7) AS month, COALESCE(SUM(price), 0) AS total_revenue
		FROM bookings
		WHERE status = $1
		GROUP BY month
		ORDER BY month DESC
	`, "completed")
	return rows, err
}

func (r *Repository) StudentEngagement(ctx context.Context) (*Engagement, error) {
	var e Engagement
	since := r.now().AddDate(0, 0, -30).Format("2006-01-02")

	if err := r.db.GetContext(ctx, &e.ActiveStudents, `
		SELECT COUNT(DISTINCT student_id) FROM bookings WHERE date >= $1
	`, since); err != nil {
		return nil, err
	}
	if err := r.db.GetContext(ctx, &e.RepeatStudents, `
		SELECT COUNT(*) FROM (
			SELECT student_id FROM bookings GROUP BY student_id HAVING COUNT(*) > 1
		) AS repeaters
	`); err != nil {
		return nil, err
	}
	if err := r.db.GetContext(ctx, &e.TotalStudents, `
		SELECT COUNT(*) FROM users WHERE role = $1
	`, "student"); err != nil {
		return nil, err
	}

	if e.TotalStudents > 0 {
		rate := float64(e.RepeatStudents) / float64(e.TotalStudents) * 100
		e.RetentionRate = math.Round(rate*100) / 100
	}
	return &e, nil
}

func (r *Repository) PopularSlots(ctx context.Context, limit int) ([]PopularSlot, error) {
	if limit <= 0 {
		limit = 5
	}
	rows := []PopularSlot{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT start_time, COUNT(*) AS bookings_count
		FROM bookings
		WHERE start_time IS NOT NULL
		GROUP BY start_time
		ORDER BY bookings_count DESC, start_time
		LIMIT $1
	`, limit)
	return rows, err
}

func (r *Repository) Summary(ctx context.Context) (*Summary, error) {
	var s Summary
	err := r.db.GetContext(ctx, &s, `
		SELECT
			(SELECT COUNT(*) FROM users) AS total_users,
			(SELECT COUNT(*) FROM lessons) AS total_lessons,
			(SELECT COUNT(*) FROM bookings) AS total_bookings
	`)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
