package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/anjiri1684/mixlab_studio/database"
	"github.com/anjiri1684/mixlab_studio/models"
	"github.com/anjiri1684/mixlab_studio/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func ListInstructors(c *fiber.Ctx) error {
	query := database.DB.WithContext(c.UserContext()).
		Where("role = ? AND is_active = ?", models.RoleInstructor, true)

	if spec := strings.TrimSpace(c.Query("specialization")); spec != "" {
		query = query.Where("specialization ILIKE ?", "%"+spec+"%")
	}

	var instructors []models.User
	if err := query.Order("username").Find(&instructors).Error; err != nil {
		return services.StoreError("list instructors", err)
	}

	out := make([]fiber.Map, 0, len(instructors))
	for _, u := range instructors {
		out = append(out, fiber.Map{"id": u.ID, "username": u.Username, "specialization": u.Specialization})
	}
	return c.JSON(out)
}

// GetInstructorSchedule lists the instructor's taken slots from the given
// date (default today) onwards, so clients can offer only free times.
func GetInstructorSchedule(c *fiber.Ctx) error {
	instructorID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return services.NotFoundError("instructor", "Instructor not found")
	}

	from := c.Query("from", time.Now().Format("2006-01-02"))
	if _, err := time.Parse("2006-01-02", from); err != nil {
		return services.ValidationError("date", "from must be formatted as YYYY-MM-DD")
	}

	db := database.DB.WithContext(c.UserContext())
	var instructor models.User
	if err := db.First(&instructor, "id = ? AND role = ?", instructorID, models.RoleInstructor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return services.NotFoundError("instructor", "Instructor not found")
		}
		return services.StoreError("find instructor", err)
	}

	type takenSlot struct {
		Date      string  `json:"date"`
		StartTime *string `json:"start_time,omitempty"`
		EndTime   *string `json:"end_time,omitempty"`
	}
	var slots []takenSlot
	if err := db.Model(&models.Booking{}).
		Select("date, start_time, end_time").
		Where("instructor_id = ? AND status <> ? AND date >= ?", instructorID, models.BookingCancelled, from).
		Order("date, start_time").
		Scan(&slots).Error; err != nil {
		return services.StoreError("load schedule", err)
	}
	if slots == nil {
		slots = []takenSlot{}
	}

	return c.JSON(fiber.Map{"instructor_id": instructorID, "taken": slots})
}
