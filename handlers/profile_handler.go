package handlers

import (
	"errors"

	"github.com/anjiri1684/mixlab_studio/database"
	"github.com/anjiri1684/mixlab_studio/middleware"
	"github.com/anjiri1684/mixlab_studio/models"
	"github.com/anjiri1684/mixlab_studio/services"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UpdateProfileRequest struct {
	Username       *string `json:"username" validate:"omitempty,min=3,max=100"`
	Specialization *string `json:"specialization" validate:"omitempty,max=100"`
}

func currentUser(c *fiber.Ctx) (*models.User, error) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}
	var user models.User
	if err := database.DB.WithContext(c.UserContext()).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.NotFoundError("user", "User not found")
		}
		return nil, services.StoreError("find user", err)
	}
	return &user, nil
}

func GetProfile(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func UpdateProfile(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req UpdateProfileRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	updates := map[string]any{}
	if req.Username != nil {
		updates["username"] = *req.Username
	}
	if req.Specialization != nil {
		if user.Role != models.RoleInstructor {
			return services.ForbiddenError("forbidden", "Only instructors have a specialization")
		}
		updates["specialization"] = *req.Specialization
	}
	if len(updates) > 0 {
		if err := database.DB.WithContext(c.UserContext()).Model(user).Updates(updates).Error; err != nil {
			return services.StoreError("update profile", err)
		}
	}
	return c.JSON(user)
}

// GetMyProgress summarises completed lessons and rewards.
func GetMyProgress(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var completed, upcoming int64
	db := database.DB.WithContext(c.UserContext())
	if err := db.Model(&models.Booking{}).
		Where("student_id = ? AND status = ?", user.ID, models.BookingCompleted).
		Count(&completed).Error; err != nil {
		return services.StoreError("count completed bookings", err)
	}
	if err := db.Model(&models.Booking{}).
		Where("student_id = ? AND status IN ?", user.ID, []string{models.BookingPending, models.BookingConfirmed}).
		Count(&upcoming).Error; err != nil {
		return services.StoreError("count upcoming bookings", err)
	}
	badges := db.Model(user).Association("Badges").Count()

	return c.JSON(fiber.Map{
		"xp":                      user.XP,
		"badges_earned":           badges,
		"total_lessons_completed": completed,
		"upcoming_lessons":        upcoming,
	})
}
