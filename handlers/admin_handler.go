package handlers

import (
	"errors"
	"math"
	"strings"

	"github.com/anjiri1684/mixlab_studio/database"
	"github.com/anjiri1684/mixlab_studio/models"
	"github.com/anjiri1684/mixlab_studio/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func GetAllUsers(c *fiber.Ctx) error {
	page := max(c.QueryInt("page", 1), 1)
	limit := min(max(c.QueryInt("limit", 10), 1), 100)
	search := strings.TrimSpace(c.Query("search"))
	offset := (page - 1) * limit

	query := database.DB.WithContext(c.UserContext()).Model(&models.User{})
	if search != "" {
		searchTerm := "%" + search + "%"
		query = query.Where("username ILIKE ? OR email ILIKE ?", searchTerm, searchTerm)
	}
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	var totalUsers int64
	if err := query.Count(&totalUsers).Error; err != nil {
		return services.StoreError("count users", err)
	}

	var users []models.User
	if err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return services.StoreError("list users", err)
	}

	return c.JSON(fiber.Map{
		"data": users,
		"meta": fiber.Map{
			"total_users":  totalUsers,
			"total_pages":  int(math.Ceil(float64(totalUsers) / float64(limit))),
			"current_page": page,
		},
	})
}

type AdminUpdateUserRequest struct {
	Role     *string `json:"role" validate:"omitempty,oneof=student instructor admin"`
	IsActive *bool   `json:"is_active"`
}

func UpdateUser(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return services.ValidationError("user_id", "Invalid user ID")
	}

	var req AdminUpdateUserRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	updates := map[string]any{}
	if req.Role != nil {
		updates["role"] = *req.Role
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return services.ValidationError("validation", "Nothing to update")
	}

	result := database.DB.WithContext(c.UserContext()).Model(&models.User{}).Where("id = ?", userID).Updates(updates)
	if result.Error != nil {
		return services.StoreError("update user", result.Error)
	}
	if result.RowsAffected == 0 {
		return services.NotFoundError("user", "User not found")
	}

	return c.JSON(fiber.Map{"message": "User updated successfully."})
}

// AdminDeleteUser removes the account. Bookings stay for reporting.
func AdminDeleteUser(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return services.ValidationError("user_id", "Invalid user ID")
	}

	err = database.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return services.NotFoundError("user", "User not found")
			}
			return services.StoreError("find user", err)
		}
		if err := tx.Model(&user).Association("Badges").Clear(); err != nil {
			return services.StoreError("clear badges", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Notification{}).Error; err != nil {
			return services.StoreError("delete notifications", err)
		}
		if err := tx.Delete(&user).Error; err != nil {
			return services.StoreError("delete user", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

type AddInstructorRequest struct {
	Username       string `json:"username" validate:"required,min=3,max=100"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,password_strength"`
	Specialization string `json:"specialization" validate:"required,max=100"`
}

func AddInstructor(c *fiber.Ctx) error {
	var req AddInstructorRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return services.StoreError("hash password", err)
	}

	instructor := models.User{
		Username:       req.Username,
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		Password:       string(hashedPassword),
		Role:           models.RoleInstructor,
		Specialization: &req.Specialization,
		IsActive:       true,
	}
	if err := database.DB.WithContext(c.UserContext()).Create(&instructor).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return services.ConflictError("email-taken", "Email is already registered")
		}
		return services.StoreError("create instructor", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Instructor added successfully",
		"instructor": toUserResponse(instructor),
	})
}
