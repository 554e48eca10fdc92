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

type BadgeRequest struct {
	Name           string `json:"name" validate:"required,max=255"`
	Description    string `json:"description" validate:"required"`
	PointsRequired int    `json:"points_required" validate:"gte=0"`
	ImageURL       string `json:"image_url" validate:"omitempty,max=255"`
}

func CreateBadge(c *fiber.Ctx) error {
	var req BadgeRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	badge := models.Badge{
		Name:           req.Name,
		Description:    req.Description,
		PointsRequired: req.PointsRequired,
		ImageURL:       req.ImageURL,
	}
	if err := database.DB.WithContext(c.UserContext()).Create(&badge).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return services.ConflictError("badge-exists", "A badge with this name already exists")
		}
		return services.StoreError("create badge", err)
	}
	return c.Status(fiber.StatusCreated).JSON(badge)
}

func ListBadges(c *fiber.Ctx) error {
	var badges []models.Badge
	if err := database.DB.WithContext(c.UserContext()).Order("points_required").Find(&badges).Error; err != nil {
		return services.StoreError("list badges", err)
	}
	return c.JSON(badges)
}

func GetMyBadges(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}

	var user models.User
	if err := database.DB.WithContext(c.UserContext()).Preload("Badges").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return services.NotFoundError("user", "User not found")
		}
		return services.StoreError("find user", err)
	}

	badges := user.Badges
	if badges == nil {
		badges = []*models.Badge{}
	}
	return c.JSON(fiber.Map{"xp": user.XP, "badges": badges})
}
