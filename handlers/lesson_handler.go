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
	"gorm.io/gorm"
)

type LessonRequest struct {
	Title           string  `json:"title" validate:"required,max=255"`
	Description     string  `json:"description"`
	Instrument      string  `json:"instrument" validate:"omitempty,max=50"`
	Duration        int     `json:"duration" validate:"required,gt=0,lte=240"`
	AvailableSlots  *int    `json:"available_slots" validate:"omitempty,gte=0"`
	PremiumOnly     bool    `json:"premium_only"`
	DifficultyLevel int     `json:"difficulty_level" validate:"required,gte=1,lte=5"`
	ContentURL      *string `json:"content_url" validate:"omitempty,url"`
}

func ListLessons(c *fiber.Ctx) error {
	page := max(c.QueryInt("page", 1), 1)
	limit := min(max(c.QueryInt("limit", 20), 1), 100)
	offset := (page - 1) * limit

	query := database.DB.WithContext(c.UserContext()).Model(&models.Lesson{})
	if instrument := strings.ToLower(strings.TrimSpace(c.Query("instrument"))); instrument != "" {
		query = query.Where("LOWER(instrument) = ?", instrument)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return services.StoreError("count lessons", err)
	}

	var lessons []models.Lesson
	if err := query.Order("difficulty_level, title").Offset(offset).Limit(limit).Find(&lessons).Error; err != nil {
		return services.StoreError("list lessons", err)
	}

	return c.JSON(fiber.Map{
		"data": lessons,
		"meta": fiber.Map{
			"total":        total,
			"total_pages":  int(math.Ceil(float64(total) / float64(limit))),
			"current_page": page,
		},
	})
}

func GetLesson(c *fiber.Ctx) error {
	lessonID, err := uuid.Parse(c.Params("lessonId"))
	if err != nil {
		return services.NotFoundError("lesson", "Lesson not found")
	}

	var lesson models.Lesson
	if err := database.DB.WithContext(c.UserContext()).First(&lesson, "id = ?", lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return services.NotFoundError("lesson", "Lesson not found")
		}
		return services.StoreError("find lesson", err)
	}
	return c.JSON(lesson)
}

func CreateLesson(c *fiber.Ctx) error {
	var req LessonRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	lesson := models.Lesson{
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		Instrument:      strings.ToLower(strings.TrimSpace(req.Instrument)),
		Duration:        req.Duration,
		AvailableSlots:  req.AvailableSlots,
		PremiumOnly:     req.PremiumOnly,
		DifficultyLevel: req.DifficultyLevel,
		ContentURL:      req.ContentURL,
	}
	if err := database.DB.WithContext(c.UserContext()).Create(&lesson).Error; err != nil {
		return services.StoreError("create lesson", err)
	}
	return c.Status(fiber.StatusCreated).JSON(lesson)
}

func DeleteLesson(c *fiber.Ctx) error {
	lessonID, err := uuid.Parse(c.Params("lessonId"))
	if err != nil {
		return services.NotFoundError("lesson", "Lesson not found")
	}

	res := database.DB.WithContext(c.UserContext()).Where("id = ?", lessonID).Delete(&models.Lesson{})
	if res.Error != nil {
		return services.StoreError("delete lesson", res.Error)
	}
	if res.RowsAffected == 0 {
		return services.NotFoundError("lesson", "Lesson not found")
	}
	return c.JSON(fiber.Map{"message": "Lesson deleted successfully"})
}
