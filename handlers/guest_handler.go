package handlers

import (
	"context"
	"encoding/json"

	"github.com/anjiri1684/mixlab_studio/middleware"
	"github.com/anjiri1684/mixlab_studio/models"
	"github.com/anjiri1684/mixlab_studio/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type GuestAPI interface {
	Access(ctx context.Context, guestID string, lessonID uuid.UUID) (*services.AccessGrant, error)
	Profile(ctx context.Context, guestID string) (*services.GuestProfile, error)
	SaveProgress(ctx context.Context, guestID string, in services.SaveProgressInput) (*models.GameProgress, error)
	History(ctx context.Context, guestID string) ([]models.GameProgress, error)
}

type GuestHandler struct {
	guests GuestAPI
}

func NewGuestHandler(guests GuestAPI) *GuestHandler {
	return &GuestHandler{guests: guests}
}

type SaveProgressRequest struct {
	Score        int             `json:"score" validate:"gte=0"`
	ProgressData json.RawMessage `json:"progress_data"`
	Completed    bool            `json:"completed"`
}

func (h *GuestHandler) GetProfile(c *fiber.Ctx) error {
	profile, err := h.guests.Profile(c.UserContext(), middleware.GuestID(c))
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

func (h *GuestHandler) GetHistory(c *fiber.Ctx) error {
	history, err := h.guests.History(c.UserContext(), middleware.GuestID(c))
	if err != nil {
		return err
	}
	if history == nil {
		history = []models.GameProgress{}
	}
	return c.JSON(fiber.Map{"history": history})
}

func (h *GuestHandler) SaveProgress(c *fiber.Ctx) error {
	var req SaveProgressRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	progress, err := h.guests.SaveProgress(c.UserContext(), middleware.GuestID(c), services.SaveProgressInput{
		GameID:       c.Params("gameId"),
		Score:        req.Score,
		ProgressData: req.ProgressData,
		Completed:    req.Completed,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Progress saved", "progress": progress})
}

// AccessLesson returns lesson content when the guest still has plays left.
func (h *GuestHandler) AccessLesson(c *fiber.Ctx) error {
	lessonID, err := uuid.Parse(c.Params("lessonId"))
	if err != nil {
		return services.NotFoundError("lesson", "Lesson not found")
	}

	grant, err := h.guests.Access(c.UserContext(), middleware.GuestID(c), lessonID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message":         "Access granted",
		"lesson":          grant.Lesson,
		"plays_used":      grant.PlaysUsed,
		"plays_remaining": grant.PlaysRemaining,
	})
}
