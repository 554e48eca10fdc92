package handlers

import (
	"context"
	"errors"

	"github.com/anjiri1684/mixlab_studio/middleware"
	"github.com/anjiri1684/mixlab_studio/models"
	"github.com/anjiri1684/mixlab_studio/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type NotificationQueries interface {
	ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error
}

type NotificationHandler struct {
	store    NotificationQueries
	notifier services.Notifier
}

func NewNotificationHandler(store NotificationQueries, notifier services.Notifier) *NotificationHandler {
	return &NotificationHandler{store: store, notifier: notifier}
}

type SendNotificationRequest struct {
	UserID  string `json:"user_id" validate:"required,uuid"`
	Type    string `json:"type" validate:"required,oneof=booking reminder badge system"`
	Message string `json:"message" validate:"required,max=1000"`
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}

	list, err := h.store.ListNotifications(c.UserContext(), userID, c.QueryInt("limit", 50))
	if err != nil {
		return services.StoreError("list notifications", err)
	}
	if list == nil {
		list = []models.Notification{}
	}
	return c.JSON(fiber.Map{"notifications": list})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return services.ValidationError("id", "Invalid notification ID")
	}

	if err := h.store.MarkNotificationRead(c.UserContext(), id, userID); err != nil {
		if errors.Is(err, services.ErrRecordNotFound) {
			return services.NotFoundError("notification", "Notification not found")
		}
		return services.StoreError("mark notification read", err)
	}
	return c.JSON(fiber.Map{"message": "Notification marked as read"})
}

// Send lets an admin push a custom notification to one user.
func (h *NotificationHandler) Send(c *fiber.Ctx) error {
	var req SendNotificationRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	h.notifier.Notify(c.UserContext(), uuid.MustParse(req.UserID), req.Type, req.Message)
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"message": "Notification sent"})
}
