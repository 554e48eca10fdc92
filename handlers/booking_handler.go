package handlers

import (
	"context"

	"github.com/anjiri1684/mixlab_studio/middleware"
	"github.com/anjiri1684/mixlab_studio/models"
	"github.com/anjiri1684/mixlab_studio/services"
	"github.com/anjiri1684/mixlab_studio/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type BookingAPI interface {
	Create(ctx context.Context, in services.CreateBookingInput) (*models.Booking, error)
	Reschedule(ctx context.Context, id uuid.UUID, in services.RescheduleInput) (*models.Booking, error)
	Cancel(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	CheckIn(ctx context.Context, in services.CheckInInput) (*models.Booking, error)
	Complete(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Booking, error)
}

type BookingHandler struct {
	bookings BookingAPI
}

func NewBookingHandler(bookings BookingAPI) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

type CreateBookingRequest struct {
	StudentID    *string `json:"student_id" validate:"omitempty,uuid"`
	LessonType   string  `json:"lesson_type" validate:"required,max=100"`
	Date         string  `json:"date" validate:"required"`
	InstructorID *string `json:"instructor_id" validate:"omitempty,uuid"`
	StartTime    *string `json:"start_time"`
	EndTime      *string `json:"end_time"`
	Notes        *string `json:"notes" validate:"omitempty,max=2000"`
	Price        float64 `json:"price" validate:"gte=0"`
}

type RescheduleBookingRequest struct {
	Date      *string `json:"date"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
}

type CheckInRequest struct {
	BookingID *string `json:"booking_id" validate:"omitempty,uuid"`
	QRCode    string  `json:"qr_code"`
}

func (h *BookingHandler) CreateBooking(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}

	var req CreateBookingRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	studentID := userID
	if req.StudentID != nil {
		requested := uuid.MustParse(*req.StudentID)
		if requested != userID && middleware.CurrentRole(c) != models.RoleAdmin {
			return services.ForbiddenError("forbidden", "Only admins can book on behalf of another student")
		}
		studentID = requested
	}

	in := services.CreateBookingInput{
		StudentID:  studentID,
		LessonType: req.LessonType,
		Date:       req.Date,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Notes:      req.Notes,
		Price:      req.Price,
	}
	if req.InstructorID != nil {
		id := uuid.MustParse(*req.InstructorID)
		in.InstructorID = &id
	}

	booking, err := h.bookings.Create(c.UserContext(), in)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Booking created successfully",
		"booking": booking,
		"qr_code": booking.QRCode,
	})
}

func (h *BookingHandler) GetMyBookings(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}

	bookings, err := h.bookings.ListForUser(c.UserContext(), userID)
	if err != nil {
		return err
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return c.JSON(fiber.Map{"bookings": bookings})
}

// GetUserBookings lists any user's bookings for admins.
func (h *BookingHandler) GetUserBookings(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return services.ValidationError("user_id", "Invalid user ID")
	}

	bookings, err := h.bookings.ListForUser(c.UserContext(), userID)
	if err != nil {
		return err
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return c.JSON(fiber.Map{"user_id": userID, "bookings": bookings})
}

func (h *BookingHandler) RescheduleBooking(c *fiber.Ctx) error {
	booking, err := h.authorizedBooking(c)
	if err != nil {
		return err
	}

	var req RescheduleBookingRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	updated, err := h.bookings.Reschedule(c.UserContext(), booking.ID, services.RescheduleInput{
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Booking rescheduled successfully", "booking": updated})
}

func (h *BookingHandler) CancelBooking(c *fiber.Ctx) error {
	booking, err := h.authorizedBooking(c)
	if err != nil {
		return err
	}

	cancelled, err := h.bookings.Cancel(c.UserContext(), booking.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Booking cancelled successfully", "booking_id": cancelled.ID})
}

func (h *BookingHandler) CheckIn(c *fiber.Ctx) error {
	var req CheckInRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	in := services.CheckInInput{QRCode: req.QRCode}
	if req.BookingID != nil {
		id := uuid.MustParse(*req.BookingID)
		in.BookingID = &id
	}

	booking, err := h.bookings.CheckIn(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Checked in successfully", "booking": booking})
}

func (h *BookingHandler) CompleteBooking(c *fiber.Ctx) error {
	booking, err := h.authorizedBooking(c)
	if err != nil {
		return err
	}

	completed, err := h.bookings.Complete(c.UserContext(), booking.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Booking completed", "booking": completed})
}

// GetBookingQRCode renders the check-in payload as a PNG data URL.
func (h *BookingHandler) GetBookingQRCode(c *fiber.Ctx) error {
	booking, err := h.authorizedBooking(c)
	if err != nil {
		return err
	}

	image, err := utils.QRCodeDataURL(booking.QRCode)
	if err != nil {
		return services.StoreError("render qr code", err)
	}
	return c.JSON(fiber.Map{
		"booking_id": booking.ID,
		"qr_code":    booking.QRCode,
		"image":      image,
	})
}

// authorizedBooking loads :id and checks the caller is its student, its
// instructor or an admin.
func (h *BookingHandler) authorizedBooking(c *fiber.Ctx) (*models.Booking, error) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, services.ValidationError("id", "Invalid booking ID")
	}

	booking, err := h.bookings.Get(c.UserContext(), id)
	if err != nil {
		return nil, err
	}

	isInstructor := booking.InstructorID != nil && *booking.InstructorID == userID
	if booking.StudentID != userID && !isInstructor && middleware.CurrentRole(c) != models.RoleAdmin {
		return nil, services.ForbiddenError("forbidden", "You do not have access to this booking")
	}
	return booking, nil
}
