package routes

import (
	"github.com/anjiri1684/mixlab_studio/middleware"
	"github.com/gofiber/fiber/v2"
)

func BookingRoutes(app *fiber.App, d Deps) {
	api := app.Group("/api/v1")

	booking := api.Group("/bookings", d.Auth)
	booking.Post("", d.Bookings.CreateBooking)
	booking.Get("/me", d.Bookings.GetMyBookings)
	booking.Post("/check-in", middleware.InstructorRequired(), d.Bookings.CheckIn)
	booking.Put("/:id", d.Bookings.RescheduleBooking)
	booking.Delete("/:id", d.Bookings.CancelBooking)
	booking.Get("/:id/qrcode", d.Bookings.GetBookingQRCode)
	booking.Post("/:id/complete", middleware.InstructorRequired(), d.Bookings.CompleteBooking)
}
