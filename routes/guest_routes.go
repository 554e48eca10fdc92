package routes

import (
	"github.com/gofiber/fiber/v2"
)

// GuestRoutes are unauthenticated; callers are identified by the guest cookie.
func GuestRoutes(app *fiber.App, d Deps) {
	api := app.Group("/api/v1")

	guest := api.Group("/guest", d.Throttle, d.Guest)
	guest.Get("/profile", d.Guests.GetProfile)
	guest.Get("/history", d.Guests.GetHistory)
	guest.Post("/progress/:gameId", d.Guests.SaveProgress)
	guest.Get("/lessons/:lessonId", d.Guests.AccessLesson)
}
