package routes

import (
	"github.com/anjiri1684/mixlab_studio/handlers"
	"github.com/gofiber/fiber/v2"
)

// Deps carries the handlers and middleware built in main.
type Deps struct {
	Auth     fiber.Handler
	Guest    fiber.Handler
	Throttle fiber.Handler

	Users         *handlers.AuthHandler
	Bookings      *handlers.BookingHandler
	Guests        *handlers.GuestHandler
	Notifications *handlers.NotificationHandler
	Analytics     *handlers.AnalyticsHandler
	Stream        *handlers.StreamHandler
}

func Setup(app *fiber.App, d Deps) {
	AuthRoutes(app, d)
	PublicRoutes(app)
	BookingRoutes(app, d)
	GuestRoutes(app, d)
	GamificationRoutes(app, d)
	ProfileRoutes(app, d)
	NotificationRoutes(app, d)
	AdminRoutes(app, d)
}
