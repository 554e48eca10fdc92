package routes

import (
	"github.com/anjiri1684/mixlab_studio/handlers"
	"github.com/anjiri1684/mixlab_studio/middleware"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(app *fiber.App, d Deps) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", d.Auth, middleware.AdminRequired())

	users := admin.Group("/users")
	users.Get("", handlers.GetAllUsers)
	users.Put("/:id", handlers.UpdateUser)
	users.Delete("/:id", handlers.AdminDeleteUser)
	users.Get("/:id/bookings", d.Bookings.GetUserBookings)

	admin.Post("/instructors", handlers.AddInstructor)

	admin.Post("/lessons", handlers.CreateLesson)
	admin.Delete("/lessons/:lessonId", handlers.DeleteLesson)
	admin.Post("/badges", handlers.CreateBadge)

	admin.Post("/reports", d.Analytics.GenerateReport)
	analytics := admin.Group("/analytics")
	analytics.Get("/revenue", d.Analytics.Revenue)
	analytics.Get("/student-engagement", d.Analytics.StudentEngagement)
	analytics.Get("/popular-slots", d.Analytics.PopularSlots)

	admin.Get("/uploads/signature", handlers.GenerateUploadSignature)
}
