package routes

import (
	"github.com/anjiri1684/mixlab_studio/handlers"
	"github.com/gofiber/fiber/v2"
)

func PublicRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Get("/lessons", handlers.ListLessons)
	api.Get("/lessons/:lessonId", handlers.GetLesson)

	api.Get("/instructors", handlers.ListInstructors)
	api.Get("/instructors/:id/schedule", handlers.GetInstructorSchedule)
}
