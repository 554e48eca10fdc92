package routes

import (
	"github.com/anjiri1684/mixlab_studio/handlers"
	"github.com/gofiber/fiber/v2"
)

func GamificationRoutes(app *fiber.App, d Deps) {
	api := app.Group("/api/v1")

	api.Get("/badges", handlers.ListBadges)
	api.Get("/badges/me", d.Auth, handlers.GetMyBadges)
}
