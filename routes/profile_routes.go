package routes

import (
	"github.com/anjiri1684/mixlab_studio/handlers"
	"github.com/gofiber/fiber/v2"
)

func ProfileRoutes(app *fiber.App, d Deps) {
	api := app.Group("/api/v1")

	profile := api.Group("/profile", d.Auth)
	profile.Get("/me", handlers.GetProfile)
	profile.Put("/me", handlers.UpdateProfile)
	profile.Get("/progress", handlers.GetMyProgress)
}
