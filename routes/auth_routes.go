package routes

import (
	"github.com/gofiber/fiber/v2"
)

func AuthRoutes(app *fiber.App, d Deps) {
	api := app.Group("/api/v1")

	auth := api.Group("/auth", d.Throttle)
	auth.Post("/register", d.Users.Register)
	auth.Post("/login", d.Users.Login)
	auth.Post("/forgot-password", d.Users.ForgotPassword)
	auth.Post("/verify-otp", d.Users.VerifyOTP)
	auth.Post("/reset-password", d.Users.ResetPassword)
}
