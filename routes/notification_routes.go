package routes

import (
	"github.com/anjiri1684/mixlab_studio/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func NotificationRoutes(app *fiber.App, d Deps) {
	api := app.Group("/api/v1")

	notifications := api.Group("/notifications", d.Auth)
	notifications.Get("", d.Notifications.List)
	notifications.Put("/:id/read", d.Notifications.MarkRead)
	notifications.Post("", middleware.AdminRequired(), d.Notifications.Send)

	api.Use("/ws", d.Stream.Upgrade)
	api.Get("/ws", websocket.New(d.Stream.Serve))
}
