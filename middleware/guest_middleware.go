package middleware

import (
	"context"
	"time"

	"github.com/anjiri1684/mixlab_studio/utils"
	"github.com/gofiber/fiber/v2"
)

const GuestCookieName = "guest_id"

type GuestTracker interface {
	Track(ctx context.Context, guestID, ip, userAgent string) error
}

// GuestTracking issues the guest cookie on first visit or when the
// presented one is malformed, and records the session before the handler runs.
func GuestTracking(tracker GuestTracker, cookieDays int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		guestID := c.Cookies(GuestCookieName)
		if !utils.ValidGuestID(guestID) {
			guestID = utils.GenerateGuestID(time.Now())
			c.Cookie(&fiber.Cookie{
				Name:     GuestCookieName,
				Value:    guestID,
				Path:     "/",
				Expires:  time.Now().AddDate(0, 0, cookieDays),
				HTTPOnly: true,
				Secure:   c.Protocol() == "https",
				SameSite: fiber.CookieSameSiteLaxMode,
			})
		}

		if err := tracker.Track(c.UserContext(), guestID, c.IP(), c.Get(fiber.HeaderUserAgent)); err != nil {
			return err
		}

		c.Locals(GuestCookieName, guestID)
		return c.Next()
	}
}

func GuestID(c *fiber.Ctx) string {
	id, _ := c.Locals(GuestCookieName).(string)
	return id
}
