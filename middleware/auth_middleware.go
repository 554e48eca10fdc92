package middleware

import (
	"errors"
	"slices"

	config "github.com/anjiri1684/mixlab_studio/configs"
	"github.com/anjiri1684/mixlab_studio/models"
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

func Protected() fiber.Handler {
	return ProtectedWithSecret(config.Config("JWT_SECRET"))
}

func ProtectedWithSecret(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   []byte(secret),
		ErrorHandler: jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if err.Error() == "Missing or malformed JWT" {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"status": "error", "error": "unauthorized", "message": "Missing or malformed JWT"})
	}
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"status": "error", "error": "unauthorized", "message": "Invalid or expired JWT"})
}

func claims(c *fiber.Ctx) (jwt.MapClaims, bool) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return nil, false
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	return mc, ok
}

// CurrentUserID reads the user_id claim set at login.
func CurrentUserID(c *fiber.Ctx) (uuid.UUID, error) {
	mc, ok := claims(c)
	if !ok {
		return uuid.Nil, errors.New("missing token claims")
	}
	raw, ok := mc["user_id"].(string)
	if !ok {
		return uuid.Nil, errors.New("user_id not found in claims")
	}
	return uuid.Parse(raw)
}

func CurrentRole(c *fiber.Ctx) string {
	mc, ok := claims(c)
	if !ok {
		return ""
	}
	role, _ := mc["role"].(string)
	return role
}

// RolesRequired lets the request through when the caller holds any of roles.
func RolesRequired(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !slices.Contains(roles, CurrentRole(c)) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"status":  "error",
				"error":   "forbidden",
				"message": "Forbidden: insufficient role",
			})
		}
		return c.Next()
	}
}

func AdminRequired() fiber.Handler {
	return RolesRequired(models.RoleAdmin)
}

func InstructorRequired() fiber.Handler {
	return RolesRequired(models.RoleInstructor, models.RoleAdmin)
}
