package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID.String(),
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestProtectedAndRoles(t *testing.T) {
	app := fiber.New()
	app.Get("/me", ProtectedWithSecret(testSecret), func(c *fiber.Ctx) error {
		id, err := CurrentUserID(c)
		if err != nil {
			return err
		}
		return c.SendString(id.String())
	})
	app.Get("/admin", ProtectedWithSecret(testSecret), AdminRequired(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	user := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, user, "student"))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, user, "student"))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, user, "admin"))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

type recordingTracker struct {
	ids []string
}

func (r *recordingTracker) Track(_ context.Context, guestID, _, _ string) error {
	r.ids = append(r.ids, guestID)
	return nil
}

func TestGuestTracking(t *testing.T) {
	tracker := &recordingTracker{}
	app := fiber.New()
	app.Get("/guest", GuestTracking(tracker, 30), func(c *fiber.Ctx) error {
		return c.SendString(GuestID(c))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/guest", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var issued *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == GuestCookieName {
			issued = ck
		}
	}
	require.NotNil(t, issued)
	assert.True(t, strings.HasPrefix(issued.Value, "guest_"))
	assert.True(t, issued.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/guest", nil)
	req.AddCookie(&http.Cookie{Name: GuestCookieName, Value: issued.Value})
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Cookies())

	require.Len(t, tracker.ids, 2)
	assert.Equal(t, tracker.ids[0], tracker.ids[1])
}

func TestGuestTracking_ReplacesMalformedCookie(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"oversized", "guest_" + strings.Repeat("a", 500)},
		{"wrong shape", "not-a-guest-id"},
		{"bad hex", "guest_m3x9k2_zzzzzzzzzzzzzzzz"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tracker := &recordingTracker{}
			app := fiber.New()
			app.Get("/guest", GuestTracking(tracker, 30), func(c *fiber.Ctx) error {
				return c.SendString(GuestID(c))
			})

			req := httptest.NewRequest(http.MethodGet, "/guest", nil)
			req.AddCookie(&http.Cookie{Name: GuestCookieName, Value: tc.value})
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, fiber.StatusOK, resp.StatusCode)

			require.Len(t, tracker.ids, 1)
			assert.NotEqual(t, tc.value, tracker.ids[0])
			assert.LessOrEqual(t, len(tracker.ids[0]), 64)
			assert.True(t, strings.HasPrefix(tracker.ids[0], "guest_"))
			require.Len(t, resp.Cookies(), 1)
			assert.Equal(t, tracker.ids[0], resp.Cookies()[0].Value)
		})
	}
}

func TestRateLimit(t *testing.T) {
	app := fiber.New()
	app.Get("/", RateLimit(1, time.Minute), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}
