package handlers

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/anjiri1684/mixlab_studio/websocket"
	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// StreamHandler serves the live notification stream. The first frame a
// client sends must be {"type":"auth","token":"<jwt>"}.
type StreamHandler struct {
	hub    *websocket.Hub
	secret string
}

func NewStreamHandler(hub *websocket.Hub, secret string) *StreamHandler {
	return &StreamHandler{hub: hub, secret: secret}
}

// Upgrade rejects plain HTTP requests to the websocket endpoint.
func (h *StreamHandler) Upgrade(c *fiber.Ctx) error {
	if !websocketcontrib.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return c.Next()
}

func (h *StreamHandler) Serve(c *websocketcontrib.Conn) {
	type AuthMessage struct {
		Type  string `json:"type"`
		Token string `json:"token"`
	}
	var authMsg AuthMessage
	if err := c.ReadJSON(&authMsg); err != nil || authMsg.Type != "auth" {
		slog.Warn("websocket auth failed: missing auth message", "error", err)
		_ = c.WriteJSON(fiber.Map{"status": "error", "error": "unauthorized", "message": "Invalid or missing auth message"})
		c.Close()
		return
	}

	userID, err := h.authenticate(authMsg.Token)
	if err != nil {
		slog.Warn("websocket auth failed", "error", err)
		_ = c.WriteJSON(fiber.Map{"status": "error", "error": "unauthorized", "message": "Invalid token"})
		c.Close()
		return
	}

	client := &websocket.Client{UserID: userID, Conn: c}
	h.hub.Register <- client
	defer func() {
		h.hub.Unregister <- client
		c.Close()
	}()

	_ = c.WriteJSON(fiber.Map{"type": "ready", "user_id": userID})

	// The stream is server-push only; reads just detect disconnects.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if !websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseNormalClosure) {
				slog.Debug("websocket read error", "user_id", userID, "error", err)
			}
			return
		}
	}
}

func (h *StreamHandler) authenticate(tokenString string) (uuid.UUID, error) {
	claims, err := ParseToken(tokenString, h.secret)
	if err != nil {
		return uuid.Nil, err
	}
	raw, ok := claims["user_id"].(string)
	if !ok {
		return uuid.Nil, errors.New("user_id not found in claims")
	}
	return uuid.Parse(raw)
}

func ParseToken(tokenString, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
