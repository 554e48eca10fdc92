package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	config "github.com/anjiri1684/mixlab_studio/configs"
)

const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

// Mailer sends transactional email.
type Mailer interface {
	Send(ctx context.Context, toName, toEmail, subject, htmlContent string) error
}

type BrevoService struct {
	APIKey      string
	SenderEmail string
	SenderName  string
	Endpoint    string
	Client      *http.Client
}

type brevoPayload struct {
	Sender      map[string]string   `json:"sender"`
	To          []map[string]string `json:"to"`
	Subject     string              `json:"subject"`
	HTMLContent string              `json:"htmlContent"`
}

// NewEmailServiceFromEnv returns nil when Brevo is not configured.
func NewEmailServiceFromEnv() *BrevoService {
	apiKey := config.Config("BREVO_API_KEY")
	senderEmail := config.Config("EMAIL_SENDER")
	senderName := config.Config("EMAIL_SENDER_NAME")

	if apiKey == "" || senderEmail == "" || senderName == "" {
		slog.Warn("email service not configured, missing API key, sender email or sender name")
		return nil
	}

	slog.Info("email service initialized", "sender", senderEmail)
	return &BrevoService{
		APIKey:      apiKey,
		SenderEmail: senderEmail,
		SenderName:  senderName,
		Endpoint:    brevoEndpoint,
		Client:      &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *BrevoService) Send(ctx context.Context, toName, toEmail, subject, htmlContent string) error {
	at := strings.Index(toEmail, "@")
	if at <= 0 {
		return fmt.Errorf("invalid recipient email: %s", toEmail)
	}

	recipientName := toName
	if recipientName == "" {
		recipientName = toEmail[:at]
	}

	body, err := json.Marshal(brevoPayload{
		Sender:      map[string]string{"name": s.SenderName, "email": s.SenderEmail},
		To:          []map[string]string{{"email": toEmail, "name": recipientName}},
		Subject:     subject,
		HTMLContent: htmlContent,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("api-key", s.APIKey)
	req.Header.Set("content-type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("brevo returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// SendAsync delivers in the background and only logs failures.
func SendAsync(m Mailer, toName, toEmail, subject, htmlContent string) {
	if m == nil {
		slog.Info("email client not initialized, skipping email send", "to", toEmail, "subject", subject)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := m.Send(ctx, toName, toEmail, subject, htmlContent); err != nil {
			slog.Error("failed to send email", "to", toEmail, "error", err)
			return
		}
		slog.Info("email sent", "to", toEmail, "subject", subject)
	}()
}

func OTPEmail(code string, ttl time.Duration) (subject, html string) {
	subject = "Your MixLab password reset code"
	html = fmt.Sprintf(
		"<h1>Password reset</h1><p>Use this code to reset your password:</p><h2>%s</h2><p>It expires in %d minutes.</p>",
		code, int(ttl.Minutes()),
	)
	return subject, html
}
