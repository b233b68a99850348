package mail

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

	"schoolsite/internal/models"
)

// EmailJS sends messages through the EmailJS REST API using a template
// configured in the EmailJS dashboard.
type EmailJS struct {
	cfg  Config
	http *http.Client
	now  func() time.Time
}

// NewEmailJS creates an EmailJS sender. A nil client gets a 15 second timeout.
func NewEmailJS(cfg Config, client *http.Client) *EmailJS {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if cfg.EmailJSBaseURL == "" {
		cfg.EmailJSBaseURL = "https://api.emailjs.com"
	}
	return &EmailJS{cfg: cfg, http: client, now: time.Now}
}

type emailJSRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	TemplateParams map[string]string `json:"template_params"`
}

// Send posts the message to EmailJS. Any non-2xx reply is an error
// carrying the response text.
func (e *EmailJS) Send(ctx context.Context, m models.ContactMessage) error {
	payload, err := json.Marshal(emailJSRequest{
		ServiceID:      e.cfg.EmailJSServiceID,
		TemplateID:     e.cfg.EmailJSTemplateID,
		UserID:         e.cfg.EmailJSPublicKey,
		TemplateParams: templateParams(e.cfg, m, e.now()),
	})
	if err != nil {
		return fmt.Errorf("emailjs encode: %w", err)
	}

	url := strings.TrimRight(e.cfg.EmailJSBaseURL, "/") + "/api/v1.0/email/send"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("emailjs request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.http.Do(req)
	if err != nil {
		return fmt.Errorf("emailjs send: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("emailjs error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	slog.Info("contact message sent", "provider", "emailjs", "id", m.ID)
	return nil
}
