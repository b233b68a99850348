package mail

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strconv"
	"time"

	"schoolsite/internal/models"
)

// SMTP sends messages as plain-text mail through an SMTP relay.
type SMTP struct {
	cfg      Config
	now      func() time.Time
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTP creates an SMTP sender. Port 0 means 587.
func NewSMTP(cfg Config) *SMTP {
	if cfg.SMTPPort == 0 {
		cfg.SMTPPort = 587
	}
	if cfg.From == "" {
		cfg.From = cfg.SMTPUser
	}
	return &SMTP{cfg: cfg, now: time.Now, sendMail: smtp.SendMail}
}

// Send delivers the message. net/smtp has no context support, so ctx is
// only checked before dialing.
func (s *SMTP) Send(ctx context.Context, m models.ContactMessage) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	addr := s.cfg.SMTPHost + ":" + strconv.Itoa(s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}

	if err := s.sendMail(addr, auth, s.cfg.From, []string{s.cfg.To}, s.build(m)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	slog.Info("contact message sent", "provider", "smtp", "id", m.ID)
	return nil
}

// build renders the RFC 5322 message.
func (s *SMTP) build(m models.ContactMessage) []byte {
	params := templateParams(s.cfg, m, s.now())

	var body bytes.Buffer
	body.WriteString("MIME-Version: 1.0\r\n")
	body.WriteString(fmt.Sprintf("From: %s\r\n", headerSafe(s.cfg.From)))
	body.WriteString(fmt.Sprintf("To: %s\r\n", headerSafe(s.cfg.To)))
	body.WriteString(fmt.Sprintf("Reply-To: %s\r\n", headerSafe(m.Email)))
	body.WriteString(fmt.Sprintf("Subject: [Contact] %s\r\n", headerSafe(m.Subject)))
	body.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	body.WriteString("\r\n")

	for _, k := range []string{"name", "email", "phone", "inquiry_type", "student_grade", "date", "time"} {
		body.WriteString(fmt.Sprintf("%s: %s\r\n", k, params[k]))
	}
	body.WriteString("\r\n")
	body.WriteString(m.Message)
	body.WriteString("\r\n")
	return body.Bytes()
}
