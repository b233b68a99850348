// Package mail delivers contact form submissions to the school office,
// either through the EmailJS REST API or over SMTP.
package mail

import (
	"context"
	"fmt"
	"strings"
	"time"

	"schoolsite/internal/models"
)

// Sender delivers one contact message.
type Sender interface {
	Send(ctx context.Context, m models.ContactMessage) error
}

// Config selects and configures a provider.
type Config struct {
	Provider string // "emailjs", "smtp" or "" for none

	EmailJSServiceID  string
	EmailJSTemplateID string
	EmailJSPublicKey  string
	EmailJSBaseURL    string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	From         string

	To     string // office address receiving submissions
	ToName string
}

// New builds the configured Sender. It returns nil, nil when no provider
// is configured; messages are then only stored.
func New(cfg Config) (Sender, error) {
	if cfg.ToName == "" {
		cfg.ToName = "School Administration"
	}
	switch cfg.Provider {
	case "":
		return nil, nil
	case "emailjs":
		if cfg.EmailJSServiceID == "" || cfg.EmailJSTemplateID == "" || cfg.EmailJSPublicKey == "" {
			return nil, fmt.Errorf("mail: emailjs needs service id, template id and public key")
		}
		return NewEmailJS(cfg, nil), nil
	case "smtp":
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("mail: smtp needs a host")
		}
		return NewSMTP(cfg), nil
	}
	return nil, fmt.Errorf("mail: unknown provider %q", cfg.Provider)
}

// templateParams are the fields handed to the mail template. Optional
// fields get a readable placeholder.
func templateParams(cfg Config, m models.ContactMessage, at time.Time) map[string]string {
	phone := m.Phone
	if strings.TrimSpace(phone) == "" {
		phone = "Not provided"
	}
	grade := "Not applicable"
	if m.Grade != "" {
		grade = models.OptionLabel(models.GradeLevels, m.Grade)
	}
	return map[string]string{
		"to_email":      cfg.To,
		"to_name":       cfg.ToName,
		"from_name":     m.Name,
		"from_email":    m.Email,
		"name":          m.Name,
		"email":         m.Email,
		"phone":         phone,
		"subject":       m.Subject,
		"message":       m.Message,
		"student_grade": grade,
		"inquiry_type":  models.OptionLabel(models.InquiryTypes, m.InquiryType),
		"date":          at.Format("Monday, January 2, 2006"),
		"time":          at.Format("03:04 PM"),
		"reply_to":      m.Email,
	}
}

// headerSafe strips line breaks so user input cannot add mail headers.
func headerSafe(s string) string {
	return strings.Join(strings.Fields(strings.NewReplacer("\r", " ", "\n", " ").Replace(s)), " ")
}
