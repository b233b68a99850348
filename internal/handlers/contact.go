// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"schoolsite/internal/mail"
	"schoolsite/internal/metrics"
	"schoolsite/internal/models"
	"schoolsite/internal/notify"
	"schoolsite/internal/render"
)

// MessageStore persists contact messages. *store.MessageStore satisfies it.
type MessageStore interface {
	Create(ctx context.Context, m *models.ContactMessage) error
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	ListByStatus(ctx context.Context, status models.MessageStatus, limit int) ([]models.ContactMessage, error)
}

// Contact handles the contact form. Submissions are stored first and then
// handed to the mail provider, so a failed delivery is never lost.
type Contact struct {
	renderer    *render.Renderer
	messages    MessageStore
	sender      mail.Sender
	notifier    *notify.Center
	officeEmail string
}

// NewContact creates the contact handler. sender may be nil, in which case
// messages are only stored.
func NewContact(renderer *render.Renderer, messages MessageStore, sender mail.Sender, notifier *notify.Center, officeEmail string) *Contact {
	return &Contact{
		renderer:    renderer,
		messages:    messages,
		sender:      sender,
		notifier:    notifier,
		officeEmail: officeEmail,
	}
}

type contactData struct {
	Form         contactForm
	Errors       map[string]string
	Sent         bool
	Failed       bool
	OfficeEmail  string
	InquiryTypes []models.Option
	GradeLevels  []models.Option
}

// Form renders the empty form, or the thank-you notice after a redirect
// from a successful submission.
func (c *Contact) Form(w http.ResponseWriter, r *http.Request) {
	c.render(w, r, http.StatusOK, contactData{
		Form: contactForm{InquiryType: models.InquiryTypes[0].Value},
		Sent: r.URL.Query().Get("sent") == "1",
	})
}

// Submit validates, stores and delivers a submission. Invalid input and
// failed deliveries re-render the form with the visitor's values.
func (c *Contact) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form := parseContactForm(r)

	if err := form.Validate(); err != nil {
		c.render(w, r, http.StatusUnprocessableEntity, contactData{
			Form:   form,
			Errors: fieldErrors(err),
		})
		return
	}

	msg := form.message()
	if err := c.messages.Create(ctx, &msg); err != nil {
		slog.Error("store contact message failed", "error", err)
		metrics.ContactMessagesTotal.WithLabelValues("failed").Inc()
		c.notifier.Notify(ctx, notify.LevelError, "Failed to send message. Please try again.")
		c.render(w, r, http.StatusInternalServerError, contactData{Form: form, Failed: true})
		return
	}

	if c.sender == nil {
		slog.Info("contact message stored", "id", msg.ID, "inquiry_type", msg.InquiryType)
		metrics.ContactMessagesTotal.WithLabelValues("stored").Inc()
		c.succeeded(w, r)
		return
	}

	if err := c.sender.Send(ctx, msg); err != nil {
		slog.Error("deliver contact message failed", "id", msg.ID, "error", err)
		if merr := c.messages.MarkFailed(ctx, msg.ID, err.Error()); merr != nil {
			slog.Error("mark contact message failed", "id", msg.ID, "error", merr)
		}
		metrics.ContactMessagesTotal.WithLabelValues("failed").Inc()
		c.notifier.Notify(ctx, notify.LevelError, "Failed to send message. Please try again.")
		c.render(w, r, http.StatusBadGateway, contactData{Form: form, Failed: true})
		return
	}

	if err := c.messages.MarkSent(ctx, msg.ID); err != nil {
		slog.Error("mark contact message sent", "id", msg.ID, "error", err)
	}
	slog.Info("contact message sent", "id", msg.ID, "inquiry_type", msg.InquiryType)
	metrics.ContactMessagesTotal.WithLabelValues("sent").Inc()
	c.succeeded(w, r)
}

// RetryFailed resends up to limit messages whose delivery failed earlier
// and reports how many went through. It does nothing without a sender.
func (c *Contact) RetryFailed(ctx context.Context, limit int) (int, error) {
	if c.sender == nil {
		return 0, nil
	}
	failed, err := c.messages.ListByStatus(ctx, models.MessageStatusFailed, limit)
	if err != nil {
		return 0, fmt.Errorf("list failed messages: %w", err)
	}

	var sent int
	for _, msg := range failed {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if err := c.sender.Send(ctx, msg); err != nil {
			slog.Warn("retry contact message failed", "id", msg.ID, "error", err)
			if merr := c.messages.MarkFailed(ctx, msg.ID, err.Error()); merr != nil {
				slog.Error("mark contact message failed", "id", msg.ID, "error", merr)
			}
			metrics.ContactMessagesTotal.WithLabelValues("failed").Inc()
			continue
		}
		if err := c.messages.MarkSent(ctx, msg.ID); err != nil {
			slog.Error("mark contact message sent", "id", msg.ID, "error", err)
			continue
		}
		metrics.ContactMessagesTotal.WithLabelValues("sent").Inc()
		sent++
	}
	if len(failed) > 0 {
		slog.Info("contact message retry finished", "attempted", len(failed), "sent", sent)
	}
	return sent, nil
}

// RunRetry calls RetryFailed every interval until ctx is cancelled.
func (c *Contact) RunRetry(ctx context.Context, interval time.Duration, limit int) {
	if c.sender == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := c.RetryFailed(ctx, limit); err != nil && ctx.Err() == nil {
				slog.Error("contact message retry", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Contact) succeeded(w http.ResponseWriter, r *http.Request) {
	c.notifier.Notify(r.Context(), notify.LevelSuccess, "Message sent successfully!")
	http.Redirect(w, r, "/contact?sent=1", http.StatusSeeOther)
}

func (c *Contact) render(w http.ResponseWriter, r *http.Request, status int, data contactData) {
	data.OfficeEmail = c.officeEmail
	data.InquiryTypes = models.InquiryTypes
	data.GradeLevels = models.GradeLevels

	_, err := c.renderer.Page(w, r, status, "contact", &render.PageData{
		Title:         "Contact Us",
		Section:       "contact",
		Notifications: c.notifier.Drain(notify.VisitorFromContext(r.Context())),
		Data:          data,
	})
	if err != nil {
		slog.Error("render contact page failed", "error", err)
	}
}
