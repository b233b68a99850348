// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"schoolsite/internal/models"
)

// MessageStore persists contact form submissions. A message is written as
// pending before delivery is attempted and then marked sent or failed.
type MessageStore struct {
	db *sql.DB
}

// NewMessageStore creates a new MessageStore with the given database connection.
func NewMessageStore(db *sql.DB) *MessageStore {
	return &MessageStore{db: db}
}

// Create inserts a pending message and fills in its ID, status and
// creation time.
func (s *MessageStore) Create(ctx context.Context, m *models.ContactMessage) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO contact_messages (name, email, phone, subject, message, inquiry_type, grade)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, status, created_at
	`, m.Name, m.Email, m.Phone, m.Subject, m.Message, m.InquiryType, m.Grade).Scan(&m.ID, &m.Status, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("create contact message: %w", err)
	}
	return nil
}

// MarkSent records a successful delivery.
func (s *MessageStore) MarkSent(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE contact_messages
		SET status = 'sent', last_error = NULL, sent_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("mark contact message sent: %w", err)
	}
	return nil
}

// MarkFailed records a failed delivery along with the error text.
func (s *MessageStore) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE contact_messages
		SET status = 'failed', last_error = $2
		WHERE id = $1
	`, id, reason)
	if err != nil {
		return fmt.Errorf("mark contact message failed: %w", err)
	}
	return nil
}

// ListByStatus returns up to limit messages with the given status, newest first.
func (s *MessageStore) ListByStatus(ctx context.Context, status models.MessageStatus, limit int) ([]models.ContactMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, phone, subject, message, inquiry_type, grade,
		       status, last_error, created_at, sent_at
		FROM contact_messages
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, status, limit)
	if err != nil {
		return nil, fmt.Errorf("list contact messages: %w", err)
	}
	defer rows.Close()

	var items []models.ContactMessage
	for rows.Next() {
		var m models.ContactMessage
		if err := rows.Scan(
			&m.ID, &m.Name, &m.Email, &m.Phone, &m.Subject, &m.Message, &m.InquiryType, &m.Grade,
			&m.Status, &m.LastError, &m.CreatedAt, &m.SentAt,
		); err != nil {
			return nil, fmt.Errorf("scan contact message: %w", err)
		}
		items = append(items, m)
	}
	return items, rows.Err()
}
