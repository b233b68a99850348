package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"

	"schoolsite/internal/models"
)

// findMessage reads a stored message back for assertions.
func findMessage(t *testing.T, db *sql.DB, id uuid.UUID) models.ContactMessage {
	t.Helper()
	var m models.ContactMessage
	err := db.QueryRow(`
		SELECT id, inquiry_type, grade, status, last_error, sent_at
		FROM contact_messages WHERE id = $1
	`, id).Scan(&m.ID, &m.InquiryType, &m.Grade, &m.Status, &m.LastError, &m.SentAt)
	if err != nil {
		t.Fatalf("find message %s: %v", id, err)
	}
	return m
}

func newMessage(t *testing.T, s *MessageStore) *models.ContactMessage {
	t.Helper()
	m := &models.ContactMessage{
		Name:        "Ada Parent",
		Email:       "ada-" + uuid.NewString()[:8] + "@example.com",
		Subject:     "Enrollment",
		Message:     "When does enrollment open?",
		InquiryType: "admissions",
		Grade:       "1-5",
	}
	if err := s.Create(context.Background(), m); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return m
}

func TestMessageStoreCreate(t *testing.T) {
	db := testDB(t)
	s := NewMessageStore(db)
	m := newMessage(t, s)
	t.Cleanup(func() { db.Exec("DELETE FROM contact_messages WHERE id = $1", m.ID) })

	if m.ID == uuid.Nil {
		t.Error("expected ID to be assigned")
	}
	if m.Status != models.MessageStatusPending {
		t.Errorf("status: got %q, want pending", m.Status)
	}
	if m.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestMessageStoreMarkSent(t *testing.T) {
	db := testDB(t)
	s := NewMessageStore(db)
	ctx := context.Background()
	m := newMessage(t, s)
	t.Cleanup(func() { db.Exec("DELETE FROM contact_messages WHERE id = $1", m.ID) })

	if err := s.MarkFailed(ctx, m.ID, "smtp down"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	if err := s.MarkSent(ctx, m.ID); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}

	got := findMessage(t, db, m.ID)
	if got.Status != models.MessageStatusSent {
		t.Errorf("status: got %q, want sent", got.Status)
	}
	if got.SentAt == nil {
		t.Error("expected sent_at to be set")
	}
	if got.InquiryType != "admissions" || got.Grade != "1-5" {
		t.Errorf("inquiry/grade: got %q/%q", got.InquiryType, got.Grade)
	}
	if got.LastError != nil {
		t.Errorf("last_error should be cleared, got %q", *got.LastError)
	}
}

func TestMessageStoreMarkFailed(t *testing.T) {
	db := testDB(t)
	s := NewMessageStore(db)
	ctx := context.Background()
	m := newMessage(t, s)
	t.Cleanup(func() { db.Exec("DELETE FROM contact_messages WHERE id = $1", m.ID) })

	if err := s.MarkFailed(ctx, m.ID, "rate limited"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	failed, err := s.ListByStatus(ctx, models.MessageStatusFailed, 50)
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	var found bool
	for _, f := range failed {
		if f.ID == m.ID {
			found = true
			if f.LastError == nil || *f.LastError != "rate limited" {
				t.Errorf("last_error: got %v", f.LastError)
			}
		}
	}
	if !found {
		t.Error("failed message missing from ListByStatus")
	}
}
