// webhook_log.go records CMS webhook deliveries in the database for
// debugging. Each entry captures which entry changed and how many cached
// pages were purged as a result.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// WebhookLogStore handles webhook log operations.
type WebhookLogStore struct {
	db *sql.DB
}

// NewWebhookLogStore creates a new WebhookLogStore.
func NewWebhookLogStore(db *sql.DB) *WebhookLogStore {
	return &WebhookLogStore{db: db}
}

// WebhookEntry is a single received webhook.
type WebhookEntry struct {
	ID          int64     `json:"id"`
	Event       string    `json:"event"`
	Model       string    `json:"model"`
	EntryID     string    `json:"entry_id"`
	PagesPurged int       `json:"pages_purged"`
	ReceivedAt  time.Time `json:"received_at"`
}

// Log records a webhook delivery. Failures are logged and swallowed.
func (s *WebhookLogStore) Log(ctx context.Context, e WebhookEntry) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO webhook_events (event, model, entry_id, pages_purged)
		VALUES ($1, $2, $3, $4)
	`, e.Event, e.Model, e.EntryID, e.PagesPurged)
	if err != nil {
		slog.Warn("failed to log webhook",
			"event", e.Event,
			"model", e.Model,
			"entry_id", e.EntryID,
			"error", err,
		)
		return
	}
	slog.Debug("webhook logged", "event", e.Event, "model", e.Model, "entry_id", e.EntryID)
}

// RecentEntries returns the most recent webhook deliveries, newest first.
func (s *WebhookLogStore) RecentEntries(ctx context.Context, limit int) ([]WebhookEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event, model, entry_id, pages_purged, received_at
		FROM webhook_events
		ORDER BY received_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query webhook log: %w", err)
	}
	defer rows.Close()

	var entries []WebhookEntry
	for rows.Next() {
		var e WebhookEntry
		if err := rows.Scan(&e.ID, &e.Event, &e.Model, &e.EntryID, &e.PagesPurged, &e.ReceivedAt); err != nil {
			return nil, fmt.Errorf("scan webhook log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
