package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"schoolsite/internal/cache"
	"schoolsite/internal/catalog"
	"schoolsite/internal/store"
)

const (
	maxWebhookBody = 1 << 20
	reloadTimeout  = 15 * time.Second
	recentWebhooks = 20
)

// Webhook receives CMS change notifications. Each accepted call reloads the
// affected collection and clears the rendered page cache.
type Webhook struct {
	secret    string
	catalog   *catalog.Catalog
	pageCache *cache.PageCache
	log       *store.WebhookLogStore
}

// NewWebhook creates the webhook handler. An empty secret accepts every
// call, which config.Load only allows outside production. pageCache and
// log may be nil.
func NewWebhook(secret string, cat *catalog.Catalog, pageCache *cache.PageCache, log *store.WebhookLogStore) *Webhook {
	return &Webhook{secret: secret, catalog: cat, pageCache: pageCache, log: log}
}

// CMS handles POST /webhooks/cms. The secret is read from the
// X-Webhook-Secret header or a bearer Authorization header.
func (h *Webhook) CMS(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		slog.Warn("webhook rejected", "remote", r.RemoteAddr)
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid webhook secret"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "unreadable body"})
		return
	}
	payload := gjson.ParseBytes(body)
	entry := store.WebhookEntry{
		Event:   payload.Get("event").String(),
		Model:   payload.Get("model").String(),
		EntryID: payload.Get("entry.documentId").String(),
	}
	if entry.EntryID == "" {
		entry.EntryID = payload.Get("entry.id").String()
	}

	ctx, cancel := context.WithTimeout(r.Context(), reloadTimeout)
	defer cancel()

	if err := h.reload(ctx, entry.Model); err != nil {
		slog.Warn("webhook reload incomplete", "model", entry.Model, "error", err)
	}

	if h.pageCache != nil {
		purged, err := h.pageCache.InvalidateAll(ctx)
		if err != nil {
			slog.Error("webhook cache purge failed", "error", err)
		}
		entry.PagesPurged = purged
	}

	if h.log != nil {
		h.log.Log(ctx, entry)
	}

	slog.Info("cms webhook processed",
		"event", entry.Event,
		"model", entry.Model,
		"entry", entry.EntryID,
		"purged", entry.PagesPurged,
	)
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "purged": entry.PagesPurged})
}

// Recent handles GET /webhooks/cms, listing the latest deliveries for
// debugging. It takes the same secret as CMS.
func (h *Webhook) Recent(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid webhook secret"})
		return
	}
	if h.log == nil {
		writeJSON(w, http.StatusOK, map[string]any{"entries": []store.WebhookEntry{}})
		return
	}

	entries, err := h.log.RecentEntries(r.Context(), recentWebhooks)
	if err != nil {
		slog.Error("list webhook entries failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "could not list entries"})
		return
	}
	if entries == nil {
		entries = []store.WebhookEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// reload refreshes the collection named by a CMS model. Unknown models
// reload everything.
func (h *Webhook) reload(ctx context.Context, model string) error {
	switch strings.ToLower(model) {
	case "event", "events":
		return h.catalog.LoadEvents(ctx).Err
	case "news", "article", "articles":
		return h.catalog.LoadNews(ctx).Err
	case "gallery", "galleries":
		return h.catalog.LoadGalleries(ctx).Err
	}
	return h.catalog.LoadAll(ctx)
}

func (h *Webhook) authorized(r *http.Request) bool {
	if h.secret == "" {
		return true
	}
	got := r.Header.Get("X-Webhook-Secret")
	if got == "" {
		got = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) == 1
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write json response failed", "error", err)
	}
}
