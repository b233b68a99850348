// Package notify keeps transient, auto-dismissing notifications for site
// visitors. Failures deep in the request path (a CMS call timing out, a
// contact form that could not be delivered) raise a notification; the page
// renderer drains the visitor's queue and shows each one once.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long a notification stays visible, and how long an
// undrained one is retained.
const DefaultTTL = 5 * time.Second

// maxPerVisitor bounds a single visitor's queue.
const maxPerVisitor = 10

// Level is the notification severity, mapped to styling by templates.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a single message shown to a visitor.
type Notification struct {
	ID        uuid.UUID
	Level     Level
	Message   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// DismissAfterMillis is the remaining display time, used by the page script.
func (n Notification) DismissAfterMillis(now time.Time) int64 {
	d := n.ExpiresAt.Sub(now).Milliseconds()
	if d < 0 {
		return 0
	}
	return d
}

// Notifier accepts notifications. The visitor is taken from the context.
type Notifier interface {
	Notify(ctx context.Context, level Level, message string)
}

type visitorKey struct{}

// WithVisitor returns a context carrying the visitor identifier.
func WithVisitor(ctx context.Context, visitor string) context.Context {
	return context.WithValue(ctx, visitorKey{}, visitor)
}

// VisitorFromContext returns the visitor identifier or "".
func VisitorFromContext(ctx context.Context) string {
	v, _ := ctx.Value(visitorKey{}).(string)
	return v
}

// Center is an in-memory Notifier keyed by visitor. Safe for concurrent use.
type Center struct {
	mu     sync.Mutex
	queues map[string][]Notification
	ttl    time.Duration
	now    func() time.Time
}

// NewCenter creates a notification center. A zero ttl uses DefaultTTL.
func NewCenter(ttl time.Duration) *Center {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Center{
		queues: make(map[string][]Notification),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Notify queues a notification for the visitor in ctx. Without a visitor
// the message is only logged.
func (c *Center) Notify(ctx context.Context, level Level, message string) {
	visitor := VisitorFromContext(ctx)
	if visitor == "" {
		slog.Debug("notification without visitor dropped", "level", level, "message", message)
		return
	}

	now := c.now()
	n := Notification{
		ID:        uuid.New(),
		Level:     level,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	q := live(c.queues[visitor], now)
	q = append(q, n)
	if len(q) > maxPerVisitor {
		q = q[len(q)-maxPerVisitor:]
	}
	c.queues[visitor] = q
}

// Drain returns the visitor's unexpired notifications, oldest first, and
// clears the queue.
func (c *Center) Drain(visitor string) []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	q := live(c.queues[visitor], c.now())
	delete(c.queues, visitor)
	return q
}

// Pending reports whether the visitor has unexpired notifications.
func (c *Center) Pending(visitor string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for _, n := range c.queues[visitor] {
		if now.Before(n.ExpiresAt) {
			return true
		}
	}
	return false
}

// Prune drops expired notifications for every visitor.
func (c *Center) Prune() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for visitor, q := range c.queues {
		q = live(q, now)
		if len(q) == 0 {
			delete(c.queues, visitor)
			continue
		}
		c.queues[visitor] = q
	}
}

// Run prunes periodically until ctx is cancelled.
func (c *Center) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.Prune()
		case <-ctx.Done():
			return
		}
	}
}

// live returns the unexpired notifications in a new slice; q is left as is.
func live(q []Notification, now time.Time) []Notification {
	var out []Notification
	for _, n := range q {
		if now.Before(n.ExpiresAt) {
			out = append(out, n)
		}
	}
	return out
}
