// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package catalog holds the canonical collections loaded from the CMS.
// Each collection lives in its own slot with its own lock, loading flag and
// error. Loads for the same collection are ordered by start: a response
// that arrives after a newer load has started is dropped.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"schoolsite/internal/content"
	"schoolsite/internal/metrics"
	"schoolsite/internal/models"
	"schoolsite/internal/normalize"
)

// Source reads raw records. *content.Client satisfies it.
type Source interface {
	FetchCollection(ctx context.Context, res content.Resource, q content.Query) ([]json.RawMessage, error)
	FetchByID(ctx context.Context, res content.Resource, id string, q content.Query) (json.RawMessage, error)
}

// Snapshot is a read-only copy of one collection's state.
type Snapshot[T any] struct {
	Items    []T
	Loading  bool
	Err      error
	LoadedAt time.Time
}

// Ready reports whether the collection has been loaded without error.
func (s Snapshot[T]) Ready() bool {
	return !s.LoadedAt.IsZero() && s.Err == nil
}

type slot[T any] struct {
	mu   sync.Mutex
	gen  uint64
	snap Snapshot[T]
}

// begin marks a load as started and returns its generation.
func (s *slot[T]) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.snap.Loading = true
	return s.gen
}

// finish stores the outcome of load gen. It reports false, leaving the slot
// untouched, when a newer load has started since.
func (s *slot[T]) finish(gen uint64, items []T, err error, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	s.snap.Loading = false
	s.snap.Err = err
	s.snap.LoadedAt = at
	if err != nil {
		s.snap.Items = nil
	} else {
		s.snap.Items = items
	}
	return true
}

func (s *slot[T]) get() Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snap
	snap.Items = append([]T(nil), s.snap.Items...)
	return snap
}

// Catalog is the canonical store. Create one with New and share it.
type Catalog struct {
	src  Source
	norm *normalize.Normalizer
	now  func() time.Time

	events    slot[models.Event]
	news      slot[models.NewsArticle]
	galleries slot[models.Gallery]
}

// New creates an empty catalog reading from src.
func New(src Source, norm *normalize.Normalizer) *Catalog {
	return &Catalog{src: src, norm: norm, now: time.Now}
}

// LoadEvents re-fetches the events collection and returns the resulting
// snapshot.
func (c *Catalog) LoadEvents(ctx context.Context) Snapshot[models.Event] {
	return load(ctx, c, &c.events, content.Events, c.norm.Events)
}

// LoadNews re-fetches the news collection, newest first.
func (c *Catalog) LoadNews(ctx context.Context) Snapshot[models.NewsArticle] {
	return load(ctx, c, &c.news, content.News, c.norm.NewsList)
}

// LoadGalleries re-fetches the galleries collection.
func (c *Catalog) LoadGalleries(ctx context.Context) Snapshot[models.Gallery] {
	return load(ctx, c, &c.galleries, content.Galleries, c.norm.Galleries)
}

// LoadAll loads the three collections concurrently. A failing load does
// not cancel the others; the returned error joins every failure.
func (c *Catalog) LoadAll(ctx context.Context) error {
	var (
		wg   sync.WaitGroup
		errs [3]error
	)
	wg.Go(func() { errs[0] = c.LoadEvents(ctx).Err })
	wg.Go(func() { errs[1] = c.LoadNews(ctx).Err })
	wg.Go(func() { errs[2] = c.LoadGalleries(ctx).Err })
	wg.Wait()

	return errors.Join(errs[:]...)
}

// Run reloads every collection each interval until ctx is cancelled.
func (c *Catalog) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := c.LoadAll(ctx); err != nil {
				slog.Warn("catalog refresh incomplete", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Events returns the current events snapshot.
func (c *Catalog) Events() Snapshot[models.Event] { return c.events.get() }

// News returns the current news snapshot.
func (c *Catalog) News() Snapshot[models.NewsArticle] { return c.news.get() }

// Galleries returns the current galleries snapshot.
func (c *Catalog) Galleries() Snapshot[models.Gallery] { return c.galleries.get() }

// Event finds an event in the loaded collection, fetching it by id when
// absent. A missing record yields an error satisfying content.IsNotFound.
func (c *Catalog) Event(ctx context.Context, id string) (models.Event, error) {
	for _, ev := range c.events.get().Items {
		if ev.ID == id {
			return ev, nil
		}
	}
	raw, err := c.src.FetchByID(ctx, content.Events, id, content.Query{})
	if err != nil {
		return models.Event{}, fmt.Errorf("catalog event: %w", err)
	}
	return c.norm.Event(raw), nil
}

// Article finds a news article like Event does.
func (c *Catalog) Article(ctx context.Context, id string) (models.NewsArticle, error) {
	return c.ArticleVia(ctx, c.src, id)
}

// ArticleVia is Article with the fallback fetch going through src, so a
// visitor's authenticated client can be used for detail reads.
func (c *Catalog) ArticleVia(ctx context.Context, src Source, id string) (models.NewsArticle, error) {
	for _, a := range c.news.get().Items {
		if a.ID == id {
			return a, nil
		}
	}
	raw, err := src.FetchByID(ctx, content.News, id, content.Query{})
	if err != nil {
		return models.NewsArticle{}, fmt.Errorf("catalog article: %w", err)
	}
	return c.norm.News(raw), nil
}

func load[T any](ctx context.Context, c *Catalog, s *slot[T], res content.Resource, decode func([]json.RawMessage) []T) Snapshot[T] {
	gen := s.begin()

	raws, err := c.src.FetchCollection(ctx, res, content.Query{})
	var items []T
	if err == nil {
		items = decode(raws)
	}

	if !s.finish(gen, items, err, c.now()) {
		metrics.StaleResponsesTotal.WithLabelValues(string(res)).Inc()
		slog.Debug("stale collection response dropped", "resource", res, "generation", gen)
		return s.get()
	}

	if err != nil {
		slog.Warn("collection load failed", "resource", res, "error", err)
		metrics.CollectionSize.WithLabelValues(string(res)).Set(0)
	} else {
		metrics.CollectionSize.WithLabelValues(string(res)).Set(float64(len(items)))
	}
	return s.get()
}
