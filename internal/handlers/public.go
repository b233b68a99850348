// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"schoolsite/internal/cache"
	"schoolsite/internal/catalog"
	"schoolsite/internal/content"
	"schoolsite/internal/middleware"
	"schoolsite/internal/models"
	"schoolsite/internal/notify"
	"schoolsite/internal/render"
	"schoolsite/internal/session"
	"schoolsite/internal/slug"
	"schoolsite/internal/view"
)

const (
	homeSectionSize  = 6
	homeGalleryTiles = 4
	relatedLimit     = 3
)

// Chips and select options of the listing pages.
var (
	homeEventCategories = []string{
		view.CategoryAll, view.CategoryFeatured,
		models.CategoryAcademic, models.CategorySports, models.CategoryCultural,
	}

	eventCategories = append([]string{
		view.CategoryAll, view.CategoryUpcoming, view.CategoryThisMonth, view.CategoryFeatured,
	}, models.EventCategories...)

	eventSorts = []models.Option{
		{Value: string(view.SortDateAsc), Label: "Date (soonest first)"},
		{Value: string(view.SortDateDesc), Label: "Date (latest first)"},
	}

	newsSorts = []models.Option{
		{Value: string(view.SortDateDesc), Label: "Latest"},
		{Value: string(view.SortDateAsc), Label: "Oldest"},
		{Value: string(view.SortPopular), Label: "Most viewed"},
	}

	newsRanges = []models.Option{
		{Value: string(view.RangeAll), Label: "All time"},
		{Value: string(view.RangeWeek), Label: "This week"},
		{Value: string(view.RangeMonth), Label: "This month"},
		{Value: string(view.RangeYear), Label: "This year"},
	}
)

// Public groups handlers for the public site. Listing pages are derived
// from the catalog on every request. Pages without per-visitor state are
// kept in the Valkey page cache for anonymous visitors.
type Public struct {
	renderer  *render.Renderer
	catalog   *catalog.Catalog
	cms       *content.Client
	notifier  *notify.Center
	pageCache *cache.PageCache
	sessions  *session.Store
	pageSize  int
	now       func() time.Time
}

// NewPublic creates a new Public handler group. pageCache may be nil to
// disable caching; sessions may be nil when bookmarks are unavailable.
func NewPublic(renderer *render.Renderer, cat *catalog.Catalog, cms *content.Client, notifier *notify.Center, pageCache *cache.PageCache, sessions *session.Store, pageSize int) *Public {
	return &Public{
		renderer:  renderer,
		catalog:   cat,
		cms:       cms,
		notifier:  notifier,
		pageCache: pageCache,
		sessions:  sessions,
		pageSize:  pageSize,
		now:       time.Now,
	}
}

type homeData struct {
	EventStats      view.Stats
	EventCategories []string
	EventCategory   string
	Events          []models.Event
	EventsErr       *render.LoadError
	News            []models.NewsArticle
	NewsErr         *render.LoadError
	Galleries       []models.Gallery
	GalleriesErr    *render.LoadError
}

// Home renders the landing page. Each section is built from its own
// collection, so one failing collection does not hide the others.
func (p *Public) Home(w http.ResponseWriter, r *http.Request) {
	if p.fromCache(w, r) {
		return
	}
	ctx := r.Context()
	now := p.now()

	var (
		g         errgroup.Group
		events    catalog.Snapshot[models.Event]
		news      catalog.Snapshot[models.NewsArticle]
		galleries catalog.Snapshot[models.Gallery]
	)
	g.Go(func() error {
		events = ensure(ctx, p.catalog.Events, p.catalog.LoadEvents)
		return events.Err
	})
	g.Go(func() error {
		news = ensure(ctx, p.catalog.News, p.catalog.LoadNews)
		return news.Err
	})
	g.Go(func() error {
		galleries = ensure(ctx, p.catalog.Galleries, p.catalog.LoadGalleries)
		return galleries.Err
	})
	// Sections render from whatever loaded; a failure only keeps the page
	// out of the cache.
	loadErr := g.Wait()
	if loadErr != nil {
		slog.Warn("home page rendered with missing sections", "error", loadErr)
	}

	category := strings.TrimSpace(r.URL.Query().Get("events"))
	if category == "" {
		category = view.CategoryAll
	}

	data := homeData{
		EventStats:      view.Compute(events.Items, now),
		EventCategories: homeEventCategories,
		EventCategory:   category,
		Events:          view.Head(events.Items, category, homeSectionSize, now),
		EventsErr:       loadError(events.Err, r),
		News:            view.Head(news.Items, view.CategoryAll, homeSectionSize, now),
		NewsErr:         loadError(news.Err, r),
		Galleries:       view.Pick(galleries.Items, models.Gallery.Active, homeGalleryTiles),
		GalleriesErr:    loadError(galleries.Err, r),
	}

	p.page(w, r, http.StatusOK, "home", &render.PageData{
		Title:   "Home",
		Section: "home",
		Data:    data,
	}, loadErr == nil)
}

// About renders the static about page.
func (p *Public) About(w http.ResponseWriter, r *http.Request) {
	if p.fromCache(w, r) {
		return
	}
	p.page(w, r, http.StatusOK, "about", &render.PageData{Title: "About Us", Section: "about"}, true)
}

// Academics renders the static academics page.
func (p *Public) Academics(w http.ResponseWriter, r *http.Request) {
	if p.fromCache(w, r) {
		return
	}
	p.page(w, r, http.StatusOK, "academics", &render.PageData{Title: "Academics", Section: "academics"}, true)
}

type eventsData struct {
	Result     view.Result[models.Event]
	Categories []string
	Sorts      []models.Option
	Err        *render.LoadError
}

// Events renders the events listing. Query: category, q, sort, page.
func (p *Public) Events(w http.ResponseWriter, r *http.Request) {
	if p.fromCache(w, r) {
		return
	}
	snap := ensure(r.Context(), p.catalog.Events, p.catalog.LoadEvents)

	params := view.ParamsFromQuery(r.URL.Query(), p.pageSize, view.SortDateAsc)
	if params.Category == "" {
		params.Category = view.CategoryAll
	}

	p.page(w, r, http.StatusOK, "events", &render.PageData{
		Title:   "Events",
		Section: "events",
		Data: eventsData{
			Result:     view.Derive(snap.Items, params, p.now()),
			Categories: eventCategories,
			Sorts:      eventSorts,
			Err:        loadError(snap.Err, r),
		},
	}, snap.Err == nil)
}

type eventData struct {
	Event   models.Event
	Related []models.Event
}

// Event renders one event. Related events share its category, or are
// featured when the event has none.
func (p *Public) Event(w http.ResponseWriter, r *http.Request) {
	if p.fromCache(w, r) {
		return
	}
	id := slug.ID(chi.URLParam(r, "id"))

	ev, err := p.catalog.Event(r.Context(), id)
	if err != nil {
		p.detailError(w, r, err, "Event not found", "/events", "Back to events")
		return
	}

	related := view.Pick(p.catalog.Events().Items, func(e models.Event) bool {
		if e.ID == ev.ID {
			return false
		}
		if ev.Category == "" {
			return e.Featured
		}
		return strings.EqualFold(e.Category, ev.Category)
	}, relatedLimit)

	p.page(w, r, http.StatusOK, "event", &render.PageData{
		Title:   ev.Title,
		Section: "events",
		Data:    eventData{Event: ev, Related: related},
	}, true)
}

type newsData struct {
	Result view.Result[models.NewsArticle]
	Stats  view.NewsStats
	Sorts  []models.Option
	Ranges []models.Option
	Err    *render.LoadError
}

// News renders the news listing. Query: category, q, range, sort, page.
func (p *Public) News(w http.ResponseWriter, r *http.Request) {
	if p.fromCache(w, r) {
		return
	}
	snap := ensure(r.Context(), p.catalog.News, p.catalog.LoadNews)
	now := p.now()

	params := view.ParamsFromQuery(r.URL.Query(), p.pageSize, view.SortDateDesc)

	p.page(w, r, http.StatusOK, "news", &render.PageData{
		Title:   "News",
		Section: "news",
		Data: newsData{
			Result: view.Derive(snap.Items, params, now),
			Stats:  view.ComputeNews(snap.Items, now),
			Sorts:  newsSorts,
			Ranges: newsRanges,
			Err:    loadError(snap.Err, r),
		},
	}, snap.Err == nil)
}

type articleData struct {
	Article    models.NewsArticle
	Related    []models.NewsArticle
	Bookmarked bool
	URL        string // absolute, for share links
}

// Article renders one news article. Signed-in visitors fetch through their
// own CMS token, so members-only articles resolve for them. The page holds
// a bookmark form with a CSRF token and is never cached.
func (p *Public) Article(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := slug.ID(chi.URLParam(r, "id"))
	sess := middleware.SessionFromCtx(ctx)

	var src catalog.Source = p.cms
	if sess.LoggedIn() {
		src = p.cms.WithToken(sess.Token)
	}

	article, err := p.catalog.ArticleVia(ctx, src, id)
	if err != nil {
		p.detailError(w, r, err, "Article not found", "/news", "Back to news")
		return
	}

	related := view.Related(p.catalog.News().Items, article.Category, func(n models.NewsArticle) bool {
		return n.ID == article.ID
	}, relatedLimit)

	p.page(w, r, http.StatusOK, "article", &render.PageData{
		Title:   article.Title,
		Section: "news",
		Data: articleData{
			Article:    article,
			Related:    related,
			Bookmarked: sess.HasBookmark(article.ID),
			URL:        absoluteURL(r),
		},
	}, false)
}

// ToggleBookmark flips the bookmark of an article in the visitor session.
// Bookmarks live only in the session and are never sent to the CMS.
func (p *Public) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	segment := chi.URLParam(r, "id")
	back := "/news/" + segment

	if p.sessions == nil {
		p.notifier.Notify(ctx, notify.LevelWarning, "Bookmarks are unavailable right now.")
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	sess := middleware.SessionFromCtx(ctx)
	if sess == nil {
		sess = &session.Data{}
	}
	on := sess.ToggleBookmark(slug.ID(segment))

	if err := p.sessions.Save(ctx, w, r, sess); err != nil {
		slog.Error("save bookmark failed", "error", err)
		p.notifier.Notify(ctx, notify.LevelError, "Could not save your bookmark. Please try again.")
	} else if on {
		p.notifier.Notify(ctx, notify.LevelSuccess, "Article bookmarked.")
	} else {
		p.notifier.Notify(ctx, notify.LevelInfo, "Bookmark removed.")
	}

	http.Redirect(w, r, back, http.StatusSeeOther)
}

type galleryData struct {
	Result     view.Result[models.Gallery]
	Stats      view.GalleryStats
	Categories []string
	Err        *render.LoadError
}

// Gallery renders the galleries listing. Query: category, q, page.
func (p *Public) Gallery(w http.ResponseWriter, r *http.Request) {
	if p.fromCache(w, r) {
		return
	}
	snap := ensure(r.Context(), p.catalog.Galleries, p.catalog.LoadGalleries)

	params := view.ParamsFromQuery(r.URL.Query(), p.pageSize, view.SortNone)

	p.page(w, r, http.StatusOK, "gallery", &render.PageData{
		Title:   "Gallery",
		Section: "gallery",
		Data: galleryData{
			Result:     view.Derive(snap.Items, params, p.now()),
			Stats:      view.ComputeGalleries(snap.Items),
			Categories: view.Categories(snap.Items),
			Err:        loadError(snap.Err, r),
		},
	}, snap.Err == nil)
}

// ensure returns the current snapshot, loading the collection first when
// it has never loaded or its last load failed.
func ensure[T any](ctx context.Context, get func() catalog.Snapshot[T], load func(context.Context) catalog.Snapshot[T]) catalog.Snapshot[T] {
	if snap := get(); snap.Ready() {
		return snap
	}
	return load(ctx)
}

// loadError builds the inline error panel for a failed collection. The
// retry link re-issues the current request.
func loadError(err error, r *http.Request) *render.LoadError {
	if err == nil {
		return nil
	}
	return &render.LoadError{
		Message: content.UserMessage(err),
		Retry:   r.URL.RequestURI(),
	}
}

// cacheable reports whether the response for r may come from or go to the
// page cache: anonymous visitors with no pending notifications only.
func (p *Public) cacheable(r *http.Request) bool {
	if p.pageCache == nil || middleware.SessionFromCtx(r.Context()) != nil {
		return false
	}
	return !p.notifier.Pending(notify.VisitorFromContext(r.Context()))
}

// fromCache writes a cached page for r and reports whether it did.
func (p *Public) fromCache(w http.ResponseWriter, r *http.Request) bool {
	if !p.cacheable(r) {
		return false
	}
	html, ok := p.pageCache.Get(r.Context(), cache.PageKey(r.URL.Path, r.URL.RawQuery))
	if !ok {
		return false
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Cache", "HIT")
	w.Write(html)
	return true
}

// page renders a template with the visitor's notifications and stores the
// result in the page cache when store is set and nothing per-visitor ended
// up on the page.
func (p *Public) page(w http.ResponseWriter, r *http.Request, status int, name string, data *render.PageData, store bool) {
	store = store && status == http.StatusOK && p.cacheable(r)

	data.Notifications = p.notifier.Drain(notify.VisitorFromContext(r.Context()))
	data.Now = p.now()

	html, err := p.renderer.Page(w, r, status, name, data)
	if err != nil {
		slog.Error("render page failed", "page", name, "error", err)
		return
	}
	if store && len(data.Notifications) == 0 {
		p.pageCache.Set(r.Context(), cache.PageKey(r.URL.Path, r.URL.RawQuery), html)
	}
}

// absoluteURL rebuilds the public URL of r for share links.
func absoluteURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.Path
}
