// Package router sets up all HTTP routes and middleware chains for the
// school website. Pages and forms share one CSRF-protected group; the CMS
// webhook, health check and metrics sit outside it.
package router

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"schoolsite/internal/handlers"
	"schoolsite/internal/middleware"
	"schoolsite/internal/session"
	"schoolsite/web"
)

// Deps carries the handler groups and settings the router wires together.
type Deps struct {
	Sessions *session.Store // nil disables sign-in sessions
	Public   *handlers.Public
	Contact  *handlers.Contact
	Auth     *handlers.Auth
	Webhook  *handlers.Webhook

	// FormLimiter throttles contact and login submissions. Optional.
	FormLimiter *middleware.RateLimiter

	MediaOrigin   string // allowed image origin for the CSP
	SecureCookies bool
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer(http.HandlerFunc(d.Public.ServerError)))
	r.Use(middleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(middleware.SecureHeaders(d.MediaOrigin))
	r.Use(middleware.Visitor(d.SecureCookies))
	if d.Sessions != nil {
		r.Use(middleware.LoadSession(d.Sessions))
	}

	// Health check and metrics, no CSRF.
	r.Get("/health", healthHandler)
	r.Handle("/metrics", promhttp.Handler())

	static, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		panic("router: embedded static directory missing: " + err.Error())
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	// CMS webhook, authenticated by shared secret, not by CSRF token.
	r.Post("/webhooks/cms", d.Webhook.CMS)
	r.Get("/webhooks/cms", d.Webhook.Recent)

	limit := func(h http.HandlerFunc) http.Handler {
		if d.FormLimiter == nil {
			return h
		}
		return d.FormLimiter.Middleware(h)
	}

	// Site pages and forms.
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCSRF(d.SecureCookies))

		r.Get("/", d.Public.Home)
		r.Get("/about", d.Public.About)
		r.Get("/academics", d.Public.Academics)

		r.Get("/events", d.Public.Events)
		r.Get("/events/{id}", d.Public.Event)

		r.Get("/news", d.Public.News)
		r.Get("/news/{id}", d.Public.Article)
		r.Post("/news/{id}/bookmark", d.Public.ToggleBookmark)

		r.Get("/gallery", d.Public.Gallery)

		r.Get("/contact", d.Contact.Form)
		r.Method(http.MethodPost, "/contact", limit(d.Contact.Submit))

		r.Group(func(r chi.Router) {
			r.Use(middleware.GuestOnly)
			r.Get("/login", d.Auth.LoginPage)
			r.Method(http.MethodPost, "/login", limit(d.Auth.LoginSubmit))
		})
		r.Post("/logout", d.Auth.Logout)
	})

	r.NotFound(d.Public.NotFound)

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
