package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"schoolsite/internal/content"
	"schoolsite/internal/middleware"
	"schoolsite/internal/notify"
	"schoolsite/internal/render"
	"schoolsite/internal/session"
)

// Auth groups the sign-in handlers. Credentials are exchanged with the CMS;
// the returned token is kept in the visitor session.
type Auth struct {
	renderer *render.Renderer
	sessions *session.Store
	cms      *content.Client
	notifier *notify.Center
}

// NewAuth creates a new Auth handler group.
func NewAuth(renderer *render.Renderer, sessions *session.Store, cms *content.Client, notifier *notify.Center) *Auth {
	return &Auth{
		renderer: renderer,
		sessions: sessions,
		cms:      cms,
		notifier: notifier,
	}
}

type loginData struct {
	Identifier string
	Error      string
	Next       string
}

// LoginPage renders the login form.
func (a *Auth) LoginPage(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, loginData{Next: safeNext(r.URL.Query().Get("next"))})
}

// LoginSubmit processes the login form.
func (a *Auth) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identifier := strings.TrimSpace(r.FormValue("identifier"))
	password := r.FormValue("password")
	next := safeNext(r.FormValue("next"))

	if identifier == "" || password == "" {
		a.render(w, r, http.StatusUnprocessableEntity, loginData{
			Identifier: identifier,
			Error:      "Email and password are required.",
			Next:       next,
		})
		return
	}

	// The client has already queued a notification for the failure.
	res, err := a.cms.Login(ctx, identifier, password)
	if err != nil {
		status, msg := http.StatusBadGateway, content.UserMessage(err)
		var serr *content.ServerError
		if errors.As(err, &serr) && (serr.Status == http.StatusBadRequest || serr.Status == http.StatusUnauthorized) {
			status, msg = http.StatusUnauthorized, "Invalid email or password."
		}
		a.render(w, r, status, loginData{Identifier: identifier, Error: msg, Next: next})
		return
	}

	sess := middleware.SessionFromCtx(ctx)
	if sess == nil {
		sess = &session.Data{}
	}
	sess.Token = res.JWT
	sess.Username = res.Username
	sess.Email = res.Email

	if err := a.sessions.Save(ctx, w, r, sess); err != nil {
		slog.Error("session save failed", "error", err)
		a.render(w, r, http.StatusInternalServerError, loginData{
			Identifier: identifier,
			Error:      "An unexpected error occurred.",
			Next:       next,
		})
		return
	}

	slog.Info("visitor signed in", "username", res.Username)
	name := res.Username
	if name == "" {
		name = res.Email
	}
	a.notifier.Notify(ctx, notify.LevelSuccess, "Welcome back, "+name+"!")
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// Logout destroys the session and returns to the home page.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Error("session destroy failed", "error", err)
	}
	a.notifier.Notify(r.Context(), notify.LevelInfo, "You have been signed out.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *Auth) render(w http.ResponseWriter, r *http.Request, status int, data loginData) {
	_, err := a.renderer.Page(w, r, status, "login", &render.PageData{
		Title:         "Sign In",
		Notifications: a.notifier.Drain(notify.VisitorFromContext(r.Context())),
		Data:          data,
	})
	if err != nil {
		slog.Error("render login page failed", "error", err)
	}
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
