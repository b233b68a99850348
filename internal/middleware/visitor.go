package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"schoolsite/internal/notify"
)

// VisitorCookieName identifies a browser for per-visitor notifications.
const VisitorCookieName = "school_visitor"

// Visitor makes sure every browser carries a visitor id cookie and puts
// the id into the request context for the notification center.
func Visitor(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(VisitorCookieName); err == nil {
				if parsed, err := uuid.Parse(c.Value); err == nil {
					id = parsed.String()
				}
			}
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     VisitorCookieName,
					Value:    id,
					Path:     "/",
					MaxAge:   365 * 24 * 60 * 60,
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			next.ServeHTTP(w, r.WithContext(notify.WithVisitor(r.Context(), id)))
		})
	}
}
