// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"strings"
)

// SecureHeaders adds security-related HTTP headers to every response.
// Images may come from the site itself, the media origin and the stock
// photo host used for fallbacks.
func SecureHeaders(mediaOrigin string) func(http.Handler) http.Handler {
	imgSrc := []string{"'self'", "data:", "https://images.unsplash.com"}
	if mediaOrigin != "" {
		imgSrc = append(imgSrc, strings.TrimRight(mediaOrigin, "/"))
	}
	csp := strings.Join([]string{
		"default-src 'self'",
		"img-src " + strings.Join(imgSrc, " "),
		"style-src 'self' 'unsafe-inline'",
		"script-src 'self'",
		"frame-ancestors 'self'",
		"form-action 'self'",
	}, "; ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "SAMEORIGIN")
			// Legacy XSS filter off; CSP covers it.
			h.Set("X-XSS-Protection", "0")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "interest-cohort=()")
			h.Set("Content-Security-Policy", csp)

			next.ServeHTTP(w, r)
		})
	}
}
