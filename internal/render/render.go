// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the public site.
// Every page template is paired with the base layout; pages are rendered
// into a buffer first so a template error never produces half a page.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"schoolsite/internal/markdown"
	"schoolsite/internal/middleware"
	"schoolsite/internal/normalize"
	"schoolsite/internal/notify"
	"schoolsite/internal/session"
	"schoolsite/internal/slug"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageData holds all data passed to page templates.
type PageData struct {
	Title         string        // Page title for <title> tag
	Section       string        // Active navigation entry (e.g. "events")
	Path          string        // Request path with query, used for retry links
	Session       *session.Data // Visitor session (nil for new visitors)
	CSRFToken     string
	Notifications []notify.Notification
	Now           time.Time
	Data          any // Page-specific data
}

// LoadError is the error panel shown in place of a collection that failed
// to load. Retry re-issues the same request.
type LoadError struct {
	Message string
	Retry   string
}

// Renderer handles template parsing and execution.
type Renderer struct {
	siteName  string
	templates map[string]*template.Template
	funcMap   template.FuncMap
}

// New creates a Renderer by parsing all page templates from the embedded
// filesystem.
func New(siteName string) (*Renderer, error) {
	r := &Renderer{
		siteName:  siteName,
		templates: make(map[string]*template.Template),
	}
	r.funcMap = funcMap(siteName)

	entries, err := fs.ReadDir(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("read embedded templates: %w", err)
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == "base.html" || !strings.HasSuffix(name, ".html") {
			continue
		}
		tmpl, err := template.New("base.html").Funcs(r.funcMap).ParseFS(
			templateFS, "templates/base.html", "templates/"+name,
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[strings.TrimSuffix(name, ".html")] = tmpl
	}

	return r, nil
}

// Render executes a page into a byte slice.
func (rn *Renderer) Render(name string, data *PageData) ([]byte, error) {
	tmpl, ok := rn.templates[name]
	if !ok {
		return nil, fmt.Errorf("template %q not found", name)
	}
	if data.Now.IsZero() {
		data.Now = time.Now()
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Page renders a page for r and writes it with the given status. The CSRF
// token and session are taken from the request context when not set. The
// rendered bytes are returned so callers can cache them.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, status int, name string, data *PageData) ([]byte, error) {
	if data.CSRFToken == "" {
		data.CSRFToken = middleware.CSRFToken(r)
	}
	if data.Session == nil {
		data.Session = middleware.SessionFromCtx(r.Context())
	}
	if data.Path == "" {
		data.Path = r.URL.RequestURI()
	}

	html, err := rn.Render(name, data)
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return nil, err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(html)
	return html, nil
}

func funcMap(siteName string) template.FuncMap {
	return template.FuncMap{
		"siteName":   func() string { return siteName },
		"formatDate": normalize.FormatDate,
		"longDate":   normalize.FormatLongDate,
		"formatTime": normalize.FormatTime,
		"dayOf": func(d *time.Time) string {
			day, _ := normalize.DayMonth(d)
			return day
		},
		"monthOf": func(d *time.Time) string {
			_, month := normalize.DayMonth(d)
			return month
		},
		"truncate": func(n int, s string) string { return normalize.Truncate(s, n) },
		"markdown": markdown.Render,
		"cover":    normalize.GalleryCover,
		"capitalize": capitalize,
		"eqFold":     strings.EqualFold,
		"add":        func(a, b int) int { return a + b },
		"sub":        func(a, b int) int { return a - b },
		"year":       func(t time.Time) int { return t.Year() },
		"dict":       dict,
		"pageURL":    pageURL,
		"share":      shareURL,
		"slug":       slug.WithID,
		"plural": func(n int, one, many string) string {
			if n == 1 {
				return one
			}
			return many
		},
		"isActive": func(current, target string) string {
			if current == target {
				return "active"
			}
			return ""
		},
	}
}

// capitalize upper-cases the first letter, for category ids such as "sports".
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// dict builds a map from alternating keys and values, for passing several
// values to a nested template.
func dict(kv ...any) (map[string]any, error) {
	if len(kv)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	m := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
		}
		m[k] = kv[i+1]
	}
	return m, nil
}

// queryEncoder is satisfied by view.Params.
type queryEncoder interface {
	Encode(page int) string
}

// pageURL joins a listing path with encoded view parameters.
func pageURL(base string, p queryEncoder, page int) string {
	if q := p.Encode(page); q != "" {
		return base + "?" + q
	}
	return base
}
