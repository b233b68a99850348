package handlers

import (
	"log/slog"
	"net/http"

	"schoolsite/internal/content"
	"schoolsite/internal/render"
)

type errorData struct {
	Status    int
	Heading   string
	Message   string
	Back      string
	BackLabel string
}

// NotFound renders the 404 page for unknown routes.
func (p *Public) NotFound(w http.ResponseWriter, r *http.Request) {
	p.errorPage(w, r, errorData{
		Status:    http.StatusNotFound,
		Heading:   "Page not found",
		Message:   "The page you are looking for does not exist or has moved.",
		Back:      "/",
		BackLabel: "Go to the home page",
	})
}

// ServerError renders the 500 page. It is the fallback of the panic
// recoverer, so it must not depend on request state beyond the context.
func (p *Public) ServerError(w http.ResponseWriter, r *http.Request) {
	p.errorPage(w, r, errorData{
		Status:    http.StatusInternalServerError,
		Heading:   "Something went wrong",
		Message:   "An unexpected error occurred. Please try again in a moment.",
		Back:      "/",
		BackLabel: "Go to the home page",
	})
}

// detailError renders the outcome of a failed single-record lookup: a 404
// with a link back to the listing when the record does not exist, a 502
// with a retry link for any other CMS failure.
func (p *Public) detailError(w http.ResponseWriter, r *http.Request, err error, heading, back, backLabel string) {
	if content.IsNotFound(err) {
		p.errorPage(w, r, errorData{
			Status:    http.StatusNotFound,
			Heading:   heading,
			Message:   "It may have been removed or the link is incorrect.",
			Back:      back,
			BackLabel: backLabel,
		})
		return
	}

	slog.Warn("detail lookup failed", "path", r.URL.Path, "error", err)
	p.errorPage(w, r, errorData{
		Status:    http.StatusBadGateway,
		Heading:   "Could not load this page",
		Message:   content.UserMessage(err),
		Back:      r.URL.RequestURI(),
		BackLabel: "Try again",
	})
}

func (p *Public) errorPage(w http.ResponseWriter, r *http.Request, data errorData) {
	p.page(w, r, data.Status, "error", &render.PageData{
		Title: data.Heading,
		Data:  data,
	}, false)
}
