package models

import (
	"fmt"
	"time"
)

// Image is a single picture inside a gallery.
type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// Gallery is a titled, ordered collection of images.
type Gallery struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
	Images      []Image `json:"images"`
}

// Active reports whether the gallery has at least one image.
func (g Gallery) Active() bool { return len(g.Images) > 0 }

// AltFor returns the alt text for image i, falling back to "<title> - <n>".
func (g Gallery) AltFor(i int) string {
	if i >= 0 && i < len(g.Images) && g.Images[i].Alt != "" {
		return g.Images[i].Alt
	}
	return fmt.Sprintf("%s - %d", g.Title, i+1)
}

// CategoryName returns the gallery's category, possibly empty.
func (g Gallery) CategoryName() string { return g.Category }

// IsFeatured is always false for galleries.
func (g Gallery) IsFeatured() bool { return false }

// SortDate reports no date; galleries keep CMS order.
func (g Gallery) SortDate() (time.Time, bool) { return time.Time{}, false }

// SearchFields lists the fields a free-text query is matched against.
func (g Gallery) SearchFields() []string { return []string{g.Title} }

// Views is always zero.
func (g Gallery) Views() int { return 0 }
