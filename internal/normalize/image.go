package normalize

import (
	"strings"

	"github.com/tidwall/gjson"

	"schoolsite/internal/models"
)

// Fallback pictures used when a record carries no image.
const (
	GenericEventImage   = "https://images.unsplash.com/photo-1492684223066-e9e4aab4d25e?w=600&h=400&fit=crop"
	FeaturedEventImage  = "https://images.unsplash.com/photo-1540575467063-178a50c2df87?w=600&h=400&fit=crop"
	GenericNewsImage    = "https://images.unsplash.com/photo-1584820927498-cfe5211fd8bf?w=600&h=400&fit=crop&auto=format"
	GenericGalleryImage = "https://images.unsplash.com/photo-1523050854058-8df90110c9f1?auto=format&fit=crop&w=600&q=80"
)

var eventImages = map[string]string{
	"academic": "https://images.unsplash.com/photo-1523050854058-8df90110c9f1?w=600&h=400&fit=crop",
	"sports":   "https://images.unsplash.com/photo-1461896836934-ffe607ba8211?w=600&h=400&fit=crop",
	"cultural": "https://images.unsplash.com/photo-1511795409834-ef04bbd61622?w=600&h=400&fit=crop",
}

var newsImages = map[string]string{
	"achievements":  "https://images.unsplash.com/photo-1560472354-b33ff0c44a43?w=600&h=400&fit=crop&auto=format",
	"sports":        "https://images.unsplash.com/photo-1461896836934-ffe607ba8211?w=600&h=400&fit=crop&auto=format",
	"academic":      "https://images.unsplash.com/photo-1523050854058-8df90110c9f1?w=600&h=400&fit=crop&auto=format",
	"announcements": "https://images.unsplash.com/photo-1559136555-9303baea8ebd?w=600&h=400&fit=crop&auto=format",
	"events":        "https://images.unsplash.com/photo-1511795409834-ef04bbd61622?w=600&h=400&fit=crop&auto=format",
}

// DefaultEventImage picks the fallback picture for an event. Featured events
// share one picture regardless of category.
func DefaultEventImage(category string, featured bool) string {
	if featured {
		return FeaturedEventImage
	}
	if url, ok := eventImages[strings.ToLower(category)]; ok {
		return url
	}
	return GenericEventImage
}

// DefaultNewsImage picks the fallback picture for an article.
func DefaultNewsImage(category string) string {
	if url, ok := newsImages[strings.ToLower(category)]; ok {
		return url
	}
	return GenericNewsImage
}

// urlPaths are the places a media URL may live inside an image value, in
// the order they are tried.
var urlPaths = []string{
	"url",
	"data.attributes.url",
	"data.url",
	"attributes.url",
	"data.0.attributes.url",
	"data.0.url",
	"0.url",
	"0.attributes.url",
}

// resolveImage finds a media URL in v and makes it absolute.
func (n *Normalizer) resolveImage(v gjson.Result) (string, bool) {
	var raw string
	if v.Type == gjson.String {
		raw = v.Str
	} else if v.IsObject() || v.IsArray() {
		for _, p := range urlPaths {
			if u := v.Get(p); u.Type == gjson.String && strings.TrimSpace(u.Str) != "" {
				raw = u.Str
				break
			}
		}
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	return n.absolute(raw), true
}

// absolute resolves a relative media path against MediaBase.
func (n *Normalizer) absolute(p string) string {
	lower := strings.ToLower(p)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(p, "//") {
		return p
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return n.MediaBase + p
}

// mediaList returns the elements of a multi-media field, which arrives as a
// bare array or as {"data": [...]}.
func mediaList(v gjson.Result) []gjson.Result {
	switch {
	case v.IsArray():
		return v.Array()
	case v.IsObject():
		if d := v.Get("data"); d.IsArray() {
			return d.Array()
		}
	}
	return nil
}

// altText reads the alternative text of a media element.
func altText(v gjson.Result) string {
	for _, p := range []string{"alternativeText", "attributes.alternativeText", "alt", "caption", "attributes.caption"} {
		if s := v.Get(p); s.Type == gjson.String && strings.TrimSpace(s.Str) != "" {
			return strings.TrimSpace(s.Str)
		}
	}
	return ""
}

// GalleryCover returns the first image of a gallery, or the generic picture
// for an empty one.
func GalleryCover(g models.Gallery) string {
	if len(g.Images) > 0 {
		return g.Images[0].URL
	}
	return GenericGalleryImage
}
