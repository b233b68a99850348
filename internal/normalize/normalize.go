// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package normalize turns raw CMS records into canonical models. The CMS
// returns records either flat ({"id":1,"title":...}) or with the fields
// nested under "attributes"; both decode to the same value. Every function
// here is total: malformed input yields defaults, never an error or panic.
package normalize

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"schoolsite/internal/models"
)

// Defaults applied when a field is absent or has the wrong shape.
const (
	DefaultEventTitle   = "Untitled Event"
	DefaultNewsTitle    = "Untitled News"
	DefaultGalleryTitle = "Untitled Gallery"
	NoDescription       = "No description available"
)

// Preview lengths, in characters, for summaries.
const (
	SummaryLength     = 150
	LongSummaryLength = 300
)

// Normalizer decodes records. MediaBase is the origin that relative image
// paths are resolved against.
type Normalizer struct {
	MediaBase string
}

// New creates a Normalizer resolving media paths against base.
func New(mediaBase string) *Normalizer {
	return &Normalizer{MediaBase: strings.TrimRight(mediaBase, "/")}
}

// record gives uniform field access over both record shapes.
type record struct {
	root  gjson.Result
	attrs gjson.Result
}

func parse(raw []byte) record {
	if !gjson.ValidBytes(raw) {
		return record{}
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return record{}
	}
	r := record{root: root}
	if a := root.Get("attributes"); a.IsObject() {
		r.attrs = a
	}
	return r
}

// get returns the named field from the record itself, then from the
// attributes wrapper. A null value counts as absent.
func (r record) get(name string) gjson.Result {
	if v := r.root.Get(name); v.Exists() && v.Type != gjson.Null {
		return v
	}
	if r.attrs.Exists() {
		if v := r.attrs.Get(name); v.Exists() && v.Type != gjson.Null {
			return v
		}
	}
	return gjson.Result{}
}

// id renders the record identifier. Integer ids are printed in decimal;
// documentId is used when no id is present.
func (r record) id() string {
	for _, name := range []string{"id", "documentId"} {
		v := r.get(name)
		switch v.Type {
		case gjson.Number:
			if f := v.Float(); f == float64(int64(f)) {
				return strconv.FormatInt(int64(f), 10)
			}
			return v.Raw
		case gjson.String:
			if s := strings.TrimSpace(v.Str); s != "" {
				return s
			}
		}
	}
	return ""
}

// str returns a trimmed string field, or "" when absent or not a string.
func (r record) str(name string) string {
	v := r.get(name)
	if v.Type != gjson.String {
		return ""
	}
	return strings.TrimSpace(v.Str)
}

// strOr returns str(name), or fallback when empty.
func (r record) strOr(name, fallback string) string {
	if s := r.str(name); s != "" {
		return s
	}
	return fallback
}

// flag accepts JSON true and the string "true".
func (r record) flag(name string) bool {
	v := r.get(name)
	switch v.Type {
	case gjson.True:
		return true
	case gjson.String:
		return strings.EqualFold(strings.TrimSpace(v.Str), "true")
	}
	return false
}

// count accepts non-negative numbers and numeric strings.
func (r record) count(name string) int {
	v := r.get(name)
	var n int64
	switch v.Type {
	case gjson.Number:
		n = v.Int()
	case gjson.String:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v.Str), 10, 64)
		if err != nil {
			return 0
		}
		n = parsed
	default:
		return 0
	}
	if n < 0 {
		return 0
	}
	return int(n)
}

// category reads a category that may be a plain string or a relation
// object carrying a name.
func (r record) category() string {
	v := r.get("category")
	switch {
	case v.Type == gjson.String:
		return strings.TrimSpace(v.Str)
	case v.IsObject():
		for _, path := range []string{"name", "data.attributes.name", "data.name", "attributes.name"} {
			if s := v.Get(path); s.Type == gjson.String {
				return strings.TrimSpace(s.Str)
			}
		}
	}
	return ""
}

// Event decodes one event record.
func (n *Normalizer) Event(raw []byte) models.Event {
	r := parse(raw)

	ev := models.Event{
		ID:       r.id(),
		Title:    r.strOr("title", DefaultEventTitle),
		Time:     r.str("time"),
		Location: r.str("location"),
		Category: r.category(),
		Featured: r.flag("featured"),
	}

	ev.DateRaw = r.str("date")
	if t, ok := ParseDate(ev.DateRaw); ok {
		ev.Date = &t
	}

	text, body := describe(r.get("description"))
	ev.Body = body
	ev.Description = text
	ev.Summary = Truncate(text, SummaryLength)

	ev.Image, ev.HasImage = n.resolveImage(r.get("image"))
	if !ev.HasImage {
		ev.Image = DefaultEventImage(ev.Category, ev.Featured)
	}
	return ev
}

// News decodes one news record.
func (n *Normalizer) News(raw []byte) models.NewsArticle {
	r := parse(raw)

	a := models.NewsArticle{
		ID:        r.id(),
		Title:     r.strOr("title", DefaultNewsTitle),
		Category:  r.category(),
		Author:    r.strOr("author", models.DefaultAuthor),
		ViewCount: r.count("viewCount"),
		Featured:  r.flag("featured"),
	}

	a.PublishDateRaw = r.str("publishDate")
	if a.PublishDateRaw == "" {
		a.PublishDateRaw = r.str("publishedAt")
	}
	if t, ok := ParseDate(a.PublishDateRaw); ok {
		a.PublishDate = &t
	}

	content := r.get("content")
	switch {
	case content.Type == gjson.String:
		a.Content = content.Str
		a.ContentText = StripHTML(content.Str)
	case content.IsArray():
		a.ContentText = BlocksText(content)
		a.Content = a.ContentText
	case content.Exists():
		a.ContentText = compactJSON(content)
		a.Content = a.ContentText
	}
	a.Summary = Truncate(a.ContentText, SummaryLength)

	a.Image, a.HasImage = n.resolveImage(r.get("image"))
	if !a.HasImage {
		a.Image = DefaultNewsImage(a.Category)
	}
	return a
}

// Gallery decodes one gallery record. Entries without a usable URL are
// skipped; the remaining order is preserved.
func (n *Normalizer) Gallery(raw []byte) models.Gallery {
	r := parse(raw)

	g := models.Gallery{
		ID:       r.id(),
		Title:    r.strOr("title", DefaultGalleryTitle),
		Category: r.category(),
		Images:   []models.Image{},
	}
	if d := r.get("description"); d.Exists() {
		text, _ := describe(d)
		if text != NoDescription {
			g.Description = text
		}
	}

	for _, item := range mediaList(r.get("images")) {
		url, ok := n.resolveImage(item)
		if !ok {
			continue
		}
		g.Images = append(g.Images, models.Image{URL: url, Alt: altText(item)})
	}
	return g
}

// Events decodes a list, preserving order.
func (n *Normalizer) Events(raws []json.RawMessage) []models.Event {
	out := make([]models.Event, 0, len(raws))
	for _, raw := range raws {
		out = append(out, n.Event(raw))
	}
	return out
}

// NewsList decodes a list and orders it by publish date, newest first.
// Articles without a date sort last; ties keep CMS order.
func (n *Normalizer) NewsList(raws []json.RawMessage) []models.NewsArticle {
	out := make([]models.NewsArticle, 0, len(raws))
	for _, raw := range raws {
		out = append(out, n.News(raw))
	}
	sortNewsByDate(out)
	return out
}

// Galleries decodes a list, preserving order.
func (n *Normalizer) Galleries(raws []json.RawMessage) []models.Gallery {
	out := make([]models.Gallery, 0, len(raws))
	for _, raw := range raws {
		out = append(out, n.Gallery(raw))
	}
	return out
}

// describe reduces a description value to plain text. It also returns the
// original string body when the value was a string, for rich rendering.
func describe(v gjson.Result) (text, body string) {
	switch {
	case v.Type == gjson.String:
		body = v.Str
		text = StripHTML(v.Str)
	case v.IsArray():
		text = BlocksText(v)
	case v.Type == gjson.Number || v.Type == gjson.True || v.Type == gjson.False:
		text = v.String()
	case v.IsObject():
		text = compactJSON(v)
	}
	if strings.TrimSpace(text) == "" {
		return NoDescription, body
	}
	return text, body
}

func compactJSON(v gjson.Result) string {
	var out bytes.Buffer
	if err := json.Compact(&out, []byte(v.Raw)); err != nil {
		slog.Debug("could not compact json value", "error", err)
		return v.Raw
	}
	return out.String()
}
