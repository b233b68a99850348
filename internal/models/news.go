// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// DefaultAuthor is shown when a news article carries no author.
const DefaultAuthor = "School Admin"

// NewsCategories are the category ids offered as filter chips on the news page.
var NewsCategories = []string{"announcements", "events", "achievements", "academic", "sports"}

// NewsArticle is a published news item.
type NewsArticle struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Content        string     `json:"content"`      // original body (HTML, markdown or flattened blocks)
	ContentText    string     `json:"content_text"` // plain text
	Summary        string     `json:"summary"`
	Category       string     `json:"category,omitempty"`
	Author         string     `json:"author"`
	PublishDate    *time.Time `json:"publish_date,omitempty"`
	PublishDateRaw string     `json:"-"`
	ViewCount      int        `json:"view_count"`
	Featured       bool       `json:"featured"`
	Image          string     `json:"image"`
	HasImage       bool       `json:"has_image"`
}

// CategoryName returns the article's category, possibly empty.
func (n NewsArticle) CategoryName() string { return n.Category }

// IsFeatured reports the featured flag.
func (n NewsArticle) IsFeatured() bool { return n.Featured }

// SortDate returns the publish date and whether it is known.
func (n NewsArticle) SortDate() (time.Time, bool) {
	if n.PublishDate == nil {
		return time.Time{}, false
	}
	return *n.PublishDate, true
}

// SearchFields lists the fields a free-text query is matched against, in order.
func (n NewsArticle) SearchFields() []string {
	return []string{n.Title, n.ContentText, n.Author}
}

// Views returns the view counter.
func (n NewsArticle) Views() int { return n.ViewCount }

// ReadMinutes estimates reading time at one minute per thousand characters
// of body text, never less than one.
func (n NewsArticle) ReadMinutes() int {
	chars := len([]rune(n.Content))
	m := (chars + 999) / 1000
	if m < 1 {
		return 1
	}
	return m
}
