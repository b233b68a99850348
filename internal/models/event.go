// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models holds the canonical, default-filled representations of
// content fetched from the CMS, plus locally persisted records.
package models

import "time"

// Event categories known to the site. The set is open: the CMS may send
// any other value and it is kept as-is.
const (
	CategoryAcademic = "Academic"
	CategorySports   = "Sports"
	CategoryCultural = "Cultural"
	CategoryOther    = "Other"
)

// EventCategories is the ordered list offered as filter chips.
var EventCategories = []string{CategoryAcademic, CategorySports, CategoryCultural, CategoryOther}

// Event is a school calendar event.
type Event struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Date        *time.Time `json:"date,omitempty"` // nil when absent or unparseable
	DateRaw     string     `json:"-"`              // source value, kept for "Invalid Date" labels
	Time        string     `json:"time,omitempty"`
	Location    string     `json:"location,omitempty"`
	Description string     `json:"description"` // full plain text
	Summary     string     `json:"summary"`     // truncated preview
	Body        string     `json:"-"`           // original string body (markdown/HTML), empty for block lists
	Category    string     `json:"category,omitempty"`
	Featured    bool       `json:"featured"`
	Image       string     `json:"image"`     // absolute URL, never empty
	HasImage    bool       `json:"has_image"` // false when Image is a fallback
}

// CategoryName returns the event's category, possibly empty.
func (e Event) CategoryName() string { return e.Category }

// IsFeatured reports the featured flag.
func (e Event) IsFeatured() bool { return e.Featured }

// SortDate returns the event date and whether it is known.
func (e Event) SortDate() (time.Time, bool) {
	if e.Date == nil {
		return time.Time{}, false
	}
	return *e.Date, true
}

// SearchFields lists the fields a free-text query is matched against, in order.
func (e Event) SearchFields() []string {
	return []string{e.Title, e.Description, e.Location}
}

// Views is always zero; events carry no view counter.
func (e Event) Views() int { return 0 }
