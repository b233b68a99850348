// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package view derives what a listing page shows from a canonical
// collection: the filtered, sorted and paginated subset plus aggregate
// statistics. Everything here is a pure function of its arguments; the
// input collection is never modified.
package view

import (
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Item is implemented by every canonical entity that can be listed.
type Item interface {
	CategoryName() string
	IsFeatured() bool
	SortDate() (time.Time, bool)
	SearchFields() []string
	Views() int
}

// Category sentinels. Any other value is compared against the item's
// category, ignoring case.
const (
	CategoryAll       = "All"
	CategoryFeatured  = "Featured"
	CategoryUpcoming  = "Upcoming"
	CategoryThisMonth = "This Month"
)

// Range limits items to those dated within a number of days of now.
type Range string

const (
	RangeAll   Range = "all"
	RangeWeek  Range = "week"
	RangeMonth Range = "month"
	RangeYear  Range = "year"
)

// Days returns the bucket width, or 0 for RangeAll and unknown values.
func (r Range) Days() int {
	switch r {
	case RangeWeek:
		return 7
	case RangeMonth:
		return 30
	case RangeYear:
		return 365
	}
	return 0
}

// Sort is the ordering of the visible subset.
type Sort string

const (
	SortDateDesc Sort = "date-desc"
	SortDateAsc  Sort = "date-asc"
	SortPopular  Sort = "popular"
	SortNone     Sort = "none"
)

// DefaultPageSize is the number of items per listing page.
const DefaultPageSize = 9

// Params are the view parameters of one derivation. The zero value shows
// everything, newest first, on page 1.
type Params struct {
	Category string
	Query    string
	Range    Range
	Sort     Sort
	Page     int
	PageSize int
}

// ParseSort maps query-string values, including the "latest" and "oldest"
// aliases, to a Sort. Unknown values yield fallback.
func ParseSort(s string, fallback Sort) Sort {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "date-desc", "latest", "newest":
		return SortDateDesc
	case "date-asc", "oldest":
		return SortDateAsc
	case "popular", "most-viewed":
		return SortPopular
	case "none":
		return SortNone
	}
	return fallback
}

// ParseRange maps a query-string value to a Range; unknown values mean all.
func ParseRange(s string) Range {
	switch r := Range(strings.ToLower(strings.TrimSpace(s))); r {
	case RangeWeek, RangeMonth, RangeYear:
		return r
	}
	return RangeAll
}

// ParamsFromQuery reads category, q, range, sort and page from a URL query.
func ParamsFromQuery(q url.Values, pageSize int, defaultSort Sort) Params {
	page, _ := strconv.Atoi(q.Get("page"))
	query := q.Get("q")
	if query == "" {
		query = q.Get("search")
	}
	return Params{
		Category: strings.TrimSpace(q.Get("category")),
		Query:    query,
		Range:    ParseRange(q.Get("range")),
		Sort:     ParseSort(q.Get("sort"), defaultSort),
		Page:     page,
		PageSize: pageSize,
	}
}

// Encode renders the parameters back into a query string, omitting
// defaults. page overrides p.Page; pass 0 to drop it.
func (p Params) Encode(page int) string {
	v := url.Values{}
	if p.Category != "" && !strings.EqualFold(p.Category, CategoryAll) {
		v.Set("category", p.Category)
	}
	if strings.TrimSpace(p.Query) != "" {
		v.Set("q", p.Query)
	}
	if p.Range != "" && p.Range != RangeAll {
		v.Set("range", string(p.Range))
	}
	if p.Sort != "" && p.Sort != SortDateDesc {
		v.Set("sort", string(p.Sort))
	}
	if page > 1 {
		v.Set("page", strconv.Itoa(page))
	}
	return v.Encode()
}

// WithCategory returns a copy of p showing category from the first page.
func (p Params) WithCategory(category string) Params {
	p.Category = category
	p.Page = 0
	return p
}

// Result is the output of Derive.
type Result[T Item] struct {
	Items    []T // the current page
	Matched  int // items passing all filters, before pagination
	Page     int
	Pages    int
	PageSize int
	Stats    Stats
	Params   Params
}

// HasPrev reports whether a previous page exists.
func (r Result[T]) HasPrev() bool { return r.Page > 1 }

// HasNext reports whether a following page exists.
func (r Result[T]) HasNext() bool { return r.Page < r.Pages }

// PageNumbers lists 1..Pages for pagination links.
func (r Result[T]) PageNumbers() []int {
	out := make([]int, r.Pages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// Derive computes the visible page and statistics for items under p.
func Derive[T Item](items []T, p Params, now time.Time) Result[T] {
	size := p.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}

	visible := Filter(items, p, now)
	SortItems(visible, p.Sort)

	pages := int(math.Ceil(float64(len(visible)) / float64(size)))
	page := p.Page
	if page < 1 {
		page = 1
	}
	if pages > 0 && page > pages {
		page = pages
	}

	start := (page - 1) * size
	end := start + size
	if start > len(visible) {
		start = len(visible)
	}
	if end > len(visible) {
		end = len(visible)
	}

	p.Page = page
	p.PageSize = size
	return Result[T]{
		Items:    visible[start:end],
		Matched:  len(visible),
		Page:     page,
		Pages:    pages,
		PageSize: size,
		Stats:    Compute(items, now),
		Params:   p,
	}
}

// Filter returns a new slice with the items that pass the category, search
// and date-range filters of p, in input order.
func Filter[T Item](items []T, p Params, now time.Time) []T {
	query := strings.ToLower(strings.TrimSpace(p.Query))
	days := p.Range.Days()

	out := make([]T, 0, len(items))
	for _, it := range items {
		if !MatchCategory(it, p.Category, now) {
			continue
		}
		if query != "" && !matchQuery(it, query) {
			continue
		}
		if days > 0 && !withinDays(it, days, now) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// MatchCategory applies the category filter to a single item.
func MatchCategory(it Item, category string, now time.Time) bool {
	category = strings.TrimSpace(category)
	switch {
	case category == "", strings.EqualFold(category, CategoryAll):
		return true
	case strings.EqualFold(category, CategoryFeatured):
		return it.IsFeatured()
	case strings.EqualFold(category, CategoryUpcoming):
		d, ok := it.SortDate()
		return ok && !beforeToday(d, now)
	case strings.EqualFold(category, CategoryThisMonth):
		d, ok := it.SortDate()
		return ok && d.Year() == now.Year() && d.Month() == now.Month()
	}
	return strings.EqualFold(strings.TrimSpace(it.CategoryName()), category)
}

// matchQuery reports a case-insensitive substring hit in any search field.
// query must already be lowercased.
func matchQuery(it Item, query string) bool {
	for _, field := range it.SearchFields() {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// withinDays reports whether the item is dated at most days whole days
// from now, rounding partial days up. Undated items never match.
func withinDays(it Item, days int, now time.Time) bool {
	d, ok := it.SortDate()
	if !ok {
		return false
	}
	return DaysBetween(d, now) <= days
}

// DaysBetween is the absolute distance between a and b in days, with any
// partial day counted as a full one.
func DaysBetween(a, b time.Time) int {
	diff := b.Sub(a)
	if diff < 0 {
		diff = -diff
	}
	return int(math.Ceil(diff.Hours() / 24))
}

var epoch = time.Unix(0, 0).UTC()

// dateKey is the sort key: undated items sort as the Unix epoch.
func dateKey(it Item) time.Time {
	if d, ok := it.SortDate(); ok {
		return d
	}
	return epoch
}

// SortItems orders items in place. The sort is stable: equal keys keep
// their relative input order.
func SortItems[T Item](items []T, order Sort) {
	switch order {
	case SortNone:
		return
	case SortDateAsc:
		sort.SliceStable(items, func(i, j int) bool {
			return dateKey(items[i]).Before(dateKey(items[j]))
		})
	case SortPopular:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Views() > items[j].Views()
		})
	default:
		sort.SliceStable(items, func(i, j int) bool {
			return dateKey(items[i]).After(dateKey(items[j]))
		})
	}
}

// Related returns up to limit items sharing category (case-insensitive),
// skipping those for which self returns true. Input order is kept.
func Related[T Item](items []T, category string, self func(T) bool, limit int) []T {
	var out []T
	for _, it := range items {
		if len(out) >= limit {
			break
		}
		if self != nil && self(it) {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(it.CategoryName()), strings.TrimSpace(category)) {
			out = append(out, it)
		}
	}
	return out
}

// Pick returns up to limit items for which keep returns true, in input order.
func Pick[T any](items []T, keep func(T) bool, limit int) []T {
	var out []T
	for _, it := range items {
		if len(out) >= limit {
			break
		}
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

// Head returns the first n items after filtering by category, used for
// home page sections.
func Head[T Item](items []T, category string, n int, now time.Time) []T {
	out := Filter(items, Params{Category: category}, now)
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// beforeToday compares calendar dates: d's date as written (in its own
// zone, the way it is displayed) against now's date in now's zone. A
// date-only value parsed as UTC midnight is therefore still today on a
// server west of UTC.
func beforeToday(d, now time.Time) bool {
	return civilDay(d).Before(civilDay(now))
}

func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
