package view

import (
	"sort"
	"strings"
	"time"

	"schoolsite/internal/models"
)

// Stats are the aggregate counts shown above a listing. They describe the
// whole collection, not the filtered subset.
type Stats struct {
	Total    int
	Featured int
	Upcoming int // dated today or later
	Past     int // dated before today
	Months   int // distinct calendar months with at least one dated item
}

// Compute aggregates items. Undated items count toward Total only.
func Compute[T Item](items []T, now time.Time) Stats {
	months := make(map[[2]int]struct{})

	s := Stats{Total: len(items)}
	for _, it := range items {
		if it.IsFeatured() {
			s.Featured++
		}
		d, ok := it.SortDate()
		if !ok {
			continue
		}
		if beforeToday(d, now) {
			s.Past++
		} else {
			s.Upcoming++
		}
		months[[2]int{d.Year(), int(d.Month())}] = struct{}{}
	}
	s.Months = len(months)
	return s
}

// CategoryCount is one filter chip with its item count.
type CategoryCount struct {
	Name  string
	Count int
}

// CountByCategory counts items per category name, in the given order.
// Names are matched ignoring case.
func CountByCategory[T Item](items []T, categories []string) []CategoryCount {
	out := make([]CategoryCount, len(categories))
	for i, name := range categories {
		out[i].Name = name
	}
	for _, it := range items {
		cat := strings.TrimSpace(it.CategoryName())
		for i := range out {
			if strings.EqualFold(cat, out[i].Name) {
				out[i].Count++
				break
			}
		}
	}
	return out
}

// YearCount is the number of articles published in one year.
type YearCount struct {
	Year  int
	Count int
}

// NewsStats are the extra aggregates of the news page.
type NewsStats struct {
	Years      []YearCount // newest year first
	Authors    int         // distinct authors
	ThisWeek   int         // published within the last 7 days
	MostRecent *time.Time
	Categories []CategoryCount
}

// ComputeNews aggregates articles for the news page.
func ComputeNews(items []models.NewsArticle, now time.Time) NewsStats {
	years := make(map[int]int)
	authors := make(map[string]struct{})

	var s NewsStats
	for _, a := range items {
		authors[strings.ToLower(strings.TrimSpace(a.Author))] = struct{}{}
		d, ok := a.SortDate()
		if !ok {
			continue
		}
		years[d.Year()]++
		if DaysBetween(d, now) <= RangeWeek.Days() {
			s.ThisWeek++
		}
		if s.MostRecent == nil || d.After(*s.MostRecent) {
			latest := d
			s.MostRecent = &latest
		}
	}

	for y, n := range years {
		s.Years = append(s.Years, YearCount{Year: y, Count: n})
	}
	sort.Slice(s.Years, func(i, j int) bool { return s.Years[i].Year > s.Years[j].Year })

	s.Authors = len(authors)
	s.Categories = CountByCategory(items, models.NewsCategories)
	return s
}

// GalleryStats are the extra aggregates of the gallery page.
type GalleryStats struct {
	Photos int // images across all galleries
	Active int // galleries with at least one image
	Empty  int
}

// ComputeGalleries aggregates galleries.
func ComputeGalleries(items []models.Gallery) GalleryStats {
	var s GalleryStats
	for _, g := range items {
		s.Photos += len(g.Images)
		if g.Active() {
			s.Active++
		} else {
			s.Empty++
		}
	}
	return s
}

// Categories returns the distinct non-empty categories of items in first
// appearance order, for building filter chips from data.
func Categories[T Item](items []T) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, it := range items {
		c := strings.TrimSpace(it.CategoryName())
		key := strings.ToLower(c)
		if c == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}
