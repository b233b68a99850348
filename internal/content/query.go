package content

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Resource names a CMS collection.
type Resource string

const (
	Events    Resource = "events"
	News      Resource = "news"
	Galleries Resource = "galleries"
)

// defaultPopulate returns the relation expansion requested for list reads.
func (r Resource) defaultPopulate() []string {
	switch r {
	case Galleries:
		return []string{"images"}
	case Events, News:
		return []string{"image"}
	default:
		return nil
	}
}

// Pagination selects a page of results. Page/PageSize and Start/Limit are
// the two styles the CMS accepts; zero fields are omitted.
type Pagination struct {
	Page     int
	PageSize int
	Start    int
	Limit    int
}

// Query holds the optional request parameters for a read.
type Query struct {
	// Populate lists relations to expand inline. Nil means the resource
	// default; an empty non-nil slice requests no expansion.
	Populate   []string
	Filters    map[string]string // field -> value, rendered as filters[field][$eq]
	Sort       string            // e.g. "publishDate:desc"
	Pagination Pagination
}

// Encode renders the query string without the leading "?". Output order is
// deterministic.
func (q Query) Encode() string {
	v := url.Values{}
	if len(q.Populate) > 0 {
		v.Set("populate", strings.Join(q.Populate, ","))
	}

	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v.Add("filters["+k+"][$eq]", q.Filters[k])
	}

	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}

	p := q.Pagination
	setInt := func(key string, n int) {
		if n > 0 {
			v.Set("pagination["+key+"]", strconv.Itoa(n))
		}
	}
	setInt("page", p.Page)
	setInt("pageSize", p.PageSize)
	setInt("start", p.Start)
	setInt("limit", p.Limit)

	return v.Encode()
}

// withDefaults fills Populate with the given default when unset.
func (q Query) withDefaults(populate []string) Query {
	if q.Populate == nil {
		q.Populate = populate
	}
	return q
}
