package normalize

import (
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/net/html"

	"schoolsite/internal/models"
)

// BlocksText flattens a rich-text block list. Only paragraph blocks
// contribute; their inline text leaves are joined with single spaces.
// An empty result yields NoDescription.
func BlocksText(blocks gjson.Result) string {
	if !blocks.IsArray() {
		return NoDescription
	}
	var parts []string
	for _, block := range blocks.Array() {
		if block.Get("type").String() != "paragraph" {
			continue
		}
		parts = appendLeaves(parts, block.Get("children"))
	}
	text := strings.TrimSpace(strings.Join(parts, " "))
	if text == "" {
		return NoDescription
	}
	return text
}

// appendLeaves collects text leaves, descending into inline nodes such as
// links that carry their own children.
func appendLeaves(parts []string, children gjson.Result) []string {
	if !children.IsArray() {
		return parts
	}
	for _, child := range children.Array() {
		if nested := child.Get("children"); nested.IsArray() {
			parts = appendLeaves(parts, nested)
			continue
		}
		typ := child.Get("type")
		if typ.Exists() && typ.String() != "text" {
			continue
		}
		if t := child.Get("text"); t.Type == gjson.String && t.Str != "" {
			parts = append(parts, t.Str)
		}
	}
	return parts
}

// StripHTML reduces markup to its text content with whitespace collapsed.
// Script and style bodies are dropped. Plain text passes through unchanged
// apart from whitespace.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}

	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken:
			name, _ := z.TagName()
			if tag := string(name); tag == "script" || tag == "style" {
				skip++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if tag := string(name); (tag == "script" || tag == "style") && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

// Truncate shortens s to at most n characters, appending "..." when cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return strings.TrimRight(string(r[:n]), " \t\n") + "..."
}

// sortNewsByDate orders articles newest first. A missing date sorts as the
// Unix epoch.
func sortNewsByDate(items []models.NewsArticle) {
	key := func(a models.NewsArticle) time.Time {
		if a.PublishDate == nil {
			return time.Unix(0, 0)
		}
		return *a.PublishDate
	}
	sort.SliceStable(items, func(i, j int) bool {
		return key(items[i]).After(key(items[j]))
	})
}
