package normalize

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/tidwall/gjson"
)

const media = "http://cms.test"

// TestNormalize_Totality feeds arbitrary JSON to every decoder and checks
// that each returns a fully defaulted value without panicking.
func TestNormalize_Totality(t *testing.T) {
	inputs := []string{
		``,
		`null`,
		`{}`,
		`[]`,
		`42`,
		`"string"`,
		`true`,
		`{"attributes":null}`,
		`{"attributes":[1,2,3]}`,
		`{"title":7,"date":{"x":1},"description":[null,1,{"type":"paragraph","children":"oops"}]}`,
		`{"image":{"data":[]},"images":{"data":{"not":"a list"}},"viewCount":"many"}`,
		`{"content":{"deep":{"deeper":[[[]]]}},"author":false,"publishDate":"not a date"}`,
		`{"id":null,"attributes":{"title":null,"images":[{"attributes":{}}]}}`,
		`{"unterminated": `,
	}

	n := New(media)
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			ev := n.Event([]byte(in))
			if ev.Title == "" || ev.Description == "" || ev.Summary == "" || ev.Image == "" {
				t.Errorf("event has empty required field: %+v", ev)
			}

			a := n.News([]byte(in))
			if a.Title == "" || a.Author == "" || a.Image == "" {
				t.Errorf("article has empty required field: %+v", a)
			}
			if a.ViewCount < 0 {
				t.Errorf("ViewCount = %d", a.ViewCount)
			}

			g := n.Gallery([]byte(in))
			if g.Title == "" || g.Images == nil {
				t.Errorf("gallery has empty required field: %+v", g)
			}
		})
	}
}

func TestEvent_FlatAndWrappedAgree(t *testing.T) {
	flat := `{"id":3,"title":"Science Fair","date":"2026-05-10","time":"09:30","location":"Hall",
		"description":"<p>Bring <b>projects</b></p>","category":"Academic","featured":true,
		"image":{"url":"/uploads/fair.jpg"}}`
	wrapped := `{"id":3,"attributes":{"title":"Science Fair","date":"2026-05-10","time":"09:30","location":"Hall",
		"description":"<p>Bring <b>projects</b></p>","category":"Academic","featured":true,
		"image":{"data":{"attributes":{"url":"/uploads/fair.jpg"}}}}}`

	n := New(media)
	a, b := n.Event([]byte(flat)), n.Event([]byte(wrapped))
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("flat and wrapped differ:\n%+v\n%+v", a, b)
	}

	if a.ID != "3" {
		t.Errorf("ID = %q", a.ID)
	}
	if a.Description != "Bring projects" {
		t.Errorf("Description = %q", a.Description)
	}
	if a.Image != "http://cms.test/uploads/fair.jpg" || !a.HasImage {
		t.Errorf("Image = %q HasImage = %v", a.Image, a.HasImage)
	}
	if a.Date == nil || a.Date.Format("2006-01-02") != "2026-05-10" {
		t.Errorf("Date = %v", a.Date)
	}
}

func TestEvent_Defaults(t *testing.T) {
	ev := New(media).Event([]byte(`{"id":"abc"}`))
	if ev.Title != DefaultEventTitle {
		t.Errorf("Title = %q", ev.Title)
	}
	if ev.Description != NoDescription {
		t.Errorf("Description = %q", ev.Description)
	}
	if ev.Date != nil || ev.Category != "" || ev.Featured {
		t.Errorf("unexpected values: %+v", ev)
	}
	if ev.Image != GenericEventImage || ev.HasImage {
		t.Errorf("Image = %q", ev.Image)
	}
}

func TestBlocksText(t *testing.T) {
	tests := []struct {
		name   string
		blocks string
		want   string
	}{
		{
			name: "two paragraphs",
			blocks: `[{"type":"paragraph","children":[{"type":"text","text":"Hello"}]},
				{"type":"paragraph","children":[{"type":"text","text":"world"}]}]`,
			want: "Hello world",
		},
		{
			name: "heading excluded",
			blocks: `[{"type":"heading","level":2,"children":[{"type":"text","text":"Title"}]},
				{"type":"paragraph","children":[{"type":"text","text":"Body"}]}]`,
			want: "Body",
		},
		{
			name:   "empty list",
			blocks: `[]`,
			want:   NoDescription,
		},
		{
			name:   "only headings",
			blocks: `[{"type":"heading","children":[{"type":"text","text":"T"}]}]`,
			want:   NoDescription,
		},
		{
			name: "link children flattened",
			blocks: `[{"type":"paragraph","children":[{"type":"text","text":"See"},
				{"type":"link","url":"https://x","children":[{"type":"text","text":"here"}]}]}]`,
			want: "See here",
		},
		{
			name:   "empty texts skipped",
			blocks: `[{"type":"paragraph","children":[{"type":"text","text":""},{"type":"text","text":"a"}]}]`,
			want:   "a",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BlocksText(gjson.Parse(tt.blocks)); got != tt.want {
				t.Errorf("BlocksText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEvent_BlockDescriptionSummary(t *testing.T) {
	long := strings.Repeat("a", 200)
	raw := `{"id":1,"description":[{"type":"paragraph","children":[{"type":"text","text":"` + long + `"}]}]}`
	ev := New(media).Event([]byte(raw))

	if ev.Description != long {
		t.Errorf("full text should be preserved, got %d chars", len(ev.Description))
	}
	if ev.Summary != strings.Repeat("a", SummaryLength)+"..." {
		t.Errorf("Summary = %q", ev.Summary)
	}
	if ev.Body != "" {
		t.Errorf("Body should be empty for block lists, got %q", ev.Body)
	}
}

func TestEvent_ObjectDescription(t *testing.T) {
	ev := New(media).Event([]byte(`{"description":{"a": 1}}`))
	if ev.Description != `{"a":1}` {
		t.Errorf("Description = %q", ev.Description)
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain  text\n here", "plain text here"},
		{"<p>Hello <em>there</em></p>", "Hello there"},
		{"Fish &amp; chips", "Fish & chips"},
		{"<script>alert(1)</script>Safe", "Safe"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := StripHTML(tt.in); got != tt.want {
			t.Errorf("StripHTML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := Truncate("héllo wörld", 5); got != "héllo..." {
		t.Errorf("got %q", got)
	}
	if got := Truncate("abc def", 4); got != "abc..." {
		t.Errorf("trailing space should be trimmed, got %q", got)
	}
}

func TestImageResolution(t *testing.T) {
	n := New(media + "/")
	tests := []struct {
		name  string
		image string
		want  string
		ok    bool
	}{
		{"string relative", `"/uploads/a.png"`, "http://cms.test/uploads/a.png", true},
		{"string without slash", `"uploads/a.png"`, "http://cms.test/uploads/a.png", true},
		{"absolute kept", `{"url":"https://cdn.test/a.png"}`, "https://cdn.test/a.png", true},
		{"v4 relation", `{"data":{"attributes":{"url":"/u/b.png"}}}`, "http://cms.test/u/b.png", true},
		{"data url", `{"data":{"url":"/u/c.png"}}`, "http://cms.test/u/c.png", true},
		{"null data", `{"data":null}`, "", false},
		{"number", `5`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := n.resolveImage(gjson.Parse(tt.image))
			if got != tt.want || ok != tt.ok {
				t.Errorf("resolveImage() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestDefaultImages(t *testing.T) {
	if got := DefaultEventImage("Sports", false); got != eventImages["sports"] {
		t.Errorf("sports event image = %q", got)
	}
	if got := DefaultEventImage("Sports", true); got != FeaturedEventImage {
		t.Errorf("featured should win, got %q", got)
	}
	if got := DefaultEventImage("Robotics", false); got != GenericEventImage {
		t.Errorf("unknown category = %q", got)
	}
	if got := DefaultNewsImage("ACHIEVEMENTS"); got != newsImages["achievements"] {
		t.Errorf("news image = %q", got)
	}
	if got := DefaultNewsImage(""); got != GenericNewsImage {
		t.Errorf("generic news image = %q", got)
	}
}

func TestNews_DefaultsAndContent(t *testing.T) {
	n := New(media)
	a := n.News([]byte(`{"id":9,"attributes":{"content":"<p>Big <b>win</b></p>","viewCount":"12"}}`))
	if a.Title != DefaultNewsTitle || a.Author != "School Admin" {
		t.Errorf("defaults not applied: %+v", a)
	}
	if a.ContentText != "Big win" || a.Content != "<p>Big <b>win</b></p>" {
		t.Errorf("content = %q / %q", a.Content, a.ContentText)
	}
	if a.ViewCount != 12 {
		t.Errorf("ViewCount = %d", a.ViewCount)
	}
	if a.Image != GenericNewsImage {
		t.Errorf("Image = %q", a.Image)
	}
}

func TestNewsList_SortedByDateStable(t *testing.T) {
	raws := []json.RawMessage{
		json.RawMessage(`{"id":1,"publishDate":"2026-01-01"}`),
		json.RawMessage(`{"id":2}`),
		json.RawMessage(`{"id":3,"publishDate":"2026-03-01"}`),
		json.RawMessage(`{"id":4,"attributes":{"publishDate":"2026-03-01"}}`),
	}
	got := New(media).NewsList(raws)
	var ids []string
	for _, a := range got {
		ids = append(ids, a.ID)
	}
	want := []string{"3", "4", "1", "2"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("order = %v, want %v", ids, want)
	}
}

func TestGallery(t *testing.T) {
	raw := `{"id":5,"attributes":{"title":"Sports Day","category":"Sports","images":{"data":[
		{"id":1,"attributes":{"url":"/u/1.jpg","alternativeText":"Relay"}},
		{"id":2,"attributes":{"url":""}},
		{"id":3,"attributes":{"url":"/u/3.jpg"}}]}}}`
	g := New(media).Gallery([]byte(raw))

	if g.Title != "Sports Day" || g.Category != "Sports" {
		t.Errorf("unexpected gallery %+v", g)
	}
	if len(g.Images) != 2 {
		t.Fatalf("images = %d, want 2", len(g.Images))
	}
	if g.Images[0].Alt != "Relay" || g.AltFor(1) != "Sports Day - 2" {
		t.Errorf("alt texts = %q / %q", g.Images[0].Alt, g.AltFor(1))
	}
	if GalleryCover(g) != "http://cms.test/u/1.jpg" {
		t.Errorf("cover = %q", GalleryCover(g))
	}

	empty := New(media).Gallery([]byte(`{"id":6}`))
	if empty.Title != DefaultGalleryTitle || empty.Active() || GalleryCover(empty) != GenericGalleryImage {
		t.Errorf("empty gallery = %+v", empty)
	}
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		d    *time.Time
		raw  string
		want string
	}{
		{"missing", nil, "", DateTBA},
		{"unparseable", nil, "someday", InvalidDate},
		{"valid", &d, "2026-03-09", "Mon, Mar 9, 2026"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDate(tt.d, tt.raw); got != tt.want {
				t.Errorf("FormatDate() = %q, want %q", got, tt.want)
			}
		})
	}
	if got := FormatLongDate(&d, ""); got != "Monday, March 9, 2026" {
		t.Errorf("FormatLongDate() = %q", got)
	}
}

func TestFormatTime(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", TimeTBA},
		{"14:30", "2:30 PM"},
		{"00:05", "12:05 AM"},
		{"12:00:00.000", "12:00 PM"},
		{"09:15:00", "9:15 AM"},
		{"noon", "noon"},
		{"25:00", "25:00"},
	}
	for _, tt := range tests {
		if got := FormatTime(tt.in); got != tt.want {
			t.Errorf("FormatTime(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDayMonth(t *testing.T) {
	day, month := DayMonth(nil)
	if day != "??" || month != "???" {
		t.Errorf("DayMonth(nil) = %q %q", day, month)
	}
	d := time.Date(2026, 11, 4, 0, 0, 0, 0, time.UTC)
	day, month = DayMonth(&d)
	if day != "4" || month != "Nov" {
		t.Errorf("DayMonth() = %q %q", day, month)
	}
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2026-05-01", "2026-05-01T10:00:00Z", "2026-05-01T10:00:00.123Z", "2026-05-01T10:00:00"} {
		if _, ok := ParseDate(s); !ok {
			t.Errorf("ParseDate(%q) failed", s)
		}
	}
	for _, s := range []string{"", "05/01/2026", "tomorrow"} {
		if _, ok := ParseDate(s); ok {
			t.Errorf("ParseDate(%q) should fail", s)
		}
	}
}
