package normalize

import (
	"strconv"
	"strings"
	"time"
)

// Placeholder labels for dates and times that cannot be shown.
const (
	DateTBA     = "Date TBA"
	InvalidDate = "Invalid Date"
	TimeTBA     = "Time TBA"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate accepts the date formats the CMS produces. Values without a
// zone are read as UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders a date like "Mon, Jan 2, 2006". raw is the source value:
// when d is nil, an empty raw means the date was never given and a non-empty
// one means it could not be parsed.
func FormatDate(d *time.Time, raw string) string {
	if d == nil {
		if strings.TrimSpace(raw) == "" {
			return DateTBA
		}
		return InvalidDate
	}
	return d.Format("Mon, Jan 2, 2006")
}

// FormatLongDate renders a date like "Monday, January 2, 2006".
func FormatLongDate(d *time.Time, raw string) string {
	if d == nil {
		return FormatDate(d, raw)
	}
	return d.Format("Monday, January 2, 2006")
}

// FormatTime converts "14:30" (seconds and fractions allowed) to "2:30 PM".
// An empty value yields TimeTBA; anything unparseable is echoed back.
func FormatTime(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return TimeTBA
	}
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return s
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return s
	}
	minutes := parts[1]
	if m, err := strconv.Atoi(minutes); err != nil || m < 0 || m > 59 || len(minutes) != 2 {
		return s
	}

	ampm := "AM"
	if hour >= 12 {
		ampm = "PM"
	}
	display := hour % 12
	if display == 0 {
		display = 12
	}
	return strconv.Itoa(display) + ":" + minutes + " " + ampm
}

// DayMonth returns the day of month and short month name for a calendar
// badge, or ("??", "???") when the date is unknown.
func DayMonth(d *time.Time) (day, month string) {
	if d == nil {
		return "??", "???"
	}
	return strconv.Itoa(d.Day()), d.Format("Jan")
}
