package parse

import (
	"fmt"
	"strings"
	"time"
)

// Layouts accepted from form date pickers, most specific first.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

const isoDateLayout = "2006-01-02"

// ParseISODate converts an ISO-8601 date or date-time into epoch milliseconds.
// Values without a zone offset are interpreted in loc; a bare date means the
// start of that day.
func ParseISODate(value string, loc *time.Location) (int64, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return 0, fmt.Errorf("empty date")
	}
	if loc == nil {
		loc = time.UTC
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UnixMilli(), nil
	}
	for _, layout := range isoLayouts[1:] {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.UnixMilli(), nil
		}
	}
	if t, err := time.ParseInLocation(isoDateLayout, s, loc); err == nil {
		return t.UnixMilli(), nil
	}
	return 0, fmt.Errorf("unable to parse date: %q", value)
}

// FormatISODate renders epoch milliseconds as a calendar date in loc.
func FormatISODate(ms int64, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return time.UnixMilli(ms).In(loc).Format(isoDateLayout)
}

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
