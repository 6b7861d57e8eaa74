package domain

import (
	"strings"
	"time"
)

// Payload dates are MM/DD/YYYY; the other layouts cover hand-edited files.
//
//nolint:gochecknoglobals // Static layout list
var publicationLayouts = []string{
	"01/02/2006",
	"1/2/2006",
	"2006-01-02",
	time.RFC3339,
}

// Filter inputs come from an HTML date input (YYYY-MM-DD) or are typed by hand.
//
//nolint:gochecknoglobals // Static layout list
var filterLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
}

// ParsePublicationDate parses a payload date. All dates are UTC.
func ParsePublicationDate(s string) (time.Time, bool) {
	return parseFirst(strings.TrimSpace(s), publicationLayouts)
}

// ParseDateInput parses a minimum-date filter value.
// Empty or unparseable input reports false, which leaves the filter unset.
func ParseDateInput(s string) (time.Time, bool) {
	return parseFirst(strings.TrimSpace(s), filterLayouts)
}

func parseFirst(s string, layouts []string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ReformatDate converts MM/DD/YYYY to DD/MM/YYYY.
// Anything else is returned unchanged.
//
// Examples:
//
//	"03/07/2021" → "07/03/2021"
//	"2021-03-07" → "2021-03-07"
func ReformatDate(s string) string {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return s
	}
	return parts[1] + "/" + parts[0] + "/" + parts[2]
}
