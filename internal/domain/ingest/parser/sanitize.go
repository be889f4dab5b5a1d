package parser

import (
	"strings"
	"time"
	"unicode"
)

// CanonicalDateFormat is the fixed display format every date is normalized
// into before grouping or persistence.
const CanonicalDateFormat = "01/02/2006"

// knownDateLayouts is evaluated in priority order. Be liberal in what we
// accept: exports mix US, ISO and month-name dates, with or without time.
var knownDateLayouts = []string{
	"01/02/2006 03:04 PM",
	"01/02/2006 15:04",
	"01/02/2006",
	"01/02/06",
	"01-02-2006",
	"01-02-06",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"January 2 2006",
}

// slashedLayouts are retried after replacing dashes with slashes, covering
// minor delimiter differences.
var slashedLayouts = []string{"01/02/2006", "01/02/06", "2006/01/02"}

// CanonicalDate normalizes a raw date cell into MM/DD/YYYY. Empty or
// unparseable input falls back to today so downstream records stay valid.
func CanonicalDate(raw string) string {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return time.Now().Format(CanonicalDateFormat)
	}

	if t, ok := tryLayouts(candidate, knownDateLayouts); ok {
		return t.Format(CanonicalDateFormat)
	}

	// Drop a trailing time component and retry on the first token.
	firstToken := candidate
	if fields := strings.Fields(candidate); len(fields) > 0 {
		firstToken = fields[0]
	}
	if t, ok := tryLayouts(firstToken, knownDateLayouts); ok {
		return t.Format(CanonicalDateFormat)
	}

	alt := strings.ReplaceAll(firstToken, "-", "/")
	if t, ok := tryLayouts(alt, slashedLayouts); ok {
		return t.Format(CanonicalDateFormat)
	}

	if t, err := time.Parse("2006-01-02T15:04:05", strings.TrimSuffix(candidate, "Z")); err == nil {
		return t.Format(CanonicalDateFormat)
	}

	return time.Now().Format(CanonicalDateFormat)
}

func tryLayouts(s string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CleanField strips control characters and quote characters from a scalar
// cell, collapsing any run of whitespace to a single space.
func CleanField(s string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r == '"' || r == '\'':
			return -1
		case unicode.IsControl(r):
			return ' '
		default:
			return r
		}
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}
