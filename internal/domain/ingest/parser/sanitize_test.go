package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "us slash date", input: "03/15/2024", expected: "03/15/2024"},
		{name: "us slash with 12h time", input: "03/15/2024 02:30 PM", expected: "03/15/2024"},
		{name: "us slash with 24h time", input: "03/15/2024 14:30", expected: "03/15/2024"},
		{name: "two digit year", input: "3/15/24", expected: "03/15/2024"},
		{name: "iso date", input: "2024-03-15", expected: "03/15/2024"},
		{name: "iso with time", input: "2024-03-15 14:30:00", expected: "03/15/2024"},
		{name: "iso with t separator", input: "2024-03-15T14:30:00", expected: "03/15/2024"},
		{name: "iso with z suffix", input: "2024-03-15T14:30:00Z", expected: "03/15/2024"},
		{name: "dashed us date", input: "03-15-2024", expected: "03/15/2024"},
		{name: "short month name", input: "Mar 15, 2024", expected: "03/15/2024"},
		{name: "long month name", input: "March 15, 2024", expected: "03/15/2024"},
		{name: "month name no comma", input: "Mar 15 2024", expected: "03/15/2024"},
		{name: "surrounding whitespace", input: "  03/15/2024  ", expected: "03/15/2024"},
		{name: "single digit month and day", input: "3/5/2024", expected: "03/05/2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CanonicalDate(tt.input))
		})
	}
}

func TestCanonicalDateFallsBackToToday(t *testing.T) {
	today := time.Now().Format(CanonicalDateFormat)

	assert.Equal(t, today, CanonicalDate(""))
	assert.Equal(t, today, CanonicalDate("   "))
	assert.Equal(t, today, CanonicalDate("not a date"))
	assert.Equal(t, today, CanonicalDate("13/45/9999"))
}

func TestCleanField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "strips double quotes", input: `"Acme Corp"`, expected: "Acme Corp"},
		{name: "strips single quotes", input: "O'Brien's", expected: "OBriens"},
		{name: "collapses inner whitespace", input: "Acme   Corp", expected: "Acme Corp"},
		{name: "replaces tabs and newlines", input: "Acme\tCorp\nLtd", expected: "Acme Corp Ltd"},
		{name: "trims edges", input: "  widget  ", expected: "widget"},
		{name: "empty stays empty", input: "", expected: ""},
		{name: "control characters", input: "wid\x07get", expected: "wid get"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanField(tt.input))
		})
	}
}
