// Package normalizer converts classified tables into canonical ledger
// records. Column roles are resolved against the header row exactly once per
// file; rows are then consumed positionally.
package normalizer

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finvern/ledgerbridge/internal/domain/ingest/classifier"
	"github.com/finvern/ledgerbridge/internal/domain/ingest/parser"
	"github.com/finvern/ledgerbridge/pkg/money"
)

// DefaultTerms applies when no Terms cell is populated anywhere in a group.
const DefaultTerms = "Due upon receipt"

// ValidationError reports required column roles that could not be resolved,
// or a file that produced no usable groups.
type ValidationError struct {
	Format       string
	MissingRoles []string
	Reason       string
}

func (e *ValidationError) Error() string {
	if len(e.MissingRoles) > 0 {
		return fmt.Sprintf("%s: missing required columns: %s", e.Format, strings.Join(e.MissingRoles, ", "))
	}
	return fmt.Sprintf("%s: %s", e.Format, e.Reason)
}

// resolveColumn returns the index of the first header matching any synonym
// in the group, or -1.
func resolveColumn(headers []string, group []string) int {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = classifier.Normalize(h)
	}
	for _, syn := range group {
		for i, h := range normalized {
			if h == syn {
				return i
			}
		}
	}
	return -1
}

// cell fetches a cleaned cell value, tolerating short records.
func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return parser.CleanField(record[idx])
}

// rawCell fetches a cell without sanitization, for numeric parsing.
func rawCell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}

// parseNumeric strips everything but digits, dot and minus before
// conversion. Unparsable numerics default to zero.
func parseNumeric(raw string) decimal.Decimal {
	d, ok := money.ParseLoose(raw)
	if !ok {
		return decimal.Zero
	}
	return d
}

var netTermsPattern = regexp.MustCompile(`(?i)^\s*net\s*(\d+)`)

// DueDate computes a bill due date from its payment terms. A leading
// "Net N" token adds N days to the bill date; anything else leaves the due
// date equal to the bill date.
func DueDate(terms, canonicalDate string) string {
	m := netTermsPattern.FindStringSubmatch(terms)
	if m == nil {
		return canonicalDate
	}
	t, err := time.Parse(parser.CanonicalDateFormat, canonicalDate)
	if err != nil {
		return canonicalDate
	}
	days := 0
	for _, r := range m[1] {
		days = days*10 + int(r-'0')
	}
	return t.AddDate(0, 0, days).Format(parser.CanonicalDateFormat)
}
