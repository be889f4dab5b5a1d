// Package money provides precise decimal parsing and rounding for the
// amounts that flow through the ledger. Source files carry amounts as free
// text ("$1,234.50", "1 234,50 EUR"), so parsing is deliberately liberal
// while arithmetic stays exact via shopspring/decimal. Parsing strips
// symbols without interpreting them: accounting parentheses do not negate.
package money

import (
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is assumed when a source row carries no currency code.
// Multi-currency conversion is out of scope; the code is carried verbatim.
const DefaultCurrency = "USD"

// ParseLoose converts a messy numeric cell into a decimal. Every character
// except digits, '.' and '-' is stripped before conversion. Empty or
// unparsable input returns (0, false); callers decide whether that is a
// default or a skip.
func ParseLoose(raw string) (decimal.Decimal, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, raw)
	if cleaned == "" || cleaned == "-" || cleaned == "." {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Round2 rounds half away from zero to two decimal places, matching the
// ROUND_HALF_UP quantize the interchange format expects.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ValidCurrency reports whether code is a known ISO-4217 currency.
func ValidCurrency(code string) bool {
	return gomoney.GetCurrency(strings.ToUpper(strings.TrimSpace(code))) != nil
}

// NormalizeCurrency upper-cases a known code or falls back to
// DefaultCurrency.
func NormalizeCurrency(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if ValidCurrency(code) {
		return code
	}
	return DefaultCurrency
}
