package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLoose(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{name: "plain", input: "12.34", expected: "12.34", ok: true},
		{name: "dollar sign", input: "$1234.50", expected: "1234.50", ok: true},
		{name: "thousands separators", input: "1,234.50", expected: "1234.50", ok: true},
		{name: "currency suffix", input: "45.00 USD", expected: "45.00", ok: true},
		{name: "negative", input: "-45.00", expected: "-45.00", ok: true},
		{name: "accounting parens strip without negating", input: "(45.00)", expected: "45.00", ok: true},
		{name: "integer", input: "7", expected: "7", ok: true},
		{name: "empty", input: "", ok: false},
		{name: "letters only", input: "n/a", ok: false},
		{name: "bare minus", input: "-", ok: false},
		{name: "bare dot", input: ".", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := ParseLoose(tt.input)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, d.Equal(decimal.RequireFromString(tt.expected)),
					"got %s, want %s", d, tt.expected)
			}
		})
	}
}

func TestRound2HalfAwayFromZero(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "1.005", expected: "1.01"},
		{input: "1.004", expected: "1.00"},
		{input: "-1.005", expected: "-1.01"},
		{input: "2.675", expected: "2.68"},
		{input: "10", expected: "10.00"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Round2(decimal.RequireFromString(tt.input))
			assert.Equal(t, tt.expected, got.StringFixed(2))
		})
	}
}

func TestNormalizeCurrency(t *testing.T) {
	assert.Equal(t, "EUR", NormalizeCurrency("eur"))
	assert.Equal(t, "USD", NormalizeCurrency(" usd "))
	assert.Equal(t, DefaultCurrency, NormalizeCurrency("XXXX"))
	assert.Equal(t, DefaultCurrency, NormalizeCurrency(""))
}

func TestValidCurrency(t *testing.T) {
	assert.True(t, ValidCurrency("USD"))
	assert.True(t, ValidCurrency("gbp"))
	assert.False(t, ValidCurrency("ZZZ"))
}
