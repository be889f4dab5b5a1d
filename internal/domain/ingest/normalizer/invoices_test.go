package normalizer

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeInvoicesGroupsByNumber(t *testing.T) {
	table := billTable(
		[]string{"Invoice Number", "Customer", "Date", "Total", "Item", "Qty", "Price"},
		[]string{"INV-1", "Initech", "03/15/2024", "30.00", "Support", "2", "5.00"},
		[]string{"INV-1", "Initech", "03/15/2024", "30.00", "Backup", "1", "20.00"},
		[]string{"INV-2", "Hooli", "03/16/2024", "12.00", "Support", "3", "4.00"},
	)

	invoices, err := NormalizeInvoices(table)
	require.NoError(t, err)
	require.Len(t, invoices, 2)

	first := invoices[0]
	assert.Equal(t, "INV-1", first.Number)
	assert.Equal(t, "INV-1", first.ExternalID)
	assert.Equal(t, "Initech", first.CustomerName)
	assert.Equal(t, "03/15/2024", first.Date)
	assert.True(t, first.Total.Equal(decimal.RequireFromString("30.00")))
	require.Len(t, first.Lines, 2)
	assert.True(t, first.Lines[0].LineTotal.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, first.Lines[1].LineTotal.Equal(decimal.RequireFromString("20.00")))

	assert.Equal(t, "Hooli", invoices[1].CustomerName)
}

func TestNormalizeInvoicesExplicitLineTotalWins(t *testing.T) {
	table := billTable(
		[]string{"Invoice Number", "Item", "Qty", "Price", "Line Total"},
		[]string{"INV-1", "Support", "2", "5.00", "9.50"},
	)

	invoices, err := NormalizeInvoices(table)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.True(t, invoices[0].Lines[0].LineTotal.Equal(decimal.RequireFromString("9.50")))
}

func TestNormalizeInvoicesExternalIDFallback(t *testing.T) {
	t.Run("external id column used for grouping", func(t *testing.T) {
		table := billTable(
			[]string{"ID", "Customer", "Date", "Amount"},
			[]string{"row-7", "Initech", "03/15/2024", "10.00"},
			[]string{"row-7", "Initech", "03/15/2024", "10.00"},
		)

		invoices, err := NormalizeInvoices(table)
		require.NoError(t, err)
		require.Len(t, invoices, 1)
		assert.Equal(t, "row-7", invoices[0].ExternalID)
		assert.Empty(t, invoices[0].Number)
	})

	t.Run("unnumbered rows never collapse", func(t *testing.T) {
		table := billTable(
			[]string{"Customer", "Date", "Amount"},
			[]string{"Initech", "03/15/2024", "10.00"},
			[]string{"Hooli", "03/16/2024", "25.00"},
		)

		invoices, err := NormalizeInvoices(table)
		require.NoError(t, err)
		require.Len(t, invoices, 2)
		assert.NotEqual(t, invoices[0].ExternalID, invoices[1].ExternalID)
		assert.NotEmpty(t, invoices[0].ExternalID)
	})
}

func TestNormalizeInvoicesDueDateDefaultsToInvoiceDate(t *testing.T) {
	table := billTable(
		[]string{"Invoice Number", "Date", "Total"},
		[]string{"INV-1", "03/15/2024", "10.00"},
	)

	invoices, err := NormalizeInvoices(table)
	require.NoError(t, err)
	assert.Equal(t, "03/15/2024", invoices[0].DueDate)
}

func TestNormalizeInvoicesSubtotalAndTax(t *testing.T) {
	table := billTable(
		[]string{"Invoice Number", "Subtotal", "Tax", "Total"},
		[]string{"INV-1", "10.00", "2.30", "12.30"},
	)

	invoices, err := NormalizeInvoices(table)
	require.NoError(t, err)

	inv := invoices[0]
	assert.True(t, inv.Subtotal.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, inv.Tax.Equal(decimal.RequireFromString("2.30")))
	assert.True(t, inv.Total.Equal(decimal.RequireFromString("12.30")))
}
