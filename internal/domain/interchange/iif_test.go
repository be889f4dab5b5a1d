package interchange

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finvern/ledgerbridge/internal/domain/ledger"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleBill() ledger.Bill {
	return ledger.Bill{
		Vendor:      "Acme",
		RefNumber:   "PO-1",
		Date:        "03/15/2024",
		Terms:       "Net 30",
		DueDate:     "04/14/2024",
		TotalAmount: dec("30.00"),
		Lines: []ledger.LineItem{
			{ItemName: "Widget", Description: "Blue widget", Quantity: dec("2"), UnitCost: dec("5.00"), LineAmount: dec("10.00")},
			{ItemName: "Gadget", Quantity: dec("1"), UnitCost: dec("20.00"), LineAmount: dec("20.00")},
		},
	}
}

func TestWriteBills(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, WriteBills(&sb, []ledger.Bill{sampleBill()}, Accounts{}))
	out := sb.String()

	lines := strings.Split(out, "\r\n")
	// Three header lines, one TRNS, two SPL, one ENDTRNS, trailing empty.
	require.Len(t, lines, 8)
	assert.Empty(t, lines[7])

	assert.True(t, strings.HasPrefix(lines[0], "!TRNS\t"))
	assert.True(t, strings.HasPrefix(lines[1], "!SPL\t"))
	assert.True(t, strings.HasPrefix(lines[2], "!ENDTRNS"))

	trns := strings.Split(lines[3], "\t")
	assert.Equal(t, "TRNS", trns[0])
	assert.Equal(t, "BILL", trns[2])
	assert.Equal(t, "03/15/2024", trns[3])
	assert.Equal(t, "Accounts Payable", trns[4])
	assert.Equal(t, "Acme", trns[5])
	assert.Equal(t, "-30.00", trns[6])
	assert.Equal(t, "PO-1", trns[7])
	assert.Equal(t, "04/14/2024", trns[8])
	assert.Equal(t, "Net 30", trns[9])

	spl := strings.Split(lines[4], "\t")
	assert.Equal(t, "SPL", spl[0])
	assert.Equal(t, "Inventory Asset", spl[4])
	assert.Equal(t, "10.00", spl[6])
	assert.Equal(t, "Blue widget", spl[8])
	assert.Equal(t, "2", spl[10])
	assert.Equal(t, "5.00", spl[11])
	assert.Equal(t, "Widget", spl[12])

	// Memo falls back to the item name when no description exists.
	spl2 := strings.Split(lines[5], "\t")
	assert.Equal(t, "Gadget", spl2[8])

	assert.True(t, strings.HasPrefix(lines[6], "ENDTRNS"))
}

func TestWriteBillsAccountOverrides(t *testing.T) {
	var sb strings.Builder
	accounts := Accounts{AccountsPayable: "AP:Trade", InventoryAsset: "Stock"}
	require.NoError(t, WriteBills(&sb, []ledger.Bill{sampleBill()}, accounts))

	assert.Contains(t, sb.String(), "AP:Trade")
	assert.Contains(t, sb.String(), "Stock")
	assert.NotContains(t, sb.String(), "Accounts Payable")
}

func TestWriteBillsSanitizesFields(t *testing.T) {
	bill := sampleBill()
	bill.Vendor = "Acme\tCorp\n\"Ltd\""

	var sb strings.Builder
	require.NoError(t, WriteBills(&sb, []ledger.Bill{bill}, Accounts{}))

	trns := strings.Split(strings.Split(sb.String(), "\r\n")[3], "\t")
	assert.Equal(t, "Acme Corp Ltd", trns[5])
}

func TestWriteItems(t *testing.T) {
	items := []ledger.InventoryItem{
		{ItemName: "Widget", Description: "Blue widget", AverageUnitCost: dec("3.3333")},
	}

	var sb strings.Builder
	require.NoError(t, WriteItems(&sb, items, Accounts{}))

	lines := strings.Split(sb.String(), "\r\n")
	require.Len(t, lines, 3)

	header := strings.Split(lines[0], "\t")
	assert.Equal(t, "!INVITEM", header[0])

	row := strings.Split(lines[1], "\t")
	assert.Equal(t, "INVITEM", row[0])
	assert.Equal(t, "Widget", row[1])
	assert.Equal(t, "PART", row[2])
	assert.Equal(t, "3.33", row[4])
	assert.Equal(t, "Sales", row[5])
	assert.Equal(t, "Inventory Asset", row[6])
	assert.Equal(t, "Cost of Goods Sold", row[7])
}
