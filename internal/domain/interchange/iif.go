// Package interchange renders ledger records into the fixed tab-delimited
// IIF accounting interchange format. The layout is consumed literally by
// external bookkeeping software: tab-separated fields, CRLF line endings,
// a header block declaring the transaction and split column layouts, then
// one TRNS/SPL.../ENDTRNS group per bill.
package interchange

import (
	"fmt"
	"io"
	"strings"

	"github.com/finvern/ledgerbridge/internal/domain/ledger"
)

// Accounts carries the account labels written into interchange files.
// Zero-value fields fall back to the fixed default labels.
type Accounts struct {
	AccountsPayable string
	InventoryAsset  string
	CostOfGoodsSold string
	Income          string
}

// DefaultAccounts are the fixed labels used when no override configuration
// exists.
func DefaultAccounts() Accounts {
	return Accounts{
		AccountsPayable: "Accounts Payable",
		InventoryAsset:  "Inventory Asset",
		CostOfGoodsSold: "Cost of Goods Sold",
		Income:          "Sales",
	}
}

func (a Accounts) withDefaults() Accounts {
	d := DefaultAccounts()
	if a.AccountsPayable == "" {
		a.AccountsPayable = d.AccountsPayable
	}
	if a.InventoryAsset == "" {
		a.InventoryAsset = d.InventoryAsset
	}
	if a.CostOfGoodsSold == "" {
		a.CostOfGoodsSold = d.CostOfGoodsSold
	}
	if a.Income == "" {
		a.Income = d.Income
	}
	return a
}

const crlf = "\r\n"

var (
	trnsHeader = []string{"!TRNS", "TRNSID", "TRNSTYPE", "DATE", "ACCNT", "NAME", "AMOUNT", "DOCNUM", "DUEDATE", "TERMS", "CLEAR", "TOPRINT", "MEMO"}
	splHeader  = []string{"!SPL", "SPLID", "TRNSTYPE", "DATE", "ACCNT", "NAME", "AMOUNT", "DOCNUM", "MEMO", "CLEAR", "QNTY", "PRICE", "INVITEM"}
	itemHeader = []string{"!INVITEM", "NAME", "INVITEMTYPE", "DESC", "PURCHASECOST", "ACCNT", "ASSETACCNT", "COGSACCNT"}
)

// WriteBills renders the selected bills as BILL transactions: a negative
// total on the payable account, one positive split per line item on the
// inventory asset account, and a closing marker per bill.
func WriteBills(w io.Writer, bills []ledger.Bill, accounts Accounts) error {
	accounts = accounts.withDefaults()

	if err := writeLine(w, trnsHeader); err != nil {
		return err
	}
	if err := writeLine(w, splHeader); err != nil {
		return err
	}
	if err := writeLine(w, pad("!ENDTRNS", len(trnsHeader))); err != nil {
		return err
	}

	for _, bill := range bills {
		trns := []string{
			"TRNS",
			"",
			"BILL",
			bill.Date,
			accounts.AccountsPayable,
			sanitizeField(bill.Vendor),
			bill.TotalAmount.Neg().StringFixed(2),
			sanitizeField(bill.RefNumber),
			bill.DueDate,
			sanitizeField(bill.Terms),
			"N",
			"Y",
			"",
		}
		if err := writeLine(w, trns); err != nil {
			return err
		}

		for _, line := range bill.Lines {
			memo := line.Description
			if memo == "" {
				memo = line.ItemName
			}
			spl := []string{
				"SPL",
				"",
				"BILL",
				bill.Date,
				accounts.InventoryAsset,
				"",
				line.LineAmount.StringFixed(2),
				"",
				sanitizeField(memo),
				"N",
				line.Quantity.String(),
				line.UnitCost.StringFixed(2),
				sanitizeField(line.ItemName),
			}
			if err := writeLine(w, spl); err != nil {
				return err
			}
		}

		if err := writeLine(w, pad("ENDTRNS", len(trnsHeader))); err != nil {
			return err
		}
	}
	return nil
}

// WriteItems renders the inventory catalog: one PART line per item carrying
// its weighted-average cost and the configured account labels.
func WriteItems(w io.Writer, items []ledger.InventoryItem, accounts Accounts) error {
	accounts = accounts.withDefaults()

	if err := writeLine(w, itemHeader); err != nil {
		return err
	}
	for _, item := range items {
		row := []string{
			"INVITEM",
			sanitizeField(item.ItemName),
			"PART",
			sanitizeField(item.Description),
			item.AverageUnitCost.StringFixed(2),
			accounts.Income,
			accounts.InventoryAsset,
			accounts.CostOfGoodsSold,
		}
		if err := writeLine(w, row); err != nil {
			return err
		}
	}
	return nil
}

func writeLine(w io.Writer, fields []string) error {
	_, err := fmt.Fprint(w, strings.Join(fields, "\t")+crlf)
	return err
}

func pad(first string, width int) []string {
	fields := make([]string, width)
	fields[0] = first
	return fields
}

// sanitizeField keeps structural delimiters out of interchange fields: no
// raw tabs, newlines, or quotes survive serialization.
func sanitizeField(v string) string {
	replacer := strings.NewReplacer("\t", " ", "\r", " ", "\n", " ", "\"", "")
	return replacer.Replace(v)
}
