package normalizer

import (
	"github.com/finvern/ledgerbridge/internal/domain/ingest/classifier"
	"github.com/finvern/ledgerbridge/internal/domain/ingest/parser"
	"github.com/finvern/ledgerbridge/internal/domain/ledger"
	"github.com/finvern/ledgerbridge/internal/pkg/checksum"
	"github.com/finvern/ledgerbridge/pkg/money"
	"github.com/shopspring/decimal"
)

// billColumns is resolved once per file before any row is touched.
type billColumns struct {
	vendor    int
	reference int
	item      int
	quantity  int
	cost      int
	date      int
	desc      int
	terms     int
}

func resolveBillColumns(headers []string) (billColumns, *ValidationError) {
	cols := billColumns{
		vendor:    resolveColumn(headers, classifier.VendorColumns),
		reference: resolveColumn(headers, classifier.ReferenceColumns),
		item:      resolveColumn(headers, classifier.ItemColumns),
		quantity:  resolveColumn(headers, classifier.QuantityColumns),
		cost:      resolveColumn(headers, classifier.CostColumns),
		date:      resolveColumn(headers, classifier.DateColumns),
		desc:      resolveColumn(headers, classifier.DescriptionCols),
		terms:     resolveColumn(headers, classifier.TermsColumns),
	}

	var missing []string
	for _, role := range []struct {
		name string
		idx  int
	}{
		{"vendor", cols.vendor},
		{"reference", cols.reference},
		{"item", cols.item},
		{"quantity", cols.quantity},
		{"cost", cols.cost},
	} {
		if role.idx < 0 {
			missing = append(missing, role.name)
		}
	}
	if len(missing) > 0 {
		return cols, &ValidationError{Format: ledger.FormatPoBills, MissingRoles: missing}
	}
	return cols, nil
}

type billKey struct {
	vendor string
	ref    string
	date   string
}

// NormalizeBills groups PO-style rows into bills keyed by
// (vendor, reference, canonical date). Rows missing vendor or reference are
// silently dropped; a file that leaves zero groups is a validation error.
func NormalizeBills(t *parser.Table) ([]ledger.Bill, error) {
	cols, verr := resolveBillColumns(t.Headers)
	if verr != nil {
		return nil, verr
	}

	var order []billKey
	groups := make(map[billKey][][]string)
	for _, record := range t.Records {
		vendor := cell(record, cols.vendor)
		ref := cell(record, cols.reference)
		if vendor == "" || ref == "" {
			continue
		}
		key := billKey{vendor: vendor, ref: ref, date: parser.CanonicalDate(rawCell(record, cols.date))}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], record)
	}
	if len(order) == 0 {
		return nil, &ValidationError{Format: ledger.FormatPoBills, Reason: "no rows with both vendor and reference"}
	}

	bills := make([]ledger.Bill, 0, len(order))
	for _, key := range order {
		records := groups[key]

		terms := DefaultTerms
		for _, record := range records {
			if v := cell(record, cols.terms); v != "" {
				terms = v
				break
			}
		}

		bill := ledger.Bill{
			Vendor:    key.vendor,
			RefNumber: key.ref,
			Date:      key.date,
			Terms:     terms,
			DueDate:   DueDate(terms, key.date),
		}

		total := decimal.Zero
		for _, record := range records {
			qty := parseNumeric(rawCell(record, cols.quantity))
			cost := parseNumeric(rawCell(record, cols.cost))
			lineAmount := money.Round2(qty.Mul(cost))
			total = total.Add(lineAmount)

			bill.Lines = append(bill.Lines, ledger.LineItem{
				ItemName:    cell(record, cols.item),
				Description: cell(record, cols.desc),
				Quantity:    qty,
				UnitCost:    cost,
				LineAmount:  lineAmount,
				Checksum:    checksum.Record(t.Headers, record),
			})
		}
		bill.TotalAmount = money.Round2(total)
		bills = append(bills, bill)
	}
	return bills, nil
}
