package normalizer

import (
	"github.com/finvern/ledgerbridge/internal/domain/ingest/classifier"
	"github.com/finvern/ledgerbridge/internal/domain/ingest/parser"
	"github.com/finvern/ledgerbridge/internal/domain/ledger"
	"github.com/finvern/ledgerbridge/internal/pkg/checksum"
	"github.com/finvern/ledgerbridge/pkg/money"
)

// Invoice-specific synonym groups. Closed lists, same matching rules as the
// classifier groups.
var (
	invoiceDueDateCols  = []string{"due date", "duedate", "payment due"}
	invoiceSubtotalCols = []string{"subtotal", "sub total", "net"}
	invoiceTaxCols      = []string{"tax", "tax amount", "vat"}
	invoiceTotalCols    = []string{"total", "total amount", "invoice total", "amount", "gross"}
	invoicePriceCols    = []string{"price", "unit price", "rate", "cost", "unit cost"}
)

type invoiceColumns struct {
	number    int
	external  int
	customer  int
	date      int
	dueDate   int
	subtotal  int
	tax       int
	total     int
	item      int
	desc      int
	quantity  int
	price     int
	lineTotal int
}

func resolveInvoiceColumns(headers []string) invoiceColumns {
	return invoiceColumns{
		number:    resolveColumn(headers, classifier.InvoiceIDColumns),
		external:  resolveColumn(headers, classifier.ExternalIDCols),
		customer:  resolveColumn(headers, classifier.CustomerColumns),
		date:      resolveColumn(headers, classifier.DateColumns),
		dueDate:   resolveColumn(headers, invoiceDueDateCols),
		subtotal:  resolveColumn(headers, invoiceSubtotalCols),
		tax:       resolveColumn(headers, invoiceTaxCols),
		total:     resolveColumn(headers, invoiceTotalCols),
		item:      resolveColumn(headers, classifier.ItemColumns),
		desc:      resolveColumn(headers, classifier.DescriptionCols),
		quantity:  resolveColumn(headers, classifier.QuantityColumns),
		price:     resolveColumn(headers, invoicePriceCols),
		lineTotal: resolveColumn(headers, classifier.LineTotalColumns),
	}
}

// NormalizeInvoices groups rows by invoice number, falling back to the
// external id column, then to a row-content hash so unrelated unnumbered
// rows are never collapsed into one invoice. The head row of each group
// supplies invoice-level fields.
func NormalizeInvoices(t *parser.Table) ([]ledger.Invoice, error) {
	cols := resolveInvoiceColumns(t.Headers)

	var order []string
	groups := make(map[string][][]string)
	for _, record := range t.Records {
		key := cell(record, cols.number)
		if key == "" {
			key = cell(record, cols.external)
		}
		if key == "" {
			key = checksum.Record(t.Headers, record)
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], record)
	}
	if len(order) == 0 {
		return nil, &ValidationError{Format: ledger.FormatHaloInvoices, Reason: "no data rows"}
	}

	invoices := make([]ledger.Invoice, 0, len(order))
	for _, key := range order {
		records := groups[key]
		head := records[0]

		number := cell(head, cols.number)
		externalID := cell(head, cols.external)
		if externalID == "" {
			externalID = number
		}
		if externalID == "" {
			externalID = key
		}

		date := parser.CanonicalDate(rawCell(head, cols.date))
		dueDate := date
		if raw := rawCell(head, cols.dueDate); raw != "" {
			dueDate = parser.CanonicalDate(raw)
		}

		inv := ledger.Invoice{
			ExternalID:   externalID,
			Number:       number,
			CustomerName: cell(head, cols.customer),
			Date:         date,
			DueDate:      dueDate,
			Subtotal:     money.Round2(parseNumeric(rawCell(head, cols.subtotal))),
			Tax:          money.Round2(parseNumeric(rawCell(head, cols.tax))),
			Total:        money.Round2(parseNumeric(rawCell(head, cols.total))),
		}

		for _, record := range records {
			qty := parseNumeric(rawCell(record, cols.quantity))
			price := parseNumeric(rawCell(record, cols.price))

			lineTotal := money.Round2(qty.Mul(price))
			if raw := rawCell(record, cols.lineTotal); raw != "" {
				if explicit, ok := money.ParseLoose(raw); ok {
					lineTotal = money.Round2(explicit)
				}
			}

			inv.Lines = append(inv.Lines, ledger.InvoiceLine{
				ItemName:    cell(record, cols.item),
				Description: cell(record, cols.desc),
				Quantity:    qty,
				UnitPrice:   price,
				LineTotal:   lineTotal,
				Checksum:    checksum.Record(t.Headers, record),
			})
		}
		invoices = append(invoices, inv)
	}
	return invoices, nil
}
