// Package classifier assigns a format tag to a parsed table by inspecting
// its header set and filename. Rules are evaluated in a fixed priority order
// because header sets can legitimately satisfy multiple weaker heuristics;
// the first match wins.
package classifier

import (
	"fmt"
	"strings"

	"github.com/finvern/ledgerbridge/internal/domain/ledger"
)

// Synonym groups are fixed closed lists. Matching is case-insensitive and
// whitespace-trimmed; inner whitespace runs collapse to one space.
var (
	PoIDColumns      = []string{"po_id", "po id"}
	VendorColumns    = []string{"vendor", "supplier", "vendor name"}
	ReferenceColumns = []string{"refnumber", "ref number", "reference", "ref no", "ref", "po number", "po_number"}
	ItemColumns      = []string{"item", "item name", "product", "sku"}
	QuantityColumns  = []string{"qty", "quantity"}
	CostColumns      = []string{"cost", "unit cost", "unit price", "rate"}
	DateColumns      = []string{"date", "txndate", "transaction date", "po date", "docdate", "podate", "posting date", "effective date"}
	AmountColumns    = []string{"amount", "total", "total amount", "net amount"}
	CreditColumns    = []string{"credit", "cr amount", "credit amount"}
	DebitColumns     = []string{"debit", "dr amount", "debit amount"}
	MemoColumns      = []string{"description", "memo", "narrative", "details", "transfer description"}
	InvoiceIDColumns = []string{"invoice number", "invoice no", "invoice #", "invoice id", "invoicenumber", "invoice_number", "invoice_id"}
	CustomerColumns  = []string{"customer", "client", "customer name", "client name", "account name"}
	TermsColumns     = []string{"terms", "payment terms"}
	LineTotalColumns = []string{"line total", "line amount", "line_total"}
	ExternalIDCols   = []string{"id", "external id", "row id"}
	DescriptionCols  = []string{"description", "desc", "memo"}

	stripeIDColumns  = []string{"balance_transaction_id", "balance transaction id", "type"}
	stripeAmountCols = []string{"amount", "net"}
)

// UnknownFormatError reports a table that failed every classification rule,
// carrying the normalized headers so the caller can show what was seen.
type UnknownFormatError struct {
	Headers []string
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("unrecognized file format: no rule matched headers [%s]", strings.Join(e.Headers, ", "))
}

// HeaderSet is the normalized header universe a table presents.
type HeaderSet map[string]struct{}

// NewHeaderSet normalizes raw headers for rule evaluation.
func NewHeaderSet(headers []string) HeaderSet {
	set := make(HeaderSet, len(headers))
	for _, h := range headers {
		set[Normalize(h)] = struct{}{}
	}
	return set
}

// Normalize lowercases, trims, and collapses whitespace in a header.
func Normalize(h string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(h))), " ")
}

// HasAny reports whether any synonym in the group is present.
func (s HeaderSet) HasAny(group []string) bool {
	for _, name := range group {
		if _, ok := s[name]; ok {
			return true
		}
	}
	return false
}

func headerList(headers []string) []string {
	out := make([]string, 0, len(headers))
	for _, h := range headers {
		out = append(out, Normalize(h))
	}
	return out
}

type rule struct {
	tag   string
	match func(s HeaderSet, filename string) bool
}

// rules is the ordered classification chain. Order matters: po_id is the
// highest-confidence signal, bank batches carry very specific headers, and
// the generic bank rule would otherwise swallow PO and invoice sheets.
var rules = []rule{
	{ledger.FormatPoBills, func(s HeaderSet, _ string) bool {
		return s.HasAny(PoIDColumns)
	}},
	{ledger.FormatBankBatch, func(s HeaderSet, _ string) bool {
		return s.HasAny([]string{"batch number"}) &&
			s.HasAny([]string{"transfer description"}) &&
			s.HasAny([]string{"effective date"}) &&
			(s.HasAny([]string{"dr amount"}) || s.HasAny([]string{"cr amount"}))
	}},
	{ledger.FormatHaloInvoices, func(s HeaderSet, filename string) bool {
		if s.HasAny(InvoiceIDColumns) {
			return true
		}
		if s.HasAny(CustomerColumns) && s.HasAny(DateColumns) && s.HasAny(AmountColumns) {
			return true
		}
		return strings.Contains(strings.ToLower(filename), "invoice")
	}},
	{ledger.FormatStripeCSV, func(s HeaderSet, _ string) bool {
		return s.HasAny(stripeIDColumns) && s.HasAny(stripeAmountCols)
	}},
	{ledger.FormatPoBills, func(s HeaderSet, _ string) bool {
		return s.HasAny(VendorColumns) && s.HasAny(ReferenceColumns) &&
			s.HasAny(ItemColumns) && s.HasAny(QuantityColumns) && s.HasAny(CostColumns)
	}},
	{ledger.FormatBankGeneric, func(s HeaderSet, _ string) bool {
		hasAmount := s.HasAny(AmountColumns) || s.HasAny(CreditColumns) || s.HasAny(DebitColumns)
		return s.HasAny(DateColumns) && hasAmount && s.HasAny(MemoColumns)
	}},
}

// Classify returns the format tag for a header set plus filename, or an
// UnknownFormatError when no rule matches. There is no best-effort fallback.
func Classify(headers []string, filename string) (string, error) {
	set := NewHeaderSet(headers)
	for _, r := range rules {
		if r.match(set, filename) {
			return r.tag, nil
		}
	}
	return ledger.FormatUnknown, &UnknownFormatError{Headers: headerList(headers)}
}
