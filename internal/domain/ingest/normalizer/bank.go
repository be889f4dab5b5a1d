package normalizer

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/finvern/ledgerbridge/internal/domain/ingest/classifier"
	"github.com/finvern/ledgerbridge/internal/domain/ingest/parser"
	"github.com/finvern/ledgerbridge/internal/domain/ledger"
	"github.com/finvern/ledgerbridge/internal/pkg/checksum"
	"github.com/finvern/ledgerbridge/pkg/money"
)

var (
	batchNumberCols   = []string{"batch number", "batch no", "batch_number"}
	transferDescCols  = []string{"transfer description"}
	effectiveDateCols = []string{"effective date", "effective_date"}
	drAmountCols      = []string{"dr amount", "dr_amount", "debit amount"}
	crAmountCols      = []string{"cr amount", "cr_amount", "credit amount"}
)

type bankBatchColumns struct {
	batch     int
	desc      int
	date      int
	dr        int
	cr        int
	reference int
}

// NormalizeBankBatch splits settlement batch rows into transactions. A row
// can yield zero, one, or two transactions: a positive credit amount and a
// positive debit amount are independent sides. Debits are stored negative;
// synthetic external ids are suffixed "-CR"/"-DR" so the two sides of one
// row never collide on the uniqueness constraint.
func NormalizeBankBatch(t *parser.Table) ([]ledger.BankTransaction, error) {
	cols := bankBatchColumns{
		batch:     resolveColumn(t.Headers, batchNumberCols),
		desc:      resolveColumn(t.Headers, transferDescCols),
		date:      resolveColumn(t.Headers, effectiveDateCols),
		dr:        resolveColumn(t.Headers, drAmountCols),
		cr:        resolveColumn(t.Headers, crAmountCols),
		reference: resolveColumn(t.Headers, classifier.ReferenceColumns),
	}

	var missing []string
	if cols.date < 0 {
		missing = append(missing, "effective date")
	}
	if cols.dr < 0 && cols.cr < 0 {
		missing = append(missing, "dr amount/cr amount")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Format: ledger.FormatBankBatch, MissingRoles: missing}
	}

	var txns []ledger.BankTransaction
	for _, record := range t.Records {
		rowSum := checksum.Record(t.Headers, record)

		ref := cell(record, cols.reference)
		if ref == "" {
			ref = cell(record, cols.batch)
		}
		if ref == "" {
			ref = rowSum[:16]
		}

		base := ledger.BankTransaction{
			Date:        parser.CanonicalDate(rawCell(record, cols.date)),
			Description: cell(record, cols.desc),
			BatchNumber: cell(record, cols.batch),
			Checksum:    rowSum,
		}

		if cr, ok := money.ParseLoose(rawCell(record, cols.cr)); ok && cr.IsPositive() {
			txn := base
			txn.ExternalID = ref + "-CR"
			txn.Amount = money.Round2(cr)
			txn.Checksum = rowSum + "-CR"
			txns = append(txns, txn)
		}
		if dr, ok := money.ParseLoose(rawCell(record, cols.dr)); ok && dr.IsPositive() {
			txn := base
			txn.ExternalID = ref + "-DR"
			txn.Amount = money.Round2(dr.Neg())
			txn.Checksum = rowSum + "-DR"
			txns = append(txns, txn)
		}
	}
	return txns, nil
}

type bankGenericColumns struct {
	date     int
	memo     int
	amount   int
	credit   int
	debit    int
	external int
}

// NormalizeBankGeneric produces one transaction per row. The amount resolves
// from Amount, else Credit, else negated Debit. Rows resolving to exactly
// zero are dropped (common filler in bank exports); rows whose populated
// amount cells are all unparsable are skipped outright.
func NormalizeBankGeneric(t *parser.Table) ([]ledger.BankTransaction, error) {
	cols := bankGenericColumns{
		date:     resolveColumn(t.Headers, classifier.DateColumns),
		memo:     resolveColumn(t.Headers, classifier.MemoColumns),
		amount:   resolveColumn(t.Headers, classifier.AmountColumns),
		credit:   resolveColumn(t.Headers, classifier.CreditColumns),
		debit:    resolveColumn(t.Headers, classifier.DebitColumns),
		external: resolveColumn(t.Headers, classifier.ExternalIDCols),
	}

	var missing []string
	if cols.date < 0 {
		missing = append(missing, "date")
	}
	if cols.amount < 0 && cols.credit < 0 && cols.debit < 0 {
		missing = append(missing, "amount/credit/debit")
	}
	if cols.memo < 0 {
		missing = append(missing, "description/memo")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Format: ledger.FormatBankGeneric, MissingRoles: missing}
	}

	var txns []ledger.BankTransaction
	for _, record := range t.Records {
		amount, resolved := resolveGenericAmount(record, cols)
		if !resolved || amount.IsZero() {
			continue
		}

		rowSum := checksum.Record(t.Headers, record)
		externalID := cell(record, cols.external)
		if externalID == "" {
			externalID = "chk-" + rowSum[:16]
		}

		txns = append(txns, ledger.BankTransaction{
			ExternalID:  externalID,
			Date:        parser.CanonicalDate(rawCell(record, cols.date)),
			Description: cell(record, cols.memo),
			Amount:      money.Round2(amount),
			Checksum:    rowSum,
		})
	}
	return txns, nil
}

// resolveGenericAmount walks Amount → Credit → Debit. The first populated
// cell decides: parsable values resolve the row, unparsable ones skip it.
func resolveGenericAmount(record []string, cols bankGenericColumns) (decimal.Decimal, bool) {
	if raw := strings.TrimSpace(rawCell(record, cols.amount)); raw != "" {
		if d, ok := money.ParseLoose(raw); ok {
			return d, true
		}
		return decimal.Zero, false
	}
	if raw := strings.TrimSpace(rawCell(record, cols.credit)); raw != "" {
		if d, ok := money.ParseLoose(raw); ok {
			return d.Abs(), true
		}
		return decimal.Zero, false
	}
	if raw := strings.TrimSpace(rawCell(record, cols.debit)); raw != "" {
		if d, ok := money.ParseLoose(raw); ok {
			return d.Abs().Neg(), true
		}
		return decimal.Zero, false
	}
	return decimal.Zero, false
}
