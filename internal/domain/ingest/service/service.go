// Package service orchestrates the ingest pipeline: checksum gate, parse,
// classify, normalize, and one atomic import per file, with provenance
// recorded before any normalization runs.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/finvern/ledgerbridge/internal/domain/ingest/classifier"
	"github.com/finvern/ledgerbridge/internal/domain/ingest/normalizer"
	"github.com/finvern/ledgerbridge/internal/domain/ingest/parser"
	"github.com/finvern/ledgerbridge/internal/domain/ledger"
	"github.com/finvern/ledgerbridge/internal/domain/ledger/repository"
	"github.com/finvern/ledgerbridge/internal/pkg/checksum"
	"github.com/finvern/ledgerbridge/pkg/money"
)

// ErrUnsupportedFormat marks files the classifier recognizes but the
// pipeline deliberately does not import.
var ErrUnsupportedFormat = errors.New("recognized but unsupported file format")

// rowSampleSize is how many raw rows are kept on the import batch record.
const rowSampleSize = 5

// Store is the persistence surface the ingest service needs.
type Store interface {
	FindBatchByChecksum(ctx context.Context, sum string) (*ledger.ImportBatch, error)
	CreateImportBatch(ctx context.Context, b *ledger.ImportBatch) error
	SetBatchFormat(ctx context.Context, batchID uuid.UUID, format string) error
	ImportBills(ctx context.Context, batch *ledger.ImportBatch, sourceName string, bills []ledger.Bill, raws []ledger.RawImportRecord) (*repository.ImportStats, error)
	ImportInvoices(ctx context.Context, batch *ledger.ImportBatch, sourceName string, invoices []ledger.Invoice, raws []ledger.RawImportRecord) (*repository.ImportStats, error)
	ImportBankTransactions(ctx context.Context, batch *ledger.ImportBatch, sourceName string, txns []ledger.BankTransaction, raws []ledger.RawImportRecord) (*repository.ImportStats, error)
	ProjectLedgerTransactions(ctx context.Context, entries []ledger.LedgerTransaction) error
}

// IngestRequest is one uploaded file.
type IngestRequest struct {
	Filename    string
	ContentType string
	Data        []byte
	// SourceName overrides the per-format default source identity.
	SourceName string
	// Currency tags the file's projected transactions. Unknown or empty
	// codes fall back to the default currency.
	Currency string
}

// IngestResult reports what one ingest call did.
type IngestResult struct {
	BatchID uuid.UUID
	Format  string
	// Duplicate is true when the exact file bytes were seen before. No
	// parsing or writing happens for duplicates.
	Duplicate bool
	// PriorProcessed reports whether the earlier identical file completed
	// its import, so callers can distinguish a replay from a retry.
	PriorProcessed bool
	RowCount       int
	Stats          repository.ImportStats
}

// Service is the ingest orchestrator.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates an ingest service.
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Ingest runs the full pipeline for one file. The import batch is recorded
// before normalization, so even failed files leave an audit trail; all
// ledger writes for the file commit in a single transaction.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	sum := checksum.File(req.Data)

	prior, err := s.store.FindBatchByChecksum(ctx, sum)
	if err != nil {
		return nil, err
	}
	if prior != nil {
		ingestedFiles.WithLabelValues(prior.Format, outcomeDuplicate).Inc()
		s.logger.InfoContext(ctx, "duplicate file skipped",
			"filename", req.Filename, "batch_id", prior.ID, "prior_processed", prior.Processed)
		return &IngestResult{
			BatchID:        prior.ID,
			Format:         prior.Format,
			Duplicate:      true,
			PriorProcessed: prior.Processed,
			RowCount:       prior.RowCount,
		}, nil
	}

	table, err := parser.Parse(req.Filename, req.Data)
	if err != nil {
		ingestedFiles.WithLabelValues(ledger.FormatUnknown, outcomeInvalid).Inc()
		return nil, fmt.Errorf("failed to parse %s: %w", req.Filename, err)
	}

	batch := &ledger.ImportBatch{
		FileName:    req.Filename,
		ContentType: req.ContentType,
		Checksum:    sum,
		Format:      ledger.FormatUnknown,
		RowCount:    table.RowCount(),
		Headers:     table.Headers,
		RowSample:   table.Sample(rowSampleSize),
	}
	if err := s.store.CreateImportBatch(ctx, batch); err != nil {
		return nil, err
	}

	format, err := classifier.Classify(table.Headers, req.Filename)
	if err != nil {
		ingestedFiles.WithLabelValues(ledger.FormatUnknown, outcomeUnknown).Inc()
		return nil, err
	}
	if err := s.store.SetBatchFormat(ctx, batch.ID, format); err != nil {
		return nil, err
	}
	batch.Format = format

	result := &IngestResult{BatchID: batch.ID, Format: format, RowCount: table.RowCount()}

	switch format {
	case ledger.FormatPoBills:
		err = s.importBills(ctx, req, batch, table, result)
	case ledger.FormatHaloInvoices:
		err = s.importInvoices(ctx, req, batch, table, result)
	case ledger.FormatBankBatch, ledger.FormatBankGeneric:
		err = s.importBank(ctx, req, batch, table, result)
	case ledger.FormatStripeCSV:
		ingestedFiles.WithLabelValues(format, outcomeUnsupported).Inc()
		return nil, fmt.Errorf("%s: %w", format, ErrUnsupportedFormat)
	default:
		return nil, fmt.Errorf("%s: %w", format, ErrUnsupportedFormat)
	}
	if err != nil {
		var verr *normalizer.ValidationError
		if errors.As(err, &verr) {
			ingestedFiles.WithLabelValues(format, outcomeInvalid).Inc()
		} else {
			ingestedFiles.WithLabelValues(format, outcomeError).Inc()
		}
		return nil, err
	}

	ingestedFiles.WithLabelValues(format, outcomeProcessed).Inc()
	ingestedRows.WithLabelValues(format).Add(float64(table.RowCount()))
	s.logger.InfoContext(ctx, "file processed",
		"filename", req.Filename, "batch_id", batch.ID, "format", format, "rows", table.RowCount())
	return result, nil
}

func (s *Service) importBills(ctx context.Context, req IngestRequest, batch *ledger.ImportBatch, table *parser.Table, result *IngestResult) error {
	bills, err := normalizer.NormalizeBills(table)
	if err != nil {
		return err
	}
	stats, err := s.store.ImportBills(ctx, batch, sourceName(req, batch.Format), bills, rawRecords(table))
	if err != nil {
		return err
	}
	result.Stats = *stats
	return nil
}

func (s *Service) importInvoices(ctx context.Context, req IngestRequest, batch *ledger.ImportBatch, table *parser.Table, result *IngestResult) error {
	invoices, err := normalizer.NormalizeInvoices(table)
	if err != nil {
		return err
	}
	stats, err := s.store.ImportInvoices(ctx, batch, sourceName(req, batch.Format), invoices, rawRecords(table))
	if err != nil {
		return err
	}
	result.Stats = *stats

	currency := money.NormalizeCurrency(req.Currency)
	entries := make([]ledger.LedgerTransaction, 0, len(invoices))
	for i := range invoices {
		entries = append(entries, ledger.LedgerTransaction{
			TxnType:      "invoice",
			Date:         invoices[i].Date,
			Amount:       invoices[i].Total,
			Currency:     currency,
			Description:  "Invoice " + invoices[i].Number,
			Counterparty: invoices[i].CustomerName,
			EntityID:     invoices[i].ID,
		})
	}
	s.project(ctx, entries)
	return nil
}

func (s *Service) importBank(ctx context.Context, req IngestRequest, batch *ledger.ImportBatch, table *parser.Table, result *IngestResult) error {
	var (
		txns []ledger.BankTransaction
		err  error
	)
	if batch.Format == ledger.FormatBankBatch {
		txns, err = normalizer.NormalizeBankBatch(table)
	} else {
		txns, err = normalizer.NormalizeBankGeneric(table)
	}
	if err != nil {
		return err
	}
	stats, err := s.store.ImportBankTransactions(ctx, batch, sourceName(req, batch.Format), txns, rawRecords(table))
	if err != nil {
		return err
	}
	result.Stats = *stats

	currency := money.NormalizeCurrency(req.Currency)
	var entries []ledger.LedgerTransaction
	for i := range txns {
		if txns[i].ID == uuid.Nil {
			continue
		}
		entries = append(entries, ledger.LedgerTransaction{
			TxnType:     "bank_txn",
			Date:        txns[i].Date,
			Amount:      txns[i].Amount,
			Currency:    currency,
			Description: txns[i].Description,
			EntityID:    txns[i].ID,
		})
	}
	s.project(ctx, entries)
	return nil
}

// project writes the unified transaction view after the primary commit. A
// projection failure is logged and swallowed; the imported rows stand.
func (s *Service) project(ctx context.Context, entries []ledger.LedgerTransaction) {
	if len(entries) == 0 {
		return
	}
	if err := s.store.ProjectLedgerTransactions(ctx, entries); err != nil {
		s.logger.WarnContext(ctx, "ledger projection failed", "error", err, "entries", len(entries))
	}
}

// rawRecords converts parsed rows into provenance records.
func rawRecords(table *parser.Table) []ledger.RawImportRecord {
	records := make([]ledger.RawImportRecord, 0, len(table.Records))
	for i, record := range table.Records {
		records = append(records, ledger.RawImportRecord{
			Checksum: checksum.Record(table.Headers, record),
			Payload:  rowPayload(table, i),
		})
	}
	return records
}

func rowPayload(table *parser.Table, i int) map[string]string {
	if i < len(table.RawRows) {
		return table.RawRows[i]
	}
	payload := make(map[string]string, len(table.Headers))
	for j, h := range table.Headers {
		if j < len(table.Records[i]) {
			payload[h] = table.Records[i][j]
		}
	}
	return payload
}

// sourceName picks the source identity for a file: an explicit override
// wins, otherwise each format maps to its originating system.
func sourceName(req IngestRequest, format string) string {
	if req.SourceName != "" {
		return req.SourceName
	}
	switch format {
	case ledger.FormatPoBills:
		return "po_import"
	case ledger.FormatHaloInvoices:
		return "halo_psa"
	case ledger.FormatBankBatch, ledger.FormatBankGeneric:
		return "bank_feed"
	default:
		return "file_upload"
	}
}
