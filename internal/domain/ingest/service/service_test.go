package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finvern/ledgerbridge/internal/domain/ingest/classifier"
	"github.com/finvern/ledgerbridge/internal/domain/ledger"
	"github.com/finvern/ledgerbridge/internal/domain/ledger/repository"
)

type fakeStore struct {
	priorBatch *ledger.ImportBatch

	createdBatch  *ledger.ImportBatch
	setFormat     string
	billsSource   string
	bills         []ledger.Bill
	invoices      []ledger.Invoice
	bankTxns      []ledger.BankTransaction
	raws          []ledger.RawImportRecord
	projected     []ledger.LedgerTransaction
	projectionErr error
}

func (f *fakeStore) FindBatchByChecksum(_ context.Context, _ string) (*ledger.ImportBatch, error) {
	return f.priorBatch, nil
}

func (f *fakeStore) CreateImportBatch(_ context.Context, b *ledger.ImportBatch) error {
	b.ID = uuid.New()
	f.createdBatch = b
	return nil
}

func (f *fakeStore) SetBatchFormat(_ context.Context, _ uuid.UUID, format string) error {
	f.setFormat = format
	return nil
}

func (f *fakeStore) ImportBills(_ context.Context, _ *ledger.ImportBatch, sourceName string, bills []ledger.Bill, raws []ledger.RawImportRecord) (*repository.ImportStats, error) {
	f.billsSource = sourceName
	f.bills = bills
	f.raws = raws
	return &repository.ImportStats{BillsCreated: len(bills)}, nil
}

func (f *fakeStore) ImportInvoices(_ context.Context, _ *ledger.ImportBatch, _ string, invoices []ledger.Invoice, raws []ledger.RawImportRecord) (*repository.ImportStats, error) {
	for i := range invoices {
		invoices[i].ID = uuid.New()
	}
	f.invoices = invoices
	f.raws = raws
	return &repository.ImportStats{InvoicesUpserted: len(invoices)}, nil
}

func (f *fakeStore) ImportBankTransactions(_ context.Context, _ *ledger.ImportBatch, _ string, txns []ledger.BankTransaction, raws []ledger.RawImportRecord) (*repository.ImportStats, error) {
	for i := range txns {
		txns[i].ID = uuid.New()
	}
	f.bankTxns = txns
	f.raws = raws
	return &repository.ImportStats{BankCreated: len(txns)}, nil
}

func (f *fakeStore) ProjectLedgerTransactions(_ context.Context, entries []ledger.LedgerTransaction) error {
	if f.projectionErr != nil {
		return f.projectionErr
	}
	f.projected = append(f.projected, entries...)
	return nil
}

func newTestService(store *fakeStore) *Service {
	return NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestIngestDuplicateFileShortCircuits(t *testing.T) {
	prior := &ledger.ImportBatch{
		ID:        uuid.New(),
		Format:    ledger.FormatPoBills,
		Processed: true,
		RowCount:  4,
	}
	store := &fakeStore{priorBatch: prior}
	svc := newTestService(store)

	result, err := svc.Ingest(context.Background(), IngestRequest{
		Filename: "po.csv",
		Data:     []byte("Vendor,RefNumber,Item,Qty,Cost\nAcme,PO-1,Widget,1,5\n"),
	})
	require.NoError(t, err)

	assert.True(t, result.Duplicate)
	assert.True(t, result.PriorProcessed)
	assert.Equal(t, prior.ID, result.BatchID)
	assert.Nil(t, store.createdBatch, "duplicates must not create a new batch")
}

func TestIngestPoBills(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store)

	result, err := svc.Ingest(context.Background(), IngestRequest{
		Filename: "po.csv",
		Data:     []byte("Vendor,RefNumber,Date,Item,Qty,Cost\nAcme,PO-1,03/15/2024,Widget,2,5.00\nAcme,PO-1,03/15/2024,Gadget,1,20.00\n"),
	})
	require.NoError(t, err)

	assert.Equal(t, ledger.FormatPoBills, result.Format)
	assert.Equal(t, 2, result.RowCount)
	assert.Equal(t, 1, result.Stats.BillsCreated)

	require.NotNil(t, store.createdBatch)
	assert.Equal(t, ledger.FormatUnknown, store.createdBatch.Format, "batch is recorded before classification")
	assert.Equal(t, ledger.FormatPoBills, store.setFormat)
	assert.Len(t, store.createdBatch.RowSample, 2)

	require.Len(t, store.bills, 1)
	assert.Equal(t, "Acme", store.bills[0].Vendor)
	require.Len(t, store.raws, 2)
	assert.NotEmpty(t, store.raws[0].Checksum)
	assert.Equal(t, "po_import", store.billsSource)
}

func TestIngestSourceOverride(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store)

	_, err := svc.Ingest(context.Background(), IngestRequest{
		Filename:   "po.csv",
		Data:       []byte("Vendor,RefNumber,Item,Qty,Cost\nAcme,PO-1,Widget,1,5\n"),
		SourceName: "quickbooks",
	})
	require.NoError(t, err)
	assert.Equal(t, "quickbooks", store.billsSource)
}

func TestIngestInvoicesProjects(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store)

	result, err := svc.Ingest(context.Background(), IngestRequest{
		Filename: "invoices.csv",
		Data:     []byte("Invoice Number,Customer,Date,Total\nINV-1,Initech,03/15/2024,12.30\n"),
	})
	require.NoError(t, err)

	assert.Equal(t, ledger.FormatHaloInvoices, result.Format)
	assert.Equal(t, 1, result.Stats.InvoicesUpserted)

	require.Len(t, store.projected, 1)
	assert.Equal(t, "invoice", store.projected[0].TxnType)
	assert.Equal(t, "Initech", store.projected[0].Counterparty)
	assert.Equal(t, store.invoices[0].ID, store.projected[0].EntityID)
}

func TestIngestProjectionCurrency(t *testing.T) {
	tests := []struct {
		name     string
		currency string
		want     string
	}{
		{name: "empty defaults", currency: "", want: "USD"},
		{name: "lowercase code normalized", currency: "eur", want: "EUR"},
		{name: "unknown code defaults", currency: "ZZZ", want: "USD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			svc := newTestService(store)

			_, err := svc.Ingest(context.Background(), IngestRequest{
				Filename: "invoices.csv",
				Data:     []byte("Invoice Number,Customer,Date,Total\nINV-1,Initech,03/15/2024,12.30\n"),
				Currency: tt.currency,
			})
			require.NoError(t, err)

			require.Len(t, store.projected, 1)
			assert.Equal(t, tt.want, store.projected[0].Currency)
		})
	}
}

func TestIngestProjectionFailureIsNonFatal(t *testing.T) {
	store := &fakeStore{projectionErr: errors.New("projection table gone")}
	svc := newTestService(store)

	_, err := svc.Ingest(context.Background(), IngestRequest{
		Filename: "invoices.csv",
		Data:     []byte("Invoice Number,Customer,Date,Total\nINV-1,Initech,03/15/2024,12.30\n"),
	})
	require.NoError(t, err)
}

func TestIngestBankGeneric(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store)

	result, err := svc.Ingest(context.Background(), IngestRequest{
		Filename: "bank.csv",
		Data:     []byte("Date,Description,Amount\n03/15/2024,Coffee,-4.50\n"),
	})
	require.NoError(t, err)

	assert.Equal(t, ledger.FormatBankGeneric, result.Format)
	require.Len(t, store.bankTxns, 1)
	require.Len(t, store.projected, 1)
	assert.Equal(t, "bank_txn", store.projected[0].TxnType)
}

func TestIngestStripeIsUnsupported(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store)

	_, err := svc.Ingest(context.Background(), IngestRequest{
		Filename: "stripe.csv",
		Data:     []byte("balance_transaction_id,net,type\ntxn_1,9.41,charge\n"),
	})

	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Equal(t, ledger.FormatStripeCSV, store.setFormat)
	assert.NotNil(t, store.createdBatch, "unsupported files still leave an audit trail")
}

func TestIngestUnknownFormat(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store)

	_, err := svc.Ingest(context.Background(), IngestRequest{
		Filename: "mystery.csv",
		Data:     []byte("Foo,Bar\n1,2\n"),
	})

	var unknownErr *classifier.UnknownFormatError
	require.ErrorAs(t, err, &unknownErr)
	require.NotNil(t, store.createdBatch)
	assert.Equal(t, ledger.FormatUnknown, store.createdBatch.Format)
}

func TestIngestEmptyFile(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store)

	_, err := svc.Ingest(context.Background(), IngestRequest{Filename: "empty.csv", Data: nil})

	require.Error(t, err)
	assert.Nil(t, store.createdBatch)
}
