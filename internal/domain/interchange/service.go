package interchange

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finvern/ledgerbridge/internal/domain/ledger"
)

// ErrNothingToExport is returned when an export selection matches no rows.
var ErrNothingToExport = errors.New("nothing to export")

// Store is the persistence surface the export service needs.
type Store interface {
	BillsByIDs(ctx context.Context, ids []uuid.UUID) ([]ledger.Bill, error)
	InventoryItems(ctx context.Context) ([]ledger.InventoryItem, error)
	RecordExport(ctx context.Context, e *ledger.Export) error
}

// Service generates interchange files and keeps the export history.
type Service struct {
	store    Store
	accounts Accounts
	logger   *slog.Logger
}

// NewService creates an export service with the given account labels.
func NewService(store Store, accounts Accounts, logger *slog.Logger) *Service {
	return &Service{store: store, accounts: accounts.withDefaults(), logger: logger}
}

// ExportBills writes the selected bills (all bills when ids is empty) as an
// interchange file and records the export event. The history write is
// best-effort: the file has already been produced when it runs.
func (s *Service) ExportBills(ctx context.Context, w io.Writer, ids []uuid.UUID) (*ledger.Export, error) {
	bills, err := s.store.BillsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(bills) == 0 {
		return nil, ErrNothingToExport
	}

	if err := WriteBills(w, bills, s.accounts); err != nil {
		return nil, err
	}

	export := &ledger.Export{Kind: "bills", TotalAmount: decimal.Zero}
	for i := range bills {
		export.TransactionIDs = append(export.TransactionIDs, bills[i].ID)
		export.TotalAmount = export.TotalAmount.Add(bills[i].TotalAmount)
	}
	s.record(ctx, export)

	s.logger.InfoContext(ctx, "bills exported",
		"count", len(bills), "total", export.TotalAmount.StringFixed(2))
	return export, nil
}

// ExportItems writes the full inventory catalog with weighted-average costs.
func (s *Service) ExportItems(ctx context.Context, w io.Writer) (*ledger.Export, error) {
	items, err := s.store.InventoryItems(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNothingToExport
	}

	if err := WriteItems(w, items, s.accounts); err != nil {
		return nil, err
	}

	export := &ledger.Export{Kind: "items", TotalAmount: decimal.Zero}
	for i := range items {
		export.TransactionIDs = append(export.TransactionIDs, items[i].ID)
		export.TotalAmount = export.TotalAmount.Add(items[i].TotalCost)
	}
	s.record(ctx, export)

	s.logger.InfoContext(ctx, "inventory exported", "count", len(items))
	return export, nil
}

func (s *Service) record(ctx context.Context, e *ledger.Export) {
	if err := s.store.RecordExport(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "failed to record export history", "error", err, "kind", e.Kind)
	}
}
