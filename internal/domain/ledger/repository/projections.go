package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/finvern/ledgerbridge/internal/domain/ledger"
)

// ProjectLedgerTransactions writes the source-agnostic transaction view.
// Callers run this after the primary commit and treat failures as
// non-fatal; each entry is insert-once on (txn_type, entity_id).
func (r *Repository) ProjectLedgerTransactions(ctx context.Context, entries []ledger.LedgerTransaction) error {
	for i := range entries {
		payload, err := json.Marshal(entries[i].RawPayload)
		if err != nil {
			return fmt.Errorf("failed to encode projection payload: %w", err)
		}
		_, err = r.db.Exec(ctx,
			`INSERT INTO ledger_transactions (id, txn_type, txn_date, amount, currency, description, counterparty, raw_payload, entity_id)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (txn_type, entity_id) DO NOTHING`,
			uuid.New(), entries[i].TxnType, entries[i].Date, entries[i].Amount,
			entries[i].Currency, entries[i].Description, entries[i].Counterparty,
			payload, entries[i].EntityID)
		if err != nil {
			return fmt.Errorf("failed to project %s transaction: %w", entries[i].TxnType, err)
		}
	}
	return nil
}

// RecordExport appends one interchange-generation event to the export
// history. Callers treat a failure here as non-fatal: the export file has
// already been produced.
func (r *Repository) RecordExport(ctx context.Context, e *ledger.Export) error {
	e.ID = uuid.New()
	err := r.db.QueryRow(ctx,
		`INSERT INTO exports (id, kind, transaction_ids, total_amount)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		e.ID, e.Kind, e.TransactionIDs, e.TotalAmount).Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record export: %w", err)
	}
	return nil
}
