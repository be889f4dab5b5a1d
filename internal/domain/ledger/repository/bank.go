package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/finvern/ledgerbridge/internal/domain/ledger"
)

// ImportBankTransactions persists one normalized bank batch atomically.
// Transactions are insert-once on both (source, external id) and (source,
// row checksum); a conflicting row is counted as skipped, never rewritten.
func (r *Repository) ImportBankTransactions(ctx context.Context, batch *ledger.ImportBatch, sourceName string, txns []ledger.BankTransaction, raws []ledger.RawImportRecord) (*ImportStats, error) {
	stats := &ImportStats{}

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		sourceID, err := r.resolveSource(ctx, tx, sourceName, sourceTypeFileImport)
		if err != nil {
			return err
		}

		for i := range txns {
			t := &txns[i]
			t.ID = uuid.New()
			t.SourceID = sourceID

			tag, err := tx.Exec(ctx,
				`INSERT INTO bank_transactions (id, source_id, batch_id, external_id, txn_date, description, amount, batch_number, checksum)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				 ON CONFLICT DO NOTHING`,
				t.ID, sourceID, batch.ID, t.ExternalID, t.Date,
				t.Description, t.Amount, t.BatchNumber, t.Checksum)
			if err != nil {
				return fmt.Errorf("failed to insert bank transaction %s: %w", t.ExternalID, err)
			}
			if tag.RowsAffected() == 0 {
				// A zero id marks the transaction as pre-existing so the
				// caller never projects it twice.
				t.ID = uuid.Nil
				stats.BankSkipped++
				continue
			}
			stats.BankCreated++
		}

		if err := r.insertRawRecords(ctx, tx, batch.ID, raws); err != nil {
			return err
		}
		return r.markBatchProcessed(ctx, tx, batch.ID)
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
