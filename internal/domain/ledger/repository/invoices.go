package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/finvern/ledgerbridge/internal/domain/ledger"
)

// ImportInvoices persists one normalized invoice batch atomically. Invoices
// upsert on (source, external id); lines are replaced wholesale on every
// re-import so a corrected export fully supersedes the previous one.
func (r *Repository) ImportInvoices(ctx context.Context, batch *ledger.ImportBatch, sourceName string, invoices []ledger.Invoice, raws []ledger.RawImportRecord) (*ImportStats, error) {
	stats := &ImportStats{}

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		sourceID, err := r.resolveSource(ctx, tx, sourceName, sourceTypeFileImport)
		if err != nil {
			return err
		}

		for i := range invoices {
			inv := &invoices[i]
			inv.SourceID = sourceID

			if inv.CustomerName != "" {
				clientID, err := r.resolveClient(ctx, tx, sourceID, "", inv.CustomerName)
				if err != nil {
					return err
				}
				inv.ClientID = &clientID
			}

			err = tx.QueryRow(ctx,
				`INSERT INTO invoices (id, source_id, batch_id, external_id, number, customer_name, client_id, invoice_date, due_date, subtotal, tax, total)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
				 ON CONFLICT (source_id, external_id) DO UPDATE SET
				     batch_id      = EXCLUDED.batch_id,
				     number        = EXCLUDED.number,
				     customer_name = EXCLUDED.customer_name,
				     client_id     = EXCLUDED.client_id,
				     invoice_date  = EXCLUDED.invoice_date,
				     due_date      = EXCLUDED.due_date,
				     subtotal      = EXCLUDED.subtotal,
				     tax           = EXCLUDED.tax,
				     total         = EXCLUDED.total,
				     updated_at    = now()
				 RETURNING id`,
				uuid.New(), sourceID, batch.ID, inv.ExternalID, inv.Number,
				inv.CustomerName, inv.ClientID, inv.Date, inv.DueDate,
				inv.Subtotal, inv.Tax, inv.Total).Scan(&inv.ID)
			if err != nil {
				return fmt.Errorf("failed to upsert invoice %s: %w", inv.ExternalID, err)
			}
			stats.InvoicesUpserted++

			if _, err := tx.Exec(ctx,
				`DELETE FROM invoice_lines WHERE invoice_id = $1`, inv.ID); err != nil {
				return fmt.Errorf("failed to clear lines for invoice %s: %w", inv.ExternalID, err)
			}

			for j := range inv.Lines {
				line := &inv.Lines[j]
				line.ID = uuid.New()
				line.InvoiceID = inv.ID

				if line.ItemName != "" {
					itemID, err := r.resolveCatalogItem(ctx, tx, sourceID, "", line.ItemName, line.Description, line.UnitPrice)
					if err != nil {
						return err
					}
					line.CatalogItemID = &itemID
				}

				_, err = tx.Exec(ctx,
					`INSERT INTO invoice_lines (id, invoice_id, catalog_item_id, item_name, description, quantity, unit_price, line_total, checksum)
					 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
					line.ID, inv.ID, line.CatalogItemID, line.ItemName, line.Description,
					line.Quantity, line.UnitPrice, line.LineTotal, line.Checksum)
				if err != nil {
					return fmt.Errorf("failed to insert line on invoice %s: %w", inv.ExternalID, err)
				}
				stats.InvoiceLines++
			}
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
