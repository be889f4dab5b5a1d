package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/finvern/ledgerbridge/internal/domain/ledger"
)

// ImportBills persists one normalized bill batch atomically. Bills are
// insert-once on (source, vendor, reference, date); a re-imported bill skips
// its lines and inventory receipts entirely, so costing state never double
// counts. Raw rows and the processed flag commit in the same transaction.
func (r *Repository) ImportBills(ctx context.Context, batch *ledger.ImportBatch, sourceName string, bills []ledger.Bill, raws []ledger.RawImportRecord) (*ImportStats, error) {
	stats := &ImportStats{}

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		sourceID, err := r.resolveSource(ctx, tx, sourceName, sourceTypeFileImport)
		if err != nil {
			return err
		}

		for i := range bills {
			bill := &bills[i]
			bill.ID = uuid.New()
			bill.SourceID = sourceID

			tag, err := tx.Exec(ctx,
				`INSERT INTO bills (id, source_id, batch_id, vendor, ref_number, bill_date, terms, due_date, total_amount)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				 ON CONFLICT (source_id, vendor, ref_number, bill_date) DO NOTHING`,
				bill.ID, sourceID, batch.ID, bill.Vendor, bill.RefNumber,
				bill.Date, bill.Terms, bill.DueDate, bill.TotalAmount)
			if err != nil {
				return fmt.Errorf("failed to insert bill %s/%s: %w", bill.Vendor, bill.RefNumber, err)
			}
			if tag.RowsAffected() == 0 {
				stats.BillsSkipped++
				continue
			}
			stats.BillsCreated++

			for j := range bill.Lines {
				line := &bill.Lines[j]
				line.ID = uuid.New()
				line.BillID = bill.ID

				itemID, err := r.resolveCatalogItem(ctx, tx, sourceID, "", line.ItemName, line.Description, line.UnitCost)
				if err != nil {
					return err
				}

				_, err = tx.Exec(ctx,
					`INSERT INTO bill_line_items (id, bill_id, catalog_item_id, item_name, description, quantity, unit_cost, line_amount, checksum)
					 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
					 ON CONFLICT (bill_id, checksum) DO NOTHING`,
					line.ID, bill.ID, itemID, line.ItemName, line.Description,
					line.Quantity, line.UnitCost, line.LineAmount, line.Checksum)
				if err != nil {
					return fmt.Errorf("failed to insert line %q on bill %s: %w", line.ItemName, bill.RefNumber, err)
				}
				stats.LinesCreated++

				if _, err := r.applyReceipt(ctx, tx, bill, line); err != nil {
					return err
				}
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

// BillsByIDs fetches bills with their lines for interchange export. An empty
// id list returns every bill, newest first.
func (r *Repository) BillsByIDs(ctx context.Context, ids []uuid.UUID) ([]ledger.Bill, error) {
	query := `SELECT id, source_id, vendor, ref_number, bill_date, terms, due_date, total_amount
	          FROM bills ORDER BY created_at DESC`
	args := []any{}
	if len(ids) > 0 {
		query = `SELECT id, source_id, vendor, ref_number, bill_date, terms, due_date, total_amount
		         FROM bills WHERE id = ANY($1) ORDER BY created_at DESC`
		args = append(args, ids)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	var bills []ledger.Bill
	for rows.Next() {
		var b ledger.Bill
		if err := rows.Scan(&b.ID, &b.SourceID, &b.Vendor, &b.RefNumber,
			&b.Date, &b.Terms, &b.DueDate, &b.TotalAmount); err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bills: %w", err)
	}

	for i := range bills {
		lines, err := r.billLines(ctx, bills[i].ID)
		if err != nil {
			return nil, err
		}
		bills[i].Lines = lines
	}
	return bills, nil
}

func (r *Repository) billLines(ctx context.Context, billID uuid.UUID) ([]ledger.LineItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, bill_id, item_name, description, quantity, unit_cost, line_amount, checksum
		 FROM bill_line_items WHERE bill_id = $1 ORDER BY created_at`,
		billID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lines for bill %s: %w", billID, err)
	}
	defer rows.Close()

	var lines []ledger.LineItem
	for rows.Next() {
		var l ledger.LineItem
		if err := rows.Scan(&l.ID, &l.BillID, &l.ItemName, &l.Description,
			&l.Quantity, &l.UnitCost, &l.LineAmount, &l.Checksum); err != nil {
			return nil, fmt.Errorf("failed to scan bill line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bill lines: %w", err)
	}
	return lines, nil
}
