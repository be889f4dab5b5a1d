package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/finvern/ledgerbridge/internal/domain/inventory"
	"github.com/finvern/ledgerbridge/internal/domain/ledger"
)

// applyReceiptSQL folds one received line into the running costing state in
// a single atomic statement. Concurrent imports of different files serialize
// on the item row, so the totals never lose an update.
const applyReceiptSQL = `
INSERT INTO inventory_items (id, item_name, description, current_quantity, total_received, total_cost, average_unit_cost, last_transaction_date, last_vendor)
VALUES ($1, $2, $3, $4, $4, $5, CASE WHEN $4 = 0 THEN 0 ELSE round($5 / $4, 4) END, $6, $7)
ON CONFLICT (item_name) DO UPDATE SET
    current_quantity      = inventory_items.current_quantity + EXCLUDED.current_quantity,
    total_received        = inventory_items.total_received + EXCLUDED.total_received,
    total_cost            = inventory_items.total_cost + EXCLUDED.total_cost,
    average_unit_cost     = CASE WHEN inventory_items.current_quantity + EXCLUDED.current_quantity = 0 THEN 0
                                 ELSE round((inventory_items.total_cost + EXCLUDED.total_cost) / (inventory_items.current_quantity + EXCLUDED.current_quantity), 4) END,
    last_transaction_date = EXCLUDED.last_transaction_date,
    last_vendor           = EXCLUDED.last_vendor,
    description           = CASE WHEN EXCLUDED.description <> '' THEN EXCLUDED.description ELSE inventory_items.description END,
    updated_at            = now()
RETURNING current_quantity, total_received, total_cost, average_unit_cost`

// applyReceipt records one received bill line against the item's costing
// state and writes the immutable audit transaction.
func (r *Repository) applyReceipt(ctx context.Context, q querier, bill *ledger.Bill, line *ledger.LineItem) (inventory.State, error) {
	var state inventory.State
	err := q.QueryRow(ctx, applyReceiptSQL,
		uuid.New(), line.ItemName, line.Description,
		line.Quantity, line.LineAmount, bill.Date, bill.Vendor).Scan(
		&state.CurrentQuantity, &state.TotalReceived, &state.TotalCost, &state.AverageUnitCost)
	if err != nil {
		return inventory.State{}, fmt.Errorf("failed to apply receipt for item %q: %w", line.ItemName, err)
	}

	_, err = q.Exec(ctx,
		`INSERT INTO inventory_transactions (id, item_name, txn_type, quantity, unit_cost, line_amount, txn_date, vendor, bill_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.New(), line.ItemName, ledger.ReceiptTxn,
		line.Quantity, line.UnitCost, line.LineAmount, bill.Date, bill.Vendor, bill.ID)
	if err != nil {
		return inventory.State{}, fmt.Errorf("failed to record receipt for item %q: %w", line.ItemName, err)
	}
	return state, nil
}

// InventoryItems lists the full costing catalog ordered by item name.
func (r *Repository) InventoryItems(ctx context.Context) ([]ledger.InventoryItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, item_name, description, current_quantity, total_received, total_cost, average_unit_cost, last_transaction_date, last_vendor
		 FROM inventory_items ORDER BY item_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory items: %w", err)
	}
	defer rows.Close()

	var items []ledger.InventoryItem
	for rows.Next() {
		var item ledger.InventoryItem
		if err := rows.Scan(&item.ID, &item.ItemName, &item.Description,
			&item.CurrentQuantity, &item.TotalReceived, &item.TotalCost,
			&item.AverageUnitCost, &item.LastTransactionDate, &item.LastVendor); err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate inventory items: %w", err)
	}
	return items, nil
}

// InventoryTransactions lists the audit trail for one item, newest first.
func (r *Repository) InventoryTransactions(ctx context.Context, itemName string) ([]ledger.InventoryTransaction, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, item_name, txn_type, quantity, unit_cost, line_amount, txn_date, vendor, bill_id
		 FROM inventory_transactions WHERE item_name = $1 ORDER BY created_at DESC`,
		itemName)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory transactions: %w", err)
	}
	defer rows.Close()

	var txns []ledger.InventoryTransaction
	for rows.Next() {
		var t ledger.InventoryTransaction
		if err := rows.Scan(&t.ID, &t.ItemName, &t.TxnType, &t.Quantity,
			&t.UnitCost, &t.LineAmount, &t.Date, &t.Vendor, &t.BillID); err != nil {
			return nil, fmt.Errorf("failed to scan inventory transaction: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate inventory transactions: %w", err)
	}
	return txns, nil
}
