// Package repository persists the unified ledger model in PostgreSQL. All
// multi-row writes for one import run inside a single transaction; identity
// resolution and inventory costing are expressed as conflict-tolerant
// upserts so concurrent imports never create duplicate rows.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when an operation references an entity UUID that
// does not exist. Missing parents are never silently created.
var ErrNotFound = errors.New("entity not found")

// DB is the subset of pgxpool.Pool the repository needs. pgxmock satisfies
// it too, so repository SQL is testable without a live database.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// querier is implemented by both DB and pgx.Tx, letting helpers run inside
// or outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository is the persistence gateway for ingestion and export flows.
type Repository struct {
	db DB
}

// NewRepository creates a ledger repository on top of a connection pool.
func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

// ImportStats summarizes what one import transaction actually wrote.
type ImportStats struct {
	BillsCreated     int
	BillsSkipped     int
	LinesCreated     int
	InvoicesUpserted int
	InvoiceLines     int
	BankCreated      int
	BankSkipped      int
}

// inTx runs fn inside one transaction, rolling back every row written so
// far on any failure.
func (r *Repository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
