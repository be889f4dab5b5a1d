package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/finvern/ledgerbridge/internal/domain/ledger"
)

// FindBatchByChecksum returns the prior batch for a file checksum, or nil
// when the file has never been seen.
func (r *Repository) FindBatchByChecksum(ctx context.Context, sum string) (*ledger.ImportBatch, error) {
	var (
		b      ledger.ImportBatch
		sample []byte
	)
	err := r.db.QueryRow(ctx,
		`SELECT id, file_name, content_type, checksum, format, row_count, headers, row_sample, processed, created_at
		 FROM import_batches WHERE checksum = $1`,
		sum).Scan(&b.ID, &b.FileName, &b.ContentType, &b.Checksum, &b.Format,
		&b.RowCount, &b.Headers, &sample, &b.Processed, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up import batch by checksum: %w", err)
	}
	if len(sample) > 0 {
		if err := json.Unmarshal(sample, &b.RowSample); err != nil {
			return nil, fmt.Errorf("failed to decode row sample for batch %s: %w", b.ID, err)
		}
	}
	return &b, nil
}

// CreateImportBatch records provenance for one ingest call. It runs in its
// own transaction before normalization so the batch row survives any
// downstream failure. The generated id and timestamp are written back.
func (r *Repository) CreateImportBatch(ctx context.Context, b *ledger.ImportBatch) error {
	sample, err := json.Marshal(b.RowSample)
	if err != nil {
		return fmt.Errorf("failed to encode row sample: %w", err)
	}

	b.ID = uuid.New()
	err = r.db.QueryRow(ctx,
		`INSERT INTO import_batches (id, file_name, content_type, checksum, format, row_count, headers, row_sample, processed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false)
		 RETURNING created_at`,
		b.ID, b.FileName, b.ContentType, b.Checksum, b.Format,
		b.RowCount, b.Headers, sample).Scan(&b.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create import batch: %w", err)
	}
	return nil
}

// SetBatchFormat stores the classifier's verdict on an existing batch.
func (r *Repository) SetBatchFormat(ctx context.Context, batchID uuid.UUID, format string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE import_batches SET format = $2 WHERE id = $1`, batchID, format)
	if err != nil {
		return fmt.Errorf("failed to set batch format: %w", err)
	}
	return nil
}

// markBatchProcessed flips the processed flag inside the import transaction,
// so the flag commits atomically with the ledger rows it describes.
func (r *Repository) markBatchProcessed(ctx context.Context, q querier, batchID uuid.UUID) error {
	tag, err := q.Exec(ctx,
		`UPDATE import_batches SET processed = true WHERE id = $1`, batchID)
	if err != nil {
		return fmt.Errorf("failed to mark batch processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("import batch %s: %w", batchID, ErrNotFound)
	}
	return nil
}

// insertRawRecords stores every original row for the batch. Re-imported rows
// are skipped on the per-batch checksum constraint.
func (r *Repository) insertRawRecords(ctx context.Context, q querier, batchID uuid.UUID, records []ledger.RawImportRecord) error {
	for i := range records {
		payload, err := json.Marshal(records[i].Payload)
		if err != nil {
			return fmt.Errorf("failed to encode raw record %d: %w", i, err)
		}
		_, err = q.Exec(ctx,
			`INSERT INTO raw_import_records (id, batch_id, external_id, checksum, payload)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (batch_id, checksum) DO NOTHING`,
			uuid.New(), batchID, records[i].ExternalID, records[i].Checksum, payload)
		if err != nil {
			return fmt.Errorf("failed to store raw record %d: %w", i, err)
		}
	}
	return nil
}
