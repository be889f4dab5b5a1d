// Package storage archives ingested source files so every import batch can
// be traced back to the exact bytes it was produced from.
package storage

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// FileInfo contains metadata about an archived file
type FileInfo struct {
	BatchID     uuid.UUID `json:"batch_id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Path        string    `json:"path"` // Internal storage path
	CreatedAt   time.Time `json:"created_at"`
}

// Archive defines the interface for source-file archival
type Archive interface {
	// Store archives the original bytes of one import batch
	Store(ctx context.Context, batchID uuid.UUID, filename string, contentType string, r io.Reader) (*FileInfo, error)

	// Open retrieves the archived bytes for a batch
	Open(ctx context.Context, batchID uuid.UUID) (io.ReadCloser, *FileInfo, error)

	// GetInfo returns metadata without opening the file
	GetInfo(ctx context.Context, batchID uuid.UUID) (*FileInfo, error)

	// List returns every archived batch file
	List(ctx context.Context) ([]*FileInfo, error)
}

// Config configures the archive backend
type Config struct {
	LocalPath string
}

// New creates an archive from configuration
func New(cfg *Config) (Archive, error) {
	return NewLocalArchive(cfg.LocalPath)
}
