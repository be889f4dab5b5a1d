package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalArchive implements Archive on the local filesystem. Files land under
// <base>/<batch-id>_<name>; metadata sidecars live under <base>/.meta.
type LocalArchive struct {
	basePath string
}

// NewLocalArchive creates a local filesystem archive
func NewLocalArchive(basePath string) (*LocalArchive, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &LocalArchive{basePath: basePath}, nil
}

// Store archives the original bytes of one import batch
func (s *LocalArchive) Store(ctx context.Context, batchID uuid.UUID, filename string, contentType string, r io.Reader) (*FileInfo, error) {
	storedName := fmt.Sprintf("%s_%s", batchID.String()[:8], sanitizeFilename(filename))
	filePath := filepath.Join(s.basePath, storedName)

	f, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(filePath) // Cleanup on error
		return nil, fmt.Errorf("failed to write archive file: %w", err)
	}

	info := &FileInfo{
		BatchID:     batchID,
		Name:        filename,
		Size:        size,
		ContentType: contentType,
		Path:        storedName,
		CreatedAt:   time.Now(),
	}

	if err := s.saveMetadata(batchID, info); err != nil {
		os.Remove(filePath) // Cleanup on error
		return nil, err
	}
	return info, nil
}

// Open retrieves the archived bytes for a batch
func (s *LocalArchive) Open(ctx context.Context, batchID uuid.UUID) (io.ReadCloser, *FileInfo, error) {
	info, err := s.GetInfo(ctx, batchID)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(filepath.Join(s.basePath, info.Path))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open archived file: %w", err)
	}
	return f, info, nil
}

// GetInfo returns metadata without opening the file
func (s *LocalArchive) GetInfo(ctx context.Context, batchID uuid.UUID) (*FileInfo, error) {
	metaPath := filepath.Join(s.basePath, ".meta", batchID.String()+".json")

	data, err := os.ReadFile(metaPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no archived file for batch %s", batchID)
		}
		return nil, fmt.Errorf("failed to read archive metadata: %w", err)
	}

	var info FileInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse archive metadata: %w", err)
	}
	return &info, nil
}

// List returns every archived batch file
func (s *LocalArchive) List(ctx context.Context) ([]*FileInfo, error) {
	metaDir := filepath.Join(s.basePath, ".meta")
	if _, err := os.Stat(metaDir); os.IsNotExist(err) {
		return []*FileInfo{}, nil
	}

	entries, err := os.ReadDir(metaDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list archive metadata: %w", err)
	}

	files := make([]*FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id, err := uuid.Parse(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		info, err := s.GetInfo(ctx, id)
		if err != nil {
			continue
		}
		files = append(files, info)
	}
	return files, nil
}

// saveMetadata saves file metadata to a JSON sidecar
func (s *LocalArchive) saveMetadata(batchID uuid.UUID, info *FileInfo) error {
	metaDir := filepath.Join(s.basePath, ".meta")
	if err := os.MkdirAll(metaDir, 0755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal archive metadata: %w", err)
	}

	metaPath := filepath.Join(metaDir, batchID.String()+".json")
	if err := os.WriteFile(metaPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write archive metadata: %w", err)
	}
	return nil
}

// sanitizeFilename removes unsafe characters from filenames
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		"..", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	return replacer.Replace(name)
}
