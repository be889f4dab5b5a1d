// Package checksum produces the content-addressed hashes used for
// idempotent deduplication. Identical input always produces an identical
// checksum regardless of when it was imported; these are not security
// primitives.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// File hashes the raw uploaded bytes. Used as the file-level duplicate gate.
func File(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Row hashes the canonical representation of a parsed row. Keys are sorted
// so map iteration order never changes the result.
func Row(row map[string]string) string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte(0x1f)
		b.WriteString(row[k])
		b.WriteByte(0x1e)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Record hashes an ordered record against its headers. Equivalent to Row for
// positional rows that were never keyed by header.
func Record(headers, record []string) string {
	m := make(map[string]string, len(headers))
	for i, h := range headers {
		if i < len(record) {
			m[h] = record[i]
		}
	}
	return Row(m)
}
