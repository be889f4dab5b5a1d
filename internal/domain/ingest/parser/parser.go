// Package parser turns raw uploaded bytes into a header-indexed table. It
// detects the delimiter, tolerates BOMs and latin1 payloads, and keeps the
// original rows as opaque maps for provenance storage.
package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/gocarina/gocsv"
)

var (
	ErrEmptyFile  = errors.New("file is empty")
	ErrNoHeaders  = errors.New("could not find data headers")
	ErrNoDataRows = errors.New("file has no data rows")
)

// Table is a parsed tabular file. Headers keep original casing; Records are
// positional; RawRows carry each row keyed by header text for checksums and
// raw import records.
type Table struct {
	Headers   []string
	Records   [][]string
	RawRows   []map[string]string
	Delimiter rune
}

// RowCount returns the number of data rows.
func (t *Table) RowCount() int { return len(t.Records) }

// Sample returns up to n raw rows for import metadata.
func (t *Table) Sample(n int) []map[string]string {
	if n > len(t.RawRows) {
		n = len(t.RawRows)
	}
	return t.RawRows[:n]
}

// Parse reads a tabular file. Files named *.xlsx/*.xls take the Excel path;
// everything else is treated as delimited text.
func Parse(filename string, data []byte) (*Table, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xls") {
		return parseExcel(data)
	}
	return parseDelimited(data)
}

func parseDelimited(data []byte) (*Table, error) {
	data = normalizeBytes(data)

	headerLine, ok := firstNonEmptyLine(data)
	if !ok {
		return nil, ErrEmptyFile
	}
	delimiter, count := detectDelimiter(headerLine)
	if count < 1 {
		return nil, ErrNoHeaders
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read data row: %w", err)
		}
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		records = append(records, record)
	}
	if len(records) == 0 {
		return nil, ErrNoDataRows
	}

	rawRows, err := rowMaps(data, delimiter)
	if err != nil {
		return nil, err
	}

	return &Table{
		Headers:   headers,
		Records:   records,
		RawRows:   rawRows,
		Delimiter: delimiter,
	}, nil
}

// gocsv's reader factory is package-global state. Serialize the
// configure-and-read pair so files parsed concurrently never re-read each
// other's payload with the wrong delimiter.
var gocsvMu sync.Mutex

// rowMaps re-reads the payload into header-keyed maps via gocsv so the
// stored raw blobs match what a struct-based consumer would see.
func rowMaps(data []byte, delimiter rune) ([]map[string]string, error) {
	gocsvMu.Lock()
	defer gocsvMu.Unlock()

	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.Comma = delimiter
		r.LazyQuotes = true
		r.TrimLeadingSpace = true
		r.FieldsPerRecord = -1
		return r
	})
	rows, err := gocsv.CSVToMaps(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to map rows: %w", err)
	}
	for _, row := range rows {
		for k, v := range row {
			row[k] = strings.TrimSpace(v)
		}
	}
	return rows, nil
}

func firstNonEmptyLine(data []byte) (string, bool) {
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			return line, true
		}
	}
	return "", false
}

func detectDelimiter(line string) (rune, int) {
	best := rune(0)
	bestCount := 0
	for _, d := range []rune{',', ';', '\t', '|'} {
		if count := strings.Count(line, string(d)); count > bestCount {
			bestCount = count
			best = d
		}
	}
	if best == 0 {
		// Single-column files are still valid tables.
		return ',', 1
	}
	return best, bestCount
}

// normalizeBytes strips a UTF-8 BOM and decodes latin1 payloads so header
// matching never trips on encoding.
func normalizeBytes(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		data = data[3:]
	}
	if utf8.Valid(data) {
		return data
	}
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return []byte(string(runes))
}
