package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// parseExcel extracts the first sheet of an XLSX workbook into the same
// Table shape the delimited path produces.
func parseExcel(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}
	if len(headers) == 0 {
		return nil, ErrNoHeaders
	}

	var records [][]string
	var rawRows []map[string]string
	for _, row := range rows[1:] {
		record := make([]string, len(headers))
		raw := make(map[string]string, len(headers))
		for i := range headers {
			if i < len(row) {
				record[i] = strings.TrimSpace(row[i])
			}
			raw[headers[i]] = record[i]
		}
		records = append(records, record)
		rawRows = append(rawRows, raw)
	}
	if len(records) == 0 {
		return nil, ErrNoDataRows
	}

	return &Table{Headers: headers, Records: records, RawRows: rawRows, Delimiter: ','}, nil
}
