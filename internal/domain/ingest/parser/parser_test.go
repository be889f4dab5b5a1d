package parser

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseDetectsDelimiter(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		delimiter rune
	}{
		{name: "comma", input: "a,b,c\n1,2,3\n", delimiter: ','},
		{name: "semicolon", input: "a;b;c\n1;2;3\n", delimiter: ';'},
		{name: "tab", input: "a\tb\tc\n1\t2\t3\n", delimiter: '\t'},
		{name: "pipe", input: "a|b|c\n1|2|3\n", delimiter: '|'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Parse("data.csv", []byte(tt.input))
			require.NoError(t, err)

			assert.Equal(t, tt.delimiter, table.Delimiter)
			assert.Equal(t, []string{"a", "b", "c"}, table.Headers)
			require.Equal(t, 1, table.RowCount())
			assert.Equal(t, []string{"1", "2", "3"}, table.Records[0])
		})
	}
}

func TestParseStripsBOM(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Vendor,Qty\nAcme,3\n")...)

	table, err := Parse("data.csv", input)
	require.NoError(t, err)
	assert.Equal(t, []string{"Vendor", "Qty"}, table.Headers)
}

func TestParseDecodesLatin1(t *testing.T) {
	// "Café" with a latin1 0xE9 byte, not valid UTF-8.
	input := []byte("Vendor,Qty\nCaf\xe9,3\n")

	table, err := Parse("data.csv", input)
	require.NoError(t, err)
	assert.Equal(t, "Café", table.Records[0][0])
}

func TestParseBuildsRawRows(t *testing.T) {
	table, err := Parse("data.csv", []byte("Vendor,Qty\nAcme,3\nGlobex,5\n"))
	require.NoError(t, err)

	require.Len(t, table.RawRows, 2)
	assert.Equal(t, "Acme", table.RawRows[0]["Vendor"])
	assert.Equal(t, "5", table.RawRows[1]["Qty"])
}

func TestParseConcurrentMixedDelimiters(t *testing.T) {
	comma := []byte("Vendor,Qty\nAcme,3\n")
	semicolon := []byte("Vendor;Qty\nGlobex;5\n")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			table, err := Parse("comma.csv", comma)
			if !assert.NoError(t, err) {
				return
			}
			assert.Equal(t, "Acme", table.RawRows[0]["Vendor"])
			assert.Equal(t, "3", table.RawRows[0]["Qty"])
		}()
		go func() {
			defer wg.Done()
			table, err := Parse("semi.csv", semicolon)
			if !assert.NoError(t, err) {
				return
			}
			assert.Equal(t, "Globex", table.RawRows[0]["Vendor"])
			assert.Equal(t, "5", table.RawRows[0]["Qty"])
		}()
	}
	wg.Wait()
}

func TestParseSample(t *testing.T) {
	table, err := Parse("data.csv", []byte("A\n1\n2\n3\n"))
	require.NoError(t, err)

	assert.Len(t, table.Sample(5), 3)
	assert.Len(t, table.Sample(2), 2)
}

func TestParseErrors(t *testing.T) {
	t.Run("empty file", func(t *testing.T) {
		_, err := Parse("data.csv", nil)
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("whitespace only", func(t *testing.T) {
		_, err := Parse("data.csv", []byte("   \n  \n"))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("headers without rows", func(t *testing.T) {
		_, err := Parse("data.csv", []byte("a,b,c\n"))
		assert.ErrorIs(t, err, ErrNoDataRows)
	})
}

func TestParseExcel(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]string{"Vendor", "Qty"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]string{"Acme", "3"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	table, err := Parse("upload.xlsx", buf.Bytes())
	require.NoError(t, err)

	assert.Equal(t, []string{"Vendor", "Qty"}, table.Headers)
	require.Equal(t, 1, table.RowCount())
	assert.Equal(t, "Acme", table.Records[0][0])
	assert.Equal(t, "3", table.RawRows[0]["Qty"])
}
