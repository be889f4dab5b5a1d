package checksum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFile(t *testing.T) {
	a := File([]byte("vendor,qty\nacme,3\n"))
	b := File([]byte("vendor,qty\nacme,3\n"))
	c := File([]byte("vendor,qty\nacme,4\n"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestRowIsOrderIndependent(t *testing.T) {
	a := Row(map[string]string{"vendor": "acme", "qty": "3"})
	b := Row(map[string]string{"qty": "3", "vendor": "acme"})

	assert.Equal(t, a, b)
}

func TestRowSeparatesKeysFromValues(t *testing.T) {
	// Without separators {"ab": "c"} and {"a": "bc"} would collide.
	a := Row(map[string]string{"ab": "c"})
	b := Row(map[string]string{"a": "bc"})

	assert.NotEqual(t, a, b)
}

func TestRecordMatchesRow(t *testing.T) {
	headers := []string{"vendor", "qty"}

	fromRecord := Record(headers, []string{"acme", "3"})
	fromRow := Row(map[string]string{"vendor": "acme", "qty": "3"})
	assert.Equal(t, fromRow, fromRecord)
}

func TestRecordToleratesShortRows(t *testing.T) {
	headers := []string{"vendor", "qty", "cost"}

	short := Record(headers, []string{"acme"})
	full := Record(headers, []string{"acme", "", ""})
	assert.NotEqual(t, short, full)
}
