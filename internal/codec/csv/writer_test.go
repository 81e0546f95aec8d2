package csv

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_UnionHeaderInsertionOrder(t *testing.T) {
	t.Parallel()

	records := []map[string]any{
		{"name": "alice", "age": float64(30)},
		{"name": "bob", "city": "nyc"},
	}

	var buf bytes.Buffer
	require.NoError(t, NewWriter(WriteOptions{}).WriteAll(&buf, records))

	assert.Equal(t, "name,age,city\nalice,30,\nbob,,nyc\n", buf.String())
}

func TestWriter_QuotesFieldsContainingSpecialChars(t *testing.T) {
	t.Parallel()

	records := []map[string]any{
		{"note": "hello, world"},
		{"note": "quote \"here\""},
		{"note": "multi\nline"},
	}

	var buf bytes.Buffer
	require.NoError(t, NewWriter(WriteOptions{}).WriteAll(&buf, records))

	assert.Equal(t, "note\n\"hello, world\"\n\"quote \"\"here\"\"\"\n\"multi\nline\"\n", buf.String())
}

func TestWriter_NullBecomesEmptyField(t *testing.T) {
	t.Parallel()

	records := []map[string]any{{"x": nil}}

	var buf bytes.Buffer
	require.NoError(t, NewWriter(WriteOptions{}).WriteAll(&buf, records))
	assert.Equal(t, "x\n\n", buf.String())
}

func TestWriter_ComplexValueRendersAsJSONByDefault(t *testing.T) {
	t.Parallel()

	records := []map[string]any{{"tags": []any{"a", "b"}}}

	var buf bytes.Buffer
	require.NoError(t, NewWriter(WriteOptions{}).WriteAll(&buf, records))
	assert.Equal(t, "tags\n\"[\"\"a\"\",\"\"b\"\"]\"\n", buf.String())
}

func TestWriter_ComplexValueErrorsWhenConfigured(t *testing.T) {
	t.Parallel()

	records := []map[string]any{{"tags": []any{"a", "b"}}}

	var buf bytes.Buffer
	err := NewWriter(WriteOptions{OnComplex: ComplexAsError}).WriteAll(&buf, records)
	assert.Error(t, err)
}

func TestWriter_CustomDelimiter(t *testing.T) {
	t.Parallel()

	records := []map[string]any{{"a": "1", "b": "2"}}

	var buf bytes.Buffer
	require.NoError(t, NewWriter(WriteOptions{Delimiter: ';'}).WriteAll(&buf, records))
	assert.Equal(t, "a;b\n1;2\n", buf.String())
}

func TestWriter_IntegerFloatsRenderWithoutDecimal(t *testing.T) {
	t.Parallel()

	records := []map[string]any{{"n": float64(42)}, {"n": float64(3.5)}}

	var buf bytes.Buffer
	require.NoError(t, NewWriter(WriteOptions{}).WriteAll(&buf, records))
	assert.Equal(t, "n\n42\n3.5\n", buf.String())
}
