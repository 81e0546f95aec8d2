package csv

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// OnComplex selects how the writer handles an object/array value: either
// rendered as its JSON representation, or treated as a hard write-time
// failure, per configuration.
type OnComplex string

const (
	// ComplexAsJSON renders objects/arrays as their compact JSON text.
	ComplexAsJSON OnComplex = "json"
	// ComplexAsError fails the write with an error naming the offending key.
	ComplexAsError OnComplex = "error"
)

// WriteOptions configures a Writer.
type WriteOptions struct {
	Delimiter byte // defaults to ','
	OnComplex OnComplex
}

// Writer renders a buffered set of NDJSON-derived records as CSV. Write
// mode determines the header as the union of keys over all records
// (insertion-ordered by first appearance), which forces buffering all
// input before any output -- an acknowledged non-streaming property of
// CSV writing.
type Writer struct {
	delimiter byte
	onComplex OnComplex
}

// NewWriter builds a Writer from opts, applying defaults.
func NewWriter(opts WriteOptions) *Writer {
	delim := opts.Delimiter
	if delim == 0 {
		delim = ','
	}
	onComplex := opts.OnComplex
	if onComplex == "" {
		onComplex = ComplexAsJSON
	}
	return &Writer{delimiter: delim, onComplex: onComplex}
}

// WriteAll buffers records, computes the union header, and writes the full
// CSV document to w.
func (wr *Writer) WriteAll(w io.Writer, records []map[string]any) error {
	header := unionHeader(records)

	bw := bufio.NewWriter(w)
	defer bw.Flush()

	if err := wr.writeRow(bw, header); err != nil {
		return err
	}
	for i, rec := range records {
		row := make([]string, len(header))
		for j, key := range header {
			v, ok := rec[key]
			if !ok {
				continue
			}
			s, err := wr.renderField(v)
			if err != nil {
				return fmt.Errorf("row %d, field %q: %w", i, key, err)
			}
			row[j] = s
		}
		if err := wr.writeRow(bw, row); err != nil {
			return err
		}
	}
	return nil
}

// unionHeader computes the union of keys over all records, ordered by
// first appearance.
func unionHeader(records []map[string]any) []string {
	seen := make(map[string]bool)
	var header []string
	for _, rec := range records {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				header = append(header, k)
			}
		}
	}
	return header
}

// renderField converts a decoded JSON value into its CSV cell text.
// Null values become empty fields; objects/arrays follow wr.onComplex.
func (wr *Writer) renderField(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case bool:
		if val {
			return "true", nil
		}
		return "false", nil
	case float64:
		return formatNumber(val), nil
	case map[string]any, []any:
		if wr.onComplex == ComplexAsError {
			return "", fmt.Errorf("complex value not representable as a CSV cell")
		}
		b, err := json.Marshal(val)
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}

// writeRow writes one delimiter-separated, RFC 4180-quoted row.
func (wr *Writer) writeRow(w *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if _, err := w.WriteString(string(wr.delimiter)); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(wr.quoteField(f)); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\n")
	return err
}

// quoteField quotes f iff it contains the delimiter, a quote, a newline, or
// a carriage return, doubling embedded quotes.
func (wr *Writer) quoteField(f string) string {
	needsQuote := strings.ContainsAny(f, "\n\r\"") || strings.ContainsRune(f, rune(wr.delimiter))
	if !needsQuote {
		return f
	}
	return `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
}

