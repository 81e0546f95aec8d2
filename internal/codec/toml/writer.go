package toml

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Write renders table as a complete TOML document to w, rendering in two
// passes at every nesting level: scalar leaves first as `key = value`,
// then nested tables as `[prefix.key]` headers, then []map[string]any values
// (the shape Parse produces for arrays of tables) as `[[prefix.key]]`
// headers -- so a table's own keys always precede its children in the
// output. A []any value is always rendered inline, even when every element
// is an object, so arrays decoded from JSON never become `[[...]]` headers.
func Write(w io.Writer, table map[string]any) error {
	ren := &renderer{w: w}
	if err := ren.writeTable(nil, table); err != nil {
		return err
	}
	return nil
}

type renderer struct {
	w io.Writer
}

func (r *renderer) writef(format string, args ...any) error {
	_, err := fmt.Fprintf(r.w, format, args...)
	return err
}

// writeTable renders the scalar keys of table under the given prefix, then
// recurses into nested tables and arrays-of-tables.
func (r *renderer) writeTable(prefix []string, table map[string]any) error {
	keys := sortedKeys(table)

	var nestedTables []string
	var arrayTables []string

	for _, key := range keys {
		switch v := table[key].(type) {
		case map[string]any:
			nestedTables = append(nestedTables, key)
		case []map[string]any:
			arrayTables = append(arrayTables, key)
		default:
			rendered, err := r.renderValue(v)
			if err != nil {
				return fmt.Errorf("key %q: %w", strings.Join(append(prefix, key), "."), err)
			}
			if err := r.writef("%s = %s\n", quoteKeyIfNeeded(key), rendered); err != nil {
				return err
			}
		}
	}

	for _, key := range nestedTables {
		childPrefix := append(append([]string{}, prefix...), key)
		if err := r.writef("\n[%s]\n", dottedHeader(childPrefix)); err != nil {
			return err
		}
		if err := r.writeTable(childPrefix, table[key].(map[string]any)); err != nil {
			return err
		}
	}

	for _, key := range arrayTables {
		childPrefix := append(append([]string{}, prefix...), key)
		for _, elem := range table[key].([]map[string]any) {
			if err := r.writef("\n[[%s]]\n", dottedHeader(childPrefix)); err != nil {
				return err
			}
			if err := r.writeTable(childPrefix, elem); err != nil {
				return err
			}
		}
	}

	return nil
}

func dottedHeader(path []string) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = quoteKeyIfNeeded(p)
	}
	return strings.Join(parts, ".")
}

// renderValue renders any scalar, inline array, or inline table value.
// Nested objects inside a non-table array render as inline tables.
func (r *renderer) renderValue(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return `""`, nil
	case string:
		return quoteString(val), nil
	case bool:
		if val {
			return "true", nil
		}
		return "false", nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		return formatFloat(val), nil
	case []any:
		return r.renderInlineArray(val)
	case []map[string]any:
		arr := make([]any, len(val))
		for i, m := range val {
			arr[i] = m
		}
		return r.renderInlineArray(arr)
	case map[string]any:
		return r.renderInlineTable(val)
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

func (r *renderer) renderInlineArray(arr []any) (string, error) {
	parts := make([]string, len(arr))
	for i, elem := range arr {
		s, err := r.renderValue(elem)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return "[" + strings.Join(parts, ", ") + "]", nil
}

func (r *renderer) renderInlineTable(table map[string]any) (string, error) {
	keys := sortedKeys(table)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		s, err := r.renderValue(table[k])
		if err != nil {
			return "", err
		}
		parts = append(parts, fmt.Sprintf("%s = %s", quoteKeyIfNeeded(k), s))
	}
	return "{ " + strings.Join(parts, ", ") + " }", nil
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case f == float64(int64(f)):
		return strconv.FormatInt(int64(f), 10) + ".0"
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// quoteKeyIfNeeded quotes a key that is empty or contains characters
// outside [A-Za-z0-9_-]
func quoteKeyIfNeeded(key string) string {
	if key == "" {
		return `""`
	}
	for _, r := range key {
		if !isBareKeyRune(r) {
			return quoteString(key)
		}
	}
	return key
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
