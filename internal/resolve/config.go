// Package resolve implements the address resolver: turning a parsed
// Address into a ResolvedAddress carrying the plugin, merged Config, and
// effective invocation target.
package resolve

import (
	"strconv"
	"strings"
)

// ValueKind is the inferred type of a Config value: string, integer,
// float, or boolean.
type ValueKind int

const (
	KindString ValueKind = iota
	KindInteger
	KindFloat
	KindBoolean
)

// Value is a single typed Config entry.
type Value struct {
	Kind ValueKind
	Str  string
	Int  int64
	Flt  float64
	Bool bool
}

// String renders the value back to text, e.g. for logging or for plugin
// invocations that only accept string arguments.
func (v Value) String() string {
	switch v.Kind {
	case KindInteger:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Flt, 'g', -1, 64)
	case KindBoolean:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Str
	}
}

// InferValue converts raw text into a typed Value: digits -> integer;
// digits with a '.' -> float; true/false -> boolean; otherwise string.
func InferValue(raw string) Value {
	switch raw {
	case "true":
		return Value{Kind: KindBoolean, Bool: true, Str: raw}
	case "false":
		return Value{Kind: KindBoolean, Bool: false, Str: raw}
	}
	if isDigits(raw) {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return Value{Kind: KindInteger, Int: n, Str: raw}
		}
	}
	if looksLikeFloat(raw) {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return Value{Kind: KindFloat, Flt: f, Str: raw}
		}
	}
	return Value{Kind: KindString, Str: raw}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	start := 0
	if s[0] == '-' || s[0] == '+' {
		start = 1
	}
	if start == len(s) {
		return false
	}
	for _, r := range s[start:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func looksLikeFloat(s string) bool {
	if !strings.Contains(s, ".") {
		return false
	}
	stripped := strings.Replace(s, ".", "", 1)
	return isDigits(stripped)
}

// Config is an ordered mapping from string to typed Value. Order reflects
// merge history: first-seen key position is retained even when a later
// layer overwrites its value.
type Config struct {
	keys   []string
	values map[string]Value
}

// NewConfig returns an empty, ready-to-use Config.
func NewConfig() *Config {
	return &Config{values: make(map[string]Value)}
}

// Set inserts or overwrites key with value. Overwriting an existing key does
// not change its position in Keys().
func (c *Config) Set(key string, value Value) {
	if _, exists := c.values[key]; !exists {
		c.keys = append(c.keys, key)
	}
	c.values[key] = value
}

// SetRaw infers a Value from raw text and stores it under key.
func (c *Config) SetRaw(key, raw string) {
	c.Set(key, InferValue(raw))
}

// Get returns the value stored under key, if any.
func (c *Config) Get(key string) (Value, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Keys returns the configured keys in first-insertion order.
func (c *Config) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Len returns the number of distinct keys.
func (c *Config) Len() int {
	return len(c.keys)
}

// Merge overlays other onto c: every key in other is set on c, later
// callers (later Merge calls) overriding earlier ones. New keys are
// appended in other's order; keys already present keep their original
// position.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		c.Set(k, other.values[k])
	}
}

// ExpandEnv replaces every ${NAME} placeholder in every string-kind value
// using lookup (an os.LookupEnv-shaped function), as the final merge step.
// Expansion happens once, after the full merge, so only each key's final
// value is expanded; placeholder names resolve through lookup alone, never
// against other Config keys.
func (c *Config) ExpandEnv(lookup func(name string) (string, bool)) {
	for _, k := range c.keys {
		v := c.values[k]
		if v.Kind != KindString {
			continue
		}
		v.Str = expandPlaceholders(v.Str, lookup)
		c.values[k] = v
	}
}

// expandPlaceholders replaces every ${NAME} in s using lookup. An
// unresolved placeholder is left verbatim rather than collapsed to empty
// string, so a missing variable is visible in the effective config instead
// of silently disappearing.
func expandPlaceholders(s string, lookup func(string) (string, bool)) string {
	var b strings.Builder
	i := 0
	for i < len(s) {
		start := strings.Index(s[i:], "${")
		if start < 0 {
			b.WriteString(s[i:])
			break
		}
		start += i
		end := strings.IndexByte(s[start+2:], '}')
		if end < 0 {
			b.WriteString(s[i:])
			break
		}
		end += start + 2
		name := s[start+2 : end]
		b.WriteString(s[i:start])
		if val, ok := lookup(name); ok {
			b.WriteString(val)
		} else {
			b.WriteString(s[start : end+1])
		}
		i = end + 1
	}
	return b.String()
}
