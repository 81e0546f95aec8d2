package addr

import (
	"net/url"
	"regexp"
	"strings"
)

// Compression identifies a detected compression suffix stripped from Base.
type Compression string

const (
	CompressionNone Compression = ""
	CompressionGzip Compression = "gz"
	CompressionBzip Compression = "bz2"
	CompressionXz   Compression = "xz"
)

// Param is a single decoded parameter. Parameters preserve declaration order
// and allow duplicate keys -- see DESIGN.md's Open Question (a) decision:
// duplicates are kept here for callers (filter builders) that want every
// occurrence; "later overrides earlier" is applied later, during Config
// merge in internal/resolve, not here.
type Param struct {
	Key   string
	Value string
}

// Address is the immutable result of parsing one descriptor string. Its
// components can be joined back into descriptor text with Reconstruct.
type Address struct {
	Raw             string
	Kind            Kind
	Base            string
	FormatOverride  string
	Parameters      []Param
	Compression     Compression
}

var (
	globMeta            = regexp.MustCompile(`[*?[\]]`)
	profileComponentRe  = regexp.MustCompile(`^@[A-Za-z0-9_.-]+/`)
	profileBareRe       = regexp.MustCompile(`^@[A-Za-z0-9_.-]+$`)
	schemeRe            = regexp.MustCompile(`^[a-z][a-z0-9+.-]*://`)
	compressionSuffixes = []struct {
		suffix string
		kind   Compression
	}{
		{".gz", CompressionGzip},
		{".bz2", CompressionBzip},
		{".xz", CompressionXz},
	}
)

// Parse lexes raw into an Address. Parse never fails: syntactically odd
// input degrades to Kind=KindFile or Kind=KindBareAddress with empty
// Parameters.
func Parse(raw string) Address {
	base, formatOverride, rawQuery, hasFormatSep := splitFormatAndQuery(raw)

	kind := classify(base)

	var comp Compression
	if kind == KindFile || kind == KindProtocol || kind == KindGlob {
		base, comp = stripCompression(base)
	}

	formatOverride, formatParams := splitFormatShorthand(formatOverride)

	params := decodeParams(rawQuery)
	if len(formatParams) > 0 {
		params = append(append([]Param{}, params...), formatParams...)
	}

	_ = hasFormatSep

	return Address{
		Raw:            raw,
		Kind:           kind,
		Base:           base,
		FormatOverride: formatOverride,
		Parameters:     params,
		Compression:    comp,
	}
}

// splitFormatAndQuery implements the scan rule for the format/query
// separators: the '~' separator is found *after* the final "://" so URL
// query strings embedded
// in base survive intact; the '?' separator begins JN parameters only when
// it is not itself part of a bare URL's native query string.
//
// Returns the base (without '~format' or a JN '?query' suffix), the raw
// format-override token (without leading '~', may be empty), and the raw
// query string (without leading '?', may be empty).
func splitFormatAndQuery(raw string) (base, formatToken, rawQuery string, hasTilde bool) {
	schemeEnd := -1
	if loc := strings.Index(raw, "://"); loc >= 0 {
		schemeEnd = loc + len("://")
	}

	searchFrom := 0
	if schemeEnd >= 0 {
		searchFrom = schemeEnd
	}

	tildeIdx := strings.LastIndex(raw[searchFrom:], "~")
	if tildeIdx >= 0 {
		tildeIdx += searchFrom
		hasTilde = true
		base = raw[:tildeIdx]
		rest := raw[tildeIdx+1:]
		if qIdx := strings.Index(rest, "?"); qIdx >= 0 {
			formatToken = rest[:qIdx]
			rawQuery = rest[qIdx+1:]
		} else {
			formatToken = rest
		}
		return base, formatToken, rawQuery, hasTilde
	}

	// No '~': if base contains "://", any '?' belongs to the URL's native
	// query string and is NOT a JN parameter block.
	if schemeEnd >= 0 {
		return raw, "", "", false
	}

	// Bare address: '?' starts JN parameters.
	if qIdx := strings.Index(raw, "?"); qIdx >= 0 {
		return raw[:qIdx], "", raw[qIdx+1:], false
	}

	return raw, "", "", false
}

// splitFormatShorthand implements the format shorthand rule: if the
// format-override token contains a '.', the leading segment becomes the
// format name and the trailing segment is merged into parameters under a
// format-specific key, e.g. "table.grid" -> format="table",
// parameters=[{"tablefmt","grid"}].
func splitFormatShorthand(token string) (format string, extra []Param) {
	if token == "" {
		return "", nil
	}
	dot := strings.Index(token, ".")
	if dot < 0 {
		return token, nil
	}
	format = token[:dot]
	suffix := token[dot+1:]
	key := formatShorthandKey(format)
	return format, []Param{{Key: key, Value: suffix}}
}

// formatShorthandKey maps a format name to the parameter key its shorthand
// suffix is stored under. Unknown formats default to "format_arg" so the
// information is never silently dropped.
func formatShorthandKey(format string) string {
	switch format {
	case "table":
		return "tablefmt"
	default:
		return "format_arg"
	}
}

// classify implements the Kind classification table, evaluated in the
// documented precedence order.
func classify(base string) Kind {
	if base == "-" {
		return KindStdio
	}
	if hasProtocolPrefix := schemeRe.MatchString(base); !hasProtocolPrefix && globMeta.MatchString(base) {
		return KindGlob
	}
	if profileComponentRe.MatchString(base) {
		return KindProfile
	}
	if profileBareRe.MatchString(base) {
		return KindPlugin
	}
	if schemeRe.MatchString(base) {
		return KindProtocol
	}
	return KindFile
}

// stripCompression removes a trailing .gz/.bz2/.xz suffix from base and
// reports the detected Compression. For a URL base carrying its own query
// string, the suffix is looked for at the end of the path, before the '?'.
func stripCompression(base string) (string, Compression) {
	path, query := splitURLQuery(base)
	for _, c := range compressionSuffixes {
		if strings.HasSuffix(path, c.suffix) {
			return strings.TrimSuffix(path, c.suffix) + query, c.kind
		}
	}
	return base, CompressionNone
}

// splitURLQuery splits a URL base ("scheme://...") at its first '?',
// returning the path part and the query part (with its leading '?'). A
// base without "://" or without '?' is returned whole with an empty query.
func splitURLQuery(base string) (path, query string) {
	if strings.Contains(base, "://") {
		if q := strings.Index(base, "?"); q >= 0 {
			return base[:q], base[q:]
		}
	}
	return base, ""
}

// decodeParams parses rawQuery as application/x-www-form-urlencoded,
// preserving declaration order and duplicate keys. Operator suffixes on
// keys (=, !=, >, <, >=, <=) are carried verbatim and never interpreted
// here -- that belongs to whichever filter plugin consumes them.
func decodeParams(rawQuery string) []Param {
	if rawQuery == "" {
		return nil
	}
	var params []Param
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key := pair
		value := ""
		if eq := strings.Index(pair, "="); eq >= 0 {
			key = pair[:eq]
			value = pair[eq+1:]
		}
		dk, err1 := url.QueryUnescape(key)
		if err1 != nil {
			dk = key
		}
		dv, err2 := url.QueryUnescape(value)
		if err2 != nil {
			dv = value
		}
		params = append(params, Param{Key: dk, Value: dv})
	}
	return params
}

// Reconstruct rebuilds the original descriptor text (modulo insignificant
// whitespace and parameter re-encoding) from the Address's components. The
// compression suffix goes back before a URL base's own query string.
func (a Address) Reconstruct() string {
	var b strings.Builder
	path, query := a.Base, ""
	if a.Compression != CompressionNone {
		path, query = splitURLQuery(a.Base)
	}
	b.WriteString(path)
	if a.Compression != CompressionNone {
		b.WriteString(".")
		b.WriteString(string(a.Compression))
	}
	b.WriteString(query)
	if a.FormatOverride != "" {
		b.WriteString("~")
		b.WriteString(a.FormatOverride)
	}
	if len(a.Parameters) > 0 {
		sep := "?"
		if a.FormatOverride == "" && strings.Contains(a.Base, "://") {
			// Bare URL: JN parameters (if any were synthesized) would be
			// indistinguishable from the URL's own query string once
			// reconstructed without a '~'; this path is only reachable via
			// format-shorthand parameters, which always follow a '~'.
			sep = "?"
		}
		b.WriteString(sep)
		for i, p := range a.Parameters {
			if i > 0 {
				b.WriteString("&")
			}
			b.WriteString(url.QueryEscape(p.Key))
			b.WriteString("=")
			b.WriteString(url.QueryEscape(p.Value))
		}
	}
	return b.String()
}

// ParamMap collapses Parameters into a map, keeping only the last value for
// any duplicate key ("later overrides earlier"), for callers that do not
// need full ordering/duplication fidelity.
func (a Address) ParamMap() map[string]string {
	m := make(map[string]string, len(a.Parameters))
	for _, p := range a.Parameters {
		m[p.Key] = p.Value
	}
	return m
}
