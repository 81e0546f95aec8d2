// Package csv implements the CSV<->NDJSON streaming codec: one of the two
// reference format plugins exercising the hardest streaming invariants the
// pipeline orchestrator must uphold. No CSV library available fits the
// auto-delimiter-detection and row-by-row decoding shape closely enough to
// be worth fighting, so this is hand-rolled over bufio like the rest of
// the codec.
package csv

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// candidateDelimiters are scored in this order when auto-detecting.
var candidateDelimiters = []byte{',', ';', '\t', '|'}

const (
	sampleLineCount  = 50
	minSampleEvidence = 3
	defaultFieldCap  = 4096
)

// ReadOptions configures a Reader.
type ReadOptions struct {
	// Delimiter, if non-zero, is used verbatim. Zero triggers
	// auto-detection over the first sampleLineCount lines.
	Delimiter byte

	// NoHeader disables treating the first row as a header; fields are
	// then keyed col0, col1, ...
	NoHeader bool

	// FieldCap bounds the number of fields read per row. Values below
	// defaultFieldCap are raised to it (the floor is 4096).
	FieldCap int

	// Logger receives the single field-cap-overflow warning, if any.
	Logger *slog.Logger
}

// Reader streams CSV rows from r, decoding each into a JSON-ready
// map[string]any.
type Reader struct {
	br        *bufio.Reader
	delimiter byte
	headers   []string
	fieldCap  int
	logger    *slog.Logger

	warnedOverflow bool
	lineNum        int
	row            []string // reused across ReadRecord calls
}

// NewReader prepares a Reader over r. If opts.Delimiter is zero, up to
// sampleLineCount lines are buffered to score candidate delimiters, then
// replayed into the parse path so no input is lost.
func NewReader(r io.Reader, opts ReadOptions) (*Reader, error) {
	fieldCap := opts.FieldCap
	if fieldCap < defaultFieldCap {
		fieldCap = defaultFieldCap
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	br := bufio.NewReaderSize(r, 64*1024)
	delim := opts.Delimiter
	if delim == 0 {
		sample, err := peekSampleLines(br, sampleLineCount)
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("sampling csv input: %w", err)
		}
		delim = detectDelimiter(sample)
	}

	cr := &Reader{br: br, delimiter: delim, fieldCap: fieldCap, logger: logger}

	if !opts.NoHeader {
		headers, err := cr.readRawRow()
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("reading csv header: %w", err)
		}
		// Copy: readRawRow reuses its slice for every later row.
		cr.headers = append([]string(nil), headers...)
	}
	return cr, nil
}

// Delimiter reports the delimiter in effect (explicit or auto-detected),
// useful for diagnostics (`jn plugins explain`-style output).
func (r *Reader) Delimiter() byte { return r.delimiter }

// ReadRecord returns the next row as a JSON-ready object, or io.EOF when
// the stream is exhausted.
func (r *Reader) ReadRecord() (map[string]any, error) {
	fields, err := r.readRawRow()
	if err != nil {
		return nil, err
	}
	return r.toRecord(fields), nil
}

// toRecord maps fields onto headers (or synthesized col0, col1, ...):
// excess fields become _extra0, _extra1, ...; missing fields are simply
// absent.
func (r *Reader) toRecord(fields []string) map[string]any {
	rec := make(map[string]any, len(fields))
	for i, v := range fields {
		var key string
		switch {
		case i < len(r.headers):
			key = r.headers[i]
		case len(r.headers) > 0:
			key = fmt.Sprintf("_extra%d", i-len(r.headers))
		default:
			key = fmt.Sprintf("col%d", i)
		}
		rec[key] = v
	}
	return rec
}

// peekSampleLines buffers up to n physical lines from br without consuming
// them (via Peek), returning the sampled text for delimiter scoring. The
// caller continues reading from br afterward, so nothing is lost.
func peekSampleLines(br *bufio.Reader, n int) ([]string, error) {
	var lines []string
	var buf []byte
	size := 4096
	for len(lines) < n {
		peeked, err := br.Peek(size)
		// Peek returns as much as is available even on error (e.g. EOF);
		// use what we have.
		text := string(peeked)
		lines = splitLines(text)
		if err == nil && len(lines) < n {
			size *= 2
			if size > 1<<20 {
				break
			}
			continue
		}
		if len(lines) > n {
			lines = lines[:n]
		}
		if err == io.EOF || err == bufio.ErrBufferFull {
			return lines, nil
		}
		return lines, err
	}
	return lines, nil
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	// Drop a possibly-incomplete trailing line (no terminator seen yet).
	if len(lines) > 0 && !strings.HasSuffix(s, "\n") {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// detectDelimiter scores each candidate by column-count consistency and
// field paucity:
// score = n - 5*variance - 2*empty_ratio*n. A candidate that splits no
// sample line into more than one field is not evidence and is skipped.
// Falls back to ',' if fewer than minSampleEvidence lines are available for
// any candidate.
func detectDelimiter(sample []string) byte {
	if len(sample) < minSampleEvidence {
		return ','
	}
	best := byte(',')
	bestScore := -1.0
	for _, d := range candidateDelimiters {
		counts := make([]int, 0, len(sample))
		empty := 0
		total := 0
		for _, line := range sample {
			if line == "" {
				continue
			}
			fields := splitNaive(line, d)
			counts = append(counts, len(fields))
			for _, f := range fields {
				total++
				if f == "" {
					empty++
				}
			}
		}
		if len(counts) < minSampleEvidence {
			continue
		}
		n := float64(len(counts))
		mean := 0.0
		for _, c := range counts {
			mean += float64(c)
		}
		mean /= n
		if mean <= 1 {
			continue
		}
		variance := 0.0
		for _, c := range counts {
			diff := float64(c) - mean
			variance += diff * diff
		}
		variance /= n
		emptyRatio := 0.0
		if total > 0 {
			emptyRatio = float64(empty) / float64(total)
		}
		score := n - 5*variance - 2*emptyRatio*n
		if score > bestScore {
			bestScore = score
			best = d
		}
	}
	return best
}

// splitNaive is a quote-unaware split used only for delimiter scoring,
// where approximate column counts suffice.
func splitNaive(line string, delim byte) []string {
	return strings.Split(line, string(delim))
}

// readRawRow reads one RFC 4180 record: delimiter-separated fields,
// double-quote enclosure with "" as the escaped-quote, and quoted fields
// allowed to span physical lines. A trailing \r before \n is dropped.
func (r *Reader) readRawRow() ([]string, error) {
	fields := r.row[:0]
	var field strings.Builder
	inQuotes := false
	sawAny := false
	overflowed := false

	appendField := func() {
		sawAny = true
		if len(fields) < r.fieldCap {
			fields = append(fields, field.String())
		} else {
			overflowed = true
		}
		field.Reset()
	}

	for {
		ru, _, err := r.br.ReadRune()
		if err != nil {
			if err == io.EOF {
				if field.Len() > 0 || sawAny {
					appendField()
					r.finishRow(overflowed)
					r.row = fields
					return fields, nil
				}
				return nil, io.EOF
			}
			return nil, err
		}

		if inQuotes {
			if ru == '"' {
				next, _, peekErr := r.br.ReadRune()
				if peekErr == nil && next == '"' {
					field.WriteRune('"')
					continue
				}
				if peekErr == nil {
					_ = r.br.UnreadRune()
				}
				inQuotes = false
				continue
			}
			field.WriteRune(ru)
			continue
		}

		switch ru {
		case '"':
			if field.Len() == 0 {
				inQuotes = true
				sawAny = true
				continue
			}
			field.WriteRune(ru)
		case rune(r.delimiter):
			appendField()
		case '\r':
			next, _, peekErr := r.br.ReadRune()
			if peekErr == nil && next != '\n' {
				_ = r.br.UnreadRune()
			}
			appendField()
			r.finishRow(overflowed)
			r.row = fields
			return fields, nil
		case '\n':
			appendField()
			r.finishRow(overflowed)
			r.row = fields
			return fields, nil
		default:
			field.WriteRune(ru)
		}
	}
}

// finishRow advances the line counter and, on the first field-cap
// overflow seen in the stream, emits a single stderr warning -- overflow
// rows are still truncated and returned, not rejected.
func (r *Reader) finishRow(overflowed bool) {
	r.lineNum++
	if overflowed && !r.warnedOverflow {
		r.warnedOverflow = true
		r.logger.Warn("csv row exceeded field cap, extra fields truncated",
			"field_cap", r.fieldCap, "line", r.lineNum)
	}
}
