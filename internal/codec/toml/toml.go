// Package toml implements the TOML<->NDJSON streaming codec. The parser is
// hand-written over the byte stream rather than delegating to a TOML
// library, since TOML's grammar needs lookahead, type inference, and
// table/array-of-table bookkeeping that a generic decode-into-struct
// library wouldn't expose at the granularity this codec needs.
package toml

import "fmt"

// ParseError reports a TOML grammar violation located by line number.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}
