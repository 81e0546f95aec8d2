package registry

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/botassembly/jn/internal/plugin"
)

// headerBeginMarker and headerEndMarker delimit the declarative metadata
// block every plugin script carries. The block is embedded as line comments so
// it parses under every supported interpreter's native comment syntax
// without ever being executed: the registry strips the leading comment
// token, not the language, so the same two markers work for Python, Ruby,
// shell, JavaScript, and jq source alike.
const (
	headerBeginMarker = "JN-META-BEGIN"
	headerEndMarker   = "JN-META-END"

	// headerScanLimit bounds how far into a file the registry looks for a
	// header block before giving up, so a malformed or header-less script
	// doesn't force a full read.
	headerScanLimit = 4096
)

// commentPrefixes are stripped, in order, from each header line before JSON
// decoding. A line matching none of these is kept as-is, so a bare JSON body
// (no comment leader at all, as a WASM module's companion header would use)
// still parses.
var commentPrefixes = []string{"#", "//", "--", ";"}

// rawHeader is the on-disk shape of the JSON object inside the header
// markers.
type rawHeader struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Role         string   `json:"role"`
	Modes        []string `json:"modes"`
	Matches      []string `json:"matches"`
	Dependencies []string `json:"dependencies"`
	Runtime      string   `json:"runtime"`
	Interpreter  string   `json:"interpreter"`
}

// ParseHeader reads and decodes the declarative metadata block from the
// plugin script at path, without executing it. It returns the raw header
// bytes alongside the decoded Meta so callers can compute a content hash
// over exactly the parsed block (see cache.go).
func ParseHeader(path string) (plugin.Meta, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return plugin.Meta{}, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	block, err := extractHeaderBlock(f)
	if err != nil {
		return plugin.Meta{}, nil, fmt.Errorf("extracting header from %s: %w", path, err)
	}
	if block == nil {
		return plugin.Meta{}, nil, fmt.Errorf("%s: no %s/%s block found in first %d bytes", path, headerBeginMarker, headerEndMarker, headerScanLimit)
	}

	var raw rawHeader
	if err := json.Unmarshal(block, &raw); err != nil {
		return plugin.Meta{}, nil, fmt.Errorf("%s: malformed header JSON: %w", path, err)
	}

	meta, err := raw.toMeta(path)
	if err != nil {
		return plugin.Meta{}, nil, err
	}
	return meta, block, nil
}

// extractHeaderBlock scans r line by line for the marker-delimited block and
// returns the joined, comment-stripped body ready for JSON decoding. Returns
// nil, nil if no block is found within headerScanLimit bytes.
func extractHeaderBlock(r io.Reader) ([]byte, error) {
	scanner := bufio.NewScanner(io.LimitReader(r, headerScanLimit))
	var (
		inBlock bool
		lines   []string
	)
	for scanner.Scan() {
		line := scanner.Text()
		stripped := stripComment(line)
		switch {
		case !inBlock && strings.Contains(stripped, headerBeginMarker):
			inBlock = true
		case inBlock && strings.Contains(stripped, headerEndMarker):
			body := "{" + strings.Join(lines, "\n") + "}"
			return []byte(body), nil
		case inBlock:
			lines = append(lines, stripped)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning for header block: %w", err)
	}
	return nil, nil
}

// stripComment removes the first matching comment prefix and surrounding
// whitespace from line.
func stripComment(line string) string {
	trimmed := strings.TrimSpace(line)
	for _, prefix := range commentPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, prefix))
		}
	}
	return trimmed
}

// toMeta validates raw and converts it to a plugin.Meta. Source path and
// scope are left for the caller (the walker knows the search-path tier).
func (raw rawHeader) toMeta(path string) (plugin.Meta, error) {
	if raw.Name == "" {
		return plugin.Meta{}, fmt.Errorf("%s: header missing required field %q", path, "name")
	}
	role := plugin.Role(raw.Role)
	if !plugin.ValidRole(role) {
		return plugin.Meta{}, fmt.Errorf("%s: header declares unrecognized role %q", path, raw.Role)
	}

	modes := make([]plugin.Mode, 0, len(raw.Modes))
	for _, m := range raw.Modes {
		modes = append(modes, plugin.Mode(m))
	}

	rt := plugin.RuntimeExec
	if raw.Runtime == string(plugin.RuntimeWasm) {
		rt = plugin.RuntimeWasm
	}

	meta := plugin.Meta{
		Name:         raw.Name,
		Version:      raw.Version,
		Role:         role,
		Modes:        modes,
		Matches:      raw.Matches,
		Dependencies: raw.Dependencies,
		Runtime:      rt,
		Interpreter:  raw.Interpreter,
		Script:       path,
	}
	if err := meta.CompileMatches(); err != nil {
		return plugin.Meta{}, err
	}
	return meta, nil
}
