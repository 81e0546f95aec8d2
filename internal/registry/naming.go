package registry

import (
	"path/filepath"
	"regexp"
	"strings"
)

// candidateExtensions are the recognized plugin script extensions: one per
// supported interpreter, plus .wasm for the sandboxed runtime backend.
// Narrowed to a fixed set since plugin discovery has no user-configurable
// include/exclude surface.
var candidateExtensions = map[string]bool{
	"py":   true,
	"rb":   true,
	"sh":   true,
	"js":   true,
	"jq":   true,
	"wasm": true,
}

// nameRe matches the fixed naming convention: jn-<role>-<identifier>,
// optionally followed by an extension. Role is checked against the set of
// valid roles at call sites, not in the regex itself, so an unrecognized
// role still counts as a syntactically valid candidate name (and is
// reported once its header is parsed and rejected).
var nameRe = regexp.MustCompile(`^jn-([a-z]+)-([a-zA-Z0-9_.-]+?)(?:\.([a-zA-Z0-9]+))?$`)

// CandidateName reports whether base (a file's base name, no directory
// component) matches the plugin naming convention jn-<role>-<name>[.<ext>],
// and if so returns the declared role segment and file extension (without
// leading dot; empty if the file has none). A candidate with an extension
// outside candidateExtensions is still considered a name match -- callers
// may choose to also require extension validity via IsRecognizedExtension.
func CandidateName(base string) (role string, ext string, ok bool) {
	m := nameRe.FindStringSubmatch(base)
	if m == nil {
		return "", "", false
	}
	return m[1], strings.ToLower(m[3]), true
}

// IsRecognizedExtension reports whether ext (without leading dot, any case)
// is one of the interpreter/runtime extensions the registry knows how to
// dispatch. A candidate with no extension (e.g. a self-contained compiled
// binary) is always accepted; the header-block parse decides the rest.
func IsRecognizedExtension(ext string) bool {
	if ext == "" {
		return true
	}
	return candidateExtensions[strings.ToLower(ext)]
}

// IsCandidateFile applies the full naming-convention test used by the
// walker: base name matches jn-<role>-<name>, and if an extension is
// present it is one this registry knows how to run.
func IsCandidateFile(path string) bool {
	base := filepath.Base(path)
	_, ext, ok := CandidateName(base)
	if !ok {
		return false
	}
	return IsRecognizedExtension(ext)
}
