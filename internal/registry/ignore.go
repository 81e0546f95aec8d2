// Package registry implements the plugin registry: discovering candidate
// plugin scripts under configured search paths, extracting their declared
// metadata without executing their main body, and caching the result.
package registry

// Ignorer reports whether a candidate path should be excluded from plugin
// discovery. path is relative to the search root being walked, using
// forward slashes; isDir indicates whether path is a directory (needed for
// directory-only patterns).
type Ignorer interface {
	IsIgnored(path string, isDir bool) bool
}

// CompositeIgnorer chains multiple Ignorer sources (built-in defaults,
// .gitignore, .jnignore); a path is ignored if any chained source matches
// it.
type CompositeIgnorer struct {
	ignorers []Ignorer
}

// NewCompositeIgnorer builds a CompositeIgnorer over the given sources. Nil
// sources are skipped so callers can pass optional matchers unconditionally.
func NewCompositeIgnorer(ignorers ...Ignorer) *CompositeIgnorer {
	filtered := make([]Ignorer, 0, len(ignorers))
	for _, ig := range ignorers {
		if ig != nil {
			filtered = append(filtered, ig)
		}
	}
	return &CompositeIgnorer{ignorers: filtered}
}

// IsIgnored reports whether any chained Ignorer matches path.
func (c *CompositeIgnorer) IsIgnored(path string, isDir bool) bool {
	for _, ig := range c.ignorers {
		if ig.IsIgnored(path, isDir) {
			return true
		}
	}
	return false
}

var _ Ignorer = (*CompositeIgnorer)(nil)
