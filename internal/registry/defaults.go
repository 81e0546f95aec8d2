package registry

import (
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// DefaultIgnorePatterns are directories never worth descending into while
// scanning a plugin search root: VCS metadata, dependency trees, and build
// output -- the directories that can plausibly appear inside a plugin
// search path (a project's ./.jn/plugins tree, typically checked into the
// same repository as node_modules/vendor/etc.).
var DefaultIgnorePatterns = []string{
	".git/",
	"node_modules/",
	"vendor/",
	"__pycache__/",
	"dist/",
	"build/",
	".DS_Store",
}

// DefaultIgnoreMatcher compiles DefaultIgnorePatterns into an Ignorer.
type DefaultIgnoreMatcher struct {
	matcher *gitignore.GitIgnore
}

// NewDefaultIgnoreMatcher compiles the built-in patterns. This never fails:
// the patterns are compile-time constants.
func NewDefaultIgnoreMatcher() *DefaultIgnoreMatcher {
	return &DefaultIgnoreMatcher{matcher: gitignore.CompileIgnoreLines(DefaultIgnorePatterns...)}
}

// IsIgnored reports whether path matches a built-in ignore pattern.
func (d *DefaultIgnoreMatcher) IsIgnored(path string, isDir bool) bool {
	return matchesPath(d.matcher, path, isDir)
}

// matchesPath normalizes path and evaluates it against m, appending a
// trailing slash for directories so that directory-only patterns match.
func matchesPath(m *gitignore.GitIgnore, path string, isDir bool) bool {
	normalized := filepath.ToSlash(path)
	normalized = strings.TrimPrefix(normalized, "./")
	if normalized == "" || normalized == "." {
		return false
	}
	if isDir && !strings.HasSuffix(normalized, "/") {
		normalized += "/"
	}
	return m.MatchesPath(normalized)
}

var _ Ignorer = (*DefaultIgnoreMatcher)(nil)
