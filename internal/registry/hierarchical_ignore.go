package registry

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// hierarchicalIgnoreMatcher loads and evaluates ignore-file patterns
// hierarchically: every directory under root may contribute its own ignore
// file, and a path is ignored if any ancestor's file matches it.
// Parameterized by filename so the same implementation serves both
// .gitignore and .jnignore.
type hierarchicalIgnoreMatcher struct {
	root     string
	filename string
	matchers map[string]*gitignore.GitIgnore
	dirs     []string
	logger   *slog.Logger
}

func newHierarchicalIgnoreMatcher(rootDir, filename, component string) (*hierarchicalIgnoreMatcher, error) {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("resolving root path %s: %w", rootDir, err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat root path %s: %w", absRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path %s is not a directory", absRoot)
	}

	m := &hierarchicalIgnoreMatcher{
		root:     absRoot,
		filename: filename,
		matchers: make(map[string]*gitignore.GitIgnore),
		logger:   slog.Default().With("component", component),
	}
	if err := m.discover(); err != nil {
		return nil, fmt.Errorf("discovering %s files in %s: %w", filename, absRoot, err)
	}
	return m, nil
}

func (m *hierarchicalIgnoreMatcher) discover() error {
	err := filepath.WalkDir(m.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			m.logger.Debug("skipping unreadable path", "path", path, "error", err)
			return filepath.SkipDir
		}
		if d.IsDir() && d.Name() == ".git" {
			return filepath.SkipDir
		}
		if d.IsDir() || d.Name() != m.filename {
			return nil
		}

		dirPath := filepath.Dir(path)
		relDir, err := filepath.Rel(m.root, dirPath)
		if err != nil {
			m.logger.Debug("skipping, cannot compute relative path", "path", path, "error", err)
			return nil
		}
		compiled, err := gitignore.CompileIgnoreFile(path)
		if err != nil {
			m.logger.Debug("skipping unreadable ignore file", "path", path, "error", err)
			return nil
		}
		if relDir == "" {
			relDir = "."
		}
		m.matchers[relDir] = compiled
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking directory tree: %w", err)
	}

	m.dirs = make([]string, 0, len(m.matchers))
	for dir := range m.matchers {
		m.dirs = append(m.dirs, dir)
	}
	sort.Strings(m.dirs)
	return nil
}

// IsIgnored reports whether path is matched by any loaded ignore file whose
// directory is an ancestor of path.
func (m *hierarchicalIgnoreMatcher) IsIgnored(path string, isDir bool) bool {
	normalized := filepath.ToSlash(path)
	normalized = strings.TrimPrefix(normalized, "./")
	if normalized == "" || normalized == "." {
		return false
	}
	matchPath := normalized
	if isDir && !strings.HasSuffix(matchPath, "/") {
		matchPath += "/"
	}

	for _, dir := range m.dirs {
		matcher := m.matchers[dir]
		if dir != "." {
			prefix := dir + "/"
			if !strings.HasPrefix(normalized, prefix) {
				continue
			}
		}
		relPath := matchPath
		if dir != "." {
			relPath = strings.TrimPrefix(matchPath, dir+"/")
		}
		if matcher.MatchesPath(relPath) {
			return true
		}
	}
	return false
}

// PatternCount returns the number of ignore files loaded.
func (m *hierarchicalIgnoreMatcher) PatternCount() int {
	return len(m.matchers)
}

// GitignoreMatcher evaluates .gitignore rules, honored when a plugin search
// root lives inside a git checkout.
type GitignoreMatcher struct{ *hierarchicalIgnoreMatcher }

// NewGitignoreMatcher builds a GitignoreMatcher rooted at rootDir.
func NewGitignoreMatcher(rootDir string) (*GitignoreMatcher, error) {
	m, err := newHierarchicalIgnoreMatcher(rootDir, ".gitignore", "gitignore")
	if err != nil {
		return nil, err
	}
	return &GitignoreMatcher{m}, nil
}

// JNIgnoreMatcher evaluates .jnignore rules: tool-specific ignore patterns
// for plugin discovery, independent of .gitignore.
type JNIgnoreMatcher struct{ *hierarchicalIgnoreMatcher }

// NewJNIgnoreMatcher builds a JNIgnoreMatcher rooted at rootDir.
func NewJNIgnoreMatcher(rootDir string) (*JNIgnoreMatcher, error) {
	m, err := newHierarchicalIgnoreMatcher(rootDir, ".jnignore", "jnignore")
	if err != nil {
		return nil, err
	}
	return &JNIgnoreMatcher{m}, nil
}

var (
	_ Ignorer = (*GitignoreMatcher)(nil)
	_ Ignorer = (*JNIgnoreMatcher)(nil)
)
