package registry

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/botassembly/jn/internal/plugin"
)

// SearchRoot is one configured plugin search path and the scope it
// represents, feeding the project > user > system precedence order.
type SearchRoot struct {
	Path  string
	Scope plugin.Scope
}

// WalkerConfig configures a single Walk call over one search root: no
// content loading beyond the header block, no git-tracked-only mode,
// binary detection kept as a cheap pre-filter before header parsing.
type WalkerConfig struct {
	Root        string
	Scope       plugin.Scope
	Cache       *Cache
	Concurrency int
}

// Walker discovers candidate plugin scripts under a search root, parses
// their declarative header blocks (or serves them from cache), and returns
// the resulting metadata: the discovery half of the Plugin Registry.
type Walker struct {
	logger *slog.Logger
}

// NewWalker builds a Walker.
func NewWalker() *Walker {
	return &Walker{logger: slog.Default().With("component", "registry-walker")}
}

// candidate is a file found during the synchronous walk phase, pending
// concurrent header extraction.
type candidate struct {
	path  string
	info  os.FileInfo
	relay string
}

// Walk traverses cfg.Root, applying ignore rules and the naming convention,
// and returns metadata for every recognized plugin script. Header
// extraction for distinct candidates runs concurrently, bounded by
// cfg.Concurrency (defaulting to runtime.NumCPU()); the walk itself is a
// single synchronous filepath.WalkDir pass since directory traversal order
// determines nothing about the result.
func (w *Walker) Walk(ctx context.Context, cfg WalkerConfig) ([]plugin.Meta, error) {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.NumCPU()
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving search root %s: %w", cfg.Root, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			w.logger.Debug("search root does not exist, skipping", "root", root)
			return nil, nil
		}
		return nil, fmt.Errorf("stat search root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("search root %s is not a directory", root)
	}

	ignorer, err := buildIgnorer(root)
	if err != nil {
		return nil, fmt.Errorf("building ignore rules for %s: %w", root, err)
	}

	var candidates []candidate
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Debug("walk error, skipping", "path", path, "error", err)
			return nil
		}
		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil || relPath == "." {
			return nil
		}
		relPath = filepath.ToSlash(relPath)
		isDir := d.IsDir()

		if isDir && d.Name() == ".git" {
			return filepath.SkipDir
		}
		if ignorer.IsIgnored(relPath, isDir) {
			if isDir {
				return filepath.SkipDir
			}
			return nil
		}
		if isDir {
			return nil
		}
		if !IsCandidateFile(path) {
			return nil
		}

		fi, statErr := d.Info()
		if statErr != nil {
			w.logger.Debug("stat error, skipping candidate", "path", relPath, "error", statErr)
			return nil
		}
		isBin, binErr := isBinaryFile(path)
		if binErr == nil && isBin {
			w.logger.Debug("skipping binary-looking candidate", "path", relPath)
			return nil
		}
		candidates = append(candidates, candidate{path: path, info: fi, relay: relPath})
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walking search root %s: %w", root, walkErr)
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].path < candidates[j].path })

	results := make([]plugin.Meta, len(candidates))
	errs := make([]error, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)
	for i, cnd := range candidates {
		i, cnd := i, cnd
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			meta, err := w.resolveCandidate(cnd, cfg.Scope, cfg.Cache)
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = meta
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scanning plugin headers under %s: %w", root, err)
	}

	out := make([]plugin.Meta, 0, len(results))
	for i, m := range results {
		if errs[i] != nil {
			w.logger.Debug("skipping candidate with unparsable header", "path", candidates[i].relay, "error", errs[i])
			continue
		}
		if m.Name == "" {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// resolveCandidate serves cnd's metadata from cache when the key matches
// and the header hash still corroborates, otherwise parses the header live
// and stores the result.
func (w *Walker) resolveCandidate(cnd candidate, scope plugin.Scope, cache *Cache) (plugin.Meta, error) {
	mtime := cnd.info.ModTime().UnixNano()
	size := cnd.info.Size()

	if cache != nil {
		if meta, ok := cache.Lookup(cnd.path, mtime, size); ok {
			_, header, err := peekHeader(cnd.path)
			if err == nil && cache.Verify(cnd.path, mtime, size, header) {
				meta.SourcePath = cnd.path
				meta.SourceScope = scope
				return meta, nil
			}
			w.logger.Debug("cache entry failed header corroboration, re-deriving", "path", cnd.path)
		}
	}

	meta, header, err := ParseHeader(cnd.path)
	if err != nil {
		return plugin.Meta{}, err
	}
	meta.SourcePath = cnd.path
	meta.SourceScope = scope

	if cache != nil {
		cache.Store(cnd.path, mtime, size, meta, header)
	}
	return meta, nil
}

// peekHeader re-reads just the header block, for cache corroboration,
// without decoding or re-validating the metadata. The returned Meta is
// always empty.
func peekHeader(path string) (plugin.Meta, []byte, error) {
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
		return plugin.Meta{}, nil, fmt.Errorf("%s: no header block found", path)
	}
	return plugin.Meta{}, block, nil
}

// buildIgnorer composes the default, .gitignore, and .jnignore sources for
// root. Missing .gitignore/.jnignore files are not an error: the
// hierarchical matchers simply find zero ignore files and match nothing.
func buildIgnorer(root string) (Ignorer, error) {
	git, err := NewGitignoreMatcher(root)
	if err != nil {
		return nil, err
	}
	jn, err := NewJNIgnoreMatcher(root)
	if err != nil {
		return nil, err
	}
	return NewCompositeIgnorer(NewDefaultIgnoreMatcher(), git, jn), nil
}

// isBinaryFile reports whether path looks like binary content, by scanning
// its first 8KB for a null byte. Skipped for .wasm candidates, which are
// binary by nature; ParseHeader then looks for the marker block inside the
// module file itself, as for any other candidate.
func isBinaryFile(path string) (bool, error) {
	if filepath.Ext(path) == ".wasm" {
		return false, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	buf := make([]byte, 8192)
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return false, nil
	}
	for _, b := range buf[:n] {
		if b == 0 {
			return true, nil
		}
	}
	return false, nil
}
