package registry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/zeebo/xxh3"

	"github.com/botassembly/jn/internal/plugin"
)

// cacheKey identifies a cached PluginMeta entry by {path, mtime, size}.
type cacheKey struct {
	Path  string `json:"path"`
	Mtime int64  `json:"mtime"`
	Size  int64  `json:"size"`
}

// cacheEntry is one stored row: the decoded metadata plus a header-hash
// corroboration check. HeaderHash is never a cache key component; it only
// guards against a corrupted value surviving a key match.
type cacheEntry struct {
	Key        cacheKey    `json:"key"`
	Meta       plugin.Meta `json:"meta"`
	HeaderHash uint64      `json:"header_hash"`
}

// cacheFile is the on-disk JSON shape: a flat list of entries. A map keyed
// by path would collide across scope roots sharing a relative layout, so
// entries are looked up by the full {path, mtime, size} tuple instead.
type cacheFile struct {
	Version int          `json:"version"`
	Entries []cacheEntry `json:"entries"`
}

const cacheFileVersion = 1

// Cache is the registry's on-disk metadata cache. A cache hit skips
// decoding and validating the header block: the walker re-reads only the
// raw block, to check its hash (see Verify).
// Corruption is non-fatal: Load logs and returns an empty cache rather than
// failing discovery.
type Cache struct {
	path string

	mu      sync.Mutex
	entries map[cacheKey]cacheEntry
	dirty   bool
	logger  *slog.Logger
}

// LoadCache opens the cache file at path, tolerating a missing or corrupt
// file by starting from an empty cache: corruption causes silent fallback
// to live rediscovery rather than a hard failure.
func LoadCache(path string) *Cache {
	c := &Cache{
		path:    path,
		entries: make(map[cacheKey]cacheEntry),
		logger:  slog.Default().With("component", "registry-cache"),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Debug("cache file unreadable, starting cold", "path", path, "error", err)
		}
		return c
	}

	var file cacheFile
	if err := json.Unmarshal(data, &file); err != nil {
		c.logger.Warn("cache file corrupt, falling back to live rediscovery", "path", path, "error", err)
		return c
	}
	if file.Version != cacheFileVersion {
		c.logger.Debug("cache file version mismatch, starting cold", "path", path, "found", file.Version, "want", cacheFileVersion)
		return c
	}

	for _, entry := range file.Entries {
		c.entries[entry.Key] = entry
	}
	return c
}

// Lookup returns the cached metadata for the script at path with the given
// mtime (unix nanoseconds) and size, if present. It does not check the
// header hash; callers do that with Verify.
func (c *Cache) Lookup(path string, mtimeNano, size int64) (plugin.Meta, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey{Path: path, Mtime: mtimeNano, Size: size}
	entry, ok := c.entries[key]
	if !ok {
		return plugin.Meta{}, false
	}
	return entry.Meta, true
}

// Verify reports whether the cached entry's header hash matches freshHeader.
// Callers pass a freshly read header block after Lookup succeeds and before
// trusting the cached metadata: an extra corruption check on top of the
// {path, mtime, size} key.
func (c *Cache) Verify(path string, mtimeNano, size int64, freshHeader []byte) bool {
	c.mu.Lock()
	entry, ok := c.entries[cacheKey{Path: path, Mtime: mtimeNano, Size: size}]
	c.mu.Unlock()
	if !ok {
		return false
	}
	return entry.HeaderHash == xxh3.Hash(freshHeader)
}

// Store records meta for path, keyed by {path, mtime, size}, along with an
// xxh3 hash of the raw header block.
func (c *Cache) Store(path string, mtimeNano, size int64, meta plugin.Meta, header []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey{Path: path, Mtime: mtimeNano, Size: size}
	c.entries[key] = cacheEntry{Key: key, Meta: meta, HeaderHash: xxh3.Hash(header)}
	c.dirty = true
}

// Flush persists the cache to disk if it has unsaved changes. Writes happen
// only during discovery, serialized by the caller so concurrent cache
// writes from parallel pipeline stages never race.
func (c *Cache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}

	file := cacheFile{Version: cacheFileVersion, Entries: make([]cacheEntry, 0, len(c.entries))}
	for _, entry := range c.entries {
		file.Entries = append(file.Entries, entry)
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding registry cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("installing cache file: %w", err)
	}
	c.dirty = false
	return nil
}
