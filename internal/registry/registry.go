package registry

import (
	"context"
	"fmt"
	"sort"

	"github.com/botassembly/jn/internal/plugin"
)

// AmbiguousMatchError reports that more than one plugin's Matches pattern
// tied for longest match, within the same scope, against the same address
// base -- e.g. two format
// plugins both declaring a match including .*\.csv$ -- so resolution fails
// naming every tied candidate rather than guessing.
type AmbiguousMatchError struct {
	Base       string
	Candidates []plugin.Meta
}

func (e *AmbiguousMatchError) Error() string {
	names := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		names[i] = c.Name
	}
	return fmt.Sprintf("ambiguous match for %q: %v all match with equal precedence", e.Base, names)
}

// NotFoundError reports that no plugin could be resolved for a role/match
// query.
type NotFoundError struct {
	Role  plugin.Role
	Query string
}

func (e *NotFoundError) Error() string {
	if e.Role == "" {
		return fmt.Sprintf("no plugin found for %q", e.Query)
	}
	return fmt.Sprintf("no %s plugin found for %q", e.Role, e.Query)
}

// Registry holds every plugin discovered across all configured search
// roots, retaining each entry's source scope so resolution can apply
// project > user > system precedence.
type Registry struct {
	byName map[string]plugin.Meta
	byRole map[plugin.Role][]plugin.Meta
	cache  *Cache
}

// Discover walks every root in order, builds a single Cache at cachePath
// (flushed once at the end), and returns a populated Registry. Entries from
// earlier roots (higher-precedence scopes) shadow same-named entries from
// later roots.
func Discover(ctx context.Context, roots []SearchRoot, cachePath string) (*Registry, error) {
	cache := LoadCache(cachePath)
	walker := NewWalker()

	reg := &Registry{
		byName: make(map[string]plugin.Meta),
		byRole: make(map[plugin.Role][]plugin.Meta),
		cache:  cache,
	}

	for _, root := range roots {
		metas, err := walker.Walk(ctx, WalkerConfig{Root: root.Path, Scope: root.Scope, Cache: cache})
		if err != nil {
			return nil, fmt.Errorf("discovering plugins under %s: %w", root.Path, err)
		}
		for _, m := range metas {
			if existing, ok := reg.byName[m.Name]; ok && existing.SourceScope <= m.SourceScope {
				continue
			}
			reg.byName[m.Name] = m
		}
	}

	if err := registerBuiltins(reg); err != nil {
		return nil, fmt.Errorf("registering builtin plugins: %w", err)
	}

	for _, m := range reg.byName {
		reg.byRole[m.Role] = append(reg.byRole[m.Role], m)
	}
	for role := range reg.byRole {
		sort.Slice(reg.byRole[role], func(i, j int) bool {
			return reg.byRole[role][i].Name < reg.byRole[role][j].Name
		})
	}

	if err := cache.Flush(); err != nil {
		return nil, fmt.Errorf("flushing registry cache: %w", err)
	}
	return reg, nil
}

// ByName returns the plugin registered under name, if any.
func (r *Registry) ByName(name string) (plugin.Meta, bool) {
	m, ok := r.byName[name]
	return m, ok
}

// Role returns every plugin discovered for role, sorted by name for
// deterministic iteration (e.g. `jn plugins list`).
func (r *Registry) Role(role plugin.Role) []plugin.Meta {
	return r.byRole[role]
}

// Resolve finds the plugin of the given role whose Matches best matches
// base, applying "longest anchored regex match" precedence. Among
// equally-long matches the plugin from the higher-precedence scope
// (project, then user, then system) wins; a tie left within one scope is an
// AmbiguousMatchError. No match at all is a NotFoundError.
func (r *Registry) Resolve(role plugin.Role, base string) (plugin.Meta, error) {
	candidates := r.byRole[role]

	var (
		best       plugin.Meta
		bestLength = -1
		tied       []plugin.Meta
	)
	for _, c := range candidates {
		length, ok := c.MatchLength(base)
		if !ok {
			continue
		}
		switch {
		case length > bestLength || (length == bestLength && c.SourceScope < best.SourceScope):
			bestLength = length
			best = c
			tied = []plugin.Meta{c}
		case length == bestLength && c.SourceScope == best.SourceScope:
			tied = append(tied, c)
		}
	}

	if bestLength < 0 {
		return plugin.Meta{}, &NotFoundError{Role: role, Query: base}
	}
	if len(tied) > 1 {
		return plugin.Meta{}, &AmbiguousMatchError{Base: base, Candidates: tied}
	}
	return best, nil
}

// ResolveAny applies the same "longest anchored regex match" precedence as
// Resolve, but across every plugin regardless of role. Used for the final
// "else (file, glob, stdio)" resolution step, since a bare address may be
// claimed by a format, filter, or display plugin alike.
func (r *Registry) ResolveAny(base string) (plugin.Meta, error) {
	var (
		best       plugin.Meta
		bestLength = -1
		tied       []plugin.Meta
	)
	for _, m := range r.byName {
		length, ok := m.MatchLength(base)
		if !ok {
			continue
		}
		switch {
		case length > bestLength || (length == bestLength && m.SourceScope < best.SourceScope):
			bestLength = length
			best = m
			tied = []plugin.Meta{m}
		case length == bestLength && m.SourceScope == best.SourceScope:
			tied = append(tied, m)
		}
	}

	if bestLength < 0 {
		return plugin.Meta{}, &NotFoundError{Query: base}
	}
	if len(tied) > 1 {
		sort.Slice(tied, func(i, j int) bool { return tied[i].Name < tied[j].Name })
		return plugin.Meta{}, &AmbiguousMatchError{Base: base, Candidates: tied}
	}
	return best, nil
}

// Count returns the total number of distinct plugins known to the
// registry, across all roles.
func (r *Registry) Count() int {
	return len(r.byName)
}
