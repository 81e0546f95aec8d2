// Package plugin defines Meta, the declared capability surface every
// plugin exposes, and its role sum type: each plugin is a variant of
// Format | Protocol | Filter | Display | Shell, with a common capability
// set and no inheritance -- dispatch happens exhaustively by tag.
package plugin

import (
	"fmt"
	"regexp"

	"github.com/botassembly/jn/internal/addr"
)

// Role is one of the five plugin variants.
type Role string

const (
	RoleFormat   Role = "format"
	RoleProtocol Role = "protocol"
	RoleFilter   Role = "filter"
	RoleDisplay  Role = "display"
	RoleShell    Role = "shell"
)

// Mode is an operating mode a plugin may support.
type Mode string

const (
	ModeRead    Mode = "read"
	ModeWrite   Mode = "write"
	ModeInspect Mode = "inspect"
	ModeRaw     Mode = "raw"
)

// Runtime selects how the orchestrator spawns the plugin: exec covers the
// documented interpreter+script case, wasm covers self-contained sandboxed
// modules.
type Runtime string

const (
	RuntimeExec Runtime = "exec"
	RuntimeWasm Runtime = "wasm"
)

// Scope identifies which search-path tier discovered a plugin: project
// wins over user, which wins over system.
type Scope int

const (
	ScopeProject Scope = iota
	ScopeUser
	ScopeSystem
)

// String returns the human-readable scope name.
func (s Scope) String() string {
	switch s {
	case ScopeProject:
		return "project"
	case ScopeUser:
		return "user"
	case ScopeSystem:
		return "system"
	default:
		return "unknown"
	}
}

// Meta is the declared, in-band metadata a plugin exposes without being
// executed, except for the optional metadata-inspection invocation (inspect
// mode) a plugin may also support.
type Meta struct {
	Name         string
	Version      string
	Role         Role
	Modes        []Mode
	Matches      []string
	Dependencies []string

	// Runtime and Interpreter together describe how the orchestrator spawns
	// the plugin: Runtime == RuntimeExec (the default) spawns Interpreter
	// with Script as an argument; Runtime == RuntimeWasm loads Script as a
	// WASI module via internal/runtime's wasm backend and Interpreter is
	// ignored.
	Runtime     Runtime
	Interpreter string
	Script      string

	// Defaults are the plugin-declared default configuration values, the
	// lowest-precedence layer in a resolved address's Config merge.
	Defaults []addr.Param

	SourcePath  string
	SourceScope Scope

	compiled []*regexp.Regexp
}

// SupportsMode reports whether the plugin declares support for mode.
func (m Meta) SupportsMode(mode Mode) bool {
	for _, mm := range m.Modes {
		if mm == mode {
			return true
		}
	}
	return false
}

// CompileMatches compiles Matches as anchored regular expressions, caching
// the result. Patterns are always compiled as fully anchored (wrapped in
// ^(?:...)$) regardless of whether the declared pattern already contains
// anchors, since a partial match against an address would be meaningless.
func (m *Meta) CompileMatches() error {
	if len(m.compiled) == len(m.Matches) {
		return nil
	}
	compiled := make([]*regexp.Regexp, 0, len(m.Matches))
	for _, pat := range m.Matches {
		anchored := anchor(pat)
		re, err := regexp.Compile(anchored)
		if err != nil {
			return fmt.Errorf("plugin %s: invalid match pattern %q: %w", m.Name, pat, err)
		}
		compiled = append(compiled, re)
	}
	m.compiled = compiled
	return nil
}

// anchor wraps pat in ^(?:...)$; anchors already inside pat are harmless.
func anchor(pat string) string {
	return "^(?:" + pat + ")$"
}

// MatchLength reports the length of the matched pattern's source text if
// base matches any of the plugin's Matches patterns, for the "longest
// anchored regex match" precedence rule. ok is false if no pattern
// matches. Matches must have been compiled via CompileMatches first; an
// uncompiled Meta always reports no match.
func (m Meta) MatchLength(base string) (length int, ok bool) {
	best := -1
	for i, re := range m.compiled {
		if i >= len(m.Matches) {
			break
		}
		if re.MatchString(base) {
			if l := len(m.Matches[i]); l > best {
				best = l
			}
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

// Handlers is the exhaustive dispatch table for Meta.Dispatch: one callback
// per Role variant. Callers must supply all five, so adding a sixth Role
// later is a compile break here rather than a silent no-op -- exhaustive
// dispatch by tag in place of inheritance.
type Handlers struct {
	Format   func(Meta) error
	Protocol func(Meta) error
	Filter   func(Meta) error
	Display  func(Meta) error
	Shell    func(Meta) error
}

// Dispatch invokes the Handlers entry matching m.Role.
func (m Meta) Dispatch(h Handlers) error {
	switch m.Role {
	case RoleFormat:
		return h.Format(m)
	case RoleProtocol:
		return h.Protocol(m)
	case RoleFilter:
		return h.Filter(m)
	case RoleDisplay:
		return h.Display(m)
	case RoleShell:
		return h.Shell(m)
	default:
		return fmt.Errorf("plugin %s: unrecognized role %q", m.Name, m.Role)
	}
}

// ValidRole reports whether role is one of the five declared variants.
func ValidRole(role Role) bool {
	switch role {
	case RoleFormat, RoleProtocol, RoleFilter, RoleDisplay, RoleShell:
		return true
	default:
		return false
	}
}
