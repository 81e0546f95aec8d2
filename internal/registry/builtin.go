package registry

import (
	"github.com/botassembly/jn/internal/plugin"
)

// builtins lists the native Go format plugins shipped alongside jn itself
// (cmd/jn-format-csv, cmd/jn-format-toml). Unlike every other plugin, their
// declarative header isn't scanned from source text -- a compiled binary
// has no parseable header block -- so their Meta is registered here at
// compile time instead. They sit at ScopeSystem, the lowest precedence
// tier, so any discovered script of the same name (a user's own
// jn-format-csv replacement) shadows them.
var builtins = []plugin.Meta{
	{
		Name:        "jn-format-csv",
		Version:     "0.1.0",
		Role:        plugin.RoleFormat,
		Modes:       []plugin.Mode{plugin.ModeRead, plugin.ModeWrite, plugin.ModeInspect},
		Matches:     []string{`.*\.csv$`, `.*~csv$`},
		Runtime:     plugin.RuntimeExec,
		Interpreter: "",
		Script:      "jn-format-csv",
		SourceScope: plugin.ScopeSystem,
	},
	{
		Name:        "jn-format-toml",
		Version:     "0.1.0",
		Role:        plugin.RoleFormat,
		Modes:       []plugin.Mode{plugin.ModeRead, plugin.ModeWrite, plugin.ModeInspect},
		Matches:     []string{`.*\.toml$`, `.*~toml$`},
		Runtime:     plugin.RuntimeExec,
		Interpreter: "",
		Script:      "jn-format-toml",
		SourceScope: plugin.ScopeSystem,
	},
}

// registerBuiltins seeds reg with every entry in builtins not already
// shadowed by a discovered plugin of the same name.
func registerBuiltins(reg *Registry) error {
	for _, m := range builtins {
		if err := m.CompileMatches(); err != nil {
			return err
		}
		if _, exists := reg.byName[m.Name]; exists {
			continue
		}
		reg.byName[m.Name] = m
	}
	return nil
}
