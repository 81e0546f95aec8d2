package pipeline

import (
	"github.com/botassembly/jn/internal/plugin"
	"github.com/botassembly/jn/internal/resolve"
)

// NewStageSpec is a small convenience constructor for the common case of
// building a StageSpec from a single resolved address and mode, used by the
// CLI commands (cat, put, filter, merge) when assembling their stage list.
func NewStageSpec(resolved *resolve.ResolvedAddress, mode plugin.Mode) StageSpec {
	return StageSpec{Resolved: resolved, Mode: mode}
}
