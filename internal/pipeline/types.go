// Package pipeline's types.go defines the DTOs shared by Build/Run/Cancel:
// StageSpec (input), PipelineStage and Pipeline (internal state), and
// Result/StageStatus (output).
package pipeline

import (
	"log/slog"
	"sync"

	"github.com/botassembly/jn/internal/plugin"
	"github.com/botassembly/jn/internal/resolve"
	"github.com/botassembly/jn/internal/runtime"
)

// ExitCode represents the process exit code returned by the jn CLI.
type ExitCode int

const (
	// ExitSuccess indicates the pipeline completed successfully.
	ExitSuccess ExitCode = 0

	// ExitError indicates any non-broken-pipe stage failure.
	ExitError ExitCode = 1

	// ExitBadAddress indicates invalid address syntax or a missing plugin.
	ExitBadAddress ExitCode = 2

	// ExitInterrupt indicates the pipeline was cancelled by SIGINT.
	ExitInterrupt ExitCode = 130
)

// StageSpec is the input to Build: one resolved address plus the mode it
// should run in (a ResolvedAddress alone doesn't say whether this occurrence
// is being read from or written to -- the same plugin can appear in either
// role across different commands).
type StageSpec struct {
	Resolved *resolve.ResolvedAddress
	Mode     plugin.Mode
}

// PipelineStage is one spawned subprocess within a Pipeline: its plugin
// metadata, the runtime.Process backing it (exec or wasm), and its reaped
// status once Wait returns.
type PipelineStage struct {
	Name    string
	Meta    plugin.Meta
	Mode    plugin.Mode
	Process runtime.Process

	mu sync.Mutex
	// closedStdout records whether the orchestrator itself closed this
	// stage's Stdout to unblock reaping -- see orchestrator.go's pump for
	// why this distinguishes a genuine failure from a masked broken pipe.
	closedStdout bool

	exitCode int
	exitErr  error
	reaped   bool
}

// StageStatus is the externally visible result of one stage, returned as
// part of Result.
type StageStatus struct {
	Name       string
	ExitCode   int
	Err        error
	BrokenPipe bool
}

// Result is the aggregate outcome of Run: the overall process exit code
// plus a per-stage breakdown.
type Result struct {
	ExitCode ExitCode
	Stages   []StageStatus
}

// Pipeline is the built, not-yet-run (or currently running) collection of
// stages produced by Build. Exactly N-1 internal connections exist between
// N stages.
type Pipeline struct {
	ID     string
	Stages []*PipelineStage

	logger *slog.Logger

	mu        sync.Mutex
	cancelled bool
}
