// Package runtime implements the two plugin execution backends the
// orchestrator dispatches to, keyed by plugin.Meta.Runtime: exec spawns an
// OS subprocess; wasm loads a WASI module in-process via wazero. Both
// satisfy Process so the orchestrator's pipe-wiring and reaping logic is
// identical regardless of backend.
package runtime

import (
	"context"
	"io"
)

// Process is the narrow interface the orchestrator drives a spawned plugin
// through: obtain its stdin/stdout ends before starting, start it, wait for
// it to finish, or kill it on pipeline cancellation.
type Process interface {
	// Stdin returns the writer the orchestrator feeds into the plugin's
	// input. It is never nil: for the pipeline's first stage the
	// orchestrator copies the initial stdin into it, or closes it at once
	// when there is none.
	Stdin() io.WriteCloser

	// Stdout returns the reader the orchestrator drains the plugin's
	// output from. It is never nil: the final stage's output is copied to
	// the pipeline's final stdout, or drained and discarded when there is
	// none.
	Stdout() io.ReadCloser

	// Start launches the plugin. Must be called after Stdin/Stdout wiring
	// is complete (pipes connected to the neighboring stage) and before
	// Wait.
	Start(ctx context.Context) error

	// Wait blocks until the plugin exits, returning its exit code and any
	// spawn/wait error. A non-zero exit code with a nil error is a normal
	// (if unsuccessful) termination, not a spawn failure.
	Wait() (exitCode int, err error)

	// Kill forcibly terminates the plugin, used during pipeline
	// cancellation: cooperating stages notice their pipe close on their
	// own; Kill is the backstop for ones that don't.
	Kill() error
}

// Spec describes what to launch, independent of backend.
type Spec struct {
	// Interpreter is the executable to run (exec backend only). Empty
	// means the script itself is directly executable.
	Interpreter string

	// Script is the plugin's script/module path.
	Script string

	// Args are appended after the script path: "--mode <mode> [--<key>
	// <value>]* [positional]".
	Args []string

	// Env is the additional environment passed to the plugin, beyond the
	// orchestrator's own environment.
	Env []string
}
