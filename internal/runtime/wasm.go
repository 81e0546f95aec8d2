package runtime

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
)

// WasmProcess runs a plugin as a sandboxed WASI module via wazero, for
// plugin.Meta.Runtime == RuntimeWasm. Unlike ExecProcess there is no OS
// subprocess: the module runs in-process on a goroutine, communicating
// through io.Pipe ends that stand in for stdin/stdout.
type WasmProcess struct {
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
	spec     Spec

	// moduleStdin/moduleStdout are the ends wazero's ModuleConfig reads
	// from and writes to. orchStdin/orchStdout are the opposite ends the
	// Process interface exposes to the orchestrator.
	moduleStdin  *io.PipeReader
	moduleStdout *io.PipeWriter
	orchStdin    *io.PipeWriter
	orchStdout   *io.PipeReader

	done chan wasmResult
}

type wasmResult struct {
	exitCode int
	err      error
}

// NewWasmProcess compiles the module at spec.Script (relative to the
// orchestrator's working directory) and prepares its I/O plumbing. The
// module is not yet running; call Start.
func NewWasmProcess(ctx context.Context, spec Spec) (*WasmProcess, error) {
	data, err := os.ReadFile(spec.Script)
	if err != nil {
		return nil, fmt.Errorf("reading wasm module %s: %w", spec.Script, err)
	}

	rt := wazero.NewRuntime(ctx)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("instantiating WASI for %s: %w", spec.Script, err)
	}

	compiled, err := rt.CompileModule(ctx, data)
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("compiling wasm module %s: %w", spec.Script, err)
	}

	moduleStdin, orchStdin := io.Pipe()
	orchStdout, moduleStdout := io.Pipe()

	return &WasmProcess{
		runtime:      rt,
		compiled:     compiled,
		spec:         spec,
		moduleStdin:  moduleStdin,
		moduleStdout: moduleStdout,
		orchStdin:    orchStdin,
		orchStdout:   orchStdout,
		done:         make(chan wasmResult, 1),
	}, nil
}

// Stdin returns the write end the orchestrator feeds plugin input into.
func (p *WasmProcess) Stdin() io.WriteCloser { return p.orchStdin }

// Stdout returns the read end the orchestrator drains plugin output from.
func (p *WasmProcess) Stdout() io.ReadCloser { return p.orchStdout }

// Start instantiates the compiled module on a background goroutine, wired
// to the pipe ends prepared in NewWasmProcess.
func (p *WasmProcess) Start(ctx context.Context) error {
	args := append([]string{p.spec.Script}, p.spec.Args...)
	cfg := wazero.NewModuleConfig().
		WithStdin(p.moduleStdin).
		WithStdout(p.moduleStdout).
		WithStderr(os.Stderr).
		WithArgs(args...)
	for _, kv := range p.spec.Env {
		if k, v, ok := splitEnvPair(kv); ok {
			cfg = cfg.WithEnv(k, v)
		}
	}

	go func() {
		_, err := p.runtime.InstantiateModule(ctx, p.compiled, cfg)
		p.moduleStdout.Close()

		exitCode := 0
		if err != nil {
			var exitErr *sys.ExitError
			if asExitError(err, &exitErr) {
				exitCode = int(exitErr.ExitCode())
				err = nil
			}
		}
		p.done <- wasmResult{exitCode: exitCode, err: err}
	}()
	return nil
}

// Wait blocks until the module's goroutine finishes.
func (p *WasmProcess) Wait() (int, error) {
	r := <-p.done
	return r.exitCode, r.err
}

// Kill tears down the wazero runtime, aborting the running module.
func (p *WasmProcess) Kill() error {
	return p.runtime.Close(context.Background())
}

// splitEnvPair splits a "KEY=VALUE" environment string, as used by
// ExecProcess's os.Environ()-style Env field, into wazero's WithEnv(key,
// value) form.
func splitEnvPair(kv string) (key, value string, ok bool) {
	for i := 0; i < len(kv); i++ {
		if kv[i] == '=' {
			return kv[:i], kv[i+1:], true
		}
	}
	return "", "", false
}

// asExitError reports whether err is a *sys.ExitError, storing it in target
// on success. A small helper so Start doesn't need a second import-only
// errors.As call site.
func asExitError(err error, target **sys.ExitError) bool {
	if e, ok := err.(*sys.ExitError); ok {
		*target = e
		return true
	}
	return false
}

var _ Process = (*WasmProcess)(nil)
