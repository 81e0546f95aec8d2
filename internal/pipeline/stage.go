package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/botassembly/jn/internal/plugin"
	"github.com/botassembly/jn/internal/resolve"
	"github.com/botassembly/jn/internal/runtime"
)

// Build constructs a Pipeline from an ordered list of resolved stages,
// spawning nothing yet -- spawning is Run's job. A Pipeline of N stages
// will have exactly N-1 internal connections once Run wires them.
func Build(ctx context.Context, specs []StageSpec, logger *slog.Logger) (*Pipeline, error) {
	if len(specs) == 0 {
		return nil, NewError("building pipeline", fmt.Errorf("no stages given"))
	}
	if logger == nil {
		logger = slog.Default()
	}

	id := uuid.NewString()
	stages := make([]*PipelineStage, 0, len(specs))
	for i, spec := range specs {
		proc, err := newProcess(ctx, spec.Resolved.Plugin, spec.Resolved.Config, spec.Resolved.Effective, spec.Mode)
		if err != nil {
			// Release any stages already constructed before this one failed.
			for _, s := range stages {
				_ = s.Process.Kill()
			}
			return nil, NewError(fmt.Sprintf("preparing stage %d (%s)", i, spec.Resolved.Plugin.Name), err)
		}
		stages = append(stages, &PipelineStage{
			Name:    spec.Resolved.Plugin.Name,
			Meta:    spec.Resolved.Plugin,
			Mode:    spec.Mode,
			Process: proc,
		})
	}

	return &Pipeline{
		ID:     id,
		Stages: stages,
		logger: logger.With("pipeline_id", id),
	}, nil
}

// newProcess constructs the runtime.Process for one stage's plugin,
// dispatching on its declared Runtime so the child spawns with the
// plugin's interpreter/runtime per its declared metadata.
func newProcess(ctx context.Context, meta plugin.Meta, cfg *resolve.Config, effective string, mode plugin.Mode) (runtime.Process, error) {
	spec := runtime.Spec{
		Interpreter: meta.Interpreter,
		Script:      meta.Script,
		Args:        buildArgs(cfg, effective, mode),
	}

	switch meta.Runtime {
	case plugin.RuntimeWasm:
		return runtime.NewWasmProcess(ctx, spec)
	default:
		return runtime.NewExecProcess(ctx, spec)
	}
}

// buildArgs renders the plugin invocation command line: "--mode
// <read|write|inspect> [--<key> <value>]* [positional]".
func buildArgs(cfg *resolve.Config, effective string, mode plugin.Mode) []string {
	args := []string{"--mode", string(mode)}
	if cfg != nil {
		for _, k := range cfg.Keys() {
			v, ok := cfg.Get(k)
			if !ok {
				continue
			}
			args = append(args, "--"+k, v.String())
		}
	}
	if effective != "" {
		args = append(args, effective)
	}
	return args
}
