package pipeline

import (
	"context"
	"io"
	"sync"
)

// Run spawns every stage, wires their stdio together, and blocks until all
// stages have been reaped: spawn protocol, backpressure-by-OS-pipe, and
// broken-pipe-as-normal-termination all happen here.
//
// initialStdin feeds the first stage (nil means the first stage gets
// immediate EOF on its stdin, the common case for a pure source plugin).
// finalStdout receives the last stage's output (nil discards it, useful for
// `put`-only invocations where the last stage is the pipeline's sink).
func (p *Pipeline) Run(ctx context.Context, initialStdin io.Reader, finalStdout io.Writer) (*Result, error) {
	n := len(p.Stages)

	for i, stage := range p.Stages {
		if err := stage.Process.Start(ctx); err != nil {
			p.logger.Error("stage spawn failed", "stage", stage.Name, "index", i, "err", err)
			p.cancelFrom(0, i)
			return nil, NewSpawnError(stage.Name, err)
		}
	}
	p.logger.Info("pipeline spawned", "stages", n)

	var wg sync.WaitGroup

	// Wire the boundary ends first: initial_stdin into stage 0, the last
	// stage's stdout into final_stdout. The parent must close every
	// endpoint it does not itself need -- pumpInto and pumpOut both close
	// their src/dst ends once the copy is done.
	wg.Add(1)
	go func() {
		defer wg.Done()
		pumpInto(p.Stages[0], initialStdin)
	}()

	// Internal connections: stage i's stdout feeds stage i+1's stdin.
	for i := 0; i < n-1; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p.pump(p.Stages[i], p.Stages[i+1])
		}(i)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		pumpOut(p.Stages[n-1], finalStdout)
	}()

	// Reap every stage concurrently; reaping order doesn't matter.
	var reapWg sync.WaitGroup
	reapWg.Add(n)
	for _, stage := range p.Stages {
		go func(s *PipelineStage) {
			defer reapWg.Done()
			p.reap(s)
		}(stage)
	}

	// Cancel the whole pipeline if the caller's context is cancelled
	// (SIGINT, exit code 130) before stages finish.
	done := make(chan struct{})
	go func() {
		reapWg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		p.Cancel("context cancelled")
		<-done
	}

	wg.Wait()

	return p.buildResult(ctx), nil
}

// pumpInto copies src into stage's stdin, closing the stdin write end when
// done so the stage sees EOF. If src is nil, the stdin is closed
// immediately -- the stage gets EOF right away, which is correct for a
// read-mode source plugin that ignores stdin.
func pumpInto(stage *PipelineStage, src io.Reader) {
	w := stage.Process.Stdin()
	if src != nil {
		_, _ = io.Copy(w, src)
	}
	_ = w.Close()
}

// pumpOut copies the last stage's stdout into dst. If dst is nil, output is
// discarded (still drained, so the stage isn't blocked writing to a full
// pipe that nobody reads).
func pumpOut(stage *PipelineStage, dst io.Writer) {
	r := stage.Process.Stdout()
	if dst == nil {
		dst = io.Discard
	}
	_, _ = io.Copy(dst, r)
	_ = r.Close()
}

// pump copies from upstream's stdout into downstream's stdin. When the
// write to downstream fails (downstream has already exited and closed its
// stdin -- the "head" case of the pipeline's backpressure handling), pump
// stops reading and closes upstream's stdout read end. Closing that end is
// what actually delivers broken-pipe to the upstream process on its next
// write: termination here is purely a consequence of pipe closure, never an
// explicit signal.
//
// Conversely, once the copy finishes because upstream reached EOF
// naturally, pump closes downstream's stdin so downstream sees EOF in turn.
func (p *Pipeline) pump(upstream, downstream *PipelineStage) {
	w := downstream.Process.Stdin()
	r := upstream.Process.Stdout()

	_, err := io.Copy(w, r)
	_ = w.Close()
	_ = r.Close()
	if err != nil {
		// The copy stopped before upstream's EOF, so the orchestrator, not
		// the plugin, closed upstream's stdout.
		upstream.markClosedStdout()
	}
}

// reap blocks on stage.Process.Wait and records the outcome.
func (p *Pipeline) reap(stage *PipelineStage) {
	code, err := stage.Process.Wait()
	stage.mu.Lock()
	stage.exitCode = code
	stage.exitErr = err
	stage.reaped = true
	stage.mu.Unlock()
	p.logger.Debug("stage reaped", "stage", stage.Name, "exit_code", code, "err", err)
}

// markClosedStdout records that the orchestrator (rather than the plugin
// itself) closed this stage's stdout read end, so a subsequent non-zero
// exit from this stage can be recognized as broken-pipe-induced rather than
// a genuine failure.
func (s *PipelineStage) markClosedStdout() {
	s.mu.Lock()
	s.closedStdout = true
	s.mu.Unlock()
}

// Cancel tears the pipeline down: every stage's stdio ends are closed and
// every still-running process is killed. Run calls it only when the
// caller's context is cancelled; a genuine stage failure does not trigger
// it, and the remaining stages run until they exit on their own.
func (p *Pipeline) Cancel(reason string) {
	p.mu.Lock()
	if p.cancelled {
		p.mu.Unlock()
		return
	}
	p.cancelled = true
	p.mu.Unlock()

	p.logger.Info("pipeline cancelled", "reason", reason)
	for _, stage := range p.Stages {
		_ = stage.Process.Stdin().Close()
		_ = stage.Process.Stdout().Close()
		_ = stage.Process.Kill()
		stage.markClosedStdout()
	}
}

// cancelFrom kills stages [start, end) after a spawn failure partway
// through Build/Run: all already-spawned stages are cancelled (pipes
// closed, statuses reaped).
func (p *Pipeline) cancelFrom(start, end int) {
	for i := start; i < end; i++ {
		stage := p.Stages[i]
		_ = stage.Process.Stdin().Close()
		_ = stage.Process.Stdout().Close()
		_ = stage.Process.Kill()
		_, _ = stage.Process.Wait()
	}
}

// buildResult assembles the final Result from each stage's reaped status,
// masking broken-pipe-induced exits: a broken-pipe exit in any non-final
// stage counts as normal termination when the downstream stage has
// already exited successfully.
func (p *Pipeline) buildResult(ctx context.Context) *Result {
	statuses := make([]StageStatus, len(p.Stages))
	overall := ExitSuccess

	if ctx.Err() != nil {
		overall = ExitInterrupt
	}

	for i, stage := range p.Stages {
		stage.mu.Lock()
		code, err, brokenPipe := stage.exitCode, stage.exitErr, stage.closedStdout && stage.exitCode != 0
		stage.mu.Unlock()

		statuses[i] = StageStatus{
			Name:       stage.Name,
			ExitCode:   code,
			Err:        err,
			BrokenPipe: brokenPipe,
		}

		failed := err != nil || (code != 0 && !brokenPipe)
		if failed && overall == ExitSuccess {
			overall = ExitError
		}
	}

	return &Result{ExitCode: overall, Stages: statuses}
}
