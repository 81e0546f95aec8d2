package runtime

import (
	"bufio"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecProcessEchoesInputToOutput(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	proc, err := NewExecProcess(ctx, Spec{Script: "cat"})
	require.NoError(t, err)
	require.NoError(t, proc.Start(ctx))

	go func() {
		_, _ = proc.Stdin().Write([]byte("hello\n"))
		proc.Stdin().Close()
	}()

	reader := bufio.NewReader(proc.Stdout())
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "hello\n", line)

	code, err := proc.Wait()
	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestExecProcessNonZeroExit(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	proc, err := NewExecProcess(ctx, Spec{Script: "false"})
	require.NoError(t, err)
	require.NoError(t, proc.Start(ctx))
	proc.Stdin().Close()

	code, err := proc.Wait()
	require.NoError(t, err)
	assert.Equal(t, 1, code)
}

func TestExecProcessKill(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	proc, err := NewExecProcess(ctx, Spec{Script: "sleep", Args: []string{"30"}})
	require.NoError(t, err)
	require.NoError(t, proc.Start(ctx))

	require.NoError(t, proc.Kill())
	_, _ = proc.Wait()
}
