package pluginutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs_ModeAndParams(t *testing.T) {
	t.Parallel()

	inv, err := ParseArgs([]string{"--mode", "read", "--delimiter", ";", "--no_header", "true"})
	require.NoError(t, err)

	assert.Equal(t, "read", inv.Mode)
	assert.Equal(t, ";", inv.Params["delimiter"])
	assert.Equal(t, "true", inv.Params["no_header"])
	assert.Empty(t, inv.Positional)
}

func TestParseArgs_PositionalArgsPreserved(t *testing.T) {
	t.Parallel()

	inv, err := ParseArgs([]string{"--mode", "write", "out.csv"})
	require.NoError(t, err)

	assert.Equal(t, []string{"out.csv"}, inv.Positional)
}

func TestParseArgs_MissingModeIsError(t *testing.T) {
	t.Parallel()

	_, err := ParseArgs([]string{"--delimiter", ","})
	assert.Error(t, err)
}

func TestParseArgs_FlagMissingValueIsError(t *testing.T) {
	t.Parallel()

	_, err := ParseArgs([]string{"--mode", "read", "--delimiter"})
	assert.Error(t, err)
}
