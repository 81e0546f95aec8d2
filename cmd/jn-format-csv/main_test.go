package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ReadModeEmitsOneRecordPerRow(t *testing.T) {
	t.Parallel()

	in := strings.NewReader("name,age\nalice,30\nbob,25\n")
	var out bytes.Buffer

	err := run([]string{"--mode", "read"}, in, &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"name":"alice"`)
	assert.Contains(t, lines[1], `"name":"bob"`)
}

func TestRun_ReadModeHonorsDelimiterParam(t *testing.T) {
	t.Parallel()

	in := strings.NewReader("name;age\nalice;30\n")
	var out bytes.Buffer

	err := run([]string{"--mode", "read", "--delimiter", ";"}, in, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"age":"30"`)
}

func TestRun_WriteModeRendersUnionHeader(t *testing.T) {
	t.Parallel()

	in := strings.NewReader(`{"a":1,"b":2}` + "\n" + `{"a":3}` + "\n")
	var out bytes.Buffer

	err := run([]string{"--mode", "write"}, in, &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out.String(), "\r\n"), "\n")
	require.GreaterOrEqual(t, len(lines), 1)
	assert.Contains(t, lines[0], "a")
	assert.Contains(t, lines[0], "b")
}

func TestRun_InspectModeEmitsSchema(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	err := run([]string{"--mode", "inspect"}, strings.NewReader(""), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"name":"jn-format-csv"`)
}

func TestRun_UnsupportedModeIsError(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	err := run([]string{"--mode", "bogus"}, strings.NewReader(""), &out)
	assert.Error(t, err)
}

func TestRun_MissingModeIsError(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	err := run([]string{}, strings.NewReader(""), &out)
	assert.Error(t, err)
}
