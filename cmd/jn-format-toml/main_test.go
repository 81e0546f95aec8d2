package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ReadModeEmitsWholeDocumentAsOneRecord(t *testing.T) {
	t.Parallel()

	in := strings.NewReader("title = \"demo\"\n\n[owner]\nname = \"alice\"\n")
	var out bytes.Buffer

	err := run([]string{"--mode", "read"}, in, &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"title":"demo"`)
	assert.Contains(t, lines[0], `"owner"`)
}

func TestRun_ReadModeMalformedInputEmitsErrorRecord(t *testing.T) {
	t.Parallel()

	in := strings.NewReader("this is not = valid [[toml\n")
	var out bytes.Buffer

	err := run([]string{"--mode", "read"}, in, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"_error":true`)
}

func TestRun_WriteModeRendersSingleRecordAsDocument(t *testing.T) {
	t.Parallel()

	in := strings.NewReader(`{"title":"demo"}` + "\n")
	var out bytes.Buffer

	err := run([]string{"--mode", "write"}, in, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), `title = "demo"`)
}

func TestRun_WriteModeRejectsMultipleRecords(t *testing.T) {
	t.Parallel()

	in := strings.NewReader(`{"a":1}` + "\n" + `{"b":2}` + "\n")
	var out bytes.Buffer

	err := run([]string{"--mode", "write"}, in, &out)
	assert.Error(t, err)
}

func TestRun_WriteModeRejectsZeroRecords(t *testing.T) {
	t.Parallel()

	in := strings.NewReader("")
	var out bytes.Buffer

	err := run([]string{"--mode", "write"}, in, &out)
	assert.Error(t, err)
}

func TestRun_InspectModeEmitsSchema(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	err := run([]string{"--mode", "inspect"}, strings.NewReader(""), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"name":"jn-format-toml"`)
}

func TestRun_UnsupportedModeIsError(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	err := run([]string{"--mode", "bogus"}, strings.NewReader(""), &out)
	assert.Error(t, err)
}
