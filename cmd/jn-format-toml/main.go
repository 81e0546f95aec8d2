// Command jn-format-toml is the TOML<->NDJSON format plugin: a builtin,
// compiled-in reference plugin registered by internal/registry/builtin.go.
// TOML's grammar can't stream across table boundaries, so both modes
// operate on a single whole document: read mode parses stdin into exactly
// one NDJSON record; write mode expects exactly one input record and
// renders it as a complete TOML document.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/botassembly/jn/internal/codec/toml"
	"github.com/botassembly/jn/internal/pluginutil"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "jn-format-toml:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	inv, err := pluginutil.ParseArgs(args)
	if err != nil {
		return err
	}

	switch inv.Mode {
	case "read":
		return runRead(stdin, stdout)
	case "write":
		return runWrite(stdin, stdout)
	case "inspect":
		return runInspect(stdout)
	default:
		return fmt.Errorf("unsupported mode %q", inv.Mode)
	}
}

func runRead(stdin io.Reader, stdout io.Writer) error {
	table, err := toml.Parse(stdin)
	out := pluginutil.NewRecordWriter(stdout)
	if err != nil {
		return out.Emit(pluginutil.ErrorRecord(err.Error()))
	}
	return out.Emit(table)
}

func runWrite(stdin io.Reader, stdout io.Writer) error {
	records, err := pluginutil.ReadRecords(stdin)
	if err != nil {
		return err
	}
	if len(records) != 1 {
		return fmt.Errorf("toml write mode expects exactly one input record, got %d", len(records))
	}
	return toml.Write(stdout, records[0])
}

func runInspect(stdout io.Writer) error {
	out := pluginutil.NewRecordWriter(stdout)
	return out.Emit(map[string]any{
		"name":    "jn-format-toml",
		"version": "0.1.0",
		"role":    "format",
		"modes":   []string{"read", "write", "inspect"},
		"params":  map[string]string{},
	})
}
