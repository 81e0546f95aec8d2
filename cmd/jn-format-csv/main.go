// Command jn-format-csv is the CSV<->NDJSON format plugin: a builtin,
// compiled-in reference plugin registered by internal/registry/builtin.go
// rather than discovered from a declarative header block. It speaks the
// same --mode read|write|inspect invocation contract as any other format
// plugin, implemented directly over internal/codec/csv.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/botassembly/jn/internal/codec/csv"
	"github.com/botassembly/jn/internal/pluginutil"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "jn-format-csv:", err)
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
		return runRead(inv, stdin, stdout)
	case "write":
		return runWrite(inv, stdin, stdout)
	case "inspect":
		return runInspect(stdout)
	default:
		return fmt.Errorf("unsupported mode %q", inv.Mode)
	}
}

func runRead(inv pluginutil.Invocation, stdin io.Reader, stdout io.Writer) error {
	opts := csv.ReadOptions{NoHeader: parseBool(inv.Params["no_header"])}
	if d := inv.Params["delimiter"]; d != "" {
		opts.Delimiter = d[0]
	}
	if capStr := inv.Params["field_cap"]; capStr != "" {
		if n, err := strconv.Atoi(capStr); err == nil {
			opts.FieldCap = n
		}
	}

	r, err := csv.NewReader(stdin, opts)
	if err != nil {
		return fmt.Errorf("opening csv reader: %w", err)
	}

	out := pluginutil.NewRecordWriter(stdout)
	for {
		rec, err := r.ReadRecord()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return out.Emit(pluginutil.ErrorRecord(err.Error()))
		}
		if err := out.Emit(rec); err != nil {
			return err
		}
	}
}

func runWrite(inv pluginutil.Invocation, stdin io.Reader, stdout io.Writer) error {
	records, err := pluginutil.ReadRecords(stdin)
	if err != nil {
		return err
	}

	opts := csv.WriteOptions{}
	if d := inv.Params["delimiter"]; d != "" {
		opts.Delimiter = d[0]
	}
	if oc := inv.Params["on_complex"]; oc != "" {
		opts.OnComplex = csv.OnComplex(oc)
	}

	return csv.NewWriter(opts).WriteAll(stdout, records)
}

func runInspect(stdout io.Writer) error {
	out := pluginutil.NewRecordWriter(stdout)
	return out.Emit(map[string]any{
		"name":    "jn-format-csv",
		"version": "0.1.0",
		"role":    "format",
		"modes":   []string{"read", "write", "inspect"},
		"params": map[string]string{
			"delimiter":  "single character; auto-detected when absent",
			"no_header":  "bool; true treats the first row as data",
			"field_cap":  "int; floor 4096",
			"on_complex": "json|error; write-mode handling of nested values",
		},
	})
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}
