// Package pluginutil provides the small amount of shared plumbing every
// native format plugin binary needs: parsing the invocation contract's
// command line and emitting NDJSON records with a flush per record.
package pluginutil

import "fmt"

// Invocation is a parsed plugin command line: the shape every plugin is
// invoked with is "<interpreter/runtime> <script> --mode
// <read|write|inspect> [--<key> <value>]* [positional]".
type Invocation struct {
	Mode       string
	Params     map[string]string
	Positional []string
}

// ParseArgs parses a plugin's os.Args[1:] into an Invocation. The set of
// --key flags is not known ahead of time (it is whatever a resolved
// Config happened to carry), so this is a small hand-rolled scanner rather
// than a predefined flag set -- pflag and the standard flag package both
// require flags to be declared before parsing, which doesn't fit a plugin
// that accepts arbitrary, address-driven configuration keys.
func ParseArgs(args []string) (Invocation, error) {
	inv := Invocation{Params: map[string]string{}}
	i := 0
	for i < len(args) {
		arg := args[i]
		if len(arg) > 2 && arg[:2] == "--" {
			key := arg[2:]
			if i+1 >= len(args) {
				return Invocation{}, fmt.Errorf("flag --%s missing a value", key)
			}
			val := args[i+1]
			if key == "mode" {
				inv.Mode = val
			} else {
				inv.Params[key] = val
			}
			i += 2
			continue
		}
		inv.Positional = append(inv.Positional, arg)
		i++
	}
	if inv.Mode == "" {
		return Invocation{}, fmt.Errorf("missing required --mode flag")
	}
	return inv, nil
}
