package resolve

import "fmt"

// PluginNotFoundError reports that address.format_override (or a direct
// plugin address) named a plugin the registry does not know about.
type PluginNotFoundError struct {
	Name string
}

func (e *PluginNotFoundError) Error() string {
	return fmt.Sprintf("plugin not found: %q", e.Name)
}

// ProtocolUnsupportedError reports that no protocol plugin's matches accept
// the address's scheme.
type ProtocolUnsupportedError struct {
	Scheme string
}

func (e *ProtocolUnsupportedError) Error() string {
	return fmt.Sprintf("unsupported protocol scheme: %q", e.Scheme)
}

// ProfileMissingError reports that a profile address's namespace or
// component could not be resolved to a descriptor on disk.
type ProfileMissingError struct {
	Namespace string
	Component string
}

func (e *ProfileMissingError) Error() string {
	if e.Component == "" {
		return fmt.Sprintf("profile namespace not found: %q", e.Namespace)
	}
	return fmt.Sprintf("profile component not found: %q/%q", e.Namespace, e.Component)
}

// ModeUnsupportedError reports that the resolved plugin does not declare
// support for the requested mode.
type ModeUnsupportedError struct {
	Plugin string
	Mode   string
}

func (e *ModeUnsupportedError) Error() string {
	return fmt.Sprintf("plugin %q does not support mode %q", e.Plugin, e.Mode)
}
