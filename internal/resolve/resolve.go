package resolve

import (
	"os"
	"strings"

	"github.com/botassembly/jn/internal/addr"
	"github.com/botassembly/jn/internal/plugin"
	"github.com/botassembly/jn/internal/registry"
)

// ResolvedAddress is the product of resolution: the input Address, the
// selected plugin Meta, a merged Config, and a possibly rewritten effective
// target (URL or command) to hand to the orchestrator.
type ResolvedAddress struct {
	Address   addr.Address
	Plugin    plugin.Meta
	Config    *Config
	Effective string
}

// Resolver ties together a plugin Registry and a set of profile descriptor
// search scopes to implement address resolution.
type Resolver struct {
	Registry      *registry.Registry
	ProfileScopes []ProfileScope
	// LookupEnv resolves ${NAME} placeholders during config merge; defaults
	// to os.LookupEnv when nil.
	LookupEnv func(string) (string, bool)
}

// NewResolver builds a Resolver over reg and scopes.
func NewResolver(reg *registry.Registry, scopes []ProfileScope) *Resolver {
	return &Resolver{Registry: reg, ProfileScopes: scopes, LookupEnv: os.LookupEnv}
}

// Resolve runs the six-step resolution algorithm: format override, protocol
// scheme, profile descriptor, bare plugin name, pattern match, then config
// merge and mode assertion.
func (r *Resolver) Resolve(a addr.Address, mode plugin.Mode) (*ResolvedAddress, error) {
	switch {
	case a.FormatOverride != "":
		return r.resolveFormatOverride(a, mode)
	case a.Kind == addr.KindProtocol:
		return r.resolveProtocol(a, mode)
	case a.Kind == addr.KindProfile:
		return r.resolveProfile(a, mode)
	case a.Kind == addr.KindPlugin:
		return r.resolvePlugin(a, mode)
	default:
		return r.resolveByMatch(a, mode)
	}
}

// resolveFormatOverride implements step 1: an explicit format override
// always wins over any regex-match precedence (see DESIGN.md's Open
// Question decision (b)).
func (r *Resolver) resolveFormatOverride(a addr.Address, mode plugin.Mode) (*ResolvedAddress, error) {
	m, ok := r.Registry.ByName(a.FormatOverride)
	if !ok {
		return nil, &PluginNotFoundError{Name: a.FormatOverride}
	}
	if err := assertMode(m, mode); err != nil {
		return nil, err
	}
	return r.finalize(a, m, nil, a.Base)
}

// resolveProtocol implements step 2: extract the scheme and look up a
// protocol plugin whose matches accept it.
func (r *Resolver) resolveProtocol(a addr.Address, mode plugin.Mode) (*ResolvedAddress, error) {
	scheme := schemeOf(a.Base)
	m, err := r.Registry.Resolve(plugin.RoleProtocol, scheme)
	if err != nil {
		if _, ok := err.(*registry.NotFoundError); ok {
			return nil, &ProtocolUnsupportedError{Scheme: scheme}
		}
		return nil, err
	}
	if err := assertMode(m, mode); err != nil {
		return nil, err
	}
	return r.finalize(a, m, nil, a.Base)
}

// resolveProfile implements step 3: read the profile descriptor, identify
// the plugin of the profile's declared type, merge profile defaults into
// the config, and rewrite the effective target.
func (r *Resolver) resolveProfile(a addr.Address, mode plugin.Mode) (*ResolvedAddress, error) {
	desc, err := LoadProfile(r.ProfileScopes, a.Base)
	if err != nil {
		return nil, err
	}

	m, ok := r.Registry.ByName(desc.Meta.Type)
	if !ok {
		candidates := r.Registry.Role(desc.Role)
		if len(candidates) != 1 {
			return nil, &ProfileMissingError{Namespace: desc.Namespace, Component: desc.Component}
		}
		m = candidates[0]
	}
	if err := assertMode(m, mode); err != nil {
		return nil, err
	}
	return r.finalize(a, m, desc.Defaults, desc.EffectiveTarget())
}

// resolvePlugin implements step 4: a bare "@name" address invokes the named
// plugin directly.
func (r *Resolver) resolvePlugin(a addr.Address, mode plugin.Mode) (*ResolvedAddress, error) {
	name := strings.TrimPrefix(a.Base, "@")
	m, ok := r.Registry.ByName(name)
	if !ok {
		return nil, &PluginNotFoundError{Name: name}
	}
	if err := assertMode(m, mode); err != nil {
		return nil, err
	}
	return r.finalize(a, m, nil, a.Base)
}

// resolveByMatch implements step 5: match address.base against every
// plugin's declared patterns, applying registry precedence. Used for file,
// glob, and stdio addresses.
func (r *Resolver) resolveByMatch(a addr.Address, mode plugin.Mode) (*ResolvedAddress, error) {
	m, err := r.Registry.ResolveAny(a.Base)
	if err != nil {
		return nil, err
	}
	if err := assertMode(m, mode); err != nil {
		return nil, err
	}
	return r.finalize(a, m, nil, a.Base)
}

// finalize implements step 6 (mode already asserted by callers) and the
// config merge: plugin defaults -> profile component defaults ->
// address.parameters, later overriding earlier, then ${NAME} expansion
// against the process environment.
func (r *Resolver) finalize(a addr.Address, m plugin.Meta, profileDefaults *Config, effective string) (*ResolvedAddress, error) {
	cfg := NewConfig()
	for _, d := range m.Defaults {
		cfg.SetRaw(d.Key, d.Value)
	}
	cfg.Merge(profileDefaults)
	for _, p := range a.Parameters {
		cfg.SetRaw(p.Key, p.Value)
	}

	lookup := r.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	cfg.ExpandEnv(lookup)

	return &ResolvedAddress{Address: a, Plugin: m, Config: cfg, Effective: effective}, nil
}

// assertMode implements step 6's assertion that the selected plugin
// supports the requested mode.
func assertMode(m plugin.Meta, mode plugin.Mode) error {
	if !m.SupportsMode(mode) {
		return &ModeUnsupportedError{Plugin: m.Name, Mode: string(mode)}
	}
	return nil
}

// schemeOf extracts the scheme segment ("s3" from "s3://bucket/key") from a
// protocol-kind address base.
func schemeOf(base string) string {
	if idx := strings.Index(base, "://"); idx >= 0 {
		return base[:idx]
	}
	return base
}
