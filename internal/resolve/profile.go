package resolve

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/botassembly/jn/internal/plugin"
)

// ProfileScope is a profile descriptor search root, in precedence order:
// project, user, system.
type ProfileScope struct {
	Root  string
	Scope plugin.Scope
}

// profileRoles enumerates every role directory a namespace might live
// under, since an address like "@myapi/users" does not itself name a role;
// the role comes from whichever _meta.json is found first.
var profileRoles = []plugin.Role{
	plugin.RoleProtocol,
	plugin.RoleFormat,
	plugin.RoleFilter,
	plugin.RoleDisplay,
	plugin.RoleShell,
}

// metaDescriptor is the decoded shape of a namespace's _meta.json: type,
// base_url/command, defaults.
type metaDescriptor struct {
	Type     string            `json:"type"`
	BaseURL  string            `json:"base_url"`
	Command  string            `json:"command"`
	Defaults map[string]string `json:"defaults"`
}

// componentDescriptor is the decoded shape of a component file
// (<component>.json). sql/.jq component files are read as opaque text and
// surfaced under the "query" config key rather than parsed as
// JSON, since their own grammar belongs to the consuming plugin.
type componentDescriptor struct {
	Defaults map[string]string `json:"defaults"`
}

// ProfileDescriptor is the resolved result of locating a "@namespace/component"
// address: which scope/role it was found under, the namespace-level meta,
// and the component-level defaults merged into it.
type ProfileDescriptor struct {
	Namespace string
	Component string
	Scope     plugin.Scope
	Role      plugin.Role
	Meta      metaDescriptor
	Defaults  *Config
}

// splitProfileAddress splits a profile Address.Base ("@namespace/component")
// into its namespace and component segments.
func splitProfileAddress(base string) (namespace, component string, ok bool) {
	if !strings.HasPrefix(base, "@") {
		return "", "", false
	}
	rest := base[1:]
	slash := strings.Index(rest, "/")
	if slash < 0 {
		return "", "", false
	}
	return rest[:slash], rest[slash+1:], true
}

// LoadProfile locates the namespace/component descriptor named by base
// across scopes in precedence order. It returns ProfileMissingError only if
// no scope has the namespace's _meta.json; a missing component file is not
// an error, and the namespace defaults are returned alone.
func LoadProfile(scopes []ProfileScope, base string) (*ProfileDescriptor, error) {
	namespace, component, ok := splitProfileAddress(base)
	if !ok {
		return nil, fmt.Errorf("not a profile address: %q", base)
	}

	for _, scope := range scopes {
		for _, role := range profileRoles {
			nsDir := filepath.Join(scope.Root, "profiles", string(role), namespace)
			metaPath := filepath.Join(nsDir, "_meta.json")
			metaBytes, err := os.ReadFile(metaPath)
			if err != nil {
				continue
			}
			var meta metaDescriptor
			if err := json.Unmarshal(metaBytes, &meta); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", metaPath, err)
			}

			defaults := NewConfig()
			for k, v := range meta.Defaults {
				defaults.SetRaw(k, v)
			}

			compPath, compErr := findComponentFile(nsDir, component)
			if compErr == nil {
				compDefaults, err := loadComponentDefaults(compPath)
				if err != nil {
					return nil, err
				}
				defaults.Merge(compDefaults)
			}

			return &ProfileDescriptor{
				Namespace: namespace,
				Component: component,
				Scope:     scope.Scope,
				Role:      role,
				Meta:      meta,
				Defaults:  defaults,
			}, nil
		}
	}

	return nil, &ProfileMissingError{Namespace: namespace, Component: component}
}

// findComponentFile locates <component>.{json,sql,jq} inside nsDir.
func findComponentFile(nsDir, component string) (string, error) {
	for _, ext := range []string{".json", ".sql", ".jq"} {
		path := filepath.Join(nsDir, component+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no component file for %q in %s", component, nsDir)
}

// loadComponentDefaults reads a component file's configuration. JSON
// components decode their "defaults" object; .sql/.jq components are opaque
// text stored under the "query" key, since their grammar is the consuming
// plugin's concern, not the resolver's.
func loadComponentDefaults(path string) (*Config, error) {
	cfg := NewConfig()
	if strings.HasSuffix(path, ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		var comp componentDescriptor
		if err := json.Unmarshal(data, &comp); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		for k, v := range comp.Defaults {
			cfg.SetRaw(k, v)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	cfg.Set("query", Value{Kind: KindString, Str: string(data)})
	return cfg, nil
}

// EffectiveTarget returns the base URL or command the plugin should
// ultimately invoke, from the namespace-level _meta.json.
func (p *ProfileDescriptor) EffectiveTarget() string {
	if p.Meta.BaseURL != "" {
		return p.Meta.BaseURL
	}
	return p.Meta.Command
}
