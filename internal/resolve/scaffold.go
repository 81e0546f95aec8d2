package resolve

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

//go:embed templates/*.json
var templateFS embed.FS

// ScaffoldTemplate describes one starter profile template available to
// `jn profiles init`: these never participate in resolution themselves,
// they only seed files LoadProfile later reads.
type ScaffoldTemplate struct {
	Name        string
	Description string
}

var scaffoldTemplates = []ScaffoldTemplate{
	{Name: "base", Description: "Minimal starter descriptor for any plugin type"},
	{Name: "http-api", Description: "HTTP/REST API protocol profile"},
	{Name: "s3-bucket", Description: "S3-compatible object storage profile"},
	{Name: "duckdb", Description: "Local DuckDB database profile"},
}

// ListScaffoldTemplates returns the available templates in display order.
func ListScaffoldTemplates() []ScaffoldTemplate {
	out := make([]ScaffoldTemplate, len(scaffoldTemplates))
	copy(out, scaffoldTemplates)
	return out
}

// RenderScaffold returns the named template's _meta.json content with
// {{project_name}} and {{plugin_name}} placeholders substituted.
func RenderScaffold(name, projectName, pluginName string) (string, error) {
	found := false
	for _, t := range scaffoldTemplates {
		if t.Name == name {
			found = true
			break
		}
	}
	if !found {
		return "", fmt.Errorf("unknown profile template %q", name)
	}

	data, err := templateFS.ReadFile("templates/" + name + ".json")
	if err != nil {
		return "", fmt.Errorf("reading template %q: %w", name, err)
	}

	content := string(data)
	content = strings.ReplaceAll(content, "{{project_name}}", projectName)
	content = strings.ReplaceAll(content, "{{plugin_name}}", pluginName)
	return content, nil
}

// InitScaffold writes a rendered template to <scopeRoot>/profiles/<role>/<namespace>/_meta.json,
// creating the namespace directory if needed. It refuses to overwrite an
// existing descriptor.
func InitScaffold(scopeRoot, role, namespace, template, projectName, pluginName string) (string, error) {
	content, err := RenderScaffold(template, projectName, pluginName)
	if err != nil {
		return "", err
	}

	nsDir := filepath.Join(scopeRoot, "profiles", role, namespace)
	if err := os.MkdirAll(nsDir, 0o755); err != nil {
		return "", fmt.Errorf("creating profile directory %s: %w", nsDir, err)
	}

	metaPath := filepath.Join(nsDir, "_meta.json")
	if _, err := os.Stat(metaPath); err == nil {
		return "", fmt.Errorf("profile descriptor already exists: %s", metaPath)
	}

	if err := os.WriteFile(metaPath, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing profile descriptor: %w", err)
	}
	return metaPath, nil
}
