package resolve

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botassembly/jn/internal/addr"
	"github.com/botassembly/jn/internal/plugin"
	"github.com/botassembly/jn/internal/registry"
)

func writeTestPlugin(t *testing.T, dir, name, role, modes, matches string) {
	t.Helper()
	content := "# JN-META-BEGIN\n" +
		"# \"name\": \"" + name + "\",\n" +
		"# \"version\": \"1.0.0\",\n" +
		"# \"role\": \"" + role + "\",\n" +
		"# \"modes\": [" + modes + "],\n" +
		"# \"matches\": [" + matches + "]\n" +
		"# JN-META-END\n"
	path := filepath.Join(dir, "jn-"+role+"-"+name+".py")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o755))
}

func buildRegistry(t *testing.T, dir string) *registry.Registry {
	t.Helper()
	reg, err := registry.Discover(context.Background(), []registry.SearchRoot{
		{Path: dir, Scope: plugin.ScopeProject},
	}, filepath.Join(t.TempDir(), "cache.json"))
	require.NoError(t, err)
	return reg
}

func TestResolveFormatOverride(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestPlugin(t, dir, "csv", "format", `"read","write"`, `".*\\.csv$"`)
	writeTestPlugin(t, dir, "toml", "format", `"read","write"`, `".*\\.toml$"`)
	reg := buildRegistry(t, dir)

	r := NewResolver(reg, nil)
	resolved, err := r.Resolve(addr.Address{Base: "data.txt", FormatOverride: "toml"}, plugin.ModeRead)
	require.NoError(t, err)
	assert.Equal(t, "toml", resolved.Plugin.Name)
}

func TestResolveFormatOverrideNotFound(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestPlugin(t, dir, "csv", "format", `"read"`, `".*\\.csv$"`)
	reg := buildRegistry(t, dir)

	r := NewResolver(reg, nil)
	_, err := r.Resolve(addr.Address{Base: "data.txt", FormatOverride: "xml"}, plugin.ModeRead)
	var notFound *PluginNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestResolveProtocol(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestPlugin(t, dir, "s3", "protocol", `"read"`, `"s3"`)
	reg := buildRegistry(t, dir)

	r := NewResolver(reg, nil)
	resolved, err := r.Resolve(addr.Address{Base: "s3://bucket/key", Kind: addr.KindProtocol}, plugin.ModeRead)
	require.NoError(t, err)
	assert.Equal(t, "s3", resolved.Plugin.Name)
}

func TestResolveProtocolUnsupported(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestPlugin(t, dir, "s3", "protocol", `"read"`, `"s3"`)
	reg := buildRegistry(t, dir)

	r := NewResolver(reg, nil)
	_, err := r.Resolve(addr.Address{Base: "https://example.com/x", Kind: addr.KindProtocol}, plugin.ModeRead)
	var unsupported *ProtocolUnsupportedError
	assert.ErrorAs(t, err, &unsupported)
}

func TestResolveModeUnsupported(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestPlugin(t, dir, "csv", "format", `"read"`, `".*\\.csv$"`)
	reg := buildRegistry(t, dir)

	r := NewResolver(reg, nil)
	_, err := r.Resolve(addr.Address{Base: "data.csv", Kind: addr.KindFile}, plugin.ModeWrite)
	var unsupported *ModeUnsupportedError
	assert.ErrorAs(t, err, &unsupported)
}

func TestResolveByMatch(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestPlugin(t, dir, "csv", "format", `"read"`, `".*\\.csv$"`)
	reg := buildRegistry(t, dir)

	r := NewResolver(reg, nil)
	resolved, err := r.Resolve(addr.Address{Base: "events/data.csv", Kind: addr.KindFile}, plugin.ModeRead)
	require.NoError(t, err)
	assert.Equal(t, "csv", resolved.Plugin.Name)
}

func TestResolveDirectPlugin(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestPlugin(t, dir, "grep", "shell", `"raw"`, `""`)
	reg := buildRegistry(t, dir)

	r := NewResolver(reg, nil)
	resolved, err := r.Resolve(addr.Address{Base: "@grep", Kind: addr.KindPlugin}, plugin.ModeRaw)
	require.NoError(t, err)
	assert.Equal(t, "grep", resolved.Plugin.Name)
}

func TestResolveProfile(t *testing.T) {
	t.Parallel()
	pluginDir := t.TempDir()
	writeTestPlugin(t, pluginDir, "s3", "protocol", `"read"`, `"s3"`)
	reg := buildRegistry(t, pluginDir)

	profileRoot := t.TempDir()
	nsDir := filepath.Join(profileRoot, "profiles", "protocol", "mybucket")
	require.NoError(t, os.MkdirAll(nsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(nsDir, "_meta.json"), []byte(`{
		"type": "s3",
		"base_url": "s3://mybucket",
		"defaults": {"region": "us-east-1"}
	}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(nsDir, "users.json"), []byte(`{
		"defaults": {"prefix": "users/", "token": "Bearer ${TEST_TOKEN}"}
	}`), 0o644))

	r := NewResolver(reg, []ProfileScope{{Root: profileRoot, Scope: plugin.ScopeProject}})
	r.LookupEnv = func(name string) (string, bool) {
		if name == "TEST_TOKEN" {
			return "abc123", true
		}
		return "", false
	}

	resolved, err := r.Resolve(addr.Address{Base: "@mybucket/users", Kind: addr.KindProfile}, plugin.ModeRead)
	require.NoError(t, err)
	assert.Equal(t, "s3", resolved.Plugin.Name)
	assert.Equal(t, "s3://mybucket", resolved.Effective)

	region, ok := resolved.Config.Get("region")
	require.True(t, ok)
	assert.Equal(t, "us-east-1", region.Str)

	prefix, ok := resolved.Config.Get("prefix")
	require.True(t, ok)
	assert.Equal(t, "users/", prefix.Str)

	token, ok := resolved.Config.Get("token")
	require.True(t, ok)
	assert.Equal(t, "Bearer abc123", token.Str)
}

func TestResolveProfileMissing(t *testing.T) {
	t.Parallel()
	pluginDir := t.TempDir()
	reg := buildRegistry(t, pluginDir)

	r := NewResolver(reg, []ProfileScope{{Root: t.TempDir(), Scope: plugin.ScopeProject}})
	_, err := r.Resolve(addr.Address{Base: "@nope/thing", Kind: addr.KindProfile}, plugin.ModeRead)
	var missing *ProfileMissingError
	assert.ErrorAs(t, err, &missing)
}

func TestResolveConfigMergeOrderAddressParamsWin(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestPlugin(t, dir, "csv", "format", `"read"`, `".*\\.csv$"`)
	reg := buildRegistry(t, dir)

	r := NewResolver(reg, nil)
	resolved, err := r.Resolve(addr.Address{
		Base:       "data.csv",
		Kind:       addr.KindFile,
		Parameters: []addr.Param{{Key: "delimiter", Value: ";"}},
	}, plugin.ModeRead)
	require.NoError(t, err)

	v, ok := resolved.Config.Get("delimiter")
	require.True(t, ok)
	assert.Equal(t, ";", v.Str)
}
