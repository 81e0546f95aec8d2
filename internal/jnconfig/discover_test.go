package jnconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJNHome_UsesEnvOverride(t *testing.T) {
	t.Setenv(EnvHome, "/custom/jn-home")
	home, err := JNHome()
	require.NoError(t, err)
	assert.Equal(t, "/custom/jn-home", home)
}

func TestJNHome_DefaultsUnderUserHome(t *testing.T) {
	os.Unsetenv(EnvHome)
	userHome, err := os.UserHomeDir()
	require.NoError(t, err)

	home, err := JNHome()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(userHome, ".jn"), home)
}

func TestGlobalConfigPath_JoinsHomeAndFilename(t *testing.T) {
	t.Setenv(EnvHome, "/custom/jn-home")
	path, err := GlobalConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/custom/jn-home", "jn.toml"), path)
}

func TestDefaultCacheDir_JoinsHomeAndCache(t *testing.T) {
	t.Setenv(EnvHome, "/custom/jn-home")
	dir, err := DefaultCacheDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/custom/jn-home", "cache"), dir)
}

func TestLoadGlobalConfig_MissingFileIsNotAnError(t *testing.T) {
	t.Setenv(EnvHome, t.TempDir())

	prefs, err := LoadGlobalConfig()
	require.NoError(t, err)
	assert.Equal(t, Preferences{}, prefs)
}

func TestLoadGlobalConfig_DecodesPresentFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv(EnvHome, home)

	contents := `
log_level = "debug"
log_format = "json"
plugin_paths = ["/opt/jn/plugins", "/home/me/.jn/plugins"]
cache_dir = "/var/cache/jn"
`
	require.NoError(t, os.WriteFile(filepath.Join(home, "jn.toml"), []byte(contents), 0o644))

	prefs, err := LoadGlobalConfig()
	require.NoError(t, err)
	assert.Equal(t, "debug", prefs.LogLevel)
	assert.Equal(t, "json", prefs.LogFormat)
	assert.Equal(t, []string{"/opt/jn/plugins", "/home/me/.jn/plugins"}, prefs.PluginPaths)
	assert.Equal(t, "/var/cache/jn", prefs.CacheDir)
}

func TestLoadGlobalConfig_MalformedTOMLReturnsError(t *testing.T) {
	home := t.TempDir()
	t.Setenv(EnvHome, home)
	require.NoError(t, os.WriteFile(filepath.Join(home, "jn.toml"), []byte("not = [valid"), 0o644))

	_, err := LoadGlobalConfig()
	assert.Error(t, err)
}
