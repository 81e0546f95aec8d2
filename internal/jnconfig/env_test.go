package jnconfig

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPluginPathOverride(t *testing.T) {
	t.Run("unset returns nil", func(t *testing.T) {
		os.Unsetenv(EnvPluginPath)
		assert.Nil(t, PluginPathOverride())
	})

	t.Run("splits on colon", func(t *testing.T) {
		t.Setenv(EnvPluginPath, "/a/plugins:/b/plugins")
		assert.Equal(t, []string{"/a/plugins", "/b/plugins"}, PluginPathOverride())
	})

	t.Run("ignores empty segments", func(t *testing.T) {
		t.Setenv(EnvPluginPath, "/a/plugins::/b/plugins:")
		assert.Equal(t, []string{"/a/plugins", "/b/plugins"}, PluginPathOverride())
	})
}

func TestCacheDirOverride(t *testing.T) {
	t.Setenv(EnvCacheDir, "/tmp/jn-cache")
	assert.Equal(t, "/tmp/jn-cache", CacheDirOverride())
}

func TestCacheDisabled(t *testing.T) {
	t.Run("default false", func(t *testing.T) {
		os.Unsetenv(EnvNoCache)
		assert.False(t, CacheDisabled())
	})

	t.Run("set to 1", func(t *testing.T) {
		t.Setenv(EnvNoCache, "1")
		assert.True(t, CacheDisabled())
	})
}
