package jnconfig

import "os"

// Environment variable name constants for JN_ prefixed ambient overrides.
// These configure the CLI itself, not a pipeline's per-address Config.
const (
	// EnvHome overrides the jn home directory (default ~/.jn), which holds
	// jn.toml and the registry cache.
	EnvHome = "JN_HOME"
	// EnvDebug, set to "1", forces debug-level logging regardless of flags.
	EnvDebug = "JN_DEBUG"
	// EnvLogFormat selects "json" or "text" log output.
	EnvLogFormat = "JN_LOG_FORMAT"
	// EnvPluginPath adds colon-separated directories to the plugin search
	// path, ahead of the discovered defaults.
	EnvPluginPath = "JN_PLUGIN_PATH"
	// EnvCacheDir overrides the registry cache directory.
	EnvCacheDir = "JN_CACHE_DIR"
	// EnvNoCache, set to "1", disables the registry cache entirely.
	EnvNoCache = "JN_NO_CACHE"
)

// PluginPathOverride returns the colon-separated directories from
// JN_PLUGIN_PATH, or nil if unset.
func PluginPathOverride() []string {
	v := os.Getenv(EnvPluginPath)
	if v == "" {
		return nil
	}
	return splitPathList(v)
}

// CacheDirOverride returns JN_CACHE_DIR, or "" if unset.
func CacheDirOverride() string {
	return os.Getenv(EnvCacheDir)
}

// CacheDisabled reports whether JN_NO_CACHE is set to "1".
func CacheDisabled() bool {
	return os.Getenv(EnvNoCache) == "1"
}

func splitPathList(v string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(v); i++ {
		if i == len(v) || v[i] == ':' {
			if i > start {
				out = append(out, v[start:i])
			}
			start = i + 1
		}
	}
	return out
}
