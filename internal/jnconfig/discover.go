package jnconfig

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Preferences is the decoded shape of the global jn.toml file. Every field
// is an ambient CLI default; none of it is consulted by a pipeline's
// address resolution.
type Preferences struct {
	LogLevel    string   `toml:"log_level"`
	LogFormat   string   `toml:"log_format"`
	PluginPaths []string `toml:"plugin_paths"`
	CacheDir    string   `toml:"cache_dir"`
}

// JNHome returns the jn home directory: JN_HOME if set, otherwise
// ~/.jn.
func JNHome() (string, error) {
	if home := os.Getenv(EnvHome); home != "" {
		return home, nil
	}
	dir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("user home dir: %w", err)
	}
	return filepath.Join(dir, ".jn"), nil
}

// GlobalConfigPath returns $JN_HOME/jn.toml without checking existence.
func GlobalConfigPath() (string, error) {
	home, err := JNHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "jn.toml"), nil
}

// DefaultCacheDir returns $JN_HOME/cache, the registry cache location
// absent an explicit override.
func DefaultCacheDir() (string, error) {
	home, err := JNHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "cache"), nil
}

// LoadGlobalConfig reads and decodes the global preferences file. A
// missing file is not an error; it returns a zero-value Preferences.
func LoadGlobalConfig() (Preferences, error) {
	path, err := GlobalConfigPath()
	if err != nil {
		return Preferences{}, err
	}

	var prefs Preferences
	if _, statErr := os.Stat(path); statErr != nil {
		if os.IsNotExist(statErr) {
			slog.Debug("global jn.toml not found", "path", path)
			return prefs, nil
		}
		return prefs, fmt.Errorf("stat %s: %w", path, statErr)
	}

	if _, err := toml.DecodeFile(path, &prefs); err != nil {
		return Preferences{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	slog.Debug("loaded global jn.toml", "path", path)
	return prefs, nil
}
