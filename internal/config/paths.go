package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath names a config file when -config is not given
	EnvConfigPath = "SPECTRUM_INVENTORY_CONFIG"
	// ConfigFileName is looked up in the working directory
	ConfigFileName = "spectrum-inventory.yaml"
	// ConfigDirName is the per-user and system config directory name
	ConfigDirName = "spectrum-inventory"
)

// ErrConfigNotFound is returned when an explicitly named config file does
// not exist
var ErrConfigNotFound = errors.New("config file not found")

// ResolvePath picks the config file for one run. A path given on the
// command line (-config) is used as-is and must exist; it disables the
// search. Otherwise $SPECTRUM_INVENTORY_CONFIG is tried, then the search
// locations. An empty result means defaults apply.
func ResolvePath(explicit string) (string, error) {
	if explicit != "" {
		if !fileExists(explicit) {
			return "", fmt.Errorf("%w: %s", ErrConfigNotFound, explicit)
		}
		return explicit, nil
	}
	return FindConfigPath(), nil
}

// FindConfigPath returns the first existing config file, or "" if none
// exists. A $SPECTRUM_INVENTORY_CONFIG pointing at a missing file is ignored
// so a stale environment never hides the per-user config.
func FindConfigPath() string {
	for _, path := range searchPaths() {
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// searchPaths lists the candidate config files, highest priority first
func searchPaths() []string {
	var paths []string
	if env := os.Getenv(EnvConfigPath); env != "" {
		paths = append(paths, env)
	}

	local := ConfigFileName
	if abs, err := filepath.Abs(local); err == nil {
		local = abs
	}
	paths = append(paths, local)

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, ConfigDirName, "config.yaml"))
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, ".config", ConfigDirName, "config.yaml"))
	}
	return append(paths, filepath.Join("/etc", ConfigDirName, "config.yaml"))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
