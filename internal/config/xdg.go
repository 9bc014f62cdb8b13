// Package config provides XDG path helpers.
package config

import (
	"os"
	"path/filepath"
)

const appName = "keymaster"

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultDBPath returns the path of the custom word bank, honoring KEYMASTER_DB.
func DefaultDBPath() string {
	if v := os.Getenv(EnvDB); v != "" {
		return v
	}
	return filepath.Join(XDGDataHome(), appName, appName+".db")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), appName, "config.toml")
}
