// Package config provides configuration file parsing for npackd: the
// repository list and the install-root scan ignore list.
package config

import (
	"os"
	"path/filepath"
)

// Dir returns the npackd config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/npackd if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "npackd"), nil
}
