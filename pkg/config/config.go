// Package config loads uisteps settings from ini files with embedded defaults.
package config

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed defaults
var defaultsFS embed.FS

// DefaultsFS returns the embedded defaults filesystem.
func DefaultsFS() embed.FS { return defaultsFS }

// localConfigPath is the project level config, relative to the working directory.
const localConfigPath = ".uisteps/config"

// Config is the merged configuration.
type Config struct {
	Values

	configDir string
}

// Load reads config from configDir (DefaultConfigDir when empty), the local .uisteps/config and
// embedded defaults. Missing files are not an error.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	globalPath := filepath.Join(configDir, "config")

	values, err := newValuesLoader(defaultsFS).Load(localConfigPath, globalPath)
	if err != nil {
		return nil, fmt.Errorf("load config values: %w", err)
	}
	cfg := &Config{Values: values, configDir: configDir}
	if cfg.SelectorsDir == "" {
		cfg.SelectorsDir = filepath.Join(configDir, "selectors")
	}
	return cfg, nil
}

// ConfigDir returns the global config directory in use.
func (c *Config) ConfigDir() string { return c.configDir }

// Install writes the default config into configDir unless it already has one.
func Install(configDir string) error {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return newDefaultsInstaller(defaultsFS).Install(configDir)
}

// DefaultConfigDir returns ~/.config/uisteps, or .uisteps/global when home is unknown.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".uisteps", "global")
	}
	return filepath.Join(home, ".config", "uisteps")
}
