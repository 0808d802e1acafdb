// Package config persists the small user settings object and parses
// user-facing value formats.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultDownloadPath is used when no download directory has been
// configured.
const DefaultDownloadPath = "./assets"

// Config is the persisted settings object.
type Config struct {
	DownloadPath string `json:"download_path,omitempty"`
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() *Config {
	return &Config{
		DownloadPath: DefaultDownloadPath,
	}
}

// DefaultPath returns the per-user config file location. The
// SAHAF_CONFIG environment variable overrides it.
func DefaultPath() (string, error) {
	if envPath := os.Getenv("SAHAF_CONFIG"); envPath != "" {
		return envPath, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config directory: %w", err)
	}
	return filepath.Join(configDir, "sahaf", "config.json"), nil
}

// Load reads the config at path, creating it with defaults on first
// run. Malformed JSON is an error rather than a silent reset so a
// hand-edited file is never clobbered.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := DefaultConfig()
		if saveErr := cfg.Save(path); saveErr != nil {
			return nil, saveErr
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes the config to path, creating parent directories.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// ResolveDownloadPath picks the effective download directory: the
// run-time override first, then the persisted value, then the
// built-in default.
func (c *Config) ResolveDownloadPath(override string) string {
	if override != "" {
		return override
	}
	if c.DownloadPath != "" {
		return c.DownloadPath
	}
	return DefaultDownloadPath
}

// ParseBandwidth parses a bandwidth string (e.g., "10M", "500K") to
// bytes per second. Empty means unlimited.
func ParseBandwidth(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}

	var value float64
	var unit string

	_, err := fmt.Sscanf(s, "%f%s", &value, &unit)
	if err != nil {
		_, err = fmt.Sscanf(s, "%f", &value)
		if err != nil {
			return 0, fmt.Errorf("invalid bandwidth format: %s", s)
		}
		return int64(value), nil
	}

	multiplier := int64(1)
	switch unit {
	case "K", "k", "KB", "kb":
		multiplier = 1024
	case "M", "m", "MB", "mb":
		multiplier = 1024 * 1024
	case "G", "g", "GB", "gb":
		multiplier = 1024 * 1024 * 1024
	default:
		return 0, fmt.Errorf("unknown bandwidth unit: %s", unit)
	}

	return int64(value * float64(multiplier)), nil
}
