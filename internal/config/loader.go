package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir

const (
	userConfigDir  = ".config/kubesync"
	configFileName = "config.yaml"
)

// DefaultPath returns the default configuration file path,
// ~/.config/kubesync/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

// Load reads and parses the configuration file at path. The file is
// required: a missing file is a setup error, not an empty fleet.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found at %s - create it before running", path)
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.LocalOutputDir == "" {
		return fmt.Errorf("localOutputDir is required")
	}
	seen := make(map[string]bool, len(c.Hosts))
	for i := range c.Hosts {
		h := &c.Hosts[i]
		if h.Name == "" {
			return fmt.Errorf("host %d: name is required", i)
		}
		if seen[h.Name] {
			return fmt.Errorf("duplicate host name %q", h.Name)
		}
		seen[h.Name] = true
		if h.Address == "" {
			return fmt.Errorf("[%s] address is required", h.Name)
		}
		if h.TargetClusterIP == "" {
			return fmt.Errorf("[%s] targetClusterIP is required", h.Name)
		}
	}
	return nil
}
