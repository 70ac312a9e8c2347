// Package config loads TaskSync settings from a YAML file. A missing
// file is not an error: the zero config runs with built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tasksync/tasksync/internal/domain"
	"github.com/tasksync/tasksync/internal/mapping"
)

// Config is the on-disk settings file.
type Config struct {
	// DefaultRepository is preselected in the UI ("owner/repo").
	DefaultRepository string `yaml:"default_repository,omitempty"`

	// Mappings route repositories/organizations to areas and projects.
	Mappings []domain.RepoMapping `yaml:"mappings,omitempty"`

	// Statuses is the task status vocabulary, in display order.
	Statuses []domain.Status `yaml:"statuses,omitempty"`

	// Categories is the task category vocabulary.
	Categories []string `yaml:"categories,omitempty"`

	// Database overrides the default task database path.
	Database string `yaml:"database,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Statuses: []domain.Status{
			{Name: "Todo"},
			{Name: "In Progress", IsInProgress: true},
			{Name: "Done", IsDone: true},
		},
		Categories: []string{"Task", "Bug", "Feature"},
	}
}

// DefaultPath returns the XDG config path for the settings file.
func DefaultPath() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "tasksync", "config.yaml"), nil
}

// Load reads the config at path, filling unset vocabularies from the
// defaults. A missing file yields the default config.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	defaults := Default()
	if len(cfg.Statuses) == 0 {
		cfg.Statuses = defaults.Statuses
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = defaults.Categories
	}
	return cfg, nil
}

// Validate checks every mapping rule and returns all violations, each
// prefixed with the rule's index. An empty result means the config is
// valid.
func (c *Config) Validate() []error {
	var errs []error
	for i, rule := range c.Mappings {
		for _, err := range mapping.Validate(rule) {
			errs = append(errs, fmt.Errorf("mapping %d: %w", i, err))
		}
	}
	return errs
}
