// Package config loads the tabcite YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/tsawler/tabcite/predicate"
	"github.com/tsawler/tabcite/quality"
)

// AppName is the application name used for the config directory.
const AppName = "tabcite"

// Environment variables that override file values.
const (
	EnvBibDB    = "TABCITE_BIB_DB"
	EnvWorkers  = "TABCITE_WORKERS"
	EnvLogLevel = "TABCITE_LOG_LEVEL"
)

// Config holds CLI configuration.
type Config struct {
	Workers            int                 `yaml:"workers,omitempty"`
	SkipFiles          []string            `yaml:"skip_files,omitempty"`
	LabelPredicates    []string            `yaml:"label_predicates,omitempty"`
	AssemblePredicates []string            `yaml:"assemble_predicates,omitempty"`
	Presets            map[string][]string `yaml:"presets,omitempty"`
	BibDB              string              `yaml:"bib_db,omitempty"`
	LogLevel           string              `yaml:"log_level,omitempty"`
	LogFormat          string              `yaml:"log_format,omitempty"` // auto, text, json
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Workers:            runtime.NumCPU(),
		SkipFiles:          []string{"done.log", "log.txt"},
		LabelPredicates:    append([]string(nil), predicate.DefaultLabels...),
		AssemblePredicates: append([]string(nil), predicate.DefaultFilters...),
		LogLevel:           "info",
		LogFormat:          "auto",
	}
}

// ConfigDir returns the config directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", AppName), nil
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config at path on top of the defaults and applies
// environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvBibDB); v != "" {
		c.BibDB = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Workers = n
	}
	return nil
}

// Validate checks worker count, predicate names and preset flags.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("config: workers must be at least 1, got %d", c.Workers)
	}
	if _, err := predicate.Resolve(c.LabelPredicates); err != nil {
		return fmt.Errorf("config: label_predicates: %w", err)
	}
	if _, err := predicate.Resolve(c.AssemblePredicates); err != nil {
		return fmt.Errorf("config: assemble_predicates: %w", err)
	}
	for name, flags := range c.Presets {
		for _, f := range flags {
			if _, ok := quality.GetFilter(f); !ok {
				return fmt.Errorf("config: preset %s: %w: %q", name, quality.ErrUnknownFilter, f)
			}
		}
	}
	return nil
}

// Preset returns the flag list named name. Presets in the file shadow the
// built-in ones.
func (c *Config) Preset(name string) ([]string, error) {
	if flags, ok := c.Presets[name]; ok {
		return append([]string(nil), flags...), nil
	}
	return quality.Preset(name)
}

// PresetNames lists the built-in presets followed by any defined only in
// the file.
func (c *Config) PresetNames() []string {
	names := quality.PresetNames()
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	var extra []string
	for n := range c.Presets {
		if !seen[n] {
			extra = append(extra, n)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

// Skip reports whether a file with the given base name is excluded from a
// directory run.
func (c *Config) Skip(base string) bool {
	for _, s := range c.SkipFiles {
		if s == base {
			return true
		}
	}
	return false
}

// Save writes the config to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}
