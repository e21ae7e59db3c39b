package demo

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDirectory       = "Assets/Demonstrations"
	DefaultExtension       = ".demo"
	DefaultMaxNameAttempts = 1000
)

// Accounting selects how Close() counts the final episode.
type Accounting string

const (
	// AccountingCompat always counts one more episode on Close(), even when the
	// last recorded step was terminal. Files match those of existing recorders.
	AccountingCompat Accounting = "compat"
	// AccountingExact counts a final episode on Close() only when the last
	// recorded step was not terminal, or when nothing was recorded.
	AccountingExact Accounting = "exact"
)

// Config controls where a Store writes and how it finalises statistics.
type Config struct {
	Directory       string     `yaml:"directory"`
	Extension       string     `yaml:"extension"`
	MaxNameAttempts int        `yaml:"max_name_attempts"`
	Accounting      Accounting `yaml:"accounting"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		Directory:       DefaultDirectory,
		Extension:       DefaultExtension,
		MaxNameAttempts: DefaultMaxNameAttempts,
		Accounting:      AccountingCompat,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Directory == "" {
		c.Directory = d.Directory
	}
	if c.Extension == "" {
		c.Extension = d.Extension
	}
	if c.MaxNameAttempts <= 0 {
		c.MaxNameAttempts = d.MaxNameAttempts
	}
	if c.Accounting == "" {
		c.Accounting = d.Accounting
	}
	return c
}

// Validate reports configuration values the Store cannot work with.
func (c Config) Validate() error {
	switch c.Accounting {
	case "", AccountingCompat, AccountingExact:
	default:
		return fmt.Errorf("unknown accounting %q (want %q or %q)", c.Accounting, AccountingCompat, AccountingExact)
	}
	if c.MaxNameAttempts < 0 {
		return fmt.Errorf("max_name_attempts must be >= 0, got %d", c.MaxNameAttempts)
	}
	return nil
}

// LoadConfig reads a YAML configuration file. Missing fields take defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg.withDefaults(), nil
}

// LoadParameters reads session parameters from a YAML file.
func LoadParameters(path string) (Parameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Parameters{}, fmt.Errorf("read parameters %s: %w", path, err)
	}
	var p Parameters
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Parameters{}, fmt.Errorf("parse parameters %s: %w", path, err)
	}
	return p, nil
}
