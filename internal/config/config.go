// Package config loads the sensemaker server configuration.
//
// Settings come from a YAML file, then SENSEMAKER_* environment variables,
// then command-line flags, each layer overriding the one before.
//
// Config file locations (priority order):
//  1. $SENSEMAKER_CONFIG
//  2. ./sensemaker.yaml
//  3. $XDG_CONFIG_HOME/sensemaker/config.yaml
//  4. ~/.config/sensemaker/config.yaml
//  5. /etc/sensemaker/config.yaml
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Load finds and loads the config file, falling back to defaults, and
// applies environment overrides. It returns the file used, if any.
func Load() (*Config, string, error) {
	path := FindConfigPath()
	if path == "" {
		cfg := DefaultConfig()
		if err := cfg.ApplyEnv(); err != nil {
			return nil, "", err
		}
		return cfg, "", nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path, then applies environment
// overrides.
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.ApplyEnv(); err != nil {
		return nil, path, err
	}
	return &cfg, path, nil
}

// ApplyEnv overrides fields whose SENSEMAKER_* variable is set.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// DefaultConfig returns the settings of a fresh single-node install.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":3000"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = Duration(10 * time.Second)
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = Duration(30 * time.Second)
	}
	if c.Ledger.Backend == "" {
		c.Ledger.Backend = BackendSQLite
	}
	if c.Ledger.Path == "" {
		c.Ledger.Path = "./sensemaker.db"
	}
	if c.Ledger.Author == "" {
		if host, err := os.Hostname(); err == nil {
			c.Ledger.Author = host
		} else {
			c.Ledger.Author = "sensemaker"
		}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Ledger.Backend {
	case BackendSQLite, BackendBadger:
	default:
		return fmt.Errorf("ledger backend %q must be sqlite or badger", c.Ledger.Backend)
	}
	if c.Ledger.Path == "" && !c.Ledger.InMemory {
		return fmt.Errorf("ledger path is required unless in_memory is set")
	}
	if c.Bundles.Watch && c.Bundles.Dir == "" {
		return fmt.Errorf("bundles.watch needs bundles.dir")
	}
	if _, err := c.Log.level(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log format %q must be text or json", c.Log.Format)
	}
	return nil
}

func (l LogConfig) level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return lvl, nil
}

// NewLogger builds the process logger writing to w.
func (l LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	lvl, err := l.level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
