package config

import (
	"time"
)

// Config is the sensemaker server configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Ledger  LedgerConfig  `yaml:"ledger"`
	Bundles BundlesConfig `yaml:"bundles"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr         string   `yaml:"addr" env:"SENSEMAKER_ADDR"`
	ReadTimeout  Duration `yaml:"read_timeout" env:"SENSEMAKER_READ_TIMEOUT"`
	WriteTimeout Duration `yaml:"write_timeout" env:"SENSEMAKER_WRITE_TIMEOUT"`
}

// Backend selects the ledger storage engine.
type Backend string

const (
	BackendSQLite Backend = "sqlite"
	BackendBadger Backend = "badger"
)

// LedgerConfig holds ledger storage settings
type LedgerConfig struct {
	Backend  Backend `yaml:"backend" env:"SENSEMAKER_LEDGER_BACKEND"`
	Path     string  `yaml:"path" env:"SENSEMAKER_LEDGER_PATH"`
	Author   string  `yaml:"author" env:"SENSEMAKER_AUTHOR"`
	InMemory bool    `yaml:"in_memory" env:"SENSEMAKER_LEDGER_IN_MEMORY"`
}

// BundlesConfig holds the applet bundle directory
type BundlesConfig struct {
	Dir   string `yaml:"dir" env:"SENSEMAKER_BUNDLE_DIR"`
	Watch bool   `yaml:"watch" env:"SENSEMAKER_BUNDLE_WATCH"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `yaml:"level" env:"SENSEMAKER_LOG_LEVEL"`
	Format string `yaml:"format" env:"SENSEMAKER_LOG_FORMAT"`
}

// Duration wraps time.Duration for YAML and environment parsing
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
