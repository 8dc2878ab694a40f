package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath names an explicit config file.
	EnvConfigPath = "SENSEMAKER_CONFIG"
	// ConfigFileName is looked for in the working directory.
	ConfigFileName = "sensemaker.yaml"
	// ConfigDirName is the directory under XDG and /etc.
	ConfigDirName = "sensemaker"
)

// SearchPaths lists the config file candidates in priority order:
// $SENSEMAKER_CONFIG, ./sensemaker.yaml, $XDG_CONFIG_HOME/sensemaker/config.yaml,
// ~/.config/sensemaker/config.yaml and /etc/sensemaker/config.yaml.
func SearchPaths() []string {
	var paths []string
	if p := os.Getenv(EnvConfigPath); p != "" {
		paths = append(paths, p)
	}
	paths = append(paths, ConfigFileName)
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, ConfigDirName, "config.yaml"))
	}
	if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", ConfigDirName, "config.yaml"))
	}
	return append(paths, filepath.Join("/etc", ConfigDirName, "config.yaml"))
}

// FindConfigPath returns the first existing candidate from SearchPaths, or
// "" if there is none.
func FindConfigPath() string {
	for _, p := range SearchPaths() {
		if fileExists(p) {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

// DefaultConfigPath is where a new config file is written.
func DefaultConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, ConfigDirName, "config.yaml")
	}
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".config", ConfigDirName, "config.yaml")
	}
	return ConfigFileName
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
