// Package config holds the default settings shared by the CLI and the
// scripting engine.
package config

import (
	"os"
	"path/filepath"
)

// Default configuration values.
const (
	DefaultScriptsDir  = "scripts"
	DefaultPrompt      = "drnsf> "
	DefaultOutput      = "table"
	DefaultHistoryName = ".drnsf_history"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "drnsf.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "drnsf.yml"

// EnvPrefix prefixes environment variables that override the config file.
const EnvPrefix = "DRNSF_"

// OutputFormats lists the accepted values of the output setting.
var OutputFormats = []string{"table", "text", "json"}

// DefaultHistoryFile returns the console history file in the user's home
// directory, or an empty string (no history) when there is none.
func DefaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, DefaultHistoryName)
}

// FindConfigFile returns the config file in dir, or "" if there is none.
func FindConfigFile(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
