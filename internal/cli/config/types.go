// Package config provides configuration management for the drnsf CLI.
//
// Settings come from defaults, a drnsf.yaml file, DRNSF_ environment
// variables and command-line flags, in increasing order of precedence.
package config

import (
	sharedcfg "github.com/drnsf/drnsf/internal/config"
)

// Config holds all CLI configuration options.
type Config struct {
	// Project is the project file made current when a command starts.
	Project string `koanf:"project"`

	// Projects are further project files registered with the scripting
	// engine and reachable from scripts through projects().
	Projects []string `koanf:"projects"`

	ScriptsDir   string `koanf:"scripts_dir"`
	HistoryFile  string `koanf:"history_file"`
	Prompt       string `koanf:"prompt"`
	Watch        bool   `koanf:"watch"`
	Verbose      bool   `koanf:"verbose"`
	OutputFormat string `koanf:"output"`

	// ProjectRoot is the directory relative paths are resolved against:
	// the config file's directory, or the working directory.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values - uses shared defaults from internal/config
const (
	DefaultScriptsDir = sharedcfg.DefaultScriptsDir
	DefaultPrompt     = sharedcfg.DefaultPrompt
	DefaultOutput     = sharedcfg.DefaultOutput
)

// ProjectFiles returns the main project followed by the extra projects,
// without duplicates.
func (c *Config) ProjectFiles() []string {
	var files []string
	seen := make(map[string]bool)
	for _, f := range append([]string{c.Project}, c.Projects...) {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		files = append(files, f)
	}
	return files
}
