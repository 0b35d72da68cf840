package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	sharedcfg "github.com/drnsf/drnsf/internal/config"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !slices.Contains(sharedcfg.OutputFormats, c.OutputFormat) {
		return fmt.Errorf("invalid output format %q (expected one of: %s)",
			c.OutputFormat, strings.Join(sharedcfg.OutputFormats, ", "))
	}
	if c.Prompt == "" {
		return fmt.Errorf("prompt must not be empty")
	}
	return nil
}

// ValidateProject checks that a project file is configured and exists.
func (c *Config) ValidateProject() error {
	if c.Project == "" {
		return fmt.Errorf("no project file given\nHint: pass --project or set project in %s", sharedcfg.ConfigFileName)
	}
	if _, err := os.Stat(c.Project); os.IsNotExist(err) {
		return fmt.Errorf("project file does not exist: %s\nHint: use --project to specify a different path", c.Project)
	}
	return nil
}
