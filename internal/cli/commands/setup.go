package commands

import (
	"fmt"
	"log/slog"

	"github.com/drnsf/drnsf/internal/cli/config"
	"github.com/drnsf/drnsf/internal/scripting"
	"github.com/drnsf/drnsf/pkg/res"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentLoads bounds how many project files are parsed at once.
const maxConcurrentLoads = 4

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
	Engine *scripting.Engine

	// Project is the project named by --project, or the first configured
	// project. It is nil when no project is configured.
	Project *res.Project

	// Projects holds every loaded project in configuration order.
	Projects []*res.Project
}

// NewCommandContext loads the configured projects and creates an
// initialized scripting engine. Output of scripts goes to the command's
// writers. Returns the context and a cleanup function that must be called
// (typically via defer).
func NewCommandContext(cmd *cobra.Command, opts ...scripting.Option) (*CommandContext, func(), error) {
	cfg := config.FromContext(cmd.Context())
	logger := config.GetLogger(cmd.Context())

	projects, err := loadProjects(cfg.ProjectFiles(), logger)
	if err != nil {
		return nil, nil, err
	}

	engineOpts := []scripting.Option{
		scripting.WithLogger(logger),
		scripting.WithScriptsDir(cfg.ScriptsDir),
		scripting.WithOutput(cmd.OutOrStdout(), cmd.ErrOrStderr()),
		scripting.WithProjects(projects...),
	}
	eng := scripting.New(append(engineOpts, opts...)...)
	if err := eng.Init(); err != nil {
		return nil, nil, err
	}

	cc := &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Engine:   eng,
		Projects: projects,
	}
	if len(projects) > 0 {
		cc.Project = projects[0]
	}

	return cc, eng.Shutdown, nil
}

// RequireProject returns the primary project or an error with a hint.
func (c *CommandContext) RequireProject() (*res.Project, error) {
	if c.Project == nil {
		if err := c.Cfg.ValidateProject(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("no project loaded")
	}
	return c.Project, nil
}

// loadProjects parses the project files concurrently, preserving order.
func loadProjects(paths []string, logger *slog.Logger) ([]*res.Project, error) {
	projects := make([]*res.Project, len(paths))

	var eg errgroup.Group
	eg.SetLimit(maxConcurrentLoads)
	for i, path := range paths {
		eg.Go(func() error {
			p, err := res.LoadProjectFile(path)
			if err != nil {
				return fmt.Errorf("failed to load project %s: %w", path, err)
			}
			logger.Debug("project loaded",
				slog.String("project", p.Name),
				slog.String("path", path),
				slog.Int("atoms", p.Len()))
			projects[i] = p
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return projects, nil
}
