package commands

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/drnsf/drnsf/pkg/res"
	"github.com/spf13/cobra"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	// In names the loaded project to make current. Empty means the
	// primary project.
	In string
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run <script.star>",
		Short: "Run a Starlark script against a project",
		Long: `Execute a Starlark script with the project as the current project.

The script sees the same builtins and startup script namespaces as the
console. Use - to read the script from standard input.`,
		Example: `  # Run a script
  drnsf run --project crash1.yaml count_zones.star

  # Run against the second of several configured projects
  drnsf run --in crash2 count_zones.star

  # Read the script from stdin
  echo 'print(len(list(eachatom())))' | drnsf run --project crash1.yaml -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.In, "in", "", "Name of the loaded project to make current")

	return cmd
}

func runScript(cmd *cobra.Command, path string, opts *RunOptions) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	current := cc.Project
	if opts.In != "" {
		p, ok := cc.Engine.Projects()[opts.In]
		if !ok {
			return fmt.Errorf("no loaded project named %q", opts.In)
		}
		current = p
	}
	// Pushed without a guard: the script may pop it.
	if current != nil {
		cc.Engine.Stack().Push(current)
	}

	var src any
	if path == "-" {
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read script: %w", err)
		}
		path, src = "<stdin>", content
	}

	start := time.Now()
	if _, err := cc.Engine.ExecFile(path, src); err != nil {
		return err
	}
	cc.Logger.Debug("script finished",
		slog.String("script", path),
		slog.String("project", projectName(current)),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

func projectName(p *res.Project) string {
	if p == nil {
		return ""
	}
	return p.Name
}
