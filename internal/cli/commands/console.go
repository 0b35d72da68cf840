package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/drnsf/drnsf/internal/cli/config"
	"github.com/drnsf/drnsf/internal/console"
	"github.com/drnsf/drnsf/internal/reload"
	"github.com/drnsf/drnsf/internal/scripting"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

// ConsoleOptions holds options for the console command.
type ConsoleOptions struct {
	Watch    bool
	NoBanner bool
}

// NewConsoleCommand creates the console command.
func NewConsoleCommand() *cobra.Command {
	opts := &ConsoleOptions{}

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Start an interactive scripting console",
		Long: `Load the project and start an interactive Starlark console with the
project as the current project.

Inside the console, eachatom() walks the current project, pushproject() and
popproject() change it, and every startup script in the scripts directory
is available as a namespace. Type .help for console commands.

With --watch the project file is reloaded whenever it changes on disk.`,
		Example: `  # Start a console on a project
  drnsf console --project crash1.yaml

  # Reload the project when the file changes
  drnsf console --project crash1.yaml --watch

  # Run statements from a pipe
  echo 'print(len(list(eachatom())))' | drnsf console --project crash1.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConsole(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Reload the project when its file changes")
	cmd.Flags().BoolVar(&opts.NoBanner, "no-banner", false, "Do not print the welcome banner")

	return cmd
}

func runConsole(cmd *cobra.Command, opts *ConsoleOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.FromContext(cmd.Context())
	watch := opts.Watch || cfg.Watch

	done := make(chan error, 1)
	consoleCfg := console.Config{
		Prompt:      cfg.Prompt,
		HistoryFile: cfg.HistoryFile,
		Reader:      consoleReader(cmd.InOrStdin()),
		Out:         cmd.OutOrStdout(),
		Err:         cmd.ErrOrStderr(),
		OnExit: func(err error) {
			done <- err
		},
	}

	if !opts.NoBanner {
		consoleCfg.Banner = consoleBanner(cfg.ProjectFiles())
	}

	cc, cleanup, err := NewCommandContext(cmd, scripting.WithConsole(consoleCfg))
	if err != nil {
		return err
	}
	defer cleanup()

	if watch && cc.Project == nil {
		return fmt.Errorf("--watch needs a project: %w", cc.Cfg.ValidateProject())
	}

	// The console may pop the project itself, so it is pushed without a
	// guard. The stack goes away with the engine.
	if cc.Project != nil {
		cc.Engine.Stack().Push(cc.Project)
	}

	cc.Engine.StartConsole()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eg, egctx := errgroup.WithContext(ctx)

	if watch {
		r := reload.New(cc.Cfg.ProjectFiles()[0], cc.Project, cc.Engine, cc.Logger)
		eg.Go(func() error {
			return r.Run(egctx)
		})
	}

	eg.Go(func() error {
		defer cancel()
		select {
		case err := <-done:
			if err != nil && !errors.Is(err, scripting.ErrShutdown) {
				return fmt.Errorf("console: %w", err)
			}
			return nil
		case <-egctx.Done():
			cc.Logger.Debug("console interrupted")
			return nil
		}
	})

	return eg.Wait()
}

// consoleReader returns nil for a terminal, letting the console set up
// line editing, and a plain line reader for anything else.
func consoleReader(in io.Reader) console.LineReader {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return nil
	}
	return console.NewLineReader(in)
}

func consoleBanner(projects []string) string {
	if len(projects) == 0 {
		return "drnsf console (no project)"
	}
	return fmt.Sprintf("drnsf console (project: %s)", filepath.Base(projects[0]))
}
