// Package cli provides the command-line interface for drnsf.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/drnsf/drnsf/internal/cli/commands"
	"github.com/drnsf/drnsf/internal/cli/config"
	sharedcfg "github.com/drnsf/drnsf/internal/config"
	"github.com/spf13/cobra"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "drnsf",
		Short: "drnsf - scriptable atom tree console",
		Long: `drnsf loads project files into an atom tree and lets you inspect and
change them from an interactive Starlark console or from scripts.

Scripts walk the tree of the current project with eachatom(), switch
projects with pushproject() and popproject(), and use helper functions
from the startup scripts directory.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			logger := newLogger(cmd, cfg.Verbose)
			ctx := config.WithConfig(cmd.Context(), cfg)
			ctx = config.WithLogger(ctx, logger)
			cmd.SetContext(ctx)

			if configFile := config.GetConfigFileUsed(); configFile != "" {
				logger.Debug("using config file", slog.String("path", configFile))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Built with Go and Starlark
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./"+sharedcfg.ConfigFileName+")")
	rootCmd.PersistentFlags().StringP("project", "p", "", "Path to the project file")
	rootCmd.PersistentFlags().String("scripts-dir", "", "Path to startup scripts directory")
	rootCmd.PersistentFlags().String("history-file", "", "Path to console history file")
	rootCmd.PersistentFlags().String("prompt", "", "Console prompt")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (table|text|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return sharedcfg.OutputFormats, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.MarkPersistentFlagFilename("project", "yaml", "yml")
	_ = rootCmd.MarkPersistentFlagDirname("scripts-dir")

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewConsoleCommand())
	rootCmd.AddCommand(commands.NewAtomsCommand())
	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewScriptsCommand())
	rootCmd.AddCommand(commands.NewInitCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// newLogger builds the process logger. Logs go to stderr so they never mix
// with command output.
func newLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	}))
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for drnsf.

To load completions:

Bash:
  $ source <(drnsf completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ drnsf completion bash > /etc/bash_completion.d/drnsf
  # macOS:
  $ drnsf completion bash > $(brew --prefix)/etc/bash_completion.d/drnsf

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ drnsf completion zsh > "${fpath[1]}/_drnsf"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ drnsf completion fish | source

  # To load completions for each session, execute once:
  $ drnsf completion fish > ~/.config/fish/completions/drnsf.fish

PowerShell:
  PS> drnsf completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> drnsf completion powershell > drnsf.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
