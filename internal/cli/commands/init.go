package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	sharedcfg "github.com/drnsf/drnsf/internal/config"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool
	var example bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new drnsf project",
		Long: `Initialize a new drnsf project with a configuration file, a project
file and a startup scripts directory.

This creates:
  - drnsf.yaml configuration file
  - project.yaml project file
  - scripts/ directory for startup scripts

Use --example to create two sample projects and startup scripts that walk
and compare them.`,
		Example: `  # Initialize in current directory
  drnsf init

  # Initialize with a full working example
  drnsf init --example

  # Initialize in a new directory
  drnsf init my-project --example

  # Force overwrite existing config
  drnsf init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			template := "minimal"
			if example {
				template = "example"
			}
			return runInit(cmd.OutOrStdout(), template, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	cmd.Flags().BoolVar(&example, "example", false, "Create example projects and startup scripts")

	return cmd
}

func runInit(w io.Writer, template, dir string, force bool) error {
	// Create directory if specified and doesn't exist
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	// Check if config already exists
	configPath := filepath.Join(dir, sharedcfg.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", sharedcfg.ConfigFileName)
	}

	if err := copyTemplate(template, dir, force); err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	r := lipgloss.NewRenderer(w)
	ok := r.NewStyle().Foreground(lipgloss.Color("2")).Render("✓")
	title := r.NewStyle().Bold(true)

	files, _ := listTemplateFiles(template)
	groups := groupTemplateFiles(files)
	for _, group := range []string{"config", "projects", "scripts"} {
		if len(groups[group]) == 0 {
			continue
		}
		_, _ = fmt.Fprintln(w, title.Render(cases.Title(language.English).String(group)))
		for _, f := range groups[group] {
			_, _ = fmt.Fprintf(w, "  %s %s\n", ok, f)
		}
	}

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, title.Render("drnsf project initialized!"))
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Next steps:")
	_, _ = fmt.Fprintln(w, "  drnsf atoms      List the atoms of the project")
	_, _ = fmt.Fprintln(w, "  drnsf scripts    List startup script functions")
	_, _ = fmt.Fprintln(w, "  drnsf console    Explore the project interactively")

	return nil
}
