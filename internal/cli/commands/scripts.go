package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/drnsf/drnsf/internal/cli/config"
	"github.com/drnsf/drnsf/internal/macro"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewScriptsCommand creates the scripts command.
func NewScriptsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scripts",
		Short: "List startup script functions",
		Long: `List the functions that startup scripts make available to the console.

Each .star file in the scripts directory becomes a namespace named after
the file. Files are parsed, not executed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.FromContext(cmd.Context())
			scripts, err := macro.DescribeDir(cfg.ScriptsDir)
			if err != nil {
				return err
			}
			return renderScripts(cmd.OutOrStdout(), scripts, cfg.OutputFormat)
		},
	}
}

func renderScripts(w io.Writer, namespaces []*macro.ScriptInfo, format string) error {
	switch format {
	case "json":
		if namespaces == nil {
			namespaces = []*macro.ScriptInfo{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(namespaces)

	case "text":
		for _, ns := range namespaces {
			for _, fn := range ns.Functions {
				_, _ = fmt.Fprintf(w, "%s.%s\n", ns.Name, fn.Signature())
			}
		}
		return nil
	}

	if len(namespaces) == 0 {
		_, _ = fmt.Fprintln(w, "(no startup scripts)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Function", "Description"})
	for _, ns := range namespaces {
		for _, fn := range ns.Functions {
			t.AppendRow(table.Row{ns.Name + "." + fn.Signature(), firstLine(fn.Doc)})
		}
	}
	t.Render()
	return nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
