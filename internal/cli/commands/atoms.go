package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"iter"

	"github.com/drnsf/drnsf/pkg/res"
	"github.com/drnsf/drnsf/pkg/walk"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// AtomsOptions holds options for the atoms command.
type AtomsOptions struct {
	Path        string
	Descendants bool
	Children    bool
}

// atomRow is one line of atoms output.
type atomRow struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	Kind     string `json:"kind,omitempty"`
	Children int    `json:"children"`
}

// NewAtomsCommand creates the atoms command.
func NewAtomsCommand() *cobra.Command {
	opts := &AtomsOptions{}

	cmd := &cobra.Command{
		Use:   "atoms",
		Short: "List the atoms of a project",
		Long: `List the atoms of a project in pre-order.

By default the atom at --path and everything below it is listed. Use
--descendants to leave out the starting atom, or --children to list only
its direct children.`,
		Example: `  # Every atom of the project
  drnsf atoms --project crash1.yaml

  # Direct children of a subtree, as JSON
  drnsf atoms --project crash1.yaml --path /levels --children -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAtoms(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Path, "path", "/", "Atom to start from")
	cmd.Flags().BoolVar(&opts.Descendants, "descendants", false, "Exclude the starting atom")
	cmd.Flags().BoolVar(&opts.Children, "children", false, "List direct children only")
	cmd.MarkFlagsMutuallyExclusive("descendants", "children")

	return cmd
}

func runAtoms(cmd *cobra.Command, opts *AtomsOptions) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	p, err := cc.RequireProject()
	if err != nil {
		return err
	}

	start, err := p.Root().Lookup(opts.Path)
	if err != nil {
		return err
	}

	var seq iter.Seq[*res.Atom]
	switch {
	case opts.Children:
		seq = walk.Children(start)
	case opts.Descendants:
		seq = walk.Descendants(start)
	default:
		seq = walk.Atoms(start)
	}

	var rows []atomRow
	for a := range seq {
		rows = append(rows, atomRow{
			Path:     a.String(),
			Name:     a.Name(),
			Kind:     a.Kind(),
			Children: walk.Count(walk.Children(a)),
		})
	}

	w := cmd.OutOrStdout()
	switch cc.Cfg.OutputFormat {
	case "json":
		return renderAtomsJSON(w, rows)
	case "text":
		for _, r := range rows {
			_, _ = fmt.Fprintln(w, r.Path)
		}
		return nil
	default:
		renderAtomsTable(w, rows)
		return nil
	}
}

func renderAtomsTable(w io.Writer, rows []atomRow) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 atoms)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Path", "Name", "Kind", "Children"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.Path, r.Name, r.Kind, r.Children})
	}
	t.AppendFooter(table.Row{"", "", "Total", len(rows)})
	t.Render()
}

func renderAtomsJSON(w io.Writer, rows []atomRow) error {
	if rows == nil {
		rows = []atomRow{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
