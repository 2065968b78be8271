package cli

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pangenomerge/pkg/errors"
	"github.com/matzehuels/pangenomerge/pkg/render"
)

// renderFlags holds flags for the render command.
type renderFlags struct {
	output   string
	format   string
	detailed bool
	maxNodes int
	layout   string
}

func (c *CLI) renderCommand() *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "render <graph.gml>",
		Short: "Draw a graph as DOT, SVG, PDF or PNG, or dump it as JSON",
		Long: `Render draws a pangenome graph as a node-link diagram.

The format is taken from --format, or from the extension of --output. DOT
output needs no external tools; SVG is laid out in-process with Graphviz; PDF
and PNG additionally need rsvg-convert from librsvg.`,
		Example: `  pangenomerge render out/merged_graph.gml -o merged.svg
  pangenomerge render out/merged_graph.gml --format dot > merged.dot
  pangenomerge render out/merged_graph.gml -o core.png --max-nodes 500`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "output format: "+strings.Join(render.Formats, ", "))
	cmd.Flags().BoolVar(&flags.detailed, "detailed", false, "add gene counts and annotations to labels")
	cmd.Flags().IntVar(&flags.maxNodes, "max-nodes", 0, "keep only the N most widely shared families")
	cmd.Flags().StringVar(&flags.layout, "layout", "", "Graphviz layout engine (default neato)")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, path string, flags renderFlags) error {
	format, err := renderFormat(flags.format, flags.output)
	if err != nil {
		return err
	}
	g, err := loadGraph(path)
	if err != nil {
		return err
	}

	spin := newSpinner(cmd.Context(), "Rendering "+filepath.Base(path))
	if format != render.FormatDOT {
		spin.Start()
	}
	data, err := render.Render(cmd.Context(), g, format, render.Options{
		Detailed: flags.detailed,
		MaxNodes: flags.maxNodes,
		Layout:   flags.layout,
	})
	spin.Stop()
	if err != nil {
		return err
	}

	if flags.output == "" || flags.output == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(flags.output, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", flags.output)
	}
	c.Logger.Debug("rendered graph", "nodes", g.NodeCount(), "edges", g.EdgeCount(), "format", format, "bytes", len(data))
	printSuccess("Rendered %s", filepath.Base(path))
	printFile(flags.output)
	return nil
}

// renderFormat picks the explicit format, else the output extension, else
// DOT for stdout.
func renderFormat(format, output string) (string, error) {
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), ".")
		if format == "" || format == "gv" {
			format = render.FormatDOT
		}
	}
	if !slices.Contains(render.Formats, format) {
		return "", errors.New(errors.ErrCodeUnsupported, "unsupported format %q (want one of %s)", format, strings.Join(render.Formats, ", "))
	}
	return format, nil
}
