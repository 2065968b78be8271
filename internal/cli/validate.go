package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pangenomerge/pkg/errors"
	"github.com/matzehuels/pangenomerge/pkg/validate"
)

func (c *CLI) validateCommand() *cobra.Command {
	var merged, truth string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate --merged <merged.gml> --truth <truth.gml>",
		Short: "Score a merged graph against a truth graph",
		Long: `Validate compares the gene clustering of a merged graph with that of a truth
graph built from all genomes at once. Genes are matched by annotation id with
provenance suffixes removed; genes present in only one graph are excluded and
counted.

Reported scores: Rand index, adjusted Rand index, mutual information and
adjusted mutual information.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prog := newProgress(c.Logger)
			m, err := loadGraph(merged)
			if err != nil {
				return err
			}
			t, err := loadGraph(truth)
			if err != nil {
				return err
			}
			prog.done("loaded graphs", "merged_nodes", m.NodeCount(), "truth_nodes", t.NodeCount())

			scores, err := validate.Compare(m, t)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "compare %s with %s", merged, truth)
			}
			if asJSON {
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(scores)
			}
			printScores(scores)
			return nil
		},
	}

	cmd.Flags().StringVar(&merged, "merged", "", "merged graph")
	cmd.Flags().StringVar(&truth, "truth", "", "truth graph")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print scores as JSON")
	_ = cmd.MarkFlagRequired("merged")
	_ = cmd.MarkFlagRequired("truth")

	return cmd
}
