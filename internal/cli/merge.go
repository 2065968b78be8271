package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pangenomerge/pkg/errors"
	graphio "github.com/matzehuels/pangenomerge/pkg/io"
	"github.com/matzehuels/pangenomerge/pkg/merge"
	"github.com/matzehuels/pangenomerge/pkg/observability"
	"github.com/matzehuels/pangenomerge/pkg/pangraph"
)

// mergeFlags holds flags for the merge command.
type mergeFlags struct {
	runFlags

	graphs      []string
	outdir      string
	mode        string
	truth       string
	config      string
	metricsFile string
	noCache     bool
}

func (c *CLI) mergeCommand() *cobra.Command {
	var flags mergeFlags

	cmd := &cobra.Command{
		Use:   "merge --graph <g1.gml> --graph <g2.gml> [--graph ...] --outdir <dir>",
		Short: "Merge pangenome graphs into one cumulative graph",
		Long: `Merge folds the given graphs, in order, into one cumulative graph.

Each iteration matches the families of the next graph against the cumulative
graph by sequence similarity, unions nodes and edges, and collapses families
that are near-identical and share their gene neighborhood. A snapshot of every
iteration is written to <outdir>/iteration_<n>/ and the final graph to
<outdir>/merged_graph.gml.

With --mode validate every iteration is also scored against --truth, a graph
built from all genomes at once.`,
		Example: `  # Merge three graphs with mmseqs
  pangenomerge merge --graph a.gml --graph b.gml --graph c.gml --outdir out

  # Score each iteration against a graph of all genomes
  pangenomerge merge --graph a.gml --graph b.gml --outdir out --mode validate --truth all.gml

  # Read thresholds and backends from a file, keep metadata in Redis
  pangenomerge merge --config merge.toml --metadata redis --graph a.gml --graph b.gml --outdir out`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runMerge(cmd, &flags)
		},
	}

	fs := cmd.Flags()
	fs.StringArrayVarP(&flags.graphs, "graph", "g", nil, "input graph in merge order (repeatable, at least two)")
	fs.StringVarP(&flags.outdir, "outdir", "o", "", "output directory")
	fs.StringVar(&flags.mode, "mode", string(merge.ModeRun), "run or validate")
	fs.StringVar(&flags.truth, "truth", "", "truth graph for --mode validate")
	fs.StringVar(&flags.config, "config", "", "TOML configuration file")
	fs.StringVar(&flags.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")
	fs.BoolVar(&flags.noCache, "no-cache", false, "disable the search cache")
	flags.register(fs)
	_ = cmd.MarkFlagRequired("graph")
	_ = cmd.MarkFlagRequired("outdir")

	return cmd
}

func (c *CLI) runMerge(cmd *cobra.Command, flags *mergeFlags) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(flags.config)
	if err != nil {
		return err
	}
	flags.apply(cmd.Flags(), &cfg)
	if flags.noCache {
		cfg.Cache.Backend = cacheNone
	}
	opts, err := cfg.options(merge.Mode(flags.mode))
	if err != nil {
		return err
	}
	if len(flags.graphs) < 2 {
		return errors.New(errors.ErrCodeInvalidInput, "need at least two --graph inputs, got %d", len(flags.graphs))
	}
	for _, path := range flags.graphs {
		if err := errors.ValidateGraphPath(path); err != nil {
			return err
		}
	}
	if err := errors.ValidateOutputDir(flags.outdir); err != nil {
		return err
	}
	if err := os.MkdirAll(flags.outdir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", flags.outdir)
	}

	var truth *pangraph.Graph
	if opts.Mode == merge.ModeValidate {
		if flags.truth == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "--mode validate needs --truth")
		}
		prog := newProgress(c.Logger)
		if truth, err = loadGraph(flags.truth); err != nil {
			return err
		}
		prog.done("loaded truth graph", "nodes", truth.NodeCount())
	}

	var prom *observability.Prometheus
	if flags.metricsFile != "" {
		prom = observability.NewPrometheus()
		observability.SetMergeHooks(prom)
		observability.SetOracleHooks(prom)
		observability.SetCacheHooks(prom)
		defer observability.Reset()
	}

	o, hitCache, err := newOracle(ctx, cfg, c.Logger)
	if err != nil {
		return err
	}
	defer hitCache.Close()

	store, err := openMetadata(ctx, cfg.Metadata, flags.outdir)
	if err != nil {
		return err
	}
	defer store.Close()

	engine := merge.New(o, opts, c.Logger)
	engine.Metadata = store
	engine.Writer = merge.NewDirWriter(flags.outdir)
	engine.Truth = truth

	c.Logger.Info("starting merge",
		"graphs", len(flags.graphs),
		"oracle", o.Name(),
		"metadata", cfg.Metadata.Backend,
		"family_threshold", opts.FamilyThreshold,
		"context_threshold", opts.ContextThreshold)

	res, err := engine.Run(ctx, flags.graphs)
	if prom != nil {
		if werr := prom.WriteTextfile(flags.metricsFile); werr != nil {
			c.Logger.Warn("write metrics", "path", flags.metricsFile, "err", werr)
		}
	}
	if err != nil {
		return err
	}

	printSuccess("Merged %d graphs", len(flags.graphs))
	printStats(res.Graph.NodeCount(), res.Graph.EdgeCount())
	printReports(res.Reports)
	ghosts := 0
	for _, r := range res.Reports {
		ghosts += len(r.GhostEdges)
	}
	if ghosts > 0 {
		printWarning("%d edges referenced unknown nodes and were dropped (see report.json)", ghosts)
	}
	final := filepath.Join(flags.outdir, merge.GraphFile)
	printFile(final)
	if prom != nil {
		printFile(flags.metricsFile)
	}
	fmt.Fprintln(stdout)
	printNextStep("Render it", "pangenomerge render "+final)
	return nil
}

// loadGraph imports a GML or JSON graph without normalization.
func loadGraph(path string) (*pangraph.Graph, error) {
	if err := errors.ValidateGraphPath(path); err != nil {
		return nil, err
	}
	g, err := graphio.ImportGraph(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "load %s", path)
	}
	return g, nil
}
