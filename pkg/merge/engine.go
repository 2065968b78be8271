package merge

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/pangenomerge/pkg/collapse"
	"github.com/matzehuels/pangenomerge/pkg/errors"
	graphio "github.com/matzehuels/pangenomerge/pkg/io"
	"github.com/matzehuels/pangenomerge/pkg/metadata"
	"github.com/matzehuels/pangenomerge/pkg/observability"
	"github.com/matzehuels/pangenomerge/pkg/oracle"
	"github.com/matzehuels/pangenomerge/pkg/ortholog"
	"github.com/matzehuels/pangenomerge/pkg/pangraph"
	"github.com/matzehuels/pangenomerge/pkg/validate"
)

// GraphLoader reads one input graph.
type GraphLoader interface {
	Load(path string) (*pangraph.Graph, error)
}

// Engine runs merges. Oracle is required; every other collaborator is
// optional: a nil Metadata discards batches, a nil Writer writes nothing and
// a nil Truth disables scoring.
type Engine struct {
	Oracle   oracle.Oracle
	Loader   GraphLoader
	Metadata metadata.Store
	Writer   SnapshotWriter
	Truth    *pangraph.Graph
	Logger   *log.Logger
	Options  Options
}

// New returns an Engine with a default loader.
func New(o oracle.Oracle, opts Options, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Engine{
		Oracle:  o,
		Loader:  &graphio.Loader{Offset: opts.OffsetIDs, Logger: logger},
		Options: opts,
		Logger:  logger,
	}
}

// RunResult is the outcome of Run.
type RunResult struct {
	RunID   string
	Graph   *pangraph.Graph
	Reports []*Report
}

// Run folds the graphs at paths, in order, into one cumulative graph.
func (e *Engine) Run(ctx context.Context, paths []string) (*RunResult, error) {
	if len(paths) < 2 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "need at least two graphs, got %d", len(paths))
	}
	if err := e.Options.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if e.Options.Mode == ModeValidate && e.Truth == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "validate mode needs a truth graph")
	}

	res := &RunResult{RunID: uuid.NewString()}
	logger := e.logger().With("run", res.RunID[:8])

	start := time.Now()
	cum, err := e.Loader.Load(paths[0])
	if err != nil {
		return nil, err
	}
	logger.Info("loaded base graph", "path", paths[0], "nodes", cum.NodeCount(), "edges", cum.EdgeCount())
	observability.Merge().OnStage(ctx, string(StageLoad), time.Since(start))

	var prev *pangraph.Graph
	for i, path := range paths[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		it := NewIteration(res.RunID, i+1)
		it.Input = path
		it.Report.Input = path

		next, err := e.iterate(ctx, it, cum, prev)
		if err != nil {
			return nil, err
		}
		res.Reports = append(res.Reports, it.Report)
		prev, cum = next, next
	}

	if e.Writer != nil {
		if err := e.Writer.WriteFinal(ctx, cum); err != nil {
			return nil, err
		}
	}
	res.Graph = cum
	logger.Info("merge complete", "iterations", len(paths)-1, "nodes", cum.NodeCount(), "edges", cum.EdgeCount(), "duration", time.Since(start).Round(time.Millisecond))
	return res, nil
}

// iterate loads the incoming graph, merges it and persists the result.
func (e *Engine) iterate(ctx context.Context, it *Iteration, cum, prev *pangraph.Graph) (out *pangraph.Graph, err error) {
	hooks := observability.Merge()
	hooks.OnIterationStart(ctx, it.Index, it.Input)
	defer func() {
		nodes, edges := 0, 0
		if out != nil {
			nodes, edges = out.NodeCount(), out.EdgeCount()
		}
		hooks.OnIterationComplete(ctx, it.Index, nodes, edges, time.Since(it.started), err)
	}()

	var incoming *pangraph.Graph
	if err := e.stage(ctx, it, StageLoad, func() error {
		var err error
		incoming, err = e.Loader.Load(it.Input)
		return err
	}); err != nil {
		return nil, err
	}

	out, err = e.Merge(ctx, cum, incoming, it)
	if err != nil {
		return nil, err
	}
	if err := e.stage(ctx, it, StagePersist, func() error { return e.persist(ctx, it, out, prev) }); err != nil {
		return nil, err
	}
	it.State = StageDone

	e.logger().Info("merged iteration",
		"iteration", it.Index,
		"input", it.Input,
		"matched", it.Report.Matched,
		"new", it.Report.Inserted,
		"collapsed", len(it.Report.Collapse.Collapses),
		"ghosts", len(it.Report.GhostEdges),
		"nodes", out.NodeCount(),
		"edges", out.EdgeCount())
	return out, nil
}

// Merge merges incoming into cum in memory and returns the new cumulative
// graph. Neither argument is modified. The returned graph has its markers
// stripped, names synchronized and degrees recomputed, and it has passed the
// identifier uniqueness check; committing and writing it is left to the
// caller.
func (e *Engine) Merge(ctx context.Context, cum, incoming *pangraph.Graph, it *Iteration) (*pangraph.Graph, error) {
	if err := e.Options.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	var base, inc *pangraph.Graph
	if err := e.stage(ctx, it, StageRelabel, func() error {
		var err error
		if base, err = cum.RekeyByName(); err != nil {
			return errors.Wrap(errors.ErrCodeRelabelCollision, err, "rekey cumulative graph")
		}
		if inc, err = incoming.RekeyByName(); err != nil {
			return errors.Wrap(errors.ErrCodeRelabelCollision, err, "rekey %s", graphLabel(it))
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err := e.stage(ctx, it, StageMatch, func() error {
		var err error
		base, inc, err = e.match(ctx, it, base, inc)
		return err
	}); err != nil {
		return nil, err
	}

	_ = e.stage(ctx, it, StageTag, func() error {
		inc.Tag(it.Suffix)
		if it.Index == 1 {
			base.Tag(BaseSuffix)
		}
		return nil
	})

	if err := e.stage(ctx, it, StageMergeNodes, func() error { return mergeNodes(it, base, inc) }); err != nil {
		return nil, err
	}
	if err := e.stage(ctx, it, StageMergeEdges, func() error { return e.mergeEdges(ctx, it, base, inc) }); err != nil {
		return nil, err
	}

	if err := e.stage(ctx, it, StageCollapse, func() error {
		c := collapse.New(e.Oracle, e.Options.collapser(), e.logger())
		res, err := c.Run(ctx, base, it.NewNodes)
		it.Report.Collapse = res
		if err != nil {
			return wrapOracle(err, "collapse")
		}
		observability.Merge().OnCollapse(ctx, it.Index, len(res.Collapses))
		return nil
	}); err != nil {
		return nil, err
	}

	var out *pangraph.Graph
	if err := e.stage(ctx, it, StagePersist, func() error {
		var err error
		out, err = finalize(it, base)
		return err
	}); err != nil {
		return nil, err
	}
	it.Report.Nodes, it.Report.Edges = out.NodeCount(), out.EdgeCount()
	return out, nil
}

// match renames both graphs so that orthologs share a key: cumulative keys
// get the marker, matched incoming nodes their counterpart's marked key and
// unmatched incoming nodes the provenance suffix.
func (e *Engine) match(ctx context.Context, it *Iteration, base, inc *pangraph.Graph) (*pangraph.Graph, *pangraph.Graph, error) {
	query, target := representatives(inc), representatives(base)

	var hits []oracle.Hit
	if len(query) > 0 && len(target) > 0 {
		var err error
		hits, err = e.Oracle.Search(ctx, query, target, e.Options.search(e.Options.IdentityThreshold))
		if err != nil {
			return nil, nil, wrapOracle(err, "ortholog search")
		}
	}
	res := ortholog.Match(hits, e.Options.matcher())
	it.Report.Hits = len(hits)
	it.Report.Matched = len(res.Pairs)

	baseMap := make(map[string]string, base.NodeCount())
	for _, id := range base.NodeIDs() {
		baseMap[id] = id + it.Marker
	}
	incMap := make(map[string]string, inc.NodeCount())
	for _, id := range inc.NodeIDs() {
		if t, ok := res.Forward[id]; ok {
			incMap[id] = t + it.Marker
		} else {
			incMap[id] = id + it.Suffix
		}
	}

	marked, err := base.Relabel(baseMap)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeRelabelCollision, err, "mark cumulative graph")
	}
	renamed, err := inc.Relabel(incMap)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeRelabelCollision, err, "rename %s", graphLabel(it))
	}
	e.logger().Debug("matched orthologs", "iteration", it.Index, "hits", len(hits), "considered", res.Considered, "pairs", len(res.Pairs))
	return marked, renamed, nil
}

func representatives(g *pangraph.Graph) []oracle.Sequence {
	out := make([]oracle.Sequence, 0, g.NodeCount())
	for _, n := range g.Nodes() {
		if rep := n.Representative(); rep != "" {
			out = append(out, oracle.Sequence{ID: n.ID, Residues: rep})
		}
	}
	return out
}

func mergeNodes(it *Iteration, base, inc *pangraph.Graph) error {
	base.Isolates = append(base.Isolates, inc.Isolates...)
	for _, n := range inc.Nodes() {
		inserted, err := base.InsertOrUnion(n)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "merge node %s", n.ID)
		}
		if inserted {
			it.NewNodes.Add(n.ID)
			it.Report.Inserted++
		} else {
			it.Report.Unioned++
		}
	}
	return nil
}

func (e *Engine) mergeEdges(ctx context.Context, it *Iteration, base, inc *pangraph.Graph) error {
	for _, edge := range inc.Edges() {
		u, v := resolve(base, edge.U, it), resolve(base, edge.V, it)
		if u == "" || v == "" {
			e.ghost(ctx, it, edge, "endpoint missing from cumulative graph")
			continue
		}
		if u == v {
			e.ghost(ctx, it, edge, "endpoints resolve to one node")
			continue
		}
		created, err := base.MergeEdge(u, v, edge.Members)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "merge edge %s-%s", u, v)
		}
		if created {
			it.Report.EdgesAdded++
		} else {
			it.Report.EdgesMerged++
		}
	}
	return nil
}

// resolve finds the cumulative key of an incoming endpoint: the key itself,
// or its spelling under the other naming scheme (marked vs provenance).
func resolve(g *pangraph.Graph, id string, it *Iteration) string {
	if g.HasNode(id) {
		return id
	}
	var alt string
	switch {
	case strings.HasSuffix(id, it.Marker):
		alt = strings.TrimSuffix(id, it.Marker) + it.Suffix
	case strings.HasSuffix(id, it.Suffix):
		alt = strings.TrimSuffix(id, it.Suffix) + it.Marker
	}
	if alt != "" && g.HasNode(alt) {
		return alt
	}
	return ""
}

func (e *Engine) ghost(ctx context.Context, it *Iteration, edge *pangraph.Edge, reason string) {
	e.logger().Warn("ghost node, dropping edge", "iteration", it.Index, "u", edge.U, "v", edge.V, "reason", reason)
	it.Report.GhostEdges = append(it.Report.GhostEdges, GhostEdge{U: edge.U, V: edge.V, Reason: reason})
	observability.Merge().OnGhostEdge(ctx, it.Index)
}

// finalize strips the transient marker (turning it into the base suffix on
// the first iteration) and checks the identifier invariant.
func finalize(it *Iteration, g *pangraph.Graph) (*pangraph.Graph, error) {
	replacement := ""
	if it.Index == 1 {
		replacement = BaseSuffix
	}
	mapping := make(map[string]string)
	for _, id := range g.NodeIDs() {
		if strings.HasSuffix(id, it.Marker) {
			mapping[id] = strings.TrimSuffix(id, it.Marker) + replacement
		}
	}
	out, err := g.Relabel(mapping)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRelabelCollision, err, "strip markers")
	}
	out.SyncNames()
	out.RecomputeDegrees()
	if err := out.CheckIdentifiers(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIdentifierConflict, err, "iteration %d", it.Index)
	}
	return out, nil
}

// persist scores a finished iteration, stages its snapshot, commits the
// metadata batch and then publishes the snapshot. A failed commit discards
// the staged snapshot, so the store and the output directory never disagree.
func (e *Engine) persist(ctx context.Context, it *Iteration, g, prev *pangraph.Graph) error {
	if e.Options.Mode == ModeValidate && e.Truth != nil {
		scores, err := validate.Compare(g, e.Truth)
		if err != nil {
			it.Report.ValidationError = err.Error()
			e.logger().Warn("validation skipped", "iteration", it.Index, "err", err)
		} else {
			it.Report.Validation = &scores
			e.logger().Info("validation",
				"iteration", it.Index,
				"rand", fmt.Sprintf("%.4f", scores.RandIndex),
				"ari", fmt.Sprintf("%.4f", scores.AdjustedRandIndex),
				"ami", fmt.Sprintf("%.4f", scores.AdjustedMutualInfo))
		}
	}

	var pending PendingSnapshot
	if e.Writer != nil {
		var err error
		if pending, err = e.Writer.PrepareIteration(ctx, it, g); err != nil {
			return err
		}
	}
	if e.Metadata != nil {
		batch := metadata.NewBatch(it.RunID, it.Index, g, prev)
		if err := e.Metadata.Commit(ctx, batch); err != nil {
			if pending != nil {
				_ = pending.Discard()
			}
			return errors.Wrap(errors.ErrCodeMetadataCommit, err, "iteration %d", it.Index)
		}
	}
	if pending != nil {
		return pending.Publish()
	}
	return nil
}

// stage runs fn as state s of it, recording its duration. Consecutive runs
// of the same state share one timing entry.
func (e *Engine) stage(ctx context.Context, it *Iteration, s Stage, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	it.State = s
	start := time.Now()
	err := fn()
	d := time.Since(start)
	if n := len(it.Report.Stages); n > 0 && it.Report.Stages[n-1].Stage == s {
		it.Report.Stages[n-1].Duration += d
	} else {
		it.Report.Stages = append(it.Report.Stages, StageTiming{Stage: s, Duration: d})
	}
	observability.Merge().OnStage(ctx, string(s), d)
	e.logger().Debug("stage", "iteration", it.Index, "stage", s, "duration", d.Round(time.Microsecond), "err", err)
	return err
}

func (e *Engine) logger() *log.Logger {
	if e.Logger == nil {
		e.Logger = log.New(io.Discard)
	}
	return e.Logger
}

func wrapOracle(err error, what string) error {
	if errors.GetCode(err) != "" {
		return err
	}
	return errors.Wrap(errors.ErrCodeOracleFailed, err, "%s", what)
}

func graphLabel(it *Iteration) string {
	if it.Input != "" {
		return it.Input
	}
	return fmt.Sprintf("graph %d", it.GraphIndex)
}
