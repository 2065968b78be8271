package collapse

import (
	"cmp"
	"context"
	"fmt"
	"runtime"
	"slices"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/pangenomerge/pkg/errors"
	"github.com/matzehuels/pangenomerge/pkg/oracle"
	"github.com/matzehuels/pangenomerge/pkg/pangraph"
)

// Defaults.
const (
	DefaultFamilyThreshold  = 0.7
	DefaultContextThreshold = 0.9

	// MaxDepth is the deepest context neighborhood scored.
	MaxDepth = 3
)

// Options configures a Collapser.
type Options struct {
	FamilyThreshold  float64
	ContextThreshold float64
	// Workers bounds concurrent scoring. Zero means GOMAXPROCS.
	Workers int
	// Search is passed to the oracle; MinIdentity is overridden with
	// FamilyThreshold.
	Search oracle.Params
}

// DefaultOptions returns the default thresholds.
func DefaultOptions() Options {
	return Options{FamilyThreshold: DefaultFamilyThreshold, ContextThreshold: DefaultContextThreshold}
}

func (o Options) validate() error {
	if err := errors.ValidateThreshold("family threshold", o.FamilyThreshold); err != nil {
		return err
	}
	return errors.ValidateThreshold("context threshold", o.ContextThreshold)
}

// Collapser finds and applies spurious-paralog collapses.
type Collapser struct {
	Oracle  oracle.Oracle
	Options Options
	Logger  *log.Logger
}

// New returns a Collapser.
func New(o oracle.Oracle, opts Options, logger *log.Logger) *Collapser {
	return &Collapser{Oracle: o, Options: opts, Logger: logger}
}

// Collapse records one applied merge.
type Collapse struct {
	Survivor string     `json:"survivor"`
	Absorbed string     `json:"absorbed"`
	Identity float64    `json:"identity"`
	Context  [3]float64 `json:"context"`
	Round    int        `json:"round"`
}

// Result summarizes a Run.
type Result struct {
	Collapses  []Collapse `json:"collapses"`
	Candidates int        `json:"candidates"`
	Rounds     int        `json:"rounds"`
}

// Run collapses spurious paralogs in g in place. newNodes holds the ids the
// current iteration inserted; absorbed ids are removed from it.
func (c *Collapser) Run(ctx context.Context, g *pangraph.Graph, newNodes pangraph.StringSet) (Result, error) {
	var res Result
	if err := c.Options.validate(); err != nil {
		return res, err
	}
	if len(newNodes) == 0 || len(newNodes) == g.NodeCount() {
		return res, nil
	}

	seqs := representatives(g)
	params := c.Options.Search
	params.MinIdentity = c.Options.FamilyThreshold
	hits, err := c.Oracle.Search(ctx, seqs, seqs, params)
	if err != nil {
		return res, fmt.Errorf("paralog search: %w", err)
	}
	table := newIdentityTable(hits)
	cands := candidates(table, newNodes, c.Options.FamilyThreshold)
	res.Candidates = len(cands)

	for round := 1; ; round++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		snap := g.Snapshot()
		cands = slices.DeleteFunc(cands, func(p pair) bool { return !snap.Has(p.survivor) || !snap.Has(p.absorbed) })
		if len(cands) == 0 {
			break
		}

		scored, err := c.score(ctx, snap, table, cands)
		if err != nil {
			return res, err
		}
		selected := selectGreedy(scored)
		res.Rounds = round
		if len(selected) == 0 {
			break
		}
		for _, s := range selected {
			if err := g.Absorb(s.survivor, s.absorbed); err != nil {
				return res, fmt.Errorf("collapse %s into %s: %w", s.absorbed, s.survivor, err)
			}
			delete(newNodes, s.absorbed)
			res.Collapses = append(res.Collapses, Collapse{
				Survivor: s.survivor, Absorbed: s.absorbed,
				Identity: s.identity, Context: s.context, Round: round,
			})
		}
		if c.Logger != nil {
			c.Logger.Debug("collapse round", "round", round, "candidates", len(cands), "collapsed", len(selected))
		}
	}
	return res, nil
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

// pair is a candidate; survivor is the pre-existing endpoint.
type pair struct {
	survivor, absorbed string
	identity           float64
}

func candidates(t identityTable, newNodes pangraph.StringSet, family float64) []pair {
	var out []pair
	for k, v := range t {
		if v < family {
			continue
		}
		aNew, bNew := newNodes.Has(k.a), newNodes.Has(k.b)
		switch {
		case aNew && !bNew:
			out = append(out, pair{survivor: k.b, absorbed: k.a, identity: v})
		case bNew && !aNew:
			out = append(out, pair{survivor: k.a, absorbed: k.b, identity: v})
		}
	}
	slices.SortFunc(out, func(x, y pair) int {
		if c := cmp.Compare(x.survivor, y.survivor); c != 0 {
			return c
		}
		return cmp.Compare(x.absorbed, y.absorbed)
	})
	return out
}

type scoredPair struct {
	pair
	context  [3]float64
	accepted bool
}

func (c *Collapser) score(ctx context.Context, snap *pangraph.Snapshot, t identityTable, cands []pair) ([]scoredPair, error) {
	workers := c.Options.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	out := make([]scoredPair, len(cands))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range cands {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = evaluate(snap, t, p, c.Options)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// evaluate applies the acceptance rule to one candidate. Depth 1 must
// reach the context threshold; depth 2, then depth 3, are scored while the
// previous depth stays below it. A depth that is not scored carries the
// previous score forward.
func evaluate(snap *pangraph.Snapshot, t identityTable, p pair, opts Options) scoredPair {
	sp := scoredPair{pair: p}
	if p.identity < opts.FamilyThreshold {
		return sp
	}
	if snap.Members(p.survivor).Intersects(snap.Members(p.absorbed)) {
		return sp
	}

	d1 := contextSimilarity(snap, t, p.survivor, p.absorbed, 1)
	sp.context = [3]float64{d1, d1, d1}
	if d1 < opts.ContextThreshold {
		return sp
	}
	d2 := contextSimilarity(snap, t, p.survivor, p.absorbed, 2)
	sp.context[1], sp.context[2] = d2, d2
	if d2 >= opts.ContextThreshold {
		sp.accepted = true
		return sp
	}
	d3 := contextSimilarity(snap, t, p.survivor, p.absorbed, 3)
	sp.context[2] = d3
	sp.accepted = d3 >= opts.ContextThreshold
	return sp
}

// selectGreedy ranks accepted pairs and picks them so that no node appears
// twice.
func selectGreedy(scored []scoredPair) []scoredPair {
	var accepted []scoredPair
	for _, sp := range scored {
		if sp.accepted {
			accepted = append(accepted, sp)
		}
	}
	slices.SortStableFunc(accepted, func(a, b scoredPair) int {
		if c := cmp.Compare(b.identity, a.identity); c != 0 {
			return c
		}
		for d := range MaxDepth {
			if c := cmp.Compare(b.context[d], a.context[d]); c != 0 {
				return c
			}
		}
		return 0
	})
	used := make(map[string]bool)
	var out []scoredPair
	for _, sp := range accepted {
		if used[sp.survivor] || used[sp.absorbed] {
			continue
		}
		used[sp.survivor], used[sp.absorbed] = true, true
		out = append(out, sp)
	}
	return out
}
