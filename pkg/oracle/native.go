package oracle

import (
	"context"
	"runtime"
	"time"

	"github.com/agext/levenshtein"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/pangenomerge/pkg/observability"
)

// Native computes identities in process from the Levenshtein distance of
// the full sequences: fident = 1 - distance / max(len). It needs no external
// tools and suits small graphs and tests; MMseqs2 is far faster on real
// pangenomes.
type Native struct{}

// NewNative returns the in-process oracle.
func NewNative() *Native { return &Native{} }

// Name implements Oracle.
func (*Native) Name() string { return "native" }

// Search implements Oracle. Rows are returned in query order, then target
// order. Pairs whose length difference alone rules out MinIdentity are
// skipped without aligning.
func (n *Native) Search(ctx context.Context, query, target []Sequence, p Params) (hits []Hit, err error) {
	if len(query) == 0 || len(target) == 0 {
		return nil, nil
	}
	start := time.Now()
	observability.Oracle().OnSearchStart(ctx, n.Name(), len(query), len(target))
	defer func() {
		observability.Oracle().OnSearchComplete(ctx, n.Name(), len(hits), time.Since(start), err)
	}()

	workers := p.Threads
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	rows := make([][]Hit, len(query))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, q := range query {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows[i] = searchOne(q, target, p.MinIdentity)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, r := range rows {
		hits = append(hits, r...)
	}
	return hits, nil
}

func searchOne(q Sequence, targets []Sequence, minIdentity float64) []Hit {
	var out []Hit
	ql := len(q.Residues)
	for _, t := range targets {
		tl := len(t.Residues)
		longest := max(ql, tl)
		if longest == 0 {
			continue
		}
		if float64(min(ql, tl))/float64(longest) < minIdentity {
			continue
		}
		dist := levenshtein.Distance(q.Residues, t.Residues, nil)
		fident := 1 - float64(dist)/float64(longest)
		if fident < minIdentity {
			continue
		}
		out = append(out, Hit{
			Query: q.ID, Target: t.ID, FIdent: fident,
			AlnLen: longest, QLen: ql, TLen: tl,
		})
	}
	return out
}

var _ Oracle = (*Native)(nil)
