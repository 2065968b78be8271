// Package ortholog turns raw similarity hits between two node sets into an
// injective one-to-one correspondence.
//
// Hits are filtered by identity and length agreement, ranked, and then
// de-duplicated twice: first each target keeps its best query, then each
// query keeps its best remaining target. The result never maps two queries
// to one target or one query to two targets.
package ortholog

import (
	"cmp"
	"slices"

	"github.com/matzehuels/pangenomerge/pkg/oracle"
)

// Default thresholds.
const (
	DefaultIdentityThreshold = 0.98
	DefaultLengthThreshold   = 0.95
)

// Options configures Match.
type Options struct {
	// IdentityThreshold is the minimum fraction of identical residues.
	IdentityThreshold float64
	// LengthThreshold is the minimum 1 - |qlen-tlen|/max(qlen,tlen).
	LengthThreshold float64
}

// DefaultOptions returns the default thresholds.
func DefaultOptions() Options {
	return Options{IdentityThreshold: DefaultIdentityThreshold, LengthThreshold: DefaultLengthThreshold}
}

// Pair is one accepted correspondence.
type Pair struct {
	Query  string
	Target string
	Hit    oracle.Hit
}

// Result is the outcome of Match.
type Result struct {
	// Pairs in rank order.
	Pairs []Pair
	// Forward maps query id to target id.
	Forward map[string]string
	// Considered counts hits that passed both thresholds.
	Considered int
}

// Reverse maps target id to query id.
func (r Result) Reverse() map[string]string {
	out := make(map[string]string, len(r.Pairs))
	for _, p := range r.Pairs {
		out[p.Target] = p.Query
	}
	return out
}

// Match builds the correspondence. Hits are ranked by identity (desc), then
// length ratio (desc), then e-value (asc); ties keep their input order.
// Query and target ids live in separate namespaces, so equal ids are an
// ordinary pair.
func Match(hits []oracle.Hit, opts Options) Result {
	kept := make([]oracle.Hit, 0, len(hits))
	for _, h := range hits {
		if h.FIdent >= opts.IdentityThreshold && h.LengthRatio() >= opts.LengthThreshold {
			kept = append(kept, h)
		}
	}
	slices.SortStableFunc(kept, func(a, b oracle.Hit) int {
		if c := cmp.Compare(b.FIdent, a.FIdent); c != 0 {
			return c
		}
		if c := cmp.Compare(b.LengthRatio(), a.LengthRatio()); c != 0 {
			return c
		}
		return cmp.Compare(a.EValue, b.EValue)
	})

	res := Result{Forward: make(map[string]string), Considered: len(kept)}
	byTarget := make(map[string]bool)
	var best []oracle.Hit
	for _, h := range kept {
		if !byTarget[h.Target] {
			byTarget[h.Target] = true
			best = append(best, h)
		}
	}
	for _, h := range best {
		if _, taken := res.Forward[h.Query]; taken {
			continue
		}
		res.Forward[h.Query] = h.Target
		res.Pairs = append(res.Pairs, Pair{Query: h.Query, Target: h.Target, Hit: h})
	}
	return res
}
