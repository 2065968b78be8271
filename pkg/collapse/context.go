package collapse

import (
	"github.com/matzehuels/pangenomerge/pkg/oracle"
	"github.com/matzehuels/pangenomerge/pkg/pangraph"
)

type pairKey struct{ a, b string }

func keyOf(x, y string) pairKey {
	if y < x {
		x, y = y, x
	}
	return pairKey{x, y}
}

// identityTable holds the best identity per unordered node pair.
type identityTable map[pairKey]float64

func newIdentityTable(hits []oracle.Hit) identityTable {
	t := make(identityTable, len(hits))
	for _, h := range hits {
		if h.Query == h.Target {
			continue
		}
		k := keyOf(h.Query, h.Target)
		if h.FIdent > t[k] {
			t[k] = h.FIdent
		}
	}
	return t
}

func (t identityTable) get(x, y string) float64 {
	if x == y {
		return 1
	}
	return t[keyOf(x, y)]
}

// contextSimilarity is the best identity between the depth-d neighborhoods
// of a and b. Neither endpoint counts as part of the other's neighborhood.
func contextSimilarity(snap *pangraph.Snapshot, t identityTable, a, b string, depth int) float64 {
	na := exclude(snap.Within(a, depth), b)
	nb := exclude(snap.Within(b, depth), a)
	best := 0.0
	for _, x := range na {
		for _, y := range nb {
			if v := t.get(x, y); v > best {
				best = v
				if best >= 1 {
					return best
				}
			}
		}
	}
	return best
}

func exclude(ids []string, drop string) []string {
	out := ids[:0:0]
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}
