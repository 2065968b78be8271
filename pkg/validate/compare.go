package validate

import (
	"errors"
	"slices"

	"github.com/matzehuels/pangenomerge/pkg/pangraph"
)

// ErrNoSharedGenes is returned when the graphs have no gene id in common.
var ErrNoSharedGenes = errors.New("no gene ids shared between merged and truth graphs")

// Scores is the result of Compare.
type Scores struct {
	RandIndex          float64 `json:"rand_index"`
	AdjustedRandIndex  float64 `json:"adjusted_rand_index"`
	MutualInfo         float64 `json:"mutual_info"`
	AdjustedMutualInfo float64 `json:"adjusted_mutual_info"`

	Shared     int `json:"shared"`      // genes scored
	OnlyMerged int `json:"only_merged"` // genes excluded, merged graph only
	OnlyTruth  int `json:"only_truth"`  // genes excluded, truth graph only
}

// Clusters maps every gene id of g, with any provenance suffix removed, to
// the arena position of the node holding it. A gene seen in two nodes keeps
// the first.
func Clusters(g *pangraph.Graph) map[string]int {
	out := make(map[string]int)
	for i, n := range g.Nodes() {
		for _, id := range n.GeneIDs {
			if id == "" {
				continue
			}
			id = pangraph.TrimProvenance(id)
			if _, seen := out[id]; !seen {
				out[id] = i
			}
		}
	}
	return out
}

// Compare scores merged against truth.
func Compare(merged, truth *pangraph.Graph) (Scores, error) {
	cm, ct := Clusters(merged), Clusters(truth)

	var s Scores
	shared := make([]string, 0, min(len(cm), len(ct)))
	for id := range cm {
		if _, ok := ct[id]; ok {
			shared = append(shared, id)
		} else {
			s.OnlyMerged++
		}
	}
	s.Shared = len(shared)
	s.OnlyTruth = len(ct) - s.Shared
	if s.Shared == 0 {
		return s, ErrNoSharedGenes
	}
	slices.Sort(shared)

	a := make([]int, len(shared))
	b := make([]int, len(shared))
	for i, id := range shared {
		a[i], b[i] = ct[id], cm[id]
	}
	s.RandIndex = RandIndex(a, b)
	s.AdjustedRandIndex = AdjustedRandIndex(a, b)
	s.MutualInfo = MutualInfo(a, b)
	s.AdjustedMutualInfo = AdjustedMutualInfo(a, b)
	return s, nil
}
