package collapse

import (
	"testing"

	"github.com/matzehuels/pangenomerge/pkg/oracle"
	"github.com/matzehuels/pangenomerge/pkg/pangraph"
)

func TestContextSimilarityExcludesPair(t *testing.T) {
	// a - b - c, plus d hanging off c.
	g := pangraph.New()
	for _, id := range []string{"a", "b", "c", "d"} {
		if err := g.AddNode(&pangraph.Node{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range [][2]string{{"a", "b"}, {"b", "c"}, {"c", "d"}} {
		if err := g.AddEdge(e[0], e[1], pangraph.NewStringSet("0")); err != nil {
			t.Fatal(err)
		}
	}
	table := newIdentityTable([]oracle.Hit{
		{Query: "a", Target: "b", FIdent: 0.95},
		{Query: "a", Target: "d", FIdent: 0.8},
	})
	snap := g.Snapshot()

	tests := []struct {
		a, b  string
		depth int
		want  float64
	}{
		// The a-b identity itself does not count as context.
		{"a", "b", 1, 0},
		// c is in both depth-2 neighbourhoods.
		{"a", "b", 2, 1},
		{"a", "c", 1, 1},
		{"b", "c", 1, 0.8},
	}
	for _, tt := range tests {
		if got := contextSimilarity(snap, table, tt.a, tt.b, tt.depth); got != tt.want {
			t.Errorf("context(%s, %s, %d) = %v, want %v", tt.a, tt.b, tt.depth, got, tt.want)
		}
	}
}
