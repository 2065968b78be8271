package pangraph_test

import (
	"errors"
	"fmt"

	"github.com/matzehuels/pangenomerge/pkg/pangraph"
)

func ExampleGraph_InsertOrUnion() {
	g := pangraph.New()
	_, _ = g.InsertOrUnion(&pangraph.Node{
		ID:      "groupA",
		Members: pangraph.NewStringSet("0_g1"),
		SeqIDs:  pangraph.NewStringSet("0_0_1_g1"),
		Protein: []string{"MKV"},
	})
	inserted, _ := g.InsertOrUnion(&pangraph.Node{
		ID:      "groupA",
		Members: pangraph.NewStringSet("0_g2"),
		SeqIDs:  pangraph.NewStringSet("0_0_7_g2"),
		Protein: []string{"MKVL"},
	})

	n, _ := g.Node("groupA")
	fmt.Println("inserted:", inserted)
	fmt.Println("members:", n.Members.Sorted())
	fmt.Println("protein:", n.Protein)
	// Output:
	// inserted: false
	// members: [0_g1 0_g2]
	// protein: [MKV]
}

func ExampleGraph_Relabel() {
	g := pangraph.New()
	_ = g.AddNode(&pangraph.Node{ID: "a"})
	_ = g.AddNode(&pangraph.Node{ID: "b"})

	_, err := g.Relabel(map[string]string{"a": "b"})
	fmt.Println(errors.Is(err, pangraph.ErrRelabelCollision))
	// Output:
	// true
}

func ExampleGraph_Within() {
	g := pangraph.New()
	for _, id := range []string{"a", "b", "c", "d"} {
		_ = g.AddNode(&pangraph.Node{ID: id})
	}
	_ = g.AddEdge("a", "b", nil)
	_ = g.AddEdge("b", "c", nil)
	_ = g.AddEdge("c", "d", nil)

	fmt.Println(g.Within("a", 1))
	fmt.Println(g.Within("a", 2))
	// Output:
	// [b]
	// [b c]
}
