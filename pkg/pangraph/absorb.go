package pangraph

import "fmt"

// Absorb merges the node absorbed into survivor and deletes absorbed.
//
// The survivor gains absorbed's sequence ids, members, lengths, annotation
// ids and genome ids; its representative sequences and flags are kept. Every
// edge of absorbed is re-pointed at survivor. When survivor already has an
// edge to the same neighbor the members are unioned, and the edge between
// the two nodes themselves disappears instead of becoming a self-loop.
func (g *Graph) Absorb(survivor, absorbed string) error {
	if survivor == absorbed {
		return fmt.Errorf("absorb %q into itself: %w", survivor, ErrSelfLoop)
	}
	s, ok := g.Node(survivor)
	if !ok {
		return fmt.Errorf("absorb into %q: %w", survivor, ErrUnknownNode)
	}
	a, ok := g.Node(absorbed)
	if !ok {
		return fmt.Errorf("absorb %q: %w", absorbed, ErrUnknownNode)
	}
	s.Union(a)

	type rewire struct {
		to      string
		members StringSet
	}
	var moves []rewire
	for _, nb := range g.Neighbors(absorbed) {
		if nb == survivor {
			continue
		}
		e, _ := g.Edge(absorbed, nb)
		moves = append(moves, rewire{to: nb, members: e.Members})
	}
	if err := g.RemoveNode(absorbed); err != nil {
		return err
	}
	for _, m := range moves {
		if _, err := g.MergeEdge(survivor, m.to, m.members); err != nil {
			return fmt.Errorf("rewire %q-%q: %w", survivor, m.to, err)
		}
	}
	return nil
}

// IdentifierConflictError reports an identifier that more than one node
// claims.
type IdentifierConflictError struct {
	Field string    // "seqIDs" or "geneIDs"
	Value string    // The shared identifier
	Nodes [2]string // The two claiming nodes, in arena order
}

func (e *IdentifierConflictError) Error() string {
	return fmt.Sprintf("%s %q is owned by both %q and %q", e.Field, e.Value, e.Nodes[0], e.Nodes[1])
}

func (e *IdentifierConflictError) Unwrap() error { return ErrDuplicateIdentifier }

// CheckIdentifiers verifies that no sequence id or annotation id appears in
// two different nodes, and returns the first conflict found in arena order.
// Members are genome ids and legitimately shared, so they are not checked.
func (g *Graph) CheckIdentifiers() error {
	seqOwner := make(map[string]string)
	geneOwner := make(map[string]string)
	for _, n := range g.Nodes() {
		for _, id := range n.SeqIDs.Sorted() {
			if prev, ok := seqOwner[id]; ok && prev != n.ID {
				return &IdentifierConflictError{Field: "seqIDs", Value: id, Nodes: [2]string{prev, n.ID}}
			}
			seqOwner[id] = n.ID
		}
		for _, id := range n.GeneIDs {
			if id == "" {
				continue
			}
			if prev, ok := geneOwner[id]; ok && prev != n.ID {
				return &IdentifierConflictError{Field: "geneIDs", Value: id, Nodes: [2]string{prev, n.ID}}
			}
			geneOwner[id] = n.ID
		}
	}
	return nil
}
