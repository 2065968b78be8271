package pangraph

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// RelabelCollisionError reports that two distinct nodes resolved to the same
// id during [Graph.Relabel].
type RelabelCollisionError struct {
	Target  string    // Id both nodes resolved to
	Sources [2]string // Original ids, in arena order
}

func (e *RelabelCollisionError) Error() string {
	return fmt.Sprintf("relabel collision: %q and %q both map to %q", e.Sources[0], e.Sources[1], e.Target)
}

func (e *RelabelCollisionError) Unwrap() error { return ErrRelabelCollision }

// Relabel returns a new graph in which every node whose id appears in mapping
// is renamed to the mapped id. Unmapped nodes keep their id and no node is
// ever dropped. All node and edge attributes are copied.
//
// Relabel is a bijection or nothing: if two distinct source nodes resolve to
// the same target id it returns a *RelabelCollisionError and no graph. It
// returns ErrInvalidNodeID if a mapping target is empty.
func (g *Graph) Relabel(mapping map[string]string) (*Graph, error) {
	out := New()
	out.Isolates = slices.Clone(g.Isolates)
	owner := make(map[string]string, g.live)
	for _, n := range g.Nodes() {
		target := n.ID
		if to, ok := mapping[n.ID]; ok {
			target = to
		}
		if target == "" {
			return nil, fmt.Errorf("relabel %q: %w", n.ID, ErrInvalidNodeID)
		}
		if prev, taken := owner[target]; taken {
			return nil, &RelabelCollisionError{Target: target, Sources: [2]string{prev, n.ID}}
		}
		owner[target] = n.ID
		c := n.Clone()
		c.ID = target
		_ = out.AddNode(c)
	}
	for _, e := range g.Edges() {
		u, v := e.U, e.V
		if to, ok := mapping[u]; ok {
			u = to
		}
		if to, ok := mapping[v]; ok {
			v = to
		}
		_ = out.AddEdge(u, v, e.Members)
	}
	return out, nil
}

// RekeyByName relabels every node to its Name, so that graphs built
// independently can be compared by canonical label. Nodes with a blank name
// keep their id.
func (g *Graph) RekeyByName() (*Graph, error) {
	mapping := make(map[string]string, g.live)
	for _, n := range g.Nodes() {
		if n.Name != "" && n.Name != n.ID {
			mapping[n.ID] = n.Name
		}
	}
	return g.Relabel(mapping)
}

// ===========================================================================
// Provenance
// ===========================================================================

// MarkerSuffix is the transient suffix attached to cumulative-graph keys
// during one iteration so that they cannot collide with incoming keys.
const MarkerSuffix = "_query"

var provenancePattern = regexp.MustCompile(`_g[0-9]+$`)

// ProvenanceSuffix returns the permanent suffix for the k-th input graph.
// The base graph is k = 1.
func ProvenanceSuffix(k int) string { return "_g" + strconv.Itoa(k) }

// TrimProvenance removes a trailing provenance suffix, if any.
func TrimProvenance(s string) string {
	return provenancePattern.ReplaceAllString(s, "")
}

// HasMarker reports whether id carries the transient marker suffix.
func HasMarker(id string) bool { return strings.HasSuffix(id, MarkerSuffix) }

// TrimMarker removes the transient marker suffix, if any.
func TrimMarker(id string) string { return strings.TrimSuffix(id, MarkerSuffix) }

// Tag applies [Node.Tag] to every node and appends suffix to every edge
// member, so that genome ids of different inputs never coincide.
func (g *Graph) Tag(suffix string) {
	for _, n := range g.Nodes() {
		n.Tag(suffix)
	}
	for _, e := range g.Edges() {
		e.Members = e.Members.Map(func(s string) string { return s + suffix })
	}
}
