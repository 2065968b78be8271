package pangraph

import (
	"errors"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] and [Graph.Relabel] when
	// a node id is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same id already exists. Use [Graph.InsertOrUnion] to merge instead.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownNode is returned when an operation references a node id that
	// is not in the graph.
	ErrUnknownNode = errors.New("unknown node")

	// ErrSelfLoop is returned by [Graph.AddEdge] and [Graph.MergeEdge] when
	// both endpoints are the same node.
	ErrSelfLoop = errors.New("edge endpoints must differ")

	// ErrDuplicateEdge is returned by [Graph.AddEdge] when the node pair is
	// already connected. Use [Graph.MergeEdge] to union members instead.
	ErrDuplicateEdge = errors.New("duplicate edge")

	// ErrRelabelCollision is wrapped by [RelabelCollisionError].
	ErrRelabelCollision = errors.New("relabel collision")

	// ErrDuplicateIdentifier is wrapped by [IdentifierConflictError].
	ErrDuplicateIdentifier = errors.New("identifier owned by more than one node")
)

// Graph is an undirected attributed graph of gene families.
//
// The zero value is not usable - use New to create a Graph.
// Graph is not safe for concurrent use without external synchronization.
type Graph struct {
	// Isolates lists the genome names the graph was built from, in input
	// order. It is carried through Relabel and Clone unchanged.
	Isolates []string

	nodes []*Node         // arena, nil for removed slots
	index map[string]int  // node id -> arena slot
	adj   []map[int]*Edge // arena slot -> neighbor slot -> shared edge
	live  int             // non-nil slots
	edges int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{index: make(map[string]int)}
}

// AddNode adds n to the graph. The graph takes ownership of n; callers that
// keep using n should pass a clone. Returns ErrInvalidNodeID if n.ID is empty
// or ErrDuplicateNodeID if the id is taken. A blank Name defaults to the id.
func (g *Graph) AddNode(n *Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.index[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	n.ensureSets()
	if n.Name == "" {
		n.Name = n.ID
	}
	g.index[n.ID] = len(g.nodes)
	g.nodes = append(g.nodes, n)
	g.adj = append(g.adj, nil)
	g.live++
	return nil
}

// InsertOrUnion inserts a deep copy of n when its id is absent, otherwise it
// unions n into the existing node with [Node.Union]. It reports whether a new
// node was inserted.
func (g *Graph) InsertOrUnion(n *Node) (bool, error) {
	if existing, ok := g.Node(n.ID); ok {
		existing.Union(n)
		return false, nil
	}
	if err := g.AddNode(n.Clone()); err != nil {
		return false, err
	}
	return true, nil
}

// Node returns the node with the given id. The pointer refers to the stored
// node; changing its ID field corrupts the index, use Relabel instead.
func (g *Graph) Node(id string) (*Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return nil, false
	}
	return g.nodes[i], true
}

// HasNode reports whether id is in the graph.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.index[id]
	return ok
}

// RemoveNode deletes the node and every incident edge.
func (g *Graph) RemoveNode(id string) error {
	i, ok := g.index[id]
	if !ok {
		return ErrUnknownNode
	}
	for j := range g.adj[i] {
		delete(g.adj[j], i)
		g.edges--
	}
	g.adj[i] = nil
	g.nodes[i] = nil
	delete(g.index, id)
	g.live--
	return nil
}

// Nodes returns the live nodes in insertion order. The pointers refer to the
// stored nodes.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, g.live)
	for _, n := range g.nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

// NodeIDs returns the live node ids in insertion order.
func (g *Graph) NodeIDs() []string {
	out := make([]string, 0, g.live)
	for _, n := range g.nodes {
		if n != nil {
			out = append(out, n.ID)
		}
	}
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return g.live }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return g.edges }

// AddEdge connects u and v. Members may be nil. Returns ErrSelfLoop,
// ErrUnknownNode or ErrDuplicateEdge.
func (g *Graph) AddEdge(u, v string, members StringSet) error {
	iu, iv, err := g.endpoints(u, v)
	if err != nil {
		return err
	}
	if _, exists := g.adj[iu][iv]; exists {
		return ErrDuplicateEdge
	}
	g.link(iu, iv, members.Clone())
	return nil
}

// MergeEdge connects u and v, unioning members into the existing edge when
// the pair is already connected. It reports whether a new edge was created.
func (g *Graph) MergeEdge(u, v string, members StringSet) (bool, error) {
	iu, iv, err := g.endpoints(u, v)
	if err != nil {
		return false, err
	}
	if e, exists := g.adj[iu][iv]; exists {
		e.Members.Union(members)
		return false, nil
	}
	g.link(iu, iv, members.Clone())
	return true, nil
}

func (g *Graph) endpoints(u, v string) (int, int, error) {
	if u == v {
		return 0, 0, ErrSelfLoop
	}
	iu, ok := g.index[u]
	if !ok {
		return 0, 0, ErrUnknownNode
	}
	iv, ok := g.index[v]
	if !ok {
		return 0, 0, ErrUnknownNode
	}
	return iu, iv, nil
}

func (g *Graph) link(iu, iv int, members StringSet) {
	a, b := Canonical(g.nodes[iu].ID, g.nodes[iv].ID)
	e := &Edge{U: a, V: b, Members: members}
	if g.adj[iu] == nil {
		g.adj[iu] = make(map[int]*Edge)
	}
	if g.adj[iv] == nil {
		g.adj[iv] = make(map[int]*Edge)
	}
	g.adj[iu][iv] = e
	g.adj[iv][iu] = e
	g.edges++
}

// Edge returns the edge between u and v in either order.
func (g *Graph) Edge(u, v string) (*Edge, bool) {
	iu, ok := g.index[u]
	if !ok {
		return nil, false
	}
	iv, ok := g.index[v]
	if !ok {
		return nil, false
	}
	e, ok := g.adj[iu][iv]
	return e, ok
}

// HasEdge reports whether u and v are connected.
func (g *Graph) HasEdge(u, v string) bool {
	_, ok := g.Edge(u, v)
	return ok
}

// Edges returns every edge once, ordered by the arena position of the
// earlier endpoint and then of the later one.
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, 0, g.edges)
	for i := range g.nodes {
		for _, j := range g.neighborSlots(i) {
			if j > i {
				out = append(out, g.adj[i][j])
			}
		}
	}
	return out
}

// Neighbors returns the ids adjacent to id in arena order. Returns nil for
// unknown ids.
func (g *Graph) Neighbors(id string) []string {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	slots := g.neighborSlots(i)
	out := make([]string, len(slots))
	for k, j := range slots {
		out[k] = g.nodes[j].ID
	}
	return out
}

// Degree returns the live number of incident edges, independent of the
// cached Node.Degree.
func (g *Graph) Degree(id string) int {
	i, ok := g.index[id]
	if !ok {
		return 0
	}
	return len(g.adj[i])
}

// RecomputeDegrees refreshes Node.Degree on every node in O(V+E).
func (g *Graph) RecomputeDegrees() {
	for i, n := range g.nodes {
		if n != nil {
			n.Degree = len(g.adj[i])
		}
	}
}

// SyncNames sets every node's Name to its id.
func (g *Graph) SyncNames() {
	for _, n := range g.nodes {
		if n != nil {
			n.Name = n.ID
		}
	}
}

// Clone returns a deep copy with a compacted arena.
func (g *Graph) Clone() *Graph {
	out := New()
	out.Isolates = slices.Clone(g.Isolates)
	for _, n := range g.Nodes() {
		_ = out.AddNode(n.Clone())
	}
	for _, e := range g.Edges() {
		_ = out.AddEdge(e.U, e.V, e.Members)
	}
	return out
}

func (g *Graph) neighborSlots(i int) []int {
	if len(g.adj[i]) == 0 {
		return nil
	}
	slots := make([]int, 0, len(g.adj[i]))
	for j := range g.adj[i] {
		slots = append(slots, j)
	}
	slices.Sort(slots)
	return slots
}
