package metadata

import (
	"context"
	"maps"
	"sync"
)

// state is the cumulative content of a store.
type state struct {
	RunID     string                `json:"run_id"`
	Iteration int                   `json:"iteration"`
	Nodes     map[string]NodeRecord `json:"nodes"`
	Edges     map[string]EdgeRecord `json:"edges"`
}

func newState() *state {
	return &state{Nodes: make(map[string]NodeRecord), Edges: make(map[string]EdgeRecord)}
}

func (s *state) clone() *state {
	return &state{RunID: s.RunID, Iteration: s.Iteration, Nodes: maps.Clone(s.Nodes), Edges: maps.Clone(s.Edges)}
}

// apply mutates s; callers apply to a clone and swap on success.
func (s *state) apply(b *Batch) {
	for _, id := range b.RemovedNodes {
		delete(s.Nodes, id)
	}
	for _, k := range b.RemovedEdges {
		delete(s.Edges, k)
	}
	for _, n := range b.Nodes {
		s.Nodes[n.ID] = n
	}
	for _, e := range b.Edges {
		s.Edges[e.Key] = e
	}
	s.RunID, s.Iteration = b.RunID, b.Iteration
}

// Memory is an in-process Store.
type Memory struct {
	mu     sync.RWMutex
	st     *state
	closed bool
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{st: newState()}
}

func (m *Memory) Commit(ctx context.Context, b *Batch) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	next := m.st.clone()
	next.apply(b)
	m.st = next
	return nil
}

// Node returns the stored record for id.
func (m *Memory) Node(id string) (NodeRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.st.Nodes[id]
	return n, ok
}

// Edge returns the stored record for the edge {u, v}.
func (m *Memory) Edge(u, v string) (EdgeRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.st.Edges[EdgeKey(u, v)]
	return e, ok
}

// Counts returns the number of stored nodes and edges.
func (m *Memory) Counts() (nodes, edges int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.st.Nodes), len(m.st.Edges)
}

// Iteration returns the last committed iteration, or 0.
func (m *Memory) Iteration() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.Iteration
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Null discards every batch.
type Null struct{}

var _ Store = Null{}

func (Null) Commit(_ context.Context, b *Batch) error { return b.Validate() }
func (Null) Close() error                             { return nil }
