package pangraph

// Within returns the ids at shortest-path distance 1..depth from id, in
// breadth-first order. The node itself is excluded. Returns nil for unknown
// ids or depth < 1.
func (g *Graph) Within(id string, depth int) []string {
	start, ok := g.index[id]
	if !ok || depth < 1 {
		return nil
	}
	slots := bfs(start, depth, g.neighborSlots)
	out := make([]string, len(slots))
	for k, j := range slots {
		out[k] = g.nodes[j].ID
	}
	return out
}

func bfs(start, depth int, next func(int) []int) []int {
	seen := map[int]bool{start: true}
	frontier := []int{start}
	var out []int
	for d := 0; d < depth && len(frontier) > 0; d++ {
		var level []int
		for _, i := range frontier {
			for _, j := range next(i) {
				if !seen[j] {
					seen[j] = true
					level = append(level, j)
				}
			}
		}
		out = append(out, level...)
		frontier = level
	}
	return out
}

// Snapshot is an immutable view of a graph's topology and members. It is
// safe for concurrent reads and does not observe later graph mutations.
type Snapshot struct {
	ids     []string
	index   map[string]int
	adj     [][]int
	members []StringSet
}

// Snapshot freezes the current adjacency and members of g.
func (g *Graph) Snapshot() *Snapshot {
	s := &Snapshot{
		ids:     make([]string, 0, g.live),
		index:   make(map[string]int, g.live),
		members: make([]StringSet, 0, g.live),
	}
	remap := make(map[int]int, g.live)
	for i, n := range g.nodes {
		if n == nil {
			continue
		}
		remap[i] = len(s.ids)
		s.index[n.ID] = len(s.ids)
		s.ids = append(s.ids, n.ID)
		s.members = append(s.members, n.Members.Clone())
	}
	s.adj = make([][]int, len(s.ids))
	for i, n := range g.nodes {
		if n == nil {
			continue
		}
		slots := g.neighborSlots(i)
		row := make([]int, len(slots))
		for k, j := range slots {
			row[k] = remap[j]
		}
		s.adj[remap[i]] = row
	}
	return s
}

// Has reports whether id was in the graph when the snapshot was taken.
func (s *Snapshot) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Len returns the number of nodes in the snapshot.
func (s *Snapshot) Len() int { return len(s.ids) }

// Members returns the member set of id. The set must not be modified.
func (s *Snapshot) Members(id string) StringSet {
	i, ok := s.index[id]
	if !ok {
		return nil
	}
	return s.members[i]
}

// Within is the snapshot equivalent of [Graph.Within].
func (s *Snapshot) Within(id string, depth int) []string {
	start, ok := s.index[id]
	if !ok || depth < 1 {
		return nil
	}
	slots := bfs(start, depth, func(i int) []int { return s.adj[i] })
	out := make([]string, len(slots))
	for k, j := range slots {
		out[k] = s.ids[j]
	}
	return out
}
