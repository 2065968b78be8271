package io

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pangenomerge/pkg/errors"
	"github.com/matzehuels/pangenomerge/pkg/pangraph"
)

// Loader reads input graphs in order and normalizes their sequence fields.
//
// With Offset enabled, genome ids of every graph are shifted past the highest
// genome id of the graphs loaded before it, and the genome prefix of every
// sequence id is shifted by the same amount, so the ids of independently
// built graphs never coincide even before provenance tagging. Edge members
// are shifted together with node members.
//
// A Loader is stateful and must be used for one input sequence only.
type Loader struct {
	Offset bool
	Logger *log.Logger

	memberCount int
}

// Load reads and normalizes the graph at path. A missing file returns a
// FILE_NOT_FOUND error; an unreadable or malformed one INVALID_GRAPH.
func (l *Loader) Load(path string) (*pangraph.Graph, error) {
	if err := errors.ValidateGraphPath(path); err != nil {
		return nil, err
	}
	g, err := ImportGML(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "load %s", path)
	}

	offset := 0
	if l.Offset {
		offset = l.memberCount
	}
	maxMember := -1
	for _, n := range g.Nodes() {
		normalize(n, offset)
		for m := range n.Members {
			if v, err := strconv.Atoi(m); err == nil && v > maxMember {
				maxMember = v
			}
		}
	}
	if offset != 0 {
		for _, e := range g.Edges() {
			e.Members = e.Members.Map(func(m string) string { return shiftInt(m, offset) })
		}
	}
	l.memberCount = max(l.memberCount, maxMember+1)

	if l.Logger != nil {
		l.Logger.Debug("loaded graph", "path", path, "nodes", g.NodeCount(), "edges", g.EdgeCount(), "offset", offset)
	}
	return g, nil
}

// normalize applies the input conventions of Panaroo graphs: refound
// centroids are dropped, stop codons become 'J' so protein search tools
// accept them, and repeated sequences are removed.
func normalize(n *pangraph.Node, offset int) {
	shiftSID := func(sid string) string {
		head, rest, found := strings.Cut(sid, "_")
		head = strings.ReplaceAll(head, "'", "")
		v, err := strconv.Atoi(head)
		if err != nil {
			return sid
		}
		if !found {
			return strconv.Itoa(v + offset)
		}
		return strconv.Itoa(v+offset) + "_" + rest
	}

	centroids := make([]string, 0, len(n.Centroid))
	for _, c := range n.Centroid {
		c = shiftSID(c)
		if !strings.Contains(c, "refound") {
			centroids = append(centroids, c)
		}
	}
	n.Centroid = centroids
	n.SeqIDs = n.SeqIDs.Map(shiftSID)
	if len(n.LongCentroidID) > 1 {
		n.LongCentroidID[1] = shiftSID(n.LongCentroidID[1])
	}
	n.Members = n.Members.Map(func(m string) string { return shiftInt(m, offset) })

	for i, p := range n.Protein {
		n.Protein[i] = strings.ReplaceAll(p, "*", "J")
	}
	n.Protein = dedup(n.Protein)
	n.DNA = dedup(n.DNA)
}

func shiftInt(s string, offset int) string {
	if offset == 0 {
		return s
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return s
	}
	return strconv.Itoa(v + offset)
}

func dedup(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
