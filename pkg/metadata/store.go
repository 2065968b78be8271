// Package metadata persists per-node and per-edge attributes of the
// cumulative pangenome graph.
//
// Each merge iteration produces one [Batch]: the full set of node and edge
// records of the cumulative graph plus the keys that disappeared since the
// previous iteration (families absorbed by a paralog collapse and the edges
// they took with them). A [Store] applies a batch all-or-nothing, replacing
// records that already exist under the same key.
//
// Backends:
//   - [Memory]: in-process map, for tests and dry runs
//   - [File]: one JSON document rewritten atomically
//   - [Redis]: hashes per record written in a MULTI/EXEC transaction
//   - [Mongo]: two collections updated inside a multi-document transaction
//   - Kuzu: a graph database, available in cgo builds only
//
// # Usage
//
//	store, err := metadata.Open(ctx, metadata.Config{Backend: metadata.BackendFile, Path: "out/metadata.json"})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	batch := metadata.NewBatch(runID, iteration, cumulative, previous)
//	if err := store.Commit(ctx, batch); err != nil {
//	    return err
//	}
package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/matzehuels/pangenomerge/pkg/pangraph"
)

var (
	// ErrInvalidBatch is returned when a batch carries an empty key or a
	// non-positive iteration. Nothing is written.
	ErrInvalidBatch = errors.New("invalid metadata batch")

	// ErrClosed is returned by Commit after Close.
	ErrClosed = errors.New("metadata store closed")
)

// Store commits iteration batches.
type Store interface {
	io.Closer
	// Commit applies b atomically: either every record and deletion in the
	// batch is visible afterwards or none is.
	Commit(ctx context.Context, b *Batch) error
}

// Batch is the unit of persistence for one iteration.
type Batch struct {
	RunID        string       `json:"run_id"`
	Iteration    int          `json:"iteration"`
	Nodes        []NodeRecord `json:"nodes"`
	Edges        []EdgeRecord `json:"edges"`
	RemovedNodes []string     `json:"removed_nodes,omitempty"`
	RemovedEdges []string     `json:"removed_edges,omitempty"`
}

// NodeRecord is the persisted form of a gene family.
type NodeRecord struct {
	ID             string        `json:"id" bson:"_id"`
	Name           string        `json:"name" bson:"name"`
	Size           int           `json:"size" bson:"size"`
	Degree         int           `json:"degree" bson:"degree"`
	Members        []string      `json:"members" bson:"members"`
	SeqIDs         []string      `json:"seq_ids" bson:"seq_ids"`
	GeneIDs        []string      `json:"gene_ids" bson:"gene_ids"`
	GenomeIDs      []string      `json:"genome_ids" bson:"genome_ids"`
	Centroids      []string      `json:"centroids" bson:"centroids"`
	LongCentroidID []string      `json:"long_centroid_id" bson:"long_centroid_id"`
	Lengths        []LengthCount `json:"lengths" bson:"lengths"`
	MaxLenID       string        `json:"max_len_id,omitempty" bson:"max_len_id"`
	Annotation     string        `json:"annotation,omitempty" bson:"annotation"`
	Description    string        `json:"description,omitempty" bson:"description"`
	DNA            string        `json:"dna,omitempty" bson:"dna"`
	Protein        string        `json:"protein,omitempty" bson:"protein"`
	HasEnd         bool          `json:"has_end" bson:"has_end"`
	Paralog        bool          `json:"paralog" bson:"paralog"`
	MergedDNA      bool          `json:"merged_dna" bson:"merged_dna"`
	LastIteration  int           `json:"last_iteration" bson:"last_iteration"`
	RunID          string        `json:"run_id" bson:"run_id"`
}

// LengthCount is one entry of a node's gene-length histogram.
type LengthCount struct {
	Length int `json:"length" bson:"length"`
	Count  int `json:"count" bson:"count"`
}

// EdgeRecord is the persisted form of an adjacency. U sorts before V.
type EdgeRecord struct {
	Key           string   `json:"key" bson:"_id"`
	U             string   `json:"u" bson:"u"`
	V             string   `json:"v" bson:"v"`
	Size          int      `json:"size" bson:"size"`
	Members       []string `json:"members" bson:"members"`
	LastIteration int      `json:"last_iteration" bson:"last_iteration"`
	RunID         string   `json:"run_id" bson:"run_id"`
}

// EdgeKey returns the store key of the undirected edge {u, v}.
func EdgeKey(u, v string) string {
	u, v = pangraph.Canonical(u, v)
	return u + "|" + v
}

// NewBatch builds the batch for graph g at the given iteration. prev is the
// cumulative graph committed by the previous iteration, or nil; its nodes and
// edges missing from g are recorded as removals.
func NewBatch(runID string, iteration int, g, prev *pangraph.Graph) *Batch {
	b := &Batch{RunID: runID, Iteration: iteration}
	for _, n := range g.Nodes() {
		b.Nodes = append(b.Nodes, nodeRecord(n, runID, iteration))
	}
	for _, e := range g.Edges() {
		u, v := pangraph.Canonical(e.U, e.V)
		b.Edges = append(b.Edges, EdgeRecord{
			Key:           EdgeKey(u, v),
			U:             u,
			V:             v,
			Size:          e.Size(),
			Members:       e.Members.Sorted(),
			LastIteration: iteration,
			RunID:         runID,
		})
	}
	if prev == nil {
		return b
	}
	for _, id := range prev.NodeIDs() {
		if !g.HasNode(id) {
			b.RemovedNodes = append(b.RemovedNodes, id)
		}
	}
	for _, e := range prev.Edges() {
		if !g.HasEdge(e.U, e.V) {
			b.RemovedEdges = append(b.RemovedEdges, EdgeKey(e.U, e.V))
		}
	}
	return b
}

func nodeRecord(n *pangraph.Node, runID string, iteration int) NodeRecord {
	return NodeRecord{
		ID:             n.ID,
		Name:           n.Name,
		Size:           n.Size(),
		Degree:         n.Degree,
		Members:        n.Members.Sorted(),
		SeqIDs:         n.SeqIDs.Sorted(),
		GeneIDs:        nonEmpty(n.GeneIDs),
		GenomeIDs:      nonEmpty(n.GenomeIDs),
		Centroids:      nonEmpty(n.Centroid),
		LongCentroidID: nonEmpty(n.LongCentroidID),
		Lengths:        histogram(n.Lengths),
		MaxLenID:       n.MaxLenID,
		Annotation:     n.Annotation,
		Description:    n.Description,
		DNA:            strings.Join(nonEmpty(n.DNA), ";"),
		Protein:        strings.Join(nonEmpty(n.Protein), ";"),
		HasEnd:         n.HasEnd,
		Paralog:        n.Paralog,
		MergedDNA:      n.MergedDNA,
		LastIteration:  iteration,
		RunID:          runID,
	}
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func histogram(lengths []int) []LengthCount {
	counts := make(map[int]int, len(lengths))
	for _, l := range lengths {
		counts[l]++
	}
	out := make([]LengthCount, 0, len(counts))
	for l, c := range counts {
		out = append(out, LengthCount{Length: l, Count: c})
	}
	slices.SortFunc(out, func(a, b LengthCount) int { return a.Length - b.Length })
	return out
}

// Validate reports whether the batch can be committed.
func (b *Batch) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil batch", ErrInvalidBatch)
	}
	if b.Iteration < 1 {
		return fmt.Errorf("%w: iteration %d", ErrInvalidBatch, b.Iteration)
	}
	for _, n := range b.Nodes {
		if n.ID == "" {
			return fmt.Errorf("%w: node with empty id", ErrInvalidBatch)
		}
	}
	for _, e := range b.Edges {
		if e.U == "" || e.V == "" || e.Key != EdgeKey(e.U, e.V) {
			return fmt.Errorf("%w: edge %q", ErrInvalidBatch, e.Key)
		}
	}
	return nil
}
