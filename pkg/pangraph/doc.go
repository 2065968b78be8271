// Package pangraph provides the attributed gene-family graph that the merge
// engine folds input pangenomes into.
//
// # Overview
//
// A [Graph] holds [Node] values (gene families) connected by undirected
// [Edge] values (observed gene adjacencies). Each node carries the genomes it
// was observed in (Members), the per-gene sequence identifiers (SeqIDs) and a
// set of representative sequences. Each edge carries the genomes in which the
// two families were observed next to each other.
//
// # Storage
//
// Nodes live in an arena slice addressed through an id index. Adjacency is
// kept per arena slot, and every traversal walks the arena in insertion
// order, so repeated runs over the same inputs produce identical outputs.
// Removed nodes leave a nil slot behind; [Graph.Clone] compacts the arena.
//
// # Identifier Rules
//
//   - Node ids are unique and non-empty.
//   - Edges never connect a node to itself and there is at most one edge per
//     unordered node pair.
//   - A sequence id or annotation id belongs to exactly one node
//     ([Graph.CheckIdentifiers]).
//
// Renaming never merges: [Graph.Relabel] fails with [ErrRelabelCollision]
// when two distinct nodes would end up under the same id. Merging is always
// explicit, through [Graph.InsertOrUnion] or [Graph.Absorb].
//
// # Concurrency
//
// Graph is not safe for concurrent mutation. Workers that only need
// neighborhoods and members should read from a [Snapshot], which is immutable
// once built.
package pangraph
