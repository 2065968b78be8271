// Package collapse detects and merges spurious paralogs: sibling nodes that
// represent one true gene family but were split apart because they come from
// different input graphs.
//
// # Detection
//
// A candidate pair is two nodes of which exactly one was inserted by the
// current merge iteration, whose representative sequences reach the family
// identity threshold. A candidate is accepted when
//
//   - its identity is at least FamilyThreshold,
//   - its depth-1 context similarity is at least ContextThreshold,
//   - its depth-2 or depth-3 context similarity is at least ContextThreshold,
//   - the two nodes share no genome (a genome can hold real paralogs, so two
//     nodes observed in the same genome are never merged).
//
// Context similarity at depth d is the highest sequence identity between
// any node within d hops of one endpoint and any node within d hops of the
// other; a node in both neighborhoods scores 1. Deeper contexts are only
// scored when the shallower one falls short.
//
// # Selection
//
// Accepted pairs are ranked by (identity, d1, d2, d3) and applied greedily so
// that each node takes part in at most one collapse per round. The node that
// already existed before the iteration survives and absorbs the new one.
// Rounds repeat until nothing is selected, so running the collapser again on
// its own output finds nothing to do.
//
// # Concurrency
//
// Scoring runs on a [pangraph.Snapshot] across a bounded worker pool; only
// the calling goroutine mutates the graph.
package collapse
