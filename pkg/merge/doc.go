// Package merge folds a sequence of pangenome graphs into one cumulative
// graph.
//
// # Iterations
//
// The first input is the base graph. Every further input is merged into the
// cumulative graph in one [Iteration], which moves through fixed states:
//
//	LOAD → RELABEL → MATCH → TAG → MERGE_NODES → MERGE_EDGES → COLLAPSE → PERSIST
//
//   - LOAD reads the incoming graph (the base only on iteration 1).
//   - RELABEL rekeys both graphs by canonical node name.
//   - MATCH searches incoming representatives against cumulative ones and
//     builds a one-to-one ortholog correspondence. Cumulative keys receive the
//     transient marker "_query"; matched incoming nodes take their
//     counterpart's marked key, unmatched ones the provenance suffix "_g<k>".
//   - TAG suffixes every identifier of the incoming graph with "_g<k>" (and
//     of the base graph with "_g1", once).
//   - MERGE_NODES unions nodes under equal keys; inserted keys are new.
//   - MERGE_EDGES unions edge members or adds edges, dropping edges whose
//     endpoint cannot be resolved ("ghost" edges, recorded in the report).
//   - COLLAPSE merges spurious paralogs among the new nodes.
//   - PERSIST strips markers, checks identifier uniqueness, commits one
//     metadata batch and writes the iteration snapshot.
//
// Any error aborts the whole run before the failing iteration persists
// anything. Ghost edges are the only recoverable condition.
//
// # Usage
//
//	eng := merge.New(oracle.NewNative(), merge.DefaultOptions(), logger)
//	eng.Writer = merge.NewDirWriter("out")
//	res, err := eng.Run(ctx, []string{"g1.gml", "g2.gml", "g3.gml"})
package merge
