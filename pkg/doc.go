// Package pkg holds the libraries behind pangenomerge.
//
// # Overview
//
// pangenomerge folds independently built pangenome graphs into one
// cumulative graph. The libraries are organized by concern:
//
//  1. [pangraph] - the gene-family graph, relabeling and neighborhoods
//  2. [ortholog] - one-to-one matching of similarity hits
//  3. [collapse] - context-aware collapse of spurious paralogs
//  4. [merge] - the per-iteration state machine and snapshot writer
//  5. [oracle] - similarity search (MMseqs2, in-process, cached)
//  6. [io] - GML, FASTA and JSON codecs and the input loader
//  7. [metadata] - per-iteration metadata stores (file, Redis, MongoDB, Kuzu)
//  8. [validate] - clustering agreement scores against a truth graph
//  9. [render] - DOT and SVG export
//
// Supporting packages: [errors] (coded errors), [cache] (search result
// cache), [observability] (hooks and Prometheus export), [buildinfo].
//
// # Architecture
//
// One merge iteration:
//
//	next input graph ──► [io.Loader]
//	         ↓
//	    relabel to names, search against cumulative graph ([oracle])
//	         ↓
//	    [ortholog.Match] → rename incoming families
//	         ↓
//	    union nodes and edges ([pangraph])
//	         ↓
//	    [collapse.Collapser] over the new families
//	         ↓
//	    snapshot + [metadata.Store] commit
//
// # Quick Start
//
//	eng := merge.New(oracle.NewMMseqs("", logger), merge.DefaultOptions(), logger)
//	eng.Writer = merge.NewDirWriter("out")
//	res, err := eng.Run(ctx, []string{"a.gml", "b.gml", "c.gml"})
//
// [pangraph]: github.com/matzehuels/pangenomerge/pkg/pangraph
// [ortholog]: github.com/matzehuels/pangenomerge/pkg/ortholog
// [collapse]: github.com/matzehuels/pangenomerge/pkg/collapse
// [merge]: github.com/matzehuels/pangenomerge/pkg/merge
// [oracle]: github.com/matzehuels/pangenomerge/pkg/oracle
// [io]: github.com/matzehuels/pangenomerge/pkg/io
// [metadata]: github.com/matzehuels/pangenomerge/pkg/metadata
// [validate]: github.com/matzehuels/pangenomerge/pkg/validate
// [render]: github.com/matzehuels/pangenomerge/pkg/render
// [errors]: github.com/matzehuels/pangenomerge/pkg/errors
// [cache]: github.com/matzehuels/pangenomerge/pkg/cache
// [observability]: github.com/matzehuels/pangenomerge/pkg/observability
// [buildinfo]: github.com/matzehuels/pangenomerge/pkg/buildinfo
// [io.Loader]: github.com/matzehuels/pangenomerge/pkg/io#Loader
// [ortholog.Match]: github.com/matzehuels/pangenomerge/pkg/ortholog#Match
// [collapse.Collapser]: github.com/matzehuels/pangenomerge/pkg/collapse#Collapser
// [metadata.Store]: github.com/matzehuels/pangenomerge/pkg/metadata#Store
package pkg
