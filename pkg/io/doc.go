// Package io reads and writes pangenome graphs and their sequence files.
//
// # GML
//
// [ReadGML] and [WriteGML] handle the GML dialect Panaroo and networkx
// produce (final_graph.gml). Each node block carries the gene-family fields
// of [pangraph.Node]; list-valued fields are written as repeated keys and the
// sequence lists as ';'-joined strings:
//
//	graph [
//	  isolateNames "sample_a"
//	  node [
//	    id 0
//	    label "group_12"
//	    name "group_12"
//	    size 2
//	    centroid "0_0_12"
//	    members 0
//	    members 1
//	    seqIDs "0_0_12"
//	    seqIDs "1_0_9"
//	    protein "MKV*"
//	  ]
//	  edge [
//	    source 0
//	    target 1
//	    members 0
//	  ]
//	]
//
// # Loading Inputs
//
// [Loader] reads the ordered input graphs of a merge run and applies the
// input conventions: refound centroids are dropped, stop codons in proteins
// become 'J', duplicate sequences are removed and, optionally, genome ids are
// offset across inputs.
//
// # Reference FASTA and JSON
//
// [ExportReference] writes one representative sequence per node, keyed by
// node id. [WriteJSON] and [ReadJSON] provide a JSON encoding; [ImportGraph]
// picks the codec from the file extension.
//
// All Export* functions write through a temporary file and rename it into
// place, so a crash never leaves a half-written snapshot behind.
package io
