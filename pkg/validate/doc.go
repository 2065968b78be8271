// Package validate scores a merged pangenome graph against a ground-truth
// graph built from all genomes at once.
//
// Both graphs are reduced to a clustering of gene identifiers: every gene id
// (with its provenance suffix removed) is labeled by the node that holds it.
// Genes present in only one graph are excluded and counted. The two
// clusterings are then compared with the Rand index, the adjusted Rand index,
// mutual information and adjusted mutual information (arithmetic
// normalization).
//
// Scores are informational; a poor score never fails a merge.
package validate
