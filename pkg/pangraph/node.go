package pangraph

import (
	"slices"
	"strconv"
)

// Node is a gene family observed across a set of genomes.
//
// Set-valued identifier fields (Members, SeqIDs) are never nil after the node
// has been added to a [Graph]. List-valued fields keep the order in which
// observations were unioned in.
type Node struct {
	ID   string // Unique key within the graph
	Name string // Canonical label; equals ID after a snapshot is persisted

	Members   StringSet // Genome ids the family was observed in
	SeqIDs    StringSet // Per-gene sequence identifiers
	GeneIDs   []string  // Annotation ids, concatenated on union
	GenomeIDs []string  // Genome id strings, concatenated on union

	Centroid       []string // Representative sequence ids
	Lengths        []int    // Gene lengths, one entry per observed gene
	Protein        []string // Representative protein sequences
	DNA            []string // Representative nucleotide sequences
	LongCentroidID []string // Length and id of the longest centroid
	MaxLenID       string

	Annotation  string
	Description string

	HasEnd    bool
	Paralog   bool
	MergedDNA bool

	// Degree caches the number of incident edges. It is only accurate after
	// Graph.RecomputeDegrees.
	Degree int
}

// Size returns the number of genomes the family was observed in.
func (n *Node) Size() int { return len(n.Members) }

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	c := *n
	c.Members = n.Members.Clone()
	c.SeqIDs = n.SeqIDs.Clone()
	c.GeneIDs = slices.Clone(n.GeneIDs)
	c.GenomeIDs = slices.Clone(n.GenomeIDs)
	c.Centroid = slices.Clone(n.Centroid)
	c.Lengths = slices.Clone(n.Lengths)
	c.Protein = slices.Clone(n.Protein)
	c.DNA = slices.Clone(n.DNA)
	c.LongCentroidID = slices.Clone(n.LongCentroidID)
	return &c
}

// Union folds the observations of other into n. Sequence ids and members are
// set-unioned; annotation ids, genome ids and lengths are concatenated.
// Representative sequences, annotation text, flags and the longest-centroid
// bookkeeping of n are kept as they are.
func (n *Node) Union(other *Node) {
	n.ensureSets()
	n.SeqIDs.Union(other.SeqIDs)
	n.Members.Union(other.Members)
	n.GeneIDs = append(n.GeneIDs, other.GeneIDs...)
	n.GenomeIDs = append(n.GenomeIDs, other.GenomeIDs...)
	n.Lengths = append(n.Lengths, other.Lengths...)
}

// Tag appends suffix to every identifier the node emits: members, sequence
// ids, annotation ids, centroid ids, the id part of LongCentroidID and
// MaxLenID. Numeric entries of LongCentroidID are lengths and stay untouched.
func (n *Node) Tag(suffix string) {
	tag := func(s string) string { return s + suffix }
	n.Members = n.Members.Map(tag)
	n.SeqIDs = n.SeqIDs.Map(tag)
	n.GeneIDs = mapStrings(n.GeneIDs, tag)
	n.Centroid = mapStrings(n.Centroid, tag)
	n.LongCentroidID = mapStrings(n.LongCentroidID, func(s string) string {
		if _, err := strconv.Atoi(s); err == nil {
			return s
		}
		return tag(s)
	})
	if n.MaxLenID != "" {
		n.MaxLenID = tag(n.MaxLenID)
	}
}

// Representative returns the longest protein sequence of the node, falling
// back to the longest nucleotide sequence when no protein is recorded. Ties
// keep the first sequence listed.
func (n *Node) Representative() string {
	if rep := longest(n.Protein); rep != "" {
		return rep
	}
	return longest(n.DNA)
}

func (n *Node) ensureSets() {
	if n.Members == nil {
		n.Members = StringSet{}
	}
	if n.SeqIDs == nil {
		n.SeqIDs = StringSet{}
	}
}

func longest(seqs []string) string {
	var best string
	for _, s := range seqs {
		if len(s) > len(best) {
			best = s
		}
	}
	return best
}

func mapStrings(in []string, fn func(string) string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = fn(s)
	}
	return out
}

// Edge is an undirected adjacency between two gene families. U and V are
// stored in canonical order (U < V).
type Edge struct {
	U, V    string
	Members StringSet // Genomes in which the adjacency was observed
}

// Size returns the number of genomes supporting the adjacency.
func (e *Edge) Size() int { return len(e.Members) }

// Other returns the endpoint opposite to id.
func (e *Edge) Other(id string) string {
	if e.U == id {
		return e.V
	}
	return e.U
}

// Canonical orders an endpoint pair the way edges store it.
func Canonical(u, v string) (string, string) {
	if v < u {
		return v, u
	}
	return u, v
}
