package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/pangenomerge/pkg/pangraph"
)

type graph struct {
	Isolates []string `json:"isolates,omitempty"`
	Nodes    []node   `json:"nodes"`
	Edges    []edge   `json:"edges"`
}

type node struct {
	ID             string   `json:"id"`
	Name           string   `json:"name,omitempty"`
	Members        []string `json:"members"`
	SeqIDs         []string `json:"seqIDs"`
	GeneIDs        []string `json:"geneIDs,omitempty"`
	GenomeIDs      []string `json:"genomeIDs,omitempty"`
	Centroid       []string `json:"centroid,omitempty"`
	Lengths        []int    `json:"lengths,omitempty"`
	Protein        []string `json:"protein,omitempty"`
	DNA            []string `json:"dna,omitempty"`
	LongCentroidID []string `json:"longCentroidID,omitempty"`
	MaxLenID       string   `json:"maxLenId,omitempty"`
	Annotation     string   `json:"annotation,omitempty"`
	Description    string   `json:"description,omitempty"`
	HasEnd         bool     `json:"hasEnd,omitempty"`
	Paralog        bool     `json:"paralog,omitempty"`
	MergedDNA      bool     `json:"mergedDNA,omitempty"`
	Degree         int      `json:"degree"`
}

type edge struct {
	Source  string   `json:"source"`
	Target  string   `json:"target"`
	Size    int      `json:"size"`
	Members []string `json:"members"`
}

// WriteJSON encodes g as indented JSON. Sets are written sorted, so equal
// graphs produce identical bytes.
func WriteJSON(g *pangraph.Graph, w io.Writer) error {
	out := graph{
		Isolates: g.Isolates,
		Nodes:    make([]node, 0, g.NodeCount()),
		Edges:    make([]edge, 0, g.EdgeCount()),
	}
	for _, n := range g.Nodes() {
		out.Nodes = append(out.Nodes, node{
			ID: n.ID, Name: n.Name,
			Members: n.Members.Sorted(), SeqIDs: n.SeqIDs.Sorted(),
			GeneIDs: n.GeneIDs, GenomeIDs: n.GenomeIDs, Centroid: n.Centroid,
			Lengths: n.Lengths, Protein: n.Protein, DNA: n.DNA,
			LongCentroidID: n.LongCentroidID, MaxLenID: n.MaxLenID,
			Annotation: n.Annotation, Description: n.Description,
			HasEnd: n.HasEnd, Paralog: n.Paralog, MergedDNA: n.MergedDNA,
			Degree: n.Degree,
		})
	}
	for _, e := range g.Edges() {
		out.Edges = append(out.Edges, edge{Source: e.U, Target: e.V, Size: e.Size(), Members: e.Members.Sorted()})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadJSON decodes a graph written by WriteJSON. The cached degree is kept
// as written.
func ReadJSON(r io.Reader) (*pangraph.Graph, error) {
	var data graph
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	g := pangraph.New()
	g.Isolates = data.Isolates
	for _, n := range data.Nodes {
		nd := &pangraph.Node{
			ID: n.ID, Name: n.Name,
			Members: pangraph.NewStringSet(n.Members...), SeqIDs: pangraph.NewStringSet(n.SeqIDs...),
			GeneIDs: n.GeneIDs, GenomeIDs: n.GenomeIDs, Centroid: n.Centroid,
			Lengths: n.Lengths, Protein: n.Protein, DNA: n.DNA,
			LongCentroidID: n.LongCentroidID, MaxLenID: n.MaxLenID,
			Annotation: n.Annotation, Description: n.Description,
			HasEnd: n.HasEnd, Paralog: n.Paralog, MergedDNA: n.MergedDNA,
			Degree: n.Degree,
		}
		if err := g.AddNode(nd); err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
	}
	for _, e := range data.Edges {
		if err := g.AddEdge(e.Source, e.Target, pangraph.NewStringSet(e.Members...)); err != nil {
			return nil, fmt.Errorf("edge %s-%s: %w", e.Source, e.Target, err)
		}
	}
	return g, nil
}

// ExportJSON writes g to a JSON file at path.
func ExportJSON(g *pangraph.Graph, path string) error {
	return writeAtomic(path, func(w io.Writer) error { return WriteJSON(g, w) })
}

// ImportGraph reads the graph file at path, as JSON when the extension is
// .json and as GML otherwise.
func ImportGraph(path string) (*pangraph.Graph, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ImportJSON(path)
	}
	return ImportGML(path)
}

// ImportJSON reads a JSON graph file.
func ImportJSON(path string) (*pangraph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
