package io

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/pangenomerge/pkg/pangraph"
)

const panarooSample = `graph [
  isolateNames "sample_a"
  isolateNames "sample_b"
  node [
    id 0
    label "0"
    name "group_1"
    size 2
    centroid "0_0_1;1_0_3"
    maxLenId 0
    members 0
    members 1
    seqIDs "0_0_1"
    seqIDs "1_0_3"
    hasEnd 0
    protein "MKVLA*;MKVL"
    dna "ATGAAAGTT"
    annotation "hypothetical protein"
    description "none &#34;quoted&#34;"
    lengths 300
    lengths 303
    longCentroidID 303
    longCentroidID "1_0_3"
    paralog 0
    mergedDNA 0
    geneIDs "PROKKA_0001;PROKKA_0100"
    degrees 1
  ]
  node [
    id 1
    label "1"
    name "group_2"
    size 1
    centroid "0_0_2"
    members 0
    seqIDs "0_0_2"
    protein "MSTQ"
    dna "ATGTCT"
    lengths 120
    longCentroidID 120
    longCentroidID "0_0_2"
    paralog 1
  ]
  edge [
    source 0
    target 1
    size 1
    members 0
  ]
]
`

func TestReadGML(t *testing.T) {
	g, err := ReadGML(strings.NewReader(panarooSample))
	if err != nil {
		t.Fatal(err)
	}
	if g.NodeCount() != 2 || g.EdgeCount() != 1 {
		t.Fatalf("got %d nodes, %d edges", g.NodeCount(), g.EdgeCount())
	}
	if !slices.Equal(g.Isolates, []string{"sample_a", "sample_b"}) {
		t.Errorf("isolates = %v", g.Isolates)
	}

	n, ok := g.Node("0")
	if !ok {
		t.Fatal("node keyed by label missing")
	}
	if n.Name != "group_1" {
		t.Errorf("name = %q", n.Name)
	}
	if got := n.Members.Sorted(); !slices.Equal(got, []string{"0", "1"}) {
		t.Errorf("members = %v", got)
	}
	if !slices.Equal(n.Centroid, []string{"0_0_1", "1_0_3"}) {
		t.Errorf("centroid = %v", n.Centroid)
	}
	if !slices.Equal(n.Protein, []string{"MKVLA*", "MKVL"}) {
		t.Errorf("protein = %v", n.Protein)
	}
	if !slices.Equal(n.GeneIDs, []string{"PROKKA_0001", "PROKKA_0100"}) {
		t.Errorf("geneIDs = %v", n.GeneIDs)
	}
	if !slices.Equal(n.Lengths, []int{300, 303}) {
		t.Errorf("lengths = %v", n.Lengths)
	}
	if !slices.Equal(n.LongCentroidID, []string{"303", "1_0_3"}) {
		t.Errorf("longCentroidID = %v", n.LongCentroidID)
	}
	if n.Description != `none "quoted"` {
		t.Errorf("description = %q", n.Description)
	}
	if m, _ := g.Node("1"); !m.Paralog {
		t.Errorf("paralog flag lost")
	}
	if e, ok := g.Edge("0", "1"); !ok || !e.Members.Has("0") {
		t.Errorf("edge = %+v", e)
	}
}

func TestGMLRoundTrip(t *testing.T) {
	g, err := ReadGML(strings.NewReader(panarooSample))
	if err != nil {
		t.Fatal(err)
	}
	g.Tag("_g1")
	g.RecomputeDegrees()

	var buf bytes.Buffer
	if err := WriteGML(&buf, g); err != nil {
		t.Fatal(err)
	}
	written := buf.String()
	back, err := ReadGML(&buf)
	if err != nil {
		t.Fatalf("re-read: %v\n%s", err, written)
	}

	for _, want := range g.Nodes() {
		got, ok := back.Node(want.ID)
		if !ok {
			t.Fatalf("node %s lost", want.ID)
		}
		if !slices.Equal(got.Members.Sorted(), want.Members.Sorted()) ||
			!slices.Equal(got.SeqIDs.Sorted(), want.SeqIDs.Sorted()) ||
			!slices.Equal(got.Protein, want.Protein) ||
			got.Description != want.Description ||
			got.Paralog != want.Paralog {
			t.Errorf("node %s changed:\n got %+v\nwant %+v", want.ID, got, want)
		}
	}
	if e, ok := back.Edge("0", "1"); !ok || !e.Members.Has("0_g1") {
		t.Errorf("edge members lost: %+v", e)
	}
	if !strings.Contains(written, "degrees 1") {
		t.Errorf("degree not written:\n%s", written)
	}
}

func TestReadGMLErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"no graph", "foo 1\n", nil},
		{"unterminated", "graph [\n node [\n id 0\n", nil},
		{"stray close", "graph [ ] ]", nil},
		{"unknown edge endpoint", "graph [ node [ id 0 label \"a\" ] edge [ source 0 target 9 ] ]", pangraph.ErrUnknownNode},
		{"duplicate label", "graph [ node [ id 0 label \"a\" ] node [ id 1 label \"a\" ] ]", pangraph.ErrDuplicateNodeID},
		{"bad length", "graph [ node [ id 0 label \"a\" lengths \"x\" ] ]", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadGML(strings.NewReader(tt.src))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestExportGMLAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "merged_graph.gml")
	g := pangraph.New()
	_ = g.AddNode(&pangraph.Node{ID: "group_1", Members: pangraph.NewStringSet("0_g1")})

	if err := ExportGML(path, g); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 || entries[0].Name() != "merged_graph.gml" {
		t.Errorf("unexpected files: %v", entries)
	}
	back, err := ImportGML(path)
	if err != nil || !back.HasNode("group_1") {
		t.Errorf("ImportGML = %v", err)
	}
}
