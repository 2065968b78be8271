package io

import (
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestImportGraphByExtension(t *testing.T) {
	g, err := ReadGML(strings.NewReader(panarooSample))
	if err != nil {
		t.Fatal(err)
	}
	g.RecomputeDegrees()

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "graph.JSON")
	gmlPath := filepath.Join(dir, "graph.gml")
	if err := ExportJSON(g, jsonPath); err != nil {
		t.Fatal(err)
	}
	if err := ExportGML(gmlPath, g); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{jsonPath, gmlPath} {
		back, err := ImportGraph(path)
		if err != nil {
			t.Fatalf("ImportGraph(%s): %v", filepath.Base(path), err)
		}
		if back.NodeCount() != 2 || back.EdgeCount() != 1 {
			t.Errorf("%s: %d nodes, %d edges", filepath.Base(path), back.NodeCount(), back.EdgeCount())
		}
		n, ok := back.Node("1")
		if !ok || !n.Paralog || !slices.Equal(n.Protein, []string{"MSTQ"}) {
			t.Errorf("%s: node 1 = %+v", filepath.Base(path), n)
		}
	}
}

func TestReadJSONErrors(t *testing.T) {
	tests := []struct {
		name, input string
	}{
		{"malformed", `{"nodes": [`},
		{"duplicate node", `{"nodes": [{"id": "a"}, {"id": "a"}], "edges": []}`},
		{"unknown endpoint", `{"nodes": [{"id": "a"}], "edges": [{"source": "a", "target": "b"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadJSON(strings.NewReader(tt.input)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
