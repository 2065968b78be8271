package render

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/pangenomerge/pkg/errors"
	"github.com/matzehuels/pangenomerge/pkg/pangraph"
)

func testGraph(t *testing.T) *pangraph.Graph {
	t.Helper()
	g := pangraph.New()
	nodes := []*pangraph.Node{
		{ID: "core", Members: pangraph.NewStringSet("0", "1", "2", "3"), SeqIDs: pangraph.NewStringSet("0_0_0", "1_0_0"), Annotation: "dnaA"},
		{ID: "shell", Members: pangraph.NewStringSet("0", "1")},
		{ID: "cloud", Members: pangraph.NewStringSet("2"), Paralog: true},
	}
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.AddEdge("core", "shell", pangraph.NewStringSet("0", "1")); err != nil {
		t.Fatal(err)
	}
	if err := g.AddEdge("core", "cloud", pangraph.NewStringSet("2")); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testGraph(t), Options{})

	for _, want := range []string{
		"graph G {",
		`layout="neato"`,
		`"core" [label="core\ngenomes: 4"]`,
		`"core" -- "shell" [penwidth=1.5]`,
		`"cloud" -- "core" [penwidth=1.0]`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q in\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "->") {
		t.Error("ToDOT() produced directed edges")
	}
}

func TestToDOT_Detailed(t *testing.T) {
	dot := ToDOT(testGraph(t), Options{Detailed: true, Layout: "dot"})
	if !strings.Contains(dot, `genes: 2\ndnaA`) {
		t.Errorf("ToDOT() detailed label missing gene count or annotation:\n%s", dot)
	}
	if !strings.Contains(dot, `layout="dot"`) {
		t.Error("ToDOT() ignored layout option")
	}
}

func TestToDOT_MaxNodes(t *testing.T) {
	dot := ToDOT(testGraph(t), Options{MaxNodes: 2})
	if strings.Contains(dot, `"cloud"`) {
		t.Errorf("ToDOT() kept smallest family:\n%s", dot)
	}
	if !strings.Contains(dot, `"core" -- "shell"`) {
		t.Error("ToDOT() dropped edge between kept families")
	}
}

func TestFmtAttrs_Paralog(t *testing.T) {
	attrs := fmtAttrs(&pangraph.Node{ID: "p", Paralog: true}, false)
	joined := strings.Join(attrs, " ")
	if !strings.Contains(joined, "dashed") || !strings.Contains(joined, "lightgrey") {
		t.Errorf("fmtAttrs() paralog = %v", attrs)
	}
	if attrs := fmtAttrs(&pangraph.Node{ID: "n"}, false); len(attrs) != 1 {
		t.Errorf("fmtAttrs() regular node has %d attrs", len(attrs))
	}
}

func TestPenWidth(t *testing.T) {
	tests := []struct {
		size int
		want float64
	}{
		{0, 1}, {1, 1}, {2, 1.5}, {3, 1.5}, {4, 2}, {16, 3},
	}
	for _, tt := range tests {
		if got := penWidth(tt.size); got != tt.want {
			t.Errorf("penWidth(%d) = %v, want %v", tt.size, got, tt.want)
		}
	}
}

func TestNormalizeViewBox(t *testing.T) {
	tests := []struct {
		name string
		svg  string
		want string
	}{
		{
			name: "with viewBox",
			svg:  `<svg viewBox="10 20 800 600" xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 800.00 600.00" width="800" height="600">content</svg>`,
		},
		{
			name: "no viewBox",
			svg:  `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
		},
		{
			name: "zero dimensions",
			svg:  `<svg viewBox="0 0 0 0">content</svg>`,
			want: `<svg viewBox="0 0 0 0">content</svg>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeViewBox([]byte(tt.svg)); string(got) != tt.want {
				t.Errorf("normalizeViewBox() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRender(t *testing.T) {
	ctx := context.Background()
	g := testGraph(t)

	dot, err := Render(ctx, g, FormatDOT, Options{})
	if err != nil || !strings.HasPrefix(string(dot), "graph G") {
		t.Fatalf("Render(dot) = %q, %v", dot, err)
	}

	svg, err := Render(ctx, g, FormatSVG, Options{})
	if err != nil {
		t.Fatalf("Render(svg) error: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("Render(svg) output missing <svg> tag")
	}

	js, err := Render(ctx, g, FormatJSON, Options{MaxNodes: 1})
	if err != nil || !strings.Contains(string(js), `"nodes"`) {
		t.Fatalf("Render(json) = %q, %v", js, err)
	}

	if _, err := Render(ctx, g, "gif", Options{}); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("Render(gif) error = %v, want UNSUPPORTED", err)
	}
}

func TestRenderSVG_InvalidDOT(t *testing.T) {
	if _, err := RenderSVG(context.Background(), `not valid DOT {{{`); err == nil {
		t.Error("RenderSVG() should fail on invalid DOT")
	}
}
