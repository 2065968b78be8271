package merge

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/pangenomerge/pkg/errors"
	graphio "github.com/matzehuels/pangenomerge/pkg/io"
	"github.com/matzehuels/pangenomerge/pkg/metadata"
	"github.com/matzehuels/pangenomerge/pkg/oracle"
	"github.com/matzehuels/pangenomerge/pkg/pangraph"
)

// fixedOracle returns the hits of its table whose query and target are both
// part of the request.
type fixedOracle struct {
	hits []oracle.Hit
	err  error
}

func (o *fixedOracle) Name() string { return "fixed" }

func (o *fixedOracle) Search(_ context.Context, q, t []oracle.Sequence, p oracle.Params) ([]oracle.Hit, error) {
	if o.err != nil {
		return nil, o.err
	}
	inQ, inT := map[string]bool{}, map[string]bool{}
	for _, s := range q {
		inQ[s.ID] = true
	}
	for _, s := range t {
		inT[s.ID] = true
	}
	var out []oracle.Hit
	for _, h := range o.hits {
		if inQ[h.Query] && inT[h.Target] && h.FIdent >= p.MinIdentity {
			out = append(out, h)
		}
	}
	return out, nil
}

// pathGraph builds a path of families named prefix1..prefixN observed in
// genome "0", with sequence ids unique to the given tag.
func pathGraph(t *testing.T, tag string, names ...string) *pangraph.Graph {
	t.Helper()
	g := pangraph.New()
	for i, name := range names {
		err := g.AddNode(&pangraph.Node{
			ID:       fmt.Sprint(i),
			Name:     name,
			Members:  pangraph.NewStringSet("0"),
			SeqIDs:   pangraph.NewStringSet(fmt.Sprintf("0_%s_%d", tag, i)),
			GeneIDs:  []string{fmt.Sprintf("%s_gene%d", tag, i)},
			Centroid: []string{fmt.Sprintf("0_%s_%d", tag, i)},
			Lengths:  []int{300},
			Protein:  []string{strings.Repeat(string(rune('A'+i)), 100)},
		})
		if err != nil {
			t.Fatal(err)
		}
		if i > 0 {
			if err := g.AddEdge(fmt.Sprint(i-1), fmt.Sprint(i), pangraph.NewStringSet("0")); err != nil {
				t.Fatal(err)
			}
		}
	}
	return g
}

func newEngine(o oracle.Oracle) *Engine {
	return New(o, DefaultOptions(), nil)
}

func TestMergeDisjoint(t *testing.T) {
	base := pathGraph(t, "a", "group_1", "group_2", "group_3")
	inc := pathGraph(t, "b", "group_1", "group_2", "group_3")

	it := NewIteration("run", 1)
	out, err := newEngine(&fixedOracle{}).Merge(context.Background(), base, inc, it)
	if err != nil {
		t.Fatal(err)
	}
	if out.NodeCount() != 6 || out.EdgeCount() != 4 {
		t.Fatalf("nodes=%d edges=%d, want 6 and 4", out.NodeCount(), out.EdgeCount())
	}
	for _, id := range []string{"group_1_g1", "group_3_g1", "group_1_g2", "group_3_g2"} {
		if !out.HasNode(id) {
			t.Errorf("missing %s in %v", id, out.NodeIDs())
		}
	}
	if len(it.Report.Collapse.Collapses) != 0 {
		t.Errorf("collapses = %+v", it.Report.Collapse.Collapses)
	}
	if it.Report.Inserted != 3 || it.Report.Matched != 0 {
		t.Errorf("report = %+v", it.Report)
	}
	n, _ := out.Node("group_2_g2")
	if !n.Members.Has("0_g2") || n.Name != "group_2_g2" || n.Degree != 2 {
		t.Errorf("incoming node not tagged: %+v", n)
	}
	if base.HasNode("group_1_g1") || !base.HasNode("0") {
		t.Error("Merge modified its input")
	}
}

func TestMergeSharedFamily(t *testing.T) {
	base := pathGraph(t, "a", "x1", "x2", "x3")
	inc := pathGraph(t, "b", "y1", "y2", "y3")
	o := &fixedOracle{hits: []oracle.Hit{
		{Query: "y2", Target: "x3", FIdent: 0.99, QLen: 100, TLen: 98, AlnLen: 98},
	}}

	it := NewIteration("run", 1)
	out, err := newEngine(o).Merge(context.Background(), base, inc, it)
	if err != nil {
		t.Fatal(err)
	}
	if out.NodeCount() != 5 {
		t.Fatalf("nodes = %v", out.NodeIDs())
	}
	shared, ok := out.Node("x3_g1")
	if !ok {
		t.Fatalf("shared node missing: %v", out.NodeIDs())
	}
	if got := shared.Members.Sorted(); strings.Join(got, ",") != "0_g1,0_g2" {
		t.Errorf("members = %v", got)
	}
	if got := shared.SeqIDs.Sorted(); strings.Join(got, ",") != "0_a_2_g1,0_b_1_g2" {
		t.Errorf("seqIDs = %v", got)
	}
	if out.HasNode("y2_g2") {
		t.Error("matched node inserted separately")
	}
	// y1-y2 and y2-y3 now hang off the shared node.
	if !out.HasEdge("y1_g2", "x3_g1") || !out.HasEdge("x3_g1", "y3_g2") {
		t.Errorf("edges not rewired: %d edges", out.EdgeCount())
	}
	if it.Report.Matched != 1 || it.Report.Unioned != 1 || it.Report.Inserted != 2 {
		t.Errorf("report = %+v", it.Report)
	}
}

func TestMergeEmptyIncoming(t *testing.T) {
	base := pathGraph(t, "a", "x1", "x2", "x3")
	out, err := newEngine(&fixedOracle{}).Merge(context.Background(), base, pangraph.New(), NewIteration("run", 1))
	if err != nil {
		t.Fatal(err)
	}
	if out.NodeCount() != 3 || out.EdgeCount() != 2 {
		t.Fatalf("nodes=%d edges=%d", out.NodeCount(), out.EdgeCount())
	}
	for _, n := range out.Nodes() {
		if !strings.HasSuffix(n.ID, "_g1") || !n.Members.Has("0_g1") {
			t.Errorf("node %s not tagged: %v", n.ID, n.Members.Sorted())
		}
	}
	e, _ := out.Edge("x1_g1", "x2_g1")
	if e == nil || !e.Members.Has("0_g1") {
		t.Errorf("edge members not tagged: %+v", e)
	}
}

func TestMergeEmptyCumulative(t *testing.T) {
	inc := pathGraph(t, "b", "y1", "y2")
	out, err := newEngine(&fixedOracle{}).Merge(context.Background(), pangraph.New(), inc, NewIteration("run", 2))
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(out.NodeIDs(), ","); got != "y1_g3,y2_g3" {
		t.Errorf("ids = %s", got)
	}
}

func TestMergeSiblingCollapse(t *testing.T) {
	// Cumulative holds a-b; the incoming graph holds c-b' where b' matches b
	// and c is an 85% sibling of a from another genome.
	base := pathGraph(t, "a", "a", "b")
	inc := pathGraph(t, "c", "c", "b2")
	o := &fixedOracle{hits: []oracle.Hit{
		{Query: "b2", Target: "b", FIdent: 1, QLen: 100, TLen: 100},
		{Query: "c_g2", Target: "a_query", FIdent: 0.85, QLen: 100, TLen: 100},
	}}
	it := NewIteration("run", 1)
	out, err := newEngine(o).Merge(context.Background(), base, inc, it)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(it.Report.Collapse.Collapses); got != 1 {
		t.Fatalf("collapses = %d", got)
	}
	col := it.Report.Collapse.Collapses[0]
	if col.Survivor != "a_query" || col.Absorbed != "c_g2" {
		t.Errorf("collapse = %+v", col)
	}
	if out.NodeCount() != 2 || out.HasNode("c_g2") {
		t.Errorf("nodes = %v", out.NodeIDs())
	}
	a, _ := out.Node("a_g1")
	if !a.Members.Has("0_g2") {
		t.Errorf("survivor members = %v", a.Members.Sorted())
	}
}

func TestMergeErrors(t *testing.T) {
	dup := pangraph.New()
	_ = dup.AddNode(&pangraph.Node{ID: "1", Name: "same"})
	_ = dup.AddNode(&pangraph.Node{ID: "2", Name: "same"})
	boom := stderrors.New("mmseqs search exited with status 1")

	tests := []struct {
		name string
		inc  *pangraph.Graph
		o    oracle.Oracle
		code errors.Code
	}{
		{"name collision", dup, &fixedOracle{}, errors.ErrCodeRelabelCollision},
		{"oracle failure", pathGraph(t, "b", "y1"), &fixedOracle{err: boom}, errors.ErrCodeOracleFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := pathGraph(t, "a", "x1")
			_, err := newEngine(tt.o).Merge(context.Background(), base, tt.inc, NewIteration("run", 1))
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestMergeIdentifierConflict(t *testing.T) {
	base := pathGraph(t, "a", "x1")
	inc := pathGraph(t, "b", "y1")
	n, _ := inc.Node("0")
	n.SeqIDs = pangraph.NewStringSet("0_a_0") // same raw id as the base node
	n.GeneIDs = []string{"a_gene0"}

	// Without tagging the two ids would collide; provenance keeps them apart.
	out, err := newEngine(&fixedOracle{}).Merge(context.Background(), base, inc, NewIteration("run", 1))
	if err != nil {
		t.Fatal(err)
	}
	if err := out.CheckIdentifiers(); err != nil {
		t.Fatal(err)
	}
}

func TestResolve(t *testing.T) {
	g := pangraph.New()
	_ = g.AddNode(&pangraph.Node{ID: "a_query"})
	_ = g.AddNode(&pangraph.Node{ID: "b_g2"})
	it := NewIteration("run", 1)

	tests := map[string]string{
		"a_query": "a_query",
		"a_g2":    "a_query",
		"b_query": "b_g2",
		"b_g2":    "b_g2",
		"c_g2":    "",
		"c":       "",
	}
	for in, want := range tests {
		if got := resolve(g, in, it); got != want {
			t.Errorf("resolve(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOptionsValidate(t *testing.T) {
	o := DefaultOptions()
	if err := o.Validate(); err != nil {
		t.Fatal(err)
	}
	o.FamilyThreshold = 1.5
	o.Mode = "stream"
	err := o.Validate()
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Fatalf("err = %v", err)
	}
	if msg := err.Error(); !strings.Contains(msg, "FamilyThreshold") || !strings.Contains(msg, "Mode") {
		t.Errorf("message = %q", msg)
	}
}

func writeGraph(t *testing.T, dir, name string, g *pangraph.Graph) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := graphio.ExportGML(path, g); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	paths := []string{
		writeGraph(t, in, "g1.gml", pathGraph(t, "a", "x1", "x2", "x3")),
		writeGraph(t, in, "g2.gml", pathGraph(t, "b", "y1", "y2")),
		writeGraph(t, in, "g3.gml", pathGraph(t, "c", "z1", "z2")),
	}
	o := &fixedOracle{hits: []oracle.Hit{
		{Query: "y1", Target: "x1", FIdent: 1, QLen: 100, TLen: 100},
		{Query: "z2", Target: "y2_g2", FIdent: 1, QLen: 100, TLen: 100},
	}}
	store := metadata.NewMemory()
	eng := newEngine(o)
	eng.Metadata = store
	eng.Writer = NewDirWriter(out)

	res, err := eng.Run(context.Background(), paths)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Reports) != 2 || res.RunID == "" {
		t.Fatalf("result = %+v", res)
	}
	g := res.Graph
	if g.NodeCount() != 5 {
		t.Errorf("nodes = %v", g.NodeIDs())
	}
	if n, _ := g.Node("y2_g2"); n == nil || n.Members.Len() != 2 {
		t.Errorf("y2_g2 = %+v", n)
	}
	if err := g.CheckIdentifiers(); err != nil {
		t.Error(err)
	}
	for _, n := range g.Nodes() {
		for id := range n.SeqIDs {
			if pangraph.TrimProvenance(id) == id {
				t.Errorf("seqID %s of %s lacks provenance", id, n.ID)
			}
		}
	}

	nodes, edges := store.Counts()
	if nodes != g.NodeCount() || edges != g.EdgeCount() || store.Iteration() != 2 {
		t.Errorf("metadata nodes=%d edges=%d iteration=%d", nodes, edges, store.Iteration())
	}

	for _, f := range []string{"iteration_1/" + GraphFile, "iteration_1/" + ReferenceFile, "iteration_2/" + ReportFile, GraphFile} {
		if _, err := os.Stat(filepath.Join(out, f)); err != nil {
			t.Errorf("missing %s: %v", f, err)
		}
	}
	data, err := os.ReadFile(filepath.Join(out, "iteration_2", ReportFile))
	if err != nil {
		t.Fatal(err)
	}
	var rep Report
	if err := json.Unmarshal(data, &rep); err != nil {
		t.Fatal(err)
	}
	if rep.Iteration != 2 || rep.Matched != 1 || rep.Suffix != "_g3" {
		t.Errorf("report = %+v", rep)
	}

	final, err := graphio.ImportGML(filepath.Join(out, GraphFile))
	if err != nil {
		t.Fatal(err)
	}
	if final.NodeCount() != g.NodeCount() {
		t.Errorf("final graph has %d nodes", final.NodeCount())
	}
}

func TestRunAbortsBeforePersist(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	paths := []string{
		writeGraph(t, in, "g1.gml", pathGraph(t, "a", "x1")),
		writeGraph(t, in, "g2.gml", pathGraph(t, "b", "y1")),
	}
	eng := newEngine(&fixedOracle{err: stderrors.New("killed")})
	eng.Writer = NewDirWriter(out)

	if _, err := eng.Run(context.Background(), paths); !errors.Is(err, errors.ErrCodeOracleFailed) {
		t.Fatalf("err = %v", err)
	}
	entries, _ := os.ReadDir(out)
	if len(entries) != 0 {
		t.Errorf("output written after failure: %v", entries)
	}
}

type failingStore struct{ commits int }

func (s *failingStore) Commit(context.Context, *metadata.Batch) error {
	s.commits++
	return stderrors.New("connection reset")
}
func (s *failingStore) Close() error { return nil }

type failingWriter struct{ *DirWriter }

func (failingWriter) PrepareIteration(context.Context, *Iteration, *pangraph.Graph) (PendingSnapshot, error) {
	return nil, errors.New(errors.ErrCodeInvalidPath, "disk full")
}

func TestRunPersistOrder(t *testing.T) {
	in := t.TempDir()
	paths := []string{
		writeGraph(t, in, "g1.gml", pathGraph(t, "a", "x1")),
		writeGraph(t, in, "g2.gml", pathGraph(t, "b", "y1")),
	}

	t.Run("failed commit leaves no snapshot", func(t *testing.T) {
		out := t.TempDir()
		store := &failingStore{}
		eng := newEngine(&fixedOracle{})
		eng.Metadata = store
		eng.Writer = NewDirWriter(out)

		if _, err := eng.Run(context.Background(), paths); !errors.Is(err, errors.ErrCodeMetadataCommit) {
			t.Fatalf("err = %v", err)
		}
		if store.commits != 1 {
			t.Errorf("commits = %d", store.commits)
		}
		entries, _ := os.ReadDir(out)
		if len(entries) != 0 {
			t.Errorf("snapshot left behind: %v", entries)
		}
	})

	t.Run("failed snapshot skips commit", func(t *testing.T) {
		store := metadata.NewMemory()
		eng := newEngine(&fixedOracle{})
		eng.Metadata = store
		eng.Writer = failingWriter{NewDirWriter(t.TempDir())}

		if _, err := eng.Run(context.Background(), paths); !errors.Is(err, errors.ErrCodeInvalidPath) {
			t.Fatalf("err = %v", err)
		}
		if store.Iteration() != 0 {
			t.Errorf("metadata committed iteration %d", store.Iteration())
		}
	})
}

func TestReportStagesOnce(t *testing.T) {
	in := t.TempDir()
	paths := []string{
		writeGraph(t, in, "g1.gml", pathGraph(t, "a", "x1")),
		writeGraph(t, in, "g2.gml", pathGraph(t, "b", "y1")),
	}
	res, err := newEngine(&fixedOracle{}).Run(context.Background(), paths)
	if err != nil {
		t.Fatal(err)
	}
	var got []Stage
	for _, st := range res.Reports[0].Stages {
		got = append(got, st.Stage)
	}
	want := []Stage{StageLoad, StageRelabel, StageMatch, StageTag, StageMergeNodes, StageMergeEdges, StageCollapse, StagePersist}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("stages = %v, want %v", got, want)
	}
}

func TestRunInputErrors(t *testing.T) {
	eng := newEngine(&fixedOracle{})
	if _, err := eng.Run(context.Background(), []string{"only.gml"}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("single input: %v", err)
	}
	_, err := eng.Run(context.Background(), []string{"missing1.gml", "missing2.gml"})
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing input: %v", err)
	}
}
