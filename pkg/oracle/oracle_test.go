package oracle

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/pangenomerge/pkg/cache"
	perrors "github.com/matzehuels/pangenomerge/pkg/errors"
)

func TestParseHits(t *testing.T) {
	src := "query\ttarget\tfident\talnlen\tqlen\ttlen\tevalue\n" +
		"a\tb\t0.990\t300\t300\t305\t1.2E-50\n" +
		"\n" +
		"c\td\t1.000\t10\t10\t10\t0\n"
	hits, err := ParseHits(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits", len(hits))
	}
	want := Hit{Query: "a", Target: "b", FIdent: 0.99, AlnLen: 300, QLen: 300, TLen: 305, EValue: 1.2e-50}
	if hits[0] != want {
		t.Errorf("hit = %+v", hits[0])
	}

	for _, bad := range []string{"a\tb\t0.9\n", "a\tb\tx\t1\t1\t1\t0\n", "a\tb\t0.9\t1\t1\tz\t0\n"} {
		if _, err := ParseHits(strings.NewReader(bad)); err == nil {
			t.Errorf("ParseHits(%q) should fail", bad)
		}
	}
}

func TestWriteHitsRoundTrip(t *testing.T) {
	hits := []Hit{{Query: "q", Target: "t", FIdent: 0.985, AlnLen: 99, QLen: 100, TLen: 98, EValue: 3e-20}}
	var buf bytes.Buffer
	if err := WriteHits(&buf, hits); err != nil {
		t.Fatal(err)
	}
	back, err := ParseHits(&buf)
	if err != nil || len(back) != 1 || back[0] != hits[0] {
		t.Errorf("round trip = %+v, %v", back, err)
	}
}

func TestLengthRatio(t *testing.T) {
	tests := []struct {
		q, t int
		want float64
	}{
		{100, 100, 1},
		{100, 95, 0.95},
		{95, 100, 0.95},
		{0, 0, 1},
	}
	for _, tt := range tests {
		if got := (Hit{QLen: tt.q, TLen: tt.t}).LengthRatio(); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("LengthRatio(%d,%d) = %v, want %v", tt.q, tt.t, got, tt.want)
		}
	}
}

// fakeRunner records invocations and writes a canned result table on
// convertalis.
type fakeRunner struct {
	calls  [][]string
	result string
	failOn string
}

func (f *fakeRunner) Run(_ context.Context, dir string, args ...string) error {
	f.calls = append(f.calls, args)
	if args[0] == f.failOn {
		return errors.New("exit status 1")
	}
	if args[0] == "convertalis" {
		return os.WriteFile(filepath.Join(dir, "result.tsv"), []byte(f.result), 0o644)
	}
	return nil
}

func TestMMseqsSearch(t *testing.T) {
	r := &fakeRunner{result: "query\ttarget\tfident\talnlen\tqlen\ttlen\tevalue\n" +
		"q1\tt1\t0.99\t100\t100\t100\t1e-40\n" +
		"q1\tt2\t0.50\t100\t100\t100\t1e-5\n"}
	m := &MMseqs{Runner: r, TmpDir: t.TempDir()}

	hits, err := m.Search(context.Background(),
		[]Sequence{{ID: "q1", Residues: "MKV"}},
		[]Sequence{{ID: "t1", Residues: "MKV"}, {ID: "t2", Residues: "MRV"}},
		Params{MinIdentity: 0.7, Coverage: 0.8, Threads: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Target != "t1" {
		t.Errorf("hits = %+v, want only t1 above 0.7", hits)
	}

	steps := make([]string, len(r.calls))
	for i, c := range r.calls {
		steps[i] = c[0]
	}
	if !slices.Equal(steps, []string{"createdb", "createdb", "search", "convertalis"}) {
		t.Errorf("steps = %v", steps)
	}
	search := strings.Join(r.calls[2], " ")
	for _, flag := range []string{"--min-seq-id 0.7", "-c 0.8", "--threads 2"} {
		if !strings.Contains(search, flag) {
			t.Errorf("search args %q missing %q", search, flag)
		}
	}
	if got := r.calls[3][len(r.calls[3])-1]; got != Columns {
		t.Errorf("format-output = %q", got)
	}
}

func TestMMseqsFailureIsFatal(t *testing.T) {
	m := &MMseqs{Runner: &fakeRunner{failOn: "search"}, TmpDir: t.TempDir()}
	_, err := m.Search(context.Background(), []Sequence{{ID: "q", Residues: "M"}}, []Sequence{{ID: "t", Residues: "M"}}, Params{})
	if !perrors.Is(err, perrors.ErrCodeOracleFailed) {
		t.Errorf("err = %v, want ORACLE_FAILED", err)
	}
}

func TestMMseqsEmptyInputSkipsTool(t *testing.T) {
	r := &fakeRunner{}
	m := &MMseqs{Runner: r}
	hits, err := m.Search(context.Background(), nil, []Sequence{{ID: "t", Residues: "M"}}, Params{})
	if err != nil || hits != nil || len(r.calls) != 0 {
		t.Errorf("empty query: hits=%v err=%v calls=%d", hits, err, len(r.calls))
	}
}

func TestNativeSearch(t *testing.T) {
	query := []Sequence{{ID: "a", Residues: strings.Repeat("A", 100)}}
	target := []Sequence{
		{ID: "same", Residues: strings.Repeat("A", 100)},
		{ID: "one-off", Residues: strings.Repeat("A", 99) + "C"},
		{ID: "short", Residues: strings.Repeat("A", 50)},
		{ID: "far", Residues: strings.Repeat("C", 100)},
	}
	hits, err := NewNative().Search(context.Background(), query, target, Params{MinIdentity: 0.9})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("hits = %+v", hits)
	}
	if hits[0].Target != "same" || hits[0].FIdent != 1 {
		t.Errorf("hits[0] = %+v", hits[0])
	}
	if hits[1].Target != "one-off" || math.Abs(hits[1].FIdent-0.99) > 1e-12 {
		t.Errorf("hits[1] = %+v", hits[1])
	}
}

func TestNativeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	seqs := []Sequence{{ID: "a", Residues: "MKV"}}
	if _, err := NewNative().Search(ctx, seqs, seqs, Params{}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

type countingOracle struct {
	calls int
	hits  []Hit
}

func (c *countingOracle) Name() string { return "counting" }
func (c *countingOracle) Search(context.Context, []Sequence, []Sequence, Params) ([]Hit, error) {
	c.calls++
	return c.hits, nil
}

func TestCachedOracle(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	inner := &countingOracle{hits: []Hit{{Query: "a", Target: "b", FIdent: 0.99}}}
	c := NewCached(inner, fc, nil, nil)
	c.TTL = time.Hour

	q := []Sequence{{ID: "a", Residues: "MKV"}, {ID: "c", Residues: "MR"}}
	tg := []Sequence{{ID: "b", Residues: "MKV"}}
	ctx := context.Background()

	first, err := c.Search(ctx, q, tg, Params{MinIdentity: 0.98})
	if err != nil {
		t.Fatal(err)
	}
	reordered := []Sequence{q[1], q[0]}
	second, err := c.Search(ctx, reordered, tg, Params{MinIdentity: 0.98})
	if err != nil {
		t.Fatal(err)
	}
	if inner.calls != 1 {
		t.Errorf("inner called %d times, want 1", inner.calls)
	}
	if len(second) != 1 || second[0] != first[0] {
		t.Errorf("cached hits = %+v", second)
	}

	if _, err := c.Search(ctx, q, tg, Params{MinIdentity: 0.7}); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Errorf("different params must miss the cache")
	}
}

func TestDigest(t *testing.T) {
	a := []Sequence{{ID: "x", Residues: "MKV"}, {ID: "y", Residues: "MRL"}}
	b := []Sequence{a[1], a[0]}
	if Digest(a) != Digest(b) {
		t.Error("Digest depends on sequence order")
	}
	c := []Sequence{{ID: "x", Residues: "MKV"}, {ID: "y", Residues: "MRI"}}
	if Digest(a) == Digest(c) {
		t.Error("Digest ignores residues")
	}
}
