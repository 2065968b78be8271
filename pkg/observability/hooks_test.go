package observability

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	m := NoopMergeHooks{}
	m.OnIterationStart(ctx, 1, "a.gml")
	m.OnIterationComplete(ctx, 1, 10, 9, time.Second, nil)
	m.OnStage(ctx, "MATCH", time.Millisecond)
	m.OnCollapse(ctx, 1, 3)
	m.OnGhostEdge(ctx, 1)

	o := NoopOracleHooks{}
	o.OnSearchStart(ctx, "mmseqs", 10, 20)
	o.OnSearchComplete(ctx, "mmseqs", 5, time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "hits")
	c.OnCacheMiss(ctx, "hits")
	c.OnCacheSet(ctx, "hits", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	defer Reset()

	if _, ok := Merge().(NoopMergeHooks); !ok {
		t.Error("Merge() should return NoopMergeHooks by default")
	}
	if _, ok := Oracle().(NoopOracleHooks); !ok {
		t.Error("Oracle() should return NoopOracleHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	p := NewPrometheus()
	SetMergeHooks(p)
	SetOracleHooks(p)
	SetCacheHooks(p)
	if Merge() != MergeHooks(p) || Oracle() != OracleHooks(p) || Cache() != CacheHooks(p) {
		t.Error("setters should install custom hooks")
	}

	SetMergeHooks(nil)
	if Merge() != MergeHooks(p) {
		t.Error("SetMergeHooks(nil) should be ignored")
	}

	Reset()
	if _, ok := Merge().(NoopMergeHooks); !ok {
		t.Error("Reset should restore NoopMergeHooks")
	}
}

func TestPrometheusHooks(t *testing.T) {
	ctx := context.Background()
	p := NewPrometheus()

	p.OnIterationComplete(ctx, 1, 120, 118, 2*time.Second, nil)
	p.OnIterationComplete(ctx, 2, 0, 0, time.Second, errors.New("oracle failed"))
	p.OnCollapse(ctx, 1, 4)
	p.OnGhostEdge(ctx, 1)
	p.OnSearchComplete(ctx, "native", 7, time.Second, nil)
	p.OnCacheHit(ctx, "hits")
	p.OnCacheMiss(ctx, "hits")
	p.OnCacheMiss(ctx, "hits")

	if got := testutil.ToFloat64(p.iterations.WithLabelValues("ok")); got != 1 {
		t.Errorf("ok iterations = %v", got)
	}
	if got := testutil.ToFloat64(p.iterations.WithLabelValues("error")); got != 1 {
		t.Errorf("error iterations = %v", got)
	}
	if got := testutil.ToFloat64(p.graphNodes); got != 120 {
		t.Errorf("graph nodes = %v, failed iteration must not overwrite", got)
	}
	if got := testutil.ToFloat64(p.collapses); got != 4 {
		t.Errorf("collapses = %v", got)
	}
	if got := testutil.ToFloat64(p.searchHits.WithLabelValues("native")); got != 7 {
		t.Errorf("hits = %v", got)
	}
	if got := testutil.ToFloat64(p.cacheLookups.WithLabelValues("hits", "miss")); got != 2 {
		t.Errorf("misses = %v", got)
	}

	path := filepath.Join(t.TempDir(), "merge.prom")
	if err := p.WriteTextfile(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "pangenomerge_paralog_collapses_total 4") {
		t.Errorf("textfile missing collapse counter:\n%s", data)
	}
}
