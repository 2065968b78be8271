package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus implements every hook interface with Prometheus collectors on a
// private registry. A batch CLI has no scrape endpoint, so the registry is
// flushed to a node_exporter textfile with WriteTextfile.
type Prometheus struct {
	registry *prometheus.Registry

	iterations    *prometheus.CounterVec
	iterationTime prometheus.Histogram
	stageTime     *prometheus.HistogramVec
	graphNodes    prometheus.Gauge
	graphEdges    prometheus.Gauge
	collapses     prometheus.Counter
	ghostEdges    prometheus.Counter
	searches      *prometheus.CounterVec
	searchTime    *prometheus.HistogramVec
	searchHits    *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	cacheSetBytes *prometheus.CounterVec
}

// NewPrometheus creates and registers the collectors.
func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		iterations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pangenomerge_iterations_total",
			Help: "Merge iterations by outcome.",
		}, []string{"outcome"}),
		iterationTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pangenomerge_iteration_duration_seconds",
			Help:    "Wall time of one merge iteration.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		}),
		stageTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pangenomerge_stage_duration_seconds",
			Help:    "Wall time of one iteration state.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"stage"}),
		graphNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pangenomerge_graph_nodes",
			Help: "Nodes in the cumulative graph after the last iteration.",
		}),
		graphEdges: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pangenomerge_graph_edges",
			Help: "Edges in the cumulative graph after the last iteration.",
		}),
		collapses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pangenomerge_paralog_collapses_total",
			Help: "Spurious paralog pairs collapsed.",
		}),
		ghostEdges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pangenomerge_ghost_edges_total",
			Help: "Edges dropped because an endpoint could not be resolved.",
		}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pangenomerge_oracle_searches_total",
			Help: "Similarity searches by oracle and outcome.",
		}, []string{"oracle", "outcome"}),
		searchTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pangenomerge_oracle_search_duration_seconds",
			Help:    "Wall time of one similarity search.",
			Buckets: prometheus.ExponentialBuckets(0.05, 3, 10),
		}, []string{"oracle"}),
		searchHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pangenomerge_oracle_hits_total",
			Help: "Alignment rows returned by similarity searches.",
		}, []string{"oracle"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pangenomerge_cache_lookups_total",
			Help: "Cache lookups by key type and result.",
		}, []string{"key_type", "result"}),
		cacheSetBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pangenomerge_cache_set_bytes_total",
			Help: "Bytes written to the cache by key type.",
		}, []string{"key_type"}),
	}
	p.registry.MustRegister(
		p.iterations, p.iterationTime, p.stageTime, p.graphNodes, p.graphEdges,
		p.collapses, p.ghostEdges, p.searches, p.searchTime, p.searchHits,
		p.cacheLookups, p.cacheSetBytes,
	)
	return p
}

// Registry returns the registry holding the collectors.
func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

// WriteTextfile writes the current metric values in text exposition format.
func (p *Prometheus) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, p.registry)
}

func (p *Prometheus) OnIterationStart(context.Context, int, string) {}

func (p *Prometheus) OnIterationComplete(_ context.Context, _ int, nodes, edges int, d time.Duration, err error) {
	p.iterations.WithLabelValues(outcome(err)).Inc()
	p.iterationTime.Observe(d.Seconds())
	if err == nil {
		p.graphNodes.Set(float64(nodes))
		p.graphEdges.Set(float64(edges))
	}
}

func (p *Prometheus) OnStage(_ context.Context, stage string, d time.Duration) {
	p.stageTime.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *Prometheus) OnCollapse(_ context.Context, _ int, collapsed int) {
	p.collapses.Add(float64(collapsed))
}

func (p *Prometheus) OnGhostEdge(context.Context, int) { p.ghostEdges.Inc() }

func (p *Prometheus) OnSearchStart(context.Context, string, int, int) {}

func (p *Prometheus) OnSearchComplete(_ context.Context, oracle string, hits int, d time.Duration, err error) {
	p.searches.WithLabelValues(oracle, outcome(err)).Inc()
	p.searchTime.WithLabelValues(oracle).Observe(d.Seconds())
	p.searchHits.WithLabelValues(oracle).Add(float64(hits))
}

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.cacheLookups.WithLabelValues(keyType, "hit").Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.cacheLookups.WithLabelValues(keyType, "miss").Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, size int) {
	p.cacheSetBytes.WithLabelValues(keyType).Add(float64(size))
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

var (
	_ MergeHooks  = (*Prometheus)(nil)
	_ OracleHooks = (*Prometheus)(nil)
	_ CacheHooks  = (*Prometheus)(nil)
)
