package merge

import (
	"time"

	"github.com/matzehuels/pangenomerge/pkg/collapse"
	"github.com/matzehuels/pangenomerge/pkg/pangraph"
	"github.com/matzehuels/pangenomerge/pkg/validate"
)

// Stage is one state of an iteration.
type Stage string

const (
	StageLoad       Stage = "LOAD"
	StageRelabel    Stage = "RELABEL"
	StageMatch      Stage = "MATCH"
	StageTag        Stage = "TAG"
	StageMergeNodes Stage = "MERGE_NODES"
	StageMergeEdges Stage = "MERGE_EDGES"
	StageCollapse   Stage = "COLLAPSE"
	StagePersist    Stage = "PERSIST"
	StageDone       Stage = "DONE"
)

// BaseSuffix tags the identifiers of the base graph.
var BaseSuffix = pangraph.ProvenanceSuffix(1)

// Iteration carries the state of one merge step. It is created by the
// engine for every incoming graph and never shared between iterations.
type Iteration struct {
	Index      int    // 1-based iteration number
	GraphIndex int    // 1-based position of the incoming graph; Index+1
	Suffix     string // provenance suffix of the incoming graph
	Marker     string // transient suffix of cumulative keys
	RunID      string
	Input      string

	State Stage
	// NewNodes holds the cumulative keys inserted by this iteration. The
	// collapse pass removes the keys it absorbs.
	NewNodes pangraph.StringSet
	Report   *Report

	started time.Time
}

// NewIteration prepares iteration index of a run.
func NewIteration(runID string, index int) *Iteration {
	it := &Iteration{
		Index:      index,
		GraphIndex: index + 1,
		Suffix:     pangraph.ProvenanceSuffix(index + 1),
		Marker:     pangraph.MarkerSuffix,
		RunID:      runID,
		NewNodes:   pangraph.NewStringSet(),
		started:    time.Now(),
	}
	it.Report = &Report{RunID: runID, Iteration: index, Suffix: it.Suffix, Started: it.started}
	return it
}

// Report is the diagnostic summary of one iteration, written next to its
// snapshot as report.json.
type Report struct {
	RunID     string    `json:"run_id"`
	Iteration int       `json:"iteration"`
	Input     string    `json:"input,omitempty"`
	Suffix    string    `json:"suffix"`
	Started   time.Time `json:"started"`

	Hits        int `json:"hits"`
	Matched     int `json:"matched"`
	Inserted    int `json:"inserted"`
	Unioned     int `json:"unioned"`
	EdgesAdded  int `json:"edges_added"`
	EdgesMerged int `json:"edges_merged"`

	GhostEdges []GhostEdge      `json:"ghost_edges,omitempty"`
	Collapse   collapse.Result  `json:"collapse"`
	Validation *validate.Scores `json:"validation,omitempty"`
	// ValidationError is set when scoring was requested but failed.
	ValidationError string `json:"validation_error,omitempty"`

	Nodes  int           `json:"nodes"`
	Edges  int           `json:"edges"`
	Stages []StageTiming `json:"stages"`
}

// GhostEdge is an incoming edge dropped during MERGE_EDGES.
type GhostEdge struct {
	U      string `json:"u"`
	V      string `json:"v"`
	Reason string `json:"reason"`
}

// StageTiming records the wall time of one stage.
type StageTiming struct {
	Stage    Stage         `json:"stage"`
	Duration time.Duration `json:"duration_ns"`
}

// Duration returns the summed stage time.
func (r *Report) Duration() time.Duration {
	var d time.Duration
	for _, s := range r.Stages {
		d += s.Duration
	}
	return d
}
