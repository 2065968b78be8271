// Package oracle defines the similarity-search contract used for orthology
// matching and paralog detection, with adapters for MMseqs2 and an
// in-process edit-distance search.
//
// A search compares every query sequence against every target sequence and
// returns one [Hit] per reported alignment. Oracles never retry: a failed
// search is returned as an ORACLE_FAILED error and aborts the merge run.
package oracle

import (
	"context"
	"math"
)

// Sequence is a named residue string.
type Sequence struct {
	ID       string
	Residues string
}

// Hit is one alignment row. FIdent is the fraction of identical aligned
// residues in [0, 1].
type Hit struct {
	Query  string  `json:"query"`
	Target string  `json:"target"`
	FIdent float64 `json:"fident"`
	AlnLen int     `json:"alnlen"`
	QLen   int     `json:"qlen"`
	TLen   int     `json:"tlen"`
	EValue float64 `json:"evalue"`
}

// LengthRatio returns 1 - |qlen - tlen| / max(qlen, tlen). Two empty
// sequences have ratio 1.
func (h Hit) LengthRatio() float64 {
	longest := max(h.QLen, h.TLen)
	if longest == 0 {
		return 1
	}
	return 1 - math.Abs(float64(h.QLen-h.TLen))/float64(longest)
}

// Params tunes a search.
type Params struct {
	// MinIdentity drops hits whose FIdent is below it.
	MinIdentity float64 `json:"min_identity"`
	// Coverage is the minimum alignment coverage passed to tools that
	// support it. Zero leaves the tool default.
	Coverage float64 `json:"coverage"`
	// Sensitivity is the MMseqs2 -s value. Zero leaves the tool default.
	Sensitivity float64 `json:"sensitivity"`
	// Threads bounds the parallelism of the search. Zero means all CPUs.
	Threads int `json:"-"`
}

// Oracle searches query sequences against target sequences.
//
// Implementations must return without calling out when either side is
// empty, must honor ctx cancellation and must report a failed search as an
// error rather than as an empty result.
type Oracle interface {
	Search(ctx context.Context, query, target []Sequence, p Params) ([]Hit, error)
	// Name identifies the oracle in logs, metrics and cache keys.
	Name() string
}
