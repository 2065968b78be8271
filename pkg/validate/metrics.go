package validate

import (
	"math"
)

// contingency is the cross-tabulation of two labelings.
type contingency struct {
	n    int
	rows []int          // cluster sizes in a
	cols []int          // cluster sizes in b
	cell map[[2]int]int // co-occurrence counts
}

func newContingency(a, b []int) contingency {
	ra, rb := relabel(a), relabel(b)
	c := contingency{n: len(a), cell: make(map[[2]int]int)}
	c.rows = make([]int, maxLabel(ra)+1)
	c.cols = make([]int, maxLabel(rb)+1)
	for i := range ra {
		c.rows[ra[i]]++
		c.cols[rb[i]]++
		c.cell[[2]int{ra[i], rb[i]}]++
	}
	return c
}

// relabel maps arbitrary labels onto 0..k-1 in order of first appearance.
func relabel(labels []int) []int {
	ids := make(map[int]int)
	out := make([]int, len(labels))
	for i, l := range labels {
		id, ok := ids[l]
		if !ok {
			id = len(ids)
			ids[l] = id
		}
		out[i] = id
	}
	return out
}

func maxLabel(labels []int) int {
	m := -1
	for _, l := range labels {
		m = max(m, l)
	}
	return m
}

func comb2(x int) float64 { return float64(x) * float64(x-1) / 2 }

// RandIndex is the fraction of element pairs on which a and b agree.
// It panics if the labelings differ in length.
func RandIndex(a, b []int) float64 {
	mustSameLength(a, b)
	if len(a) < 2 {
		return 1
	}
	c := newContingency(a, b)
	sumCells, sumRows, sumCols := c.pairSums()
	return 1 + (2*sumCells-sumRows-sumCols)/comb2(c.n)
}

// AdjustedRandIndex is the Rand index corrected for chance: 0 for random
// labelings, 1 for identical partitions.
func AdjustedRandIndex(a, b []int) float64 {
	mustSameLength(a, b)
	if len(a) < 2 {
		return 1
	}
	c := newContingency(a, b)
	sumCells, sumRows, sumCols := c.pairSums()
	expected := sumRows * sumCols / comb2(c.n)
	maxIndex := (sumRows + sumCols) / 2
	if maxIndex == expected {
		return 1
	}
	return (sumCells - expected) / (maxIndex - expected)
}

func (c contingency) pairSums() (cells, rows, cols float64) {
	for _, v := range c.cell {
		cells += comb2(v)
	}
	for _, v := range c.rows {
		rows += comb2(v)
	}
	for _, v := range c.cols {
		cols += comb2(v)
	}
	return cells, rows, cols
}

// MutualInfo is the mutual information of a and b in nats.
func MutualInfo(a, b []int) float64 {
	mustSameLength(a, b)
	if len(a) == 0 {
		return 0
	}
	return newContingency(a, b).mutualInfo()
}

func (c contingency) mutualInfo() float64 {
	n := float64(c.n)
	mi := 0.0
	for k, v := range c.cell {
		nij := float64(v)
		mi += nij / n * math.Log(n*nij/(float64(c.rows[k[0]])*float64(c.cols[k[1]])))
	}
	return max(mi, 0)
}

func entropy(sizes []int, n int) float64 {
	h := 0.0
	for _, s := range sizes {
		if s == 0 {
			continue
		}
		p := float64(s) / float64(n)
		h -= p * math.Log(p)
	}
	return h
}

// AdjustedMutualInfo is mutual information corrected for chance and
// normalized by the arithmetic mean of the two entropies.
func AdjustedMutualInfo(a, b []int) float64 {
	mustSameLength(a, b)
	c := newContingency(a, b)
	if len(c.rows) == len(c.cols) && len(c.rows) <= 1 {
		return 1
	}
	mi := c.mutualInfo()
	emi := c.expectedMutualInfo()
	mean := (entropy(c.rows, c.n) + entropy(c.cols, c.n)) / 2
	denom := mean - emi
	if denom < 0 {
		denom = min(denom, -epsilon)
	} else {
		denom = max(denom, epsilon)
	}
	return (mi - emi) / denom
}

const epsilon = 2.220446049250313e-16

// expectedMutualInfo is the expected mutual information of two random
// labelings with the cluster sizes of c (hypergeometric model).
func (c contingency) expectedMutualInfo() float64 {
	n := c.n
	lgN := lgamma(n + 1)
	emi := 0.0
	for _, ai := range c.rows {
		for _, bj := range c.cols {
			lo := max(1, ai+bj-n)
			hi := min(ai, bj)
			fixed := lgamma(ai+1) + lgamma(bj+1) + lgamma(n-ai+1) + lgamma(n-bj+1) - lgN
			for nij := lo; nij <= hi; nij++ {
				term := float64(nij) / float64(n) * math.Log(float64(n)*float64(nij)/(float64(ai)*float64(bj)))
				lg := fixed - lgamma(nij+1) - lgamma(ai-nij+1) - lgamma(bj-nij+1) - lgamma(n-ai-bj+nij+1)
				emi += term * math.Exp(lg)
			}
		}
	}
	return emi
}

func lgamma(x int) float64 {
	v, _ := math.Lgamma(float64(x))
	return v
}

func mustSameLength(a, b []int) {
	if len(a) != len(b) {
		panic("validate: labelings differ in length")
	}
}
