package pangraph

import (
	"maps"
	"slices"
)

// StringSet is an unordered set of identifiers. A nil StringSet is a valid
// empty set for reads; use Add on a set created by NewStringSet.
type StringSet map[string]struct{}

// NewStringSet returns a set containing items.
func NewStringSet(items ...string) StringSet {
	s := make(StringSet, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

// Add inserts items into the set.
func (s StringSet) Add(items ...string) {
	for _, it := range items {
		s[it] = struct{}{}
	}
}

// Has reports whether item is in the set.
func (s StringSet) Has(item string) bool {
	_, ok := s[item]
	return ok
}

// Len returns the number of items.
func (s StringSet) Len() int { return len(s) }

// Union adds every item of other to s.
func (s StringSet) Union(other StringSet) {
	for it := range other {
		s[it] = struct{}{}
	}
}

// Intersects reports whether s and other share at least one item.
func (s StringSet) Intersects(other StringSet) bool {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	for it := range small {
		if large.Has(it) {
			return true
		}
	}
	return false
}

// Clone returns an independent copy. Cloning a nil set returns an empty set.
func (s StringSet) Clone() StringSet {
	out := make(StringSet, len(s))
	maps.Copy(out, s)
	return out
}

// Sorted returns the items in lexical order.
func (s StringSet) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

// Map returns a new set with fn applied to every item.
func (s StringSet) Map(fn func(string) string) StringSet {
	out := make(StringSet, len(s))
	for it := range s {
		out[fn(it)] = struct{}{}
	}
	return out
}
