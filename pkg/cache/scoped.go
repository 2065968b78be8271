package cache

// ScopedKeyer wraps a Keyer with a prefix so several projects can share one
// Redis cache without seeing each other's entries.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "lab-a:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer falls back
// to the default keyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// HitsKey generates a prefixed hit-table key.
func (k *ScopedKeyer) HitsKey(oracle, queryDigest, targetDigest string, params any) string {
	return k.prefix + k.inner.HitsKey(oracle, queryDigest, targetDigest, params)
}
