// Package cache stores similarity-search results between runs.
//
// Sequence searches are the slowest step of a merge iteration. Re-running a
// merge over the same inputs (for example after tuning the context threshold)
// repeats identical searches, so the oracle layer caches raw hit tables under
// a key derived from the sequences and search parameters.
//
// Three backends are provided: [FileCache] for local CLI runs, [RedisCache]
// for caches shared between machines, and [NullCache] to disable caching.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value for key and whether it was found. Expired or
	// unreadable entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// HitsKey returns the key for a hit table produced by oracle for the
	// given query and target digests under params.
	HitsKey(oracle, queryDigest, targetDigest string, params any) string
}

// DefaultKeyer hashes every key component into a fixed-length key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HitsKey implements Keyer.
func (DefaultKeyer) HitsKey(oracle, queryDigest, targetDigest string, params any) string {
	return hashKey("hits", oracle, queryDigest, targetDigest, params)
}
