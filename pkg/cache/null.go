package cache

import (
	"context"
	"time"
)

// NullCache disables hit caching: every lookup misses and every store is
// dropped, so each search goes to the oracle. The CLI selects it for
// --no-cache and backend "none", and skips wrapping the oracle altogether
// when it sees one.
type NullCache struct{}

var _ Cache = (*NullCache)(nil)

// NewNullCache returns a cache that stores nothing.
func NewNullCache() Cache { return &NullCache{} }

func (*NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (*NullCache) Delete(context.Context, string) error                     { return nil }
func (*NullCache) Close() error                                             { return nil }
