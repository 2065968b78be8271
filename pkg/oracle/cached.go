package oracle

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pangenomerge/pkg/cache"
	"github.com/matzehuels/pangenomerge/pkg/observability"
)

// Cached wraps an Oracle and stores its hit tables in a cache. Cache
// failures are logged and fall through to the inner oracle; they never fail
// a search.
type Cached struct {
	Inner  Oracle
	Cache  cache.Cache
	Keyer  cache.Keyer
	TTL    time.Duration
	Logger *log.Logger
}

// DefaultCacheTTL is how long hit tables stay cached.
const DefaultCacheTTL = 7 * 24 * time.Hour

// NewCached wraps inner with c. A nil keyer uses cache.NewDefaultKeyer.
func NewCached(inner Oracle, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Cached {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &Cached{Inner: inner, Cache: c, Keyer: keyer, TTL: DefaultCacheTTL, Logger: logger}
}

// Name implements Oracle.
func (c *Cached) Name() string { return c.Inner.Name() }

// Search implements Oracle.
func (c *Cached) Search(ctx context.Context, query, target []Sequence, p Params) ([]Hit, error) {
	if len(query) == 0 || len(target) == 0 {
		return nil, nil
	}
	key := c.Keyer.HitsKey(c.Inner.Name(), Digest(query), Digest(target), p)

	data, ok, err := c.Cache.Get(ctx, key)
	switch {
	case err != nil:
		c.warn("cache read failed", err)
	case ok:
		var hits []Hit
		if err := json.Unmarshal(data, &hits); err == nil {
			observability.Cache().OnCacheHit(ctx, "hits")
			return hits, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "hits")

	hits, err := c.Inner.Search(ctx, query, target, p)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(hits); err == nil {
		if err := c.Cache.Set(ctx, key, data, c.TTL); err != nil {
			c.warn("cache write failed", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "hits", len(data))
		}
	}
	return hits, nil
}

func (c *Cached) warn(msg string, err error) {
	if c.Logger != nil {
		c.Logger.Warn(msg, "error", err)
	}
}

// Digest fingerprints a sequence set independent of its order.
func Digest(seqs []Sequence) string {
	sorted := make([]Sequence, len(seqs))
	copy(sorted, seqs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	fields := make([]string, 0, 2*len(sorted))
	for _, q := range sorted {
		fields = append(fields, q.ID, q.Residues)
	}
	return cache.DigestFields(fields...)
}

var _ Oracle = (*Cached)(nil)
