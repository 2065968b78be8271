// Package observability provides hooks for metrics about merge runs.
//
// Library packages emit events through the registered hooks; the CLI decides
// at startup which backend receives them. The default hooks do nothing, so
// the merge engine carries no hard dependency on a metrics system.
//
// # Usage
//
// Register hooks at application startup:
//
//	prom := observability.NewPrometheus()
//	observability.SetMergeHooks(prom)
//	observability.SetOracleHooks(prom)
//	observability.SetCacheHooks(prom)
//	defer prom.WriteTextfile("pangenomerge.prom")
//
// Libraries call hooks to emit events:
//
//	observability.Merge().OnIterationStart(ctx, 2, "sample_b.gml")
//	// ... merge ...
//	observability.Merge().OnIterationComplete(ctx, 2, nodes, edges, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Merge Hooks
// =============================================================================

// MergeHooks receives events from the merge engine.
type MergeHooks interface {
	OnIterationStart(ctx context.Context, iteration int, input string)
	OnIterationComplete(ctx context.Context, iteration, nodes, edges int, duration time.Duration, err error)

	// OnStage records the duration of one iteration state (MATCH, COLLAPSE...).
	OnStage(ctx context.Context, stage string, duration time.Duration)

	// OnCollapse records the number of paralog collapses of one iteration.
	OnCollapse(ctx context.Context, iteration, collapsed int)

	// OnGhostEdge records an edge dropped because an endpoint was missing.
	OnGhostEdge(ctx context.Context, iteration int)
}

// =============================================================================
// Oracle Hooks
// =============================================================================

// OracleHooks receives events from similarity searches.
type OracleHooks interface {
	OnSearchStart(ctx context.Context, oracle string, queries, targets int)
	OnSearchComplete(ctx context.Context, oracle string, hits int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopMergeHooks is a no-op implementation of MergeHooks.
type NoopMergeHooks struct{}

func (NoopMergeHooks) OnIterationStart(context.Context, int, string) {}
func (NoopMergeHooks) OnIterationComplete(context.Context, int, int, int, time.Duration, error) {
}
func (NoopMergeHooks) OnStage(context.Context, string, time.Duration) {}
func (NoopMergeHooks) OnCollapse(context.Context, int, int)           {}
func (NoopMergeHooks) OnGhostEdge(context.Context, int)               {}

// NoopOracleHooks is a no-op implementation of OracleHooks.
type NoopOracleHooks struct{}

func (NoopOracleHooks) OnSearchStart(context.Context, string, int, int)                      {}
func (NoopOracleHooks) OnSearchComplete(context.Context, string, int, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	mergeHooks  MergeHooks  = NoopMergeHooks{}
	oracleHooks OracleHooks = NoopOracleHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	hooksMu     sync.RWMutex
)

// SetMergeHooks registers custom merge hooks.
// This should be called once at application startup before any merge runs.
func SetMergeHooks(h MergeHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		mergeHooks = h
	}
}

// SetOracleHooks registers custom oracle hooks.
func SetOracleHooks(h OracleHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		oracleHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Merge returns the registered merge hooks.
func Merge() MergeHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return mergeHooks
}

// Oracle returns the registered oracle hooks.
func Oracle() OracleHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return oracleHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	mergeHooks = NoopMergeHooks{}
	oracleHooks = NoopOracleHooks{}
	cacheHooks = NoopCacheHooks{}
}
