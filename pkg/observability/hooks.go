// Package observability provides hooks for metrics, tracing, and logging.
//
// Generation and caching code reports what it does through small hook
// interfaces instead of depending on a metrics backend. The defaults are
// no-ops; an application registers its own implementations at startup:
//
//	func main() {
//	    observability.SetGenerateHooks(&myGenerateHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries fetch the current hooks at the call site:
//
//	observability.Generate().OnGenerateStart(ctx, name, set.Len(), n)
//	points := ifs.Generate(set, n, src)
//	observability.Generate().OnGenerateComplete(ctx, name, len(points), time.Since(start))
package observability

import (
	"context"
	"sync"
	"time"
)

// Cache key types reported to [CacheHooks].
const (
	KeyTypePoints   = "points"   // in-memory result cache of a fractal.Generator
	KeyTypeStored   = "stored"   // persistent point cache used by the pipeline
	KeyTypeArtifact = "artifact" // rendered artifact cache used by the pipeline
)

// =============================================================================
// Generate Hooks
// =============================================================================

// GenerateHooks receives events from chaos-game runs.
type GenerateHooks interface {
	// OnGenerateStart fires before a run. name is empty for anonymous requests.
	OnGenerateStart(ctx context.Context, name string, transforms, iterations int)

	// OnGenerateComplete fires after a run with the number of points produced.
	OnGenerateComplete(ctx context.Context, name string, points int, duration time.Duration)
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

	// OnCacheSet records a cache write of size entries or bytes.
	OnCacheSet(ctx context.Context, keyType string, size int)

	// OnCacheEvict records a capacity eviction.
	OnCacheEvict(ctx context.Context, keyType string, key string)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP server.
type HTTPHooks interface {
	// OnRequest records an incoming request.
	OnRequest(ctx context.Context, method, path string)

	// OnResponse records the response sent for a request.
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopGenerateHooks is a no-op implementation of GenerateHooks.
type NoopGenerateHooks struct{}

func (NoopGenerateHooks) OnGenerateStart(context.Context, string, int, int)              {}
func (NoopGenerateHooks) OnGenerateComplete(context.Context, string, int, time.Duration) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)           {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)          {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int)      {}
func (NoopCacheHooks) OnCacheEvict(context.Context, string, string) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	generateHooks GenerateHooks = NoopGenerateHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	hooksMu       sync.RWMutex
)

// SetGenerateHooks registers custom generation hooks.
// This should be called once at application startup before any generation.
func SetGenerateHooks(h GenerateHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		generateHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Generate returns the registered generation hooks.
func Generate() GenerateHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return generateHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	generateHooks = NoopGenerateHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
