// Package fractal turns transform sets into point clouds and remembers the
// most recent named results.
//
// A [Generator] wraps [ifs.Generate] with a small name-keyed [ResultCache].
// Callers construct one Generator per session and route every request
// through [Generator.GetOrGenerate]:
//
//	gen := fractal.New(fractal.WithSeed(42))
//	points, hit := gen.GetOrGenerate(ctx, "fern", set)
//
// An empty name marks an anonymous request: it is always generated fresh and
// never touches the cache, so exploratory requests cannot evict named
// results or see stale ones.
//
// The cache is keyed by name only. Editing a set and asking again under the
// same name returns the earlier result until the name is dropped with
// [Generator.Invalidate].
package fractal

import (
	"context"
	"io"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/chaosgame/pkg/ifs"
	"github.com/matzehuels/chaosgame/pkg/observability"
)

// Option configures a Generator.
type Option func(*Generator)

// WithCapacity sets the number of named results kept (default 5).
func WithCapacity(n int) Option {
	return func(g *Generator) { g.capacity = n }
}

// WithIterations sets the number of points per run (default 200,000).
func WithIterations(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.iterations = n
		}
	}
}

// WithSeed makes every run start from the same seeded source, so a given
// set always produces the same sequence.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.seed = &seed
		g.newSource = func() ifs.Uniform { return ifs.NewSource(seed) }
	}
}

// WithSource overrides how each run obtains its random source.
func WithSource(fn func() ifs.Uniform) Option {
	return func(g *Generator) {
		if fn != nil {
			g.seed = nil
			g.newSource = fn
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// Stats are cumulative counters for a Generator. Every named request counts
// once as a hit or a miss; a miss later filled by [Generator.Put] still counts
// as a miss.
type Stats struct {
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Anonymous   int64 `json:"anonymous"`
	Generations int64 `json:"generations"`
	Evictions   int64 `json:"evictions"`
}

// Generator runs the chaos game and caches results by fractal name.
//
// A Generator is safe for concurrent use. Named requests hold one lock across
// lookup, generation and insertion, so a name is never generated twice at
// once and eviction order stays consistent. Anonymous requests skip the lock.
type Generator struct {
	mu    sync.Mutex
	cache *ResultCache

	capacity   int
	iterations int
	seed       *uint64
	newSource  func() ifs.Uniform
	logger     *log.Logger

	hits, misses, anonymous, generations, evictions atomic.Int64
}

// New creates a Generator. Without options it keeps 5 results, produces
// 200,000 points per run and seeds each run randomly.
func New(opts ...Option) *Generator {
	g := &Generator{
		capacity:   DefaultCapacity,
		iterations: ifs.DefaultIterations,
		newSource:  func() ifs.Uniform { return ifs.NewSource(rand.Uint64()) },
		logger:     log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.cache = NewResultCache(g.capacity)
	return g
}

// Iterations returns the number of points produced per run.
func (g *Generator) Iterations() int { return g.iterations }

// Seed returns the fixed seed set with [WithSeed]. ok is false when runs
// draw from a random or custom source.
func (g *Generator) Seed() (seed uint64, ok bool) {
	if g.seed == nil {
		return 0, false
	}
	return *g.seed, true
}

// Generate runs the chaos game once for set, bypassing the cache.
// It blocks until all points are computed; ctx is only passed to hooks.
func (g *Generator) Generate(ctx context.Context, set *ifs.TransformSet) ifs.PointSequence {
	return g.run(ctx, "", set)
}

// GetOrGenerate returns the sequence for name, generating it on a miss.
//
//   - name == "": generate fresh; the cache is neither read nor written.
//   - name cached: return the stored sequence unchanged; set is ignored.
//   - otherwise: generate, store under name, evicting the oldest inserted
//     entry if the cache is over capacity.
//
// hit reports whether the result came from the cache. set must be non-nil
// whenever the result is not already cached.
func (g *Generator) GetOrGenerate(ctx context.Context, name string, set *ifs.TransformSet) (points ifs.PointSequence, hit bool) {
	if name == "" {
		g.anonymous.Add(1)
		return g.run(ctx, "", set), false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if points, ok := g.cache.Get(name); ok {
		g.hits.Add(1)
		observability.Cache().OnCacheHit(ctx, observability.KeyTypePoints)
		g.logger.Debug("result cache hit", "name", name)
		return points, true
	}

	g.misses.Add(1)
	observability.Cache().OnCacheMiss(ctx, observability.KeyTypePoints)

	points = g.run(ctx, name, set)
	g.store(ctx, name, points)
	return points, false
}

// store inserts under name. Callers hold g.mu.
func (g *Generator) store(ctx context.Context, name string, points ifs.PointSequence) {
	if evicted, ok := g.cache.Add(name, points); ok {
		g.evictions.Add(1)
		observability.Cache().OnCacheEvict(ctx, observability.KeyTypePoints, evicted)
		g.logger.Debug("evicted oldest result", "name", evicted)
	}
	observability.Cache().OnCacheSet(ctx, observability.KeyTypePoints, len(points))
}

// Put stores points under name in place of a generation, for results
// restored from a persistent cache after [Generator.Lookup] missed. It counts
// as a miss. An empty name is counted as anonymous and not stored.
func (g *Generator) Put(ctx context.Context, name string, points ifs.PointSequence) {
	if name == "" {
		g.anonymous.Add(1)
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.misses.Add(1)
	observability.Cache().OnCacheMiss(ctx, observability.KeyTypePoints)
	g.store(ctx, name, points)
}

// Lookup returns the stored sequence for name without generating. A hit is
// counted; a miss is not, since the caller goes on to [Generator.Put] or
// [Generator.GetOrGenerate], which count it.
func (g *Generator) Lookup(ctx context.Context, name string) (ifs.PointSequence, bool) {
	if name == "" {
		return nil, false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	points, ok := g.cache.Get(name)
	if ok {
		g.hits.Add(1)
		observability.Cache().OnCacheHit(ctx, observability.KeyTypePoints)
	}
	return points, ok
}

// Cached returns the stored sequence for name without generating or
// counting.
func (g *Generator) Cached(name string) (ifs.PointSequence, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cache.Get(name)
}

// Invalidate drops the cached result for name so the next named request
// regenerates it. It reports whether an entry was removed.
func (g *Generator) Invalidate(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cache.Remove(name)
}

// Purge drops every cached result.
func (g *Generator) Purge() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cache.Purge()
}

// Names returns the cached names from oldest to newest.
func (g *Generator) Names() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cache.Names()
}

// Len returns the number of cached results.
func (g *Generator) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cache.Len()
}

// Stats returns a snapshot of the generator's counters.
func (g *Generator) Stats() Stats {
	return Stats{
		Hits:        g.hits.Load(),
		Misses:      g.misses.Load(),
		Anonymous:   g.anonymous.Load(),
		Generations: g.generations.Load(),
		Evictions:   g.evictions.Load(),
	}
}

func (g *Generator) run(ctx context.Context, name string, set *ifs.TransformSet) ifs.PointSequence {
	g.generations.Add(1)
	observability.Generate().OnGenerateStart(ctx, name, set.Len(), g.iterations)
	start := time.Now()

	points := ifs.Generate(set, g.iterations, g.newSource())

	elapsed := time.Since(start)
	observability.Generate().OnGenerateComplete(ctx, name, len(points), elapsed)
	g.logger.Debug("generated", "name", name, "transforms", set.Len(), "points", len(points), "duration", elapsed)
	return points
}
