package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/chaosgame/pkg/cache"
	errs "github.com/matzehuels/chaosgame/pkg/errors"
	"github.com/matzehuels/chaosgame/pkg/fractal"
	"github.com/matzehuels/chaosgame/pkg/ifs"
	"github.com/matzehuels/chaosgame/pkg/library"
	"github.com/matzehuels/chaosgame/pkg/observability"
	"github.com/matzehuels/chaosgame/pkg/render"
)

// Runner executes the pipeline against one generator, library and
// persistent cache. It is safe for concurrent use as long as Library is not
// mutated while requests run.
type Runner struct {
	Cache     cache.Cache
	Keyer     cache.Keyer
	Logger    *log.Logger
	Generator *fractal.Generator
	Library   *library.Library

	// TTL overrides cache.TTLPoints and cache.TTLArtifact when positive.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// A nil keyer uses DefaultKeyer and a nil cache disables persistence.
// Generator and Library default to an unseeded generator and the built-in
// presets; callers may replace them before the first Execute.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:     c,
		Keyer:     keyer,
		Logger:    logger,
		Generator: fractal.New(fractal.WithLogger(logger)),
		Library:   library.Default(),
	}
}

// Execute runs resolve → generate → render.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{
		ID:   uuid.NewString(),
		Name: opts.Name,
	}
	logger := opts.Logger.With("job", result.ID[:8])

	// Stage 1: Resolve
	resolveStart := time.Now()
	set, err := r.Resolve(opts)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}
	result.Set = set
	result.Stats.ResolveTime = time.Since(resolveStart)
	result.Stats.Transforms = set.Len()
	result.Stats.Degenerate = set.IsDegenerate()
	if result.Stats.Degenerate {
		logger.Warn("every map with positive weight is constant; the output collapses to points", "name", opts.Name)
	}

	// Stage 2: Generate
	generateStart := time.Now()
	points, info, pointsHash := r.GenerateWithCacheInfo(ctx, opts.Name, set, opts)
	result.Points = points
	result.PointsHash = pointsHash
	result.Stats.Points = len(points)
	result.Stats.GenerateTime = time.Since(generateStart)
	result.CacheInfo.MemoryHit = info.MemoryHit
	result.CacheInfo.StoredHit = info.StoredHit

	logger.Info("generated points",
		"name", displayName(opts.Name),
		"points", len(points),
		"memory_hit", info.MemoryHit,
		"stored_hit", info.StoredHit,
		"duration", result.Stats.GenerateTime)

	if opts.NoRender {
		return result, nil
	}

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, points, pointsHash, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit
	for _, data := range artifacts {
		result.Stats.ArtifactBytes += len(data)
	}

	logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Resolve returns the transform set for opts: explicit rows when given,
// otherwise the library entry called opts.Name.
func (r *Runner) Resolve(opts Options) (*ifs.TransformSet, error) {
	if err := opts.ValidateForResolve(); err != nil {
		return nil, err
	}
	if len(opts.Rows) > 0 {
		return ifs.NewTransformSet(opts.Rows)
	}
	entry, err := r.Library.Lookup(opts.Name)
	if err != nil {
		return nil, err
	}
	return entry.TransformSet()
}

// GenerateWithCacheInfo returns the points for set under name.
//
// Lookup order: the generator's in-memory cache (named requests only), then
// the persistent cache (seeded generators only), then a fresh run. Points
// restored from the persistent cache are put into the in-memory cache under
// name. pointsHash is empty unless the points are known to derive from set
// with a fixed seed; an in-memory hit may be stale, so it never has one.
func (r *Runner) GenerateWithCacheInfo(ctx context.Context, name string, set *ifs.TransformSet, opts Options) (ifs.PointSequence, CacheInfo, string) {
	r.applyLogger(&opts)
	var info CacheInfo

	if points, ok := r.Generator.Lookup(ctx, name); ok {
		info.MemoryHit = true
		return points, info, ""
	}

	key, persistable := r.pointsKey(set)
	if persistable && !opts.Refresh {
		points, err := r.loadPoints(ctx, key)
		switch {
		case err == nil:
			info.StoredHit = true
			r.Generator.Put(ctx, name, points)
			return points, info, cache.Hash([]byte(key))
		case !errors.Is(err, cache.ErrCacheMiss):
			opts.Logger.Debug("points cache read failed", "error", err)
		}
	}

	points, hit := r.Generator.GetOrGenerate(ctx, name, set)
	info.MemoryHit = hit
	if !persistable || hit {
		return points, info, ""
	}
	data := EncodePoints(points)
	if err := r.Cache.Set(ctx, key, data, r.ttl(cache.TTLPoints)); err != nil {
		opts.Logger.Debug("points cache write failed", "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, observability.KeyTypeStored, len(data))
	}
	return points, info, cache.Hash([]byte(key))
}

// RenderWithCacheInfo renders every requested format. Artifacts are cached
// only when pointsHash is set. renderHit reports whether all of them came
// from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, points ifs.PointSequence, pointsHash string, opts Options) (map[render.Format][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	artifacts := make(map[render.Format][]byte, len(opts.ParsedFormats()))
	allCached := pointsHash != ""
	for _, f := range opts.ParsedFormats() {
		if pointsHash != "" && !opts.Refresh {
			key := r.Keyer.ArtifactKey(pointsHash, opts.ArtifactKeyOpts(f))
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				observability.Cache().OnCacheHit(ctx, observability.KeyTypeArtifact)
				artifacts[f] = data
				continue
			}
			observability.Cache().OnCacheMiss(ctx, observability.KeyTypeArtifact)
		}
		allCached = false

		data, err := render.Render(f, points, render.WithOptions(opts.Render))
		if err != nil {
			return nil, false, err
		}
		artifacts[f] = data

		if pointsHash != "" {
			key := r.Keyer.ArtifactKey(pointsHash, opts.ArtifactKeyOpts(f))
			if err := r.Cache.Set(ctx, key, data, r.ttl(cache.TTLArtifact)); err != nil {
				opts.Logger.Debug("artifact cache write failed", "format", f, "error", err)
			} else {
				observability.Cache().OnCacheSet(ctx, observability.KeyTypeArtifact, len(data))
			}
		}
	}
	return artifacts, allCached, nil
}

// Invalidate drops name from the in-memory cache so the next named request
// regenerates it.
func (r *Runner) Invalidate(name string) bool {
	return r.Generator.Invalidate(name)
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) pointsKey(set *ifs.TransformSet) (string, bool) {
	seed, ok := r.Generator.Seed()
	if !ok {
		return "", false
	}
	return r.Keyer.PointsKey(cache.HashRows(set.Rows()), cache.PointsKeyOpts{
		Iterations: r.Generator.Iterations(),
		Seed:       seed,
	}), true
}

func (r *Runner) loadPoints(ctx context.Context, key string) (ifs.PointSequence, error) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, observability.KeyTypeStored)
		return nil, cache.ErrCacheMiss
	}
	points, err := DecodePoints(data)
	if err != nil {
		_ = r.Cache.Delete(ctx, key)
		return nil, cache.ErrCacheMiss
	}
	observability.Cache().OnCacheHit(ctx, observability.KeyTypeStored)
	return points, nil
}

func (r *Runner) ttl(fallback time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return fallback
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func displayName(name string) string {
	if name == "" {
		return "(anonymous)"
	}
	return name
}

// IsClientError reports whether err was caused by the request rather than
// the runner.
func IsClientError(err error) bool {
	return errs.IsInvalid(err) || errs.Is(err, errs.ErrCodeNotFound) || errs.Is(err, errs.ErrCodeDuplicate)
}
