// Package pipeline runs the resolve → generate → render flow shared by the
// CLI and the HTTP server.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Resolve: turn a fractal name and/or explicit rows into a validated
//     transform set, looking names up in the library
//  2. Generate: produce the point sequence through the shared
//     fractal.Generator, consulting the persistent cache when the generator
//     is seeded
//  3. Render: produce artifacts (SVG, PNG, JSON), cached by points and
//     render options
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	runner.Generator = fractal.New(fractal.WithSeed(42))
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Name:    "fern",
//	    Formats: []string{"svg", "png"},
//	})
//	svg := result.Artifacts[render.FormatSVG]
//
// Named requests go through the generator's name-keyed cache, so repeating a
// name returns the earlier points even if the rows changed. Requests without
// a name are anonymous and always generate fresh.
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/chaosgame/pkg/cache"
	errs "github.com/matzehuels/chaosgame/pkg/errors"
	"github.com/matzehuels/chaosgame/pkg/ifs"
	"github.com/matzehuels/chaosgame/pkg/render"
)

// DefaultFormat is rendered when no format is requested.
const DefaultFormat = render.FormatSVG

// Options describe one pipeline run. The struct is accepted as a JSON
// request body by the server.
type Options struct {
	// Name selects a library entry, or names explicit Rows for the result
	// cache. Empty with Rows set means an anonymous request.
	Name string `json:"name,omitempty"`

	// Rows overrides the library entry. Each row is (a, b, c, d, e, f, w).
	Rows [][]float64 `json:"rows,omitempty"`

	// Formats to render; empty renders SVG. NoRender skips rendering.
	Formats  []string `json:"formats,omitempty"`
	NoRender bool     `json:"no_render,omitempty"`

	// Render controls artifact size and colors.
	Render render.Options `json:"render,omitempty"`

	// Refresh bypasses the persistent cache for reads.
	Refresh bool `json:"refresh,omitempty"`

	// Logger overrides the runner's logger for this run.
	Logger *log.Logger `json:"-"`

	formats   []render.Format
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// ID identifies this run in logs and the X-Job-ID header.
	ID string

	// Name is the request name; empty for anonymous runs.
	Name string

	// Set is the resolved transform set.
	Set *ifs.TransformSet

	// Points is the generated sequence. Cached sequences are shared and must
	// not be modified.
	Points ifs.PointSequence

	// PointsHash identifies reproducible points; empty when the generator is
	// unseeded.
	PointsHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[render.Format][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Transforms    int
	Points        int
	Degenerate    bool
	ArtifactBytes int
	ResolveTime   time.Duration
	GenerateTime  time.Duration
	RenderTime    time.Duration
}

// CacheInfo tracks where each stage's result came from.
type CacheInfo struct {
	MemoryHit bool // points came from the generator's name-keyed cache
	StoredHit bool // points came from the persistent cache
	RenderHit bool // every artifact came from the persistent cache
}

// ValidateAndSetDefaults checks the request and applies defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForResolve(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForResolve checks that the request identifies a transform set.
func (o *Options) ValidateForResolve() error {
	if o.Name == "" && len(o.Rows) == 0 {
		return errs.New(errs.ErrCodeInvalidInput, "a fractal name or transform rows are required")
	}
	if o.Name != "" {
		if err := errs.ValidateFractalName(o.Name); err != nil {
			return err
		}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetRenderDefaults fills format and render defaults.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{string(DefaultFormat)}
	}
	if o.Render == (render.Options{}) {
		o.Render = render.DefaultOptions()
	}
	o.Render.SetDefaults()
}

// ValidateForRender applies render defaults and validates formats and
// render options.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	o.formats = nil
	seen := make(map[render.Format]bool)
	for _, s := range o.Formats {
		f, err := render.ParseFormat(s)
		if err != nil {
			return err
		}
		if !seen[f] {
			seen[f] = true
			o.formats = append(o.formats, f)
		}
	}
	return o.Render.Validate()
}

// ParsedFormats returns the validated formats in request order.
func (o *Options) ParsedFormats() []render.Format { return o.formats }

// ArtifactKeyOpts returns cache key options for rendering format f.
func (o *Options) ArtifactKeyOpts(f render.Format) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:     string(f),
		Width:      o.Render.Width,
		Height:     o.Render.Height,
		PointSize:  o.Render.PointSize,
		Color:      o.Render.Color,
		Background: o.Render.Background,
		Margin:     o.Render.Margin,
		Percentile: o.Render.Percentile,
	}
}
