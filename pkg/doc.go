// Package pkg provides the core libraries for chaosgame fractal rendering.
//
// # Overview
//
// chaosgame draws the attractors of iterated function systems: a set of
// affine maps, each picked with a fixed probability, applied over and over
// to a running point. The visited points trace the fractal. The pkg
// directory is organized into:
//
//  1. [ifs] - Domain logic (affine maps, weighted sets, the chaos-game loop)
//  2. [fractal] - The generator with its name-keyed result cache
//  3. [library] - Named transform sets in a flat-text file
//  4. [render] - Framing and output formats (SVG, PNG, JSON)
//  5. [pipeline] - Orchestration (resolve → generate → render)
//  6. [cache] - Persistent point and artifact storage (file, redis)
//
// # Architecture
//
// The typical data flow:
//
//	library name or explicit rows
//	         ↓
//	    [library] / [ifs] (validate into a TransformSet)
//	         ↓
//	    [fractal] (cached by name, or generated fresh)
//	         ↓
//	    [render] (viewport + sink)
//	         ↓
//	    SVG/PNG/JSON output
//
// # Quick Start
//
//	set, err := ifs.NewTransformSet([][]float64{
//	    {0.5, 0, 0, 0, 0.5, 0, 1},
//	    {0.5, 0, 0.5, 0, 0.5, 0, 1},
//	    {0.5, 0, 0.25, 0, 0.5, 0.5, 1},
//	})
//	if err != nil {
//	    return err
//	}
//	gen := fractal.New(fractal.WithSeed(42))
//	points, _ := gen.GetOrGenerate(ctx, "triangle", set)
//	svg, err := render.RenderSVG(points, render.WithSize(800, 800))
//
// Or through the pipeline, which also consults the persistent cache:
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Name:    "fern",
//	    Formats: []string{"svg", "png"},
//	})
//
// # Supporting Packages
//
// [config] loads config.toml. [errors] defines coded errors shared by every
// layer. [observability] exposes hooks for metrics. [buildinfo] carries the
// version stamped at link time.
//
// [ifs]: https://pkg.go.dev/github.com/matzehuels/chaosgame/pkg/ifs
// [fractal]: https://pkg.go.dev/github.com/matzehuels/chaosgame/pkg/fractal
// [library]: https://pkg.go.dev/github.com/matzehuels/chaosgame/pkg/library
// [render]: https://pkg.go.dev/github.com/matzehuels/chaosgame/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/chaosgame/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/chaosgame/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/chaosgame/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/chaosgame/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/chaosgame/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/chaosgame/pkg/buildinfo
package pkg
