// Package render draws point sequences as scatter plots.
//
// # Overview
//
// A chaos-game run yields a few hundred thousand points. This package fits
// them into a fixed pixel frame and writes one of three artifacts:
//
//   - SVG: one square per occupied pixel, see [RenderSVG]
//   - PNG: rasterized with fogleman/gg, see [RenderPNG]
//   - JSON: the raw finite points plus frame metadata, see [RenderJSON]
//
// [Render] dispatches on a [Format] so callers can treat all sinks alike:
//
//	data, err := render.Render(render.FormatPNG, points,
//	    render.WithSize(800, 800),
//	    render.WithColor("#2e7d32"),
//	)
//
// # Framing
//
// Points are mapped through a [Viewport] that keeps the aspect ratio and
// flips the y axis. By default the frame covers every finite point. Sets
// with far-flung transients can pass [WithPercentile] so the frame covers the
// central mass only; [RobustBounds] computes that box.
//
// Points whose coordinates overflowed to ±Inf or NaN are skipped by every
// sink. [Summarize] reports how many there were.
package render
