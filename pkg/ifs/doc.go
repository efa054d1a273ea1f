// Package ifs implements Iterated Function Systems and the chaos game.
//
// # Overview
//
// An Iterated Function System is a finite set of affine maps of the plane,
// each paired with a selection weight. Starting from the origin and
// repeatedly applying a randomly chosen map traces out the attractor of the
// system: ferns, triangles, dragons and other self-similar shapes.
//
// This package is pure computation. It never logs, touches the filesystem or
// caches anything; those concerns live in [fractal], [library] and [render].
//
// # Transform Sets
//
// A [TransformSet] is built from rows of seven numbers, the six affine
// coefficients followed by a non-negative weight:
//
//	x' = a·x + b·y + c
//	y' = d·x + e·y + f
//
// Weights are normalized once, at construction, into a probability vector and
// its cumulative distribution. Invalid rows are rejected by [NewTransformSet]
// with an INVALID_CONFIGURATION error so nothing is discovered mid-iteration:
//
//	set, err := ifs.NewTransformSet([][]float64{
//	    {0, 0, 0, 0, 0.16, 0, 0.01},
//	    {0.85, 0.04, 0, -0.04, 0.85, 1.6, 0.85},
//	    {0.2, -0.26, 0, 0.23, 0.22, 1.6, 0.07},
//	    {-0.15, 0.28, 0, 0.26, 0.24, 0.44, 0.07},
//	})
//
// # Sampling
//
// [TransformSet.SampleIndex] draws one uniform value in [0, 1) and returns the
// first index whose cumulative probability exceeds it. Zero-weight maps share
// their cumulative value with their predecessor and can never be selected.
// The mapping itself is exposed as [TransformSet.IndexFor] so it can be tested
// without a random source.
//
// # Generation
//
// [Generate] runs the chaos game for a fixed number of iterations and returns
// a [PointSequence]. The starting origin is never emitted; point 0 is the
// image of the origin under the first sampled map. Given a source from
// [NewSource] with a fixed seed the output is bit-for-bit reproducible:
//
//	points := ifs.Generate(set, ifs.DefaultIterations, ifs.NewSource(42))
//
// [fractal]: github.com/matzehuels/chaosgame/pkg/fractal
// [library]: github.com/matzehuels/chaosgame/pkg/library
// [render]: github.com/matzehuels/chaosgame/pkg/render
package ifs
