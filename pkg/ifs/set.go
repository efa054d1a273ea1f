package ifs

import (
	"math"
	"sort"

	errs "github.com/matzehuels/chaosgame/pkg/errors"
)

// Uniform is a source of uniformly distributed values in [0, 1).
// *math/rand/v2.Rand satisfies it.
type Uniform interface {
	Float64() float64
}

// TransformSet is an ordered set of weighted affine maps together with the
// normalized selection probabilities derived from their weights.
//
// A TransformSet is immutable after construction and safe for concurrent
// reads; sampling state lives entirely in the [Uniform] passed to
// [TransformSet.SampleIndex].
type TransformSet struct {
	transforms []WeightedTransform
	probs      []float64
	cdf        []float64
	// last is the index of the last positive-weight transform. Draws that
	// would fall past the end due to rounding land here.
	last int
}

// NewTransformSet validates rows and builds a TransformSet.
//
// Each row must hold exactly [RowLen] finite values, the last being a
// non-negative weight, and the weights must sum to a positive total.
// Violations are reported as INVALID_CONFIGURATION errors.
func NewTransformSet(rows [][]float64) (*TransformSet, error) {
	if len(rows) == 0 {
		return nil, errs.New(errs.ErrCodeInvalidConfiguration, "at least one transform row is required")
	}

	transforms := make([]WeightedTransform, len(rows))
	for i, row := range rows {
		if len(row) != RowLen {
			return nil, errs.New(errs.ErrCodeInvalidConfiguration,
				"row %d: expected %d values, got %d", i, RowLen, len(row))
		}
		transforms[i] = fromRow(row)
	}
	return FromTransforms(transforms)
}

// FromTransforms builds a TransformSet from already typed transforms.
// The slice is copied. Validation matches [NewTransformSet].
func FromTransforms(transforms []WeightedTransform) (*TransformSet, error) {
	if len(transforms) == 0 {
		return nil, errs.New(errs.ErrCodeInvalidConfiguration, "at least one transform is required")
	}

	var total float64
	for i, t := range transforms {
		for j, v := range t.Row() {
			if !finite(v) {
				return nil, errs.New(errs.ErrCodeInvalidConfiguration,
					"row %d, column %d: %v is not a real number", i, j, v)
			}
		}
		if t.Weight < 0 {
			return nil, errs.New(errs.ErrCodeInvalidConfiguration,
				"row %d: weight must be non-negative, got %v", i, t.Weight)
		}
		total += t.Weight
	}
	if !(total > 0) || math.IsInf(total, 0) {
		return nil, errs.New(errs.ErrCodeInvalidConfiguration,
			"total weight must be positive and finite, got %v", total)
	}

	s := &TransformSet{
		transforms: append([]WeightedTransform(nil), transforms...),
		probs:      make([]float64, len(transforms)),
		cdf:        make([]float64, len(transforms)),
	}

	for i, t := range transforms {
		if t.Weight > 0 {
			s.last = i
		}
	}

	// Before the last selectable map the CDF stays below 1, so rounding in
	// the running sum cannot hide a later positive weight. From it on the
	// CDF is pinned to exactly 1.
	below := math.Nextafter(1, 0)
	var running float64
	for i, t := range transforms {
		p := t.Weight / total
		s.probs[i] = p
		running += p
		if i < s.last {
			s.cdf[i] = math.Min(running, below)
		} else {
			s.cdf[i] = 1
		}
	}

	return s, nil
}

// Len returns the number of transforms, including zero-weight ones.
func (s *TransformSet) Len() int { return len(s.transforms) }

// Transform returns the i-th weighted transform.
func (s *TransformSet) Transform(i int) WeightedTransform { return s.transforms[i] }

// Transforms returns a copy of the transforms in order.
func (s *TransformSet) Transforms() []WeightedTransform {
	return append([]WeightedTransform(nil), s.transforms...)
}

// Probabilities returns a copy of the normalized probability vector.
func (s *TransformSet) Probabilities() []float64 {
	return append([]float64(nil), s.probs...)
}

// Rows returns the set as seven-value rows with the original raw weights.
func (s *TransformSet) Rows() [][]float64 {
	rows := make([][]float64, len(s.transforms))
	for i, t := range s.transforms {
		rows[i] = t.Row()
	}
	return rows
}

// IndexFor maps a draw u in [0, 1) to the first index whose cumulative
// probability is strictly greater than u. A positive weight smaller than one
// ulp of the total is still reachable, with a probability of at least one
// ulp instead of its exact share.
func (s *TransformSet) IndexFor(u float64) int {
	u = max(u, 0)
	i := sort.Search(len(s.cdf), func(i int) bool { return s.cdf[i] > u })
	if i > s.last {
		return s.last
	}
	return i
}

// SampleIndex draws one transform index with the set's probabilities.
func (s *TransformSet) SampleIndex(u Uniform) int {
	return s.IndexFor(u.Float64())
}

// IsDegenerate reports whether every selectable map collapses the plane onto
// the same single point. Generation still succeeds; the result is one point
// repeated.
func (s *TransformSet) IsDegenerate() bool {
	var fixed [2]float64
	seen := false
	for _, t := range s.transforms {
		if t.Weight == 0 {
			continue
		}
		if !t.Transform.IsConstant() {
			return false
		}
		p := [2]float64{t.Transform.C, t.Transform.F}
		if seen && p != fixed {
			return false
		}
		fixed, seen = p, true
	}
	return true
}
