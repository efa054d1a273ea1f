package ifs

import (
	"math"
	"math/rand/v2"
)

// DefaultIterations is the number of points produced per fractal.
const DefaultIterations = 200_000

// Point is one position of the running point.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PointSequence is the ordered output of one chaos-game run.
// Callers must treat it as read-only; cached sequences are shared.
type PointSequence []Point

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Width returns MaxX - MinX.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns MaxY - MinY.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Contains reports whether p lies inside b, edges included.
func (b Bounds) Contains(p Point) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// NewSource returns a seeded random source. Equal seeds yield equal streams.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
}

// Generate runs the chaos game for n iterations starting at the origin.
//
// Each step samples a map from set, applies it to the running point and
// appends the result; the origin itself is not part of the output. The
// returned sequence has length exactly n (empty for n <= 0). Coordinates
// that overflow are kept as-is.
func Generate(set *TransformSet, n int, u Uniform) PointSequence {
	if n <= 0 {
		return PointSequence{}
	}
	points := make(PointSequence, n)
	var x, y float64
	for i := range points {
		t := set.transforms[set.SampleIndex(u)].Transform
		x, y = t.Apply(x, y)
		points[i] = Point{X: x, Y: y}
	}
	return points
}

// Bounds returns the bounding box of the finite points in s.
// ok is false when s has no finite point.
func (s PointSequence) Bounds() (b Bounds, ok bool) {
	for _, p := range s {
		if !finite(p.X) || !finite(p.Y) {
			continue
		}
		if !ok {
			b = Bounds{MinX: p.X, MaxX: p.X, MinY: p.Y, MaxY: p.Y}
			ok = true
			continue
		}
		b.MinX = math.Min(b.MinX, p.X)
		b.MaxX = math.Max(b.MaxX, p.X)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MaxY = math.Max(b.MaxY, p.Y)
	}
	return b, ok
}

// XY splits the finite points of s into coordinate slices.
func (s PointSequence) XY() (xs, ys []float64) {
	xs = make([]float64, 0, len(s))
	ys = make([]float64, 0, len(s))
	for _, p := range s {
		if finite(p.X) && finite(p.Y) {
			xs = append(xs, p.X)
			ys = append(ys, p.Y)
		}
	}
	return xs, ys
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
