package render

import (
	"math"

	"github.com/matzehuels/chaosgame/pkg/ifs"
)

// Viewport maps plane coordinates to pixel coordinates. It preserves the
// aspect ratio of the framed bounds, centers them in the frame and flips the
// y axis so larger y is drawn higher.
type Viewport struct {
	Bounds        ifs.Bounds
	Width, Height int

	scale, offX, offY float64
}

// Fit frames b inside a width×height image with margin pixels on each side.
// Zero-extent bounds (a single point or a line) are centered.
func Fit(b ifs.Bounds, width, height, margin int) Viewport {
	innerW := float64(width - 2*margin)
	innerH := float64(height - 2*margin)

	scale := math.Inf(1)
	if w := b.Width(); w > 0 {
		scale = innerW / w
	}
	if h := b.Height(); h > 0 {
		scale = math.Min(scale, innerH/h)
	}
	if math.IsInf(scale, 1) {
		scale = 1
	}

	return Viewport{
		Bounds: b,
		Width:  width,
		Height: height,
		scale:  scale,
		offX:   float64(margin) + (innerW-b.Width()*scale)/2,
		offY:   float64(margin) + (innerH-b.Height()*scale)/2,
	}
}

// Scale returns pixels per plane unit.
func (v Viewport) Scale() float64 { return v.scale }

// Project returns the pixel position of p. The result may lie outside the
// frame when p is outside Bounds.
func (v Viewport) Project(p ifs.Point) (x, y float64) {
	x = v.offX + (p.X-v.Bounds.MinX)*v.scale
	y = float64(v.Height) - (v.offY + (p.Y-v.Bounds.MinY)*v.scale)
	return x, y
}

// Pixel returns the integer pixel containing p and whether it lies inside
// the frame. Non-finite points are never inside.
func (v Viewport) Pixel(p ifs.Point) (ix, iy int, ok bool) {
	x, y := v.Project(p)
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return 0, 0, false
	}
	fx, fy := math.Floor(x), math.Floor(y)
	// The far edges belong to the last pixel.
	if fx == float64(v.Width) {
		fx--
	}
	if fy == float64(v.Height) {
		fy--
	}
	if fx < 0 || fy < 0 || fx >= float64(v.Width) || fy >= float64(v.Height) {
		return 0, 0, false
	}
	return int(fx), int(fy), true
}

// raster marks the pixels hit by at least one point, row-major.
type raster struct {
	width, height int
	hit           []bool
	count         int
}

func rasterize(points ifs.PointSequence, v Viewport) *raster {
	r := &raster{width: v.Width, height: v.Height, hit: make([]bool, v.Width*v.Height)}
	for _, p := range points {
		ix, iy, ok := v.Pixel(p)
		if !ok {
			continue
		}
		i := iy*v.Width + ix
		if !r.hit[i] {
			r.hit[i] = true
			r.count++
		}
	}
	return r
}

// each calls fn for every hit pixel in row-major order.
func (r *raster) each(fn func(x, y int)) {
	for i, h := range r.hit {
		if h {
			fn(i%r.width, i/r.width)
		}
	}
}

// frame computes the viewport for points under o.
func frame(points ifs.PointSequence, o Options) Viewport {
	b, ok := RobustBounds(points, o.Percentile)
	if !ok {
		b = ifs.Bounds{MinX: -1, MinY: -1, MaxX: 1, MaxY: 1}
	}
	return Fit(b, o.Width, o.Height, o.Margin)
}
