package render

import (
	"github.com/montanaflynn/stats"

	"github.com/matzehuels/chaosgame/pkg/ifs"
)

// RobustBounds returns the box holding the central mass of points.
//
// With percentile p in (50, 100) each axis spans the (100-p)th to pth
// percentile of the finite coordinates. Any other p returns the full finite
// extent. ok is false when there are no finite points.
func RobustBounds(points ifs.PointSequence, percentile float64) (ifs.Bounds, bool) {
	full, ok := points.Bounds()
	if !ok || percentile <= 50 || percentile >= 100 {
		return full, ok
	}

	xs, ys := points.XY()
	lo, hi := 100-percentile, percentile
	minX, err1 := stats.Percentile(xs, lo)
	maxX, err2 := stats.Percentile(xs, hi)
	minY, err3 := stats.Percentile(ys, lo)
	maxY, err4 := stats.Percentile(ys, hi)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return full, true
	}
	return ifs.Bounds{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}, true
}

// Summary describes the distribution of a point sequence.
type Summary struct {
	Count    int        `json:"count"`
	Finite   int        `json:"finite"`
	Bounds   ifs.Bounds `json:"bounds"`
	MeanX    float64    `json:"mean_x"`
	MeanY    float64    `json:"mean_y"`
	MedianX  float64    `json:"median_x"`
	MedianY  float64    `json:"median_y"`
	StdDevX  float64    `json:"stddev_x"`
	StdDevY  float64    `json:"stddev_y"`
	Distinct int        `json:"distinct_pixels,omitempty"`
	Coverage float64    `json:"coverage,omitempty"`
}

// Summarize computes a [Summary] over the finite points of s. When v is
// non-nil it also reports how many of its pixels the points cover.
func Summarize(s ifs.PointSequence, v *Viewport) Summary {
	sum := Summary{Count: len(s)}
	xs, ys := s.XY()
	sum.Finite = len(xs)
	if sum.Finite == 0 {
		return sum
	}
	sum.Bounds, _ = s.Bounds()

	data := stats.Float64Data(xs)
	sum.MeanX, _ = data.Mean()
	sum.MedianX, _ = data.Median()
	sum.StdDevX, _ = data.StandardDeviation()

	data = stats.Float64Data(ys)
	sum.MeanY, _ = data.Mean()
	sum.MedianY, _ = data.Median()
	sum.StdDevY, _ = data.StandardDeviation()

	if v != nil {
		r := rasterize(s, *v)
		sum.Distinct = r.count
		sum.Coverage = float64(r.count) / float64(v.Width*v.Height)
	}
	return sum
}
