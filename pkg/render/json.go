package render

import (
	"encoding/json"
	"math"

	errs "github.com/matzehuels/chaosgame/pkg/errors"
	"github.com/matzehuels/chaosgame/pkg/ifs"
)

type jsonOutput struct {
	Width   int         `json:"width"`
	Height  int         `json:"height"`
	Bounds  *ifs.Bounds `json:"bounds,omitempty"`
	Count   int         `json:"count"`
	Dropped int         `json:"dropped,omitempty"`
	Points  []ifs.Point `json:"points"`
}

// RenderJSON writes the finite points with their frame.
// Non-finite points cannot be encoded as JSON numbers and are counted in
// "dropped" instead.
func RenderJSON(points ifs.PointSequence, opts ...Option) ([]byte, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	out := jsonOutput{
		Width:  o.Width,
		Height: o.Height,
		Points: make([]ifs.Point, 0, len(points)),
	}
	if b, ok := RobustBounds(points, o.Percentile); ok {
		out.Bounds = &b
	}
	for _, p := range points {
		if isFinite(p) {
			out.Points = append(out.Points, p)
		}
	}
	out.Count = len(out.Points)
	out.Dropped = len(points) - out.Count

	data, err := json.Marshal(out)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "encode json")
	}
	return data, nil
}

func isFinite(p ifs.Point) bool {
	return !math.IsInf(p.X, 0) && !math.IsNaN(p.X) && !math.IsInf(p.Y, 0) && !math.IsNaN(p.Y)
}
