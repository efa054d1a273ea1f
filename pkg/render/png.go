package render

import (
	"bytes"

	"github.com/fogleman/gg"

	errs "github.com/matzehuels/chaosgame/pkg/errors"
	"github.com/matzehuels/chaosgame/pkg/ifs"
)

// RenderPNG rasterizes points into a PNG image.
func RenderPNG(points ifs.PointSequence, opts ...Option) ([]byte, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	v := frame(points, o)
	r := rasterize(points, v)

	dc := gg.NewContext(o.Width, o.Height)
	dc.SetHexColor(o.Background)
	dc.Clear()
	dc.SetHexColor(o.Color)

	if o.PointSize <= 1 {
		r.each(func(x, y int) { dc.SetPixel(x, y) })
	} else {
		half := o.PointSize / 2
		r.each(func(x, y int) {
			dc.DrawRectangle(float64(x)+0.5-half, float64(y)+0.5-half, o.PointSize, o.PointSize)
		})
		dc.Fill()
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "encode png")
	}
	return buf.Bytes(), nil
}
