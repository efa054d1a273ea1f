package render

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/chaosgame/pkg/ifs"
)

// RenderSVG draws points as an SVG scatter plot.
//
// Points are binned to the pixel grid first, so the document holds at most
// one square per pixel regardless of how many points were generated.
func RenderSVG(points ifs.PointSequence, opts ...Option) ([]byte, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	v := frame(points, o)
	r := rasterize(points, v)

	var buf bytes.Buffer
	buf.Grow(256 + r.count*48)
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d">`+"\n",
		o.Width, o.Height, o.Width, o.Height)
	fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", o.Background)
	fmt.Fprintf(&buf, `  <g fill="%s" shape-rendering="crispEdges">`+"\n", o.Color)

	size := formatCoord(o.PointSize)
	half := o.PointSize / 2
	r.each(func(x, y int) {
		cx := float64(x) + 0.5 - half
		cy := float64(y) + 0.5 - half
		fmt.Fprintf(&buf, `    <rect x="%s" y="%s" width="%s" height="%s"/>`+"\n",
			formatCoord(cx), formatCoord(cy), size, size)
	})

	buf.WriteString("  </g>\n</svg>\n")
	return buf.Bytes(), nil
}

func formatCoord(v float64) string {
	if v == float64(int(v)) {
		return fmt.Sprintf("%d", int(v))
	}
	return fmt.Sprintf("%.2f", v)
}
