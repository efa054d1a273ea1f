package render

import (
	"strings"

	errs "github.com/matzehuels/chaosgame/pkg/errors"
	"github.com/matzehuels/chaosgame/pkg/ifs"
)

// Format names an output artifact type.
type Format string

const (
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatJSON Format = "json"
)

// Formats lists every supported format.
var Formats = []Format{FormatSVG, FormatPNG, FormatJSON}

// ParseFormat validates a single format name (case-insensitive).
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatSVG, FormatPNG, FormatJSON:
		return f, nil
	}
	return "", errs.New(errs.ErrCodeInvalidFormat, "unsupported format %q (want svg, png or json)", s)
}

// ParseFormats parses a comma-separated list, dropping duplicates.
func ParseFormats(s string) ([]Format, error) {
	var out []Format
	seen := make(map[Format]bool)
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		f, err := ParseFormat(part)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil, errs.New(errs.ErrCodeInvalidFormat, "no output format given")
	}
	return out, nil
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatJSON:
		return "application/json"
	}
	return "application/octet-stream"
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string { return "." + string(f) }

// Render produces the artifact for f.
func Render(f Format, points ifs.PointSequence, opts ...Option) ([]byte, error) {
	switch f {
	case FormatSVG:
		return RenderSVG(points, opts...)
	case FormatPNG:
		return RenderPNG(points, opts...)
	case FormatJSON:
		return RenderJSON(points, opts...)
	}
	return nil, errs.New(errs.ErrCodeInvalidFormat, "unsupported format %q", f)
}
