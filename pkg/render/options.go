package render

import (
	"math"
	"regexp"
	"strings"

	errs "github.com/matzehuels/chaosgame/pkg/errors"
)

// Defaults match a 5×5 inch figure at 100 dpi.
const (
	DefaultWidth      = 500
	DefaultHeight     = 500
	DefaultPointSize  = 1.0
	DefaultColor      = "#1b5e20"
	DefaultBackground = "#ffffff"
	DefaultMargin     = 10

	// MaxDimension bounds width and height.
	MaxDimension = 8192
)

var hexColor = regexp.MustCompile(`^#?([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Options control how a point sequence is framed and drawn.
type Options struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	PointSize  float64 `json:"point_size"`
	Color      string  `json:"color"`
	Background string  `json:"background"`
	Margin     int     `json:"margin"`

	// Percentile in (50, 100) frames the central mass of the points instead
	// of their full extent. Zero frames everything.
	Percentile float64 `json:"percentile,omitempty"`
}

// Option configures rendering.
type Option func(*Options)

func WithSize(w, h int) Option        { return func(o *Options) { o.Width, o.Height = w, h } }
func WithPointSize(s float64) Option  { return func(o *Options) { o.PointSize = s } }
func WithColor(c string) Option       { return func(o *Options) { o.Color = c } }
func WithBackground(c string) Option  { return func(o *Options) { o.Background = c } }
func WithMargin(px int) Option        { return func(o *Options) { o.Margin = px } }
func WithPercentile(p float64) Option { return func(o *Options) { o.Percentile = p } }
func WithOptions(base Options) Option { return func(o *Options) { *o = base } }

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		PointSize:  DefaultPointSize,
		Color:      DefaultColor,
		Background: DefaultBackground,
		Margin:     DefaultMargin,
	}
}

// SetDefaults fills zero fields with their defaults.
func (o *Options) SetDefaults() {
	d := DefaultOptions()
	if o.Width == 0 {
		o.Width = d.Width
	}
	if o.Height == 0 {
		o.Height = d.Height
	}
	if o.PointSize == 0 {
		o.PointSize = d.PointSize
	}
	if o.Color == "" {
		o.Color = d.Color
	}
	if o.Background == "" {
		o.Background = d.Background
	}
}

// Validate checks dimensions and colors and normalizes colors to "#rrggbb"
// or "#rgb" form.
func (o *Options) Validate() error {
	if o.Width <= 0 || o.Height <= 0 || o.Width > MaxDimension || o.Height > MaxDimension {
		return errs.New(errs.ErrCodeInvalidInput, "size %dx%d out of range (1-%d)", o.Width, o.Height, MaxDimension)
	}
	if !(o.PointSize > 0) || math.IsInf(o.PointSize, 0) {
		return errs.New(errs.ErrCodeInvalidInput, "point size must be positive and finite, got %v", o.PointSize)
	}
	if o.Margin < 0 || 2*o.Margin >= o.Width || 2*o.Margin >= o.Height {
		return errs.New(errs.ErrCodeInvalidInput, "margin %d does not fit a %dx%d frame", o.Margin, o.Width, o.Height)
	}
	if o.Percentile != 0 && !(o.Percentile > 50 && o.Percentile < 100) {
		return errs.New(errs.ErrCodeInvalidInput, "percentile must be in (50, 100), got %v", o.Percentile)
	}
	var err error
	if o.Color, err = normalizeColor(o.Color); err != nil {
		return err
	}
	if o.Background, err = normalizeColor(o.Background); err != nil {
		return err
	}
	return nil
}

func newOptions(opts []Option) (Options, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.SetDefaults()
	if err := o.Validate(); err != nil {
		return Options{}, err
	}
	return o, nil
}

func normalizeColor(c string) (string, error) {
	if !hexColor.MatchString(c) {
		return "", errs.New(errs.ErrCodeInvalidInput, "invalid color %q (want #rgb or #rrggbb)", c)
	}
	if !strings.HasPrefix(c, "#") {
		c = "#" + c
	}
	return strings.ToLower(c), nil
}
