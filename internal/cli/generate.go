package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/chaosgame/pkg/errors"
	"github.com/matzehuels/chaosgame/pkg/library"
	"github.com/matzehuels/chaosgame/pkg/pipeline"
	"github.com/matzehuels/chaosgame/pkg/render"
)

// generateOpts holds the flags of the generate command.
type generateOpts struct {
	rows       []string
	iterations int
	seed       uint64
	formats    string
	output     string
	noCache    bool
	refresh    bool
	save       bool

	width, height int
	pointSize     float64
	color         string
	background    string
	percentile    float64
}

func (c *CLI) generateCommand() *cobra.Command {
	var opts generateOpts

	cmd := &cobra.Command{
		Use:   "generate [name]",
		Short: "Run the chaos game and write the artifacts",
		Long: `Run the chaos game for a library entry or for explicit rows and write SVG,
PNG or JSON files.

Each --row is one weighted affine map "a,b,c,d,e,f,w" with x' = a*x + b*y + c
and y' = d*x + e*y + f, chosen with probability proportional to w.

With a name and no rows the library entry is used. Rows without a name are an
anonymous request; --save stores them in the library as newTransf<N>.`,
		Example: `  chaosgame generate fern -f svg,png
  chaosgame generate --row 0.5,0,0,0,0.5,0,1 --row 0.5,0,0.5,0,0.5,0,1 --row 0.5,0,0.25,0,0.5,0.5,1
  chaosgame generate dragon -n 500000 --seed 7 -o dragon.png`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return c.runGenerate(cmd, name, &opts)
		},
	}

	f := cmd.Flags()
	f.StringArrayVar(&opts.rows, "row", nil, "affine map a,b,c,d,e,f,w (repeatable)")
	f.IntVarP(&opts.iterations, "iterations", "n", 0, "number of points (default from config, 200000)")
	f.Uint64Var(&opts.seed, "seed", 0, "random seed; seeded runs are reproducible and cached on disk")
	f.StringVarP(&opts.formats, "format", "f", "", "output format(s): svg (default), png, json (comma-separated)")
	f.StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable the persistent cache")
	f.BoolVar(&opts.refresh, "refresh", false, "ignore cached points and artifacts")
	f.BoolVar(&opts.save, "save", false, "save explicit rows to the library")
	f.IntVar(&opts.width, "width", 0, "image width in pixels")
	f.IntVar(&opts.height, "height", 0, "image height in pixels")
	f.Float64Var(&opts.pointSize, "point-size", 0, "marker size in pixels")
	f.StringVar(&opts.color, "color", "", "point color (#rrggbb)")
	f.StringVar(&opts.background, "background", "", "background color (#rrggbb)")
	f.Float64Var(&opts.percentile, "percentile", 0, "frame the central percentile of points instead of all of them")

	return cmd
}

func (c *CLI) runGenerate(cmd *cobra.Command, name string, opts *generateOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	rows, err := parseRowFlags(opts.rows)
	if err != nil {
		return err
	}
	if name == "" && len(rows) == 0 {
		return errs.New(errs.ErrCodeInvalidInput, "give a library name or at least one --row")
	}

	cfg := c.config
	if cmd.Flags().Changed("iterations") {
		cfg.Iterations = opts.iterations
	}
	if cmd.Flags().Changed("seed") {
		seed := opts.seed
		cfg.Seed = &seed
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	if opts.save && len(rows) > 0 {
		saved, err := saveRows(runner.Library, cfg.Library, name, rows)
		if err != nil {
			return err
		}
		name = saved
		printSuccess("Saved %s to %s", name, cfg.Library)
	}

	formats, err := render.ParseFormats(opts.formats)
	if err != nil && opts.formats != "" {
		return err
	}
	if len(formats) == 0 {
		formats = []render.Format{pipeline.DefaultFormat}
	}

	popts := pipeline.Options{
		Name:    name,
		Rows:    rows,
		Formats: formatStrings(formats),
		Render:  overrideRender(cfg.RenderOptions(), opts),
		Refresh: opts.refresh,
		Logger:  logger,
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Generating %s points...", displayName(name)))
	if !c.verbose {
		spinner.Start()
	}
	prog := newProgress(logger)
	result, err := runner.Execute(ctx, popts)
	spinner.Stop()
	if err != nil {
		return err
	}
	prog.done("pipeline finished", "job", result.ID[:8])

	if result.Stats.Degenerate {
		printWarning("every map is constant; the image is a few dots")
	}
	printSuccess("Generated %s", displayName(name))
	printRunStats(result.Stats.Points, result.Stats.Transforms, pointsSource(result.CacheInfo))

	base := basePath(opts.output, name)
	for _, f := range formats {
		path := outputPath(opts.output, base, f, len(formats))
		data := result.Artifacts[f]
		if err := writeArtifact(ctx, path, data); err != nil {
			return err
		}
		printFile(path, len(data))
	}
	return nil
}

// saveRows adds rows to lib under name, or under an automatic name when name
// is empty, and writes the library to path.
func saveRows(lib *library.Library, path, name string, rows [][]float64) (string, error) {
	if name == "" {
		auto, err := lib.AddAuto(rows)
		if err != nil {
			return "", err
		}
		name = auto
	} else if err := lib.Add(name, rows); err != nil {
		return "", err
	}
	if err := lib.Save(path); err != nil {
		return "", err
	}
	return name, nil
}

// parseRowFlags parses --row values.
func parseRowFlags(flags []string) ([][]float64, error) {
	rows := make([][]float64, 0, len(flags))
	for i, s := range flags {
		row, err := library.ParseRow(s)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidConfiguration, err, "--row #%d", i+1)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// overrideRender applies non-zero flags over the configured render options.
func overrideRender(base render.Options, opts *generateOpts) render.Options {
	if opts.width > 0 {
		base.Width = opts.width
	}
	if opts.height > 0 {
		base.Height = opts.height
	}
	if opts.pointSize > 0 {
		base.PointSize = opts.pointSize
	}
	if opts.color != "" {
		base.Color = opts.color
	}
	if opts.background != "" {
		base.Background = opts.background
	}
	if opts.percentile > 0 {
		base.Percentile = opts.percentile
	}
	return base
}

func formatStrings(formats []render.Format) []string {
	out := make([]string, len(formats))
	for i, f := range formats {
		out[i] = string(f)
	}
	return out
}

func pointsSource(info pipeline.CacheInfo) string {
	switch {
	case info.MemoryHit:
		return sourceMemory
	case info.StoredHit:
		return sourceStored
	default:
		return sourceFresh
	}
}

// basePath derives the output path without extension. An explicit output
// loses a known format extension; otherwise the fractal name is used.
func basePath(output, name string) string {
	if output != "" {
		ext := filepath.Ext(output)
		if _, err := render.ParseFormat(strings.TrimPrefix(ext, ".")); err == nil {
			return strings.TrimSuffix(output, ext)
		}
		return output
	}
	if name == "" {
		return "fractal"
	}
	return strings.Join(strings.Fields(name), "_")
}

// outputPath returns where to write format f. A single format goes to
// output verbatim when given.
func outputPath(output, base string, f render.Format, n int) string {
	if n == 1 && output != "" {
		return output
	}
	return base + f.Ext()
}

func writeArtifact(ctx context.Context, path string, data []byte) error {
	if err := errs.ValidatePath(path); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	loggerFromContext(ctx).Debug("wrote artifact", "path", path, "bytes", len(data))
	return nil
}

func displayName(name string) string {
	if name == "" {
		return "anonymous"
	}
	return name
}
