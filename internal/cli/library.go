package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	errs "github.com/matzehuels/chaosgame/pkg/errors"
	"github.com/matzehuels/chaosgame/pkg/library"
	"github.com/matzehuels/chaosgame/pkg/pipeline"
	"github.com/matzehuels/chaosgame/pkg/render"
)

func (c *CLI) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the fractals in the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := library.LoadOrDefault(c.config.Library)
			if err != nil {
				return err
			}
			t := newTable("Name", "Maps", "Degenerate")
			for _, e := range lib.Entries() {
				degenerate := ""
				if set, err := e.TransformSet(); err == nil && set.IsDegenerate() {
					degenerate = iconWarning
				}
				t.Row(e.Name, strconv.Itoa(len(e.Rows)), degenerate)
			}
			fmt.Println(t.Render())
			printDetail("%d fractals in %s", lib.Len(), libraryLabel(c.config.Library))
			return nil
		},
	}
}

func (c *CLI) showCommand() *cobra.Command {
	var withStats, noCache bool

	cmd := &cobra.Command{
		Use:               "show <name>",
		Short:             "Show the maps of a fractal and, with --stats, its point distribution",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := library.LoadOrDefault(c.config.Library)
			if err != nil {
				return err
			}
			entry, err := lib.Lookup(args[0])
			if err != nil {
				return err
			}
			set, err := entry.TransformSet()
			if err != nil {
				return err
			}

			fmt.Println(StyleTitle.Render(entry.Name))
			t := newTable("#", "a", "b", "c", "d", "e", "f", "w", "p")
			probs := set.Probabilities()
			for i, row := range entry.Rows {
				cells := []string{strconv.Itoa(i + 1)}
				for _, v := range row {
					cells = append(cells, strconv.FormatFloat(v, 'g', 6, 64))
				}
				cells = append(cells, strconv.FormatFloat(probs[i], 'f', 3, 64))
				t.Row(cells...)
			}
			fmt.Println(t.Render())
			if set.IsDegenerate() {
				printWarning("every map with positive weight is constant")
			}

			if !withStats {
				return nil
			}
			return c.printPointStats(cmd, entry, noCache)
		},
	}

	cmd.Flags().BoolVar(&withStats, "stats", false, "generate the points and summarize their distribution")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the persistent cache")
	return cmd
}

func (c *CLI) printPointStats(cmd *cobra.Command, entry library.Entry, noCache bool) error {
	ctx := cmd.Context()
	runner, err := c.newRunner(ctx, c.config, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	result, err := runner.Execute(ctx, pipeline.Options{Name: entry.Name, NoRender: true, Logger: loggerFromContext(ctx)})
	if err != nil {
		return err
	}

	ro := c.config.RenderOptions()
	var vp *render.Viewport
	if b, ok := render.RobustBounds(result.Points, ro.Percentile); ok {
		v := render.Fit(b, ro.Width, ro.Height, ro.Margin)
		vp = &v
	}
	s := render.Summarize(result.Points, vp)

	printKeyValue("points", humanize.Comma(int64(s.Count)))
	if s.Finite != s.Count {
		printKeyValue("finite", humanize.Comma(int64(s.Finite)))
	}
	if s.Finite == 0 {
		printWarning("no finite points; the maps diverge")
		return nil
	}
	printKeyValue("x range", fmt.Sprintf("[%.4g, %.4g]", s.Bounds.MinX, s.Bounds.MaxX))
	printKeyValue("y range", fmt.Sprintf("[%.4g, %.4g]", s.Bounds.MinY, s.Bounds.MaxY))
	printKeyValue("mean", fmt.Sprintf("(%.4g, %.4g)", s.MeanX, s.MeanY))
	printKeyValue("median", fmt.Sprintf("(%.4g, %.4g)", s.MedianX, s.MedianY))
	printKeyValue("stddev", fmt.Sprintf("(%.4g, %.4g)", s.StdDevX, s.StdDevY))
	if vp != nil {
		printKeyValue("pixels", fmt.Sprintf("%s of %dx%d (%.1f%%)",
			humanize.Comma(int64(s.Distinct)), ro.Width, ro.Height, 100*s.Coverage))
	}
	return nil
}

func (c *CLI) addCommand() *cobra.Command {
	var rowFlags []string
	var auto bool

	cmd := &cobra.Command{
		Use:   "add [name] --row a,b,c,d,e,f,w ...",
		Short: "Add a fractal to the library file",
		Example: `  chaosgame add triangle --row 0.5,0,0,0,0.5,0,1 --row 0.5,0,0.5,0,0.5,0,1 --row 0.5,0,0.25,0,0.5,0.5,1
  chaosgame add --auto --row 0,0,0,0,0.16,0,1`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if auto == (len(args) == 1) {
				return errs.New(errs.ErrCodeInvalidInput, "give either a name or --auto")
			}
			rows, err := parseRowFlags(rowFlags)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				return errs.New(errs.ErrCodeInvalidInput, "at least one --row is required")
			}
			lib, err := library.LoadOrDefault(c.config.Library)
			if err != nil {
				return err
			}
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			name, err = saveRows(lib, c.config.Library, name, rows)
			if err != nil {
				return err
			}
			printSuccess("Added %s (%d maps)", name, len(rows))
			printDetail("Library: %s", c.config.Library)
			printNextStep("Draw it", "chaosgame generate "+strconv.Quote(name))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&rowFlags, "row", nil, "affine map a,b,c,d,e,f,w (repeatable)")
	cmd.Flags().BoolVar(&auto, "auto", false, "name the entry newTransf<N>")
	return cmd
}

func (c *CLI) removeCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "remove <name>",
		Aliases:           []string{"rm"},
		Short:             "Remove a fractal from the library file",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := library.LoadOrDefault(c.config.Library)
			if err != nil {
				return err
			}
			if !lib.Remove(args[0]) {
				return errs.New(errs.ErrCodeNotFound, "no fractal named %q", args[0])
			}
			if err := lib.Save(c.config.Library); err != nil {
				return err
			}
			printSuccess("Removed %s", args[0])
			return nil
		},
	}
}

func (c *CLI) exportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the whole library in the flat-text format",
		Long: `Write every library entry as "name;a,b,c,d,e,f,w;..." lines, to file or stdout.
The output can be used as --library or as the library setting in config.toml.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := library.LoadOrDefault(c.config.Library)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				return lib.Write(os.Stdout)
			}
			if err := lib.Save(args[0]); err != nil {
				return err
			}
			printSuccess("Exported %d fractals", lib.Len())
			printDetail("File: %s", args[0])
			return nil
		},
	}
}

// completeNames completes library entry names.
func (c *CLI) completeNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	if err := c.loadConfig(); err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	lib, err := library.LoadOrDefault(c.config.Library)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return lib.Names(), cobra.ShellCompDirectiveNoFileComp
}

func libraryLabel(path string) string {
	if _, err := os.Stat(path); err != nil {
		return "built-in presets"
	}
	return path
}
