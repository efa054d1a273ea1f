package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/chaosgame/pkg/buildinfo"
	"github.com/matzehuels/chaosgame/pkg/cache"
	"github.com/matzehuels/chaosgame/pkg/config"
	"github.com/matzehuels/chaosgame/pkg/fractal"
	"github.com/matzehuels/chaosgame/pkg/library"
	"github.com/matzehuels/chaosgame/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = config.AppName

	// redisNamespace prefixes every key the CLI writes to redis, so
	// "cache clear" only removes our own keys.
	redisNamespace = appName + ":"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath  string
	libraryPath string
	verbose     bool
	config      config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Draw iterated function system fractals with the chaos game",
		Long:         `chaosgame renders fractals defined by weighted affine maps. It keeps a library of named maps, caches generated points and serves them over HTTP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	root.PersistentFlags().StringVar(&c.libraryPath, "library", "", "fractal library file (overrides config)")

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.addCommand())
	root.AddCommand(c.removeCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.pickCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file and applies global flag overrides.
func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.libraryPath != "" {
		cfg.Library = c.libraryPath
	}
	c.config = cfg
	c.Logger.Debug("loaded config", "library", cfg.Library, "cache", cfg.Cache.Backend)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for cfg.
func (c *CLI) newRunner(ctx context.Context, cfg config.Config, noCache bool) (*pipeline.Runner, error) {
	store, keyer := c.newCache(ctx, cfg, noCache)

	lib, err := library.LoadOrDefault(cfg.Library)
	if err != nil {
		store.Close()
		return nil, err
	}

	runner := pipeline.NewRunner(store, keyer, c.Logger)
	runner.Generator = newGenerator(cfg, c.Logger)
	runner.Library = lib
	runner.TTL = cfg.Cache.TTL.Duration
	return runner, nil
}

func newGenerator(cfg config.Config, logger *log.Logger) *fractal.Generator {
	opts := []fractal.Option{
		fractal.WithCapacity(cfg.CacheCapacity),
		fractal.WithIterations(cfg.Iterations),
		fractal.WithLogger(logger),
	}
	if cfg.Seed != nil {
		opts = append(opts, fractal.WithSeed(*cfg.Seed))
	}
	return fractal.New(opts...)
}

// newCache opens the configured backend. An unreachable backend degrades to
// no persistence rather than failing the command.
func (c *CLI) newCache(ctx context.Context, cfg config.Config, noCache bool) (cache.Cache, cache.Keyer) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:      cfg.Cache.RedisAddr,
			Namespace: redisNamespace,
		})
		if err != nil {
			c.Logger.Warn("redis cache unavailable, continuing without cache", "error", err)
			return cache.NewNullCache(), nil
		}
		return rc, cache.NewScopedKeyer(nil, redisNamespace)
	case config.BackendFile:
		fc, err := cache.NewFileCache(cfg.Cache.Dir)
		if err != nil {
			c.Logger.Warn("file cache unavailable, continuing without cache", "dir", cfg.Cache.Dir, "error", err)
			return cache.NewNullCache(), nil
		}
		return fc, nil
	default:
		return cache.NewNullCache(), nil
	}
}
