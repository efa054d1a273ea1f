// Package config loads chaosgame settings from a TOML file.
//
// The file lives at $XDG_CONFIG_HOME/chaosgame/config.toml (falling back to
// ~/.config). Every key is optional; a missing file means defaults. Keys the
// loader does not know are rejected so typos surface instead of being
// ignored:
//
//	iterations = 200000
//	cache_capacity = 5
//	seed = 42
//	library = "~/fractals.txt"
//
//	[render]
//	width = 800
//	height = 800
//	color = "#2e7d32"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "24h"
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	errs "github.com/matzehuels/chaosgame/pkg/errors"
	"github.com/matzehuels/chaosgame/pkg/fractal"
	"github.com/matzehuels/chaosgame/pkg/ifs"
	"github.com/matzehuels/chaosgame/pkg/render"
)

// AppName names the config and cache directories.
const AppName = "chaosgame"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// DefaultCacheTTL bounds how long persisted points and artifacts live.
const DefaultCacheTTL = 7 * 24 * time.Hour

// Config is the full set of file settings.
type Config struct {
	Iterations    int     `toml:"iterations"`
	CacheCapacity int     `toml:"cache_capacity"`
	Seed          *uint64 `toml:"seed"`
	Library       string  `toml:"library"`

	Render RenderConfig `toml:"render"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// RenderConfig holds default artifact settings.
type RenderConfig struct {
	Width            int     `toml:"width"`
	Height           int     `toml:"height"`
	PointSize        float64 `toml:"point_size"`
	Color            string  `toml:"color"`
	Background       string  `toml:"background"`
	RobustPercentile float64 `toml:"robust_percentile"`
}

// CacheConfig selects the persistent cache backend.
type CacheConfig struct {
	Backend   string   `toml:"backend"`
	Dir       string   `toml:"dir"`
	TTL       Duration `toml:"ttl"`
	RedisAddr string   `toml:"redis_addr"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Duration decodes TOML strings such as "24h".
type Duration struct{ time.Duration }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file exists.
func Default() Config {
	c := Config{}
	c.SetDefaults()
	return c
}

// SetDefaults fills zero fields.
func (c *Config) SetDefaults() {
	if c.Iterations == 0 {
		c.Iterations = ifs.DefaultIterations
	}
	if c.CacheCapacity == 0 {
		c.CacheCapacity = fractal.DefaultCapacity
	}
	if c.Library == "" {
		c.Library = DefaultLibraryPath()
	}

	ro := c.RenderOptions()
	ro.SetDefaults()
	c.Render.Width, c.Render.Height = ro.Width, ro.Height
	c.Render.PointSize = ro.PointSize
	c.Render.Color, c.Render.Background = ro.Color, ro.Background

	if c.Cache.Backend == "" {
		c.Cache.Backend = BackendFile
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = DefaultCacheDir()
	}
	if c.Cache.TTL.Duration == 0 {
		c.Cache.TTL.Duration = DefaultCacheTTL
	}
	if c.Cache.RedisAddr == "" {
		c.Cache.RedisAddr = "localhost:6379"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Iterations < 0 {
		return errs.New(errs.ErrCodeInvalidConfiguration, "iterations must be positive, got %d", c.Iterations)
	}
	if c.CacheCapacity < 0 {
		return errs.New(errs.ErrCodeInvalidConfiguration, "cache_capacity must be positive, got %d", c.CacheCapacity)
	}
	switch c.Cache.Backend {
	case BackendFile, BackendRedis, BackendNone:
	default:
		return errs.New(errs.ErrCodeInvalidConfiguration, "unknown cache backend %q (want file, redis or none)", c.Cache.Backend)
	}
	ro := c.RenderOptions()
	if err := ro.Validate(); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidConfiguration, err, "[render]")
	}
	return nil
}

// RenderOptions converts the [render] table into render options.
func (c *Config) RenderOptions() render.Options {
	return render.Options{
		Width:      c.Render.Width,
		Height:     c.Render.Height,
		PointSize:  c.Render.PointSize,
		Color:      c.Render.Color,
		Background: c.Render.Background,
		Margin:     render.DefaultMargin,
		Percentile: c.Render.RobustPercentile,
	}
}

// Load reads path. An empty path uses [DefaultPath]; a missing file yields
// defaults. The result has defaults applied and is validated.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	var c Config
	md, err := toml.DecodeFile(path, &c)
	switch {
	case os.IsNotExist(err) && !explicit:
		return Default(), nil
	case os.IsNotExist(err):
		return Config{}, errs.Wrap(errs.ErrCodeFileNotFound, err, "config %s", path)
	case err != nil:
		return Config{}, errs.Wrap(errs.ErrCodeInvalidConfiguration, err, "parse %s", path)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errs.New(errs.ErrCodeInvalidConfiguration, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	c.Library = expandHome(c.Library)
	c.Cache.Dir = expandHome(c.Cache.Dir)
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// DefaultPath returns the config file location.
func DefaultPath() string {
	return filepath.Join(configHome(), AppName, "config.toml")
}

// DefaultLibraryPath returns where the user library is kept.
func DefaultLibraryPath() string {
	return filepath.Join(configHome(), AppName, "fractals.txt")
}

// DefaultCacheDir returns the file cache directory (~/.cache/chaosgame/).
func DefaultCacheDir() string {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), AppName)
	}
	return filepath.Join(home, ".cache", AppName)
}

func configHome() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return filepath.Join(home, ".config")
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
