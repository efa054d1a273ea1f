package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	errs "github.com/matzehuels/chaosgame/pkg/errors"
	"github.com/matzehuels/chaosgame/pkg/fractal"
	"github.com/matzehuels/chaosgame/pkg/ifs"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingDefaultFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Iterations != ifs.DefaultIterations || c.CacheCapacity != fractal.DefaultCapacity {
		t.Errorf("defaults = %d/%d", c.Iterations, c.CacheCapacity)
	}
	if c.Render.Width != 500 || c.Render.Height != 500 {
		t.Errorf("render size = %dx%d, want 500x500", c.Render.Width, c.Render.Height)
	}
	if c.Cache.Backend != BackendFile || c.Cache.TTL.Duration != DefaultCacheTTL {
		t.Errorf("cache = %+v", c.Cache)
	}
	if c.Seed != nil {
		t.Error("seed should be unset by default")
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errs.Is(err, errs.ErrCodeFileNotFound) {
		t.Errorf("error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoadValues(t *testing.T) {
	path := writeConfig(t, `
iterations = 1000
cache_capacity = 3
seed = 7
library = "/tmp/lib.txt"

[render]
width = 800
color = "#ff0000"
robust_percentile = 99

[cache]
backend = "redis"
ttl = "90m"
redis_addr = "cache:6379"

[server]
addr = "127.0.0.1:9000"
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Iterations != 1000 || c.CacheCapacity != 3 || c.Seed == nil || *c.Seed != 7 {
		t.Errorf("top-level = %d/%d/%v", c.Iterations, c.CacheCapacity, c.Seed)
	}
	if c.Render.Width != 800 || c.Render.Height != 500 {
		t.Errorf("render size = %dx%d, want 800x500", c.Render.Width, c.Render.Height)
	}
	if c.Cache.Backend != BackendRedis || c.Cache.TTL.Duration != 90*time.Minute || c.Cache.RedisAddr != "cache:6379" {
		t.Errorf("cache = %+v", c.Cache)
	}
	if c.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("server addr = %q", c.Server.Addr)
	}
	if ro := c.RenderOptions(); ro.Percentile != 99 || ro.Color != "#ff0000" {
		t.Errorf("RenderOptions() = %+v", ro)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown key", "iteratons = 5\n", "iteratons"},
		{"unknown nested key", "[render]\nwidht = 5\n", "render.widht"},
		{"bad backend", "[cache]\nbackend = \"memcached\"\n", "memcached"},
		{"bad color", "[render]\ncolor = \"green\"\n", "green"},
		{"bad ttl", "[cache]\nttl = \"soon\"\n", "soon"},
		{"negative iterations", "iterations = -4\n", "iterations"},
		{"syntax", "iterations = \n", "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if !errs.Is(err, errs.ErrCodeInvalidConfiguration) {
				t.Fatalf("error = %v, want INVALID_CONFIGURATION", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestDefaultPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_CACHE_HOME", "/cache")
	if got := DefaultPath(); got != "/cfg/chaosgame/config.toml" {
		t.Errorf("DefaultPath() = %q", got)
	}
	if got := DefaultLibraryPath(); got != "/cfg/chaosgame/fractals.txt" {
		t.Errorf("DefaultLibraryPath() = %q", got)
	}
	if got := DefaultCacheDir(); got != "/cache/chaosgame" {
		t.Errorf("DefaultCacheDir() = %q", got)
	}
}
