// Package cache persists generated points and rendered artifacts across
// runs.
//
// The in-memory [fractal.ResultCache] only lives as long as one process.
// This package adds a byte-level store keyed by content hashes so a CLI
// invocation or a second server instance can reuse earlier work:
//
//   - [FileCache]: one JSON file per entry under ~/.cache/chaosgame
//   - [RedisCache]: shared across server instances
//   - [NullCache]: disables persistence
//
// Keys come from a [Keyer]. Point keys hash the transform rows together with
// the iteration count and seed, so unlike the in-memory cache an edited set
// never returns stale points.
//
// [fractal.ResultCache]: github.com/matzehuels/chaosgame/pkg/fractal
package cache

import (
	"context"
	"time"
)

// Default lifetimes of cached entries.
const (
	TTLPoints   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the value for key. A miss returns ok == false and a nil error.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Set stores data under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by caches that can drop every entry at once.
type Clearer interface {
	Clear(ctx context.Context) (removed int, err error)
}

// Keyer derives cache keys.
type Keyer interface {
	// PointsKey keys a generated point sequence by its transform rows hash.
	PointsKey(rowsHash string, opts PointsKeyOpts) string

	// ArtifactKey keys a rendered artifact by its point sequence hash.
	ArtifactKey(pointsHash string, opts ArtifactKeyOpts) string
}

// PointsKeyOpts are the generation inputs besides the rows.
type PointsKeyOpts struct {
	Iterations int    `json:"iterations"`
	Seed       uint64 `json:"seed"`
}

// ArtifactKeyOpts are the render inputs besides the points.
type ArtifactKeyOpts struct {
	Format     string  `json:"format"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	PointSize  float64 `json:"point_size"`
	Color      string  `json:"color"`
	Background string  `json:"background"`
	Margin     int     `json:"margin"`
	Percentile float64 `json:"percentile"`
}

// DefaultKeyer produces "points:<sha256>" and "artifact:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// PointsKey implements Keyer.
func (DefaultKeyer) PointsKey(rowsHash string, opts PointsKeyOpts) string {
	return hashKey("points", rowsHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(pointsHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", pointsHash, opts)
}
