// Package cache provides content-addressed caching for built denominator
// graphs and rendered artifacts.
//
// Construction runs once per trained topology, but training clusters share
// topologies: caching the finished artifact by the hash of the source
// automaton (plus build configuration) lets every worker after the first skip
// the build entirely.
//
// Backends:
//   - FileCache: sha-sharded files under a local directory (CLI usage)
//   - RedisCache: shared cache for multi-worker training farms
//   - NullCache: caching disabled
package cache

import (
	"context"
	"time"
)

// TTL values for different cached content types.
const (
	// TTLArtifact is the lifetime of built denominator-graph artifacts.
	// Artifacts are content-addressed, so a long TTL is safe.
	TTLArtifact = 30 * 24 * time.Hour

	// TTLRender is the lifetime of rendered outputs (DOT/SVG/PNG).
	TTLRender = 7 * 24 * time.Hour
)

// Cache is the storage interface shared by all backends.
type Cache interface {
	// Get retrieves a value. The second return value reports whether the
	// key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A zero TTL means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// ArtifactKeyOpts are the build parameters that participate in artifact cache
// keys. Two builds with the same automaton but different parameters must not
// share a cache entry.
type ArtifactKeyOpts struct {
	NumOutputs     int
	Iterations     int
	AnchorFraction float64
}

// Keyer generates cache keys for the different cached content types.
type Keyer interface {
	// ArtifactKey generates a key for a built denominator-graph artifact.
	ArtifactKey(fstHash string, opts ArtifactKeyOpts) string

	// RenderKey generates a key for a rendered automaton artifact.
	RenderKey(fstHash, format string) string
}

// DefaultKeyer generates hash-based keys with type prefixes.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// ArtifactKey generates a key for a built denominator-graph artifact.
func (k *DefaultKeyer) ArtifactKey(fstHash string, opts ArtifactKeyOpts) string {
	return hashKey("dengraph", fstHash, opts.NumOutputs, opts.Iterations, opts.AnchorFraction)
}

// RenderKey generates a key for a rendered automaton artifact.
func (k *DefaultKeyer) RenderKey(fstHash, format string) string {
	return hashKey("render", fstHash, format)
}
