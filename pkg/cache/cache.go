// Package cache provides pluggable caching for parsed documents,
// resolved instances, and rendered artifacts. Backends share a small
// byte-oriented interface so the pipeline stays agnostic of where
// entries live (local files, Redis, or nowhere at all).
package cache

import (
	"context"
	"time"
)

// TTLs for the pipeline's cacheable stages. Parsed documents and
// resolutions are content-addressed so they never go stale; the TTLs
// only bound disk growth.
const (
	TTLDocument = 7 * 24 * time.Hour
	TTLResolve  = 7 * 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// Cache is the storage interface shared by all backends.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key
	// was present; a miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with an optional TTL. A zero TTL means the
	// entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// DocumentKeyOpts carries the build parameters that affect a parsed
// snapshot, so that different builds of the same bytes key separately.
type DocumentKeyOpts struct {
	SchemaVersion int `json:"schema_version"`
}

// ArtifactKeyOpts distinguishes rendered artifacts of the same graph.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	Detailed bool   `json:"detailed"`
	MaxDepth int    `json:"max_depth"`
}

// Keyer generates cache keys for the pipeline's cacheable stages.
type Keyer interface {
	// DocumentKey keys a built scene graph by the content hash of its
	// source bytes.
	DocumentKey(docHash string, opts DocumentKeyOpts) string

	// ResolveKey keys one instance's resolved overrides within a
	// document.
	ResolveKey(docHash, instanceKey string) string

	// ArtifactKey keys a rendered artifact (DOT, SVG) of a graph.
	ArtifactKey(docHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard key generator.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// DocumentKey generates a key for a parsed document snapshot.
func (k *DefaultKeyer) DocumentKey(docHash string, opts DocumentKeyOpts) string {
	return hashKey("doc", docHash, opts)
}

// ResolveKey generates a key for one instance's resolution result.
func (k *DefaultKeyer) ResolveKey(docHash, instanceKey string) string {
	return hashKey("resolve", docHash, instanceKey)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(docHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", docHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
