// Package pipeline provides the core ingest pipeline for Figtree.
//
// This package implements the complete load → build → resolve pipeline
// that can be used by CLI and API components. By centralizing this
// logic, we ensure consistent behavior across all entry points and
// avoid code duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Decode a document snapshot into its flat change records
//  2. Build: Assemble the records into a navigable scene graph
//  3. Resolve: Compute effective override bindings for every instance
//
// An optional render stage produces DOT or SVG artifacts of the graph.
// Each stage can be run independently or as part of the complete
// pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Path:    "design.fig.json",
//	    Resolve: true,
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	graph := result.Graph
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/figtreehq/figtree/pkg/cache"
	"github.com/figtreehq/figtree/pkg/document"
	"github.com/figtreehq/figtree/pkg/guid"
	"github.com/figtreehq/figtree/pkg/scene"
	"github.com/figtreehq/figtree/pkg/symbol"
)

const (
	// DefaultMaxDepth bounds rendered subtrees. Zero means unlimited;
	// the CLI overrides this for large documents.
	DefaultMaxDepth = 0

	// SchemaVersion is folded into document cache keys so cached
	// snapshots invalidate when the decoded shape changes.
	SchemaVersion = 1
)

// Format constants for output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatText: true,
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// renderedFormats are the formats produced by the render stage; text
// and json are assembled by the caller from the Result directly.
var renderedFormats = map[string]bool{
	FormatDOT: true,
	FormatSVG: true,
}

// Options contains all configuration for the ingest pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options
	Path    string `json:"path,omitempty"`    // Input file; exclusive with Data
	Data    []byte `json:"data,omitempty"`    // Raw snapshot bytes
	Name    string `json:"name,omitempty"`    // Display name for summaries
	Refresh bool   `json:"refresh,omitempty"` // Bypass the cache

	// Resolve options
	Resolve  bool   `json:"resolve,omitempty"`  // Resolve all instances
	Instance string `json:"instance,omitempty"` // Resolve a single instance key

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`
	MaxDepth int      `json:"max_depth,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Message is the decoded flat document.
	Message *document.Message

	// Graph is the assembled scene graph.
	Graph *scene.Graph

	// DocHash is the content hash of the source bytes.
	DocHash string

	// Resolved maps instance keys to their effective override bindings.
	Resolved map[guid.Key]symbol.ResolvedOverrides

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount     int
	PageCount     int
	BlobCount     int
	InstanceCount int
	LoadTime      time.Duration
	ResolveTime   time.Duration
	RenderTime    time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	DocumentHit bool // Whether the decoded document came from cache
	ResolveHit  bool // Whether all resolutions came from cache
	RenderHit   bool // Whether all artifacts came from cache
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: text, json, dot, svg)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks required fields for loading.
func (o *Options) ValidateForLoad() error {
	if o.Path == "" && len(o.Data) == 0 {
		return fmt.Errorf("path or data is required")
	}
	if o.Path != "" && len(o.Data) > 0 {
		return fmt.Errorf("path and data are mutually exclusive")
	}

	// Logger default
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	return nil
}

// DocumentKeyOpts returns cache key options for document loading.
func (o *Options) DocumentKeyOpts() cache.DocumentKeyOpts {
	return cache.DocumentKeyOpts{
		SchemaVersion: SchemaVersion,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		Detailed: o.Detailed,
		MaxDepth: o.MaxDepth,
	}
}
