// Package pkg provides the core libraries for Figtree document ingestion.
//
// # Overview
//
// Figtree ingests design document snapshots: flat streams of node change
// records become a navigable scene graph, and component instances have
// their overrides resolved into effective node views. The pkg directory
// is organized into three main areas:
//
//  1. Document model ([guid], [document], [scene], [symbol])
//  2. Infrastructure ([cache], [store], [errors], [observability])
//  3. Orchestration ([pipeline])
//
// # Architecture
//
// The typical data flow through Figtree:
//
//	Snapshot JSON (nodeChanges + blobs)
//	         ↓
//	    [document] package (tolerant decode)
//	         ↓
//	    [scene] package (two-pass graph build + blob index)
//	         ↓
//	    [symbol] package (override extraction + resolution)
//	         ↓
//	    Effective views / DOT / SVG output
//
// # Quick Start
//
// Load a snapshot and resolve instance overrides:
//
//	import (
//	    "context"
//	    "github.com/figtreehq/figtree/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	result, err := runner.Execute(context.Background(), pipeline.Options{
//	    Path:    "snapshot.json",
//	    Resolve: true,
//	})
//	if err != nil {
//	    return err
//	}
//	for instance, bindings := range result.Resolved {
//	    _ = instance // "session:local" key of the INSTANCE node
//	    _ = bindings // target key → overridden fields
//	}
//
// # Main Packages
//
// [guid] - Canonical node identity. Every node is addressed by a
// "session:local" key; the decoder accepts flat objects, string keys,
// and nested guid paths without ever failing.
//
// [document] - Tolerant decode of the raw snapshot message. Known
// fields are typed, unknown fields are retained, malformed values are
// dropped at the smallest possible scope.
//
// [scene] - Scene graph assembly. Two-pass build (insert, then link
// parents in input order), positional blob index, traversal helpers,
// and DOT export of the adjacency.
//
// [symbol] - Component instance semantics: symbol resolution, override
// extraction, source topology indexing, structural path resolution with
// DFS and sole-text fallbacks, and override application with sub-field
// textData merging.
//
// [pipeline] - Complete load → build → resolve → render pipeline used
// by the CLI and the HTTP API. Ensures consistent behavior across all
// entry points, with content-hash caching at every stage.
//
// [cache] - Cache backends (file, Redis, null) with a Keyer for stage
// cache keys and retry-with-backoff for transient backend errors.
//
// [store] - Document summary persistence (memory, MongoDB) for the
// serve mode.
//
// [errors] - Structured error codes shared by the CLI and HTTP surface.
//
// [observability] - Optional instrumentation hooks for pipeline stages
// and cache operations.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...           # All tests
//	go test ./pkg/symbol/...    # Specific package
//
// [guid]: https://pkg.go.dev/github.com/figtreehq/figtree/pkg/guid
// [document]: https://pkg.go.dev/github.com/figtreehq/figtree/pkg/document
// [scene]: https://pkg.go.dev/github.com/figtreehq/figtree/pkg/scene
// [symbol]: https://pkg.go.dev/github.com/figtreehq/figtree/pkg/symbol
// [pipeline]: https://pkg.go.dev/github.com/figtreehq/figtree/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/figtreehq/figtree/pkg/cache
// [store]: https://pkg.go.dev/github.com/figtreehq/figtree/pkg/store
// [errors]: https://pkg.go.dev/github.com/figtreehq/figtree/pkg/errors
// [observability]: https://pkg.go.dev/github.com/figtreehq/figtree/pkg/observability
package pkg
