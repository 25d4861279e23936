package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/figtreehq/figtree/pkg/cache"
	"github.com/figtreehq/figtree/pkg/document"
	"github.com/figtreehq/figtree/pkg/guid"
	"github.com/figtreehq/figtree/pkg/observability"
	"github.com/figtreehq/figtree/pkg/scene"
	"github.com/figtreehq/figtree/pkg/symbol"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → build → resolve pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Load + build
	loadStart := time.Now()
	observability.Pipeline().OnLoadStart(ctx, opts.Name)
	msg, docHash, docHit, err := r.LoadWithCacheInfo(ctx, opts)
	if err != nil {
		observability.Pipeline().OnLoadComplete(ctx, opts.Name, 0, time.Since(loadStart), err)
		return nil, fmt.Errorf("load: %w", err)
	}
	g := scene.Build(msg)
	result.Message = msg
	result.Graph = g
	result.DocHash = docHash
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.PageCount = len(g.Pages)
	result.Stats.BlobCount = len(g.Blobs)
	result.CacheInfo.DocumentHit = docHit

	observability.Pipeline().OnLoadComplete(ctx, opts.Name, g.NodeCount(), result.Stats.LoadTime, nil)

	instances := Instances(g)
	result.Stats.InstanceCount = len(instances)

	r.Logger.Info("loaded document",
		"nodes", g.NodeCount(),
		"pages", len(g.Pages),
		"blobs", len(g.Blobs),
		"duration", result.Stats.LoadTime)

	// Stage 2: Resolve
	if opts.Resolve || opts.Instance != "" {
		resolveStart := time.Now()
		observability.Pipeline().OnResolveStart(ctx, len(instances))
		resolved, resolveHit, err := r.ResolveWithCacheInfo(ctx, g, docHash, opts)
		observability.Pipeline().OnResolveComplete(ctx, len(instances), time.Since(resolveStart), err)
		if err != nil {
			return nil, fmt.Errorf("resolve: %w", err)
		}
		result.Resolved = resolved
		result.Stats.ResolveTime = time.Since(resolveStart)
		result.CacheInfo.ResolveHit = resolveHit

		r.Logger.Info("resolved instances",
			"instances", len(resolved),
			"duration", result.Stats.ResolveTime)
	}

	// Stage 3: Render (dot/svg only; text and json come from Result)
	if wantsRender(opts.Formats) {
		renderStart := time.Now()
		observability.Pipeline().OnRenderStart(ctx, opts.Formats)
		artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, g, docHash, opts)
		observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(renderStart), err)
		if err != nil {
			return nil, fmt.Errorf("render: %w", err)
		}
		result.Artifacts = artifacts
		result.Stats.RenderTime = time.Since(renderStart)
		result.CacheInfo.RenderHit = renderHit

		r.Logger.Info("rendered outputs",
			"formats", opts.Formats,
			"duration", result.Stats.RenderTime)
	}

	return result, nil
}

// LoadWithCacheInfo decodes the snapshot with caching and returns the
// content hash and cache hit info.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, opts Options) (*document.Message, string, bool, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, "", false, err
	}
	r.applyLogger(&opts)

	data := opts.Data
	if opts.Path != "" {
		var err error
		data, err = os.ReadFile(opts.Path)
		if err != nil {
			return nil, "", false, fmt.Errorf("read %s: %w", opts.Path, err)
		}
	}
	docHash := cache.Hash(data)
	cacheKey := r.Keyer.DocumentKey(docHash, opts.DocumentKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if cached, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			msg, err := document.DecodeBytes(cached)
			if err == nil {
				observability.Cache().OnCacheHit(ctx, "doc")
				return msg, docHash, true, nil // Cache hit
			}
		}
	}
	observability.Cache().OnCacheMiss(ctx, "doc")

	msg, err := document.DecodeBytes(data)
	if err != nil {
		return nil, "", false, err
	}

	// Cache the normalized form
	if !opts.Refresh {
		if normalized, err := json.Marshal(msg); err == nil {
			_ = r.Cache.Set(ctx, cacheKey, normalized, cache.TTLDocument)
			observability.Cache().OnCacheSet(ctx, "doc", len(normalized))
		}
	}

	return msg, docHash, false, nil // Cache miss
}

// Load is a convenience wrapper that calls LoadWithCacheInfo and discards the cache hit info.
func (r *Runner) Load(ctx context.Context, opts Options) (*document.Message, string, error) {
	msg, docHash, _, err := r.LoadWithCacheInfo(ctx, opts)
	return msg, docHash, err
}

// ResolveWithCacheInfo resolves instance overrides with per-instance
// caching and reports whether every resolution came from cache.
func (r *Runner) ResolveWithCacheInfo(ctx context.Context, g *scene.Graph, docHash string, opts Options) (map[guid.Key]symbol.ResolvedOverrides, bool, error) {
	r.applyLogger(&opts)

	targets := Instances(g)
	if opts.Instance != "" {
		n, ok := g.Node(guid.Key(opts.Instance))
		if !ok {
			return nil, false, fmt.Errorf("instance not found: %s", opts.Instance)
		}
		if !n.IsInstance() {
			return nil, false, fmt.Errorf("node is not an instance: %s", opts.Instance)
		}
		targets = []*scene.Node{n}
	}

	resolved := make(map[guid.Key]symbol.ResolvedOverrides, len(targets))
	allCached := true

	for _, inst := range targets {
		cacheKey := r.Keyer.ResolveKey(docHash, string(inst.GUID))

		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				var cached symbol.ResolvedOverrides
				if err := json.Unmarshal(data, &cached); err == nil {
					observability.Cache().OnCacheHit(ctx, "resolve")
					resolved[inst.GUID] = cached
					continue
				}
			}
		}
		allCached = false
		observability.Cache().OnCacheMiss(ctx, "resolve")

		bindings := symbol.ResolveInstanceOverrides(inst, g)
		resolved[inst.GUID] = bindings

		if data, err := json.Marshal(bindings); err == nil {
			_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLResolve)
			observability.Cache().OnCacheSet(ctx, "resolve", len(data))
		}
	}

	return resolved, allCached && len(targets) > 0, nil
}

// ResolveAll is a convenience wrapper that resolves every instance and
// discards the cache hit info.
func (r *Runner) ResolveAll(ctx context.Context, g *scene.Graph, docHash string, opts Options) (map[guid.Key]symbol.ResolvedOverrides, error) {
	resolved, _, err := r.ResolveWithCacheInfo(ctx, g, docHash, opts)
	return resolved, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g *scene.Graph, docHash string, opts Options) (map[string][]byte, bool, error) {
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	artifacts := make(map[string][]byte)
	allCached := true

	var dot string
	for _, format := range opts.Formats {
		if !renderedFormats[format] {
			continue
		}

		cacheKey := r.Keyer.ArtifactKey(docHash, opts.ArtifactKeyOpts(format))
		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				observability.Cache().OnCacheHit(ctx, "artifact")
				artifacts[format] = data
				continue
			}
		}
		allCached = false
		observability.Cache().OnCacheMiss(ctx, "artifact")

		if dot == "" {
			dot = scene.ToDOT(g, scene.DOTOptions{Detailed: opts.Detailed, MaxDepth: opts.MaxDepth})
		}

		var data []byte
		switch format {
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			svg, err := scene.RenderSVG(ctx, dot)
			if err != nil {
				return nil, false, fmt.Errorf("render svg: %w", err)
			}
			data = svg
		}

		artifacts[format] = data
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact)
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}

	return artifacts, allCached && len(artifacts) > 0, nil
}

// Instances returns the document's instance nodes in stable key order.
func Instances(g *scene.Graph) []*scene.Node {
	var out []*scene.Node
	for _, n := range g.Nodes {
		if n.IsInstance() {
			out = append(out, n)
		}
	}
	sortNodes(out)
	return out
}

// sortNodes orders nodes by key for deterministic iteration.
func sortNodes(nodes []*scene.Node) {
	slices.SortFunc(nodes, func(a, b *scene.Node) int {
		return strings.Compare(string(a.GUID), string(b.GUID))
	})
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// wantsRender reports whether any requested format needs the render stage.
func wantsRender(formats []string) bool {
	for _, f := range formats {
		if renderedFormats[f] {
			return true
		}
	}
	return false
}
