package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gosperisland/dengraph/pkg/cache"
	"github.com/gosperisland/dengraph/pkg/dengraph"
	"github.com/gosperisland/dengraph/pkg/fst"
	"github.com/gosperisland/dengraph/pkg/observability"
	"github.com/gosperisland/dengraph/pkg/render"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger; it doesn't store
// pipeline results. Multiple goroutines can safely use the same Runner with
// different options.
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

// Execute runs the complete load → build → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{
		BuildID:   uuid.New(),
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Load
	loadStart := time.Now()
	f, err := r.Load(opts.Input)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Fst = f
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.NumStates = f.NumStates()
	result.Stats.NumArcs = f.NumArcs()

	fstData, err := fst.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("hash automaton: %w", err)
	}
	result.FstHash = cache.Hash(fstData)

	r.Logger.Info("loaded automaton",
		"build_id", result.BuildID,
		"states", f.NumStates(),
		"arcs", f.NumArcs(),
		"duration", result.Stats.LoadTime)

	// Stage 2: Build
	buildStart := time.Now()
	g, buildHit, err := r.BuildWithCacheInfo(ctx, f, result.FstHash, opts)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	result.Graph = g
	result.Stats.BuildTime = time.Since(buildStart)
	result.CacheInfo.BuildHit = buildHit

	r.Logger.Info("built denominator graph",
		"states", g.NumStates(),
		"transitions", g.NumTransitions(),
		"anchor", g.AnchorState(),
		"cached", buildHit,
		"duration", result.Stats.BuildTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, f, g, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("generated artifacts",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load reads and validates the source automaton.
func (r *Runner) Load(path string) (*fst.Fst, error) {
	f, err := fst.ReadTextFile(path)
	if err != nil {
		return nil, err
	}
	if err := f.ValidateNoEpsilon(); err != nil {
		return nil, err
	}
	return f, nil
}

// BuildWithCacheInfo builds the denominator graph with caching and returns
// cache hit info. fstHash is the content hash of f.
func (r *Runner) BuildWithCacheInfo(ctx context.Context, f *fst.Fst, fstHash string, opts Options) (*dengraph.DenominatorGraph, bool, error) {
	numOutputs := opts.NumOutputs
	if numOutputs == 0 {
		numOutputs = int(f.MaxLabel())
	}
	cacheKey := r.Keyer.ArtifactKey(fstHash, opts.artifactKeyOpts(numOutputs))

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if g, err := dengraph.Unmarshal(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "artifact")
				return g, true, nil
			}
			// A corrupt entry falls through to a rebuild.
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	g, err := dengraph.NewWithConfig(ctx, f, numOutputs, opts.Config())
	if err != nil {
		return nil, false, err
	}

	if data, err := dengraph.Marshal(g); err == nil {
		if r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact) == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}

	return g, false, nil
}

// Build is a convenience wrapper that discards the cache hit info.
func (r *Runner) Build(ctx context.Context, f *fst.Fst, fstHash string, opts Options) (*dengraph.DenominatorGraph, error) {
	g, _, err := r.BuildWithCacheInfo(ctx, f, fstHash, opts)
	return g, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit
// info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, f *fst.Fst, g *dengraph.DenominatorGraph, opts Options) (map[string][]byte, bool, error) {
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}

	// Artifacts are keyed by the hash of the built graph: it already captures
	// the source automaton and all build parameters.
	graphData, err := dengraph.Marshal(g)
	if err != nil {
		return nil, false, fmt.Errorf("serialize graph for cache key: %w", err)
	}
	graphHash := cache.Hash(graphData)

	// Try to get all formats from cache
	allCached := true
	artifacts := make(map[string][]byte)
	if !opts.Refresh {
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.RenderKey(graphHash, renderKeyFormat(format, opts))
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				artifacts[format] = data
			} else {
				allCached = false
				break
			}
		}
		if allCached && len(artifacts) == len(opts.Formats) {
			observability.Cache().OnCacheHit(ctx, "render")
			return artifacts, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "render")
	}

	// Generate all formats
	rendered := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, err := r.renderFormat(ctx, f, g, graphData, format, opts)
		if err != nil {
			return nil, false, fmt.Errorf("render %s: %w", format, err)
		}
		rendered[format] = data
	}

	for format, data := range rendered {
		cacheKey := r.Keyer.RenderKey(graphHash, renderKeyFormat(format, opts))
		if r.Cache.Set(ctx, cacheKey, data, cache.TTLRender) == nil {
			observability.Cache().OnCacheSet(ctx, "render", len(data))
		}
	}

	return rendered, false, nil
}

// Render is a convenience wrapper that discards the cache hit info.
func (r *Runner) Render(ctx context.Context, f *fst.Fst, g *dengraph.DenominatorGraph, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, f, g, opts)
	return artifacts, err
}

func (r *Runner) renderFormat(ctx context.Context, f *fst.Fst, g *dengraph.DenominatorGraph, graphData []byte, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatJSON:
		return graphData, nil

	case FormatNorm:
		norm, err := g.NormalizationFst(f)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := fst.WriteText(norm, &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	case FormatDOT:
		return []byte(r.toDOT(f, g, opts)), nil

	case FormatSVG:
		return render.SVG(ctx, r.toDOT(f, g, opts))

	case FormatPNG:
		return render.PNG(ctx, r.toDOT(f, g, opts))

	default:
		return nil, fmt.Errorf("invalid format: %q", format)
	}
}

func (r *Runner) toDOT(f *fst.Fst, g *dengraph.DenominatorGraph, opts Options) string {
	return render.ToDOT(f, render.Options{
		HasAnchor:    true,
		Anchor:       g.AnchorState(),
		InitialProbs: g.InitialProbs(),
		ShowWeights:  opts.ShowWeights,
	})
}

// renderKeyFormat folds render-affecting options into the cache format tag.
func renderKeyFormat(format string, opts Options) string {
	if opts.ShowWeights && (format == FormatDOT || format == FormatSVG || format == FormatPNG) {
		return format + "+weights"
	}
	return format
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
