// Package pipeline provides the core build pipeline for denominator graphs.
//
// This package implements the complete load → build → render pipeline used by
// the CLI and by training-side batch tooling. Centralizing the logic keeps
// caching and artifact generation consistent across entry points.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read the source automaton from disk and validate it
//  2. Build: Construct the denominator graph (transition index, initial
//     distribution, anchor state)
//  3. Render: Generate output artifacts (JSON, normalization automaton,
//     DOT/SVG/PNG diagrams)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Input:   "den_graph.fst",
//	    Formats: []string{"json", "norm"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	artifact := result.Artifacts["json"]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gosperisland/dengraph/pkg/cache"
	"github.com/gosperisland/dengraph/pkg/dengraph"
	"github.com/gosperisland/dengraph/pkg/fst"
)

// Format constants for output artifacts.
const (
	// FormatJSON is the denominator-graph JSON artifact consumed by training
	// workers.
	FormatJSON = "json"

	// FormatNorm is the normalization automaton in text format.
	FormatNorm = "norm"

	// FormatDOT is the Graphviz DOT source of the diagram.
	FormatDOT = "dot"

	FormatSVG = "svg"
	FormatPNG = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatNorm: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: json, norm, dot, svg, png)", format)
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

// Options contains all configuration for the build pipeline.
type Options struct {
	// Input is the path of the source automaton in text format.
	Input string `json:"input"`

	// NumOutputs is the size of the output inventory. Zero means infer it
	// from the largest arc label in the automaton.
	NumOutputs int `json:"num_outputs,omitempty"`

	// Iterations overrides the number of initial-distribution sweeps.
	// Zero selects the construction default.
	Iterations int `json:"iterations,omitempty"`

	// AnchorFraction overrides the anchor reachability threshold.
	// Zero selects the construction default.
	AnchorFraction float64 `json:"anchor_fraction,omitempty"`

	// Formats are the artifacts to generate.
	Formats []string `json:"formats,omitempty"`

	// Refresh bypasses the cache and rebuilds from scratch.
	Refresh bool `json:"refresh,omitempty"`

	// ShowWeights includes raw arc weights in diagram artifacts.
	ShowWeights bool `json:"show_weights,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Input == "" {
		return fmt.Errorf("input is required")
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// Config returns the construction configuration for these options.
func (o *Options) Config() dengraph.Config {
	return dengraph.Config{
		Iterations:              o.Iterations,
		AnchorReachableFraction: o.AnchorFraction,
	}
}

// artifactKeyOpts returns the cache key options for the effective output
// inventory size.
func (o *Options) artifactKeyOpts(numOutputs int) cache.ArtifactKeyOpts {
	cfg := o.Config()
	if cfg.Iterations == 0 {
		cfg.Iterations = dengraph.DefaultIterations
	}
	if cfg.AnchorReachableFraction == 0 {
		cfg.AnchorReachableFraction = dengraph.DefaultAnchorReachableFraction
	}
	return cache.ArtifactKeyOpts{
		NumOutputs:     numOutputs,
		Iterations:     cfg.Iterations,
		AnchorFraction: cfg.AnchorReachableFraction,
	}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Fst is the loaded source automaton.
	Fst *fst.Fst

	// Graph is the built denominator graph.
	Graph *dengraph.DenominatorGraph

	// FstHash is the content hash of the source automaton.
	FstHash string

	// BuildID identifies this pipeline run in logs and shared caches.
	BuildID uuid.UUID

	// Artifacts contains generated outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NumStates  int
	NumArcs    int
	LoadTime   time.Duration
	BuildTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	BuildHit  bool // Whether the built graph came from cache
	RenderHit bool // Whether all artifacts came from cache
}
