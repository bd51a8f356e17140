package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/gosperisland/dengraph/pkg/pipeline"
)

// BuildConfig mirrors the optional dengraph.toml configuration file. Flags
// take precedence over the file; the file takes precedence over built-in
// defaults.
//
// Example:
//
//	[build]
//	num_outputs = 6016
//	iterations = 100
//	anchor_fraction = 0.75
//
//	[render]
//	formats = ["json", "norm"]
//	show_weights = false
type BuildConfig struct {
	Build struct {
		NumOutputs     int     `toml:"num_outputs"`
		Iterations     int     `toml:"iterations"`
		AnchorFraction float64 `toml:"anchor_fraction"`
	} `toml:"build"`

	Render struct {
		Formats     []string `toml:"formats"`
		ShowWeights bool     `toml:"show_weights"`
	} `toml:"render"`
}

// loadBuildConfig reads and parses a TOML configuration file.
func loadBuildConfig(path string) (*BuildConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg BuildConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// apply fills unset pipeline options from the configuration file.
func (c *BuildConfig) apply(opts *pipeline.Options) {
	if opts.NumOutputs == 0 {
		opts.NumOutputs = c.Build.NumOutputs
	}
	if opts.Iterations == 0 {
		opts.Iterations = c.Build.Iterations
	}
	if opts.AnchorFraction == 0 {
		opts.AnchorFraction = c.Build.AnchorFraction
	}
	if len(opts.Formats) == 0 {
		opts.Formats = c.Render.Formats
	}
	if !opts.ShowWeights {
		opts.ShowWeights = c.Render.ShowWeights
	}
}
