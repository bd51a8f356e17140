package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gosperisland/dengraph/pkg/pipeline"
)

// buildCommand creates the build command.
func (c *CLI) buildCommand() *cobra.Command {
	var (
		configPath string
		formatsStr string
		output     string
		noCache    bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "build [automaton.fst]",
		Short: "Build a denominator graph from a weighted automaton",
		Long: `Build a denominator graph from a weighted automaton.

The input is an epsilon-free automaton in text format with 1-based output
labels and negated-log-probability weights. The build produces the flat
transition index, the smoothed initial occupancy distribution, and the
renormalization anchor state, and writes the artifacts requested with
--format.

Results are cached by the content hash of the automaton and the build
parameters, so repeated builds of the same topology are instant. Set
DENGRAPH_REDIS_ADDR to share the cache across machines.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Input = args[0]
			if formatsStr != "" {
				opts.Formats = strings.Split(formatsStr, ",")
			}
			if configPath != "" {
				cfg, err := loadBuildConfig(configPath)
				if err != nil {
					return err
				}
				cfg.apply(&opts)
			}
			if len(opts.Formats) == 0 {
				opts.Formats = []string{pipeline.FormatJSON}
			}
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runBuild(cmd.Context(), opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): json (default), norm, dot, svg, png (comma-separated)")
	cmd.Flags().StringVar(&configPath, "config", "", "TOML configuration file")
	cmd.Flags().IntVar(&opts.NumOutputs, "num-outputs", 0, "output inventory size (default: infer from labels)")
	cmd.Flags().IntVar(&opts.Iterations, "iterations", 0, "initial-distribution sweeps (default: 100)")
	cmd.Flags().Float64Var(&opts.AnchorFraction, "anchor-fraction", 0, "anchor reachability threshold (default: 0.75)")
	cmd.Flags().BoolVar(&opts.ShowWeights, "show-weights", false, "include raw weights in diagrams")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "bypass the cache and rebuild")

	return cmd
}

// runBuild executes the pipeline and writes the requested artifacts.
func (c *CLI) runBuild(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Building %s...", filepath.Base(opts.Input)))
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Build failed")
		return err
	}
	spinner.Stop()

	printSuccess("Built denominator graph")
	printStats(result.Stats.NumStates, result.Stats.NumArcs, result.CacheInfo.BuildHit)
	printDetail("anchor state: %d · outputs: %d · transitions: %d",
		result.Graph.AnchorState(), result.Graph.NumOutputs(), result.Graph.NumTransitions())

	return writeArtifacts(result.Artifacts, opts.Formats, opts.Input, output)
}

// basePath derives the base output path from the output and input paths.
// If output is empty, it strips the extension from input. If output carries a
// known format extension, that extension is stripped.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// artifactExt maps a pipeline format to its file extension.
func artifactExt(format string) string {
	if format == pipeline.FormatNorm {
		return "norm.fst"
	}
	return format
}

// writeArtifacts writes each generated artifact next to the input (or under
// the explicit output path) and prints the file list.
func writeArtifacts(artifacts map[string][]byte, formats []string, input, output string) error {
	base := basePath(output, input)
	for _, format := range formats {
		data, ok := artifacts[format]
		if !ok {
			continue
		}
		path := base + "." + artifactExt(format)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}
