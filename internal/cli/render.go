package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gosperisland/dengraph/pkg/pipeline"
)

// renderCommand creates the render command for diagram output.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		noCache    bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [automaton.fst]",
		Short: "Render an automaton as a diagram",
		Long: `Render an automaton as a diagram.

The render command builds the denominator graph (or fetches it from cache)
and draws the automaton with the anchor state highlighted and each state
annotated with its initial occupancy probability. Intended for small,
debug-sized automata; production topologies are far too large to draw.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Input = args[0]
			opts.Formats = parseFormats(formatsStr, pipeline.FormatSVG)
			for _, f := range opts.Formats {
				if f != pipeline.FormatDOT && f != pipeline.FormatSVG && f != pipeline.FormatPNG {
					return fmt.Errorf("invalid diagram format: %q (must be dot, svg, or png)", f)
				}
			}
			return c.runRender(cmd.Context(), opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, png (comma-separated)")
	cmd.Flags().BoolVar(&opts.ShowWeights, "show-weights", false, "include raw arc weights on edges")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.Logger = logger

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", filepath.Base(opts.Input)))
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if result.Stats.NumStates > 200 {
		printWarning("%d states is large for a diagram; expect slow layout", result.Stats.NumStates)
	}
	printSuccess("Rendered diagram")
	printStats(result.Stats.NumStates, result.Stats.NumArcs, result.CacheInfo.RenderHit)

	return writeArtifacts(result.Artifacts, opts.Formats, opts.Input, output)
}
