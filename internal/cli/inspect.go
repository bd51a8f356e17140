package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/gosperisland/dengraph/pkg/dengraph"
)

// inspectCommand creates the inspect command for built artifacts.
func (c *CLI) inspectCommand() *cobra.Command {
	var topN int

	cmd := &cobra.Command{
		Use:   "inspect [graph.json]",
		Short: "Summarize a built denominator-graph artifact",
		Long: `Summarize a built denominator-graph artifact.

The inspect command reads a JSON artifact (produced by 'build') and prints
its dimensions, the anchor state, and the states carrying the most initial
occupancy mass. It validates the artifact's layout invariants on load, so it
doubles as an integrity check before shipping an artifact to workers.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(args[0], topN)
		},
	}

	cmd.Flags().IntVar(&topN, "top", 5, "number of top-occupancy states to show")

	return cmd
}

func (c *CLI) runInspect(input string, topN int) error {
	p := newProgress(c.Logger)

	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	g, err := dengraph.ReadJSON(f)
	if err != nil {
		return fmt.Errorf("load artifact %s: %w", input, err)
	}
	p.done(fmt.Sprintf("Loaded %s", input))

	probs := g.InitialProbs()
	anchor := g.AnchorState()

	printKeyValue("states", fmt.Sprintf("%d", g.NumStates()))
	printKeyValue("outputs", fmt.Sprintf("%d", g.NumOutputs()))
	printKeyValue("transitions", fmt.Sprintf("%d", g.NumTransitions()))
	printKeyValue("anchor", fmt.Sprintf("%d (p=%.4g)", anchor, probs[anchor]))

	if topN > g.NumStates() {
		topN = g.NumStates()
	}
	states := make([]int32, g.NumStates())
	for s := range states {
		states[s] = int32(s)
	}
	sort.Slice(states, func(i, j int) bool {
		return probs[states[i]] > probs[states[j]]
	})

	printInfo("Top %d states by initial occupancy:", topN)
	for _, s := range states[:topN] {
		marker := ""
		if s == anchor {
			marker = " " + StyleHighlight.Render("(anchor)")
		}
		printDetail("state %-8d p=%.4g  out=%d in=%d%s",
			s, probs[s], len(g.ForwardTransitions(s)), len(g.BackwardTransitions(s)), marker)
	}

	return nil
}
