package render

import (
	"bytes"
	"context"
	"fmt"
	"math"

	"github.com/goccy/go-graphviz"

	"github.com/gosperisland/dengraph/pkg/fst"
)

// Options configures diagram rendering. The zero value draws a plain
// diagram with no anchor highlight and no occupancy annotations.
type Options struct {
	// HasAnchor enables highlighting of the Anchor state.
	HasAnchor bool

	// Anchor is the state highlighted as the renormalization anchor.
	Anchor int32

	// InitialProbs, when non-nil, annotates each state with its initial
	// occupancy probability. Must have one entry per state.
	InitialProbs []float64

	// ShowWeights includes raw arc weights next to the probabilities.
	ShowWeights bool
}

// ToDOT converts a weighted automaton to Graphviz DOT format. The resulting
// DOT string can be rendered using [SVG] or [PNG].
//
// States are drawn left to right, final states as double circles, the start
// state with an inbound arrow from a point node, and the anchor state (if
// any) with a filled background. Arcs are labeled "output/prob".
func ToDOT(f *fst.Fst, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, fontsize=14];\n")
	buf.WriteString("  __start [shape=point];\n")
	buf.WriteString("\n")

	for s := int32(0); int(s) < f.NumStates(); s++ {
		fmt.Fprintf(&buf, "  %d [%s];\n", s, stateAttrs(f, s, opts))
	}

	buf.WriteString("\n")
	fmt.Fprintf(&buf, "  __start -> %d;\n", f.Start())
	for s := int32(0); int(s) < f.NumStates(); s++ {
		for _, a := range f.Arcs(s) {
			fmt.Fprintf(&buf, "  %d -> %d [label=%q];\n", s, a.Next, arcLabel(a, opts))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func stateAttrs(f *fst.Fst, s int32, opts Options) string {
	label := fmt.Sprintf("%d", s)
	if opts.InitialProbs != nil && int(s) < len(opts.InitialProbs) {
		label = fmt.Sprintf("%d\\np=%.3g", s, opts.InitialProbs[s])
	}

	attrs := fmt.Sprintf("label=\"%s\"", label)
	if f.IsFinal(s) {
		attrs += ", shape=doublecircle"
	}
	if opts.HasAnchor && s == opts.Anchor {
		attrs += ", style=filled, fillcolor=lightgoldenrod"
	}
	return attrs
}

func arcLabel(a fst.Arc, opts Options) string {
	outputID := a.Label - 1
	prob := math.Exp(-a.Weight)
	if opts.ShowWeights {
		return fmt.Sprintf("%d/%.3g (w=%.3g)", outputID, prob, a.Weight)
	}
	return fmt.Sprintf("%d/%.3g", outputID, prob)
}

// SVG renders a DOT graph to SVG using Graphviz.
func SVG(ctx context.Context, dot string) ([]byte, error) {
	return renderFormat(ctx, dot, graphviz.SVG)
}

// PNG renders a DOT graph to PNG using Graphviz.
func PNG(ctx context.Context, dot string) ([]byte, error) {
	return renderFormat(ctx, dot, graphviz.PNG)
}

func renderFormat(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
