// Package render visualizes weighted automata and denominator graphs as
// node-link diagrams.
//
// # Overview
//
// This package produces directed graph visualizations using Graphviz, where
// states appear as circles connected by labeled arrows. It is a debugging
// aid for inspecting small automata; denominator graphs used in training
// routinely have tens of thousands of states and are not meant to be drawn.
//
// # Usage
//
// Convert an automaton to DOT format, then render to SVG:
//
//	dot := render.ToDOT(f, render.Options{})
//	svg, err := render.SVG(ctx, dot)
//
// When the automaton has been through denominator-graph construction, pass
// the anchor state and initial distribution so the diagram highlights them:
//
//	dot := render.ToDOT(f, render.Options{
//		HasAnchor:    true,
//		Anchor:       g.AnchorState(),
//		InitialProbs: g.InitialProbs(),
//	})
//
// # DOT Format
//
// The [ToDOT] function produces Graphviz DOT source that can be:
//
//   - Rendered directly via [SVG] or [PNG]
//   - Saved and processed with external Graphviz tools
//   - Customized before rendering
//
// Arcs are labeled "output/prob" with the zero-based output identifier and
// the transition probability. Final states use a double circle, the start
// state an inbound arrow, and the anchor state a filled background.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG and
// PNG rendering.
package render
