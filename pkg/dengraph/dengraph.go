package dengraph

import (
	"context"
	"time"

	"github.com/gosperisland/dengraph/pkg/fst"
	"github.com/gosperisland/dengraph/pkg/observability"
)

// Default values for the construction heuristics. Both are empirically
// chosen; override them through [Config] rather than editing call sites.
const (
	// DefaultIterations is the number of propagation sweeps averaged into
	// the initial occupancy distribution.
	DefaultIterations = 100

	// DefaultAnchorReachableFraction is the fraction of all states that must
	// be able to reach a state for it to qualify as the numeric anchor.
	DefaultAnchorReachableFraction = 0.75
)

// Config tunes the construction heuristics. The zero value selects the
// defaults.
type Config struct {
	// Iterations is the number of initial-distribution propagation sweeps.
	Iterations int

	// AnchorReachableFraction is the reachability threshold for anchor
	// candidates, as a fraction of the state count.
	AnchorReachableFraction float64
}

func (c *Config) setDefaults() {
	if c.Iterations == 0 {
		c.Iterations = DefaultIterations
	}
	if c.AnchorReachableFraction == 0 {
		c.AnchorReachableFraction = DefaultAnchorReachableFraction
	}
}

// DenominatorGraph is the finished construction product: the transition
// index, the initial occupancy distribution, and the anchor state. It is
// immutable after construction and is read concurrently, without locks, by
// parallel forward-backward sweep instances.
type DenominatorGraph struct {
	numStates  int
	numOutputs int

	// One flat array backs both directions; forward ranges index the first
	// half, backward ranges the second.
	transitions []Transition
	forward     []StateRange
	backward    []StateRange

	initialProbs []float64
	anchorState  int32
}

// New builds a denominator graph from an epsilon-free weighted automaton
// with the default configuration. numOutputs is the size of the output
// inventory arc labels index into (labels are 1-based; label-1 must lie in
// [0, numOutputs)).
func New(f *fst.Fst, numOutputs int) (*DenominatorGraph, error) {
	return NewWithConfig(context.Background(), f, numOutputs, Config{})
}

// NewWithConfig builds a denominator graph with explicit configuration.
// Construction either fully succeeds or returns an error; there is no
// partial-result mode. Errors indicate a malformed automaton or heuristic
// exhaustion and are not retryable.
func NewWithConfig(ctx context.Context, f *fst.Fst, numOutputs int, cfg Config) (*DenominatorGraph, error) {
	cfg.setDefaults()
	if err := f.ValidateNoEpsilon(); err != nil {
		return nil, err
	}

	hooks := observability.Build()
	hooks.OnBuildStart(ctx, f.NumStates(), f.NumArcs())

	start := time.Now()
	transitions, forward, backward, err := buildTransitions(f, numOutputs)
	if err != nil {
		return nil, err
	}
	hooks.OnStageComplete(ctx, "transitions", f.NumStates(), time.Since(start))

	start = time.Now()
	initialProbs, err := computeInitialProbs(f, cfg.Iterations)
	if err != nil {
		return nil, err
	}
	hooks.OnStageComplete(ctx, "initial-probs", f.NumStates(), time.Since(start))

	start = time.Now()
	anchor, err := selectAnchor(ctx, ReverseAdjacency(f), initialProbs, cfg.AnchorReachableFraction)
	if err != nil {
		return nil, err
	}
	hooks.OnStageComplete(ctx, "anchor", f.NumStates(), time.Since(start))

	return &DenominatorGraph{
		numStates:    f.NumStates(),
		numOutputs:   numOutputs,
		transitions:  transitions,
		forward:      forward,
		backward:     backward,
		initialProbs: initialProbs,
		anchorState:  anchor,
	}, nil
}

// NumStates returns the state count of the source automaton.
func (g *DenominatorGraph) NumStates() int { return g.numStates }

// NumOutputs returns the size of the output inventory.
func (g *DenominatorGraph) NumOutputs() int { return g.numOutputs }

// NumTransitions returns the number of records in the flat transition array
// (twice the automaton's arc count: one forward and one backward record per
// arc).
func (g *DenominatorGraph) NumTransitions() int { return len(g.transitions) }

// Transitions returns the flat transition array backing both directions.
func (g *DenominatorGraph) Transitions() []Transition { return g.transitions }

// ForwardRanges returns the per-state [first, last) ranges for outgoing
// transitions, indexed by state.
func (g *DenominatorGraph) ForwardRanges() []StateRange { return g.forward }

// BackwardRanges returns the per-state [first, last) ranges for incoming
// transitions, indexed by state.
func (g *DenominatorGraph) BackwardRanges() []StateRange { return g.backward }

// ForwardTransitions returns state s's outgoing transition records; each
// record's State is the arc destination. The slice is a view into the shared
// backing array and must not be mutated.
func (g *DenominatorGraph) ForwardTransitions(s int32) []Transition {
	r := g.forward[s]
	return g.transitions[r.First:r.Last]
}

// BackwardTransitions returns state s's incoming transition records; each
// record's State is the arc source. The slice is a view into the shared
// backing array and must not be mutated.
func (g *DenominatorGraph) BackwardTransitions(s int32) []Transition {
	r := g.backward[s]
	return g.transitions[r.First:r.Last]
}

// InitialProbs returns the smoothed initial occupancy distribution, one
// entry per state. The slice is owned by the graph and must not be mutated.
func (g *DenominatorGraph) InitialProbs() []float64 { return g.initialProbs }

// AnchorState returns the state designated for numeric renormalization
// during forward-backward recursion.
func (g *DenominatorGraph) AnchorState() int32 { return g.anchorState }
