// Package fst provides a compact weighted finite-state automaton used as the
// input to denominator-graph construction.
//
// The automaton is a directed graph with one designated start state, optional
// per-state final weights, and labeled arcs. Arc weights and final weights are
// costs in negative-log-probability space: a weight w corresponds to
// probability exp(-w). Label 0 is reserved for epsilon; the automata handed to
// denominator-graph construction must be epsilon-free (epsilon arcs appear
// only transiently inside normalization-automaton construction, see
// [RmEpsilon]).
//
// The upstream automaton pipeline (context expansion, composition, self-loop
// insertion, minimization) is an external collaborator; this package only
// models its output contract and the small automaton algebra the toolkit
// needs on top of it.
package fst

import (
	"math"

	"github.com/gosperisland/dengraph/pkg/errors"
)

// Epsilon is the reserved arc label for epsilon (no-output) arcs.
const Epsilon int32 = 0

// NoFinal is the final cost of a non-final state: infinite cost, zero
// probability.
var NoFinal = math.Inf(1)

// NoState marks the absence of a state (e.g. an unset start state).
const NoState int32 = -1

// Arc is a single labeled, weighted transition.
type Arc struct {
	Label  int32   // input label; Epsilon (0) marks an epsilon arc
	Weight float64 // cost in -log(probability) space
	Next   int32   // destination state
}

// Fst is a mutable weighted automaton. States are dense integer indices
// assigned by AddState. The zero value is an empty automaton with no states
// and no start state; use New for clarity.
//
// Fst is not safe for concurrent mutation. Once construction is finished it
// can be read concurrently.
type Fst struct {
	arcs   [][]Arc
	finals []float64
	start  int32
}

// New creates an empty automaton.
func New() *Fst {
	return &Fst{start: NoState}
}

// AddState adds a new state and returns its index.
func (f *Fst) AddState() int32 {
	f.arcs = append(f.arcs, nil)
	f.finals = append(f.finals, NoFinal)
	return int32(len(f.arcs) - 1)
}

// AddArc appends an arc leaving state s. The state must exist; the arc's
// destination may be added later, consistency is checked by Validate.
func (f *Fst) AddArc(s int32, a Arc) {
	f.arcs[s] = append(f.arcs[s], a)
}

// SetStart designates s as the start state.
func (f *Fst) SetStart(s int32) {
	f.start = s
}

// SetFinal marks s final with the given cost. Use NoFinal to clear.
func (f *Fst) SetFinal(s int32, cost float64) {
	f.finals[s] = cost
}

// Start returns the start state, or NoState if none has been set.
func (f *Fst) Start() int32 { return f.start }

// Final returns the final cost of s (NoFinal if s is not final).
func (f *Fst) Final(s int32) float64 { return f.finals[s] }

// IsFinal reports whether s has a finite final cost.
func (f *Fst) IsFinal(s int32) bool { return !math.IsInf(f.finals[s], 1) }

// NumStates returns the number of states.
func (f *Fst) NumStates() int { return len(f.arcs) }

// NumArcs returns the total number of arcs across all states.
func (f *Fst) NumArcs() int {
	n := 0
	for _, arcs := range f.arcs {
		n += len(arcs)
	}
	return n
}

// Arcs returns the arcs leaving state s. The returned slice is owned by the
// automaton and must not be mutated by callers.
func (f *Fst) Arcs(s int32) []Arc { return f.arcs[s] }

// MaxLabel returns the largest arc label in the automaton, or 0 if there are
// no arcs. Useful for inferring the output-identifier count.
func (f *Fst) MaxLabel() int32 {
	var maxLabel int32
	for _, arcs := range f.arcs {
		for _, a := range arcs {
			if a.Label > maxLabel {
				maxLabel = a.Label
			}
		}
	}
	return maxLabel
}

// Clone returns a deep copy of the automaton.
func (f *Fst) Clone() *Fst {
	c := &Fst{
		arcs:   make([][]Arc, len(f.arcs)),
		finals: make([]float64, len(f.finals)),
		start:  f.start,
	}
	copy(c.finals, f.finals)
	for s, arcs := range f.arcs {
		if arcs != nil {
			c.arcs[s] = append([]Arc(nil), arcs...)
		}
	}
	return c
}

// Validate checks the structural contract expected from the upstream
// automaton pipeline: at least one state, a valid start state, in-range arc
// destinations, and non-negative labels. It does not reject epsilon labels;
// use ValidateNoEpsilon for automata handed to denominator-graph
// construction.
func (f *Fst) Validate() error {
	if len(f.arcs) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "automaton has no states")
	}
	if f.start < 0 || int(f.start) >= len(f.arcs) {
		return errors.New(errors.ErrCodeInvalidInput, "start state %d out of range [0, %d)", f.start, len(f.arcs))
	}
	for s, arcs := range f.arcs {
		for i, a := range arcs {
			if a.Next < 0 || int(a.Next) >= len(f.arcs) {
				return errors.New(errors.ErrCodeInvalidInput,
					"arc %d of state %d has destination %d out of range [0, %d)", i, s, a.Next, len(f.arcs))
			}
			if a.Label < 0 {
				return errors.New(errors.ErrCodeInvalidInput,
					"arc %d of state %d has negative label %d", i, s, a.Label)
			}
		}
	}
	return nil
}

// ValidateNoEpsilon runs Validate and additionally rejects epsilon arcs.
func (f *Fst) ValidateNoEpsilon() error {
	if err := f.Validate(); err != nil {
		return err
	}
	for s, arcs := range f.arcs {
		for i, a := range arcs {
			if a.Label == Epsilon {
				return errors.New(errors.ErrCodeInvalidInput,
					"arc %d of state %d is an epsilon arc; input must be epsilon-free", i, s)
			}
		}
	}
	return nil
}
