package dengraph

import (
	"math"

	"github.com/gosperisland/dengraph/pkg/errors"
	"github.com/gosperisland/dengraph/pkg/fst"
)

// Transition is one arc of the automaton in record form. The same record
// shape serves both sweep directions; the meaning of State depends on which
// range table the record was reached through:
//
//   - through a forward range, State is the arc's destination;
//   - through a backward range, State is the arc's source.
//
// Records are immutable once built.
type Transition struct {
	// Prob is the transition probability, exp(-weight).
	Prob float64

	// OutputID is the zero-based output identifier (arc label minus one).
	OutputID int32

	// State is the direction-appropriate neighbor state.
	State int32
}

// StateRange is a half-open [First, Last) range into the flat transition
// array.
type StateRange struct {
	First int32
	Last  int32
}

// Len returns the number of transitions in the range.
func (r StateRange) Len() int { return int(r.Last - r.First) }

// buildTransitions converts the automaton's arc list into the flat transition
// array plus per-state forward and backward ranges. All forward ranges
// precede all backward ranges in the flat array; each direction's ranges
// together cover exactly one record per arc.
func buildTransitions(f *fst.Fst, numOutputs int) ([]Transition, []StateRange, []StateRange, error) {
	numStates := f.NumStates()

	out := make([][]Transition, numStates)
	in := make([][]Transition, numStates)
	for s := int32(0); int(s) < numStates; s++ {
		for _, a := range f.Arcs(s) {
			outputID := a.Label - 1
			if outputID < 0 || int(outputID) >= numOutputs {
				return nil, nil, nil, errors.New(errors.ErrCodeInvalidLabel,
					"arc %d→%d has label %d, want 1..%d; automaton does not match the output inventory",
					s, a.Next, a.Label, numOutputs)
			}
			tr := Transition{
				Prob:     math.Exp(-a.Weight),
				OutputID: outputID,
				State:    a.Next,
			}
			out[s] = append(out[s], tr)
			// The reverse record points back at the source.
			tr.State = s
			in[a.Next] = append(in[a.Next], tr)
		}
	}

	transitions := make([]Transition, 0, 2*f.NumArcs())
	forward := make([]StateRange, numStates)
	backward := make([]StateRange, numStates)
	for s := 0; s < numStates; s++ {
		forward[s].First = int32(len(transitions))
		transitions = append(transitions, out[s]...)
		forward[s].Last = int32(len(transitions))
	}
	for s := 0; s < numStates; s++ {
		backward[s].First = int32(len(transitions))
		transitions = append(transitions, in[s]...)
		backward[s].Last = int32(len(transitions))
	}

	return transitions, forward, backward, nil
}
