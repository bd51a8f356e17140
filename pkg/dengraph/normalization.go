package dengraph

import (
	"math"

	"github.com/gosperisland/dengraph/pkg/errors"
	"github.com/gosperisland/dengraph/pkg/fst"
)

// NormalizationFst builds the auxiliary automaton that encodes the initial
// distribution for downstream composition: a copy of f with one new start
// state fanning out to every state s with initialProbs[s] > 0 at cost
// -log(p_s), and every original state made final with zero cost regardless
// of its prior final weight. The fan-out is added as epsilon arcs which are
// then removed (merging, not dropping, the paths through them), and arcs are
// sorted by label for efficient composition.
//
// The input automaton is not modified.
func NormalizationFst(f *fst.Fst, initialProbs []float64) (*fst.Fst, error) {
	if f.NumStates() != len(initialProbs) {
		return nil, errors.New(errors.ErrCodeDimensionMismatch,
			"initial distribution has %d entries, automaton has %d states",
			len(initialProbs), f.NumStates())
	}

	out := f.Clone()
	numStates := int32(out.NumStates())
	newStart := out.AddState()
	for s := int32(0); s < numStates; s++ {
		if p := initialProbs[s]; p > 0 {
			out.AddArc(newStart, fst.Arc{Label: fst.Epsilon, Weight: -math.Log(p), Next: s})
		}
		out.SetFinal(s, 0)
	}
	out.SetStart(newStart)

	fst.RmEpsilon(out)
	fst.ArcSort(out)
	return out, nil
}

// NormalizationFst builds the normalization automaton for f using the
// graph's stored initial distribution. f must be the automaton the graph was
// built from (or one with the same state count).
func (g *DenominatorGraph) NormalizationFst(f *fst.Fst) (*fst.Fst, error) {
	return NormalizationFst(f, g.initialProbs)
}
