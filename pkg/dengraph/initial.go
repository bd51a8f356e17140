package dengraph

import (
	"math"

	"github.com/gosperisland/dengraph/pkg/errors"
	"github.com/gosperisland/dengraph/pkg/fst"
)

// computeInitialProbs estimates a smoothed per-state initial occupancy
// distribution: all probability mass starts on the start state, then
// iterations rounds of normalized propagation are averaged. The averaging
// damps sensitivity to the exact start state; downstream training discards
// gradient from the first few frames, so only monotonic stability matters
// here, not precision.
//
// The returned vector is non-negative but need not sum exactly to one;
// consumers normalize per use.
func computeInitialProbs(f *fst.Fst, iterations int) ([]float64, error) {
	numStates := f.NumStates()

	// Each state is normalized so its outgoing probability mass (including
	// the final probability) sums to one; the automaton itself carries no
	// transition probabilities.
	normalizing := make([]float64, numStates)
	for s := int32(0); int(s) < numStates; s++ {
		tot := math.Exp(-f.Final(s))
		for _, a := range f.Arcs(s) {
			tot += math.Exp(-a.Weight)
		}
		if !(tot > 0.0 && tot < 100.0) {
			return nil, errors.New(errors.ErrCodeInvalidStateTotal,
				"state %d has transition-probability total %g, want (0, 100); are the weights negated log-probs?",
				s, tot)
		}
		normalizing[s] = 1.0 / tot
	}

	cur := make([]float64, numStates)
	next := make([]float64, numStates)
	avg := make([]float64, numStates)
	cur[f.Start()] = 1.0
	for iter := 0; iter < iterations; iter++ {
		for s := int32(0); int(s) < numStates; s++ {
			prob := cur[s] * normalizing[s]
			for _, a := range f.Arcs(s) {
				next[a.Next] += prob * math.Exp(-a.Weight)
			}
		}
		// Renormalize: final-prob mass leaks out of the propagation, so even
		// after the per-state normalization the new vector won't sum to one.
		sum := 0.0
		for _, p := range next {
			sum += p
		}
		if sum > 0 {
			inv := 1.0 / sum
			for s := range next {
				cur[s] = next[s] * inv
				next[s] = 0
			}
		} else {
			// All mass has been absorbed by final states; the distribution
			// has converged and further propagation moves nothing.
			for s := range next {
				next[s] = 0
			}
		}
		scale := 1.0 / float64(iterations)
		for s := range avg {
			avg[s] += scale * cur[s]
		}
	}

	return avg, nil
}
