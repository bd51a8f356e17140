package dengraph

import (
	"context"
	"fmt"

	"github.com/rhartert/sparsesets"
	"github.com/rhartert/yagh"

	"github.com/gosperisland/dengraph/pkg/errors"
	"github.com/gosperisland/dengraph/pkg/fst"
	"github.com/gosperisland/dengraph/pkg/observability"
)

// ReverseAdjacency builds, for each state, the list of states with an arc
// into it. The result is shared between anchor selection and
// [NumStatesThatCanReach]; building it once avoids rescanning the arc list
// per reachability query.
func ReverseAdjacency(f *fst.Fst) [][]int32 {
	reverse := make([][]int32, f.NumStates())
	for s := int32(0); int(s) < f.NumStates(); s++ {
		for _, a := range f.Arcs(s) {
			reverse[a.Next] = append(reverse[a.Next], s)
		}
	}
	return reverse
}

// NumStatesThatCanReach returns the number of distinct states (including
// target itself) with a directed path to target, computed by a traversal of
// the reverse adjacency built by [ReverseAdjacency]. Each state is visited at
// most once, so the cost is O(states + arcs).
//
// An out-of-range target is a programming error and panics.
func NumStatesThatCanReach(reverse [][]int32, target int32) int {
	if target < 0 || int(target) >= len(reverse) {
		panic(fmt.Sprintf("dengraph: target state %d out of range [0, %d)", target, len(reverse)))
	}

	visited := sparsesets.New(len(reverse))
	visited.Insert(int(target))
	queue := []int32{target}
	count := 1
	for len(queue) > 0 {
		state := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		for _, prev := range reverse[state] {
			if visited.Contains(int(prev)) {
				continue
			}
			visited.Insert(int(prev))
			queue = append(queue, prev)
			count++
		}
	}
	return count
}

// selectAnchor picks the numeric-stability anchor: the highest
// initial-probability state that at least fraction of all states can reach.
// Candidates are scanned in descending initial probability; rejected
// candidates are reported through the build hooks and the scan continues.
// High-probability states are usually broadly reachable, so in practice the
// scan accepts within a handful of candidates.
func selectAnchor(ctx context.Context, reverse [][]int32, initialProbs []float64, fraction float64) (int32, error) {
	numStates := len(initialProbs)
	hooks := observability.Build()

	// Heap keyed on negated probability: Pop yields the highest
	// initial-probability state first, ties resolved deterministically by
	// heap order.
	byProb := yagh.New[float64](numStates)
	for s, p := range initialProbs {
		byProb.Put(s, -p)
	}

	// A state is accepted only if it is reachable from at least this many
	// states. The fraction is a heuristic, not a correctness boundary: states
	// tend to be reachable from almost all states or almost none.
	minCanReach := int(fraction * float64(numStates))
	for byProb.Size() > 0 {
		state := int32(byProb.Pop().Elem)
		n := NumStatesThatCanReach(reverse, state)
		if n < minCanReach {
			hooks.OnAnchorCandidateRejected(ctx, state, n, minCanReach)
			continue
		}
		hooks.OnAnchorSelected(ctx, state, n)
		return state, nil
	}

	return 0, errors.New(errors.ErrCodeNoAnchorState,
		"no state is reachable from at least %d of %d states; the automaton is too fragmented for a single renormalization anchor",
		minCanReach, numStates)
}
