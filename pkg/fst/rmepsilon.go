package fst

import (
	"math"
	"sort"
)

// RmEpsilon removes all epsilon arcs from the automaton in place, preserving
// weight semantics: for every path through eliminated epsilon arcs, an
// equivalent direct arc with the combined cost is added, and final
// probabilities reachable through epsilon paths are added (in linear
// probability space) into the source state's final probability. Paths are
// merged, never dropped.
//
// Epsilon cycles are not expanded: an epsilon arc that closes a cycle on the
// current closure path is skipped. The automata built by this toolkit never
// contain epsilon cycles (the only epsilon arcs are the start fan-out added
// during normalization-automaton construction).
func RmEpsilon(f *Fst) {
	n := f.NumStates()
	for s := int32(0); int(s) < n; s++ {
		hasEps := false
		for _, a := range f.Arcs(s) {
			if a.Label == Epsilon {
				hasEps = true
				break
			}
		}
		if !hasEps {
			continue
		}

		// Accumulate the epsilon closure of s: total probability of reaching
		// each state through epsilon arcs only.
		closure := map[int32]float64{}
		onPath := map[int32]bool{s: true}
		var walk func(state int32, prob float64)
		walk = func(state int32, prob float64) {
			for _, a := range f.Arcs(state) {
				if a.Label != Epsilon || onPath[a.Next] {
					continue
				}
				p := prob * math.Exp(-a.Weight)
				closure[a.Next] += p
				onPath[a.Next] = true
				walk(a.Next, p)
				onPath[a.Next] = false
			}
		}
		walk(s, 1.0)

		kept := make([]Arc, 0, len(f.Arcs(s)))
		for _, a := range f.Arcs(s) {
			if a.Label != Epsilon {
				kept = append(kept, a)
			}
		}

		finalProb := math.Exp(-f.Final(s))
		states := make([]int32, 0, len(closure))
		for t := range closure {
			states = append(states, t)
		}
		sort.Slice(states, func(i, j int) bool { return states[i] < states[j] })
		for _, t := range states {
			p := closure[t]
			for _, a := range f.Arcs(t) {
				if a.Label == Epsilon {
					continue
				}
				kept = append(kept, Arc{Label: a.Label, Weight: a.Weight - math.Log(p), Next: a.Next})
			}
			finalProb += p * math.Exp(-f.Final(t))
		}

		f.arcs[s] = kept
		if finalProb > 0 {
			f.finals[s] = -math.Log(finalProb)
		}
	}
}

// ArcSort sorts every state's outgoing arcs by input label (destination state
// breaks ties) for efficient label matching during later composition.
func ArcSort(f *Fst) {
	for s := range f.arcs {
		arcs := f.arcs[s]
		sort.SliceStable(arcs, func(i, j int) bool {
			if arcs[i].Label != arcs[j].Label {
				return arcs[i].Label < arcs[j].Label
			}
			return arcs[i].Next < arcs[j].Next
		})
	}
}
