// Package dengraph builds denominator graphs: compact, flat representations
// of a probabilistic state-transition automaton used as the normalization
// term of a sequence-level training objective for acoustic models.
//
// Construction derives four things from a single epsilon-free weighted
// automaton (see [github.com/gosperisland/dengraph/pkg/fst]):
//
//   - A transition index: one flat array of transition records with
//     per-state, per-direction [first, last) ranges. The compressed-sparse-row
//     layout lets parallel forward-backward sweeps find a state's neighbors
//     with two integer loads and no pointer chasing.
//   - A smoothed initial occupancy distribution, estimated by iterated
//     probability propagation from the start state.
//   - An anchor state used to keep forward-backward scores in a safe numeric
//     range over thousands of time steps, chosen by a reverse-reachability
//     heuristic over the initial distribution.
//   - On demand, a normalization automaton encoding the initial distribution
//     as a weighted start fan-out, for composition by downstream scoring.
//
// Construction is single-threaded and runs once per topology. The finished
// [DenominatorGraph] is immutable and safe for concurrent readers without
// synchronization; the source automaton may be discarded after construction.
package dengraph
