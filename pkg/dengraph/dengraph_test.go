package dengraph

import (
	"context"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gosperisland/dengraph/pkg/errors"
	"github.com/gosperisland/dengraph/pkg/fst"
)

func TestNewChain(t *testing.T) {
	g, err := New(chainFst(t), 2)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if got := g.NumStates(); got != 3 {
		t.Errorf("NumStates() = %d, want 3", got)
	}
	if got := g.NumOutputs(); got != 2 {
		t.Errorf("NumOutputs() = %d, want 2", got)
	}
	if got := g.NumTransitions(); got != 4 {
		t.Errorf("NumTransitions() = %d, want 4 (2 forward + 2 backward)", got)
	}

	// Outgoing view of the start state: one record into state 1 with output 0.
	fwd := g.ForwardTransitions(0)
	if len(fwd) != 1 {
		t.Fatalf("ForwardTransitions(0) has %d records, want 1", len(fwd))
	}
	want := Transition{Prob: 1, OutputID: 0, State: 1}
	if diff := cmp.Diff(want, fwd[0]); diff != "" {
		t.Errorf("ForwardTransitions(0)[0] mismatch (-want +got):\n%s", diff)
	}

	// Incoming view of the end state: one record from state 1 with output 1.
	bwd := g.BackwardTransitions(2)
	if len(bwd) != 1 {
		t.Fatalf("BackwardTransitions(2) has %d records, want 1", len(bwd))
	}
	want = Transition{Prob: 1, OutputID: 1, State: 1}
	if diff := cmp.Diff(want, bwd[0]); diff != "" {
		t.Errorf("BackwardTransitions(2)[0] mismatch (-want +got):\n%s", diff)
	}
	if got := g.BackwardTransitions(0); len(got) != 0 {
		t.Errorf("BackwardTransitions(0) has %d records, want 0", len(got))
	}

	// The absorbing end state collects almost all occupancy mass; it is the
	// only state three quarters of the automaton can reach, so it must be the
	// anchor.
	probs := g.InitialProbs()
	if !(probs[2] > probs[1] && probs[1] > probs[0]) {
		t.Errorf("InitialProbs() = %v, want mass concentrated at state 2", probs)
	}
	if got := g.AnchorState(); got != 2 {
		t.Errorf("AnchorState() = %d, want 2", got)
	}
}

func TestNewWithConfigOverrides(t *testing.T) {
	g, err := NewWithConfig(context.Background(), chainFst(t), 2, Config{
		Iterations:              10,
		AnchorReachableFraction: 0.5,
	})
	if err != nil {
		t.Fatalf("NewWithConfig() error: %v", err)
	}
	if got := g.AnchorState(); got != 2 {
		t.Errorf("AnchorState() = %d, want 2", got)
	}
	// Mass reaches the end state after two sweeps and stays there, so the
	// average over 10 sweeps is 9/10.
	if got := g.InitialProbs()[2]; math.Abs(got-0.9) > 1e-9 {
		t.Errorf("InitialProbs()[2] = %g, want 0.9", got)
	}
}

func TestNewRejectsEpsilonArcs(t *testing.T) {
	f := fst.New()
	f.AddState()
	f.AddState()
	f.SetStart(0)
	f.AddArc(0, fst.Arc{Label: fst.Epsilon, Weight: 0, Next: 1})
	f.SetFinal(1, 0)

	_, err := New(f, 2)
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("New() = %v, want INVALID_INPUT", err)
	}
}

func TestGraphNormalizationFst(t *testing.T) {
	f := chainFst(t)
	g, err := New(f, 2)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	norm, err := g.NormalizationFst(f)
	if err != nil {
		t.Fatalf("NormalizationFst() error: %v", err)
	}
	if got := norm.NumStates(); got != 4 {
		t.Errorf("NumStates() = %d, want 4", got)
	}
	// Entry cost into the anchor reflects its occupancy share.
	probs := g.InitialProbs()
	found := false
	for _, a := range norm.Arcs(norm.Start()) {
		if a.Next == 2 && a.Label == 2 {
			found = true
			if want := -math.Log(probs[1]); math.Abs(a.Weight-want) > 1e-12 {
				t.Errorf("bypass arc into state 2 has weight %g, want %g", a.Weight, want)
			}
		}
	}
	if !found {
		t.Error("no bypass arc into state 2 on the start state")
	}
}

func TestEncodingRoundTrip(t *testing.T) {
	g, err := New(cycleFst(t, 5), 5)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	data, err := Marshal(g)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}

	if diff := cmp.Diff(g.Transitions(), got.Transitions()); diff != "" {
		t.Errorf("transitions mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(g.ForwardRanges(), got.ForwardRanges()); diff != "" {
		t.Errorf("forward ranges mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(g.BackwardRanges(), got.BackwardRanges()); diff != "" {
		t.Errorf("backward ranges mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(g.InitialProbs(), got.InitialProbs()); diff != "" {
		t.Errorf("initial probs mismatch (-want +got):\n%s", diff)
	}
	if g.AnchorState() != got.AnchorState() {
		t.Errorf("anchor = %d, want %d", got.AnchorState(), g.AnchorState())
	}
	if g.NumOutputs() != got.NumOutputs() {
		t.Errorf("numOutputs = %d, want %d", got.NumOutputs(), g.NumOutputs())
	}
}

func TestUnmarshalRejectsMalformedArtifacts(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "not json"},
		{"no states", `{"num_states": 0}`},
		{
			"length mismatch",
			`{"num_states": 2, "num_outputs": 1, "anchor_state": 0,
			  "initial_probs": [1.0],
			  "transitions": [], "forward": [], "backward": []}`,
		},
		{
			"anchor out of range",
			`{"num_states": 1, "num_outputs": 1, "anchor_state": 5,
			  "initial_probs": [1.0],
			  "transitions": [],
			  "forward": [{"first": 0, "last": 0}],
			  "backward": [{"first": 0, "last": 0}]}`,
		},
		{
			"range out of bounds",
			`{"num_states": 1, "num_outputs": 1, "anchor_state": 0,
			  "initial_probs": [1.0],
			  "transitions": [],
			  "forward": [{"first": 0, "last": 3}],
			  "backward": [{"first": 0, "last": 0}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.data))
			if !errors.Is(err, errors.ErrCodeInvalidFormat) {
				t.Fatalf("Unmarshal() = %v, want INVALID_FORMAT", err)
			}
		})
	}
}
