package fst

import (
	"math"
	"testing"

	"github.com/gosperisland/dengraph/pkg/errors"
)

// chainFst builds the automaton 0 -1-> 1 -2-> 2 with a zero-cost final weight
// on state 2. Used across the package tests.
func chainFst(t *testing.T) *Fst {
	t.Helper()
	f := New()
	s0 := f.AddState()
	s1 := f.AddState()
	s2 := f.AddState()
	f.SetStart(s0)
	f.AddArc(s0, Arc{Label: 1, Weight: 0, Next: s1})
	f.AddArc(s1, Arc{Label: 2, Weight: 0, Next: s2})
	f.SetFinal(s2, 0)
	return f
}

func TestAddStateAndArcs(t *testing.T) {
	f := chainFst(t)

	if got := f.NumStates(); got != 3 {
		t.Errorf("NumStates() = %d, want 3", got)
	}
	if got := f.NumArcs(); got != 2 {
		t.Errorf("NumArcs() = %d, want 2", got)
	}
	if got := f.Start(); got != 0 {
		t.Errorf("Start() = %d, want 0", got)
	}
	if got := f.MaxLabel(); got != 2 {
		t.Errorf("MaxLabel() = %d, want 2", got)
	}

	arcs := f.Arcs(0)
	if len(arcs) != 1 || arcs[0].Label != 1 || arcs[0].Next != 1 {
		t.Errorf("Arcs(0) = %+v, want one arc with label 1 to state 1", arcs)
	}
}

func TestFinalWeights(t *testing.T) {
	f := chainFst(t)

	if f.IsFinal(0) || f.IsFinal(1) {
		t.Error("states 0 and 1 should not be final")
	}
	if !f.IsFinal(2) {
		t.Error("state 2 should be final")
	}
	if got := f.Final(2); got != 0 {
		t.Errorf("Final(2) = %g, want 0", got)
	}
	if !math.IsInf(f.Final(0), 1) {
		t.Errorf("Final(0) = %g, want +Inf", f.Final(0))
	}

	f.SetFinal(2, NoFinal)
	if f.IsFinal(2) {
		t.Error("SetFinal(NoFinal) should clear the final weight")
	}
}

func TestClone(t *testing.T) {
	f := chainFst(t)
	c := f.Clone()

	c.AddArc(0, Arc{Label: 3, Weight: 1, Next: 2})
	c.SetFinal(0, 0.5)

	if f.NumArcs() != 2 {
		t.Errorf("mutating clone changed original: NumArcs() = %d, want 2", f.NumArcs())
	}
	if f.IsFinal(0) {
		t.Error("mutating clone changed original final weight")
	}
	if c.NumArcs() != 3 {
		t.Errorf("clone NumArcs() = %d, want 3", c.NumArcs())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		build    func() *Fst
		wantCode errors.Code
	}{
		{
			name:  "valid chain",
			build: func() *Fst { return chainFst(t) },
		},
		{
			name:     "no states",
			build:    New,
			wantCode: errors.ErrCodeInvalidInput,
		},
		{
			name: "unset start",
			build: func() *Fst {
				f := New()
				f.AddState()
				return f
			},
			wantCode: errors.ErrCodeInvalidInput,
		},
		{
			name: "arc destination out of range",
			build: func() *Fst {
				f := New()
				s := f.AddState()
				f.SetStart(s)
				f.AddArc(s, Arc{Label: 1, Next: 7})
				return f
			},
			wantCode: errors.ErrCodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build().Validate()
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantCode) {
				t.Fatalf("Validate() = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestValidateNoEpsilon(t *testing.T) {
	f := chainFst(t)
	if err := f.ValidateNoEpsilon(); err != nil {
		t.Fatalf("ValidateNoEpsilon() = %v, want nil", err)
	}

	f.AddArc(0, Arc{Label: Epsilon, Next: 2})
	if err := f.ValidateNoEpsilon(); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("ValidateNoEpsilon() = %v, want INVALID_INPUT", err)
	}
}
