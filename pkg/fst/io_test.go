package fst

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gosperisland/dengraph/pkg/errors"
)

func TestReadText(t *testing.T) {
	input := `
# 3-state chain
0	1	1	0.5
1	2	2
2	0.25
`
	f, err := ReadText(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadText() error: %v", err)
	}

	if got := f.NumStates(); got != 3 {
		t.Errorf("NumStates() = %d, want 3", got)
	}
	if got := f.Start(); got != 0 {
		t.Errorf("Start() = %d, want 0", got)
	}
	if got := f.NumArcs(); got != 2 {
		t.Errorf("NumArcs() = %d, want 2", got)
	}

	arcs := f.Arcs(0)
	if len(arcs) != 1 || arcs[0].Label != 1 || arcs[0].Weight != 0.5 || arcs[0].Next != 1 {
		t.Errorf("Arcs(0) = %+v, want [{1 0.5 1}]", arcs)
	}
	// Missing weight defaults to 0.
	if got := f.Arcs(1)[0].Weight; got != 0 {
		t.Errorf("Arcs(1)[0].Weight = %g, want 0", got)
	}
	if !f.IsFinal(2) || f.Final(2) != 0.25 {
		t.Errorf("Final(2) = %g, want 0.25", f.Final(2))
	}
}

func TestReadTextErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"too many fields", "0 1 1 0.5 extra"},
		{"bad state", "x 1 1"},
		{"bad weight", "0 1 1 notafloat"},
		{"negative state", "-1 1 1"},
		{"empty", "# only a comment\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadText(strings.NewReader(tt.input))
			if !errors.Is(err, errors.ErrCodeInvalidFormat) {
				t.Fatalf("ReadText() = %v, want INVALID_FORMAT", err)
			}
		})
	}
}

func TestTextRoundTrip(t *testing.T) {
	f := New()
	s0 := f.AddState()
	s1 := f.AddState()
	s2 := f.AddState()
	f.SetStart(s0)
	f.AddArc(s0, Arc{Label: 1, Weight: 0.5, Next: s1})
	f.AddArc(s1, Arc{Label: 2, Weight: 1.25, Next: s2})
	f.AddArc(s2, Arc{Label: 1, Weight: 0, Next: s0})
	f.SetFinal(s2, 0.75)

	var buf bytes.Buffer
	if err := WriteText(f, &buf); err != nil {
		t.Fatalf("WriteText() error: %v", err)
	}
	got, err := ReadText(&buf)
	if err != nil {
		t.Fatalf("ReadText() error: %v", err)
	}

	if diff := cmp.Diff(snapshot(f), snapshot(got)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestTextFileRoundTrip(t *testing.T) {
	f := New()
	s0 := f.AddState()
	s1 := f.AddState()
	f.SetStart(s0)
	f.AddArc(s0, Arc{Label: 1, Weight: 0.5, Next: s1})
	f.SetFinal(s1, 0)

	path := filepath.Join(t.TempDir(), "graph.fst")
	if err := WriteTextFile(f, path); err != nil {
		t.Fatalf("WriteTextFile() error: %v", err)
	}
	got, err := ReadTextFile(path)
	if err != nil {
		t.Fatalf("ReadTextFile() error: %v", err)
	}
	if diff := cmp.Diff(snapshot(f), snapshot(got)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReadTextFileNotFound(t *testing.T) {
	_, err := ReadTextFile(filepath.Join(t.TempDir(), "missing.fst"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Fatalf("ReadTextFile() = %v, want FILE_NOT_FOUND", err)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	f := New()
	s0 := f.AddState()
	s1 := f.AddState()
	s2 := f.AddState()
	f.SetStart(s1)
	f.AddArc(s0, Arc{Label: 1, Weight: 0.5, Next: s1})
	f.AddArc(s1, Arc{Label: 2, Weight: 0, Next: s2})
	f.SetFinal(s0, 1.5)
	f.SetFinal(s2, 0)

	data, err := Marshal(f)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}

	if diff := cmp.Diff(snapshot(f), snapshot(got)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReadJSONErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", "not json"},
		{"no states", `{"num_states": 0, "start": 0, "arcs": []}`},
		{"start out of range", `{"num_states": 2, "start": 5, "arcs": []}`},
		{"arc out of range", `{"num_states": 2, "start": 0, "arcs": [{"from": 0, "to": 9, "label": 1}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.input))
			if !errors.Is(err, errors.ErrCodeInvalidFormat) {
				t.Fatalf("Unmarshal() = %v, want INVALID_FORMAT", err)
			}
		})
	}
}

// snapshot flattens an automaton into comparable values for cmp.Diff.
type fstSnapshot struct {
	Start  int32
	Finals map[int32]float64
	Arcs   map[int32][]Arc
}

func snapshot(f *Fst) fstSnapshot {
	s := fstSnapshot{
		Start:  f.Start(),
		Finals: map[int32]float64{},
		Arcs:   map[int32][]Arc{},
	}
	for st := int32(0); int(st) < f.NumStates(); st++ {
		if f.IsFinal(st) {
			s.Finals[st] = f.Final(st)
		}
		if arcs := f.Arcs(st); len(arcs) > 0 {
			s.Arcs[st] = append([]Arc(nil), arcs...)
		}
	}
	return s
}
