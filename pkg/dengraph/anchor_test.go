package dengraph

import (
	"context"
	"sync"
	"testing"

	"github.com/gosperisland/dengraph/pkg/errors"
	"github.com/gosperisland/dengraph/pkg/fst"
	"github.com/gosperisland/dengraph/pkg/observability"
)

func TestNumStatesThatCanReach(t *testing.T) {
	t.Run("strongly connected", func(t *testing.T) {
		reverse := ReverseAdjacency(cycleFst(t, 6))
		for s := int32(0); s < 6; s++ {
			if got := NumStatesThatCanReach(reverse, s); got != 6 {
				t.Errorf("NumStatesThatCanReach(%d) = %d, want 6", s, got)
			}
		}
	})

	t.Run("linear chain", func(t *testing.T) {
		reverse := ReverseAdjacency(chainFst(t))
		tests := []struct {
			target int32
			want   int
		}{
			{0, 1},
			{1, 2},
			{2, 3},
		}
		for _, tt := range tests {
			if got := NumStatesThatCanReach(reverse, tt.target); got != tt.want {
				t.Errorf("NumStatesThatCanReach(%d) = %d, want %d", tt.target, got, tt.want)
			}
		}
	})
}

func TestNumStatesThatCanReachPanicsOutOfRange(t *testing.T) {
	reverse := ReverseAdjacency(chainFst(t))
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range target")
		}
	}()
	NumStatesThatCanReach(reverse, 3)
}

// anchorRecorder captures anchor-selection events for assertions.
type anchorRecorder struct {
	observability.NoopBuildHooks

	mu       sync.Mutex
	rejected []int32
	selected int32
}

func (r *anchorRecorder) OnAnchorCandidateRejected(_ context.Context, state int32, _, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected = append(r.rejected, state)
}

func (r *anchorRecorder) OnAnchorSelected(_ context.Context, state int32, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selected = state
}

func TestSelectAnchorSkipsUnreachableCandidates(t *testing.T) {
	rec := &anchorRecorder{}
	observability.SetBuildHooks(rec)
	t.Cleanup(observability.Reset)

	// Hub automaton: every other state feeds state 1, state 2 feeds nothing
	// but carries the highest probability. The scan must reject 2 and settle
	// on 1.
	f := fst.New()
	for i := 0; i < 4; i++ {
		f.AddState()
	}
	f.SetStart(0)
	f.AddArc(0, fst.Arc{Label: 1, Weight: 0, Next: 1})
	f.AddArc(1, fst.Arc{Label: 1, Weight: 0, Next: 0})
	f.AddArc(2, fst.Arc{Label: 1, Weight: 0, Next: 1})
	f.AddArc(3, fst.Arc{Label: 1, Weight: 0, Next: 1})

	probs := []float64{0.1, 0.3, 0.4, 0.2}
	anchor, err := selectAnchor(context.Background(), ReverseAdjacency(f), probs, 0.75)
	if err != nil {
		t.Fatalf("selectAnchor() error: %v", err)
	}
	if anchor != 1 {
		t.Errorf("anchor = %d, want 1", anchor)
	}
	if len(rec.rejected) != 1 || rec.rejected[0] != 2 {
		t.Errorf("rejected = %v, want [2]", rec.rejected)
	}
	if rec.selected != 1 {
		t.Errorf("selected hook got %d, want 1", rec.selected)
	}
}

func TestSelectAnchorFragmented(t *testing.T) {
	// Two disjoint two-state components; no state is reachable from three of
	// the four states.
	f := fst.New()
	for i := 0; i < 4; i++ {
		f.AddState()
	}
	f.SetStart(0)
	f.AddArc(0, fst.Arc{Label: 1, Weight: 0, Next: 1})
	f.AddArc(2, fst.Arc{Label: 1, Weight: 0, Next: 3})

	probs := []float64{0.25, 0.25, 0.25, 0.25}
	_, err := selectAnchor(context.Background(), ReverseAdjacency(f), probs, 0.75)
	if !errors.Is(err, errors.ErrCodeNoAnchorState) {
		t.Fatalf("selectAnchor() = %v, want NO_ANCHOR_STATE", err)
	}
}
