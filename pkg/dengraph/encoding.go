package dengraph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/gosperisland/dengraph/pkg/errors"
)

// The JSON artifact format ships a finished denominator graph between the
// build step and training workers (directly or through the artifact cache).
// It is a faithful dump of the flat arrays; decoding validates the layout
// invariants before handing the graph to readers that index without checks.

type graphJSON struct {
	NumStates    int              `json:"num_states"`
	NumOutputs   int              `json:"num_outputs"`
	AnchorState  int32            `json:"anchor_state"`
	InitialProbs []float64        `json:"initial_probs"`
	Transitions  []transitionJSON `json:"transitions"`
	Forward      []rangeJSON      `json:"forward"`
	Backward     []rangeJSON      `json:"backward"`
}

type transitionJSON struct {
	Prob     float64 `json:"prob"`
	OutputID int32   `json:"output_id"`
	State    int32   `json:"state"`
}

type rangeJSON struct {
	First int32 `json:"first"`
	Last  int32 `json:"last"`
}

// Marshal converts a denominator graph to JSON bytes.
func Marshal(g *DenominatorGraph) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteJSON(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a JSON denominator-graph artifact, validating the
// layout invariants.
func Unmarshal(data []byte) (*DenominatorGraph, error) {
	return ReadJSON(bytes.NewReader(data))
}

// WriteJSON encodes the denominator graph as JSON to w.
func WriteJSON(g *DenominatorGraph, w io.Writer) error {
	out := graphJSON{
		NumStates:    g.numStates,
		NumOutputs:   g.numOutputs,
		AnchorState:  g.anchorState,
		InitialProbs: g.initialProbs,
		Transitions:  make([]transitionJSON, len(g.transitions)),
		Forward:      make([]rangeJSON, len(g.forward)),
		Backward:     make([]rangeJSON, len(g.backward)),
	}
	for i, tr := range g.transitions {
		out.Transitions[i] = transitionJSON{Prob: tr.Prob, OutputID: tr.OutputID, State: tr.State}
	}
	for i, r := range g.forward {
		out.Forward[i] = rangeJSON{First: r.First, Last: r.Last}
	}
	for i, r := range g.backward {
		out.Backward[i] = rangeJSON{First: r.First, Last: r.Last}
	}

	enc := json.NewEncoder(w)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadJSON decodes a JSON denominator-graph artifact from r.
func ReadJSON(r io.Reader) (*DenominatorGraph, error) {
	var data graphJSON
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode denominator graph")
	}
	if data.NumStates <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "num_states must be positive, got %d", data.NumStates)
	}
	if len(data.InitialProbs) != data.NumStates ||
		len(data.Forward) != data.NumStates ||
		len(data.Backward) != data.NumStates {
		return nil, errors.New(errors.ErrCodeInvalidFormat,
			"array lengths (%d probs, %d forward, %d backward) do not match num_states %d",
			len(data.InitialProbs), len(data.Forward), len(data.Backward), data.NumStates)
	}
	if data.AnchorState < 0 || int(data.AnchorState) >= data.NumStates {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "anchor state %d out of range", data.AnchorState)
	}

	g := &DenominatorGraph{
		numStates:    data.NumStates,
		numOutputs:   data.NumOutputs,
		anchorState:  data.AnchorState,
		initialProbs: data.InitialProbs,
		transitions:  make([]Transition, len(data.Transitions)),
		forward:      make([]StateRange, data.NumStates),
		backward:     make([]StateRange, data.NumStates),
	}
	for i, tr := range data.Transitions {
		g.transitions[i] = Transition{Prob: tr.Prob, OutputID: tr.OutputID, State: tr.State}
	}
	n := int32(len(g.transitions))
	for i, r := range data.Forward {
		if r.First < 0 || r.Last < r.First || r.Last > n {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "forward range %d [%d, %d) out of bounds", i, r.First, r.Last)
		}
		g.forward[i] = StateRange{First: r.First, Last: r.Last}
	}
	for i, r := range data.Backward {
		if r.First < 0 || r.Last < r.First || r.Last > n {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "backward range %d [%d, %d) out of bounds", i, r.First, r.Last)
		}
		g.backward[i] = StateRange{First: r.First, Last: r.Last}
	}
	return g, nil
}
