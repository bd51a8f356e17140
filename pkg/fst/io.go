package fst

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/gosperisland/dengraph/pkg/errors"
)

// =============================================================================
// Text Format
// =============================================================================
//
// The upstream automaton pipeline emits acceptors in a line-oriented text
// format:
//
//	src dst label [weight]     arc (weight defaults to 0)
//	state [weight]             final state (weight defaults to 0)
//
// The source state of the first line is the start state. States referenced by
// any line are created implicitly, so the state count is 1 + the largest index
// mentioned. Lines starting with '#' and blank lines are ignored.

// ReadTextFile reads a text-format automaton from path.
func ReadTextFile(path string) (*Fst, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadText(f)
}

// ReadText decodes a text-format automaton from r.
func ReadText(r io.Reader) (*Fst, error) {
	f := New()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch len(fields) {
		case 1, 2:
			// Final state line: "state [weight]".
			s, err := parseState(fields[0], lineNo)
			if err != nil {
				return nil, err
			}
			weight := 0.0
			if len(fields) == 2 {
				if weight, err = parseWeight(fields[1], lineNo); err != nil {
					return nil, err
				}
			}
			f.ensureState(s)
			f.SetFinal(s, weight)
		case 3, 4:
			// Arc line: "src dst label [weight]".
			src, err := parseState(fields[0], lineNo)
			if err != nil {
				return nil, err
			}
			dst, err := parseState(fields[1], lineNo)
			if err != nil {
				return nil, err
			}
			label, err := parseState(fields[2], lineNo)
			if err != nil {
				return nil, err
			}
			weight := 0.0
			if len(fields) == 4 {
				if weight, err = parseWeight(fields[3], lineNo); err != nil {
					return nil, err
				}
			}
			f.ensureState(src)
			f.ensureState(dst)
			f.AddArc(src, Arc{Label: label, Weight: weight, Next: dst})
			if f.Start() == NoState {
				f.SetStart(src)
			}
		default:
			return nil, errors.New(errors.ErrCodeInvalidFormat,
				"line %d: expected 1-4 fields, got %d", lineNo, len(fields))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	if f.NumStates() == 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "automaton text contains no states")
	}
	return f, nil
}

// WriteTextFile writes the automaton to path in text format.
func WriteTextFile(f *Fst, path string) error {
	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer w.Close()
	return WriteText(f, w)
}

// WriteText encodes the automaton to w in text format. Arcs of the start
// state are written first so the format's start-state convention round-trips.
func WriteText(f *Fst, w io.Writer) error {
	bw := bufio.NewWriter(w)
	order := make([]int32, 0, f.NumStates())
	if f.Start() != NoState {
		order = append(order, f.Start())
	}
	for s := int32(0); int(s) < f.NumStates(); s++ {
		if s != f.Start() {
			order = append(order, s)
		}
	}
	for _, s := range order {
		for _, a := range f.Arcs(s) {
			if _, err := fmt.Fprintf(bw, "%d\t%d\t%d\t%s\n", s, a.Next, a.Label, formatWeight(a.Weight)); err != nil {
				return err
			}
		}
	}
	for _, s := range order {
		if f.IsFinal(s) {
			if _, err := fmt.Fprintf(bw, "%d\t%s\n", s, formatWeight(f.Final(s))); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

func (f *Fst) ensureState(s int32) {
	for int(s) >= f.NumStates() {
		f.AddState()
	}
}

func parseState(field string, line int) (int32, error) {
	v, err := strconv.ParseInt(field, 10, 32)
	if err != nil || v < 0 {
		return 0, errors.New(errors.ErrCodeInvalidFormat, "line %d: invalid state or label %q", line, field)
	}
	return int32(v), nil
}

func parseWeight(field string, line int) (float64, error) {
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidFormat, "line %d: invalid weight %q", line, field)
	}
	return v, nil
}

func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'g', -1, 64)
}

// =============================================================================
// JSON Format
// =============================================================================
//
// The JSON format is the canonical serialization used for caching and
// artifact export. It is designed for round-trip fidelity: read → transform →
// write → re-read produces identical automata.

type fstJSON struct {
	NumStates int         `json:"num_states"`
	Start     int32       `json:"start"`
	Finals    []finalJSON `json:"finals,omitempty"`
	Arcs      []arcJSON   `json:"arcs"`
}

type finalJSON struct {
	State  int32   `json:"state"`
	Weight float64 `json:"weight"`
}

type arcJSON struct {
	From   int32   `json:"from"`
	To     int32   `json:"to"`
	Label  int32   `json:"label"`
	Weight float64 `json:"weight,omitempty"`
}

// Marshal converts an automaton to JSON bytes.
func Marshal(f *Fst) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteJSON(f, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a JSON automaton.
func Unmarshal(data []byte) (*Fst, error) {
	return ReadJSON(bytes.NewReader(data))
}

// WriteJSON encodes the automaton as JSON to w.
func WriteJSON(f *Fst, w io.Writer) error {
	out := fstJSON{
		NumStates: f.NumStates(),
		Start:     f.Start(),
	}
	for s := int32(0); int(s) < f.NumStates(); s++ {
		if f.IsFinal(s) {
			out.Finals = append(out.Finals, finalJSON{State: s, Weight: f.Final(s)})
		}
		for _, a := range f.Arcs(s) {
			out.Arcs = append(out.Arcs, arcJSON{From: s, To: a.Next, Label: a.Label, Weight: a.Weight})
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadJSON decodes a JSON automaton from r.
func ReadJSON(r io.Reader) (*Fst, error) {
	var data fstJSON
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode automaton")
	}
	if data.NumStates <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "num_states must be positive, got %d", data.NumStates)
	}

	f := New()
	for i := 0; i < data.NumStates; i++ {
		f.AddState()
	}
	if data.Start < 0 || int(data.Start) >= data.NumStates {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "start state %d out of range", data.Start)
	}
	f.SetStart(data.Start)
	for _, fin := range data.Finals {
		if fin.State < 0 || int(fin.State) >= data.NumStates {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "final state %d out of range", fin.State)
		}
		if math.IsInf(fin.Weight, 1) {
			continue
		}
		f.SetFinal(fin.State, fin.Weight)
	}
	for _, a := range data.Arcs {
		if a.From < 0 || int(a.From) >= data.NumStates || a.To < 0 || int(a.To) >= data.NumStates {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "arc %d→%d references unknown state", a.From, a.To)
		}
		f.AddArc(a.From, Arc{Label: a.Label, Weight: a.Weight, Next: a.To})
	}
	return f, nil
}
