package planner

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/chicogong/ffgraph/pkg/graph"
	"github.com/chicogong/ffgraph/pkg/schemas"
)

// reference is a parsed stream reference. It names either an input (with
// an optional media selector) or a pin of an operation.
type reference struct {
	raw   string
	input string
	sel   schemas.MediaType
	op    int
	pin   int
}

func (r reference) isInput() bool { return r.input != "" }

type producer struct {
	op  int
	pin int
}

// nameTable maps the names a job spec defines to inputs and operation pins
type nameTable struct {
	inputs   map[string]*graph.InputNode
	produced map[string]producer
	order    []string
	used     map[string]bool
}

func newNameTable(spec *schemas.JobSpec, inputs map[string]*graph.InputNode) *nameTable {
	t := &nameTable{
		inputs:   inputs,
		produced: make(map[string]producer),
		used:     make(map[string]bool),
	}
	for i, op := range spec.Operations {
		for pin, name := range op.OutputNames() {
			t.produced[name] = producer{op: i, pin: pin}
			t.order = append(t.order, name)
		}
	}
	return t
}

// parse resolves one reference:
//
//	main      input main, all streams
//	main:v    video of input main (also "a", "video", "audio")
//	trimmed   the stream an operation named "trimmed"
//	parts:1   pin 1 of the operation that named a stream "parts"
func (t *nameTable) parse(raw string) (reference, error) {
	if _, ok := t.inputs[raw]; ok {
		return reference{raw: raw, input: raw}, nil
	}
	if p, ok := t.produced[raw]; ok {
		t.used[raw] = true
		return reference{raw: raw, op: p.op, pin: p.pin}, nil
	}

	base, suffix, found := cut(raw)
	if !found {
		return reference{}, fmt.Errorf("reference '%s' not found", raw)
	}
	if _, ok := t.inputs[base]; ok {
		sel, err := schemas.ParseMediaType(suffix)
		if err != nil {
			return reference{}, fmt.Errorf("reference '%s': %w", raw, err)
		}
		return reference{raw: raw, input: base, sel: sel}, nil
	}
	if p, ok := t.produced[base]; ok {
		pin, err := strconv.Atoi(suffix)
		if err != nil || pin < 0 {
			return reference{}, fmt.Errorf("reference '%s': pin must be a non-negative integer", raw)
		}
		t.markPin(p.op, pin)
		return reference{raw: raw, op: p.op, pin: pin}, nil
	}
	return reference{}, fmt.Errorf("reference '%s' not found", raw)
}

// cut splits raw at its last colon
func cut(raw string) (base, suffix string, found bool) {
	i := strings.LastIndex(raw, ":")
	if i < 0 {
		return raw, "", false
	}
	return raw[:i], raw[i+1:], true
}

// markPin marks the name of an addressed pin as used
func (t *nameTable) markPin(op, pin int) {
	for name, p := range t.produced {
		if p.op == op && p.pin == pin {
			t.used[name] = true
		}
	}
}

// parseOperations parses every operation's input references, reporting all
// unresolved references at once
func (t *nameTable) parseOperations(ops []schemas.Operation) ([][]reference, error) {
	refs := make([][]reference, len(ops))
	var errs error
	for i, op := range ops {
		for _, raw := range op.InputRefs() {
			ref, err := t.parse(raw)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("operation %d (%s): %w", i, op.Op, err))
				continue
			}
			refs[i] = append(refs[i], ref)
		}
	}
	return refs, errs
}

// stream returns the graph stream a reference points at. Operations must
// be built before anything referencing them.
func (t *nameTable) stream(ref reference, built []*graph.FilterNode) (graph.Stream, error) {
	if ref.isInput() {
		in := t.inputs[ref.input]
		if ref.sel == "" {
			return in.Stream(), nil
		}
		return in.Select(ref.sel), nil
	}

	f := built[ref.op]
	if f == nil {
		return graph.Stream{}, fmt.Errorf("reference '%s': operation %d is not built", ref.raw, ref.op)
	}
	s, err := f.Stream(ref.pin)
	if err != nil {
		return graph.Stream{}, fmt.Errorf("reference '%s': %w", ref.raw, err)
	}
	return s, nil
}

// unused returns operation outputs never referenced, in spec order
func (t *nameTable) unused() []string {
	var out []string
	for _, name := range t.order {
		if !t.used[name] {
			out = append(out, name)
		}
	}
	return out
}
