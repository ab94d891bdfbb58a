package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/chicogong/ffgraph/pkg/graph"
	"github.com/chicogong/ffgraph/pkg/schemas"
)

// ParseSpec decodes a job spec from JSON or YAML. Unknown fields are
// rejected.
func ParseSpec(data []byte) (*schemas.JobSpec, error) {
	var spec schemas.JobSpec
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("job spec is empty")
	}

	if trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&spec); err != nil {
			return nil, fmt.Errorf("failed to parse job spec: %w", err)
		}
		return &spec, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(trimmed))
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("failed to parse job spec: %w", err)
	}
	return &spec, nil
}

// IsGraphDocument reports whether data is a serialized graph rather than a
// job spec
func IsGraphDocument(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &top); err != nil {
		return false
	}
	_, ok := top["__kind__"]
	return ok
}

// Load returns the graph of a document that is either a serialized graph
// or a job spec
func (p *Planner) Load(ctx context.Context, data []byte) (graph.Node, error) {
	if IsGraphDocument(data) {
		return graph.Unmarshal(data)
	}
	spec, err := ParseSpec(data)
	if err != nil {
		return nil, err
	}
	plan, err := p.Plan(ctx, spec)
	if err != nil {
		return nil, err
	}
	return plan.Root, nil
}

// checkSpec validates the structure of a job spec: required fields, unique
// names and reference syntax. References themselves are resolved later.
func checkSpec(spec *schemas.JobSpec) error {
	if len(spec.Inputs) == 0 {
		return fmt.Errorf("JobSpec must have at least one input")
	}
	if len(spec.Outputs) == 0 {
		return fmt.Errorf("JobSpec must have at least one output")
	}

	var errs error
	names := make(map[string]string)
	define := func(name, owner string) {
		switch {
		case name == "":
			errs = multierr.Append(errs, fmt.Errorf("%s: name is required", owner))
		case strings.Contains(name, ":"):
			errs = multierr.Append(errs, fmt.Errorf("%s: name '%s' must not contain ':'", owner, name))
		case names[name] != "":
			errs = multierr.Append(errs, fmt.Errorf("%s: name '%s' already defined by %s", owner, name, names[name]))
		default:
			names[name] = owner
		}
	}

	for i, in := range spec.Inputs {
		owner := fmt.Sprintf("input %d", i)
		define(in.ID, owner)
		if in.Source == "" {
			errs = multierr.Append(errs, fmt.Errorf("%s: source is required", owner))
		}
	}

	for i, op := range spec.Operations {
		owner := fmt.Sprintf("operation %d (%s)", i, op.Op)
		if op.Op == "" {
			errs = multierr.Append(errs, fmt.Errorf("operation %d: op is required", i))
		}
		if len(op.InputRefs()) == 0 {
			errs = multierr.Append(errs, fmt.Errorf("%s: at least one input is required", owner))
		}
		if len(op.OutputNames()) == 0 {
			errs = multierr.Append(errs, fmt.Errorf("%s: at least one output name is required", owner))
		}
		for _, name := range op.OutputNames() {
			define(name, owner)
		}
	}

	outputs := make(map[string]bool)
	for i, out := range spec.Outputs {
		switch {
		case out.ID == "":
			errs = multierr.Append(errs, fmt.Errorf("output %d: id is required", i))
		case outputs[out.ID]:
			errs = multierr.Append(errs, fmt.Errorf("output %d: duplicate id '%s'", i, out.ID))
		}
		outputs[out.ID] = true
		if out.Destination == "" {
			errs = multierr.Append(errs, fmt.Errorf("output %d (%s): destination is required", i, out.ID))
		}
	}
	return errs
}
