// Package planner turns declarative job specs into stream graphs.
//
// A job spec names its inputs, a list of filter operations wired together
// by stream references, and the outputs to write. Operations may be listed
// in any order; the planner orders them by their references and rejects
// reference cycles.
package planner

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/chicogong/ffgraph/pkg/filters"
	"github.com/chicogong/ffgraph/pkg/graph"
	"github.com/chicogong/ffgraph/pkg/schemas"
)

// Plan is the stream graph built from a job spec
type Plan struct {
	JobID string
	// Root is the node to compile: an output, merge or global node
	Root graph.Node
	// Inputs by input ID
	Inputs map[string]*graph.InputNode
	// Outputs in spec order
	Outputs []*graph.OutputNode
	// Order lists operation indexes in dependency order
	Order []int
	// Stages groups operations whose dependencies all sit in earlier stages
	Stages [][]int
	// Unused lists operation outputs nothing consumes. They are not part of
	// the graph.
	Unused []string
}

// Planner creates stream graphs from job specifications
type Planner struct {
	catalogue       graph.Catalogue
	builder         *graph.Builder
	strict          bool
	validateOptions bool
	media           map[string]*schemas.MediaInfo
	logger          logr.Logger
}

// Option configures a Planner
type Option func(*Planner)

// WithCatalogue sets the filter catalogue. Defaults to the global registry.
func WithCatalogue(cat graph.Catalogue) Option {
	return func(p *Planner) {
		p.catalogue = cat
	}
}

// WithStrictFilters rejects operations the catalogue does not know
func WithStrictFilters() Option {
	return func(p *Planner) {
		p.strict = true
	}
}

// WithOptionValidation checks operation params against the catalogue
func WithOptionValidation() Option {
	return func(p *Planner) {
		p.validateOptions = true
	}
}

// WithMediaInfo supplies probe results by input ID, so that references to
// missing video or audio streams are caught while planning
func WithMediaInfo(info map[string]*schemas.MediaInfo) Option {
	return func(p *Planner) {
		p.media = info
	}
}

// WithLogger sets the logger
func WithLogger(logger logr.Logger) Option {
	return func(p *Planner) {
		p.logger = logger
	}
}

// NewPlanner creates a planner
func NewPlanner(opts ...Option) *Planner {
	p := &Planner{
		catalogue: filters.GlobalRegistry(),
		logger:    logr.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}

	var bopts []graph.BuilderOption
	if p.validateOptions {
		bopts = append(bopts, graph.WithOptionValidation())
	}
	p.builder = graph.NewBuilder(p.catalogue, bopts...)
	return p
}

// terminal is a node that global flags and merges can wrap
type terminal interface {
	graph.Node
	Stream() graph.Stream
}

// Plan builds the stream graph of spec
func (p *Planner) Plan(ctx context.Context, spec *schemas.JobSpec) (*Plan, error) {
	if spec == nil {
		return nil, fmt.Errorf("JobSpec cannot be nil")
	}
	if err := checkSpec(spec); err != nil {
		return nil, fmt.Errorf("invalid job spec: %w", err)
	}

	// Step 1: Create input nodes
	inputs := make(map[string]*graph.InputNode, len(spec.Inputs))
	for i, in := range spec.Inputs {
		n, err := graph.Input(in.Source, inputOptions(in)...)
		if err != nil {
			return nil, fmt.Errorf("input %d (%s): %w", i, in.ID, err)
		}
		inputs[in.ID] = n
	}

	// Step 2: Resolve references and order operations
	names := newNameTable(spec, inputs)
	refs, err := names.parseOperations(spec.Operations)
	if err != nil {
		return nil, err
	}
	order, stages, err := orderOperations(spec.Operations, refs)
	if err != nil {
		return nil, err
	}

	// Step 3: Build filter nodes in dependency order
	built := make([]*graph.FilterNode, len(spec.Operations))
	for _, i := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := p.buildOperation(spec.Operations[i], refs[i], names, built)
		if err != nil {
			return nil, fmt.Errorf("operation %d (%s): %w", i, spec.Operations[i].Op, err)
		}
		built[i] = f
	}

	// Step 4: Create output nodes
	plan := &Plan{JobID: spec.JobID, Inputs: inputs, Order: order, Stages: stages}
	for i, out := range spec.Outputs {
		n, err := p.buildOutput(out, names, built)
		if err != nil {
			return nil, fmt.Errorf("output %d (%s): %w", i, out.ID, err)
		}
		plan.Outputs = append(plan.Outputs, n)
	}

	// Step 5: Wrap with merge and global flags
	root, err := wrapRoot(spec, plan.Outputs)
	if err != nil {
		return nil, err
	}
	plan.Root = root

	plan.Unused = names.unused()
	for _, name := range plan.Unused {
		p.logger.Info("operation output is never used", "job", spec.JobID, "stream", name)
	}
	p.logger.V(1).Info("planned job", "job", spec.JobID, "operations", len(order), "stages", len(stages))
	return plan, nil
}

func (p *Planner) buildOperation(op schemas.Operation, refs []reference, names *nameTable, built []*graph.FilterNode) (*graph.FilterNode, error) {
	params, err := op.Params.Normalize()
	if err != nil {
		return nil, err
	}

	var ports graph.Typing
	if d, ok := p.lookup(op.Op); ok {
		if ports, _, err = d.Typing(params); err != nil {
			return nil, err
		}
	} else if p.strict {
		return nil, fmt.Errorf("operator '%s' not found", op.Op)
	}

	streams := make([]graph.Stream, len(refs))
	for slot, ref := range refs {
		// bare input references take the media type of the port consuming them
		want := ports.Port(slot)
		if ref.isInput() && ref.sel == "" && want != "" {
			ref.sel = want
		}
		if ref.isInput() {
			if err := p.checkMedia(ref.input, ref.sel); err != nil {
				return nil, err
			}
		}
		if streams[slot], err = names.stream(ref, built); err != nil {
			return nil, err
		}
	}

	f, err := p.builder.Filter(op.Op, streams, params...)
	if err != nil {
		return nil, err
	}

	outs := f.OutputTyping().Len()
	if declared := len(op.OutputNames()); outs >= 0 && declared > outs {
		return nil, fmt.Errorf("declares %d outputs but %s has %d", declared, op.Op, outs)
	}
	return f, nil
}

func (p *Planner) buildOutput(out schemas.Output, names *nameTable, built []*graph.FilterNode) (*graph.OutputNode, error) {
	refs := out.Streams
	if len(refs) == 0 {
		refs = []string{out.ID}
	}

	streams := make([]graph.Stream, len(refs))
	for i, raw := range refs {
		ref, err := names.parse(raw)
		if err != nil {
			return nil, err
		}
		if ref.isInput() {
			if err := p.checkMedia(ref.input, ref.sel); err != nil {
				return nil, err
			}
		}
		if streams[i], err = names.stream(ref, built); err != nil {
			return nil, err
		}
	}

	var opts schemas.Params
	if out.Format != "" {
		opts = append(opts, schemas.Param{Key: "f", Value: out.Format})
	}
	opts = append(opts, out.Codec.Params()...)
	opts = append(opts, out.Options...)
	return graph.Output(out.Destination, streams, opts...)
}

func (p *Planner) lookup(name string) (*filters.Descriptor, bool) {
	if p.catalogue == nil {
		return nil, false
	}
	return p.catalogue.Lookup(name)
}

// inputOptions places format and trimming flags before user options, so
// user options win on conflict
func inputOptions(in schemas.Input) schemas.Params {
	var opts schemas.Params
	if in.Format != "" {
		opts = append(opts, schemas.Param{Key: "f", Value: in.Format})
	}
	if in.StartOffset != nil {
		opts = append(opts, schemas.Param{Key: "ss", Value: in.StartOffset.FormatSeconds()})
	}
	if in.Duration != nil {
		opts = append(opts, schemas.Param{Key: "t", Value: in.Duration.FormatSeconds()})
	}
	return append(opts, in.Options...)
}

func wrapRoot(spec *schemas.JobSpec, outputs []*graph.OutputNode) (graph.Node, error) {
	var root terminal = outputs[0]
	if len(outputs) > 1 {
		m, err := graph.MergeOutputs(outputs...)
		if err != nil {
			return nil, err
		}
		root = m
	}

	if len(spec.GlobalArgs) > 0 || len(spec.GlobalOptions) > 0 {
		g, err := graph.Global(root.Stream(), graph.OpGlobalArgs, spec.GlobalArgs, spec.GlobalOptions...)
		if err != nil {
			return nil, fmt.Errorf("global options: %w", err)
		}
		root = g
	}
	if spec.Overwrite {
		g, err := graph.Overwrite(root.Stream())
		if err != nil {
			return nil, err
		}
		root = g
	}
	return root, nil
}
