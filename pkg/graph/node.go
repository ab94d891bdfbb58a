package graph

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/chicogong/ffgraph/pkg/filters"
	"github.com/chicogong/ffgraph/pkg/schemas"
)

// Kind identifies a node variant
type Kind string

const (
	KindInput  Kind = "Input"
	KindFilter Kind = "Filter"
	KindOutput Kind = "Output"
	KindGlobal Kind = "Global"
	KindMerge  Kind = "MergeOutputs"
)

// Option and Options are the keyword options carried by nodes
type (
	Option  = schemas.Param
	Options = schemas.Params
)

// Typing is the port typing of a filter's inputs or outputs
type Typing = filters.PortSpec

// Opt builds a single option
func Opt(key string, value interface{}) Option {
	return Option{Key: key, Value: value}
}

// Opts builds options from alternating keys and values. It panics when
// given an odd number of arguments or a non-string key.
func Opts(kv ...interface{}) Options {
	if len(kv)%2 != 0 {
		panic("graph.Opts: odd number of arguments")
	}
	out := make(Options, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("graph.Opts: key %v is not a string", kv[i]))
		}
		out = append(out, Option{Key: key, Value: kv[i+1]})
	}
	return out
}

// Node is a vertex of the stream graph. Nodes are immutable values: two
// nodes with the same fields are equal and interchangeable, whatever their
// address.
type Node interface {
	Kind() Kind
	// Inputs returns the streams the node consumes, in slot order
	Inputs() []Stream
	// Hash returns the structural hash computed at construction
	Hash() Hash
	String() string

	sealed()
}

// Equal reports whether two nodes are structurally equal
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Hash() == b.Hash()
}

// InputNode is a source file
type InputNode struct {
	filename string
	options  Options
	hash     Hash
}

// Input creates a source node reading filename
func Input(filename string, opts ...Option) (*InputNode, error) {
	if filename == "" {
		return nil, constructionErrorf("input", "filename must not be empty")
	}
	norm, err := Options(opts).Normalize()
	if err != nil {
		return nil, constructionErrorf("input "+filename, "%v", err)
	}

	n := &InputNode{filename: filename, options: norm}
	w := newHasher(KindInput)
	w.str(filename)
	w.options(norm)
	n.hash = w.sum()
	return n, nil
}

// MustInput is like Input but panics on error
func MustInput(filename string, opts ...Option) *InputNode {
	n, err := Input(filename, opts...)
	if err != nil {
		panic(err)
	}
	return n
}

func (n *InputNode) Kind() Kind { return KindInput }
func (n *InputNode) Inputs() []Stream { return nil }
func (n *InputNode) Hash() Hash { return n.hash }
func (n *InputNode) Filename() string { return n.filename }
func (n *InputNode) Options() Options { return cloneOptions(n.options) }
func (n *InputNode) String() string { return fmt.Sprintf("Input(%s)", n.filename) }
func (n *InputNode) sealed() {}

// Stream returns the input's implicit pin with no media selector
func (n *InputNode) Stream() Stream { return Stream{node: n} }

// Video selects the input's video streams ([N:v])
func (n *InputNode) Video() Stream { return n.Select(schemas.MediaTypeVideo) }

// Audio selects the input's audio streams ([N:a])
func (n *InputNode) Audio() Stream { return n.Select(schemas.MediaTypeAudio) }

// Select returns the input pin restricted to media type t
func (n *InputNode) Select(t schemas.MediaType) Stream {
	return Stream{node: n, selector: t}
}

// FilterNode applies one named filter to its input streams
type FilterNode struct {
	name      string
	options   Options
	inputs    []Stream
	inTyping  Typing
	outTyping Typing
	hash      Hash
}

// newFilter checks the inputs against the given typings and builds the
// node. Options must already be normalised.
func newFilter(name string, opts Options, inputs []Stream, in, out Typing) (*FilterNode, error) {
	if name == "" {
		return nil, constructionErrorf("filter", "name must not be empty")
	}

	var errs error
	for i, s := range inputs {
		if err := checkFilterSource(name, i, s); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		return nil, errs
	}

	if !in.Dynamic {
		if len(inputs) != len(in.Ports) {
			return nil, constructionErrorf(name, "expected %d inputs, got %d", len(in.Ports), len(inputs))
		}
		for i, s := range inputs {
			if got := s.Type(); got != "" && got != in.Ports[i] {
				errs = multierr.Append(errs, constructionErrorf(name, "input %d: expected %s stream, got %s", i, in.Ports[i], got))
			}
		}
		if errs != nil {
			return nil, errs
		}
	}

	n := &FilterNode{
		name:      name,
		options:   opts,
		inputs:    append([]Stream(nil), inputs...),
		inTyping:  cloneTyping(in),
		outTyping: cloneTyping(out),
	}
	w := newHasher(KindFilter)
	w.str(name)
	w.options(opts)
	w.streams(n.inputs)
	w.typing(n.inTyping)
	w.typing(n.outTyping)
	n.hash = w.sum()
	return n, nil
}

// checkFilterSource rejects streams a filter cannot consume
func checkFilterSource(name string, slot int, s Stream) error {
	switch src := s.node.(type) {
	case nil:
		return constructionErrorf(name, "input %d: empty stream", slot)
	case *InputNode:
		return nil
	case *FilterNode:
		if s.index < 0 || (!src.outTyping.Dynamic && s.index >= len(src.outTyping.Ports)) {
			return constructionErrorf(name, "input %d: %s has no output %d", slot, src, s.index)
		}
		return nil
	default:
		return constructionErrorf(name, "input %d: cannot consume %s", slot, s.node)
	}
}

func (n *FilterNode) Kind() Kind { return KindFilter }
func (n *FilterNode) Inputs() []Stream { return append([]Stream(nil), n.inputs...) }
func (n *FilterNode) Hash() Hash { return n.hash }
func (n *FilterNode) Name() string { return n.name }
func (n *FilterNode) Options() Options { return cloneOptions(n.options) }
func (n *FilterNode) InputTyping() Typing { return cloneTyping(n.inTyping) }
func (n *FilterNode) OutputTyping() Typing { return cloneTyping(n.outTyping) }
func (n *FilterNode) String() string { return fmt.Sprintf("Filter(%s)", n.name) }
func (n *FilterNode) sealed() {}

// Stream returns output pin i
func (n *FilterNode) Stream(i int) (Stream, error) {
	if i < 0 || (!n.outTyping.Dynamic && i >= len(n.outTyping.Ports)) {
		return Stream{}, constructionErrorf(n.name, "output %d out of range (filter has %d outputs)", i, n.outTyping.Len())
	}
	return Stream{node: n, index: i}, nil
}

// MustStream is like Stream but panics on error
func (n *FilterNode) MustStream(i int) Stream {
	s, err := n.Stream(i)
	if err != nil {
		panic(err)
	}
	return s
}

// Out returns output pin 0, the only pin of most filters
func (n *FilterNode) Out() Stream {
	return n.MustStream(0)
}

// OutputNode writes its input streams to a file
type OutputNode struct {
	filename string
	options  Options
	inputs   []Stream
	hash     Hash
}

// Output creates a sink writing the given streams to filename
func Output(filename string, inputs []Stream, opts ...Option) (*OutputNode, error) {
	if filename == "" {
		return nil, constructionErrorf("output", "filename must not be empty")
	}
	if len(inputs) == 0 {
		return nil, constructionErrorf("output "+filename, "at least one input stream is required")
	}
	var errs error
	for i, s := range inputs {
		if err := checkFilterSource("output "+filename, i, s); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		return nil, errs
	}
	norm, err := Options(opts).Normalize()
	if err != nil {
		return nil, constructionErrorf("output "+filename, "%v", err)
	}

	n := &OutputNode{filename: filename, options: norm, inputs: append([]Stream(nil), inputs...)}
	w := newHasher(KindOutput)
	w.str(filename)
	w.options(norm)
	w.streams(n.inputs)
	n.hash = w.sum()
	return n, nil
}

// MustOutput is like Output but panics on error
func MustOutput(filename string, inputs []Stream, opts ...Option) *OutputNode {
	n, err := Output(filename, inputs, opts...)
	if err != nil {
		panic(err)
	}
	return n
}

func (n *OutputNode) Kind() Kind { return KindOutput }
func (n *OutputNode) Inputs() []Stream { return append([]Stream(nil), n.inputs...) }
func (n *OutputNode) Hash() Hash { return n.hash }
func (n *OutputNode) Filename() string { return n.filename }
func (n *OutputNode) Options() Options { return cloneOptions(n.options) }
func (n *OutputNode) String() string { return fmt.Sprintf("Output(%s)", n.filename) }
func (n *OutputNode) sealed() {}

// Stream returns the reference consumed by Global and Merge nodes
func (n *OutputNode) Stream() Stream { return Stream{node: n} }

// GlobalArgs wraps the output with raw global arguments
func (n *OutputNode) GlobalArgs(args ...string) (*GlobalNode, error) {
	return Global(n.Stream(), OpGlobalArgs, args)
}

// Overwrite wraps the output with -y
func (n *OutputNode) Overwrite() (*GlobalNode, error) {
	return Overwrite(n.Stream())
}

// Global operation names
const (
	OpGlobalArgs = "global_args"
	OpOverwrite  = "overwrite_output"
)

// GlobalNode attaches global flags to a finished pipeline. Global nodes
// chain: the input may itself be a Global node.
type GlobalNode struct {
	op      string
	args    []string
	options Options
	input   Stream
	hash    Hash
}

// Global wraps an output, merge or global stream with flags
func Global(input Stream, op string, args []string, opts ...Option) (*GlobalNode, error) {
	if op == "" {
		op = OpGlobalArgs
	}
	if err := checkTerminalSource(op, 0, input); err != nil {
		return nil, err
	}
	norm, err := Options(opts).Normalize()
	if err != nil {
		return nil, constructionErrorf(op, "%v", err)
	}

	n := &GlobalNode{op: op, args: append([]string(nil), args...), options: norm, input: input}
	w := newHasher(KindGlobal)
	w.str(op)
	w.strings(n.args)
	w.options(norm)
	w.stream(input)
	n.hash = w.sum()
	return n, nil
}

// Overwrite wraps input with the -y flag
func Overwrite(input Stream) (*GlobalNode, error) {
	return Global(input, OpOverwrite, nil, Opt("y", true))
}

func checkTerminalSource(name string, slot int, s Stream) error {
	switch s.node.(type) {
	case nil:
		return constructionErrorf(name, "input %d: empty stream", slot)
	case *OutputNode, *GlobalNode, *MergeNode:
		return nil
	default:
		return constructionErrorf(name, "input %d: expected an output stream, got %s", slot, s.node)
	}
}

func (n *GlobalNode) Kind() Kind { return KindGlobal }
func (n *GlobalNode) Inputs() []Stream { return []Stream{n.input} }
func (n *GlobalNode) Hash() Hash { return n.hash }
func (n *GlobalNode) Op() string { return n.op }
func (n *GlobalNode) Args() []string { return append([]string(nil), n.args...) }
func (n *GlobalNode) Options() Options { return cloneOptions(n.options) }
func (n *GlobalNode) String() string { return fmt.Sprintf("Global(%s)", n.op) }
func (n *GlobalNode) sealed() {}

// Stream returns the reference to the wrapped pipeline
func (n *GlobalNode) Stream() Stream { return Stream{node: n} }

// GlobalArgs chains more raw global arguments
func (n *GlobalNode) GlobalArgs(args ...string) (*GlobalNode, error) {
	return Global(n.Stream(), OpGlobalArgs, args)
}

// Overwrite chains the -y flag
func (n *GlobalNode) Overwrite() (*GlobalNode, error) {
	return Overwrite(n.Stream())
}

// MergeNode combines independent outputs into one invocation
type MergeNode struct {
	inputs []Stream
	hash   Hash
}

// Merge combines output, global or merge streams
func Merge(inputs ...Stream) (*MergeNode, error) {
	if len(inputs) == 0 {
		return nil, constructionErrorf("merge_outputs", "at least one output is required")
	}
	var errs error
	for i, s := range inputs {
		if err := checkTerminalSource("merge_outputs", i, s); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		return nil, errs
	}

	n := &MergeNode{inputs: append([]Stream(nil), inputs...)}
	w := newHasher(KindMerge)
	w.streams(n.inputs)
	n.hash = w.sum()
	return n, nil
}

// MergeOutputs merges output nodes directly
func MergeOutputs(outputs ...*OutputNode) (*MergeNode, error) {
	streams := make([]Stream, len(outputs))
	for i, o := range outputs {
		streams[i] = o.Stream()
	}
	return Merge(streams...)
}

func (n *MergeNode) Kind() Kind { return KindMerge }
func (n *MergeNode) Inputs() []Stream { return append([]Stream(nil), n.inputs...) }
func (n *MergeNode) Hash() Hash { return n.hash }
func (n *MergeNode) String() string { return fmt.Sprintf("MergeOutputs(%d)", len(n.inputs)) }
func (n *MergeNode) sealed() {}

// Stream returns the reference to the merged pipelines
func (n *MergeNode) Stream() Stream { return Stream{node: n} }

// GlobalArgs wraps the merged outputs with raw global arguments
func (n *MergeNode) GlobalArgs(args ...string) (*GlobalNode, error) {
	return Global(n.Stream(), OpGlobalArgs, args)
}

// Overwrite wraps the merged outputs with -y
func (n *MergeNode) Overwrite() (*GlobalNode, error) {
	return Overwrite(n.Stream())
}

func cloneOptions(o Options) Options {
	if o == nil {
		return nil
	}
	return append(Options(nil), o...)
}

func cloneTyping(t Typing) Typing {
	if t.Dynamic {
		return Typing{Dynamic: true}
	}
	return Typing{Ports: append([]schemas.MediaType{}, t.Ports...)}
}
