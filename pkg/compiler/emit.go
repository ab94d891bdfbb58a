package compiler

import (
	"strconv"
	"strings"

	"github.com/chicogong/ffgraph/pkg/graph"
	"github.com/chicogong/ffgraph/pkg/schemas"
)

// Escaping follows ffmpeg's filtergraph quoting: option values escape the
// option separator first, then the whole argument string escapes the
// characters that delimit filters and labels.
var (
	valueEscaper  = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`)
	filterEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `[`, `\[`, `]`, `\]`, `,`, `\,`, `;`, `\;`)
)

// emitter renders one indexed graph
type emitter struct {
	ctx *graph.DAGContext
}

func (e *emitter) label(n graph.Node) (string, error) {
	return e.ctx.NodeLabel(n)
}

// pinLabel is the filtergraph label of a stream: [0], [0:v], [s3], [s3-1]
func (e *emitter) pinLabel(s graph.Stream) (string, error) {
	ref, err := e.streamRef(s)
	if err != nil {
		return "", err
	}
	return "[" + ref + "]", nil
}

// streamRef is the label without brackets; -map takes input pins bare
func (e *emitter) streamRef(s graph.Stream) (string, error) {
	label, err := e.label(s.Node())
	if err != nil {
		return "", err
	}
	switch n := s.Node().(type) {
	case *graph.InputNode:
		if sel := s.Selector(); sel != "" {
			return label + ":" + sel.Short(), nil
		}
		return label, nil
	case *graph.FilterNode:
		if singleOutput(n) {
			return label, nil
		}
		return label + "-" + strconv.Itoa(s.Index()), nil
	default:
		return label, nil
	}
}

func (e *emitter) mapLabel(s graph.Stream) (string, error) {
	if s.Node().Kind() == graph.KindInput {
		return e.streamRef(s)
	}
	return e.pinLabel(s)
}

func singleOutput(f *graph.FilterNode) bool {
	return f.OutputTyping().Len() == 1
}

// filterScript renders every filter in topological order
func (e *emitter) filterScript() (string, error) {
	nodes := e.ctx.NodesOf(graph.KindFilter)
	if len(nodes) == 0 {
		return "", nil
	}

	keys := make([]graph.Hash, len(nodes))
	for i, n := range nodes {
		keys[i] = n.Hash()
	}
	order, _ := graph.Toposort(keys, func(h graph.Hash) []graph.Hash {
		n, _ := e.ctx.Lookup(h)
		var deps []graph.Hash
		for _, s := range n.Inputs() {
			if s.Node().Kind() == graph.KindFilter {
				deps = append(deps, s.Node().Hash())
			}
		}
		return deps
	})

	segments := make([]string, 0, len(order))
	for _, h := range order {
		n, _ := e.ctx.Lookup(h)
		seg, err := e.segment(n.(*graph.FilterNode))
		if err != nil {
			return "", err
		}
		segments = append(segments, seg)
	}
	return strings.Join(segments, ";"), nil
}

func (e *emitter) segment(f *graph.FilterNode) (string, error) {
	var b strings.Builder
	for _, s := range f.Inputs() {
		l, err := e.pinLabel(s)
		if err != nil {
			return "", err
		}
		b.WriteString(l)
	}

	b.WriteString(f.Name())
	if args := filterArgs(f.Options()); args != "" {
		b.WriteByte('=')
		b.WriteString(filterEscaper.Replace(args))
	}

	pins, err := e.ctx.PinEdges(f)
	if err != nil {
		return "", err
	}
	last := -1
	for pin := range pins {
		if pin > last {
			last = pin
		}
	}
	for pin := 0; pin <= last; pin++ {
		l, err := e.pinLabel(f.MustStream(pin))
		if err != nil {
			return "", err
		}
		b.WriteString(l)
	}
	return b.String(), nil
}

// filterArgs joins options as key=value pairs separated by ':'
func filterArgs(opts schemas.Params) string {
	parts := make([]string, len(opts))
	for i, kv := range opts {
		parts[i] = kv.Key + "=" + valueEscaper.Replace(schemas.FormatValue(kv.Value))
	}
	return strings.Join(parts, ":")
}

func (e *emitter) inputs() []string {
	var args []string
	for _, n := range e.ctx.NodesOf(graph.KindInput) {
		in := n.(*graph.InputNode)
		args = appendOptions(args, in.Options(), false)
		args = append(args, "-i", in.Filename())
	}
	return args
}

func (e *emitter) outputs() ([]string, error) {
	var args []string
	for _, n := range e.ctx.NodesOf(graph.KindOutput) {
		out := n.(*graph.OutputNode)
		for _, s := range out.Inputs() {
			l, err := e.mapLabel(s)
			if err != nil {
				return nil, err
			}
			args = append(args, "-map", l)
		}
		args = appendOptions(args, out.Options(), false)
		args = append(args, out.Filename())
	}
	return args, nil
}

func (e *emitter) globals() []string {
	var args []string
	for _, n := range e.ctx.NodesOf(graph.KindGlobal) {
		g := n.(*graph.GlobalNode)
		args = append(args, g.Args()...)
		args = appendOptions(args, g.Options(), true)
	}
	return args
}

// appendOptions renders options as command line flags. True booleans
// become bare flags; false ones are dropped, or negated with a "no" prefix
// when negate is set.
func appendOptions(args []string, opts schemas.Params, negate bool) []string {
	for _, kv := range opts {
		if b, ok := kv.Value.(bool); ok {
			switch {
			case b:
				args = append(args, "-"+kv.Key)
			case negate:
				args = append(args, "-no"+kv.Key)
			}
			continue
		}
		args = append(args, "-"+kv.Key, schemas.FormatValue(kv.Value))
	}
	return args
}
