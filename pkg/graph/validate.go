package graph

import (
	"math"
	"sort"

	"github.com/go-logr/logr"
	"go.uber.org/multierr"

	"github.com/chicogong/ffgraph/pkg/schemas"
)

// FanOut is a filter output pin read by more than one consumer. Input pins
// are never reported: ffmpeg lets an input stream feed several filters.
type FanOut struct {
	Node  *FilterNode
	Pin   int
	Edges []Edge
}

// Validator checks that a graph is acyclic and that every filter output
// pin has a single consumer.
type Validator struct {
	// AutoFix rewrites fan-out by inserting split/asplit nodes instead of
	// failing
	AutoFix bool
	Logger  logr.Logger
}

// Validate checks root with a default validator
func Validate(root Node, autoFix bool) (Node, error) {
	return (&Validator{AutoFix: autoFix}).Validate(root)
}

// Validate returns root when it is already compilable, or a rewritten graph
// when auto-fix had to change it. Nodes are never modified in place.
func (v *Validator) Validate(root Node) (Node, error) {
	if root == nil {
		return nil, constructionErrorf("", "graph root is nil")
	}

	ctx := NewDAGContext(root)
	if err := CheckAcyclic(ctx); err != nil {
		return nil, err
	}

	if !v.AutoFix {
		var errs error
		for _, fo := range FanOuts(ctx) {
			errs = multierr.Append(errs, &UnresolvedFanOutError{
				Node:      ctx.describe(fo.Node),
				Filter:    fo.Node.name,
				Pin:       fo.Pin,
				Consumers: len(fo.Edges),
			})
		}
		if errs != nil {
			return nil, errs
		}
		return root, nil
	}

	fixed, err := v.normalize(ctx, root)
	if err != nil {
		return nil, err
	}
	if fixed.Hash() == root.Hash() {
		return root, nil
	}
	v.Logger.V(1).Info("graph rewritten", "before", ctx.Len(), "after", NewDAGContext(fixed).Len())
	return fixed, nil
}

// CheckAcyclic runs Kahn's algorithm over the indexed nodes
func CheckAcyclic(ctx *DAGContext) error {
	keys := make([]Hash, len(ctx.nodes))
	for i, n := range ctx.nodes {
		keys[i] = n.Hash()
	}

	_, cyclic := Toposort(keys, func(h Hash) []Hash {
		n, _ := ctx.Lookup(h)
		inputs := inputsOf(n)
		deps := make([]Hash, len(inputs))
		for i, s := range inputs {
			deps[i] = s.node.Hash()
		}
		return deps
	})
	if len(cyclic) == 0 {
		return nil
	}

	names := make([]string, len(cyclic))
	for i, h := range cyclic {
		n, _ := ctx.Lookup(h)
		names[i] = ctx.describe(n)
	}
	return &CyclicGraphError{Nodes: names}
}

// FanOuts lists filter pins with more than one consumer, in node post-order
// then pin order
func FanOuts(ctx *DAGContext) []FanOut {
	var out []FanOut
	for _, n := range ctx.nodes {
		f, ok := n.(*FilterNode)
		if !ok {
			continue
		}
		pins, _ := ctx.PinEdges(f)
		indices := make([]int, 0, len(pins))
		for pin, edges := range pins {
			if len(edges) > 1 {
				indices = append(indices, pin)
			}
		}
		sort.Ints(indices)
		for _, pin := range indices {
			out = append(out, FanOut{Node: f, Pin: pin, Edges: pins[pin]})
		}
	}
	return out
}

type slotKey struct {
	consumer Hash
	slot     int
}

type pinKey struct {
	node Hash
	pin  int
}

type splitPlan struct {
	media schemas.MediaType
	k     int
}

// normalize dissolves every split fed by a filter pin, then inserts exactly
// one split per filter pin that still has several consumers. Consumers keep
// the split pin they were wired to where one existed, so pre-split graphs
// and already fixed graphs come back structurally unchanged.
func (v *Validator) normalize(ctx *DAGContext, root Node) (Node, error) {
	collapsed, rank, prev, err := collapseSplits(ctx, root)
	if err != nil {
		return nil, err
	}

	ctx2 := NewDAGContext(collapsed)
	fanOuts := FanOuts(ctx2)
	if len(fanOuts) == 0 {
		return collapsed, nil
	}

	plans := make(map[pinKey]splitPlan, len(fanOuts))
	assign := make(map[slotKey]int)
	var errs error
	for _, fo := range fanOuts {
		edges := append([]Edge(nil), fo.Edges...)
		sort.SliceStable(edges, func(i, j int) bool {
			return rankOf(rank, edges[i]) < rankOf(rank, edges[j])
		})

		media := pinMedia(fo)
		if media == "" {
			errs = multierr.Append(errs, &AmbiguousPortTypeError{
				Node:   ctx2.describe(fo.Node),
				Filter: fo.Node.name,
				Pin:    fo.Pin,
			})
			continue
		}

		plans[pinKey{fo.Node.Hash(), fo.Pin}] = splitPlan{media: media, k: len(edges)}
		for j, e := range edges {
			assign[slotKey{e.Consumer.Hash(), e.Slot}] = j
		}
		v.Logger.V(1).Info("inserting split", "node", ctx2.describe(fo.Node), "filter", fo.Node.name, "pin", fo.Pin, "consumers", len(edges))
	}
	if errs != nil {
		return nil, errs
	}

	rebuilt := make(map[Hash]Node, ctx2.Len())
	splits := make(map[pinKey]*FilterNode, len(plans))
	for _, n := range ctx2.nodes {
		inputs := inputsOf(n)
		next := make([]Stream, len(inputs))
		changed := false
		for slot, s := range inputs {
			src := rebuilt[s.node.Hash()]
			ns := Stream{node: src, index: s.index, selector: s.selector}

			pk := pinKey{s.node.Hash(), s.index}
			if plan, ok := plans[pk]; ok {
				sp := splits[pk]
				if sp == nil {
					sp, err = splitFor(prev[pk], Stream{node: src, index: s.index}, plan)
					if err != nil {
						return nil, err
					}
					splits[pk] = sp
				}
				ns = Stream{node: sp, index: assign[slotKey{n.Hash(), slot}]}
			}

			if ns.node != s.node || ns.index != s.index {
				changed = true
			}
			next[slot] = ns
		}

		if !changed {
			rebuilt[n.Hash()] = n
			continue
		}
		nn, err := rebuild(n, next)
		if err != nil {
			return nil, err
		}
		rebuilt[n.Hash()] = nn
	}

	return rebuilt[collapsed.Hash()], nil
}

// splitFor builds the split for a fanned-out pin. When exactly one of the
// splits that fed the pin before collapsing has the planned pin count, it is
// rebuilt with its own options so an existing split keeps its hash.
func splitFor(prev []*FilterNode, source Stream, plan splitPlan) (*FilterNode, error) {
	var match *FilterNode
	for _, p := range prev {
		if p.name != splitFilterName(plan.media) || p.outTyping.Len() != plan.k {
			continue
		}
		if match != nil {
			match = nil
			break
		}
		match = p
	}
	if match == nil {
		return newSplit(source, plan.media, plan.k)
	}
	return newFilter(match.name, match.options, []Stream{source}, match.inTyping, match.outTyping)
}

// collapseSplits removes splits fed by filter pins, rewiring their
// consumers to the split's source. It returns, for each rewired consumer
// slot, the split pin it used to read, and the removed splits by the pin
// they were fed from.
func collapseSplits(ctx *DAGContext, root Node) (Node, map[slotKey]int, map[pinKey][]*FilterNode, error) {
	rebuilt := make(map[Hash]Node, ctx.Len())
	alias := make(map[Hash]Stream)
	rank := make(map[slotKey]int)
	prev := make(map[pinKey][]*FilterNode)

	for _, n := range ctx.nodes {
		if f, ok := n.(*FilterNode); ok && isSplit(f) && n.Hash() != root.Hash() {
			in := f.inputs[0]
			src, aliased := alias[in.node.Hash()]
			if !aliased {
				src = Stream{node: rebuilt[in.node.Hash()], index: in.index, selector: in.selector}
			}
			if src.node.Kind() == KindFilter {
				alias[n.Hash()] = src
				pk := pinKey{src.node.Hash(), src.index}
				prev[pk] = append(prev[pk], f)
				continue
			}
		}

		inputs := inputsOf(n)
		next := make([]Stream, len(inputs))
		ranks := make(map[int]int)
		changed := false
		for slot, s := range inputs {
			ns, ok := alias[s.node.Hash()]
			if ok {
				ranks[slot] = s.index
			} else {
				ns = Stream{node: rebuilt[s.node.Hash()], index: s.index, selector: s.selector}
			}
			if ns.node != s.node || ns.index != s.index {
				changed = true
			}
			next[slot] = ns
		}

		nn := n
		if changed {
			var err error
			if nn, err = rebuild(n, next); err != nil {
				return nil, nil, nil, err
			}
		}
		rebuilt[n.Hash()] = nn
		for slot, r := range ranks {
			rank[slotKey{nn.Hash(), slot}] = r
		}
	}

	return rebuilt[root.Hash()], rank, prev, nil
}

func rankOf(rank map[slotKey]int, e Edge) int {
	if r, ok := rank[slotKey{e.Consumer.Hash(), e.Slot}]; ok {
		return r
	}
	return math.MaxInt
}

// pinMedia finds the media type of a fanned-out pin from the producer's
// output typing, falling back to what the consumers expect
func pinMedia(fo FanOut) schemas.MediaType {
	if t := fo.Node.outTyping.Port(fo.Pin); t != "" {
		return t
	}
	for _, e := range fo.Edges {
		if c, ok := e.Consumer.(*FilterNode); ok {
			if t := c.inTyping.Port(e.Slot); t != "" {
				return t
			}
		}
	}
	return ""
}

// rebuild copies n with new input streams
func rebuild(n Node, inputs []Stream) (Node, error) {
	switch v := n.(type) {
	case *FilterNode:
		return newFilter(v.name, v.options, inputs, v.inTyping, v.outTyping)
	case *OutputNode:
		return Output(v.filename, inputs, v.options...)
	case *GlobalNode:
		return Global(inputs[0], v.op, v.args, v.options...)
	case *MergeNode:
		return Merge(inputs...)
	default:
		return n, nil
	}
}
