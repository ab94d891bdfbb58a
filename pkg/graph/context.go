package graph

import (
	"strconv"
)

// Edge is one consumption of a stream: Consumer reads Stream in input slot
// Slot.
type Edge struct {
	Stream   Stream
	Consumer Node
	Slot     int
}

// DAGContext indexes the subgraph reachable from a set of roots.
//
// Structurally equal nodes collapse to one entry. Nodes are visited in
// post-order (inputs before consumers, first visit wins), which fixes the
// labels: input nodes are numbered 0, 1, 2, ..., filter nodes s0, s1, ...,
// and outputs, globals and merges o0, g0 and m0 onwards.
type DAGContext struct {
	roots   []Node
	nodes   []Node
	index   map[Hash]int
	labels  map[Hash]string
	edges   map[Hash][]Edge
	streams []Stream
	counts  map[Kind]int
}

// NewDAGContext walks the graph from roots without recursion
func NewDAGContext(roots ...Node) *DAGContext {
	c := &DAGContext{
		index:  make(map[Hash]int),
		labels: make(map[Hash]string),
		edges:  make(map[Hash][]Edge),
		counts: make(map[Kind]int),
	}

	type frame struct {
		node Node
		next int
	}

	// 0 unseen, 1 on stack, 2 finished
	state := make(map[Hash]uint8)
	var stack []frame

	for _, root := range roots {
		if root == nil || state[root.Hash()] != 0 {
			continue
		}
		c.roots = append(c.roots, root)
		state[root.Hash()] = 1
		stack = append(stack, frame{node: root})

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			inputs := inputsOf(top.node)
			if top.next < len(inputs) {
				child := inputs[top.next].node
				top.next++
				if state[child.Hash()] == 0 {
					state[child.Hash()] = 1
					stack = append(stack, frame{node: child})
				}
				continue
			}

			stack = stack[:len(stack)-1]
			state[top.node.Hash()] = 2
			c.add(top.node)
		}
	}

	c.link()
	return c
}

// inputsOf reads the inputs without the copy Node.Inputs makes
func inputsOf(n Node) []Stream {
	switch v := n.(type) {
	case *FilterNode:
		return v.inputs
	case *OutputNode:
		return v.inputs
	case *GlobalNode:
		return []Stream{v.input}
	case *MergeNode:
		return v.inputs
	default:
		return nil
	}
}

func (c *DAGContext) add(n Node) {
	h := n.Hash()
	c.index[h] = len(c.nodes)
	c.nodes = append(c.nodes, n)

	var prefix string
	switch n.Kind() {
	case KindFilter:
		prefix = "s"
	case KindOutput:
		prefix = "o"
	case KindGlobal:
		prefix = "g"
	case KindMerge:
		prefix = "m"
	}
	c.labels[h] = prefix + strconv.Itoa(c.counts[n.Kind()])
	c.counts[n.Kind()]++
}

// link records out-edges in consumer post-order, then slot order
func (c *DAGContext) link() {
	seen := make(map[streamKey]bool)
	for _, consumer := range c.nodes {
		for slot, s := range inputsOf(consumer) {
			h := s.node.Hash()
			c.edges[h] = append(c.edges[h], Edge{Stream: s, Consumer: consumer, Slot: slot})
			if k := s.key(); !seen[k] {
				seen[k] = true
				c.streams = append(c.streams, s)
			}
		}
	}
}

// Roots returns the distinct roots the context was built from
func (c *DAGContext) Roots() []Node {
	return append([]Node(nil), c.roots...)
}

// Nodes returns the distinct reachable nodes in post-order
func (c *DAGContext) Nodes() []Node {
	return append([]Node(nil), c.nodes...)
}

// NodesOf returns the nodes of one kind in post-order
func (c *DAGContext) NodesOf(k Kind) []Node {
	var out []Node
	for _, n := range c.nodes {
		if n.Kind() == k {
			out = append(out, n)
		}
	}
	return out
}

// Streams returns the distinct streams referenced inside the graph
func (c *DAGContext) Streams() []Stream {
	return append([]Stream(nil), c.streams...)
}

// Len returns the number of distinct nodes
func (c *DAGContext) Len() int {
	return len(c.nodes)
}

// Contains reports whether a node equal to n was indexed
func (c *DAGContext) Contains(n Node) bool {
	if n == nil {
		return false
	}
	_, ok := c.index[n.Hash()]
	return ok
}

// Lookup returns the indexed node with hash h
func (c *DAGContext) Lookup(h Hash) (Node, bool) {
	i, ok := c.index[h]
	if !ok {
		return nil, false
	}
	return c.nodes[i], true
}

// NodeLabel returns the label assigned to n
func (c *DAGContext) NodeLabel(n Node) (string, error) {
	if n == nil {
		return "", &UnlabeledNodeError{Node: "<nil>"}
	}
	label, ok := c.labels[n.Hash()]
	if !ok {
		return "", &UnlabeledNodeError{Node: n.String()}
	}
	return label, nil
}

// OutgoingEdges returns every consumption of n's pins
func (c *DAGContext) OutgoingEdges(n Node) ([]Edge, error) {
	if !c.Contains(n) {
		return nil, c.unlabeled(n)
	}
	return append([]Edge(nil), c.edges[n.Hash()]...), nil
}

// OutgoingStreams returns the streams of n consumed downstream, one entry
// per consumption
func (c *DAGContext) OutgoingStreams(n Node) ([]Stream, error) {
	edges, err := c.OutgoingEdges(n)
	if err != nil {
		return nil, err
	}
	out := make([]Stream, len(edges))
	for i, e := range edges {
		out[i] = e.Stream
	}
	return out, nil
}

// PinEdges groups n's out-edges by output pin index
func (c *DAGContext) PinEdges(n Node) (map[int][]Edge, error) {
	edges, err := c.OutgoingEdges(n)
	if err != nil {
		return nil, err
	}
	out := make(map[int][]Edge)
	for _, e := range edges {
		out[e.Stream.index] = append(out[e.Stream.index], e)
	}
	return out, nil
}

func (c *DAGContext) unlabeled(n Node) error {
	if n == nil {
		return &UnlabeledNodeError{Node: "<nil>"}
	}
	return &UnlabeledNodeError{Node: n.String()}
}

// describe renders a node with its label for error messages
func (c *DAGContext) describe(n Node) string {
	if label, ok := c.labels[n.Hash()]; ok {
		return label
	}
	return n.String()
}
