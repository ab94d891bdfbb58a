package graph

import (
	"fmt"

	"github.com/chicogong/ffgraph/pkg/schemas"
)

// Stream references one output pin of a node. Input streams use pin 0 and
// may carry a media selector; filter streams carry their pin index; output,
// global and merge streams refer to the finished pipeline.
type Stream struct {
	node     Node
	index    int
	selector schemas.MediaType
}

// streamKey identifies a stream structurally
type streamKey struct {
	node     Hash
	index    int
	selector schemas.MediaType
}

func (s Stream) key() streamKey {
	return streamKey{node: s.node.Hash(), index: s.index, selector: s.selector}
}

// Node returns the node owning the pin
func (s Stream) Node() Node { return s.node }

// Index returns the pin index
func (s Stream) Index() int { return s.index }

// Selector returns the media selector of an input stream
func (s Stream) Selector() schemas.MediaType { return s.selector }

// IsZero reports whether s references no node
func (s Stream) IsZero() bool { return s.node == nil }

// Equal reports whether two streams reference the same pin of equal nodes
func (s Stream) Equal(o Stream) bool {
	if s.node == nil || o.node == nil {
		return s.node == nil && o.node == nil
	}
	return s.key() == o.key()
}

// Type returns the media type carried by the stream, or "" when unknown
func (s Stream) Type() schemas.MediaType {
	if s.selector != "" {
		return s.selector
	}
	if f, ok := s.node.(*FilterNode); ok {
		return f.outTyping.Port(s.index)
	}
	return ""
}

func (s Stream) String() string {
	if s.node == nil {
		return "Stream(<nil>)"
	}
	if s.selector != "" {
		return fmt.Sprintf("%s:%s", s.node, s.selector.Short())
	}
	if s.node.Kind() == KindFilter {
		return fmt.Sprintf("%s#%d", s.node, s.index)
	}
	return s.node.String()
}

// Filter applies a single-input filter from the global catalogue
func (s Stream) Filter(name string, opts ...Option) (*FilterNode, error) {
	return defaultBuilder.Filter(name, []Stream{s}, opts...)
}

// Output writes the stream to filename
func (s Stream) Output(filename string, opts ...Option) (*OutputNode, error) {
	return Output(filename, []Stream{s}, opts...)
}
