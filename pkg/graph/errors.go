package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrGraphConstruction is returned when a node is built with the wrong
	// number or type of input streams, or with unusable options.
	ErrGraphConstruction = errors.New("invalid graph construction")

	// ErrCyclicGraph is returned when the graph contains a cycle.
	ErrCyclicGraph = errors.New("graph contains a cycle")

	// ErrUnresolvedFanOut is returned when a filter output pin feeds more
	// than one consumer and auto-fix is disabled.
	ErrUnresolvedFanOut = errors.New("output pin consumed more than once")

	// ErrAmbiguousPortType is returned when a media type is needed but the
	// port typing is dynamic.
	ErrAmbiguousPortType = errors.New("ambiguous port type")

	// ErrUnknownNodeKind is returned when decoding an unrecognised tag.
	ErrUnknownNodeKind = errors.New("unknown node kind")

	// ErrUnlabeledNode is returned when querying a node outside the index.
	ErrUnlabeledNode = errors.New("node not in graph index")
)

// GraphConstructionError names the offending node and what was wrong.
type GraphConstructionError struct {
	Filter string
	Msg    string
}

func (e *GraphConstructionError) Error() string {
	if e.Filter == "" {
		return fmt.Sprintf("%s: %s", ErrGraphConstruction, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", ErrGraphConstruction, e.Filter, e.Msg)
}

func (e *GraphConstructionError) Unwrap() error { return ErrGraphConstruction }

func constructionErrorf(filter, format string, args ...interface{}) error {
	return &GraphConstructionError{Filter: filter, Msg: fmt.Sprintf(format, args...)}
}

// CyclicGraphError lists the nodes left with unresolved dependencies.
type CyclicGraphError struct {
	Nodes []string
}

func (e *CyclicGraphError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCyclicGraph, strings.Join(e.Nodes, ", "))
}

func (e *CyclicGraphError) Unwrap() error { return ErrCyclicGraph }

// UnresolvedFanOutError names the shared pin and its consumer count.
type UnresolvedFanOutError struct {
	Node      string
	Filter    string
	Pin       int
	Consumers int
}

func (e *UnresolvedFanOutError) Error() string {
	return fmt.Sprintf("%s: %s (%s) pin %d has %d consumers", ErrUnresolvedFanOut, e.Node, e.Filter, e.Pin, e.Consumers)
}

func (e *UnresolvedFanOutError) Unwrap() error { return ErrUnresolvedFanOut }

// AmbiguousPortTypeError names the pin whose media type could not be
// determined.
type AmbiguousPortTypeError struct {
	Node   string
	Filter string
	Pin    int
}

func (e *AmbiguousPortTypeError) Error() string {
	return fmt.Sprintf("%s: %s (%s) pin %d", ErrAmbiguousPortType, e.Node, e.Filter, e.Pin)
}

func (e *AmbiguousPortTypeError) Unwrap() error { return ErrAmbiguousPortType }

// UnknownNodeKindError carries the unrecognised tag.
type UnknownNodeKindError struct {
	Kind string
}

func (e *UnknownNodeKindError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnknownNodeKind, e.Kind)
}

func (e *UnknownNodeKindError) Unwrap() error { return ErrUnknownNodeKind }

// UnlabeledNodeError describes the node that was not indexed.
type UnlabeledNodeError struct {
	Node string
}

func (e *UnlabeledNodeError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnlabeledNode, e.Node)
}

func (e *UnlabeledNodeError) Unwrap() error { return ErrUnlabeledNode }
