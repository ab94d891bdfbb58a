package graph

import (
	"github.com/chicogong/ffgraph/pkg/filters"
	"github.com/chicogong/ffgraph/pkg/schemas"
)

// Catalogue supplies filter descriptors. *filters.Registry implements it.
type Catalogue interface {
	Lookup(name string) (*filters.Descriptor, bool)
}

// Builder creates filter nodes, typing them from a catalogue. Filters the
// catalogue does not know are built with dynamic (unchecked) typing.
type Builder struct {
	catalogue       Catalogue
	validateOptions bool
}

// BuilderOption configures a Builder
type BuilderOption func(*Builder)

// WithOptionValidation checks filter options against the catalogue's option
// schema at construction.
func WithOptionValidation() BuilderOption {
	return func(b *Builder) {
		b.validateOptions = true
	}
}

// NewBuilder creates a builder backed by cat, which may be nil
func NewBuilder(cat Catalogue, opts ...BuilderOption) *Builder {
	b := &Builder{catalogue: cat}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var defaultBuilder = NewBuilder(filters.GlobalRegistry())

// Filter builds a filter node using the global catalogue
func Filter(name string, inputs []Stream, opts ...Option) (*FilterNode, error) {
	return defaultBuilder.Filter(name, inputs, opts...)
}

// MustFilter is like Filter but panics on error
func MustFilter(name string, inputs []Stream, opts ...Option) *FilterNode {
	return defaultBuilder.MustFilter(name, inputs, opts...)
}

// Filter builds a filter node named name consuming inputs
func (b *Builder) Filter(name string, inputs []Stream, opts ...Option) (*FilterNode, error) {
	norm, err := Options(opts).Normalize()
	if err != nil {
		return nil, constructionErrorf(name, "%v", err)
	}

	in, out := filters.Dynamic(), filters.Dynamic()
	if d, ok := b.lookup(name); ok {
		if b.validateOptions {
			if err := filters.ValidateOptions(d, norm); err != nil {
				return nil, constructionErrorf(name, "%v", err)
			}
		}
		in, out, err = d.Typing(norm)
		if err != nil {
			return nil, constructionErrorf(name, "%v", err)
		}
	}

	return newFilter(name, norm, inputs, in, out)
}

// MustFilter is like Filter but panics on error
func (b *Builder) MustFilter(name string, inputs []Stream, opts ...Option) *FilterNode {
	n, err := b.Filter(name, inputs, opts...)
	if err != nil {
		panic(err)
	}
	return n
}

// FilterTyped builds a filter with explicit typings, bypassing the catalogue
func FilterTyped(name string, inputs []Stream, in, out Typing, opts ...Option) (*FilterNode, error) {
	norm, err := Options(opts).Normalize()
	if err != nil {
		return nil, constructionErrorf(name, "%v", err)
	}
	return newFilter(name, norm, inputs, in, out)
}

func (b *Builder) lookup(name string) (*filters.Descriptor, bool) {
	if b == nil || b.catalogue == nil {
		return nil, false
	}
	return b.catalogue.Lookup(name)
}

// splitFilterName returns the fan-out filter for media type t
func splitFilterName(t schemas.MediaType) string {
	if t == schemas.MediaTypeAudio {
		return "asplit"
	}
	return "split"
}

// isSplit reports whether n is a single-input split or asplit
func isSplit(n *FilterNode) bool {
	return (n.name == "split" || n.name == "asplit") && len(n.inputs) == 1
}

// newSplit builds a split of source into k pins of type t
func newSplit(source Stream, t schemas.MediaType, k int) (*FilterNode, error) {
	return newFilter(
		splitFilterName(t),
		Options{{Key: "outputs", Value: int64(k)}},
		[]Stream{source},
		filters.Static(t),
		filters.Repeat(t, k),
	)
}
