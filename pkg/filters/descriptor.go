package filters

import (
	"fmt"

	"github.com/chicogong/ffgraph/pkg/schemas"
)

// Category represents filter category
type Category string

const (
	CategoryTimeline Category = "timeline" // trim, concat, split
	CategoryAudio    Category = "audio"    // volume, amix, loudnorm
	CategoryVideo    Category = "video"    // scale, crop, flip
	CategoryGraphics Category = "graphics" // overlay, drawtext, stacks
	CategorySource   Category = "source"   // color, anullsrc
	CategoryAdvanced Category = "advanced" // catalogue entries without a category
)

// Descriptor is one catalogue entry: a filter name with its option schema
// and port typings.
type Descriptor struct {
	Name        string
	Category    Category
	Description string

	// Option schema
	Parameters []ParameterDescriptor

	// Port typings when they do not depend on options
	Inputs  PortSpec
	Outputs PortSpec

	// Resolve computes option dependent typings (split outputs, concat
	// segments). When nil, Inputs and Outputs are used as is.
	Resolve func(opts schemas.Params) (in, out PortSpec, err error)
}

// Typing returns the port typings of the filter configured with opts
func (d *Descriptor) Typing(opts schemas.Params) (in, out PortSpec, err error) {
	if d.Resolve == nil {
		return d.Inputs, d.Outputs, nil
	}
	in, out, err = d.Resolve(opts)
	if err != nil {
		return PortSpec{}, PortSpec{}, fmt.Errorf("filter '%s': %w", d.Name, err)
	}
	return in, out, nil
}

// Parameter returns the descriptor of the named option
func (d *Descriptor) Parameter(name string) (*ParameterDescriptor, bool) {
	for i := range d.Parameters {
		if d.Parameters[i].Name == name {
			return &d.Parameters[i], true
		}
	}
	return nil, false
}

// IntOption reads an integer option, falling back to def when absent
func IntOption(opts schemas.Params, key string, def int64) (int64, error) {
	v, ok := opts.Get(key)
	if !ok {
		return def, nil
	}
	n, err := NewTypeConverter().toInt(v)
	if err != nil {
		return 0, fmt.Errorf("option '%s': %w", key, err)
	}
	return n, nil
}
