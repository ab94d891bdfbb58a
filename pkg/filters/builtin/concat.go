package builtin

import (
	"fmt"

	"github.com/chicogong/ffgraph/pkg/filters"
	"github.com/chicogong/ffgraph/pkg/schemas"
)

func init() {
	filters.Register(&filters.Descriptor{
		Name:        "concat",
		Category:    filters.CategoryTimeline,
		Description: "Concatenate audio and video streams, joining them together one after the other",
		Parameters: []filters.ParameterDescriptor{
			{Name: "n", Type: filters.TypeInt, Default: 2, Description: "Number of segments", Validation: &filters.ValidationRules{Min: filters.Bound(1)}},
			{Name: "v", Type: filters.TypeInt, Default: 1, Description: "Number of output video streams per segment", Validation: &filters.ValidationRules{Min: filters.Bound(0)}},
			{Name: "a", Type: filters.TypeInt, Default: 0, Description: "Number of output audio streams per segment", Validation: &filters.ValidationRules{Min: filters.Bound(0)}},
			{Name: "unsafe", Type: filters.TypeBool, Default: false},
		},
		Resolve: resolveConcat,
	})

	filters.Register(splitDescriptor("split", video))
	filters.Register(splitDescriptor("asplit", audio))
}

// resolveConcat lays out n segments of v video then a audio ports
func resolveConcat(opts schemas.Params) (filters.PortSpec, filters.PortSpec, error) {
	n, err := filters.IntOption(opts, "n", 2)
	if err != nil {
		return filters.PortSpec{}, filters.PortSpec{}, err
	}
	v, err := filters.IntOption(opts, "v", 1)
	if err != nil {
		return filters.PortSpec{}, filters.PortSpec{}, err
	}
	a, err := filters.IntOption(opts, "a", 0)
	if err != nil {
		return filters.PortSpec{}, filters.PortSpec{}, err
	}
	if n < 1 || v < 0 || a < 0 || v+a == 0 {
		return filters.PortSpec{}, filters.PortSpec{}, fmt.Errorf("invalid segment layout n=%d v=%d a=%d", n, v, a)
	}

	segment := make([]schemas.MediaType, 0, v+a)
	for i := int64(0); i < v; i++ {
		segment = append(segment, video)
	}
	for i := int64(0); i < a; i++ {
		segment = append(segment, audio)
	}

	in := make([]schemas.MediaType, 0, n*(v+a))
	for i := int64(0); i < n; i++ {
		in = append(in, segment...)
	}
	return filters.Static(in...), filters.Static(segment...), nil
}

// splitDescriptor describes split and asplit, whose output count is the
// "outputs" option
func splitDescriptor(name string, t schemas.MediaType) *filters.Descriptor {
	return &filters.Descriptor{
		Name:        name,
		Category:    filters.CategoryTimeline,
		Description: fmt.Sprintf("Pass on the %s input to N %s outputs", t, t),
		Parameters: []filters.ParameterDescriptor{
			{Name: "outputs", Type: filters.TypeInt, Default: 2, Validation: &filters.ValidationRules{Min: filters.Bound(1)}},
		},
		Resolve: func(opts schemas.Params) (filters.PortSpec, filters.PortSpec, error) {
			n, err := filters.IntOption(opts, "outputs", 2)
			if err != nil {
				return filters.PortSpec{}, filters.PortSpec{}, err
			}
			if n < 1 {
				return filters.PortSpec{}, filters.PortSpec{}, fmt.Errorf("outputs must be positive, got %d", n)
			}
			return filters.Static(t), filters.Repeat(t, int(n)), nil
		},
	}
}
