package builtin

import (
	"fmt"

	"github.com/chicogong/ffgraph/pkg/filters"
	"github.com/chicogong/ffgraph/pkg/schemas"
)

func init() {
	filters.Register(&filters.Descriptor{
		Name:        "overlay",
		Category:    filters.CategoryGraphics,
		Description: "Overlay a video source on top of the input",
		Parameters: []filters.ParameterDescriptor{
			{Name: "x", Type: filters.TypeExpression, Default: "0"},
			{Name: "y", Type: filters.TypeExpression, Default: "0"},
			{
				Name: "eof_action",
				Type: filters.TypeEnum,
				Validation: &filters.ValidationRules{
					Enum: []interface{}{"repeat", "endall", "pass"},
				},
			},
			{Name: "shortest", Type: filters.TypeBool},
		},
		Inputs:  filters.Static(video, video),
		Outputs: filters.Static(video),
	})

	filters.Register(stackDescriptor("hstack", "horizontally"))
	filters.Register(stackDescriptor("vstack", "vertically"))

	filters.Register(&filters.Descriptor{
		Name:        "drawtext",
		Category:    filters.CategoryGraphics,
		Description: "Draw a text string on top of the video",
		Parameters: []filters.ParameterDescriptor{
			{Name: "text", Type: filters.TypeString},
			{Name: "fontfile", Type: filters.TypeString},
			{Name: "fontsize", Type: filters.TypeExpression},
			{Name: "fontcolor", Type: filters.TypeColor},
			{Name: "x", Type: filters.TypeExpression},
			{Name: "y", Type: filters.TypeExpression},
			{Name: "box", Type: filters.TypeBool},
			{Name: "boxcolor", Type: filters.TypeColor},
		},
		Inputs:  filters.Static(video),
		Outputs: filters.Static(video),
	})

	filters.Register(&filters.Descriptor{
		Name:        "color",
		Category:    filters.CategorySource,
		Description: "Provide a uniformly colored input",
		Parameters: []filters.ParameterDescriptor{
			{Name: "color", Type: filters.TypeColor, Default: "black"},
			{Name: "size", Type: filters.TypeResolution},
			{Name: "rate", Type: filters.TypeExpression},
			{Name: "duration", Type: filters.TypeDuration},
		},
		Inputs:  filters.Static(),
		Outputs: filters.Static(video),
	})
}

// stackDescriptor describes hstack and vstack, sized by the "inputs" option
func stackDescriptor(name, direction string) *filters.Descriptor {
	return &filters.Descriptor{
		Name:        name,
		Category:    filters.CategoryGraphics,
		Description: fmt.Sprintf("Stack input videos %s", direction),
		Parameters: []filters.ParameterDescriptor{
			{Name: "inputs", Type: filters.TypeInt, Default: 2, Validation: &filters.ValidationRules{Min: filters.Bound(2)}},
			{Name: "shortest", Type: filters.TypeBool},
		},
		Resolve: countedInputs(video, video),
	}
}

// countedInputs resolves filters taking "inputs" ports of type in and
// producing a single port of type out
func countedInputs(in, out schemas.MediaType) func(schemas.Params) (filters.PortSpec, filters.PortSpec, error) {
	return func(opts schemas.Params) (filters.PortSpec, filters.PortSpec, error) {
		n, err := filters.IntOption(opts, "inputs", 2)
		if err != nil {
			return filters.PortSpec{}, filters.PortSpec{}, err
		}
		if n < 1 {
			return filters.PortSpec{}, filters.PortSpec{}, fmt.Errorf("inputs must be positive, got %d", n)
		}
		return filters.Repeat(in, int(n)), filters.Static(out), nil
	}
}
