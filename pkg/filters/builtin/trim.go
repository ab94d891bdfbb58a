package builtin

import (
	"fmt"

	"github.com/chicogong/ffgraph/pkg/filters"
	"github.com/chicogong/ffgraph/pkg/schemas"
)

var (
	video = schemas.MediaTypeVideo
	audio = schemas.MediaTypeAudio
)

func init() {
	filters.Register(trimDescriptor("trim", video))
	filters.Register(trimDescriptor("atrim", audio))

	filters.Register(&filters.Descriptor{
		Name:        "setpts",
		Category:    filters.CategoryTimeline,
		Description: "Change the presentation timestamp of video frames",
		Parameters: []filters.ParameterDescriptor{
			{Name: "expr", Type: filters.TypeExpression, Required: true, Description: "Timestamp expression, e.g. PTS-STARTPTS"},
		},
		Inputs:  filters.Static(video),
		Outputs: filters.Static(video),
	})
	filters.Register(&filters.Descriptor{
		Name:        "asetpts",
		Category:    filters.CategoryTimeline,
		Description: "Change the presentation timestamp of audio frames",
		Parameters: []filters.ParameterDescriptor{
			{Name: "expr", Type: filters.TypeExpression, Required: true, Description: "Timestamp expression, e.g. PTS-STARTPTS"},
		},
		Inputs:  filters.Static(audio),
		Outputs: filters.Static(audio),
	})
	filters.Register(&filters.Descriptor{
		Name:        "reverse",
		Category:    filters.CategoryTimeline,
		Description: "Reverse a video clip",
		Inputs:      filters.Static(video),
		Outputs:     filters.Static(video),
	})
	filters.Register(&filters.Descriptor{
		Name:        "areverse",
		Category:    filters.CategoryTimeline,
		Description: "Reverse an audio clip",
		Inputs:      filters.Static(audio),
		Outputs:     filters.Static(audio),
	})
}

// trimDescriptor describes trim and atrim, which share their option set
func trimDescriptor(name string, t schemas.MediaType) *filters.Descriptor {
	nonNegative := &filters.ValidationRules{Min: filters.Bound(0)}

	d := &filters.Descriptor{
		Name:        name,
		Category:    filters.CategoryTimeline,
		Description: fmt.Sprintf("Pick one continuous section of the %s input", t),
		Parameters: []filters.ParameterDescriptor{
			{Name: "start", Type: filters.TypeDuration, Description: "Timestamp of the first kept frame", Validation: nonNegative},
			{Name: "end", Type: filters.TypeDuration, Description: "Timestamp of the first dropped frame", Validation: nonNegative},
			{Name: "duration", Type: filters.TypeDuration, Description: "Maximum duration of the output", Validation: nonNegative},
			{Name: "start_pts", Type: filters.TypeInt, Description: "Start in timebase units"},
			{Name: "end_pts", Type: filters.TypeInt, Description: "End in timebase units"},
		},
		Inputs:  filters.Static(t),
		Outputs: filters.Static(t),
	}

	if t == video {
		d.Parameters = append(d.Parameters,
			filters.ParameterDescriptor{Name: "start_frame", Type: filters.TypeInt, Description: "Number of the first kept frame", Validation: nonNegative},
			filters.ParameterDescriptor{Name: "end_frame", Type: filters.TypeInt, Description: "Number of the first dropped frame", Validation: nonNegative},
		)
	} else {
		d.Parameters = append(d.Parameters,
			filters.ParameterDescriptor{Name: "start_sample", Type: filters.TypeInt, Description: "Number of the first kept sample", Validation: nonNegative},
			filters.ParameterDescriptor{Name: "end_sample", Type: filters.TypeInt, Description: "Number of the first dropped sample", Validation: nonNegative},
		)
	}

	return d
}
