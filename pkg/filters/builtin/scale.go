package builtin

import (
	"github.com/chicogong/ffgraph/pkg/filters"
)

func init() {
	filters.Register(&filters.Descriptor{
		Name:        "scale",
		Category:    filters.CategoryVideo,
		Description: "Scale video to specified resolution",
		Parameters: []filters.ParameterDescriptor{
			{Name: "width", Type: filters.TypeExpression, Description: "Target width (or -1 to maintain aspect ratio)"},
			{Name: "height", Type: filters.TypeExpression, Description: "Target height (or -1 to maintain aspect ratio)"},
			{
				Name:        "flags",
				Type:        filters.TypeEnum,
				Default:     "bicubic",
				Description: "Scaling algorithm",
				Validation: &filters.ValidationRules{
					Enum: []interface{}{"fast_bilinear", "bilinear", "bicubic", "lanczos", "neighbor", "area"},
				},
			},
			{
				Name: "force_original_aspect_ratio",
				Type: filters.TypeEnum,
				Validation: &filters.ValidationRules{
					Enum: []interface{}{"disable", "decrease", "increase"},
				},
			},
		},
		Inputs:  filters.Static(video),
		Outputs: filters.Static(video),
	})

	filters.Register(&filters.Descriptor{
		Name:        "crop",
		Category:    filters.CategoryVideo,
		Description: "Crop the input video to given dimensions",
		Parameters: []filters.ParameterDescriptor{
			{Name: "w", Type: filters.TypeExpression, Description: "Output width"},
			{Name: "h", Type: filters.TypeExpression, Description: "Output height"},
			{Name: "x", Type: filters.TypeExpression, Description: "Horizontal position of the left edge"},
			{Name: "y", Type: filters.TypeExpression, Description: "Vertical position of the top edge"},
		},
		Inputs:  filters.Static(video),
		Outputs: filters.Static(video),
	})

	filters.Register(&filters.Descriptor{
		Name:        "pad",
		Category:    filters.CategoryVideo,
		Description: "Add paddings to the input image",
		Parameters: []filters.ParameterDescriptor{
			{Name: "width", Type: filters.TypeExpression},
			{Name: "height", Type: filters.TypeExpression},
			{Name: "x", Type: filters.TypeExpression},
			{Name: "y", Type: filters.TypeExpression},
			{Name: "color", Type: filters.TypeColor, Default: "black"},
		},
		Inputs:  filters.Static(video),
		Outputs: filters.Static(video),
	})

	filters.Register(&filters.Descriptor{
		Name:        "fps",
		Category:    filters.CategoryVideo,
		Description: "Force constant framerate",
		Parameters: []filters.ParameterDescriptor{
			{Name: "fps", Type: filters.TypeExpression, Default: "25"},
			{
				Name: "round",
				Type: filters.TypeEnum,
				Validation: &filters.ValidationRules{
					Enum: []interface{}{"zero", "inf", "down", "up", "near"},
				},
			},
		},
		Inputs:  filters.Static(video),
		Outputs: filters.Static(video),
	})

	filters.Register(&filters.Descriptor{
		Name:        "transpose",
		Category:    filters.CategoryVideo,
		Description: "Transpose rows with columns in the input video",
		Parameters: []filters.ParameterDescriptor{
			{
				Name: "dir",
				Type: filters.TypeEnum,
				Validation: &filters.ValidationRules{
					Enum: []interface{}{"cclock_flip", "clock", "cclock", "clock_flip", 0, 1, 2, 3},
				},
			},
		},
		Inputs:  filters.Static(video),
		Outputs: filters.Static(video),
	})

	filters.Register(&filters.Descriptor{
		Name:        "format",
		Category:    filters.CategoryVideo,
		Description: "Convert the input video to one of the specified pixel formats",
		Parameters: []filters.ParameterDescriptor{
			{Name: "pix_fmts", Type: filters.TypeString, Required: true},
		},
		Inputs:  filters.Static(video),
		Outputs: filters.Static(video),
	})

	for _, name := range []string{"hflip", "vflip", "null"} {
		filters.Register(&filters.Descriptor{
			Name:        name,
			Category:    filters.CategoryVideo,
			Description: simpleVideoDescriptions[name],
			Inputs:      filters.Static(video),
			Outputs:     filters.Static(video),
		})
	}
}

var simpleVideoDescriptions = map[string]string{
	"hflip": "Horizontally flip the input video",
	"vflip": "Vertically flip the input video",
	"null":  "Pass the video source unchanged to the output",
}
