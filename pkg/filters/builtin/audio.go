package builtin

import (
	"github.com/chicogong/ffgraph/pkg/filters"
)

func init() {
	filters.Register(&filters.Descriptor{
		Name:        "volume",
		Category:    filters.CategoryAudio,
		Description: "Change input volume",
		Parameters: []filters.ParameterDescriptor{
			{Name: "volume", Type: filters.TypeExpression, Default: "1.0"},
			{
				Name: "precision",
				Type: filters.TypeEnum,
				Validation: &filters.ValidationRules{
					Enum: []interface{}{"fixed", "float", "double"},
				},
			},
		},
		Inputs:  filters.Static(audio),
		Outputs: filters.Static(audio),
	})

	filters.Register(&filters.Descriptor{
		Name:        "amix",
		Category:    filters.CategoryAudio,
		Description: "Audio mixing",
		Parameters: []filters.ParameterDescriptor{
			{Name: "inputs", Type: filters.TypeInt, Default: 2, Validation: &filters.ValidationRules{Min: filters.Bound(1)}},
			{
				Name: "duration",
				Type: filters.TypeEnum,
				Validation: &filters.ValidationRules{
					Enum: []interface{}{"longest", "shortest", "first"},
				},
			},
			{Name: "dropout_transition", Type: filters.TypeFloat, Validation: &filters.ValidationRules{Min: filters.Bound(0)}},
			{Name: "weights", Type: filters.TypeString},
		},
		Resolve: countedInputs(audio, audio),
	})

	filters.Register(&filters.Descriptor{
		Name:        "amerge",
		Category:    filters.CategoryAudio,
		Description: "Merge two or more audio streams into a single multi-channel stream",
		Parameters: []filters.ParameterDescriptor{
			{Name: "inputs", Type: filters.TypeInt, Default: 2, Validation: &filters.ValidationRules{Min: filters.Bound(1)}},
		},
		Resolve: countedInputs(audio, audio),
	})

	filters.Register(&filters.Descriptor{
		Name:        "aresample",
		Category:    filters.CategoryAudio,
		Description: "Resample audio data",
		Parameters: []filters.ParameterDescriptor{
			{Name: "sample_rate", Type: filters.TypeInt, Validation: &filters.ValidationRules{Min: filters.Bound(1)}},
		},
		Inputs:  filters.Static(audio),
		Outputs: filters.Static(audio),
	})

	filters.Register(&filters.Descriptor{
		Name:        "atempo",
		Category:    filters.CategoryAudio,
		Description: "Adjust audio tempo",
		Parameters: []filters.ParameterDescriptor{
			{Name: "tempo", Type: filters.TypeFloat, Default: 1.0, Validation: &filters.ValidationRules{Min: filters.Bound(0.5), Max: filters.Bound(100)}},
		},
		Inputs:  filters.Static(audio),
		Outputs: filters.Static(audio),
	})

	filters.Register(&filters.Descriptor{
		Name:        "loudnorm",
		Category:    filters.CategoryAudio,
		Description: "EBU R128 loudness normalization",
		Parameters: []filters.ParameterDescriptor{
			{Name: "I", Type: filters.TypeFloat, Validation: &filters.ValidationRules{Min: filters.Bound(-70), Max: filters.Bound(-5)}},
			{Name: "LRA", Type: filters.TypeFloat, Validation: &filters.ValidationRules{Min: filters.Bound(1), Max: filters.Bound(50)}},
			{Name: "TP", Type: filters.TypeFloat, Validation: &filters.ValidationRules{Min: filters.Bound(-9), Max: filters.Bound(0)}},
		},
		Inputs:  filters.Static(audio),
		Outputs: filters.Static(audio),
	})

	filters.Register(&filters.Descriptor{
		Name:        "anull",
		Category:    filters.CategoryAudio,
		Description: "Pass the source unchanged to the output",
		Inputs:      filters.Static(audio),
		Outputs:     filters.Static(audio),
	})

	filters.Register(&filters.Descriptor{
		Name:        "anullsrc",
		Category:    filters.CategorySource,
		Description: "Null audio source, return empty audio frames",
		Parameters: []filters.ParameterDescriptor{
			{Name: "channel_layout", Type: filters.TypeString, Default: "stereo"},
			{Name: "sample_rate", Type: filters.TypeInt, Default: 44100},
		},
		Inputs:  filters.Static(),
		Outputs: filters.Static(audio),
	})
}
