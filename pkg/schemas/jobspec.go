package schemas

// JobSpec is a declarative pipeline description that the planner turns into
// a stream graph
type JobSpec struct {
	// Metadata
	JobID string            `json:"job_id,omitempty" yaml:"job_id,omitempty"`
	Tags  map[string]string `json:"tags,omitempty" yaml:"tags,omitempty"`

	// Core Specification
	Inputs     []Input     `json:"inputs" yaml:"inputs"`
	Operations []Operation `json:"operations" yaml:"operations"`
	Outputs    []Output    `json:"outputs" yaml:"outputs"`

	// Global flags
	Overwrite     bool     `json:"overwrite,omitempty" yaml:"overwrite,omitempty"`
	GlobalArgs    []string `json:"global_args,omitempty" yaml:"global_args,omitempty"`
	GlobalOptions Params   `json:"global_options,omitempty" yaml:"global_options,omitempty"`
}

// Input represents an input source
type Input struct {
	ID          string            `json:"id" yaml:"id"`
	Source      string            `json:"source" yaml:"source"`
	Format      string            `json:"format,omitempty" yaml:"format,omitempty"`
	StartOffset *Duration         `json:"start_offset,omitempty" yaml:"start_offset,omitempty"`
	Duration    *Duration         `json:"duration,omitempty" yaml:"duration,omitempty"`
	Options     Params            `json:"options,omitempty" yaml:"options,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Operation represents one filter application.
//
// Input/Inputs reference stream names: an input ID ("main"), an input ID
// with a media selector ("main:v", "main:a") or the output name of another
// operation ("trimmed", or "parts:1" for the second pin of a multi-output
// filter).
type Operation struct {
	Op      string   `json:"op" yaml:"op"`
	Input   string   `json:"input,omitempty" yaml:"input,omitempty"`
	Inputs  []string `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Output  string   `json:"output,omitempty" yaml:"output,omitempty"`
	Outputs []string `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Params  Params   `json:"params,omitempty" yaml:"params,omitempty"`
}

// InputRefs returns Input and Inputs combined
func (o *Operation) InputRefs() []string {
	if o.Input == "" {
		return o.Inputs
	}
	return append([]string{o.Input}, o.Inputs...)
}

// OutputNames returns Output and Outputs combined
func (o *Operation) OutputNames() []string {
	if o.Output == "" {
		return o.Outputs
	}
	return append([]string{o.Output}, o.Outputs...)
}

// Output represents an output destination
type Output struct {
	ID          string            `json:"id" yaml:"id"`
	Destination string            `json:"destination" yaml:"destination"`
	Streams     []string          `json:"streams" yaml:"streams"`
	Format      string            `json:"format,omitempty" yaml:"format,omitempty"`
	Codec       *CodecParams      `json:"codec,omitempty" yaml:"codec,omitempty"`
	Options     Params            `json:"options,omitempty" yaml:"options,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// CodecParams specifies codec settings
type CodecParams struct {
	Video *VideoCodec `json:"video,omitempty" yaml:"video,omitempty"`
	Audio *AudioCodec `json:"audio,omitempty" yaml:"audio,omitempty"`
}

// VideoCodec specifies video codec parameters
type VideoCodec struct {
	Codec       string `json:"codec,omitempty" yaml:"codec,omitempty"`
	Bitrate     string `json:"bitrate,omitempty" yaml:"bitrate,omitempty"`
	CRF         *int   `json:"crf,omitempty" yaml:"crf,omitempty"`
	Preset      string `json:"preset,omitempty" yaml:"preset,omitempty"`
	Profile     string `json:"profile,omitempty" yaml:"profile,omitempty"`
	PixelFormat string `json:"pixel_format,omitempty" yaml:"pixel_format,omitempty"`
}

// AudioCodec specifies audio codec parameters
type AudioCodec struct {
	Codec      string `json:"codec,omitempty" yaml:"codec,omitempty"`
	Bitrate    string `json:"bitrate,omitempty" yaml:"bitrate,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty" yaml:"sample_rate,omitempty"`
	Channels   int    `json:"channels,omitempty" yaml:"channels,omitempty"`
}

// Params maps codec settings onto ffmpeg output options
func (c *CodecParams) Params() Params {
	if c == nil {
		return nil
	}

	var p Params
	if v := c.Video; v != nil {
		if v.Codec != "" {
			p = append(p, Param{Key: "c:v", Value: v.Codec})
		}
		if v.Bitrate != "" {
			p = append(p, Param{Key: "b:v", Value: v.Bitrate})
		}
		if v.CRF != nil {
			p = append(p, Param{Key: "crf", Value: int64(*v.CRF)})
		}
		if v.Preset != "" {
			p = append(p, Param{Key: "preset", Value: v.Preset})
		}
		if v.Profile != "" {
			p = append(p, Param{Key: "profile:v", Value: v.Profile})
		}
		if v.PixelFormat != "" {
			p = append(p, Param{Key: "pix_fmt", Value: v.PixelFormat})
		}
	}
	if a := c.Audio; a != nil {
		if a.Codec != "" {
			p = append(p, Param{Key: "c:a", Value: a.Codec})
		}
		if a.Bitrate != "" {
			p = append(p, Param{Key: "b:a", Value: a.Bitrate})
		}
		if a.SampleRate > 0 {
			p = append(p, Param{Key: "ar", Value: int64(a.SampleRate)})
		}
		if a.Channels > 0 {
			p = append(p, Param{Key: "ac", Value: int64(a.Channels)})
		}
	}
	return p
}
