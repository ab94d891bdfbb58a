package filters

// ParameterDescriptor describes a filter option
type ParameterDescriptor struct {
	Name        string        `json:"name" yaml:"name"`
	Type        ParameterType `json:"type" yaml:"type"`
	Required    bool          `json:"required,omitempty" yaml:"required,omitempty"`
	Default     interface{}   `json:"default,omitempty" yaml:"default,omitempty"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`

	// Validation rules
	Validation *ValidationRules `json:"validation,omitempty" yaml:"validation,omitempty"`
}

// ParameterType represents option type
type ParameterType string

const (
	TypeString     ParameterType = "string"
	TypeInt        ParameterType = "int"
	TypeFloat      ParameterType = "float"
	TypeBool       ParameterType = "bool"
	TypeDuration   ParameterType = "duration"   // "1h30m", "00:05:30", 12.5
	TypeTimecode   ParameterType = "timecode"   // "00:05:30.500"
	TypeResolution ParameterType = "resolution" // "1920x1080"
	TypeEnum       ParameterType = "enum"       // One of predefined values
	TypeExpression ParameterType = "expression" // ffmpeg expression, e.g. "PTS-STARTPTS" or "iw/2"
	TypeColor      ParameterType = "color"      // "black", "0xRRGGBB"
)

// ValidationRules defines option validation rules
type ValidationRules struct {
	// Numeric constraints
	Min *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty"`

	// String constraints
	MinLength *int    `json:"min_length,omitempty" yaml:"min_length,omitempty"`
	MaxLength *int    `json:"max_length,omitempty" yaml:"max_length,omitempty"`
	Pattern   *string `json:"pattern,omitempty" yaml:"pattern,omitempty"`

	// Enum values
	Enum []interface{} `json:"enum,omitempty" yaml:"enum,omitempty"`

	// Custom validator
	CustomValidator func(interface{}) error `json:"-" yaml:"-"`
}

// Resolution represents video resolution
type Resolution struct {
	Width  int
	Height int
}

// Bound returns a pointer for use as a Min or Max rule
func Bound(v float64) *float64 { return &v }
