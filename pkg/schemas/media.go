package schemas

import (
	"fmt"
	"strings"
)

// MediaType is the media kind carried by a stream or filter port
type MediaType string

const (
	MediaTypeVideo MediaType = "video"
	MediaTypeAudio MediaType = "audio"
)

// ParseMediaType accepts "video", "audio" and their short forms "v" and "a"
func ParseMediaType(s string) (MediaType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "video", "v":
		return MediaTypeVideo, nil
	case "audio", "a":
		return MediaTypeAudio, nil
	default:
		return "", fmt.Errorf("unknown media type: %q", s)
	}
}

// Short returns the stream specifier letter ("v" or "a")
func (m MediaType) Short() string {
	switch m {
	case MediaTypeVideo:
		return "v"
	case MediaTypeAudio:
		return "a"
	default:
		return ""
	}
}

// EnumName returns the upper-case enumeration name used in serialized graphs
func (m MediaType) EnumName() string {
	return strings.ToUpper(string(m))
}

// Valid reports whether m is a known media type
func (m MediaType) Valid() bool {
	return m == MediaTypeVideo || m == MediaTypeAudio
}

// MediaTypeFromEnumName is the inverse of EnumName
func MediaTypeFromEnumName(name string) (MediaType, error) {
	switch name {
	case "VIDEO":
		return MediaTypeVideo, nil
	case "AUDIO":
		return MediaTypeAudio, nil
	default:
		return "", fmt.Errorf("unknown media type enum: %q", name)
	}
}
