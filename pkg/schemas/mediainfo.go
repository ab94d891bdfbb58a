package schemas

import "time"

// MediaInfo contains detected media properties
type MediaInfo struct {
	Format       FormatInfo    `json:"format"`
	VideoStreams []VideoStream `json:"video_streams,omitempty"`
	AudioStreams []AudioStream `json:"audio_streams,omitempty"`
}

// FormatInfo contains format-level information
type FormatInfo struct {
	Filename  string        `json:"filename,omitempty"`
	Format    string        `json:"format,omitempty"`
	Duration  time.Duration `json:"duration"`
	Size      int64         `json:"size"`
	BitRate   int64         `json:"bit_rate,omitempty"`
	StartTime time.Duration `json:"start_time,omitempty"`
}

// VideoStream represents a video stream
type VideoStream struct {
	Index       int           `json:"index"`
	Codec       string        `json:"codec"`
	Width       int           `json:"width"`
	Height      int           `json:"height"`
	FrameRate   float64       `json:"frame_rate"`
	PixelFormat string        `json:"pixel_format,omitempty"`
	BitRate     int64         `json:"bit_rate,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
}

// AudioStream represents an audio stream
type AudioStream struct {
	Index      int           `json:"index"`
	Codec      string        `json:"codec"`
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"`
	BitRate    int64         `json:"bit_rate,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
}

// Streams returns the media types present, video first
func (m *MediaInfo) Streams() []MediaType {
	var out []MediaType
	if len(m.VideoStreams) > 0 {
		out = append(out, MediaTypeVideo)
	}
	if len(m.AudioStreams) > 0 {
		out = append(out, MediaTypeAudio)
	}
	return out
}

// HasStream reports whether the media carries at least one stream of type t
func (m *MediaInfo) HasStream(t MediaType) bool {
	switch t {
	case MediaTypeVideo:
		return len(m.VideoStreams) > 0
	case MediaTypeAudio:
		return len(m.AudioStreams) > 0
	default:
		return false
	}
}
