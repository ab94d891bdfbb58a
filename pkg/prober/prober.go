// Package prober reads stream layouts of media files with ffprobe. The
// planner uses the results to reject selectors that name streams an input
// does not have.
package prober

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/chicogong/ffgraph/pkg/schemas"
)

// ErrFFprobeNotFound is returned when no ffprobe binary is available
var ErrFFprobeNotFound = errors.New("ffprobe not found in PATH")

// RunFunc runs ffprobe and returns its standard output
type RunFunc func(ctx context.Context, binary string, args []string) ([]byte, error)

// Prober probes media files using ffprobe
type Prober struct {
	ffprobePath string
	run         RunFunc
	concurrency int
	logger      logr.Logger
}

// ProberOption is a functional option for Prober
type ProberOption func(*Prober)

// WithFFprobePath sets a custom ffprobe binary path
func WithFFprobePath(path string) ProberOption {
	return func(p *Prober) {
		p.ffprobePath = path
	}
}

// WithRunner replaces process execution, mostly for tests
func WithRunner(run RunFunc) ProberOption {
	return func(p *Prober) {
		p.run = run
	}
}

// WithConcurrency bounds the number of ffprobe processes ProbeAll starts
func WithConcurrency(n int) ProberOption {
	return func(p *Prober) {
		p.concurrency = n
	}
}

// WithLogger sets the logger
func WithLogger(logger logr.Logger) ProberOption {
	return func(p *Prober) {
		p.logger = logger
	}
}

// NewProber creates a new Prober instance
func NewProber(opts ...ProberOption) *Prober {
	p := &Prober{
		ffprobePath: findFFprobe(),
		run:         execRun,
		concurrency: 4,
		logger:      logr.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Available reports whether an ffprobe binary was configured or found
func (p *Prober) Available() bool {
	return p.ffprobePath != ""
}

// Probe probes a media file and returns its stream layout
func (p *Prober) Probe(ctx context.Context, filePath string) (*schemas.MediaInfo, error) {
	if p.ffprobePath == "" {
		return nil, ErrFFprobeNotFound
	}

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	}

	start := time.Now()
	output, err := p.run(ctx, p.ffprobePath, args)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", filePath, err)
	}
	p.logger.V(1).Info("probed", "file", filePath, "elapsed", time.Since(start))

	return Parse(output)
}

// ProbeAll probes several files concurrently. files maps an ID (a job
// input ID) to a local path; the result uses the same keys. The first
// failure cancels the remaining probes.
func (p *Prober) ProbeAll(ctx context.Context, files map[string]string) (map[string]*schemas.MediaInfo, error) {
	results := make([]*schemas.MediaInfo, 0, len(files))
	ids := make([]string, 0, len(files))
	for id := range files {
		ids = append(ids, id)
		results = append(results, nil)
	}

	g, gctx := errgroup.WithContext(ctx)
	if p.concurrency > 0 {
		g.SetLimit(p.concurrency)
	}
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			info, err := p.Probe(gctx, files[id])
			if err != nil {
				return fmt.Errorf("input '%s': %w", id, err)
			}
			results[i] = info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]*schemas.MediaInfo, len(ids))
	for i, id := range ids {
		out[id] = results[i]
	}
	return out, nil
}

func execRun(ctx context.Context, binary string, args []string) ([]byte, error) {
	output, err := exec.CommandContext(ctx, binary, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("ffprobe failed: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("ffprobe execution error: %w", err)
	}
	return output, nil
}

// findFFprobe locates ffprobe in PATH or a few well-known places
func findFFprobe() string {
	candidates := []string{
		"ffprobe",
		"/usr/local/bin/ffprobe",
		"/opt/homebrew/bin/ffprobe",
		"/usr/bin/ffprobe",
	}
	for _, path := range candidates {
		if _, err := exec.LookPath(path); err == nil {
			return path
		}
	}
	return ""
}

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
	StartTime  string `json:"start_time"`
}

type ffprobeStream struct {
	Index     int    `json:"index"`
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`

	Width       int    `json:"width"`
	Height      int    `json:"height"`
	RFrameRate  string `json:"r_frame_rate"`
	PixelFormat string `json:"pix_fmt"`

	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`

	BitRate  string `json:"bit_rate"`
	Duration string `json:"duration"`
}

// Parse converts `ffprobe -print_format json -show_format -show_streams`
// output into MediaInfo. Streams other than audio and video are ignored.
func Parse(data []byte) (*schemas.MediaInfo, error) {
	var output ffprobeOutput
	if err := json.Unmarshal(data, &output); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &schemas.MediaInfo{
		Format: schemas.FormatInfo{
			Filename:  output.Format.Filename,
			Format:    output.Format.FormatName,
			Duration:  parseSeconds(output.Format.Duration),
			Size:      parseInt64(output.Format.Size),
			BitRate:   parseInt64(output.Format.BitRate),
			StartTime: parseSeconds(output.Format.StartTime),
		},
	}

	for _, stream := range output.Streams {
		switch schemas.MediaType(stream.CodecType) {
		case schemas.MediaTypeVideo:
			info.VideoStreams = append(info.VideoStreams, schemas.VideoStream{
				Index:       stream.Index,
				Codec:       stream.CodecName,
				Width:       stream.Width,
				Height:      stream.Height,
				FrameRate:   parseFrameRate(stream.RFrameRate),
				PixelFormat: stream.PixelFormat,
				BitRate:     parseInt64(stream.BitRate),
				Duration:    parseSeconds(stream.Duration),
			})
		case schemas.MediaTypeAudio:
			info.AudioStreams = append(info.AudioStreams, schemas.AudioStream{
				Index:      stream.Index,
				Codec:      stream.CodecName,
				SampleRate: int(parseInt64(stream.SampleRate)),
				Channels:   stream.Channels,
				BitRate:    parseInt64(stream.BitRate),
				Duration:   parseSeconds(stream.Duration),
			})
		}
	}
	return info, nil
}

// parseSeconds parses ffprobe's float seconds; bad values read as zero
func parseSeconds(s string) time.Duration {
	seconds, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

func parseInt64(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseFrameRate parses "30/1", "30000/1001" or a plain number
func parseFrameRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		rate, _ := strconv.ParseFloat(s, 64)
		return rate
	}

	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}
