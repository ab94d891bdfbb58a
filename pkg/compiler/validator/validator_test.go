package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chicogong/ffgraph/pkg/graph"
	"github.com/chicogong/ffgraph/pkg/schemas"
)

func newTestValidator(opts ...Option) *Validator {
	lookup := fakeLookup(map[string]string{"example.com": "93.184.216.34"})
	return New(append([]Option{WithLookup(lookup)}, opts...)...)
}

func TestValidator_Validate_ValidSpec(t *testing.T) {
	spec := &schemas.JobSpec{
		Inputs: []schemas.Input{
			{ID: "video1", Source: "https://example.com/video.mp4"},
		},
		Operations: []schemas.Operation{
			{Op: "trim", Input: "video1:v", Params: schemas.Params{{Key: "start", Value: "00:00:10"}}, Output: "trimmed"},
		},
		Outputs: []schemas.Output{
			{ID: "out", Destination: "file:///tmp/output.mp4", Streams: []string{"trimmed"}},
		},
	}

	err := newTestValidator().Validate(spec)
	assert.NoError(t, err)
}

func TestValidator_Validate_EmptyInputs(t *testing.T) {
	spec := &schemas.JobSpec{}

	err := newTestValidator().Validate(spec)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "at least one input")
}

func TestValidator_Validate_EmptyOutputs(t *testing.T) {
	spec := &schemas.JobSpec{
		Inputs: []schemas.Input{
			{ID: "video1", Source: "in.mp4"},
		},
	}

	err := newTestValidator().Validate(spec)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "at least one output")
}

func TestValidator_Validate_InvalidScheme(t *testing.T) {
	spec := &schemas.JobSpec{
		Inputs: []schemas.Input{
			{ID: "video1", Source: "ftp://example.com/video.mp4"}, // ftp not allowed
		},
		Outputs: []schemas.Output{
			{ID: "out", Destination: "file:///tmp/output.mp4", Streams: []string{"video1"}},
		},
	}

	err := newTestValidator().Validate(spec)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "scheme 'ftp' not allowed")
}

func TestValidator_Validate_SSRF_Protection(t *testing.T) {
	spec := &schemas.JobSpec{
		Inputs: []schemas.Input{
			{ID: "video1", Source: "http://127.0.0.1/internal.mp4"},
		},
		Outputs: []schemas.Output{
			{ID: "out", Destination: "out.mp4", Streams: []string{"video1"}},
		},
	}

	err := newTestValidator().Validate(spec)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "localhost")
}

func TestValidator_Validate_CollectsAllErrors(t *testing.T) {
	spec := &schemas.JobSpec{
		Inputs: []schemas.Input{
			{ID: "a", Source: "in.mp4"},
			{ID: "a", Source: "gopher://x/y"},
		},
		Operations: []schemas.Operation{{Input: "a"}},
		Outputs: []schemas.Output{
			{ID: "out", Destination: ""},
		},
	}

	err := newTestValidator().Validate(spec)
	require.Error(t, err)
	for _, want := range []string{"duplicate id 'a'", "scheme 'gopher' not allowed", "op is required", "locator cannot be empty"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidator_BarePaths(t *testing.T) {
	v := newTestValidator()
	assert.NoError(t, v.CheckInput("clips/in.mp4"))
	assert.NoError(t, v.CheckInput(`C:\media\in.mp4`))
	assert.NoError(t, v.CheckOutput("/tmp/out put.mp4"))

	strict := newTestValidator(WithoutBarePaths())
	assert.Error(t, strict.CheckInput("clips/in.mp4"))
	assert.NoError(t, strict.CheckInput("file:///clips/in.mp4"))
}

func TestValidator_WithSchemes(t *testing.T) {
	v := newTestValidator(WithSchemes("file"))
	assert.NoError(t, v.CheckInput("file:///in.mp4"))
	assert.Error(t, v.CheckInput("s3://bucket/in.mp4"))
}

func TestValidator_CheckGraph(t *testing.T) {
	good := graph.MustInput("https://example.com/in.mp4")
	bad := graph.MustInput("http://192.168.0.10/in.mp4")
	out := graph.MustOutput("sftp://host/out.mp4", []graph.Stream{good.Video(), bad.Audio()})

	err := newTestValidator().Check(out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input http://192.168.0.10/in.mp4")
	assert.Contains(t, err.Error(), "private network")
	assert.Contains(t, err.Error(), "scheme 'sftp' not allowed")
	assert.NotContains(t, err.Error(), "example.com")

	ok := graph.MustOutput("out.mp4", []graph.Stream{good.Video()})
	assert.NoError(t, newTestValidator().Check(ok))
}
