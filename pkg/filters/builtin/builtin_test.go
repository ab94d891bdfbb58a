package builtin

import (
	"testing"

	"github.com/chicogong/ffgraph/pkg/filters"
	"github.com/chicogong/ffgraph/pkg/schemas"
)

func typing(t *testing.T, name string, opts schemas.Params) (string, string) {
	t.Helper()
	d, err := filters.Get(name)
	if err != nil {
		t.Fatalf("Get(%s): %v", name, err)
	}
	in, out, err := d.Typing(opts)
	if err != nil {
		t.Fatalf("Typing(%s): %v", name, err)
	}
	return in.String(), out.String()
}

func TestBuiltin_Typings(t *testing.T) {
	tests := []struct {
		name    string
		opts    schemas.Params
		wantIn  string
		wantOut string
	}{
		{name: "trim", wantIn: "[video]", wantOut: "[video]"},
		{name: "atrim", wantIn: "[audio]", wantOut: "[audio]"},
		{name: "hflip", wantIn: "[video]", wantOut: "[video]"},
		{name: "overlay", wantIn: "[video,video]", wantOut: "[video]"},
		{name: "color", wantIn: "[]", wantOut: "[video]"},
		{name: "split", wantIn: "[video]", wantOut: "[video,video]"},
		{name: "asplit", opts: schemas.Params{{Key: "outputs", Value: int64(3)}}, wantIn: "[audio]", wantOut: "[audio,audio,audio]"},
		{name: "amix", opts: schemas.Params{{Key: "inputs", Value: "3"}}, wantIn: "[audio,audio,audio]", wantOut: "[audio]"},
		{name: "hstack", wantIn: "[video,video]", wantOut: "[video]"},
		{name: "concat", wantIn: "[video,video]", wantOut: "[video]"},
		{
			name:    "concat",
			opts:    schemas.Params{{Key: "n", Value: int64(2)}, {Key: "v", Value: int64(1)}, {Key: "a", Value: int64(1)}},
			wantIn:  "[video,audio,video,audio]",
			wantOut: "[video,audio]",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in, out := typing(t, tc.name, tc.opts)
			if in != tc.wantIn || out != tc.wantOut {
				t.Fatalf("typing = %s -> %s, want %s -> %s", in, out, tc.wantIn, tc.wantOut)
			}
		})
	}
}

func TestBuiltin_InvalidLayouts(t *testing.T) {
	tests := []struct {
		name string
		opts schemas.Params
	}{
		{name: "split", opts: schemas.Params{{Key: "outputs", Value: int64(0)}}},
		{name: "concat", opts: schemas.Params{{Key: "v", Value: int64(0)}, {Key: "a", Value: int64(0)}}},
		{name: "concat", opts: schemas.Params{{Key: "n", Value: "two"}}},
		{name: "amerge", opts: schemas.Params{{Key: "inputs", Value: int64(-1)}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := filters.Get(tc.name)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if _, _, err := d.Typing(tc.opts); err == nil {
				t.Fatalf("expected typing error for %v", tc.opts)
			}
		})
	}
}

func TestTrim_Parameters(t *testing.T) {
	v := trimDescriptor("trim", video)
	a := trimDescriptor("atrim", audio)

	if _, ok := v.Parameter("start_frame"); !ok {
		t.Fatalf("trim should accept start_frame")
	}
	if _, ok := v.Parameter("start_sample"); ok {
		t.Fatalf("trim should not accept start_sample")
	}
	if _, ok := a.Parameter("end_sample"); !ok {
		t.Fatalf("atrim should accept end_sample")
	}

	ok := schemas.Params{{Key: "start", Value: "00:00:01.5"}, {Key: "duration", Value: float64(4)}}
	if err := filters.ValidateOptions(v, ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bad := schemas.Params{{Key: "start_frame", Value: int64(-2)}}
	if err := filters.ValidateOptions(v, bad); err == nil {
		t.Fatalf("expected error for negative start_frame")
	}
}

func TestScale_Validation(t *testing.T) {
	d, err := filters.Get("scale")
	if err != nil {
		t.Fatalf("Get(scale): %v", err)
	}

	if err := filters.ValidateOptions(d, schemas.Params{{Key: "width", Value: int64(1280)}, {Key: "height", Value: "-2"}, {Key: "flags", Value: "lanczos"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := filters.ValidateOptions(d, schemas.Params{{Key: "flags", Value: "sharp"}}); err == nil {
		t.Fatalf("expected enum error for flags")
	}
}

func TestBuiltin_Categories(t *testing.T) {
	for _, d := range filters.List() {
		if d.Description == "" {
			t.Fatalf("filter %s has no description", d.Name)
		}
		if d.Resolve == nil && (d.Inputs.Dynamic || d.Outputs.Dynamic) {
			t.Fatalf("builtin %s should have a static typing", d.Name)
		}
	}
	if len(filters.ListByCategory(filters.CategoryTimeline)) == 0 {
		t.Fatalf("no timeline filters registered")
	}
}
