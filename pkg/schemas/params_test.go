package schemas

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestParams_Normalize(t *testing.T) {
	p := Params{
		{Key: "w", Value: 1280},
		{Key: "h", Value: uint16(720)},
		{Key: "w", Value: 640},
		{Key: "rate", Value: float32(0.5)},
		{Key: "t", Value: 1500 * time.Millisecond},
	}
	got, err := p.Normalize()
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	want := Params{
		{Key: "w", Value: int64(640)},
		{Key: "h", Value: int64(720)},
		{Key: "rate", Value: float64(0.5)},
		{Key: "t", Value: 1.5},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d params, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("param %d = %#v, want %#v", i, got[i], want[i])
		}
	}

	if _, err := (Params{{Key: "", Value: 1}}).Normalize(); err == nil {
		t.Fatalf("expected error for empty key")
	}
	if _, err := (Params{{Key: "x", Value: []int{1}}}).Normalize(); err == nil {
		t.Fatalf("expected error for slice value")
	}
	if _, err := (Params{{Key: "x", Value: uint64(math.MaxUint64)}}).Normalize(); err == nil {
		t.Fatalf("expected overflow error")
	}
}

func TestParams_SetDoesNotMutate(t *testing.T) {
	base := Params{{Key: "a", Value: int64(1)}}
	next := base.Set("a", int64(2)).Set("b", "x")

	if v, _ := base.Get("a"); v != int64(1) {
		t.Fatalf("Set mutated receiver: a=%v", v)
	}
	if keys := next.Keys(); len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("keys = %v", keys)
	}
	if v, _ := next.Get("a"); v != int64(2) {
		t.Fatalf("a = %v, want 2", v)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
	}{
		{in: "PTS-STARTPTS", want: "PTS-STARTPTS"},
		{in: true, want: "true"},
		{in: int64(-3), want: "-3"},
		{in: 0.5, want: "0.5"},
		{in: 1e21, want: "1000000000000000000000"},
		{in: math.Inf(1), want: "inf"},
		{in: math.NaN(), want: "nan"},
	}
	for _, tc := range tests {
		if got := FormatValue(tc.in); got != tc.want {
			t.Fatalf("FormatValue(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParams_JSONKeepsOrder(t *testing.T) {
	var p Params
	if err := json.Unmarshal([]byte(`{"z": 1, "a": 2.5, "m": "x", "b": false}`), &p); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if keys := p.Keys(); keys[0] != "z" || keys[1] != "a" || keys[2] != "m" || keys[3] != "b" {
		t.Fatalf("order lost: %v", keys)
	}
	if v, _ := p.Get("z"); v != int64(1) {
		t.Fatalf("z = %#v, want int64(1)", v)
	}
	if v, _ := p.Get("a"); v != 2.5 {
		t.Fatalf("a = %#v, want 2.5", v)
	}

	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != `{"z":1,"a":2.5,"m":"x","b":false}` {
		t.Fatalf("json = %s", b)
	}

	for _, bad := range []string{`[1]`, `{"a": {"b": 1}}`, `{"a": null}`} {
		if err := json.Unmarshal([]byte(bad), &p); err == nil {
			t.Fatalf("expected error for %s", bad)
		}
	}
}

func TestParams_YAML(t *testing.T) {
	var p Params
	if err := yaml.Unmarshal([]byte("w: 1280\nflags: lanczos\nratio: 0.5\n"), &p); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if keys := p.Keys(); len(keys) != 3 || keys[0] != "w" || keys[2] != "ratio" {
		t.Fatalf("keys = %v", keys)
	}
	if v, _ := p.Get("w"); v != int64(1280) {
		t.Fatalf("w = %#v", v)
	}

	if err := yaml.Unmarshal([]byte("w: [1, 2]\n"), &p); err == nil {
		t.Fatalf("expected error for sequence value")
	}
	if err := yaml.Unmarshal([]byte("w: ~\n"), &p); err == nil {
		t.Fatalf("expected error for null value")
	}
}

func TestMediaType(t *testing.T) {
	for in, want := range map[string]MediaType{"v": MediaTypeVideo, "Audio": MediaTypeAudio, " video ": MediaTypeVideo} {
		got, err := ParseMediaType(in)
		if err != nil || got != want {
			t.Fatalf("ParseMediaType(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseMediaType("subtitle"); err == nil {
		t.Fatalf("expected error for subtitle")
	}

	if MediaTypeAudio.Short() != "a" || MediaTypeVideo.EnumName() != "VIDEO" {
		t.Fatalf("Short/EnumName broken")
	}
	if m, err := MediaTypeFromEnumName("AUDIO"); err != nil || m != MediaTypeAudio {
		t.Fatalf("MediaTypeFromEnumName = %v, %v", m, err)
	}
	if MediaType("data").Valid() {
		t.Fatalf("data should not be valid")
	}
}

func TestDuration_FormatSeconds(t *testing.T) {
	tests := map[time.Duration]string{
		1500 * time.Millisecond: "1.5",
		90 * time.Second:        "90",
		0:                       "0",
	}
	for d, want := range tests {
		if got := (Duration{d}).FormatSeconds(); got != want {
			t.Fatalf("FormatSeconds(%v) = %q, want %q", d, got, want)
		}
	}
}
