package schemas

import (
	"encoding/json"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Duration
		wantErr bool
	}{
		{name: "go_duration", in: "1h30m", want: 90 * time.Minute},
		{name: "go_duration_padded", in: "  90s ", want: 90 * time.Second},
		{name: "timecode_hms", in: "01:02:03", want: time.Hour + 2*time.Minute + 3*time.Second},
		{name: "timecode_millis_padding", in: "00:00:01.5", want: 1500 * time.Millisecond},
		{name: "timecode_millis", in: "00:05:30.250", want: 5*time.Minute + 30*time.Second + 250*time.Millisecond},
		{name: "iso8601", in: "PT1H30M", want: 90 * time.Minute},
		{name: "iso8601_fractional_seconds", in: "PT1.5S", want: 1500 * time.Millisecond},
		{name: "iso8601_fractional_minutes", in: "PT1H0.5M", want: time.Hour + 30*time.Second},
		{name: "iso8601_empty", in: "PT", wantErr: true},
		{name: "iso8601_no_parts", in: "PTsoon", wantErr: true},
		{name: "timecode_bad_minutes", in: "00:5:30", wantErr: true},
		{name: "invalid", in: "nope", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDuration(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil (duration=%v)", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("duration mismatch: got=%v want=%v", got, tc.want)
			}
		})
	}
}

func TestDuration_JSON(t *testing.T) {
	var d Duration
	if err := json.Unmarshal([]byte(`"PT2.5S"`), &d); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if d.Duration != 2500*time.Millisecond {
		t.Fatalf("duration mismatch: got=%v want=2.5s", d.Duration)
	}

	b, err := json.Marshal(Duration{90 * time.Second})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(b) != `"1m30s"` {
		t.Fatalf("marshal = %s, want \"1m30s\"", b)
	}

	// JSON numbers are not accepted; only YAML reads bare seconds
	if err := json.Unmarshal([]byte(`12`), &d); err == nil {
		t.Fatalf("expected error for JSON number")
	}
}

func TestDuration_YAML(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		want    time.Duration
		wantErr bool
	}{
		{name: "int_seconds", doc: "d: 90\n", want: 90 * time.Second},
		{name: "float_seconds", doc: "d: 12.5\n", want: 12500 * time.Millisecond},
		{name: "quoted_number_is_not_seconds", doc: "d: \"12\"\n", wantErr: true},
		{name: "timecode", doc: "d: \"00:00:02.5\"\n", want: 2500 * time.Millisecond},
		{name: "iso8601", doc: "d: PT1M\n", want: time.Minute},
		{name: "sequence", doc: "d: [1, 2]\n", wantErr: true},
		{name: "invalid", doc: "d: later\n", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var doc struct {
				D Duration `yaml:"d"`
			}
			err := yaml.Unmarshal([]byte(tc.doc), &doc)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", doc.D.Duration)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if doc.D.Duration != tc.want {
				t.Fatalf("duration mismatch: got=%v want=%v", doc.D.Duration, tc.want)
			}
		})
	}

	out, err := yaml.Marshal(struct {
		D Duration `yaml:"d"`
	}{Duration{1500 * time.Millisecond}})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(out) != "d: 1.5s\n" {
		t.Fatalf("marshal = %q", out)
	}
}
