package storage

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURI(t *testing.T) {
	tests := []struct {
		uri     string
		scheme  string
		path    string
		wantErr bool
	}{
		{"https://example.com/graph.json", "https", "example.com/graph.json", false},
		{"s3://bucket/key/graph.json", "s3", "bucket/key/graph.json", false},
		{"S3://bucket/job.yaml", "s3", "bucket/job.yaml", false},
		{"file:///tmp/graph.json", "file", "/tmp/graph.json", false},
		{"gs://bucket/object", "gs", "bucket/object", false},
		{"invalid-uri", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			scheme, path, err := ParseURI(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.scheme, scheme)
				assert.Equal(t, tt.path, path)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	for _, uri := range []string{"s3://bucket/a.json", "https://example.com/x", "file:///tmp/x.json"} {
		got, err := Normalize(uri)
		require.NoError(t, err)
		assert.Equal(t, uri, got)
	}

	dir := t.TempDir()
	got, err := Normalize(filepath.Join(dir, "graph.json"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "file://"), got)
	assert.True(t, strings.HasSuffix(got, "/graph.json"), got)

	rel, err := Normalize("graph.json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "file://"), rel)

	_, err = Normalize("")
	assert.Error(t, err)
}

func TestHasScheme(t *testing.T) {
	tests := map[string]bool{
		"s3://bucket/key":  true,
		"http://host/path": true,
		"git+ssh://x":      true,
		"C:\\media\\a.mp4": false,
		"c:/media/a.mp4":   false,
		"graph.json":       false,
		"/abs/graph.json":  false,
		"1abc://x":         false,
		"a b://x":          false,
	}
	for in, want := range tests {
		assert.Equal(t, want, hasScheme(in), in)
	}
}

func TestIsAllowedScheme(t *testing.T) {
	tests := []struct {
		scheme  string
		allowed bool
	}{
		{"https", true},
		{"http", true},
		{"s3", true},
		{"gs", true},
		{"file", true},
		{"ftp", false},
		{"gopher", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.scheme, func(t *testing.T) {
			assert.Equal(t, tt.allowed, IsAllowedScheme(tt.scheme))
		})
	}
}
