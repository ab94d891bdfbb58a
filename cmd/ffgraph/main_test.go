package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chicogong/ffgraph/pkg/config"
	"github.com/chicogong/ffgraph/pkg/graph"
)

const flipJob = `
inputs:
  - id: main
    source: in.mp4
operations:
  - op: hflip
    input: main
    output: flipped
outputs:
  - id: flipped
    destination: out.mp4
`

func newTestApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	var out bytes.Buffer
	return newApp(config.Default(), logger, &out), &out
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCompile(t *testing.T) {
	x, out := newTestApp(t)
	dir := t.TempDir()
	job := writeFile(t, dir, "job.yaml", flipJob)

	doc, err := graph.Marshal(graph.MustOutput("copy.mkv", []graph.Stream{graph.MustInput("in.mp4").Stream()}))
	require.NoError(t, err)
	g := writeFile(t, dir, "graph.json", string(doc))

	err = x.compile(context.Background(), &compileCmd{Documents: []string{job, g}, Jobs: 2})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "# "+job, lines[0])
	assert.Equal(t, "ffmpeg -i in.mp4 -filter_complex '[0:v]hflip[s0]' -map '[s0]' out.mp4", lines[1])
	assert.Equal(t, "# "+g, lines[2])
	assert.Equal(t, "ffmpeg -i in.mp4 -map 0 copy.mkv", lines[3])
}

func TestCompile_JSON(t *testing.T) {
	x, out := newTestApp(t)
	job := writeFile(t, t.TempDir(), "job.yaml", flipJob)

	err := x.compile(context.Background(), &compileCmd{Documents: []string{job}, JSON: true})
	require.NoError(t, err)

	var results []compiled
	require.NoError(t, json.Unmarshal(out.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "[0:v]hflip[s0]", results[0].FilterScript)
	assert.Empty(t, results[0].ScriptPath)
}

func TestCompile_ScriptAlways(t *testing.T) {
	x, out := newTestApp(t)
	x.cfg.Compiler.ScriptDir = t.TempDir()
	job := writeFile(t, t.TempDir(), "job.yaml", flipJob)

	err := x.compile(context.Background(), &compileCmd{Documents: []string{job}, Script: "always", JSON: true})
	require.NoError(t, err)

	var results []compiled
	require.NoError(t, json.Unmarshal(out.Bytes(), &results))
	require.NotEmpty(t, results[0].ScriptPath)
	script, err := os.ReadFile(results[0].ScriptPath)
	require.NoError(t, err)
	assert.Equal(t, "[0:v]hflip[s0]", string(script))
	assert.Contains(t, results[0].Args, "-filter_complex_script")
}

func TestCompile_Errors(t *testing.T) {
	x, _ := newTestApp(t)
	dir := t.TempDir()
	job := writeFile(t, dir, "job.yaml", flipJob)

	err := x.compile(context.Background(), &compileCmd{Documents: []string{job, filepath.Join(dir, "missing.yaml")}})
	assert.Error(t, err)

	err = x.compile(context.Background(), &compileCmd{Documents: []string{job}, Script: "sometimes"})
	assert.Error(t, err)

	err = x.compile(context.Background(), &compileCmd{
		Documents: []string{writeFile(t, dir, "ftp.yaml", strings.Replace(flipJob, "in.mp4", "ftp://host/in.mp4", 1))},
		Check:     true,
	})
	assert.Error(t, err)
}

func TestPlan(t *testing.T) {
	x, out := newTestApp(t)
	dir := t.TempDir()
	job := writeFile(t, dir, "job.yaml", flipJob)

	require.NoError(t, x.plan(context.Background(), &planCmd{Job: job}))
	root, err := graph.Unmarshal(out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, graph.KindOutput, root.Kind())

	target := filepath.Join(dir, "graphs", "flip.json")
	require.NoError(t, x.plan(context.Background(), &planCmd{Job: job, Output: target}))
	saved, err := os.ReadFile(target)
	require.NoError(t, err)
	again, err := graph.Unmarshal(saved)
	require.NoError(t, err)
	assert.True(t, graph.Equal(root, again))
}

func TestFilters(t *testing.T) {
	x, out := newTestApp(t)

	require.NoError(t, x.filters(&filtersCmd{Category: "audio"}))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.Greater(t, len(lines), 1)
	for _, l := range lines[1:] {
		assert.Contains(t, l, "audio")
	}

	out.Reset()
	require.NoError(t, x.filters(&filtersCmd{JSON: true}))
	var entries []filterEntry
	require.NoError(t, json.Unmarshal(out.Bytes(), &entries))
	assert.NotEmpty(t, entries)
}
