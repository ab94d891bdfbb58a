package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/chicogong/ffgraph/pkg/config"
	"github.com/chicogong/ffgraph/pkg/prober"
	"github.com/chicogong/ffgraph/pkg/schemas"
)

type probeCmd struct {
	Files   []string `arg:"positional,required" help:"media files (paths or file, http(s), s3 URIs)"`
	FFprobe string   `arg:"--ffprobe,env:FFPROBE" help:"ffprobe binary"`
	Jobs    int      `arg:"-j" default:"4" help:"files probed concurrently"`
}

type probeResult struct {
	Streams []schemas.MediaType `json:"streams"`
	Info    *schemas.MediaInfo  `json:"info"`
}

func (x *app) newProber(extra ...prober.ProberOption) *prober.Prober {
	opts := []prober.ProberOption{prober.WithLogger(config.Bridge(x.logger))}
	return prober.NewProber(append(opts, extra...)...)
}

func (x *app) probe(ctx context.Context, c *probeCmd) error {
	dir, err := os.MkdirTemp("", "ffgraph-probe-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	files := make(map[string]string, len(c.Files))
	for i, uri := range c.Files {
		path, err := x.resolver.Fetch(ctx, uri, dir)
		if err != nil {
			return err
		}
		files[strconv.Itoa(i)] = path
	}

	var opts []prober.ProberOption
	if c.FFprobe != "" {
		opts = append(opts, prober.WithFFprobePath(c.FFprobe))
	}
	if c.Jobs > 0 {
		opts = append(opts, prober.WithConcurrency(c.Jobs))
	}
	infos, err := x.newProber(opts...).ProbeAll(ctx, files)
	if err != nil {
		return err
	}

	out := make(map[string]probeResult, len(c.Files))
	for i, uri := range c.Files {
		info := infos[strconv.Itoa(i)]
		out[uri] = probeResult{Streams: info.Streams(), Info: info}
	}
	enc := json.NewEncoder(x.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to write probe results: %w", err)
	}
	return nil
}
