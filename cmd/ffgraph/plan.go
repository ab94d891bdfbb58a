package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/chicogong/ffgraph/pkg/graph"
	"github.com/chicogong/ffgraph/pkg/planner"
	"github.com/chicogong/ffgraph/pkg/schemas"
)

type planCmd struct {
	Job    string `arg:"positional,required" help:"job spec (YAML or JSON)"`
	Output string `arg:"-o" help:"where to write the serialized graph; stdout when empty"`
	Probe  bool   `arg:"--probe" help:"probe the inputs and reject selectors naming missing streams"`
}

func (x *app) plan(ctx context.Context, c *planCmd) error {
	data, err := x.resolver.ReadAll(ctx, c.Job)
	if err != nil {
		return err
	}
	spec, err := planner.ParseSpec(data)
	if err != nil {
		return fmt.Errorf("%s: %w", c.Job, err)
	}

	var extra []planner.Option
	if c.Probe {
		infos, err := x.probeInputs(ctx, spec)
		if err != nil {
			return err
		}
		extra = append(extra, planner.WithMediaInfo(infos))
	}

	plan, err := x.newPlanner(extra...).Plan(ctx, spec)
	if err != nil {
		return fmt.Errorf("%s: %w", c.Job, err)
	}
	x.logger.WithFields(logrus.Fields{
		"job":     plan.JobID,
		"stages":  len(plan.Stages),
		"outputs": len(plan.Outputs),
		"unused":  plan.Unused,
	}).Info("Planned job")

	doc, err := graph.Marshal(plan.Root)
	if err != nil {
		return err
	}
	if c.Output == "" {
		_, err = fmt.Fprintln(x.out, string(doc))
		return err
	}
	return x.resolver.WriteAll(ctx, c.Output, doc)
}

// probeInputs downloads remote inputs to a temp dir and probes all of
// them
func (x *app) probeInputs(ctx context.Context, spec *schemas.JobSpec) (map[string]*schemas.MediaInfo, error) {
	dir, err := os.MkdirTemp("", "ffgraph-probe-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	files := make(map[string]string, len(spec.Inputs))
	for _, in := range spec.Inputs {
		path, err := x.resolver.Fetch(ctx, in.Source, dir)
		if err != nil {
			return nil, fmt.Errorf("input '%s': %w", in.ID, err)
		}
		files[in.ID] = path
	}
	return x.newProber().ProbeAll(ctx, files)
}
