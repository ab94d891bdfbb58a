package main

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/chicogong/ffgraph/pkg/compiler"
	"github.com/chicogong/ffgraph/pkg/compiler/validator"
	"github.com/chicogong/ffgraph/pkg/config"
	"github.com/chicogong/ffgraph/pkg/planner"
)

type compileCmd struct {
	Documents []string `arg:"positional,required" help:"graph documents or job specs (paths or file, http(s), s3 URIs)"`
	Script    string   `arg:"--script" help:"filter graph transport: auto, always or never (overrides config)"`
	NoAutoFix bool     `arg:"--no-auto-fix" help:"fail on fanned-out pins instead of inserting splits"`
	Check     bool     `arg:"--check" help:"apply the locator allow-list and SSRF checks"`
	JSON      bool     `arg:"--json" help:"print commands as JSON argument arrays"`
	Jobs      int      `arg:"-j" default:"4" help:"documents compiled concurrently"`
}

type compiled struct {
	Document     string   `json:"document"`
	Args         []string `json:"args"`
	FilterScript string   `json:"filter_script,omitempty"`
	ScriptPath   string   `json:"script_path,omitempty"`
}

func (x *app) compileOptions(c *compileCmd) ([]compiler.Option, error) {
	opts := x.cfg.CompilerOptions()
	opts = append(opts, compiler.WithLogger(config.Bridge(x.logger)))
	if c.Script != "" {
		mode, err := compiler.ParseScriptMode(c.Script)
		if err != nil {
			return nil, err
		}
		opts = append(opts, compiler.WithScriptMode(mode))
	}
	if c.NoAutoFix {
		opts = append(opts, compiler.WithAutoFix(false))
	}
	if c.Check {
		opts = append(opts, compiler.WithChecker(validator.New()))
	}
	return opts, nil
}

// compile reads and compiles every document concurrently. Results are
// printed in argument order once all of them succeeded.
func (x *app) compile(ctx context.Context, c *compileCmd) error {
	opts, err := x.compileOptions(c)
	if err != nil {
		return err
	}
	comp := compiler.New(opts...)
	p := x.newPlanner()

	results := make([]*compiled, len(c.Documents))
	g, gctx := errgroup.WithContext(ctx)
	if c.Jobs > 0 {
		g.SetLimit(c.Jobs)
	}
	for i, uri := range c.Documents {
		i, uri := i, uri
		g.Go(func() error {
			data, err := x.resolver.ReadAll(gctx, uri)
			if err != nil {
				return err
			}
			root, err := p.Load(gctx, data)
			if err != nil {
				return fmt.Errorf("%s: %w", uri, err)
			}
			cmd, err := comp.Compile(root)
			if err != nil {
				return fmt.Errorf("%s: %w", uri, err)
			}
			results[i] = &compiled{
				Document:     uri,
				Args:         cmd.Args,
				FilterScript: cmd.FilterScript,
				ScriptPath:   cmd.ScriptPath,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// scripts of documents that did compile are useless now
		for _, r := range results {
			if r != nil && r.ScriptPath != "" {
				(&compiler.Command{ScriptPath: r.ScriptPath}).Cleanup()
			}
		}
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(x.out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	for _, r := range results {
		if len(results) > 1 {
			fmt.Fprintf(x.out, "# %s\n", r.Document)
		}
		fmt.Fprintln(x.out, (&compiler.Command{Args: r.Args}).String())
	}
	return nil
}

func (x *app) newPlanner(extra ...planner.Option) *planner.Planner {
	opts := append(x.cfg.PlannerOptions(), planner.WithLogger(config.Bridge(x.logger)))
	return planner.NewPlanner(append(opts, extra...)...)
}
