// Command ffgraph compiles stream graphs and job specs into ffmpeg
// commands
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexflint/go-arg"
	"github.com/sirupsen/logrus"

	"github.com/chicogong/ffgraph/pkg/config"
	"github.com/chicogong/ffgraph/pkg/filters"
	_ "github.com/chicogong/ffgraph/pkg/filters/builtin"
	"github.com/chicogong/ffgraph/pkg/storage"
)

type args struct {
	Config     string   `arg:"-c,env:FFGRAPH_CONFIG" help:"YAML config file"`
	LogLevel   string   `arg:"--log-level,env:FFGRAPH_LOG_LEVEL" help:"log level (overrides config)"`
	Catalogues []string `arg:"--catalogue,separate" help:"extra filter catalogue file, may be repeated"`

	Compile *compileCmd `arg:"subcommand:compile" help:"compile graph documents or job specs"`
	Plan    *planCmd    `arg:"subcommand:plan" help:"turn a job spec into a serialized graph"`
	Filters *filtersCmd `arg:"subcommand:filters" help:"list the filter catalogue"`
	Probe   *probeCmd   `arg:"subcommand:probe" help:"print the stream layout of media files"`
}

func (args) Description() string {
	return "ffgraph builds ffmpeg filter graphs from graph documents and job specs"
}

// app carries what every subcommand needs
type app struct {
	cfg      *config.Config
	logger   *logrus.Logger
	resolver *storage.Resolver
	out      io.Writer
}

func main() {
	var a args
	p := arg.MustParse(&a)
	if p.Subcommand() == nil {
		p.Fail("missing subcommand")
	}

	cfg, err := config.Load(a.Config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if a.LogLevel != "" {
		cfg.Log.Level = a.LogLevel
	}
	cfg.Compiler.Catalogues = append(cfg.Compiler.Catalogues, a.Catalogues...)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %s\n", err)
		os.Exit(1)
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	x := newApp(cfg, logger, os.Stdout)
	if err := x.loadCatalogues(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to load filter catalogue")
	}

	switch {
	case a.Compile != nil:
		err = x.compile(ctx, a.Compile)
	case a.Plan != nil:
		err = x.plan(ctx, a.Plan)
	case a.Filters != nil:
		err = x.filters(a.Filters)
	case a.Probe != nil:
		err = x.probe(ctx, a.Probe)
	}
	if err != nil {
		logger.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}

func newApp(cfg *config.Config, logger *logrus.Logger, out io.Writer) *app {
	return &app{
		cfg:    cfg,
		logger: logger,
		resolver: storage.NewResolver(
			storage.WithS3Config(cfg.Storage.S3),
			storage.WithHTTPClient(&http.Client{Timeout: cfg.Storage.HTTPTimeout}),
		),
		out: out,
	}
}

// loadCatalogues adds the configured catalogue files, which may live in
// any storage backend, to the global registry
func (x *app) loadCatalogues(ctx context.Context) error {
	for _, uri := range x.cfg.Compiler.Catalogues {
		data, err := x.resolver.ReadAll(ctx, uri)
		if err != nil {
			return err
		}
		n, err := filters.GlobalRegistry().Load(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("%s: %w", uri, err)
		}
		x.logger.WithFields(logrus.Fields{"catalogue": uri, "filters": n}).Debug("Loaded filter catalogue")
	}
	return nil
}
