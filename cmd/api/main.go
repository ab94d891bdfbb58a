// Command api serves the ffgraph HTTP API
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexflint/go-arg"
	"github.com/sirupsen/logrus"

	"github.com/chicogong/ffgraph/pkg/api"
	"github.com/chicogong/ffgraph/pkg/auth"
	"github.com/chicogong/ffgraph/pkg/config"
	"github.com/chicogong/ffgraph/pkg/filters"
	_ "github.com/chicogong/ffgraph/pkg/filters/builtin"
	"github.com/chicogong/ffgraph/pkg/planner"
	"github.com/chicogong/ffgraph/pkg/store"
)

type args struct {
	Config   string `arg:"-c,env:FFGRAPH_CONFIG" help:"YAML config file"`
	Host     string `arg:"env:FFGRAPH_HOST" help:"listen host (overrides config)"`
	Port     int    `arg:"-p,env:FFGRAPH_PORT" help:"listen port (overrides config)"`
	LogLevel string `arg:"--log-level,env:FFGRAPH_LOG_LEVEL" help:"log level (overrides config)"`
}

func (args) Description() string {
	return "Compiles ffmpeg stream graphs and job specs over HTTP"
}

func main() {
	var a args
	arg.MustParse(&a)

	cfg, err := config.Load(a.Config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if a.Host != "" {
		cfg.Server.Host = a.Host
	}
	if a.Port != 0 {
		cfg.Server.Port = a.Port
	}
	if a.LogLevel != "" {
		cfg.Log.Level = a.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %s\n", err)
		os.Exit(1)
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	for _, path := range cfg.Compiler.Catalogues {
		if err := loadCatalogue(path); err != nil {
			return err
		}
		logger.WithField("file", path).Info("Loaded filter catalogue")
	}

	opts := []api.ServerOption{
		api.WithLogger(logger),
		api.WithMaxBodySize(cfg.Server.MaxBodySize),
		api.WithCompilerOptions(cfg.CompilerOptions()...),
		api.WithPlannerOptions(append(cfg.PlannerOptions(), planner.WithLogger(config.Bridge(logger)))...),
	}
	if cfg.Auth.Enabled {
		mw, err := newAuth(cfg.Auth)
		if err != nil {
			return err
		}
		mw.SetLogger(logger)
		opts = append(opts, api.WithAuth(mw))
	}

	server := api.NewServer(store.NewMemoryStore(), opts...)
	defer server.Close()

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.Handler(cfg.Server.CORSOrigins...),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"addr":    httpServer.Addr,
			"filters": filters.GlobalRegistry().Len(),
			"auth":    cfg.Auth.Enabled,
		}).Info("Starting server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errc:
		return err
	case sig := <-quit:
		logger.WithField("signal", sig.String()).Info("Shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

func loadCatalogue(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open catalogue: %w", err)
	}
	defer f.Close()
	if _, err := filters.GlobalRegistry().Load(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func newAuth(cfg config.Auth) (*auth.AuthMiddleware, error) {
	var jwtManager *auth.JWTManager
	if cfg.JWTSecret != "" {
		jwtManager = auth.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration)
	}
	keys := auth.NewAPIKeyManager()
	for _, k := range cfg.APIKeys {
		role := k.Role
		if role == "" {
			role = auth.RoleViewer
		}
		if _, err := keys.Add(k.Key, k.UserID, k.Name, role, nil); err != nil {
			return nil, fmt.Errorf("api key for %s: %w", k.UserID, err)
		}
	}
	return auth.NewAuthMiddleware(jwtManager, keys, cfg.Optional), nil
}
