// Package config loads the YAML configuration shared by the ffgraph
// binaries. Every field has a default, so an empty or missing file yields
// a working setup.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/chicogong/ffgraph/pkg/compiler"
	"github.com/chicogong/ffgraph/pkg/planner"
	"github.com/chicogong/ffgraph/pkg/storage"
)

// Config is the top-level configuration
type Config struct {
	Compiler Compiler `yaml:"compiler"`
	Planner  Planner  `yaml:"planner"`
	Server   Server   `yaml:"server"`
	Log      Log      `yaml:"log"`
	Storage  Storage  `yaml:"storage"`
	Auth     Auth     `yaml:"auth"`
}

// Compiler configures command generation
type Compiler struct {
	// Program name placed first in every command
	Binary string `yaml:"binary"`

	// Insert split/asplit for fanned-out filter pins
	AutoFix bool `yaml:"auto_fix"`

	// Filter graph transport: auto, always or never
	Script string `yaml:"script"`

	// Where filter scripts are written; empty means the temp dir
	ScriptDir string `yaml:"script_dir"`

	// Argument length limit; 0 means the host default
	MaxArgLength int `yaml:"max_arg_length"`

	// Extra filter catalogue files (YAML or JSON) loaded at startup
	Catalogues []string `yaml:"catalogues"`
}

// Planner configures job spec planning
type Planner struct {
	// Reject operations the catalogue does not know
	StrictFilters bool `yaml:"strict_filters"`

	// Check operation params against the catalogue
	ValidateOptions bool `yaml:"validate_options"`
}

// Server configures the HTTP API
type Server struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodySize     int64         `yaml:"max_body_size"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

// Addr is host:port
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Log configures logrus
type Log struct {
	// panic, fatal, error, warn, info, debug or trace
	Level string `yaml:"level"`
	// text or json
	Format string `yaml:"format"`
}

// Storage configures the document backends
type Storage struct {
	S3 storage.S3Config `yaml:"s3"`
	// Timeout for http(s) document fetches
	HTTPTimeout time.Duration `yaml:"http_timeout"`
}

// Auth configures API authentication. With Enabled false every request
// is served anonymously.
type Auth struct {
	Enabled bool `yaml:"enabled"`
	// Let requests without credentials through; invalid credentials are
	// still rejected
	Optional      bool          `yaml:"optional"`
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenDuration time.Duration `yaml:"token_duration"`
	APIKeys       []APIKey      `yaml:"api_keys"`
}

// APIKey is a static key granted to a user
type APIKey struct {
	Key    string `yaml:"key"`
	UserID string `yaml:"user_id"`
	Name   string `yaml:"name"`
	Role   string `yaml:"role"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Compiler: Compiler{
			Binary:  "ffmpeg",
			AutoFix: true,
			Script:  string(compiler.ScriptAuto),
		},
		Server: Server{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBodySize:     storage.MaxDocumentSize,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Storage: Storage{
			HTTPTimeout: 30 * time.Second,
		},
		Auth: Auth{
			TokenDuration: 24 * time.Hour,
		},
	}
}

// Parse reads YAML over the defaults. Unknown keys are errors.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Load reads a config file. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every invalid setting
func (c *Config) Validate() error {
	var errs error

	if c.Compiler.Binary == "" {
		errs = multierr.Append(errs, fmt.Errorf("compiler.binary is required"))
	}
	if _, err := compiler.ParseScriptMode(c.Compiler.Script); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("compiler.script: %w", err))
	}
	if c.Compiler.MaxArgLength < 0 {
		errs = multierr.Append(errs, fmt.Errorf("compiler.max_arg_length must not be negative"))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = multierr.Append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.MaxBodySize <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("server.max_body_size must be positive"))
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = multierr.Append(errs, fmt.Errorf("log.format must be text or json, got '%s'", c.Log.Format))
	}

	if c.Auth.Enabled {
		if c.Auth.JWTSecret == "" && len(c.Auth.APIKeys) == 0 {
			errs = multierr.Append(errs, fmt.Errorf("auth is enabled but neither auth.jwt_secret nor auth.api_keys is set"))
		}
		if c.Auth.JWTSecret != "" && c.Auth.TokenDuration <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("auth.token_duration must be positive"))
		}
		for i, k := range c.Auth.APIKeys {
			if k.Key == "" || k.UserID == "" {
				errs = multierr.Append(errs, fmt.Errorf("auth.api_keys[%d]: key and user_id are required", i))
			}
		}
	}
	return errs
}

// CompilerOptions converts the compiler section to compiler options.
// Call Validate first; an invalid script mode falls back to auto.
func (c *Config) CompilerOptions() []compiler.Option {
	mode, err := compiler.ParseScriptMode(c.Compiler.Script)
	if err != nil {
		mode = compiler.ScriptAuto
	}
	opts := []compiler.Option{
		compiler.WithBinary(c.Compiler.Binary),
		compiler.WithAutoFix(c.Compiler.AutoFix),
		compiler.WithScriptMode(mode),
	}
	if c.Compiler.ScriptDir != "" {
		opts = append(opts, compiler.WithScriptDir(c.Compiler.ScriptDir))
	}
	if c.Compiler.MaxArgLength > 0 {
		opts = append(opts, compiler.WithMaxArgLength(c.Compiler.MaxArgLength))
	}
	return opts
}

// PlannerOptions converts the planner section to planner options
func (c *Config) PlannerOptions() []planner.Option {
	var opts []planner.Option
	if c.Planner.StrictFilters {
		opts = append(opts, planner.WithStrictFilters())
	}
	if c.Planner.ValidateOptions {
		opts = append(opts, planner.WithOptionValidation())
	}
	return opts
}

// NewLogger builds a logrus logger from the log section
func (c *Config) NewLogger() (*logrus.Logger, error) {
	logger := logrus.New()
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)
	if c.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}
