package validator

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/multierr"

	"github.com/chicogong/ffgraph/pkg/graph"
	"github.com/chicogong/ffgraph/pkg/schemas"
	"github.com/chicogong/ffgraph/pkg/storage"
)

// Validator checks the file locators of job specs and graphs before they
// reach ffmpeg: schemes must be allow-listed and http(s) inputs must not
// point into private networks.
type Validator struct {
	lookup         LookupFunc
	schemes        []string
	allowBarePaths bool
}

// Option configures a Validator
type Option func(*Validator)

// WithLookup replaces the DNS resolver used for SSRF checks
func WithLookup(fn LookupFunc) Option {
	return func(v *Validator) {
		v.lookup = fn
	}
}

// WithSchemes replaces the allowed scheme list
func WithSchemes(schemes ...string) Option {
	return func(v *Validator) {
		v.schemes = schemes
	}
}

// WithoutBarePaths requires every locator to carry a scheme
func WithoutBarePaths() Option {
	return func(v *Validator) {
		v.allowBarePaths = false
	}
}

// New creates a new Validator
func New(opts ...Option) *Validator {
	v := &Validator{
		lookup:         DefaultLookup,
		schemes:        storage.AllowedSchemes,
		allowBarePaths: true,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks the structure and locators of a JobSpec
func (v *Validator) Validate(spec *schemas.JobSpec) error {
	if spec == nil {
		return fmt.Errorf("JobSpec cannot be nil")
	}
	if len(spec.Inputs) == 0 {
		return fmt.Errorf("JobSpec must have at least one input")
	}
	if len(spec.Outputs) == 0 {
		return fmt.Errorf("JobSpec must have at least one output")
	}

	var errs error
	seen := make(map[string]bool)
	for i, input := range spec.Inputs {
		if input.ID == "" {
			errs = multierr.Append(errs, fmt.Errorf("input %d: id is required", i))
		} else if seen[input.ID] {
			errs = multierr.Append(errs, fmt.Errorf("input %d: duplicate id '%s'", i, input.ID))
		}
		seen[input.ID] = true

		if err := v.CheckInput(input.Source); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("input %d (%s): %w", i, input.ID, err))
		}
	}

	for i, op := range spec.Operations {
		if op.Op == "" {
			errs = multierr.Append(errs, fmt.Errorf("operation %d: op is required", i))
		}
		if len(op.InputRefs()) == 0 && len(op.OutputNames()) == 0 {
			errs = multierr.Append(errs, fmt.Errorf("operation %d (%s): no inputs or outputs", i, op.Op))
		}
	}

	for i, output := range spec.Outputs {
		if err := v.CheckOutput(output.Destination); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("output %d (%s): %w", i, output.ID, err))
		}
	}
	return errs
}

// Check validates every input and output filename of a graph
func (v *Validator) Check(root graph.Node) error {
	ctx := graph.NewDAGContext(root)

	var errs error
	for _, n := range ctx.Nodes() {
		switch node := n.(type) {
		case *graph.InputNode:
			if err := v.CheckInput(node.Filename()); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("input %s: %w", node.Filename(), err))
			}
		case *graph.OutputNode:
			if err := v.CheckOutput(node.Filename()); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("output %s: %w", node.Filename(), err))
			}
		}
	}
	return errs
}

// CheckInput validates a source locator
func (v *Validator) CheckInput(locator string) error {
	scheme, err := v.scheme(locator)
	if err != nil {
		return err
	}

	// For HTTP/HTTPS URIs, perform SSRF checks
	if scheme == "http" || scheme == "https" {
		if err := validateHTTPURI(context.Background(), locator, v.lookup); err != nil {
			return fmt.Errorf("security check failed: %w", err)
		}
	}
	return nil
}

// CheckOutput validates a destination locator
func (v *Validator) CheckOutput(locator string) error {
	_, err := v.scheme(locator)
	return err
}

func (v *Validator) scheme(locator string) (string, error) {
	if locator == "" {
		return "", fmt.Errorf("locator cannot be empty")
	}

	scheme, err := schemeOf(locator)
	if err != nil {
		return "", err
	}
	if scheme == "" {
		if !v.allowBarePaths {
			return "", fmt.Errorf("locator '%s' must have a scheme", locator)
		}
		return "", nil
	}

	for _, allowed := range v.schemes {
		if scheme == allowed {
			return scheme, nil
		}
	}
	return "", fmt.Errorf("scheme '%s' not allowed", scheme)
}

// schemeOf returns the lower-cased URI scheme, or "" for plain paths.
// Single-letter schemes are Windows drive letters.
func schemeOf(locator string) (string, error) {
	u, err := url.Parse(locator)
	if err != nil {
		if strings.Contains(locator, "://") {
			return "", fmt.Errorf("invalid URI: %w", err)
		}
		return "", nil
	}
	if len(u.Scheme) < 2 {
		return "", nil
	}
	return strings.ToLower(u.Scheme), nil
}
