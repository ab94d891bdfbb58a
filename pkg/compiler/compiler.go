package compiler

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-logr/logr"

	"github.com/chicogong/ffgraph/pkg/graph"
)

// ScriptMode selects how the filter graph reaches ffmpeg
type ScriptMode string

const (
	// ScriptAuto passes the graph inline and moves it to a script file only
	// when the command would exceed the argument length limit
	ScriptAuto ScriptMode = "auto"
	// ScriptAlways always writes the graph to a -filter_complex_script file
	ScriptAlways ScriptMode = "always"
	// ScriptNever always passes the graph inline
	ScriptNever ScriptMode = "never"
)

// ParseScriptMode parses a script mode name; "" means auto
func ParseScriptMode(s string) (ScriptMode, error) {
	switch ScriptMode(strings.ToLower(s)) {
	case "", ScriptAuto:
		return ScriptAuto, nil
	case ScriptAlways:
		return ScriptAlways, nil
	case ScriptNever:
		return ScriptNever, nil
	default:
		return "", fmt.Errorf("unknown script mode '%s' (want auto, always or never)", s)
	}
}

// Checker inspects a validated graph before it is compiled
type Checker interface {
	Check(root graph.Node) error
}

// Compiler turns stream graphs into ffmpeg argument vectors. A Compiler
// holds no per-graph state and may be shared between goroutines.
type Compiler struct {
	binary       string
	autoFix      bool
	scriptMode   ScriptMode
	scriptDir    string
	maxArgLength int
	checkers     []Checker
	logger       logr.Logger
}

// Option configures a Compiler
type Option func(*Compiler)

// WithBinary sets the program name placed first in the command
func WithBinary(binary string) Option {
	return func(c *Compiler) {
		c.binary = binary
	}
}

// WithAutoFix enables or disables split insertion for fanned-out pins
func WithAutoFix(enabled bool) Option {
	return func(c *Compiler) {
		c.autoFix = enabled
	}
}

// WithScriptMode sets the filter graph transport
func WithScriptMode(mode ScriptMode) Option {
	return func(c *Compiler) {
		c.scriptMode = mode
	}
}

// WithScriptDir sets where filter scripts are written. Defaults to the
// system temp directory.
func WithScriptDir(dir string) Option {
	return func(c *Compiler) {
		c.scriptDir = dir
	}
}

// WithMaxArgLength overrides the host argument length limit
func WithMaxArgLength(n int) Option {
	return func(c *Compiler) {
		c.maxArgLength = n
	}
}

// WithChecker adds a check run on every validated graph
func WithChecker(ch Checker) Option {
	return func(c *Compiler) {
		c.checkers = append(c.checkers, ch)
	}
}

// WithLogger sets the logger
func WithLogger(logger logr.Logger) Option {
	return func(c *Compiler) {
		c.logger = logger
	}
}

// New creates a compiler. By default it emits "ffmpeg", auto-fixes fan-out
// and falls back to a script file for oversized graphs.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		binary:       "ffmpeg",
		autoFix:      true,
		scriptMode:   ScriptAuto,
		maxArgLength: DefaultMaxArgLength,
		logger:       logr.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile compiles root with a default compiler
func Compile(root graph.Node, opts ...Option) (*Command, error) {
	return New(opts...).Compile(root)
}

// Compile validates root and renders it as an ffmpeg invocation
func (c *Compiler) Compile(root graph.Node) (*Command, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: got nil", ErrInvalidRoot)
	}
	switch root.Kind() {
	case graph.KindOutput, graph.KindGlobal, graph.KindMerge:
	default:
		return nil, fmt.Errorf("%w: got %s", ErrInvalidRoot, root)
	}

	v := &graph.Validator{AutoFix: c.autoFix, Logger: c.logger}
	fixed, err := v.Validate(root)
	if err != nil {
		return nil, err
	}
	for _, ch := range c.checkers {
		if err := ch.Check(fixed); err != nil {
			return nil, err
		}
	}

	ctx := graph.NewDAGContext(fixed)
	if fo := graph.FanOuts(ctx); len(fo) > 0 {
		// Validate never lets this through; emitting it would be invalid syntax
		label, _ := ctx.NodeLabel(fo[0].Node)
		return nil, &graph.UnresolvedFanOutError{Node: label, Filter: fo[0].Node.Name(), Pin: fo[0].Pin, Consumers: len(fo[0].Edges)}
	}

	e := &emitter{ctx: ctx}
	script, err := e.filterScript()
	if err != nil {
		return nil, err
	}

	inputs := e.inputs()
	outputs, err := e.outputs()
	if err != nil {
		return nil, err
	}
	globals := e.globals()

	cmd := &Command{FilterScript: script}
	assemble := func(filterArgs ...string) []string {
		args := make([]string, 0, 1+len(inputs)+len(filterArgs)+len(outputs)+len(globals))
		args = append(args, c.binary)
		args = append(args, inputs...)
		args = append(args, filterArgs...)
		args = append(args, outputs...)
		return append(args, globals...)
	}

	if script == "" {
		cmd.Args = assemble()
		if err := c.checkLength(cmd.Args); err != nil {
			return nil, err
		}
		return cmd, nil
	}

	mode := c.scriptMode
	if mode == ScriptAuto {
		inline := assemble("-filter_complex", script)
		if commandLength(inline) <= c.maxArgLength {
			cmd.Args = inline
			return cmd, nil
		}
		c.logger.Info("filter graph too long for the command line, using a script file",
			"length", commandLength(inline), "limit", c.maxArgLength)
		mode = ScriptAlways
	}

	if mode == ScriptNever {
		cmd.Args = assemble("-filter_complex", script)
		if err := c.checkLength(cmd.Args); err != nil {
			return nil, err
		}
		return cmd, nil
	}

	path, err := c.writeScript(script)
	if err != nil {
		return nil, err
	}
	cmd.ScriptPath = path
	cmd.Args = assemble("-filter_complex_script", path)
	c.logger.V(1).Info("compiled graph", "nodes", ctx.Len(), "script", path)
	return cmd, nil
}

func (c *Compiler) checkLength(args []string) error {
	if n := commandLength(args); n > c.maxArgLength {
		return &ArgumentLengthExceededError{Length: n, Limit: c.maxArgLength}
	}
	return nil
}

func (c *Compiler) writeScript(script string) (string, error) {
	f, err := os.CreateTemp(c.scriptDir, "ffgraph-*.txt")
	if err != nil {
		return "", fmt.Errorf("failed to create filter script: %w", err)
	}
	if _, err := f.WriteString(script); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write filter script: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write filter script: %w", err)
	}
	return f.Name(), nil
}

// commandLength is the length of the command joined by spaces
func commandLength(args []string) int {
	n := 0
	for _, a := range args {
		n += len(a) + 1
	}
	if n > 0 {
		n--
	}
	return n
}

// Command is a compiled ffmpeg invocation
type Command struct {
	// Args starts with the program name
	Args []string
	// FilterScript is the -filter_complex graph, empty when the graph has
	// no filters
	FilterScript string
	// ScriptPath is set when the graph was written to a file
	ScriptPath string
}

// String renders the command for a POSIX shell
func (c *Command) String() string {
	quoted := make([]string, len(c.Args))
	for i, a := range c.Args {
		quoted[i] = shellQuote(a)
	}
	return strings.Join(quoted, " ")
}

// Cleanup removes the filter script file, if any
func (c *Command) Cleanup() error {
	if c.ScriptPath == "" {
		return nil
	}
	if err := os.Remove(c.ScriptPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove filter script: %w", err)
	}
	return nil
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./:=@%+,", r)) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
