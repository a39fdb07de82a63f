package transform

import (
	"go.uber.org/zap"

	"github.com/wippyai/druta/ast"
	"github.com/wippyai/druta/errors"
	"github.com/wippyai/druta/exec"
	"github.com/wippyai/druta/render"
	"github.com/wippyai/druta/transform/internal/engine"
	"github.com/wippyai/druta/transform/internal/ir"
)

// Defaults for generated names.
const (
	DefaultLocals      = engine.DefaultLocals
	DefaultTempPrefix  = engine.DefaultTempPrefix
	DefaultReturnValue = engine.DefaultReturnValue
)

// Config configures a transform.
type Config struct {
	// Convention identifies asynchronous host primitives.
	// Defaults to DefaultConvention().
	Convention Convention
	// Renderer produces the rewritten source. Defaults to the beautified
	// JavaScript renderer.
	Renderer render.Renderer
	// PayloadRenderer produces instruction payloads. Defaults to the
	// compact JavaScript renderer.
	PayloadRenderer render.Renderer
	Logger          *zap.Logger
	// LocalsName is the persistent container for declared names.
	LocalsName string
	// TempPrefix prefixes generated temps.
	TempPrefix string
	// ReturnValue is the dotted path the runtime stores call results in.
	ReturnValue string
}

func (c Config) withDefaults() Config {
	if c.Convention == nil {
		c.Convention = DefaultConvention()
	}
	if c.Renderer == nil {
		c.Renderer = render.New(render.Config{})
	}
	if c.PayloadRenderer == nil {
		c.PayloadRenderer = render.New(render.Config{Compact: true})
	}
	if c.Logger == nil {
		c.Logger = Logger()
	}
	return c
}

// Stats summarises one transform.
type Stats = engine.Stats

// Result is a transformed compile unit before serialization.
type Result struct {
	// Tree is the rewritten compile unit.
	Tree *ast.Toplevel
	// Locals lists names moved into the locals container.
	Locals  []string
	program []*ir.Instruction
	Stats   Stats
}

// Transform rewrites tree so calls can resume through a continuation
// runtime. The input tree is not modified. Concurrent calls are safe.
func Transform(tree *ast.Toplevel, cfg Config) (*Result, error) {
	cfg = cfg.withDefaults()
	eng := engine.New(engine.Config{
		Matcher:     cfg.Convention,
		Logger:      cfg.Logger,
		Locals:      cfg.LocalsName,
		TempPrefix:  cfg.TempPrefix,
		ReturnValue: cfg.ReturnValue,
	})
	res, err := eng.Transform(tree)
	if err != nil {
		return nil, err
	}
	return &Result{
		Tree:    res.Tree,
		Locals:  res.Locals,
		program: res.Program,
		Stats:   res.Stats,
	}, nil
}

// Serialize converts the result's instructions into Executable Code,
// rendering every payload with r. Nil r uses the compact renderer.
func (r *Result) Serialize(rd render.Renderer) (exec.Code, error) {
	if r == nil {
		return nil, errors.InvalidInput(errors.PhaseSerialize, "nil result")
	}
	if rd == nil {
		rd = render.New(render.Config{Compact: true})
	}
	return serialize(r.program, rd, nil)
}

// Output is the outcome of one compile: rewritten source and executable
// code.
type Output struct {
	Source string
	Code   exec.Code
	Locals []string
	Stats  Stats
}

// Compile transforms tree, serializes its instructions and renders the
// rewritten source. It either fully succeeds or returns no output.
func Compile(tree *ast.Toplevel, cfg Config) (*Output, error) {
	cfg = cfg.withDefaults()
	res, err := Transform(tree, cfg)
	if err != nil {
		return nil, err
	}
	code, err := res.Serialize(cfg.PayloadRenderer)
	if err != nil {
		return nil, err
	}
	src, err := cfg.Renderer.Render(res.Tree)
	if err != nil {
		return nil, err
	}
	cfg.Logger.Debug("compiled",
		zap.Int("instructions", res.Stats.Instructions),
		zap.Int("async_calls", res.Stats.AsyncCalls),
		zap.Int("source_bytes", len(src)))
	return &Output{
		Source: src,
		Code:   code,
		Locals: res.Locals,
		Stats:  res.Stats,
	}, nil
}
