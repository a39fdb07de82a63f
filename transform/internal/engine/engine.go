package engine

import (
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/druta/ast"
	"github.com/wippyai/druta/errors"
	"github.com/wippyai/druta/transform/internal/ir"
)

// Defaults for the generated names.
const (
	DefaultLocals      = "$$locals"
	DefaultTempPrefix  = "__DrutaTemp_"
	DefaultReturnValue = "self.returnValue"
)

// Matcher decides whether a name belongs to an asynchronous host
// primitive, that is, a callee whose calls may suspend.
type Matcher interface {
	Match(name string) bool
}

// Config configures the transformation engine.
type Config struct {
	Matcher Matcher
	Logger  *zap.Logger
	// Locals is the persistent container declared names are moved into.
	Locals string
	// TempPrefix is prepended to the temp counter.
	TempPrefix string
	// ReturnValue is the dotted path the runtime stores call results in.
	ReturnValue string
}

// Engine runs the rewrite.
//
// The engine is stateless between Transform calls; each call works on
// its own context.
type Engine struct {
	matcher     Matcher
	log         *zap.Logger
	locals      string
	tempPrefix  string
	returnValue []string
}

// New creates a new transformation engine with the given config.
func New(cfg Config) *Engine {
	e := &Engine{
		matcher:    cfg.Matcher,
		log:        cfg.Logger,
		locals:     cfg.Locals,
		tempPrefix: cfg.TempPrefix,
	}
	if e.matcher == nil {
		e.matcher = noMatch{}
	}
	if e.locals == "" {
		e.locals = DefaultLocals
	}
	if e.tempPrefix == "" {
		e.tempPrefix = DefaultTempPrefix
	}
	rv := cfg.ReturnValue
	if rv == "" {
		rv = DefaultReturnValue
	}
	e.returnValue = strings.Split(rv, ".")
	return e
}

// Stats summarises one transform.
type Stats struct {
	Temps        int
	Calls        int
	AsyncCalls   int
	Instructions int
	Locals       int
}

// Result is the outcome of one transform.
type Result struct {
	// Tree is the rewritten compile unit.
	Tree *ast.Toplevel
	// Program is the top-level instruction list.
	Program []*ir.Instruction
	// Locals lists the names moved into the locals container.
	Locals []string
	Stats  Stats
}

// Transform rewrites one compile unit. On failure no partial result is
// returned.
func (e *Engine) Transform(tree *ast.Toplevel) (*Result, error) {
	if tree == nil {
		return nil, errors.InvalidInput(errors.PhaseTransform, "nil tree")
	}
	c := e.newContext()

	hoistVars(tree.Body, c.scope)
	c.log.Debug("declared locals", zap.Strings("names", c.scope.order))

	c.enter("toplevel")
	if err := c.stmts(tree.Body); err != nil {
		return nil, err
	}
	c.leave()

	program, ok := c.frames.Root()
	if !ok {
		return nil, errors.New(errors.PhaseTransform, errors.KindInvalidData).
			Detail("unbalanced frame stack (depth %d)", c.frames.Depth()).
			Build()
	}

	res := &Result{
		Tree:    &ast.Toplevel{Body: ast.Flatten(treeOf(program))},
		Program: program,
		Locals:  c.scope.Names(),
		Stats: Stats{
			Temps:        c.scope.Temps(),
			Calls:        c.calls,
			AsyncCalls:   c.asyncCalls,
			Instructions: ir.Count(program),
			Locals:       len(c.scope.order),
		},
	}
	c.log.Debug("transform complete",
		zap.Int("instructions", res.Stats.Instructions),
		zap.Int("temps", res.Stats.Temps),
		zap.Int("calls", res.Stats.Calls),
		zap.Int("async_calls", res.Stats.AsyncCalls))
	return res, nil
}

func (e *Engine) newContext() *context {
	log := e.log
	if log == nil {
		log = Logger()
	}
	return &context{
		matcher:     e.matcher,
		log:         log,
		scope:       newScope(e.locals, e.tempPrefix),
		frames:      ir.NewFrames(),
		returnValue: e.returnValue,
	}
}

type noMatch struct{}

func (noMatch) Match(string) bool { return false }
