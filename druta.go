package druta

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/druta/ast"
	"github.com/wippyai/druta/cache"
	"github.com/wippyai/druta/config"
	"github.com/wippyai/druta/errors"
	"github.com/wippyai/druta/exec"
	"github.com/wippyai/druta/transform"
)

// Runtime executes compiled code. Implementations suspend at async
// instructions and resume once the host primitive has called back.
type Runtime interface {
	Execute(ctx context.Context, code exec.Code) error
}

// Cache stores compiled output between compiles. *cache.Store
// implements it.
type Cache interface {
	Get(ctx context.Context, key string) (*cache.Entry, bool, error)
	Put(ctx context.Context, key string, e *cache.Entry) error
}

// Compiler compiles tree documents. It is safe for concurrent use.
type Compiler struct {
	cache       Cache
	logger      *zap.Logger
	cfg         transform.Config
	fingerprint string
}

// Option configures a Compiler.
type Option func(*Compiler) error

// WithConfig applies a project configuration.
func WithConfig(c *config.Config) Option {
	return func(cp *Compiler) error {
		if c == nil {
			return nil
		}
		tc, err := c.TransformConfig()
		if err != nil {
			return err
		}
		tc.Logger = cp.cfg.Logger
		cp.cfg = tc
		cp.fingerprint = c.Fingerprint()
		return nil
	}
}

// WithCache enables the compile cache.
func WithCache(c Cache) Option {
	return func(cp *Compiler) error {
		cp.cache = c
		return nil
	}
}

// WithLogger sets the logger for the compiler and its transforms.
func WithLogger(l *zap.Logger) Option {
	return func(cp *Compiler) error {
		if l != nil {
			cp.logger = l
			cp.cfg.Logger = l
		}
		return nil
	}
}

// New creates a Compiler. Without WithConfig it uses config.Default().
func New(opts ...Option) (*Compiler, error) {
	cp := &Compiler{logger: zap.NewNop()}
	if err := WithConfig(config.Default())(cp); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err := opt(cp); err != nil {
			return nil, err
		}
	}
	return cp, nil
}

// Compile decodes a tree document and compiles it.
func (c *Compiler) Compile(doc []byte) (*transform.Output, error) {
	return c.CompileContext(context.Background(), doc)
}

// CompileContext is Compile with a context for cache access. Cache
// failures are logged and never fail the compile. Cache hits carry no
// temp count in Stats.
func (c *Compiler) CompileContext(ctx context.Context, doc []byte) (*transform.Output, error) {
	var key string
	if c.cache != nil {
		key = cache.Key(doc, c.fingerprint)
		e, ok, err := c.cache.Get(ctx, key)
		switch {
		case err != nil:
			c.logger.Warn("cache lookup failed", zap.Error(err))
		case ok:
			c.logger.Debug("compile cache hit", zap.String("key", key))
			return &transform.Output{
				Source: e.Source,
				Code:   e.Code,
				Locals: e.Locals,
				Stats:  statsOf(e.Code, e.Locals),
			}, nil
		}
	}

	tree, err := ast.Decode(doc)
	if err != nil {
		return nil, err
	}
	out, err := transform.Compile(tree, c.cfg)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		err := c.cache.Put(ctx, key, &cache.Entry{
			Source: out.Source,
			Code:   out.Code,
			Locals: out.Locals,
		})
		if err != nil {
			c.logger.Warn("cache store failed", zap.Error(err))
		}
	}
	return out, nil
}

// Run hands input to rt. A []byte or string is compiled as a tree
// document first; *ast.Toplevel is compiled directly; exec.Code and
// *transform.Output go to the runtime unchanged.
func (c *Compiler) Run(ctx context.Context, input any, rt Runtime) error {
	if rt == nil {
		return errors.NotInitialized(errors.PhaseRuntime, "runtime")
	}

	var code exec.Code
	switch in := input.(type) {
	case []byte:
		out, err := c.CompileContext(ctx, in)
		if err != nil {
			return err
		}
		code = out.Code
	case string:
		out, err := c.CompileContext(ctx, []byte(in))
		if err != nil {
			return err
		}
		code = out.Code
	case *ast.Toplevel:
		out, err := transform.Compile(in, c.cfg)
		if err != nil {
			return err
		}
		code = out.Code
	case *transform.Output:
		if in == nil {
			return errors.InvalidInput(errors.PhaseRuntime, "nil output")
		}
		code = in.Code
	case exec.Code:
		code = in
	default:
		return errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
			Value(input).
			Detail("input must be a tree document, a tree, compiled output or executable code").
			Build()
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	c.logger.Debug("executing", zap.Int("instructions", exec.Count(code)))
	return rt.Execute(ctx, code)
}

func statsOf(code exec.Code, locals []string) transform.Stats {
	s := transform.Stats{Locals: len(locals)}
	exec.Walk(code, func(ins exec.Instruction) bool {
		s.Instructions++
		if ins.Cmd() == "call" {
			s.Calls++
			if ins.Suspends() {
				s.AsyncCalls++
			}
		}
		return true
	})
	return s
}
