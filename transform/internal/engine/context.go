package engine

import (
	"go.uber.org/zap"

	"github.com/wippyai/druta/ast"
	"github.com/wippyai/druta/errors"
	"github.com/wippyai/druta/transform/internal/ir"
)

// signal is the async state of the node just walked.
type signal struct {
	// async: the node split, its value lives in a temp (or an assignment
	// target) produced later than its own position.
	async bool
}

// context is the per-invocation state of one transform.
type context struct {
	matcher     Matcher
	log         *zap.Logger
	scope       *scope
	frames      *ir.Frames
	path        []string
	returnValue []string
	sig         signal
	calls       int
	asyncCalls  int
}

func (c *context) enter(seg string) { c.path = append(c.path, seg) }
func (c *context) leave()           { c.path = c.path[:len(c.path)-1] }

func (c *context) where() []string {
	return append([]string(nil), c.path...)
}

// sub walks n as an isolated operand: the signal is cleared before and
// consumed after, and the split bit is returned.
func (c *context) sub(n ast.Node) (ast.Node, bool, error) {
	c.sig = signal{}
	e, err := c.expr(n)
	split := c.sig.async
	c.sig = signal{}
	return e, split, err
}

// materialise queues tmp = value and marks the current node as split.
func (c *context) materialise(value ast.Node) *ast.Name {
	tmp := c.scope.NextTemp()
	c.frames.Defer(ir.Leaf(ir.CmdStat, ast.NewStat(ast.NewAssign(tmp, value)), false))
	c.sig = signal{async: true}
	return tmp
}

// returnValueNode builds the runtime's return value reference.
func (c *context) returnValueNode() ast.Node {
	var n ast.Node = ast.NewName(c.returnValue[0])
	for _, field := range c.returnValue[1:] {
		n = ast.NewDot(n, field)
	}
	return n
}

// rename copies n with declared names moved into the locals container.
// Var statements outside function literals become assignments to the
// container, the same as analyzed ones. Parameters and vars of function
// literals shadow declared names in their body.
func (c *context) rename(n ast.Node) ast.Node {
	return c.renameShadowed(n, nil, false)
}

func (c *context) renameShadowed(n ast.Node, shadow map[string]bool, inFunc bool) ast.Node {
	rw := func(n ast.Node) ast.Node { return c.renameShadowed(n, shadow, inFunc) }
	return ast.Rewrite(n, func(n ast.Node) (ast.Node, bool) {
		switch n := n.(type) {
		case *ast.Name:
			if shadow[n.Name] {
				return ast.NewName(n.Name), true
			}
			return c.scope.Rewrite(n.Name), true
		case *ast.Var:
			if inFunc {
				return nil, false
			}
			return ast.NewStat(c.localize(n, rw)), true
		case *ast.For:
			v, ok := n.Init.(*ast.Var)
			if inFunc || !ok {
				return nil, false
			}
			return &ast.For{Init: c.localize(v, rw), Cond: rw(n.Cond), Step: rw(n.Step), Body: rw(n.Body)}, true
		case *ast.ForIn:
			v, ok := n.Init.(*ast.Var)
			if inFunc || !ok || len(v.Defs) != 1 {
				return nil, false
			}
			return &ast.ForIn{Init: c.scope.Local(v.Defs[0].Name), Object: rw(n.Object), Body: rw(n.Body)}, true
		case *ast.Function:
			inner := make(map[string]bool, len(shadow)+len(n.Params))
			for k := range shadow {
				inner[k] = true
			}
			for _, p := range n.Params {
				inner[p] = true
			}
			own := newScope("", "")
			hoistVars(n.Body, own)
			for _, v := range own.Names() {
				inner[v] = true
			}
			body := make([]ast.Node, len(n.Body))
			for i, s := range n.Body {
				body[i] = c.renameShadowed(s, inner, true)
			}
			return &ast.Function{Name: n.Name, Params: n.Params, Body: body}, true
		}
		return nil, false
	})
}

// localize turns a var statement into container assignments. A binding
// without an initializer gets null.
func (c *context) localize(n *ast.Var, rw func(ast.Node) ast.Node) ast.Node {
	exprs := make([]ast.Node, len(n.Defs))
	for i, d := range n.Defs {
		c.scope.Declare(d.Name)
		value := null()
		if d.Init != nil {
			value = rw(d.Init)
		}
		exprs[i] = ast.NewAssign(c.scope.Local(d.Name), value)
	}
	if len(exprs) == 1 {
		return exprs[0]
	}
	return &ast.Seq{Exprs: exprs}
}

// mentionsPrimitive reports whether a name or member field inside n
// matches the primitive convention. Nested calls are skipped; they carry
// their own flag.
func (c *context) mentionsPrimitive(n ast.Node) bool {
	found := false
	ast.Inspect(n, func(n ast.Node) bool {
		if found {
			return false
		}
		switch n := n.(type) {
		case *ast.Call:
			return false
		case *ast.Name:
			found = c.matcher.Match(n.Name)
		case *ast.Dot:
			found = c.matcher.Match(n.Field)
		}
		return !found
	})
	return found
}

// flaggedCall reports the first call inside n whose callee matches the
// primitive convention.
func (c *context) flaggedCall(n ast.Node) (string, bool) {
	var found string
	ast.Inspect(n, func(n ast.Node) bool {
		if found != "" {
			return false
		}
		if call, ok := n.(*ast.Call); ok {
			if name := calleeName(call.Callee); name != "" && c.matcher.Match(name) {
				found = name
				return false
			}
		}
		return true
	})
	return found, found != ""
}

// warnUnanalyzed logs a flagged call the walk will not sequence.
func (c *context) warnUnanalyzed(n ast.Node) {
	if name, ok := c.flaggedCall(n); ok {
		c.log.Warn("async call inside unanalyzed construct",
			zap.String("kind", string(n.Kind())),
			zap.String("callee", name),
			zap.Strings("path", c.path))
	}
}

func calleeName(n ast.Node) string {
	switch n := n.(type) {
	case *ast.Name:
		return n.Name
	case *ast.Dot:
		return n.Field
	}
	return ""
}

func (c *context) unknown(n ast.Node) error {
	if n == nil {
		return errors.InvalidNode(errors.PhaseTransform, c.where(), "nil", "missing node")
	}
	return errors.UnknownNode(errors.PhaseTransform, c.where(), string(n.Kind()))
}
