package engine

import (
	"go.uber.org/zap"

	"github.com/wippyai/druta/ast"
	"github.com/wippyai/druta/errors"
	"github.com/wippyai/druta/transform/internal/ir"
)

// expr walks a value-producing node and returns its rewritten form.
// On return c.sig.async reports whether the value was split out of the
// current position; the returned node is then a temp or an assignment
// target that is safe to read later.
func (c *context) expr(n ast.Node) (ast.Node, error) {
	switch n := n.(type) {
	case *ast.Name:
		return c.scope.Rewrite(n.Name), nil
	case *ast.Num, *ast.String, *ast.Atom, *ast.Regexp:
		return ast.Clone(n), nil
	case *ast.Call:
		return c.call(n)
	case *ast.New:
		return c.construct(n)
	case *ast.Binary:
		return c.binary(n)
	case *ast.Unary:
		return c.unary(n)
	case *ast.Assign:
		return c.assign(n)
	case *ast.Dot:
		return c.dot(n)
	case *ast.Sub:
		return c.subscript(n)
	case *ast.Array:
		return c.array(n)
	case *ast.Object:
		return c.object(n)
	case *ast.Conditional, *ast.Seq, *ast.Function:
		c.warnUnanalyzed(n)
		return c.rename(n), nil
	}
	return nil, c.unknown(n)
}

// call hoists a call into its own instruction and captures the runtime
// return value in a fresh temp.
func (c *context) call(n *ast.Call) (ast.Node, error) {
	c.enter("call")
	defer c.leave()

	marked := c.mentionsPrimitive(n.Callee)
	for _, a := range n.Args {
		marked = marked || c.mentionsPrimitive(a)
	}

	c.sig = signal{}
	callee, err := c.callee(n.Callee)
	if err != nil {
		return nil, err
	}

	args := make([]ast.Node, len(n.Args))
	for i, a := range n.Args {
		c.sig = signal{}
		v, err := c.expr(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	c.frames.Emit(ir.Leaf(ir.CmdCall, ast.NewStat(&ast.Call{Callee: callee, Args: args}), marked))
	c.calls++
	if marked {
		c.asyncCalls++
	}

	tmp := c.scope.NextTemp()
	capture := ast.NewStat(ast.NewAssign(tmp, c.returnValueNode()))
	c.frames.Defer(ir.Leaf(ir.CmdStat, capture, false))
	c.sig = signal{async: true}

	if marked {
		c.log.Debug("async call", zap.String("callee", calleeName(n.Callee)), zap.String("temp", tmp.Name))
	}
	return ast.NewName(tmp.Name), nil
}

// callee walks a call target. A member callee keeps its last access
// inline so the receiver binding survives the split.
func (c *context) callee(n ast.Node) (ast.Node, error) {
	switch n := n.(type) {
	case *ast.Dot:
		base, _, err := c.sub(n.Base)
		if err != nil {
			return nil, err
		}
		return ast.NewDot(base, n.Field), nil
	case *ast.Sub:
		base, _, err := c.sub(n.Base)
		if err != nil {
			return nil, err
		}
		index, _, err := c.sub(n.Index)
		if err != nil {
			return nil, err
		}
		return &ast.Sub{Base: base, Index: index}, nil
	}
	c.sig = signal{}
	return c.expr(n)
}

func (c *context) construct(n *ast.New) (ast.Node, error) {
	callee, split, err := c.sub(n.Callee)
	if err != nil {
		return nil, err
	}
	args, argsSplit, err := c.operands(n.Args)
	if err != nil {
		return nil, err
	}
	node := &ast.New{Callee: callee, Args: args}
	if !split && !argsSplit {
		return node, nil
	}
	return c.materialise(node), nil
}

// binary combines operands per the sync/async table: no split returns the
// node itself, any split materialises the result after both operands.
func (c *context) binary(n *ast.Binary) (ast.Node, error) {
	left, ls, err := c.sub(n.Left)
	if err != nil {
		return nil, err
	}
	right, rs, err := c.sub(n.Right)
	if err != nil {
		return nil, err
	}
	node := &ast.Binary{Op: n.Op, Left: left, Right: right}
	if !ls && !rs {
		return node, nil
	}
	if n.Op == "&&" || n.Op == "||" {
		c.log.Debug("short-circuit operand hoisted", zap.String("op", n.Op), zap.Strings("path", c.path))
	}
	return c.materialise(node), nil
}

func (c *context) unary(n *ast.Unary) (ast.Node, error) {
	var (
		operand ast.Node
		split   bool
		err     error
	)
	if mutates(n.Op) && isTarget(n.Operand) {
		operand, split, err = c.target(n.Operand)
	} else {
		operand, split, err = c.sub(n.Operand)
	}
	if err != nil {
		return nil, err
	}
	node := &ast.Unary{Op: n.Op, Postfix: n.Postfix, Operand: operand}
	if !split {
		return node, nil
	}
	return c.materialise(node), nil
}

func (c *context) assign(n *ast.Assign) (ast.Node, error) {
	target, ts, err := c.target(n.Target)
	if err != nil {
		return nil, err
	}
	value, vs, err := c.sub(n.Value)
	if err != nil {
		return nil, err
	}
	node := &ast.Assign{Op: n.Op, Target: target, Value: value}
	if !ts && !vs {
		return node, nil
	}
	c.frames.Defer(ir.Leaf(ir.CmdStat, ast.NewStat(node), false))
	c.sig = signal{async: true}
	return ast.Clone(target), nil
}

func (c *context) dot(n *ast.Dot) (ast.Node, error) {
	base, split, err := c.sub(n.Base)
	if err != nil {
		return nil, err
	}
	node := ast.NewDot(base, n.Field)
	if !split {
		return node, nil
	}
	return c.materialise(node), nil
}

func (c *context) subscript(n *ast.Sub) (ast.Node, error) {
	base, bs, err := c.sub(n.Base)
	if err != nil {
		return nil, err
	}
	index, is, err := c.sub(n.Index)
	if err != nil {
		return nil, err
	}
	node := &ast.Sub{Base: base, Index: index}
	if !bs && !is {
		return node, nil
	}
	return c.materialise(node), nil
}

func (c *context) array(n *ast.Array) (ast.Node, error) {
	elems, split, err := c.operands(n.Elements)
	if err != nil {
		return nil, err
	}
	node := &ast.Array{Elements: elems}
	if !split {
		return node, nil
	}
	return c.materialise(node), nil
}

func (c *context) object(n *ast.Object) (ast.Node, error) {
	props := make([]ast.Prop, len(n.Props))
	split := false
	for i, p := range n.Props {
		v, s, err := c.sub(p.Value)
		if err != nil {
			return nil, err
		}
		props[i] = ast.Prop{Key: p.Key, Value: v}
		split = split || s
	}
	node := &ast.Object{Props: props}
	if !split {
		return node, nil
	}
	return c.materialise(node), nil
}

// operands walks a list left to right and reports whether any split.
func (c *context) operands(list []ast.Node) ([]ast.Node, bool, error) {
	out := make([]ast.Node, len(list))
	split := false
	for i, e := range list {
		v, s, err := c.sub(e)
		if err != nil {
			return nil, false, err
		}
		out[i] = v
		split = split || s
	}
	return out, split, nil
}

// target walks an assignment target without materialising the final
// access.
func (c *context) target(n ast.Node) (ast.Node, bool, error) {
	switch n := n.(type) {
	case *ast.Name:
		return c.scope.Rewrite(n.Name), false, nil
	case *ast.Dot:
		base, split, err := c.sub(n.Base)
		if err != nil {
			return nil, false, err
		}
		return ast.NewDot(base, n.Field), split, nil
	case *ast.Sub:
		base, bs, err := c.sub(n.Base)
		if err != nil {
			return nil, false, err
		}
		index, is, err := c.sub(n.Index)
		if err != nil {
			return nil, false, err
		}
		return &ast.Sub{Base: base, Index: index}, bs || is, nil
	}
	kind := "nil"
	if n != nil {
		kind = string(n.Kind())
	}
	return nil, false, errors.InvalidTarget(c.where(), kind)
}

func isTarget(n ast.Node) bool {
	switch n.(type) {
	case *ast.Name, *ast.Dot, *ast.Sub:
		return true
	}
	return false
}

func mutates(op string) bool {
	switch op {
	case "++", "--", "delete":
		return true
	}
	return false
}
