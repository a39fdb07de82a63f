package engine

import (
	"go.uber.org/zap"

	"github.com/wippyai/druta/ast"
	"github.com/wippyai/druta/transform/internal/ir"
)

// stmts walks a statement list in the current frame and reports, through
// c.sig.async, whether any statement split.
func (c *context) stmts(list []ast.Node) error {
	split := false
	for _, s := range list {
		c.sig = signal{}
		if err := c.stmt(s); err != nil {
			return err
		}
		split = split || c.sig.async
	}
	c.sig = signal{async: split}
	return nil
}

// region walks a branch or body in its own frame and returns the frame's
// instructions and whether anything in it split.
func (c *context) region(seg string, body ast.Node) ([]*ir.Instruction, bool, error) {
	c.enter(seg)
	defer c.leave()
	c.frames.Push()
	var err error
	if body != nil {
		if b, ok := body.(*ast.Block); ok {
			err = c.stmts(b.Body)
		} else {
			c.sig = signal{}
			err = c.stmt(body)
		}
	}
	list := c.frames.Pop()
	split := c.sig.async
	c.sig = signal{}
	return list, split, err
}

// stmt walks one statement. Afterwards c.sig.async is set when the
// statement split.
func (c *context) stmt(n ast.Node) error {
	switch n := n.(type) {
	case *ast.Stat:
		return c.stat(n.Expr)
	case *ast.Var:
		return c.varStmt(n)
	case *ast.Block:
		return c.stmts(n.Body)
	case *ast.Splice:
		return c.stmts(n.Nodes)
	case *ast.If:
		return c.ifStmt(n)
	case *ast.For:
		return c.forStmt(n)
	case *ast.Defun:
		return c.defun(n)
	case *ast.Break, *ast.Continue, *ast.Debugger:
		c.frames.Defer(ir.Leaf(ir.PassThrough(n.Kind()), ast.Clone(n), false))
		c.sig = signal{}
		return nil
	case *ast.Labeled, *ast.While, *ast.Do, *ast.Try, *ast.Throw, *ast.Switch,
		*ast.ForIn, *ast.With, *ast.Return, *ast.Const:
		c.warnUnanalyzed(n)
		c.frames.Defer(ir.Leaf(ir.PassThrough(n.Kind()), c.rename(n), false))
		c.sig = signal{}
		return nil
	}
	if n != nil && ast.IsExpression(n) {
		return c.stat(n)
	}
	return c.unknown(n)
}

// stat walks an expression statement. A split statement has already
// queued every piece it needs; a synchronous one becomes one leaf.
func (c *context) stat(e ast.Node) error {
	v, split, err := c.sub(e)
	if err != nil {
		return err
	}
	if !split {
		c.frames.Defer(ir.Leaf(ir.CmdStat, ast.NewStat(v), false))
	}
	c.sig = signal{async: split}
	return nil
}

// varStmt moves each binding into the locals container. A binding whose
// initializer split gets a null placeholder ahead of the split and its
// real value after it.
func (c *context) varStmt(n *ast.Var) error {
	split := false
	for _, d := range n.Defs {
		c.scope.Declare(d.Name)
		local := c.scope.Local(d.Name)
		if d.Init == nil {
			c.frames.Defer(ir.Leaf(ir.CmdStat, ast.NewStat(ast.NewAssign(local, null())), false))
			continue
		}

		c.enter("var:" + d.Name)
		mark := c.frames.Mark()
		v, s, err := c.sub(d.Init)
		c.leave()
		if err != nil {
			return err
		}
		if s {
			placeholder := ast.NewStat(ast.NewAssign(c.scope.Local(d.Name), null()))
			c.frames.InsertAt(mark, ir.Leaf(ir.CmdStat, placeholder, false))
			c.log.Debug("deferred declaration", zap.String("name", d.Name))
		}
		c.frames.Defer(ir.Leaf(ir.CmdStat, ast.NewStat(ast.NewAssign(local, v)), false))
		split = split || s
	}
	c.sig = signal{async: split}
	return nil
}

// defun walks a function declaration body in its own frame.
func (c *context) defun(n *ast.Defun) error {
	c.enter("defun:" + n.Name)
	defer c.leave()
	c.frames.Push()
	err := c.stmts(n.Body)
	body := c.frames.Pop()
	if err != nil {
		return err
	}
	c.frames.Defer(&ir.Instruction{
		Command: ir.CmdDefun,
		Name:    n.Name,
		Params:  append([]string(nil), n.Params...),
		Body:    body,
	})
	c.sig = signal{}
	return nil
}

func null() ast.Node { return &ast.Atom{Value: "null"} }

// hoistVars declares every var binding in the statement list, nested
// statements and function declarations included, before any statement is
// rewritten. Function literals keep their own bindings.
func hoistVars(list []ast.Node, s *scope) {
	for _, n := range list {
		hoistStmt(n, s)
	}
}

func hoistStmt(n ast.Node, s *scope) {
	switch n := n.(type) {
	case *ast.Var:
		for _, d := range n.Defs {
			s.Declare(d.Name)
		}
	case *ast.Block:
		hoistVars(n.Body, s)
	case *ast.Splice:
		hoistVars(n.Nodes, s)
	case *ast.If:
		hoistStmt(n.Then, s)
		hoistStmt(n.Else, s)
	case *ast.For:
		hoistStmt(n.Init, s)
		hoistStmt(n.Body, s)
	case *ast.ForIn:
		hoistStmt(n.Init, s)
		hoistStmt(n.Body, s)
	case *ast.While:
		hoistStmt(n.Body, s)
	case *ast.Do:
		hoistStmt(n.Body, s)
	case *ast.Labeled:
		hoistStmt(n.Body, s)
	case *ast.With:
		hoistStmt(n.Body, s)
	case *ast.Try:
		hoistVars(n.Body, s)
		if n.Catch != nil {
			hoistVars(n.Catch.Body, s)
		}
		hoistVars(n.Finally, s)
	case *ast.Switch:
		for _, cs := range n.Cases {
			hoistVars(cs.Body, s)
		}
	case *ast.Defun:
		hoistVars(n.Body, s)
	}
}
