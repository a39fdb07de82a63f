package ast

// Inspect traverses the tree depth-first in source order, calling fn for
// every node. If fn returns false, the children of that node are skipped.
func Inspect(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, fn)
	}
}

// Children returns the direct child nodes of n in evaluation order.
// Nil operands are omitted.
func Children(n Node) []Node {
	var out []Node
	add := func(nodes ...Node) {
		for _, c := range nodes {
			if c != nil {
				out = append(out, c)
			}
		}
	}

	switch n := n.(type) {
	case *Array:
		add(n.Elements...)
	case *Object:
		for _, p := range n.Props {
			add(p.Value)
		}
	case *Call:
		add(n.Callee)
		add(n.Args...)
	case *New:
		add(n.Callee)
		add(n.Args...)
	case *Binary:
		add(n.Left, n.Right)
	case *Unary:
		add(n.Operand)
	case *Assign:
		add(n.Target, n.Value)
	case *Dot:
		add(n.Base)
	case *Sub:
		add(n.Base, n.Index)
	case *Conditional:
		add(n.Test, n.Then, n.Else)
	case *Seq:
		add(n.Exprs...)
	case *Function:
		add(n.Body...)
	case *Stat:
		add(n.Expr)
	case *Var:
		for _, d := range n.Defs {
			add(d.Init)
		}
	case *Const:
		for _, d := range n.Defs {
			add(d.Init)
		}
	case *Block:
		add(n.Body...)
	case *If:
		add(n.Cond, n.Then, n.Else)
	case *For:
		add(n.Init, n.Cond, n.Step, n.Body)
	case *ForIn:
		add(n.Init, n.Object, n.Body)
	case *While:
		add(n.Cond, n.Body)
	case *Do:
		add(n.Body, n.Cond)
	case *Labeled:
		add(n.Body)
	case *Return:
		add(n.Value)
	case *Throw:
		add(n.Value)
	case *Try:
		add(n.Body...)
		if n.Catch != nil {
			add(n.Catch.Body...)
		}
		add(n.Finally...)
	case *Switch:
		add(n.Disc)
		for _, c := range n.Cases {
			add(c.Test)
			add(c.Body...)
		}
	case *With:
		add(n.Object, n.Body)
	case *Defun:
		add(n.Body...)
	case *Toplevel:
		add(n.Body...)
	case *Splice:
		add(n.Nodes...)
	}
	return out
}
