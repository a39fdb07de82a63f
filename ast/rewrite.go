package ast

// Rewrite returns a copy of n with nodes replaced by fn. fn is called
// pre-order; when it returns ok=true its result replaces the node and
// the walk does not descend into it. The input tree is never modified.
func Rewrite(n Node, fn func(Node) (Node, bool)) Node {
	if n == nil {
		return nil
	}
	if r, ok := fn(n); ok {
		return r
	}
	rw := func(c Node) Node { return Rewrite(c, fn) }
	all := func(list []Node) []Node {
		if list == nil {
			return nil
		}
		out := make([]Node, len(list))
		for i, c := range list {
			out[i] = rw(c)
		}
		return out
	}
	defs := func(list []VarDef) []VarDef {
		out := make([]VarDef, len(list))
		for i, d := range list {
			out[i] = VarDef{Name: d.Name, Init: rw(d.Init)}
		}
		return out
	}

	switch n := n.(type) {
	case *Name:
		return &Name{Name: n.Name}
	case *Num:
		return &Num{Value: n.Value}
	case *String:
		return &String{Value: n.Value}
	case *Atom:
		return &Atom{Value: n.Value}
	case *Regexp:
		return &Regexp{Pattern: n.Pattern, Flags: n.Flags}
	case *Array:
		return &Array{Elements: all(n.Elements)}
	case *Object:
		props := make([]Prop, len(n.Props))
		for i, p := range n.Props {
			props[i] = Prop{Key: p.Key, Value: rw(p.Value)}
		}
		return &Object{Props: props}
	case *Call:
		return &Call{Callee: rw(n.Callee), Args: all(n.Args)}
	case *New:
		return &New{Callee: rw(n.Callee), Args: all(n.Args)}
	case *Binary:
		return &Binary{Op: n.Op, Left: rw(n.Left), Right: rw(n.Right)}
	case *Unary:
		return &Unary{Op: n.Op, Postfix: n.Postfix, Operand: rw(n.Operand)}
	case *Assign:
		return &Assign{Op: n.Op, Target: rw(n.Target), Value: rw(n.Value)}
	case *Dot:
		return &Dot{Base: rw(n.Base), Field: n.Field}
	case *Sub:
		return &Sub{Base: rw(n.Base), Index: rw(n.Index)}
	case *Conditional:
		return &Conditional{Test: rw(n.Test), Then: rw(n.Then), Else: rw(n.Else)}
	case *Seq:
		return &Seq{Exprs: all(n.Exprs)}
	case *Function:
		return &Function{Name: n.Name, Params: n.Params, Body: all(n.Body)}
	case *Stat:
		return &Stat{Expr: rw(n.Expr)}
	case *Var:
		return &Var{Defs: defs(n.Defs)}
	case *Const:
		return &Const{Defs: defs(n.Defs)}
	case *Block:
		return &Block{Body: all(n.Body)}
	case *If:
		return &If{Cond: rw(n.Cond), Then: rw(n.Then), Else: rw(n.Else)}
	case *For:
		return &For{Init: rw(n.Init), Cond: rw(n.Cond), Step: rw(n.Step), Body: rw(n.Body)}
	case *ForIn:
		return &ForIn{Init: rw(n.Init), Object: rw(n.Object), Body: rw(n.Body)}
	case *While:
		return &While{Cond: rw(n.Cond), Body: rw(n.Body)}
	case *Do:
		return &Do{Cond: rw(n.Cond), Body: rw(n.Body)}
	case *Break:
		return &Break{Label: n.Label}
	case *Continue:
		return &Continue{Label: n.Label}
	case *Debugger:
		return &Debugger{}
	case *Labeled:
		return &Labeled{Label: n.Label, Body: rw(n.Body)}
	case *Return:
		return &Return{Value: rw(n.Value)}
	case *Throw:
		return &Throw{Value: rw(n.Value)}
	case *Try:
		t := &Try{Body: all(n.Body), Finally: all(n.Finally)}
		if n.Catch != nil {
			t.Catch = &Catch{Name: n.Catch.Name, Body: all(n.Catch.Body)}
		}
		return t
	case *Switch:
		cases := make([]Case, len(n.Cases))
		for i, c := range n.Cases {
			cases[i] = Case{Test: rw(c.Test), Body: all(c.Body)}
		}
		return &Switch{Disc: rw(n.Disc), Cases: cases}
	case *With:
		return &With{Object: rw(n.Object), Body: rw(n.Body)}
	case *Defun:
		return &Defun{Name: n.Name, Params: n.Params, Body: all(n.Body)}
	case *Toplevel:
		return &Toplevel{Body: all(n.Body)}
	case *Splice:
		return &Splice{Nodes: all(n.Nodes)}
	}
	return n
}

// Clone returns a deep copy of n.
func Clone(n Node) Node {
	return Rewrite(n, func(Node) (Node, bool) { return nil, false })
}
