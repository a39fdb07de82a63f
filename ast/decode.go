package ast

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/druta/errors"
)

// Decode reads a tagged-array tree document (JSON or YAML) whose root is a
// toplevel node. A root defun is wrapped in a toplevel so a single function
// can be supplied directly.
func Decode(data []byte) (*Toplevel, error) {
	n, err := DecodeNode(data)
	if err != nil {
		return nil, err
	}
	switch root := n.(type) {
	case *Toplevel:
		return root, nil
	case *Defun:
		return &Toplevel{Body: []Node{root}}, nil
	default:
		return nil, errors.New(errors.PhaseParse, errors.KindInvalidNode).
			Path(string(n.Kind())).
			Node(string(n.Kind())).
			Detail("root must be toplevel or defun").
			Build()
	}
}

// DecodeNode reads a tagged-array document holding any single node.
func DecodeNode(data []byte) (Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.ParseFailed("tree document", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.InvalidInput(errors.PhaseParse, "empty tree document")
	}
	d := &decoder{}
	return d.node(doc.Content[0])
}

type decoder struct {
	path []string
}

func (d *decoder) fail(kind, detail string, args ...any) error {
	return errors.InvalidNode(errors.PhaseParse, d.where(), kind, fmt.Sprintf(detail, args...))
}

func (d *decoder) where() []string {
	return append([]string(nil), d.path...)
}

func (d *decoder) enter(seg string) { d.path = append(d.path, seg) }
func (d *decoder) leave()           { d.path = d.path[:len(d.path)-1] }

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

func (d *decoder) optNode(n *yaml.Node) (Node, error) {
	if isNull(n) {
		return nil, nil
	}
	return d.node(n)
}

func (d *decoder) scalar(n *yaml.Node, what string) (string, error) {
	if n.Kind == yaml.AliasNode {
		return d.scalar(n.Alias, what)
	}
	if n.Kind != yaml.ScalarNode {
		return "", d.fail(what, "expected scalar, found %s", n.ShortTag())
	}
	return n.Value, nil
}

func (d *decoder) optScalar(n *yaml.Node, what string) (string, error) {
	if isNull(n) {
		return "", nil
	}
	return d.scalar(n, what)
}

func (d *decoder) list(n *yaml.Node, what string) ([]*yaml.Node, error) {
	if isNull(n) {
		return nil, nil
	}
	if n.Kind == yaml.AliasNode {
		return d.list(n.Alias, what)
	}
	if n.Kind != yaml.SequenceNode {
		return nil, d.fail(what, "expected list, found %s", n.ShortTag())
	}
	return n.Content, nil
}

func (d *decoder) nodes(n *yaml.Node, what string) ([]Node, error) {
	items, err := d.list(n, what)
	if err != nil {
		return nil, err
	}
	out := make([]Node, 0, len(items))
	for i, item := range items {
		d.enter(fmt.Sprintf("%s[%d]", what, i))
		c, err := d.node(item)
		d.leave()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (d *decoder) strings(n *yaml.Node, what string) ([]string, error) {
	items, err := d.list(n, what)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, err := d.scalar(item, what)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (d *decoder) defs(n *yaml.Node, what string) ([]VarDef, error) {
	items, err := d.list(n, what)
	if err != nil {
		return nil, err
	}
	out := make([]VarDef, 0, len(items))
	for _, item := range items {
		parts, err := d.list(item, what)
		if err != nil {
			return nil, err
		}
		if len(parts) == 0 || len(parts) > 2 {
			return nil, d.fail(what, "binding needs a name and an optional initializer")
		}
		name, err := d.scalar(parts[0], what)
		if err != nil {
			return nil, err
		}
		def := VarDef{Name: name}
		if len(parts) == 2 {
			d.enter(name)
			def.Init, err = d.optNode(parts[1])
			d.leave()
			if err != nil {
				return nil, err
			}
		}
		out = append(out, def)
	}
	return out, nil
}

// arity lists the accepted operand counts (excluding the tag) per kind.
var arity = map[Kind][2]int{
	KindName: {1, 1}, KindNum: {1, 1}, KindString: {1, 1}, KindAtom: {1, 1},
	KindRegexp: {1, 2}, KindArray: {1, 1}, KindObject: {1, 1},
	KindCall: {2, 2}, KindNew: {1, 2}, KindBinary: {3, 3},
	KindUnaryPrefix: {2, 2}, KindUnaryPostfix: {2, 2}, KindAssign: {3, 3},
	KindDot: {2, 2}, KindSub: {2, 2}, KindConditional: {3, 3}, KindSeq: {1, -1},
	KindFunction: {3, 3}, KindStat: {1, 1}, KindVar: {1, 1}, KindConst: {1, 1},
	KindBlock: {0, 1}, KindIf: {2, 3}, KindFor: {4, 4}, KindForIn: {3, 4},
	KindWhile: {2, 2}, KindDo: {2, 2}, KindBreak: {0, 1}, KindContinue: {0, 1},
	KindDebugger: {0, 0}, KindLabel: {2, 2}, KindReturn: {0, 1}, KindThrow: {1, 1},
	KindTry: {1, 3}, KindSwitch: {2, 2}, KindWith: {2, 2}, KindDefun: {3, 3},
	KindToplevel: {1, 1}, KindSplice: {1, 1},
}

func (d *decoder) node(n *yaml.Node) (Node, error) {
	if n.Kind == yaml.AliasNode {
		return d.node(n.Alias)
	}
	if n.Kind != yaml.SequenceNode || len(n.Content) == 0 {
		return nil, d.fail("", "node must be a non-empty list, found %s", n.ShortTag())
	}
	tag, err := d.scalar(n.Content[0], "tag")
	if err != nil {
		return nil, err
	}
	kind := Kind(tag)
	bounds, ok := arity[kind]
	if !ok {
		return nil, errors.UnknownNode(errors.PhaseParse, d.where(), tag)
	}
	ops := n.Content[1:]
	if len(ops) < bounds[0] || (bounds[1] >= 0 && len(ops) > bounds[1]) {
		return nil, d.fail(tag, "got %d operands", len(ops))
	}

	d.enter(tag)
	defer d.leave()

	op := func(i int) *yaml.Node {
		if i < len(ops) {
			return ops[i]
		}
		return nil
	}

	switch kind {
	case KindName:
		s, err := d.scalar(ops[0], tag)
		return &Name{Name: s}, err
	case KindNum:
		s, err := d.scalar(ops[0], tag)
		return &Num{Value: s}, err
	case KindString:
		s, err := d.scalar(ops[0], tag)
		return &String{Value: s}, err
	case KindAtom:
		s, err := d.scalar(ops[0], tag)
		return &Atom{Value: s}, err
	case KindRegexp:
		pat, err := d.scalar(ops[0], tag)
		if err != nil {
			return nil, err
		}
		flags, err := d.optScalar(op(1), tag)
		return &Regexp{Pattern: pat, Flags: flags}, err
	case KindArray:
		elems, err := d.nodes(ops[0], "elements")
		return &Array{Elements: elems}, err
	case KindObject:
		return d.object(ops[0])
	case KindCall, KindNew:
		callee, err := d.node(ops[0])
		if err != nil {
			return nil, err
		}
		args, err := d.nodes(op(1), "args")
		if err != nil {
			return nil, err
		}
		if kind == KindNew {
			return &New{Callee: callee, Args: args}, nil
		}
		return &Call{Callee: callee, Args: args}, nil
	case KindBinary:
		opName, err := d.scalar(ops[0], tag)
		if err != nil {
			return nil, err
		}
		l, err := d.node(ops[1])
		if err != nil {
			return nil, err
		}
		r, err := d.node(ops[2])
		return &Binary{Op: opName, Left: l, Right: r}, err
	case KindUnaryPrefix, KindUnaryPostfix:
		opName, err := d.scalar(ops[0], tag)
		if err != nil {
			return nil, err
		}
		operand, err := d.node(ops[1])
		return &Unary{Op: opName, Operand: operand, Postfix: kind == KindUnaryPostfix}, err
	case KindAssign:
		return d.assign(ops)
	case KindDot:
		base, err := d.node(ops[0])
		if err != nil {
			return nil, err
		}
		field, err := d.scalar(ops[1], tag)
		return &Dot{Base: base, Field: field}, err
	case KindSub:
		base, err := d.node(ops[0])
		if err != nil {
			return nil, err
		}
		idx, err := d.node(ops[1])
		return &Sub{Base: base, Index: idx}, err
	case KindConditional:
		parts, err := d.exprs(ops)
		if err != nil {
			return nil, err
		}
		return &Conditional{Test: parts[0], Then: parts[1], Else: parts[2]}, nil
	case KindSeq:
		parts, err := d.exprs(ops)
		return &Seq{Exprs: parts}, err
	case KindFunction, KindDefun:
		name, err := d.optScalar(ops[0], tag)
		if err != nil {
			return nil, err
		}
		params, err := d.strings(ops[1], "params")
		if err != nil {
			return nil, err
		}
		body, err := d.nodes(ops[2], "body")
		if err != nil {
			return nil, err
		}
		if kind == KindDefun {
			if name == "" {
				return nil, d.fail(tag, "function declaration needs a name")
			}
			return &Defun{Name: name, Params: params, Body: body}, nil
		}
		return &Function{Name: name, Params: params, Body: body}, nil
	case KindStat:
		e, err := d.node(ops[0])
		return &Stat{Expr: e}, err
	case KindVar:
		defs, err := d.defs(ops[0], "defs")
		return &Var{Defs: defs}, err
	case KindConst:
		defs, err := d.defs(ops[0], "defs")
		return &Const{Defs: defs}, err
	case KindBlock:
		body, err := d.nodes(op(0), "body")
		return &Block{Body: body}, err
	case KindIf:
		cond, err := d.node(ops[0])
		if err != nil {
			return nil, err
		}
		then, err := d.node(ops[1])
		if err != nil {
			return nil, err
		}
		els, err := d.optNode(op(2))
		return &If{Cond: cond, Then: then, Else: els}, err
	case KindFor:
		parts := make([]Node, 4)
		for i := range parts {
			if parts[i], err = d.optNode(ops[i]); err != nil {
				return nil, err
			}
		}
		if parts[3] == nil {
			return nil, d.fail(tag, "missing loop body")
		}
		return &For{Init: parts[0], Cond: parts[1], Step: parts[2], Body: parts[3]}, nil
	case KindForIn:
		// Four operands carry the separate left-hand side used by
		// UglifyJS; the init node already names the binding.
		if len(ops) == 4 {
			ops = []*yaml.Node{ops[0], ops[2], ops[3]}
		}
		parts, err := d.exprs(ops)
		if err != nil {
			return nil, err
		}
		return &ForIn{Init: parts[0], Object: parts[1], Body: parts[2]}, nil
	case KindWhile, KindDo:
		cond, err := d.node(ops[0])
		if err != nil {
			return nil, err
		}
		body, err := d.node(ops[1])
		if err != nil {
			return nil, err
		}
		if kind == KindDo {
			return &Do{Cond: cond, Body: body}, nil
		}
		return &While{Cond: cond, Body: body}, nil
	case KindBreak, KindContinue:
		label, err := d.optScalar(op(0), tag)
		if err != nil {
			return nil, err
		}
		if kind == KindBreak {
			return &Break{Label: label}, nil
		}
		return &Continue{Label: label}, nil
	case KindDebugger:
		return &Debugger{}, nil
	case KindLabel:
		label, err := d.scalar(ops[0], tag)
		if err != nil {
			return nil, err
		}
		body, err := d.node(ops[1])
		return &Labeled{Label: label, Body: body}, err
	case KindReturn:
		v, err := d.optNode(op(0))
		return &Return{Value: v}, err
	case KindThrow:
		v, err := d.node(ops[0])
		return &Throw{Value: v}, err
	case KindTry:
		return d.try(ops, op)
	case KindSwitch:
		return d.switchStmt(ops)
	case KindWith:
		obj, err := d.node(ops[0])
		if err != nil {
			return nil, err
		}
		body, err := d.node(ops[1])
		return &With{Object: obj, Body: body}, err
	case KindToplevel:
		body, err := d.nodes(ops[0], "body")
		return &Toplevel{Body: body}, err
	case KindSplice:
		nodes, err := d.nodes(ops[0], "nodes")
		return &Splice{Nodes: nodes}, err
	}
	return nil, errors.UnknownNode(errors.PhaseParse, d.where(), tag)
}

func (d *decoder) exprs(ops []*yaml.Node) ([]Node, error) {
	out := make([]Node, len(ops))
	for i, o := range ops {
		var err error
		if out[i], err = d.node(o); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (d *decoder) assign(ops []*yaml.Node) (Node, error) {
	var opName string
	if ops[0].Kind == yaml.ScalarNode && ops[0].Tag == "!!bool" {
		if ops[0].Value != "true" {
			return nil, d.fail(string(KindAssign), "operator flag must be true or an operator")
		}
	} else {
		s, err := d.scalar(ops[0], string(KindAssign))
		if err != nil {
			return nil, err
		}
		opName = strings.TrimSuffix(s, "=")
	}
	target, err := d.node(ops[1])
	if err != nil {
		return nil, err
	}
	value, err := d.node(ops[2])
	if err != nil {
		return nil, err
	}
	return &Assign{Op: opName, Target: target, Value: value}, nil
}

func (d *decoder) object(n *yaml.Node) (Node, error) {
	items, err := d.list(n, "props")
	if err != nil {
		return nil, err
	}
	obj := &Object{Props: make([]Prop, 0, len(items))}
	for _, item := range items {
		parts, err := d.list(item, "props")
		if err != nil {
			return nil, err
		}
		if len(parts) != 2 {
			return nil, d.fail(string(KindObject), "property needs a key and a value")
		}
		key, err := d.scalar(parts[0], "key")
		if err != nil {
			return nil, err
		}
		d.enter(key)
		v, err := d.node(parts[1])
		d.leave()
		if err != nil {
			return nil, err
		}
		obj.Props = append(obj.Props, Prop{Key: key, Value: v})
	}
	return obj, nil
}

func (d *decoder) try(ops []*yaml.Node, op func(int) *yaml.Node) (Node, error) {
	body, err := d.nodes(ops[0], "body")
	if err != nil {
		return nil, err
	}
	t := &Try{Body: body}
	if c := op(1); !isNull(c) {
		parts, err := d.list(c, "catch")
		if err != nil {
			return nil, err
		}
		if len(parts) != 2 {
			return nil, d.fail(string(KindTry), "catch needs a name and a body")
		}
		name, err := d.scalar(parts[0], "catch")
		if err != nil {
			return nil, err
		}
		cbody, err := d.nodes(parts[1], "catch")
		if err != nil {
			return nil, err
		}
		t.Catch = &Catch{Name: name, Body: cbody}
	}
	if f := op(2); !isNull(f) {
		if t.Finally, err = d.nodes(f, "finally"); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (d *decoder) switchStmt(ops []*yaml.Node) (Node, error) {
	disc, err := d.node(ops[0])
	if err != nil {
		return nil, err
	}
	items, err := d.list(ops[1], "cases")
	if err != nil {
		return nil, err
	}
	s := &Switch{Disc: disc, Cases: make([]Case, 0, len(items))}
	for i, item := range items {
		parts, err := d.list(item, "cases")
		if err != nil {
			return nil, err
		}
		if len(parts) != 2 {
			return nil, d.fail(string(KindSwitch), "case %d needs a test and a body", i)
		}
		test, err := d.optNode(parts[0])
		if err != nil {
			return nil, err
		}
		body, err := d.nodes(parts[1], fmt.Sprintf("case[%d]", i))
		if err != nil {
			return nil, err
		}
		s.Cases = append(s.Cases, Case{Test: test, Body: body})
	}
	return s, nil
}
