package ast

// Kind is the tag of a syntax node.
type Kind string

// Expression kinds.
const (
	KindName         Kind = "name"
	KindNum          Kind = "num"
	KindString       Kind = "string"
	KindAtom         Kind = "atom"
	KindRegexp       Kind = "regexp"
	KindArray        Kind = "array"
	KindObject       Kind = "object"
	KindCall         Kind = "call"
	KindNew          Kind = "new"
	KindBinary       Kind = "binary"
	KindUnaryPrefix  Kind = "unary-prefix"
	KindUnaryPostfix Kind = "unary-postfix"
	KindAssign       Kind = "assign"
	KindDot          Kind = "dot"
	KindSub          Kind = "sub"
	KindConditional  Kind = "conditional"
	KindSeq          Kind = "seq"
	KindFunction     Kind = "function"
)

// Statement kinds.
const (
	KindStat     Kind = "stat"
	KindVar      Kind = "var"
	KindConst    Kind = "const"
	KindBlock    Kind = "block"
	KindIf       Kind = "if"
	KindFor      Kind = "for"
	KindForIn    Kind = "for-in"
	KindWhile    Kind = "while"
	KindDo       Kind = "do"
	KindBreak    Kind = "break"
	KindContinue Kind = "continue"
	KindDebugger Kind = "debugger"
	KindLabel    Kind = "label"
	KindReturn   Kind = "return"
	KindThrow    Kind = "throw"
	KindTry      Kind = "try"
	KindSwitch   Kind = "switch"
	KindWith     Kind = "with"
	KindDefun    Kind = "defun"
	KindToplevel Kind = "toplevel"

	// KindSplice marks nodes that are siblings to be spliced inline
	// into the enclosing statement list, not one compound node.
	KindSplice Kind = "splice"
)

// Node is a syntax tree node.
//
// The set of implementations is closed; the unexported marker method keeps
// packages outside ast from adding kinds the walker does not know about.
type Node interface {
	// Kind returns the node's tag.
	Kind() Kind
	node()
}

// Name is an identifier reference.
type Name struct {
	Name string
}

// Num is a numeric literal kept in its source spelling.
type Num struct {
	Value string
}

// String is a string literal holding the unquoted value.
type String struct {
	Value string
}

// Atom is a keyword literal: true, false, null, undefined.
type Atom struct {
	Value string
}

// Regexp is a regular expression literal.
type Regexp struct {
	Pattern string
	Flags   string
}

// Array is an array literal.
type Array struct {
	Elements []Node
}

// Prop is one key/value entry of an object literal.
type Prop struct {
	Value Node
	Key   string
}

// Object is an object literal.
type Object struct {
	Props []Prop
}

// Call is a function call.
type Call struct {
	Callee Node
	Args   []Node
}

// New is a constructor invocation.
type New struct {
	Callee Node
	Args   []Node
}

// Binary is a binary operator application.
type Binary struct {
	Left  Node
	Right Node
	Op    string
}

// Unary is a prefix or postfix operator application.
type Unary struct {
	Operand Node
	Op      string
	Postfix bool
}

// Assign is an assignment. Op is empty for plain "=", otherwise the
// operator of a compound assignment ("+" for "+=").
type Assign struct {
	Target Node
	Value  Node
	Op     string
}

// Dot is a named member access.
type Dot struct {
	Base  Node
	Field string
}

// Sub is a computed member access.
type Sub struct {
	Base  Node
	Index Node
}

// Conditional is the ternary operator.
type Conditional struct {
	Test Node
	Then Node
	Else Node
}

// Seq is the comma operator.
type Seq struct {
	Exprs []Node
}

// Function is a function literal used as an expression.
type Function struct {
	Name   string
	Params []string
	Body   []Node
}

// Stat is an expression statement.
type Stat struct {
	Expr Node
}

// VarDef is a single binding of a var or const statement. Init is nil
// when the binding has no initializer.
type VarDef struct {
	Init Node
	Name string
}

// Var is a var declaration statement.
type Var struct {
	Defs []VarDef
}

// Const is a const declaration statement.
type Const struct {
	Defs []VarDef
}

// Block is a braced statement list.
type Block struct {
	Body []Node
}

// If is a conditional statement. Else is nil when absent.
type If struct {
	Cond Node
	Then Node
	Else Node
}

// For is a C-style loop. Init, Cond and Step may be nil; Init is either
// a *Var or an expression.
type For struct {
	Init Node
	Cond Node
	Step Node
	Body Node
}

// ForIn is a for-in loop. Init is a *Var or the assigned expression.
type ForIn struct {
	Init   Node
	Object Node
	Body   Node
}

// While is a while loop.
type While struct {
	Cond Node
	Body Node
}

// Do is a do-while loop.
type Do struct {
	Cond Node
	Body Node
}

// Break is a break statement with an optional label.
type Break struct {
	Label string
}

// Continue is a continue statement with an optional label.
type Continue struct {
	Label string
}

// Debugger is the debugger statement.
type Debugger struct{}

// Labeled is a labeled statement.
type Labeled struct {
	Body  Node
	Label string
}

// Return is a return statement. Value may be nil.
type Return struct {
	Value Node
}

// Throw is a throw statement.
type Throw struct {
	Value Node
}

// Catch is the catch clause of a try statement.
type Catch struct {
	Name string
	Body []Node
}

// Try is a try statement. Catch and Finally are optional.
type Try struct {
	Catch   *Catch
	Body    []Node
	Finally []Node
}

// Case is one clause of a switch statement. Test is nil for default.
type Case struct {
	Test Node
	Body []Node
}

// Switch is a switch statement.
type Switch struct {
	Disc  Node
	Cases []Case
}

// With is a with statement.
type With struct {
	Object Node
	Body   Node
}

// Defun is a function declaration.
type Defun struct {
	Name   string
	Params []string
	Body   []Node
}

// Toplevel is the root of a compile unit.
type Toplevel struct {
	Body []Node
}

// Splice holds nodes that belong inline in the enclosing statement list.
type Splice struct {
	Nodes []Node
}

func (*Name) Kind() Kind        { return KindName }
func (*Num) Kind() Kind         { return KindNum }
func (*String) Kind() Kind      { return KindString }
func (*Atom) Kind() Kind        { return KindAtom }
func (*Regexp) Kind() Kind      { return KindRegexp }
func (*Array) Kind() Kind       { return KindArray }
func (*Object) Kind() Kind      { return KindObject }
func (*Call) Kind() Kind        { return KindCall }
func (*New) Kind() Kind         { return KindNew }
func (*Binary) Kind() Kind      { return KindBinary }
func (*Assign) Kind() Kind      { return KindAssign }
func (*Dot) Kind() Kind         { return KindDot }
func (*Sub) Kind() Kind         { return KindSub }
func (*Conditional) Kind() Kind { return KindConditional }
func (*Seq) Kind() Kind         { return KindSeq }
func (*Function) Kind() Kind    { return KindFunction }
func (*Stat) Kind() Kind        { return KindStat }
func (*Var) Kind() Kind         { return KindVar }
func (*Const) Kind() Kind       { return KindConst }
func (*Block) Kind() Kind       { return KindBlock }
func (*If) Kind() Kind          { return KindIf }
func (*For) Kind() Kind         { return KindFor }
func (*ForIn) Kind() Kind       { return KindForIn }
func (*While) Kind() Kind       { return KindWhile }
func (*Do) Kind() Kind          { return KindDo }
func (*Break) Kind() Kind       { return KindBreak }
func (*Continue) Kind() Kind    { return KindContinue }
func (*Debugger) Kind() Kind    { return KindDebugger }
func (*Labeled) Kind() Kind     { return KindLabel }
func (*Return) Kind() Kind      { return KindReturn }
func (*Throw) Kind() Kind       { return KindThrow }
func (*Try) Kind() Kind         { return KindTry }
func (*Switch) Kind() Kind      { return KindSwitch }
func (*With) Kind() Kind        { return KindWith }
func (*Defun) Kind() Kind       { return KindDefun }
func (*Toplevel) Kind() Kind    { return KindToplevel }
func (*Splice) Kind() Kind      { return KindSplice }

func (u *Unary) Kind() Kind {
	if u.Postfix {
		return KindUnaryPostfix
	}
	return KindUnaryPrefix
}

func (*Name) node()        {}
func (*Num) node()         {}
func (*String) node()      {}
func (*Atom) node()        {}
func (*Regexp) node()      {}
func (*Array) node()       {}
func (*Object) node()      {}
func (*Call) node()        {}
func (*New) node()         {}
func (*Binary) node()      {}
func (*Unary) node()       {}
func (*Assign) node()      {}
func (*Dot) node()         {}
func (*Sub) node()         {}
func (*Conditional) node() {}
func (*Seq) node()         {}
func (*Function) node()    {}
func (*Stat) node()        {}
func (*Var) node()         {}
func (*Const) node()       {}
func (*Block) node()       {}
func (*If) node()          {}
func (*For) node()         {}
func (*ForIn) node()       {}
func (*While) node()       {}
func (*Do) node()          {}
func (*Break) node()       {}
func (*Continue) node()    {}
func (*Debugger) node()    {}
func (*Labeled) node()     {}
func (*Return) node()      {}
func (*Throw) node()       {}
func (*Try) node()         {}
func (*Switch) node()      {}
func (*With) node()        {}
func (*Defun) node()       {}
func (*Toplevel) node()    {}
func (*Splice) node()      {}

// NewName returns a name node.
func NewName(name string) *Name { return &Name{Name: name} }

// NewDot returns base.field.
func NewDot(base Node, field string) *Dot { return &Dot{Base: base, Field: field} }

// NewAssign returns a plain "=" assignment.
func NewAssign(target, value Node) *Assign { return &Assign{Target: target, Value: value} }

// NewStat wraps an expression as a statement.
func NewStat(expr Node) *Stat { return &Stat{Expr: expr} }

// NewSplice returns a splice of nodes, dropping nils.
func NewSplice(nodes ...Node) *Splice {
	s := &Splice{Nodes: make([]Node, 0, len(nodes))}
	for _, n := range nodes {
		if n != nil {
			s.Nodes = append(s.Nodes, n)
		}
	}
	return s
}

// Flatten expands splices in a statement list so every element is a
// standalone statement. Nested splices are expanded recursively.
func Flatten(nodes []Node) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if s, ok := n.(*Splice); ok {
			out = append(out, Flatten(s.Nodes)...)
			continue
		}
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

// IsExpression reports whether the node is a value-producing kind.
func IsExpression(n Node) bool {
	switch n.(type) {
	case *Name, *Num, *String, *Atom, *Regexp, *Array, *Object, *Call, *New,
		*Binary, *Unary, *Assign, *Dot, *Sub, *Conditional, *Seq, *Function:
		return true
	}
	return false
}
