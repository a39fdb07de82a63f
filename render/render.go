// Package render turns syntax trees back into JavaScript source text.
//
// The transformer treats rendering as an external collaborator reached
// through the Renderer interface; JS is the default implementation and
// produces beautified output in the style of UglifyJS gen_code.
package render

import (
	"strings"

	"github.com/wippyai/druta/ast"
	"github.com/wippyai/druta/errors"
)

// Renderer converts a syntax node into source text.
type Renderer interface {
	Render(node ast.Node) (string, error)
}

// Config controls output layout.
type Config struct {
	// Indent is the per-level indentation. Defaults to four spaces.
	Indent string
	// Compact renders everything on one line, used for instruction payloads.
	Compact bool
}

// JS renders JavaScript source.
type JS struct {
	indent  string
	compact bool
}

// New creates a JS renderer.
func New(cfg Config) *JS {
	indent := cfg.Indent
	if indent == "" {
		indent = "    "
	}
	return &JS{indent: indent, compact: cfg.Compact}
}

// Render implements Renderer.
func (r *JS) Render(node ast.Node) (string, error) {
	if node == nil {
		return "", errors.InvalidInput(errors.PhaseRender, "nil node")
	}
	p := &printer{indent: r.indent, compact: r.compact}
	if ast.IsExpression(node) {
		p.b.WriteString(p.expr(node, precLowest))
	} else {
		p.stmtList(ast.Flatten([]ast.Node{node}), true)
	}
	if p.err != nil {
		return "", p.err
	}
	return p.b.String(), nil
}

// Render renders node with the default configuration.
func Render(node ast.Node) (string, error) {
	return New(Config{}).Render(node)
}

// Compact renders node on a single line.
func Compact(node ast.Node) (string, error) {
	return New(Config{Compact: true}).Render(node)
}

type printer struct {
	err     error
	indent  string
	b       strings.Builder
	depth   int
	compact bool
}

func (p *printer) fail(n ast.Node, detail string) string {
	if p.err == nil {
		kind := "nil"
		if n != nil {
			kind = string(n.Kind())
		}
		p.err = errors.InvalidNode(errors.PhaseRender, nil, kind, detail)
	}
	return ""
}

// newline starts a new line at the current depth, or emits a space in
// compact mode.
func (p *printer) newline() {
	if p.compact {
		p.b.WriteByte(' ')
		return
	}
	p.b.WriteByte('\n')
	p.b.WriteString(strings.Repeat(p.indent, p.depth))
}

func (p *printer) stmtList(stmts []ast.Node, top bool) {
	for i, s := range stmts {
		if i > 0 || !top {
			p.newline()
		}
		p.stmt(s)
	}
}

// block writes a braced statement list at the next depth.
func (p *printer) block(stmts []ast.Node) {
	stmts = ast.Flatten(stmts)
	if len(stmts) == 0 {
		p.b.WriteString("{}")
		return
	}
	p.b.WriteByte('{')
	p.depth++
	p.stmtList(stmts, false)
	p.depth--
	p.newline()
	p.b.WriteByte('}')
}

// body writes a statement used as the body of a control structure.
func (p *printer) body(n ast.Node) {
	switch n := n.(type) {
	case *ast.Block:
		p.block(n.Body)
	case *ast.Splice:
		p.block(n.Nodes)
	default:
		p.stmt(n)
	}
}

func (p *printer) stmt(n ast.Node) {
	switch n := n.(type) {
	case *ast.Stat:
		e := p.expr(n.Expr, precLowest)
		switch n.Expr.(type) {
		case *ast.Function, *ast.Object:
			e = "(" + e + ")"
		}
		p.b.WriteString(e)
		p.b.WriteByte(';')
	case *ast.Var:
		p.b.WriteString(p.defs("var", n.Defs))
		p.b.WriteByte(';')
	case *ast.Const:
		p.b.WriteString(p.defs("const", n.Defs))
		p.b.WriteByte(';')
	case *ast.Block:
		p.block(n.Body)
	case *ast.Splice:
		p.stmtList(ast.Flatten(n.Nodes), true)
	case *ast.If:
		p.ifStmt(n)
	case *ast.For:
		p.b.WriteString("for (")
		if n.Init != nil {
			if v, ok := n.Init.(*ast.Var); ok {
				p.b.WriteString(p.defs("var", v.Defs))
			} else {
				p.b.WriteString(p.expr(n.Init, precLowest))
			}
		}
		p.b.WriteString("; ")
		if n.Cond != nil {
			p.b.WriteString(p.expr(n.Cond, precLowest))
		}
		p.b.WriteString("; ")
		if n.Step != nil {
			p.b.WriteString(p.expr(n.Step, precLowest))
		}
		p.b.WriteString(") ")
		p.body(n.Body)
	case *ast.ForIn:
		p.b.WriteString("for (")
		if v, ok := n.Init.(*ast.Var); ok {
			p.b.WriteString(p.defs("var", v.Defs))
		} else {
			p.b.WriteString(p.expr(n.Init, precPostfix))
		}
		p.b.WriteString(" in ")
		p.b.WriteString(p.expr(n.Object, precLowest))
		p.b.WriteString(") ")
		p.body(n.Body)
	case *ast.While:
		p.b.WriteString("while (" + p.expr(n.Cond, precLowest) + ") ")
		p.body(n.Body)
	case *ast.Do:
		p.b.WriteString("do ")
		p.body(n.Body)
		p.b.WriteString(" while (" + p.expr(n.Cond, precLowest) + ");")
	case *ast.Break:
		p.b.WriteString(jump("break", n.Label))
	case *ast.Continue:
		p.b.WriteString(jump("continue", n.Label))
	case *ast.Debugger:
		p.b.WriteString("debugger;")
	case *ast.Labeled:
		p.b.WriteString(n.Label + ": ")
		p.stmt(n.Body)
	case *ast.Return:
		if n.Value == nil {
			p.b.WriteString("return;")
			return
		}
		p.b.WriteString("return " + p.expr(n.Value, precLowest) + ";")
	case *ast.Throw:
		p.b.WriteString("throw " + p.expr(n.Value, precLowest) + ";")
	case *ast.Try:
		p.b.WriteString("try ")
		p.block(n.Body)
		if n.Catch != nil {
			p.b.WriteString(" catch (" + n.Catch.Name + ") ")
			p.block(n.Catch.Body)
		}
		if n.Finally != nil {
			p.b.WriteString(" finally ")
			p.block(n.Finally)
		}
	case *ast.Switch:
		p.switchStmt(n)
	case *ast.With:
		p.b.WriteString("with (" + p.expr(n.Object, precLowest) + ") ")
		p.body(n.Body)
	case *ast.Defun:
		p.b.WriteString(p.function(n.Name, n.Params, n.Body))
	case *ast.Toplevel:
		p.stmtList(ast.Flatten(n.Body), true)
	default:
		if n != nil && ast.IsExpression(n) {
			p.b.WriteString(p.expr(n, precLowest) + ";")
			return
		}
		p.fail(n, "not a statement")
	}
}

func jump(word, label string) string {
	if label == "" {
		return word + ";"
	}
	return word + " " + label + ";"
}

func (p *printer) ifStmt(n *ast.If) {
	p.b.WriteString("if (" + p.expr(n.Cond, precLowest) + ") ")
	then := n.Then
	// A then-branch if without its own else would capture ours.
	if inner, ok := then.(*ast.If); ok && inner.Else == nil && n.Else != nil {
		then = &ast.Block{Body: []ast.Node{inner}}
	}
	p.body(then)
	if n.Else == nil {
		return
	}
	p.b.WriteString(" else ")
	p.body(n.Else)
}

func (p *printer) switchStmt(n *ast.Switch) {
	p.b.WriteString("switch (" + p.expr(n.Disc, precLowest) + ") {")
	p.depth++
	for _, c := range n.Cases {
		p.newline()
		if c.Test == nil {
			p.b.WriteString("default:")
		} else {
			p.b.WriteString("case " + p.expr(c.Test, precLowest) + ":")
		}
		p.depth++
		p.stmtList(ast.Flatten(c.Body), false)
		p.depth--
	}
	p.depth--
	p.newline()
	p.b.WriteByte('}')
}

func (p *printer) defs(word string, defs []ast.VarDef) string {
	parts := make([]string, len(defs))
	for i, d := range defs {
		if d.Init == nil {
			parts[i] = d.Name
			continue
		}
		parts[i] = d.Name + " = " + p.expr(d.Init, precAssign)
	}
	return word + " " + strings.Join(parts, ", ")
}

func (p *printer) function(name string, params []string, body []ast.Node) string {
	var b strings.Builder
	b.WriteString("function")
	if name != "" {
		b.WriteByte(' ')
		b.WriteString(name)
	}
	b.WriteByte('(')
	b.WriteString(strings.Join(params, ", "))
	b.WriteString(") ")

	sub := &printer{indent: p.indent, compact: p.compact, depth: p.depth}
	sub.block(body)
	if sub.err != nil && p.err == nil {
		p.err = sub.err
	}
	b.WriteString(sub.b.String())
	return b.String()
}
