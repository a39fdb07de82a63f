package engine

import (
	"fmt"
	"strings"
	"testing"

	"github.com/wippyai/druta/ast"
	"github.com/wippyai/druta/render"
	"github.com/wippyai/druta/transform/internal/ir"
)

type prefixMatcher string

func (p prefixMatcher) Match(name string) bool { return strings.HasPrefix(name, string(p)) }

func newTestEngine() *Engine {
	return New(Config{Matcher: prefixMatcher("async")})
}

// Tree construction shorthands.

func name(s string) ast.Node { return ast.NewName(s) }
func num(s string) ast.Node  { return &ast.Num{Value: s} }

func call(callee string, args ...ast.Node) ast.Node {
	return &ast.Call{Callee: name(callee), Args: args}
}

func assign(target string, value ast.Node) ast.Node {
	return ast.NewStat(ast.NewAssign(name(target), value))
}

func bin(op string, l, r ast.Node) ast.Node {
	return &ast.Binary{Op: op, Left: l, Right: r}
}

func stat(e ast.Node) ast.Node { return ast.NewStat(e) }

func block(stmts ...ast.Node) ast.Node { return &ast.Block{Body: stmts} }

func varDef(n string, init ast.Node) ast.Node {
	return &ast.Var{Defs: []ast.VarDef{{Name: n, Init: init}}}
}

func defun(n string, params []string, body ...ast.Node) ast.Node {
	return &ast.Defun{Name: n, Params: params, Body: body}
}

func top(stmts ...ast.Node) *ast.Toplevel { return &ast.Toplevel{Body: stmts} }

const (
	t0 = DefaultTempPrefix + "0"
	t1 = DefaultTempPrefix + "1"
	t2 = DefaultTempPrefix + "2"
)

func mustTransform(t *testing.T, e *Engine, tree *ast.Toplevel) *Result {
	t.Helper()
	res, err := e.Transform(tree)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	return res
}

// describe flattens an instruction list into one line per instruction.
// Async leaves get a '*' after the command; nesting is indented.
func describe(t *testing.T, list []*ir.Instruction) []string {
	t.Helper()
	var out []string
	var walk func(list []*ir.Instruction, indent string)
	code := func(n ast.Node) string {
		s, err := render.Compact(n)
		if err != nil {
			t.Fatalf("render: %v", err)
		}
		return s
	}
	walk = func(list []*ir.Instruction, indent string) {
		for _, ins := range list {
			switch ins.Command {
			case ir.CmdIf:
				out = append(out, indent+"if "+code(ins.Cond))
				out = append(out, indent+"  then")
				walk(ins.Then, indent+"    ")
				out = append(out, indent+"  else")
				walk(ins.Else, indent+"    ")
			case ir.CmdFor:
				out = append(out, indent+"for")
				out = append(out, indent+"  test")
				walk(ins.Test, indent+"    ")
				out = append(out, indent+"  step")
				walk(ins.Step, indent+"    ")
				out = append(out, indent+"  body")
				walk(ins.Body, indent+"    ")
			case ir.CmdDefun:
				out = append(out, fmt.Sprintf("%sdefun %s(%s)", indent, ins.Name, strings.Join(ins.Params, ", ")))
				walk(ins.Body, indent+"  ")
			default:
				cmd := string(ins.Command)
				if ins.Async {
					cmd += "*"
				}
				out = append(out, indent+cmd+" "+code(ins.Code))
			}
		}
	}
	walk(list, "")
	return out
}

func assertLines(t *testing.T, got, want []string) {
	t.Helper()
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("instructions mismatch\ngot:\n  %s\nwant:\n  %s",
			strings.Join(got, "\n  "), strings.Join(want, "\n  "))
	}
}
