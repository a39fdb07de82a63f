package engine

import (
	"github.com/wippyai/druta/ast"
	"github.com/wippyai/druta/transform/internal/ir"
)

// treeOf derives the rewritten statements of a region from its
// instructions.
func treeOf(list []*ir.Instruction) []ast.Node {
	out := make([]ast.Node, 0, len(list))
	for _, ins := range list {
		switch ins.Command {
		case ir.CmdIf:
			out = append(out, ifTree(ins)...)
		case ir.CmdFor:
			out = append(out, forTree(ins))
		case ir.CmdDefun:
			out = append(out, &ast.Defun{Name: ins.Name, Params: ins.Params, Body: treeOf(ins.Body)})
		case ir.CmdTest:
			out = append(out, ast.NewStat(ins.Code))
		default:
			out = append(out, ins.Code)
		}
	}
	return out
}

// ifTree composes the if shape from its split bits. A split condition is
// already hoisted by position; a split branch has its statements hoisted
// before the if and is replaced by a reference to its result temp.
func ifTree(ins *ir.Instruction) []ast.Node {
	var out []ast.Node

	var then ast.Node = &ast.Block{Body: treeOf(ins.Then)}
	if ins.ThenTemp != "" {
		out = append(out, treeOf(ins.Then)...)
		then = ast.NewStat(ast.NewName(ins.ThenTemp))
	}

	var els ast.Node
	if ins.HasElse {
		els = &ast.Block{Body: treeOf(ins.Else)}
		if ins.ElseTemp != "" {
			out = append(out, treeOf(ins.Else)...)
			els = ast.NewStat(ast.NewName(ins.ElseTemp))
		}
	}

	if len(out) == 0 {
		return []ast.Node{&ast.If{Cond: ins.Cond, Then: then, Else: els}}
	}
	return []ast.Node{ast.NewSplice(append(out, &ast.If{Cond: ins.Cond, Then: then, Else: els})...)}
}

// forTree rebuilds a loop. A split condition is re-evaluated at the top
// of the body followed by a negated break; a split step runs at the end
// of the body.
func forTree(ins *ir.Instruction) ast.Node {
	f := &ast.For{}
	var body []ast.Node
	if ins.CondSplit {
		body = append(body, treeOf(ins.Test[:len(ins.Test)-1])...)
		body = append(body, &ast.If{
			Cond: &ast.Unary{Op: "!", Operand: ast.Clone(ins.Cond)},
			Then: &ast.Break{},
		})
	} else {
		f.Cond = ins.Cond
	}
	body = append(body, treeOf(ins.Body)...)
	if ins.Code != nil {
		f.Step = ins.Code
	} else {
		body = append(body, treeOf(ins.Step)...)
	}
	f.Body = &ast.Block{Body: body}
	return f
}
