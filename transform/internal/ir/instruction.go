package ir

import "github.com/wippyai/druta/ast"

// Command names the operation an instruction asks the runtime to perform.
type Command string

const (
	CmdCall  Command = "call"  // hoisted call statement
	CmdStat  Command = "stat"  // synchronous statement
	CmdTest  Command = "test"  // loop condition evaluation
	CmdIf    Command = "if"    // conditional with nested branches
	CmdFor   Command = "for"   // loop with nested condition/step/body
	CmdDefun Command = "defun" // function declaration with nested body
)

// PassThrough returns the command for a statement kind copied through
// without analysis (break, while, return, ...).
func PassThrough(kind ast.Kind) Command {
	return Command(kind)
}

// Instruction is one unit of executable code before serialization.
// Payloads are syntax nodes; the serializer renders them to text.
//
// For a for instruction, Cond is the loop test expression and Code holds
// the step expression when the step stayed synchronous.
type Instruction struct {
	Code    ast.Node // leaf payload
	Cond    ast.Node // if condition, for test
	Command Command
	Name    string // defun name
	// ThenTemp and ElseTemp name the result temp of a split branch.
	ThenTemp string
	ElseTemp string
	Params   []string
	Then     []*Instruction
	Else     []*Instruction
	Test     []*Instruction // for condition
	Step     []*Instruction
	Body     []*Instruction // for body, defun body
	// Shape is the cond/then/else split bitmask of an if.
	Shape     int
	Async     bool
	HasElse   bool
	CondSplit bool
}

// Leaf creates a leaf instruction.
func Leaf(cmd Command, code ast.Node, async bool) *Instruction {
	return &Instruction{Command: cmd, Code: code, Async: async}
}

// IsLeaf reports whether the instruction carries a single code payload.
func (i *Instruction) IsLeaf() bool {
	switch i.Command {
	case CmdIf, CmdFor, CmdDefun:
		return false
	}
	return true
}

// Walk visits every instruction depth-first in program order.
func Walk(list []*Instruction, fn func(*Instruction)) {
	for _, ins := range list {
		fn(ins)
		Walk(ins.Then, fn)
		Walk(ins.Else, fn)
		Walk(ins.Test, fn)
		Walk(ins.Step, fn)
		Walk(ins.Body, fn)
	}
}

// Count returns the number of instructions including nested ones.
func Count(list []*Instruction) int {
	n := 0
	Walk(list, func(*Instruction) { n++ })
	return n
}
