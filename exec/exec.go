// Package exec defines Executable Code, the instruction forest handed to
// a continuation-driven runtime.
//
// Every instruction carries an async flag and a command. Leaves carry
// rendered source; if, for and defun instructions carry nested lists:
//
//	{async, command, code}                               leaf
//	{async, command:"if", condCode, thenCode, elseCode}  if
//	{async, command:"for", condCode, stepCode, bodyCode} for
//	{async, command:"defun", name, code, args}           function declaration
//
// Code encodes to and decodes from JSON, YAML and canonical CBOR.
package exec

// Commands with a nested payload.
const (
	CommandIf    = "if"
	CommandFor   = "for"
	CommandDefun = "defun"
)

// Instruction is one element of Executable Code.
type Instruction interface {
	// Cmd returns the runtime command.
	Cmd() string
	// Suspends reports whether the runtime must wait for a callback
	// after executing the instruction.
	Suspends() bool
	instruction()
}

// Code is an ordered instruction list.
type Code []Instruction

// Leaf is an instruction whose payload is one rendered statement.
type Leaf struct {
	Command string `json:"command" yaml:"command" cbor:"command"`
	Code    string `json:"code" yaml:"code" cbor:"code"`
	Async   bool   `json:"async" yaml:"async" cbor:"async"`
}

// If branches on CondCode, evaluated after the instructions preceding it.
type If struct {
	Command  string `json:"command" yaml:"command" cbor:"command"`
	CondCode string `json:"condCode" yaml:"condCode" cbor:"condCode"`
	ThenCode Code   `json:"thenCode" yaml:"thenCode" cbor:"thenCode"`
	ElseCode Code   `json:"elseCode" yaml:"elseCode" cbor:"elseCode"`
	Async    bool   `json:"async" yaml:"async" cbor:"async"`
}

// For loops while CondCode's final test holds, running BodyCode then
// StepCode each iteration. An empty CondCode loops forever.
type For struct {
	Command  string `json:"command" yaml:"command" cbor:"command"`
	CondCode Code   `json:"condCode" yaml:"condCode" cbor:"condCode"`
	StepCode Code   `json:"stepCode" yaml:"stepCode" cbor:"stepCode"`
	BodyCode Code   `json:"bodyCode" yaml:"bodyCode" cbor:"bodyCode"`
	Async    bool   `json:"async" yaml:"async" cbor:"async"`
}

// Defun declares a function whose body is Code.
type Defun struct {
	Command string   `json:"command" yaml:"command" cbor:"command"`
	Name    string   `json:"name" yaml:"name" cbor:"name"`
	Code    Code     `json:"code" yaml:"code" cbor:"code"`
	Args    []string `json:"args" yaml:"args" cbor:"args"`
	Async   bool     `json:"async" yaml:"async" cbor:"async"`
}

func (l *Leaf) Cmd() string  { return l.Command }
func (i *If) Cmd() string    { return i.Command }
func (f *For) Cmd() string   { return f.Command }
func (d *Defun) Cmd() string { return d.Command }

func (l *Leaf) Suspends() bool  { return l.Async }
func (i *If) Suspends() bool    { return i.Async }
func (f *For) Suspends() bool   { return f.Async }
func (d *Defun) Suspends() bool { return d.Async }

func (*Leaf) instruction()  {}
func (*If) instruction()    {}
func (*For) instruction()   {}
func (*Defun) instruction() {}

// newInstruction returns an empty instruction for a command.
func newInstruction(command string) Instruction {
	switch command {
	case CommandIf:
		return &If{}
	case CommandFor:
		return &For{}
	case CommandDefun:
		return &Defun{}
	}
	return &Leaf{}
}

// Walk visits every instruction depth-first in program order. If fn
// returns false the instruction's nested lists are skipped.
func Walk(code Code, fn func(Instruction) bool) {
	for _, ins := range code {
		if !fn(ins) {
			continue
		}
		switch ins := ins.(type) {
		case *If:
			Walk(ins.ThenCode, fn)
			Walk(ins.ElseCode, fn)
		case *For:
			Walk(ins.CondCode, fn)
			Walk(ins.StepCode, fn)
			Walk(ins.BodyCode, fn)
		case *Defun:
			Walk(ins.Code, fn)
		}
	}
}

// Count returns the number of instructions including nested ones.
func Count(code Code) int {
	n := 0
	Walk(code, func(Instruction) bool { n++; return true })
	return n
}
