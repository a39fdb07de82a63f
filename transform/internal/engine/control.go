package engine

import (
	"go.uber.org/zap"

	"github.com/wippyai/druta/ast"
	"github.com/wippyai/druta/transform/internal/ir"
)

// Shape bits of an if statement, most significant first.
const (
	bitCond = 1 << 2
	bitThen = 1 << 1
	bitElse = 1 << 0
)

// ifStmt walks condition, then and else in isolated frames, in that
// order. The condition's instructions are hoisted into the enclosing
// frame; each branch keeps its own nested list.
func (c *context) ifStmt(n *ast.If) error {
	c.enter("if")
	defer c.leave()

	c.frames.Push()
	c.enter("cond")
	cond, condSplit, err := c.sub(n.Cond)
	c.leave()
	condIns := c.frames.Pop()
	if err != nil {
		return err
	}
	c.frames.EmitAll(condIns)

	thenIns, thenSplit, err := c.region("then", n.Then)
	if err != nil {
		return err
	}
	thenTemp := ""
	if thenSplit {
		thenTemp = c.scope.CurrentTemp()
	}

	elseIns, elseSplit, err := c.region("else", n.Else)
	if err != nil {
		return err
	}
	elseTemp := ""
	if elseSplit {
		elseTemp = c.scope.CurrentTemp()
	}

	shape := 0
	if condSplit {
		shape |= bitCond
	}
	if thenSplit {
		shape |= bitThen
	}
	if elseSplit {
		shape |= bitElse
	}
	c.log.Debug("if shape", zap.Int("bits", shape), zap.Strings("path", c.path))

	c.frames.Defer(&ir.Instruction{
		Command:  ir.CmdIf,
		Cond:     cond,
		Then:     thenIns,
		Else:     elseIns,
		HasElse:  n.Else != nil,
		Shape:    shape,
		ThenTemp: thenTemp,
		ElseTemp: elseTemp,
	})
	c.sig = signal{async: shape != 0}
	return nil
}

// forStmt hoists the initializer into the enclosing frame and keeps
// condition, step and body as nested lists evaluated per iteration.
// The condition list always ends with a test leaf unless the loop has
// no condition.
func (c *context) forStmt(n *ast.For) error {
	c.enter("for")
	defer c.leave()

	split := false
	if n.Init != nil {
		initIns, s, err := c.region("init", n.Init)
		if err != nil {
			return err
		}
		c.frames.EmitAll(initIns)
		split = s
	}

	c.frames.Push()
	var (
		cond      ast.Node
		condSplit bool
	)
	if n.Cond != nil {
		c.enter("cond")
		var err error
		cond, condSplit, err = c.sub(n.Cond)
		c.leave()
		if err != nil {
			c.frames.Pop()
			return err
		}
		c.frames.Defer(ir.Leaf(ir.CmdTest, cond, false))
	}
	testIns := c.frames.Pop()

	c.frames.Push()
	var (
		step      ast.Node
		stepSplit bool
	)
	if n.Step != nil {
		c.enter("step")
		var err error
		step, stepSplit, err = c.sub(n.Step)
		c.leave()
		if err != nil {
			c.frames.Pop()
			return err
		}
		if !stepSplit {
			c.frames.Defer(ir.Leaf(ir.CmdStat, ast.NewStat(step), false))
		}
	}
	stepIns := c.frames.Pop()

	bodyIns, bodySplit, err := c.region("body", n.Body)
	if err != nil {
		return err
	}

	ins := &ir.Instruction{
		Command:   ir.CmdFor,
		Cond:      cond,
		Test:      testIns,
		Step:      stepIns,
		Body:      bodyIns,
		CondSplit: condSplit,
	}
	if !stepSplit {
		ins.Code = step
	}
	c.frames.Defer(ins)
	c.sig = signal{async: split || condSplit || stepSplit || bodySplit}
	return nil
}
