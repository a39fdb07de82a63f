package transform

import (
	"strconv"

	"github.com/wippyai/druta/ast"
	"github.com/wippyai/druta/errors"
	"github.com/wippyai/druta/exec"
	"github.com/wippyai/druta/render"
	"github.com/wippyai/druta/transform/internal/ir"
)

func serialize(list []*ir.Instruction, r render.Renderer, path []string) (exec.Code, error) {
	out := make(exec.Code, 0, len(list))
	for i, ins := range list {
		at := child(path, strconv.Itoa(i))
		switch ins.Command {
		case ir.CmdIf:
			cond, err := payload(r, ins.Cond, at)
			if err != nil {
				return nil, err
			}
			then, err := serialize(ins.Then, r, child(at, "then"))
			if err != nil {
				return nil, err
			}
			els, err := serialize(ins.Else, r, child(at, "else"))
			if err != nil {
				return nil, err
			}
			out = append(out, &exec.If{
				Command:  string(ins.Command),
				Async:    ins.Async,
				CondCode: cond,
				ThenCode: then,
				ElseCode: els,
			})
		case ir.CmdFor:
			test, err := serialize(ins.Test, r, child(at, "cond"))
			if err != nil {
				return nil, err
			}
			step, err := serialize(ins.Step, r, child(at, "step"))
			if err != nil {
				return nil, err
			}
			body, err := serialize(ins.Body, r, child(at, "body"))
			if err != nil {
				return nil, err
			}
			out = append(out, &exec.For{
				Command:  string(ins.Command),
				Async:    ins.Async,
				CondCode: test,
				StepCode: step,
				BodyCode: body,
			})
		case ir.CmdDefun:
			body, err := serialize(ins.Body, r, child(at, ins.Name))
			if err != nil {
				return nil, err
			}
			out = append(out, &exec.Defun{
				Command: string(ins.Command),
				Async:   ins.Async,
				Name:    ins.Name,
				Args:    append([]string{}, ins.Params...),
				Code:    body,
			})
		default:
			code, err := payload(r, ins.Code, at)
			if err != nil {
				return nil, err
			}
			out = append(out, &exec.Leaf{
				Command: string(ins.Command),
				Async:   ins.Async,
				Code:    code,
			})
		}
	}
	return out, nil
}

func payload(r render.Renderer, n ast.Node, path []string) (string, error) {
	if n == nil {
		return "", errors.InvalidData(errors.PhaseSerialize, path, "instruction without payload")
	}
	s, err := r.Render(n)
	if err != nil {
		return "", errors.New(errors.PhaseSerialize, errors.KindEncode).
			Path(path...).
			Node(string(n.Kind())).
			Cause(err).
			Build()
	}
	return s, nil
}

func child(path []string, seg string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = seg
	return out
}
