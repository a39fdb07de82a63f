package exec

import (
	"strings"

	"github.com/xlab/treeprint"
)

// Tree renders code as an indented tree for humans. Async leaves are
// tagged [async].
func Tree(code Code) string {
	root := treeprint.NewWithRoot("code")
	addTree(root, code)
	return root.String()
}

func addTree(t treeprint.Tree, code Code) {
	for _, ins := range code {
		switch ins := ins.(type) {
		case *If:
			b := t.AddBranch("if " + oneLine(ins.CondCode))
			addTree(b.AddBranch("then"), ins.ThenCode)
			if len(ins.ElseCode) > 0 {
				addTree(b.AddBranch("else"), ins.ElseCode)
			}
		case *For:
			b := t.AddBranch("for")
			addTree(b.AddBranch("cond"), ins.CondCode)
			addTree(b.AddBranch("step"), ins.StepCode)
			addTree(b.AddBranch("body"), ins.BodyCode)
		case *Defun:
			addTree(t.AddBranch("defun "+ins.Name+"("+strings.Join(ins.Args, ", ")+")"), ins.Code)
		case *Leaf:
			if ins.Async {
				t.AddMetaNode("async", ins.Command+": "+oneLine(ins.Code))
				continue
			}
			t.AddNode(ins.Command + ": " + oneLine(ins.Code))
		}
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
