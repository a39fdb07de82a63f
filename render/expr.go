package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/wippyai/druta/ast"
)

// Expression precedence levels, loosest first.
const (
	precLowest = iota
	precSeq
	precAssign
	precConditional
	precOr
	precAnd
	precBitOr
	precBitXor
	precBitAnd
	precEquality
	precRelational
	precShift
	precAdditive
	precMultiplicative
	precPrefix
	precPostfix
	precCall
	precMember
	precPrimary
)

var binaryPrec = map[string]int{
	"||": precOr,
	"&&": precAnd,
	"|":  precBitOr,
	"^":  precBitXor,
	"&":  precBitAnd,
	"==": precEquality, "===": precEquality, "!=": precEquality, "!==": precEquality,
	"<": precRelational, ">": precRelational, "<=": precRelational, ">=": precRelational,
	"in": precRelational, "instanceof": precRelational,
	"<<": precShift, ">>": precShift, ">>>": precShift,
	"+": precAdditive, "-": precAdditive,
	"*": precMultiplicative, "/": precMultiplicative, "%": precMultiplicative,
}

func precOf(n ast.Node) int {
	switch n := n.(type) {
	case *ast.Seq:
		return precSeq
	case *ast.Assign:
		return precAssign
	case *ast.Conditional:
		return precConditional
	case *ast.Binary:
		if p, ok := binaryPrec[n.Op]; ok {
			return p
		}
		return precOr
	case *ast.Unary:
		if n.Postfix {
			return precPostfix
		}
		return precPrefix
	case *ast.Call:
		return precCall
	case *ast.New:
		if len(n.Args) == 0 {
			return precCall
		}
		return precMember
	case *ast.Dot, *ast.Sub:
		return precMember
	}
	return precPrimary
}

// expr renders n, parenthesised when it binds looser than minPrec.
func (p *printer) expr(n ast.Node, minPrec int) string {
	s := p.exprRaw(n)
	if n != nil && precOf(n) < minPrec {
		return "(" + s + ")"
	}
	return s
}

func (p *printer) exprRaw(n ast.Node) string {
	switch n := n.(type) {
	case *ast.Name:
		return n.Name
	case *ast.Num:
		return n.Value
	case *ast.String:
		return quote(n.Value)
	case *ast.Atom:
		return n.Value
	case *ast.Regexp:
		return "/" + n.Pattern + "/" + n.Flags
	case *ast.Array:
		return "[" + p.list(n.Elements) + "]"
	case *ast.Object:
		if len(n.Props) == 0 {
			return "{}"
		}
		parts := make([]string, len(n.Props))
		for i, prop := range n.Props {
			key := prop.Key
			if !isIdentifier(key) {
				key = quote(key)
			}
			parts[i] = key + ": " + p.expr(prop.Value, precAssign)
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case *ast.Call:
		callee := p.expr(n.Callee, precCall)
		if _, ok := n.Callee.(*ast.Function); ok {
			callee = "(" + callee + ")"
		}
		return callee + "(" + p.list(n.Args) + ")"
	case *ast.New:
		return "new " + p.expr(n.Callee, precMember) + "(" + p.list(n.Args) + ")"
	case *ast.Binary:
		prec := precOf(n)
		left := p.expr(n.Left, prec)
		right := p.expr(n.Right, prec+1)
		return left + " " + n.Op + " " + right
	case *ast.Unary:
		if n.Postfix {
			return p.expr(n.Operand, precPostfix) + n.Op
		}
		operand := p.expr(n.Operand, precPrefix)
		if isWordOp(n.Op) {
			return n.Op + " " + operand
		}
		// Keep "- -x" and "+ ++x" from fusing into a different operator.
		if (n.Op == "-" || n.Op == "+" || n.Op == "--" || n.Op == "++") && strings.HasPrefix(operand, n.Op[:1]) {
			return n.Op + " " + operand
		}
		return n.Op + operand
	case *ast.Assign:
		return p.expr(n.Target, precPostfix) + " " + n.Op + "= " + p.expr(n.Value, precAssign)
	case *ast.Dot:
		base := p.expr(n.Base, precCall)
		if _, ok := n.Base.(*ast.Num); ok {
			base = "(" + base + ")"
		}
		return base + "." + n.Field
	case *ast.Sub:
		return p.expr(n.Base, precCall) + "[" + p.expr(n.Index, precLowest) + "]"
	case *ast.Conditional:
		return p.expr(n.Test, precOr) + " ? " + p.expr(n.Then, precAssign) + " : " + p.expr(n.Else, precAssign)
	case *ast.Seq:
		parts := make([]string, len(n.Exprs))
		for i, e := range n.Exprs {
			parts[i] = p.expr(e, precAssign)
		}
		return strings.Join(parts, ", ")
	case *ast.Function:
		return p.function(n.Name, n.Params, n.Body)
	}
	return p.fail(n, "not an expression")
}

func (p *printer) list(nodes []ast.Node) string {
	parts := make([]string, len(nodes))
	for i, e := range nodes {
		parts[i] = p.expr(e, precAssign)
	}
	return strings.Join(parts, ", ")
}

func isWordOp(op string) bool {
	switch op {
	case "typeof", "void", "delete":
		return true
	}
	return false
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '$' || r == '_':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// quote produces a double-quoted JavaScript string literal.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\u2028', '\u2029':
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			if r < 0x20 || r == utf8.RuneError && size == 1 {
				fmt.Fprintf(&b, `\u%04x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
