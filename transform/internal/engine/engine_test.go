package engine

import (
	"strconv"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/druta/ast"
	"github.com/wippyai/druta/errors"
	"github.com/wippyai/druta/render"
	"github.com/wippyai/druta/transform/internal/ir"
)

type matchFunc func(string) bool

func (f matchFunc) Match(name string) bool { return f(name) }

func TestCallHoisting(t *testing.T) {
	tests := []struct {
		name   string
		callee string
		want   []string
	}{
		{
			name:   "sync looking callee",
			callee: "foo",
			want: []string{
				"call foo(a, b);",
				"stat " + t0 + " = self.returnValue;",
				"stat x = " + t0 + ";",
			},
		},
		{
			name:   "primitive callee",
			callee: "asyncFoo",
			want: []string{
				"call* asyncFoo(a, b);",
				"stat " + t0 + " = self.returnValue;",
				"stat x = " + t0 + ";",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := top(assign("x", call(tt.callee, name("a"), name("b"))))
			res := mustTransform(t, newTestEngine(), tree)
			assertLines(t, describe(t, res.Program), tt.want)
			if res.Stats.Calls != 1 {
				t.Errorf("Calls = %d, want 1", res.Stats.Calls)
			}
		})
	}
}

func TestNoCallsIsNoOp(t *testing.T) {
	tree := top(
		varDef("a", num("1")),
		assign("b", bin("+", name("a"), num("2"))),
		stat(&ast.Unary{Op: "++", Postfix: true, Operand: name("b")}),
		&ast.Debugger{},
	)
	res := mustTransform(t, newTestEngine(), tree)

	assertLines(t, describe(t, res.Program), []string{
		"stat $$locals.a = 1;",
		"stat b = $$locals.a + 2;",
		"stat b++;",
		"debugger debugger;",
	})
	for _, ins := range res.Program {
		if ins.Async || !ins.IsLeaf() {
			t.Errorf("instruction %s: async=%v leaf=%v", ins.Command, ins.Async, ins.IsLeaf())
		}
	}
	if res.Stats.Temps != 0 {
		t.Errorf("Temps = %d, want 0", res.Stats.Temps)
	}
}

func TestDeclarationDeferral(t *testing.T) {
	tree := top(varDef("y", call("asyncGet", name("a"))))
	res := mustTransform(t, newTestEngine(), tree)
	assertLines(t, describe(t, res.Program), []string{
		"stat $$locals.y = null;",
		"call* asyncGet(a);",
		"stat " + t0 + " = self.returnValue;",
		"stat $$locals.y = " + t0 + ";",
	})
}

func TestVarWithoutInitializer(t *testing.T) {
	tree := top(&ast.Var{Defs: []ast.VarDef{{Name: "a"}, {Name: "b", Init: num("2")}}})
	res := mustTransform(t, newTestEngine(), tree)
	assertLines(t, describe(t, res.Program), []string{
		"stat $$locals.a = null;",
		"stat $$locals.b = 2;",
	})
}

func TestBinaryPropagation(t *testing.T) {
	tests := []struct {
		name string
		expr ast.Node
		want []string
	}{
		{
			name: "async async",
			expr: bin("+", call("asyncA", num("1")), call("asyncB", num("2"))),
			want: []string{
				"call* asyncA(1);",
				"stat " + t0 + " = self.returnValue;",
				"call* asyncB(2);",
				"stat " + t1 + " = self.returnValue;",
				"stat " + t2 + " = " + t0 + " + " + t1 + ";",
				"stat z = " + t2 + ";",
			},
		},
		{
			name: "async sync",
			expr: bin("*", call("asyncA"), name("k")),
			want: []string{
				"call* asyncA();",
				"stat " + t0 + " = self.returnValue;",
				"stat " + t1 + " = " + t0 + " * k;",
				"stat z = " + t1 + ";",
			},
		},
		{
			name: "sync async",
			expr: bin("-", name("k"), call("asyncB")),
			want: []string{
				"call* asyncB();",
				"stat " + t0 + " = self.returnValue;",
				"stat " + t1 + " = k - " + t0 + ";",
				"stat z = " + t1 + ";",
			},
		},
		{
			name: "sync sync",
			expr: bin("-", name("k"), num("1")),
			want: []string{
				"stat z = k - 1;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mustTransform(t, newTestEngine(), top(assign("z", tt.expr)))
			assertLines(t, describe(t, res.Program), tt.want)
		})
	}
}

func TestUnaryAndMember(t *testing.T) {
	tests := []struct {
		name string
		stmt ast.Node
		want []string
	}{
		{
			name: "negated call",
			stmt: assign("x", &ast.Unary{Op: "!", Operand: call("asyncOk")}),
			want: []string{
				"call* asyncOk();",
				"stat " + t0 + " = self.returnValue;",
				"stat " + t1 + " = !" + t0 + ";",
				"stat x = " + t1 + ";",
			},
		},
		{
			name: "member of call result",
			stmt: assign("x", ast.NewDot(call("asyncGet"), "length")),
			want: []string{
				"call* asyncGet();",
				"stat " + t0 + " = self.returnValue;",
				"stat " + t1 + " = " + t0 + ".length;",
				"stat x = " + t1 + ";",
			},
		},
		{
			name: "method on call result keeps receiver",
			stmt: stat(&ast.Call{Callee: ast.NewDot(call("foo"), "bar"), Args: []ast.Node{num("1")}}),
			want: []string{
				"call foo();",
				"stat " + t0 + " = self.returnValue;",
				"call " + t0 + ".bar(1);",
				"stat " + t1 + " = self.returnValue;",
			},
		},
		{
			name: "primitive method name",
			stmt: stat(&ast.Call{Callee: ast.NewDot(name("host"), "asyncRead"), Args: []ast.Node{name("fd")}}),
			want: []string{
				"call* host.asyncRead(fd);",
				"stat " + t0 + " = self.returnValue;",
			},
		},
		{
			name: "nested call argument",
			stmt: stat(call("outer", call("asyncInner", name("v")), num("2"))),
			want: []string{
				"call* asyncInner(v);",
				"stat " + t0 + " = self.returnValue;",
				"call outer(" + t0 + ", 2);",
				"stat " + t1 + " = self.returnValue;",
			},
		},
		{
			name: "assignment to member of call result",
			stmt: stat(ast.NewAssign(ast.NewDot(call("asyncObj"), "f"), num("3"))),
			want: []string{
				"call* asyncObj();",
				"stat " + t0 + " = self.returnValue;",
				"stat " + t0 + ".f = 3;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mustTransform(t, newTestEngine(), top(tt.stmt))
			assertLines(t, describe(t, res.Program), tt.want)
		})
	}
}

func TestMarkerArgumentFlagsCall(t *testing.T) {
	e := New(Config{Matcher: matchFunc(func(n string) bool { return n == "$$callBack" })})
	res := mustTransform(t, e, top(stat(call("readFile", name("path"), name("$$callBack")))))
	if len(res.Program) == 0 || !res.Program[0].Async {
		t.Fatalf("call with marker argument not flagged: %v", describe(t, res.Program))
	}
	if res.Stats.AsyncCalls != 1 {
		t.Errorf("AsyncCalls = %d, want 1", res.Stats.AsyncCalls)
	}
}

func TestIfShapes(t *testing.T) {
	for bits := 0; bits < 8; bits++ {
		condSplit := bits&bitCond != 0
		thenSplit := bits&bitThen != 0
		elseSplit := bits&bitElse != 0

		t.Run(strconv.Itoa(bits>>2)+strconv.Itoa(bits>>1&1)+strconv.Itoa(bits&1), func(t *testing.T) {
			cond := name("c")
			if condSplit {
				cond = call("asyncC")
			}
			then := block(assign("x", num("1")))
			if thenSplit {
				then = block(assign("x", call("asyncT")))
			}
			els := block(assign("y", num("2")))
			if elseSplit {
				els = block(assign("y", call("asyncE")))
			}

			res := mustTransform(t, newTestEngine(), top(&ast.If{Cond: cond, Then: then, Else: els}))

			// Rewritten tree: hoisted statements, then the if.
			body := res.Tree.Body
			hoisted := 0
			if condSplit {
				hoisted += 2
			}
			if thenSplit {
				hoisted += 3
			}
			if elseSplit {
				hoisted += 3
			}
			if len(body) != hoisted+1 {
				t.Fatalf("top-level statements = %d, want %d", len(body), hoisted+1)
			}
			stmt, ok := body[hoisted].(*ast.If)
			if !ok {
				t.Fatalf("last statement is %T, want *ast.If", body[hoisted])
			}
			if got := isTemp(stmt.Cond); got != condSplit {
				t.Errorf("condition references temp = %v, want %v", got, condSplit)
			}
			if got := isTempStat(stmt.Then); got != thenSplit {
				t.Errorf("then references temp = %v, want %v", got, thenSplit)
			}
			if got := isTempStat(stmt.Else); got != elseSplit {
				t.Errorf("else references temp = %v, want %v", got, elseSplit)
			}

			// Executable code: condition hoisted, branches nested.
			wantTop := 1
			if condSplit {
				wantTop += 2
			}
			if len(res.Program) != wantTop {
				t.Fatalf("top-level instructions = %d, want %d", len(res.Program), wantTop)
			}
			ins := res.Program[wantTop-1]
			if ins.Command != ir.CmdIf || ins.Async {
				t.Fatalf("instruction = %s async=%v, want non-async if", ins.Command, ins.Async)
			}
			if ins.Shape != bits {
				t.Errorf("Shape = %03b, want %03b", ins.Shape, bits)
			}
			if want := branchLen(thenSplit); len(ins.Then) != want {
				t.Errorf("then instructions = %d, want %d", len(ins.Then), want)
			}
			if want := branchLen(elseSplit); len(ins.Else) != want {
				t.Errorf("else instructions = %d, want %d", len(ins.Else), want)
			}
		})
	}
}

func branchLen(split bool) int {
	if split {
		return 3
	}
	return 1
}

func isTemp(n ast.Node) bool {
	nm, ok := n.(*ast.Name)
	return ok && strings.HasPrefix(nm.Name, DefaultTempPrefix)
}

func isTempStat(n ast.Node) bool {
	s, ok := n.(*ast.Stat)
	return ok && isTemp(s.Expr)
}

func TestIfRewrittenSource(t *testing.T) {
	tree := top(&ast.If{
		Cond: name("c"),
		Then: block(assign("x", call("asyncT"))),
		Else: block(assign("y", num("2"))),
	})
	res := mustTransform(t, newTestEngine(), tree)
	got, err := render.Render(res.Tree)
	if err != nil {
		t.Fatal(err)
	}
	want := "asyncT();\n" +
		t0 + " = self.returnValue;\n" +
		"x = " + t0 + ";\n" +
		"if (c) " + t0 + "; else {\n" +
		"    y = 2;\n" +
		"}"
	if got != want {
		t.Errorf("rendered source:\n%s\nwant:\n%s", got, want)
	}
}

func TestIfWithoutElse(t *testing.T) {
	res := mustTransform(t, newTestEngine(), top(&ast.If{Cond: call("asyncC"), Then: assign("x", num("1"))}))
	assertLines(t, describe(t, res.Program), []string{
		"call* asyncC();",
		"stat " + t0 + " = self.returnValue;",
		"if " + t0,
		"  then",
		"    stat x = 1;",
		"  else",
	})
	stmt := res.Tree.Body[len(res.Tree.Body)-1].(*ast.If)
	if stmt.Else != nil {
		t.Errorf("Else = %v, want nil", stmt.Else)
	}
}

func TestForLoop(t *testing.T) {
	loop := &ast.For{
		Init: &ast.Var{Defs: []ast.VarDef{{Name: "i", Init: num("0")}}},
		Cond: bin("<", name("i"), call("asyncN")),
		Step: &ast.Unary{Op: "++", Postfix: true, Operand: name("i")},
		Body: block(stat(call("asyncStep", name("i")))),
	}
	res := mustTransform(t, newTestEngine(), top(loop))

	assertLines(t, describe(t, res.Program), []string{
		"stat $$locals.i = 0;",
		"for",
		"  test",
		"    call* asyncN();",
		"    stat " + t0 + " = self.returnValue;",
		"    stat " + t1 + " = $$locals.i < " + t0 + ";",
		"    test " + t1,
		"  step",
		"    stat $$locals.i++;",
		"  body",
		"    call* asyncStep($$locals.i);",
		"    stat " + t2 + " = self.returnValue;",
	})

	src, err := render.Render(res.Tree)
	if err != nil {
		t.Fatal(err)
	}
	for _, frag := range []string{
		"$$locals.i = 0;\nfor (; ; $$locals.i++) {",
		"if (!" + t1 + ") break;",
	} {
		if !strings.Contains(src, frag) {
			t.Errorf("rendered loop missing %q:\n%s", frag, src)
		}
	}
}

func TestForLoopSyncParts(t *testing.T) {
	loop := &ast.For{
		Cond: bin("<", name("i"), num("3")),
		Body: block(assign("s", bin("+", name("s"), name("i")))),
	}
	res := mustTransform(t, newTestEngine(), top(loop))
	assertLines(t, describe(t, res.Program), []string{
		"for",
		"  test",
		"    test i < 3",
		"  step",
		"  body",
		"    stat s = s + i;",
	})
}

func TestFunctionDeclaration(t *testing.T) {
	tree := top(defun("test", []string{"a"},
		varDef("r", call("asyncGet", name("a"))),
		stat(call("log", name("r"))),
	))
	res := mustTransform(t, newTestEngine(), tree)

	assertLines(t, describe(t, res.Program), []string{
		"defun test(a)",
		"  stat $$locals.r = null;",
		"  call* asyncGet(a);",
		"  stat " + t0 + " = self.returnValue;",
		"  stat $$locals.r = " + t0 + ";",
		"  call log($$locals.r);",
		"  stat " + t1 + " = self.returnValue;",
	})

	got, err := render.Render(res.Tree)
	if err != nil {
		t.Fatal(err)
	}
	want := "function test(a) {\n" +
		"    $$locals.r = null;\n" +
		"    asyncGet(a);\n" +
		"    " + t0 + " = self.returnValue;\n" +
		"    $$locals.r = " + t0 + ";\n" +
		"    log($$locals.r);\n" +
		"    " + t1 + " = self.returnValue;\n" +
		"}"
	if got != want {
		t.Errorf("rendered source:\n%s\nwant:\n%s", got, want)
	}
}

func TestScopeRewriting(t *testing.T) {
	tree := top(defun("f", nil,
		assign("x", num("1")),
		varDef("x", num("2")),
		assign("y", name("x")),
		defun("inner", nil, assign("x", call("asyncGet"))),
	))
	res := mustTransform(t, newTestEngine(), tree)
	assertLines(t, describe(t, res.Program), []string{
		"defun f()",
		"  stat $$locals.x = 1;",
		"  stat $$locals.x = 2;",
		"  stat y = $$locals.x;",
		"  defun inner()",
		"    call* asyncGet();",
		"    stat " + t0 + " = self.returnValue;",
		"    stat $$locals.x = " + t0 + ";",
	})
	if len(res.Locals) != 1 || res.Locals[0] != "x" {
		t.Errorf("Locals = %v, want [x]", res.Locals)
	}
}

func TestTempsStrictlyIncrease(t *testing.T) {
	tree := top(
		assign("z", bin("*", call("asyncA", bin("+", call("asyncB", num("1")), num("2"))), call("foo"))),
		&ast.If{Cond: call("asyncC"), Then: assign("w", call("asyncD"))},
		&ast.For{Cond: call("more"), Body: stat(call("asyncE"))},
	)
	res := mustTransform(t, newTestEngine(), tree)

	var seen []int
	ir.Walk(res.Program, func(ins *ir.Instruction) {
		if !ins.IsLeaf() || ins.Command == ir.CmdTest {
			return
		}
		s, ok := ins.Code.(*ast.Stat)
		if !ok {
			return
		}
		a, ok := s.Expr.(*ast.Assign)
		if !ok {
			return
		}
		if n, ok := a.Target.(*ast.Name); ok && strings.HasPrefix(n.Name, DefaultTempPrefix) {
			v, err := strconv.Atoi(strings.TrimPrefix(n.Name, DefaultTempPrefix))
			if err != nil {
				t.Fatalf("bad temp %q", n.Name)
			}
			seen = append(seen, v)
		}
	})
	if len(seen) != res.Stats.Temps {
		t.Fatalf("temp definitions = %d, Stats.Temps = %d", len(seen), res.Stats.Temps)
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] <= seen[i-1] {
			t.Fatalf("temps not strictly increasing: %v", seen)
		}
	}
}

func TestUnanalyzedPassThrough(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	e := New(Config{Matcher: prefixMatcher("async"), Logger: zap.New(core)})

	loop := &ast.While{
		Cond: call("asyncMore"),
		Body: block(stat(&ast.Unary{Op: "++", Postfix: true, Operand: name("n")})),
	}
	res := mustTransform(t, e, top(varDef("n", num("0")), loop, &ast.Return{Value: name("n")}))

	assertLines(t, describe(t, res.Program), []string{
		"stat $$locals.n = 0;",
		"while while (asyncMore()) { $$locals.n++; }",
		"return return $$locals.n;",
	})
	if got := logs.FilterMessage("async call inside unanalyzed construct").Len(); got != 1 {
		t.Errorf("warnings = %d, want 1", got)
	}
	if res.Stats.Calls != 0 {
		t.Errorf("Calls = %d, want 0", res.Stats.Calls)
	}
}

func TestOpaqueExpressionShadowing(t *testing.T) {
	fn := &ast.Function{Params: []string{"x"}, Body: []ast.Node{&ast.Return{Value: bin("+", name("x"), name("y"))}}}
	tree := top(varDef("x", num("1")), varDef("y", num("2")), assign("f", fn))
	res := mustTransform(t, newTestEngine(), tree)
	assertLines(t, describe(t, res.Program), []string{
		"stat $$locals.x = 1;",
		"stat $$locals.y = 2;",
		"stat f = function(x) { return x + $$locals.y; };",
	})
}

func TestBreakContinuePassThrough(t *testing.T) {
	loop := &ast.For{
		Cond: name("go"),
		Body: block(&ast.Break{Label: "outer"}, &ast.Continue{}),
	}
	res := mustTransform(t, newTestEngine(), top(loop))
	body := res.Program[0].Body
	if len(body) != 2 || body[0].Command != "break" || body[1].Command != "continue" {
		t.Fatalf("body = %v", describe(t, body))
	}
}

func TestTransformErrors(t *testing.T) {
	tests := []struct {
		name string
		tree *ast.Toplevel
		kind errors.Kind
	}{
		{
			name: "unknown statement kind",
			tree: top(&ast.Toplevel{}),
			kind: errors.KindUnknownNode,
		},
		{
			name: "missing statement",
			tree: top(nil),
			kind: errors.KindInvalidNode,
		},
		{
			name: "bad assignment target",
			tree: top(stat(ast.NewAssign(num("1"), call("asyncA")))),
			kind: errors.KindInvalidTarget,
		},
		{
			name: "unknown node nested in branch",
			tree: top(&ast.If{Cond: name("c"), Then: block(&ast.Splice{Nodes: []ast.Node{&ast.Toplevel{}}})}),
			kind: errors.KindUnknownNode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newTestEngine().Transform(tt.tree)
			if err == nil {
				t.Fatal("expected error")
			}
			if res != nil {
				t.Error("partial result returned with error")
			}
			e, ok := err.(*errors.Error)
			if !ok {
				t.Fatalf("error type %T, want *errors.Error", err)
			}
			if e.Phase != errors.PhaseTransform || e.Kind != tt.kind {
				t.Errorf("error = %s/%s, want transform/%s", e.Phase, e.Kind, tt.kind)
			}
		})
	}
}

func TestTransformNilTree(t *testing.T) {
	if _, err := newTestEngine().Transform(nil); err == nil {
		t.Fatal("expected error for nil tree")
	}
}

func TestTransformLeavesInputUntouched(t *testing.T) {
	tree := top(defun("f", []string{"a"}, varDef("v", call("asyncGet", name("a"))), assign("w", name("v"))))
	before, err := render.Render(tree)
	if err != nil {
		t.Fatal(err)
	}
	mustTransform(t, newTestEngine(), tree)
	after, err := render.Render(tree)
	if err != nil {
		t.Fatal(err)
	}
	if before != after {
		t.Errorf("input modified:\nbefore:\n%s\nafter:\n%s", before, after)
	}
}

func TestConcurrentTransformsAreIsolated(t *testing.T) {
	tree := top(defun("f", nil,
		varDef("a", call("asyncA")),
		&ast.If{Cond: call("asyncB", name("a")), Then: assign("a", call("asyncC"))},
	))
	e := newTestEngine()
	want := describe(t, mustTransform(t, e, tree).Program)

	const workers = 16
	results := make([]*Result, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = e.Transform(tree)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		assertLines(t, describe(t, results[i].Program), want)
	}
}

func TestCustomNames(t *testing.T) {
	e := New(Config{
		Matcher:     prefixMatcher("async"),
		Locals:      "L",
		TempPrefix:  "_t",
		ReturnValue: "rt.last.value",
	})
	res := mustTransform(t, e, top(varDef("v", call("asyncGet"))))
	assertLines(t, describe(t, res.Program), []string{
		"stat L.v = null;",
		"call* asyncGet();",
		"stat _t0 = rt.last.value;",
		"stat L.v = _t0;",
	})
}

func TestVarInsideUnanalyzedStatements(t *testing.T) {
	tests := []struct {
		name   string
		tree   *ast.Toplevel
		want   []string
		locals []string
	}{
		{
			name: "while redeclares",
			tree: top(
				varDef("k", num("0")),
				&ast.While{Cond: name("c"), Body: block(varDef("k", num("2")), assign("q", name("k")))},
			),
			want: []string{
				"stat $$locals.k = 0;",
				"while while (c) { $$locals.k = 2; q = $$locals.k; }",
			},
			locals: []string{"k"},
		},
		{
			name: "try declares first",
			tree: top(
				&ast.Try{Body: []ast.Node{varDef("r", num("1"))}},
				assign("z", name("r")),
			),
			want: []string{
				"try try { $$locals.r = 1; }",
				"stat z = $$locals.r;",
			},
			locals: []string{"r"},
		},
		{
			name: "switch without initializer",
			tree: top(
				&ast.Switch{Disc: name("d"), Cases: []ast.Case{{Body: []ast.Node{
					&ast.Var{Defs: []ast.VarDef{{Name: "a"}, {Name: "b", Init: num("1")}}},
				}}}},
				assign("z", bin("+", name("a"), name("b"))),
			),
			want: []string{
				"switch switch (d) { default: $$locals.a = null, $$locals.b = 1; }",
				"stat z = $$locals.a + $$locals.b;",
			},
			locals: []string{"a", "b"},
		},
		{
			name: "for-in binding",
			tree: top(
				&ast.ForIn{
					Init:   &ast.Var{Defs: []ast.VarDef{{Name: "key"}}},
					Object: name("o"),
					Body:   block(assign("last", name("key"))),
				},
				assign("z", name("key")),
			),
			want: []string{
				"for-in for ($$locals.key in o) { last = $$locals.key; }",
				"stat z = $$locals.key;",
			},
			locals: []string{"key"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mustTransform(t, newTestEngine(), tt.tree)
			assertLines(t, describe(t, res.Program), tt.want)
			if strings.Join(res.Locals, ",") != strings.Join(tt.locals, ",") {
				t.Errorf("Locals = %v, want %v", res.Locals, tt.locals)
			}
		})
	}
}

func TestFunctionLiteralKeepsOwnVars(t *testing.T) {
	fn := &ast.Function{Body: []ast.Node{
		varDef("k", num("5")),
		&ast.Return{Value: bin("+", name("k"), name("y"))},
	}}
	loop := &ast.While{Cond: name("c"), Body: block(assign("f", fn))}
	res := mustTransform(t, newTestEngine(), top(varDef("k", num("0")), varDef("y", num("1")), loop))
	assertLines(t, describe(t, res.Program), []string{
		"stat $$locals.k = 0;",
		"stat $$locals.y = 1;",
		"while while (c) { f = function() { var k = 5; return k + $$locals.y; }; }",
	})
}

func TestPrimitiveNameAnywhereFlagsCall(t *testing.T) {
	e := New(Config{Matcher: matchFunc(func(n string) bool {
		return strings.HasPrefix(n, "async") || n == "$$callBack"
	})})
	tests := []struct {
		name  string
		call  ast.Node
		async bool
	}{
		{"receiver", &ast.Call{Callee: ast.NewDot(name("asyncObj"), "go")}, true},
		{"member field", &ast.Call{Callee: ast.NewDot(name("obj"), "asyncGo")}, true},
		{"nested argument", call("foo", bin("||", name("$$callBack"), name("x"))), true},
		{"plain", call("foo", name("x")), false},
		{"nested call flags itself", call("foo", call("asyncBar")), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mustTransform(t, e, top(stat(tt.call)))
			last := res.Program[len(res.Program)-2]
			if last.Command != ir.CmdCall || last.Async != tt.async {
				t.Errorf("outer call async = %v, want %v: %v", last.Async, tt.async, describe(t, res.Program))
			}
		})
	}
}
