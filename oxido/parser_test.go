package oxido

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func parseSource(t *testing.T, source string) []Statement {
	t.Helper()
	engine := MustNewEngine(Config{})
	prog, err := engine.Compile("test.oxi", source)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	return prog.Statements()
}

func parseExpr(t *testing.T, source string) Expression {
	t.Helper()
	stmts := parseSource(t, "let e = "+source+";")
	assign, ok := stmts[0].(*AssignStmt)
	if !ok {
		t.Fatalf("expected assignment, got %T", stmts[0])
	}
	return assign.Value
}

// sexpr renders an expression tree in prefix form for compact assertions.
func sexpr(expr Expression) string {
	switch e := expr.(type) {
	case *BinaryExpr:
		return "(" + e.Operator.Literal + " " + sexpr(e.Left) + " " + sexpr(e.Right) + ")"
	case *IntegerLiteral:
		return NewInt(e.Value).String()
	case *StringLiteral:
		return `"` + e.Value + `"`
	case *BoolLiteral:
		return NewBool(e.Value).String()
	case *Identifier:
		return e.Name
	case *IndexExpr:
		return e.Name + "[" + sexpr(e.Index) + "]"
	case *CallExpr:
		args := make([]string, len(e.Args))
		for i, arg := range e.Args {
			args[i] = sexpr(arg)
		}
		return e.Name + "(" + strings.Join(args, " ") + ")"
	case *VectorLiteral:
		elems := make([]string, len(e.Elements))
		for i, el := range e.Elements {
			elems[i] = sexpr(el)
		}
		return "[" + strings.Join(elems, " ") + "]"
	default:
		return "?"
	}
}

func TestPrecedenceTable(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"2 + 3 * 4", "(+ 2 (* 3 4))"},
		{"2 ^ 3 ^ 2", "(^ (^ 2 3) 2)"},
		{"1 - 2 + 3", "(+ (- 1 2) 3)"},
		{"1 + 2 - 3", "(+ 1 (- 2 3))"},
		{"a * b / c", "(* a (/ b c))"},
		{"a / b * c", "(* (/ a b) c)"},
		{"a + b < c", "(+ a (< b c))"},
		{"(a + b) < c", "(< (+ a b) c)"},
		{"-3 * 2", "(* -3 2)"},
		{"v[i + 1] == f(x, [1, 2])", "(== v[(+ i 1)] f(x [1 2]))"},
	}
	for _, tc := range tests {
		if got := sexpr(parseExpr(t, tc.source)); got != tc.want {
			t.Fatalf("%s: got %s want %s", tc.source, got, tc.want)
		}
	}
}

func TestAssignmentInference(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{`let a = 1;`, "int"},
		{`let a = "x" + 1;`, "str"},
		{`let a = 1 + true;`, "int"},
		{`let a = 1 < 2;`, "bool"},
		{`let a = [1, 2];`, "vec<int>"},
		{`let a = [[true]];`, "vec<vec<bool>>"},
		{`let a = x + 1;`, ""},
		{`let a = f(1);`, ""},
		{`let a = [x];`, ""},
	}
	for _, tc := range tests {
		stmt := parseSource(t, tc.source)[0].(*AssignStmt)
		if stmt.Annotated {
			t.Fatalf("%s: unexpectedly annotated", tc.source)
		}
		got := ""
		if stmt.Type != nil {
			got = stmt.Type.String()
		}
		if got != tc.want {
			t.Fatalf("%s: inferred %q want %q", tc.source, got, tc.want)
		}
	}

	annotated := parseSource(t, "let v: vec<str> = [];")[0].(*AssignStmt)
	if !annotated.Annotated || annotated.Type.String() != "vec<str>" {
		t.Fatalf("expected annotation vec<str>, got %+v", annotated.Type)
	}
}

func TestStatementShapes(t *testing.T) {
	stmts := parseSource(t, `
let v: vec<int> = [1];
v[0] = 2;
v = [3];
if v[0] == 3 { println("three"); } else { println("other"); }
if true { break; }
loop { break }
fn add(a: int, b: int): int { return a + b; }
fn hello() { println("hi"); }
add(1, 2);
return 1;
exit 0;
`)
	want := []string{
		"*oxido.AssignStmt", "*oxido.VecReassignStmt", "*oxido.ReassignStmt", "*oxido.IfElseStmt",
		"*oxido.IfStmt", "*oxido.LoopStmt", "*oxido.FunctionStmt", "*oxido.FunctionStmt",
		"*oxido.CallStmt", "*oxido.ReturnStmt", "*oxido.ExitStmt",
	}
	if len(stmts) != len(want) {
		t.Fatalf("expected %d statements, got %d", len(want), len(stmts))
	}
	for i, stmt := range stmts {
		if got := fmt.Sprintf("%T", stmt); got != want[i] {
			t.Fatalf("statement %d: got %s want %s", i, got, want[i])
		}
	}

	ifElse := stmts[3].(*IfElseStmt)
	if len(ifElse.Then) != 1 || len(ifElse.Else) != 1 {
		t.Fatalf("if/else bodies: %d/%d", len(ifElse.Then), len(ifElse.Else))
	}
	loop := stmts[5].(*LoopStmt)
	if _, ok := loop.Body[0].(*BreakStmt); !ok {
		t.Fatalf("expected break inside loop, got %T", loop.Body[0])
	}
	add := stmts[6].(*FunctionStmt)
	if add.Name != "add" || len(add.Params) != 2 || add.Params[1].Name != "b" || add.ReturnType == nil || add.ReturnType.String() != "int" {
		t.Fatalf("unexpected function shape: %+v", add)
	}
	hello := stmts[7].(*FunctionStmt)
	if hello.ReturnType != nil || len(hello.Params) != 0 {
		t.Fatalf("hello should have no params and no return type: %+v", hello)
	}
	call := stmts[8].(*CallStmt)
	if call.Call.Name != "add" || len(call.Call.Args) != 2 {
		t.Fatalf("unexpected call: %+v", call.Call)
	}
}

func TestNestedBlocksGroupByBraceDepth(t *testing.T) {
	stmts := parseSource(t, `
loop {
  if a { loop { if b { break; } } } else { c = 1; }
  break;
}
println(1);
`)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 top-level statements, got %d", len(stmts))
	}
	outer := stmts[0].(*LoopStmt)
	if len(outer.Body) != 2 {
		t.Fatalf("expected 2 statements in loop body, got %d", len(outer.Body))
	}
	inner := outer.Body[0].(*IfElseStmt)
	if _, ok := inner.Then[0].(*LoopStmt); !ok {
		t.Fatalf("expected nested loop, got %T", inner.Then[0])
	}
}

func TestStatementSpansCoverSource(t *testing.T) {
	source := "let x = 1;\nprintln(x);"
	stmts := parseSource(t, source)
	second := stmts[1].Span()
	if got := source[second.Start:second.End]; got != "println(x);" {
		t.Fatalf("span text: got %q", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		message string
	}{
		{name: "missing semicolon", source: "let x = 5\nlet y = 6;", message: "expected `;`"},
		{name: "unterminated statement", source: "let x = 5", message: "unterminated statement"},
		{name: "missing name", source: "let = 5;", message: "expected variable name"},
		{name: "missing value", source: "let x = ;", message: "expected expression"},
		{name: "stray brace", source: "}", message: "expected statement"},
		{name: "unterminated block", source: "if x { println(1);", message: "unterminated block"},
		{name: "unclosed call", source: "foo(1, 2;", message: "expected `,` or `)`"},
		{name: "two calls", source: "print(1) print(2);", message: "expected `;`"},
		{name: "dangling operator", source: "let x = 1 +;", message: "expected expression"},
		{name: "unary minus on name", source: "let x = -y;", message: "integer literal after `-`"},
		{name: "bad parameter", source: "fn f(a) { }", message: "expected parameter type"},
		{name: "else without brace", source: "if x { } else y = 1;", message: "expected `{` after `else`"},
		{name: "trailing tokens", source: "let x = 1 2;", message: "expected operator or end of expression"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			engine := MustNewEngine(Config{})
			_, err := engine.Compile("test.oxi", tc.source)
			if err == nil {
				t.Fatalf("expected syntax error for %q", tc.source)
			}
			var diag *Diagnostic
			if !errors.As(err, &diag) {
				t.Fatalf("expected *Diagnostic, got %T", err)
			}
			if diag.Code != "E0001" || diag.Category != CategorySyntax {
				t.Fatalf("expected syntax E0001, got %s %s: %v", diag.Category, diag.Code, err)
			}
			if !strings.Contains(diag.Message, tc.message) {
				t.Fatalf("expected message containing %q, got %q", tc.message, diag.Message)
			}
		})
	}
}
