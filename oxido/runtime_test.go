package oxido

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestRuntimeDiagnostics(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		code     string
		category Category
		message  string
	}{
		{name: "declared type mismatch", source: `let x: int = "a";`, code: "E00011", category: CategoryType, message: "incorrect data type"},
		{name: "inferred type mismatch", source: `let v = [1, "a"];`, code: "E00011", category: CategoryType},
		{name: "reassign type mismatch", source: `let x = 1; x = true;`, code: "E00011", category: CategoryType},
		{name: "vector element type", source: `let v = [1]; v[0] = "x";`, code: "E00011", category: CategoryType},
		{name: "empty vector without type", source: `let v = [];`, code: "E00011", category: CategoryType, message: "empty vector"},
		{name: "argument type", source: `fn f(s: str) { } f(1);`, code: "E00011", category: CategoryType},
		{name: "return type", source: `fn f(): int { return "a"; } let x = f();`, code: "E00011", category: CategoryType},
		{name: "operand mismatch", source: `let x = 1 + "a";`, code: "E0002", category: CategoryType, message: "mismatched data types for `+`"},
		{name: "comparison mismatch", source: `let x = 1 == true;`, code: "E0002", category: CategoryType},
		{name: "string minus", source: `let x = "a" - "b";`, code: "E0002", category: CategoryType},
		{name: "condition not bool", source: `if 1 { }`, code: "E0002", category: CategoryType},
		{name: "exit not int", source: `exit "no";`, code: "E0002", category: CategoryType},
		{name: "index not int", source: `let v = [1]; println(v["0"]);`, code: "E0002", category: CategoryType},
		{name: "index non vector", source: `let s = "abc"; println(s[0]);`, code: "E0002", category: CategoryType},
		{name: "int parse failure", source: `let n = int("4x");`, code: "E0002", category: CategoryType},
		{name: "bool parse failure", source: `let b = bool("yes");`, code: "E0002", category: CategoryType},
		{name: "str of vector", source: `let s = str([1]);`, code: "E0002", category: CategoryType},
		{name: "vec of int", source: `let v = vec(1);`, code: "E0002", category: CategoryType},
		{name: "unknown function", source: `nope();`, code: "E0004", category: CategoryName, message: "unknown function `nope`"},
		{name: "arity", source: `fn f(a: int) { } f(1, 2);`, code: "E0004", category: CategoryType},
		{name: "builtin arity", source: `let x = int(1, 2);`, code: "E0004", category: CategoryType},
		{name: "no return type", source: `fn f() { } let x = f();`, code: "E0004", category: CategoryType, message: "does not return a value"},
		{name: "falls off end", source: `fn f(): int { let a = 1; } let x = f();`, code: "E0004", category: CategoryType, message: "without returning"},
		{name: "void builtin as value", source: `let x = print(1);`, code: "E0004", category: CategoryType},
		{name: "undeclared read", source: `println(ghost);`, code: "E0005", category: CategoryName, message: "undeclared variable `ghost`"},
		{name: "undeclared reassign", source: `ghost = 1;`, code: "E0005", category: CategoryName},
		{name: "undeclared index", source: `ghost[0] = 1;`, code: "E0005", category: CategoryName},
		{name: "index past end", source: `let v: vec<int> = [1, 2, 3]; v[5] = 9;`, code: "E0006", category: CategoryRange},
		{name: "negative index", source: `let v = [1]; println(v[-1]);`, code: "E0006", category: CategoryRange},
		{name: "read at length", source: `let v = [1]; println(v[1]);`, code: "E0006", category: CategoryRange},
		{name: "division by zero", source: `let x = 1 / 0;`, code: "E0007", category: CategoryRuntime, message: "division by zero"},
		{name: "negative exponent", source: `let x = 2 ^ -1;`, code: "E0007", category: CategoryRuntime},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := runProgram(t, tc.source)
			diag := requireDiagnostic(t, err, tc.code)
			if diag.Category != tc.category {
				t.Fatalf("expected category %s, got %s", tc.category, diag.Category)
			}
			if tc.message != "" && !strings.Contains(diag.Message, tc.message) {
				t.Fatalf("expected message containing %q, got %q", tc.message, diag.Message)
			}
		})
	}
}

func TestTypeMismatchDoesNotBind(t *testing.T) {
	engine := MustNewEngine(Config{Stdout: &bytes.Buffer{}})
	prog, err := engine.Compile("test.oxi", `let x: int = "a";`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	in := engine.NewInterpreter()
	requireDiagnostic(t, in.Exec(context.Background(), prog), "E00011")
	if _, ok := in.Variable("x"); ok {
		t.Fatalf("x should not be bound after a type mismatch")
	}
}

func TestFailedAppendLeavesVectorUnchanged(t *testing.T) {
	engine := MustNewEngine(Config{Stdout: &bytes.Buffer{}})
	prog, err := engine.Compile("test.oxi", `let v: vec<int> = [1, 2, 3]; v[5] = 9;`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	in := engine.NewInterpreter()
	requireDiagnostic(t, in.Exec(context.Background(), prog), "E0006")
	v, _ := in.Variable("v")
	if v.Data.Len() != 3 {
		t.Fatalf("expected vector length 3, got %d", v.Data.Len())
	}
}

func TestArgumentErrorsStopBeforeBody(t *testing.T) {
	for _, source := range []string{
		`fn shout(s: str) { println("ran"); } shout(1);`,
		`fn shout(s: str) { println("ran"); } shout("a", "b");`,
	} {
		out, err := runProgram(t, source)
		if err == nil {
			t.Fatalf("%s: expected error", source)
		}
		if out != "" {
			t.Fatalf("%s: body ran and printed %q", source, out)
		}
	}
}

func TestDiagnosticPointsAtRuntimeSpan(t *testing.T) {
	source := "let v = [1];\nprintln(v[4]);"
	_, err := runProgram(t, source)
	diag := requireDiagnostic(t, err, "E0006")
	line, column := diag.Position()
	if line != 2 || column != 11 {
		t.Fatalf("expected 2:11, got %d:%d", line, column)
	}
	if got := source[diag.Span.Start:diag.Span.End]; got != "4" {
		t.Fatalf("span text: got %q", got)
	}
}

func TestErrorsInsideFunctionsUseDeclaringSource(t *testing.T) {
	engine := MustNewEngine(Config{Stdout: &bytes.Buffer{}})
	in := engine.NewInterpreter()
	decl, err := engine.Compile("decl", "fn broken(): int { return 1 / 0; }")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if err := in.Exec(context.Background(), decl); err != nil {
		t.Fatalf("exec: %v", err)
	}
	use, err := engine.Compile("use", "let x = broken();")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	diag := requireDiagnostic(t, in.Exec(context.Background(), use), "E0007")
	if diag.Source.Name != "decl" {
		t.Fatalf("expected diagnostic in decl, got %s", diag.Source.Name)
	}
}
