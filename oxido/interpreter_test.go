package oxido

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func runProgram(t *testing.T, source string) (string, error) {
	t.Helper()
	return runProgramWithInput(t, source, "")
}

func runProgramWithInput(t *testing.T, source, stdin string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	engine := MustNewEngine(Config{Stdout: &out, Stdin: strings.NewReader(stdin)})
	err := engine.Run(context.Background(), "test.oxi", source)
	return out.String(), err
}

func mustRun(t *testing.T, source string) string {
	t.Helper()
	out, err := runProgram(t, source)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	return out
}

func requireDiagnostic(t *testing.T, err error, code string) *Diagnostic {
	t.Helper()
	if err == nil {
		t.Fatalf("expected diagnostic %s, got nil", code)
	}
	var diag *Diagnostic
	if !errors.As(err, &diag) {
		t.Fatalf("expected *Diagnostic, got %T: %v", err, err)
	}
	if diag.Code != code {
		t.Fatalf("expected code %s, got %s: %v", code, diag.Code, err)
	}
	return diag
}

func TestArithmeticAndPrecedence(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"println(2 + 3 * 4);", "14\n"},
		{"println(2 ^ 3 ^ 2);", "64\n"},
		{"println(5 * 3 / 2);", "5\n"},
		{"println(10 - 2 - 3);", "5\n"},
		{"println(7 / 2);", "3\n"},
		{"println(-7 / 2);", "-3\n"},
		{"println(2 ^ 0);", "1\n"},
		{"println(\"ab\" + \"cd\");", "abcd\n"},
		{"println(9223372036854775807 + 1);", "-9223372036854775808\n"},
	}
	for _, tc := range tests {
		if got := mustRun(t, tc.source); got != tc.want {
			t.Fatalf("%s: got %q want %q", tc.source, got, tc.want)
		}
	}
}

func TestComparisons(t *testing.T) {
	source := `
println(1 < 2, " ", 2 <= 2, " ", 3 > 4, " ", 3 >= 4, " ", 5 == 5, " ", 5 != 5);
println("a" < "b", " ", "abc" == "abc");
println(true > false, " ", false < true, " ", true > true);
println([1, 2] < [1, 3], " ", [1, 2] == [1, 2], " ", [1] < [1, 0]);
`
	want := "true true false false true false\ntrue true\ntrue true false\ntrue true true\n"
	if got := mustRun(t, source); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestLoopBreakRunsStatementsBeforeBreakOnce(t *testing.T) {
	out := mustRun(t, `
let count = 0;
loop {
  count = count + 1;
  print("a");
  break;
  print("never");
}
println(count);
`)
	if out != "a1\n" {
		t.Fatalf("got %q", out)
	}
}

func TestLoopCounter(t *testing.T) {
	out := mustRun(t, `
let i = 0;
loop {
  if i == 3 { break; }
  print(i);
  i = i + 1;
}
println();
`)
	if out != "012\n" {
		t.Fatalf("got %q", out)
	}
}

func TestIfWithoutElseLeavesVariable(t *testing.T) {
	engine := MustNewEngine(Config{Stdout: &bytes.Buffer{}})
	prog, err := engine.Compile("test.oxi", "let x = 0; if false { x = 1; }")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	in := engine.NewInterpreter()
	if err := in.Exec(context.Background(), prog); err != nil {
		t.Fatalf("exec: %v", err)
	}
	v, ok := in.Variable("x")
	if !ok || v.Data.Int() != 0 {
		t.Fatalf("expected x to stay 0, got %v (bound=%t)", v.Data, ok)
	}
}

func TestIfElse(t *testing.T) {
	out := mustRun(t, `
let n = 7;
if n > 5 { println("big"); } else { println("small"); }
if n < 5 { println("big"); } else { println("small"); }
`)
	if out != "big\nsmall\n" {
		t.Fatalf("got %q", out)
	}
}

func TestFunctionsReturnValues(t *testing.T) {
	out := mustRun(t, `
fn add(a: int, b: int) -> int {
  return a + b;
}
fn greet(name: str): str {
  return "hi " + name;
}
println(add(2, 3));
println(greet("oxido"));
`)
	if out != "5\nhi oxido\n" {
		t.Fatalf("got %q", out)
	}
}

func TestReturnUnwindsNestedLoopAndIf(t *testing.T) {
	out := mustRun(t, `
fn first_over(limit: int): int {
  let k = 0;
  loop {
    k = k + 1;
    if k > limit {
      return k;
    }
  }
}
println(first_over(3));
println("after");
`)
	if out != "4\nafter\n" {
		t.Fatalf("got %q", out)
	}
}

func TestStatementCallDiscardsReturnValue(t *testing.T) {
	out := mustRun(t, `
fn noisy(): int {
  println("called");
  return 1;
}
noisy();
println("next");
`)
	if out != "called\nnext\n" {
		t.Fatalf("got %q", out)
	}
}

func TestParametersShareFlatNamespace(t *testing.T) {
	out := mustRun(t, `
fn set(n: int) {
  let inside = n * 2;
}
let n = 1;
set(5);
println(n);
println(inside);
`)
	if out != "5\n10\n" {
		t.Fatalf("got %q", out)
	}
}

func TestRedeclaredFunctionOverwrites(t *testing.T) {
	out := mustRun(t, `
fn pick(): int { return 1; }
fn pick(): int { return 2; }
println(pick());
`)
	if out != "2\n" {
		t.Fatalf("got %q", out)
	}
}

func TestRecursiveCountdown(t *testing.T) {
	out := mustRun(t, `
fn down(n: int): int {
  if n == 0 { return 0; }
  print(n);
  return down(n - 1);
}
println(down(5));
`)
	if out != "543210\n" {
		t.Fatalf("got %q", out)
	}
}

func TestVectorIndexAndAppend(t *testing.T) {
	out := mustRun(t, `
let v: vec<int> = [1, 2, 3];
v[3] = 9;
v[0] = 7;
println(v);
println(v[3]);
let words = ["a", "b"];
println(words[1]);
let grid: vec<vec<int>> = [[1], []];
grid[1] = [2, 3];
println(grid);
`)
	if out != "[7, 2, 3, 9]\n9\nb\n[[1], [2, 3]]\n" {
		t.Fatalf("got %q", out)
	}
}

func TestVectorsHaveValueSemantics(t *testing.T) {
	out := mustRun(t, `
let a = [1, 2];
let b = a;
b[0] = 5;
println(a);
println(b);
`)
	if out != "[1, 2]\n[5, 2]\n" {
		t.Fatalf("got %q", out)
	}
}

func TestEmptyVectorTakesDeclaredType(t *testing.T) {
	out := mustRun(t, `
let v: vec<str> = [];
v[0] = "x";
v = [];
v[0] = "y";
println(v);
`)
	if out != "[y]\n" {
		t.Fatalf("got %q", out)
	}
}

func TestStandardLibrary(t *testing.T) {
	out, err := runProgramWithInput(t, `
let line = read();
let n = int(line) + 1;
println(n);
println(int(true), int(false), " ", bool(0), " ", bool(3), " ", bool("true"));
println(str(12) + str(false) + str("!"));
let chars = vec("héllo");
println(chars);
println(chars[1]);
println(vec([1, 2]));
print("no newline");
println();
let second = read();
println("[", second, "]");
let missing = read();
println("[", missing, "]");
`, "41\r\nsecond\n")
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	want := "42\n10 false true true\n12false!\n[h, é, l, l, o]\né\n[1, 2]\nno newline\n[second]\n[]\n"
	if out != want {
		t.Fatalf("got %q want %q", out, want)
	}
}

func TestExitStopsProgram(t *testing.T) {
	out, err := runProgram(t, `
println("before");
exit 3;
println("after");
`)
	var exit *ExitError
	if !errors.As(err, &exit) {
		t.Fatalf("expected *ExitError, got %T: %v", err, err)
	}
	if exit.Code != 3 {
		t.Fatalf("expected exit code 3, got %d", exit.Code)
	}
	if out != "before\n" {
		t.Fatalf("got %q", out)
	}
}

func TestExitInsideFunction(t *testing.T) {
	_, err := runProgram(t, `
fn quit() { exit 4; }
quit();
println("unreachable");
`)
	var exit *ExitError
	if !errors.As(err, &exit) || exit.Code != 4 {
		t.Fatalf("expected exit 4, got %v", err)
	}
}

func TestBreakOutsideLoopSkipsRemainingStatements(t *testing.T) {
	out := mustRun(t, `
println("one");
break;
println("two");
`)
	if out != "one\n" {
		t.Fatalf("got %q", out)
	}
}

func TestTopLevelReturnEndsProgram(t *testing.T) {
	out := mustRun(t, `
println("one");
return 0;
println("two");
`)
	if out != "one\n" {
		t.Fatalf("got %q", out)
	}
}

func TestInterpreterPersistsAcrossExec(t *testing.T) {
	var out bytes.Buffer
	engine := MustNewEngine(Config{Stdout: &out})
	in := engine.NewInterpreter()
	for _, line := range []string{
		"let total = 1;",
		"fn bump(by: int): int { return total + by; }",
		"total = bump(4);",
		"println(total);",
	} {
		prog, err := engine.Compile("repl", line)
		if err != nil {
			t.Fatalf("compile %q: %v", line, err)
		}
		if err := in.Exec(context.Background(), prog); err != nil {
			t.Fatalf("exec %q: %v", line, err)
		}
	}
	if out.String() != "5\n" {
		t.Fatalf("got %q", out.String())
	}
	if got := strings.Join(in.VariableNames(), ","); got != "by,total" {
		t.Fatalf("variables: %s", got)
	}
	if got := strings.Join(in.FunctionNames(), ","); got != "bump" {
		t.Fatalf("functions: %s", got)
	}
	if fn, ok := in.Function("bump"); !ok || fn.ReturnType == nil || !fn.ReturnType.Equal(IntType) {
		t.Fatalf("bump should be declared as returning int, got %+v", fn)
	}
	in.Reset()
	if len(in.VariableNames()) != 0 || len(in.FunctionNames()) != 0 {
		t.Fatalf("reset should clear the environment")
	}
}

func TestDryRunDoesNotExecute(t *testing.T) {
	var out bytes.Buffer
	engine := MustNewEngine(Config{Stdout: &out, DryRun: true})
	if err := engine.Run(context.Background(), "test.oxi", `println("hi"); exit 2;`); err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("dry run produced output %q", out.String())
	}
	_, err := engine.Compile("test.oxi", "let x = ;")
	requireDiagnostic(t, err, "E0001")
}

func TestEngineBuiltinsAndConfig(t *testing.T) {
	engine := MustNewEngine(Config{})
	if got := strings.Join(engine.Builtins(), ","); got != "bool,int,print,println,read,str,vec" {
		t.Fatalf("builtins: %s", got)
	}
	if b, ok := engine.Builtin("println"); !ok || !b.Void {
		t.Fatalf("println should be a void builtin")
	}
	if b, ok := engine.Builtin("read"); !ok || b.Void {
		t.Fatalf("read should return a value")
	}
	if _, ok := engine.Builtin("missing"); ok {
		t.Fatalf("unexpected builtin")
	}
	if got := engine.ConfigSummary(); got != "debug=false dry_run=false time=false recursion=10000" {
		t.Fatalf("summary: %s", got)
	}
	if _, err := NewEngine(Config{RecursionLimit: -1}); err == nil {
		t.Fatalf("expected error for negative recursion limit")
	}
}

func TestRegisterBuiltin(t *testing.T) {
	var out bytes.Buffer
	engine := MustNewEngine(Config{Stdout: &out})
	engine.RegisterBuiltin("double", func(call *Call, args []Data) (Data, error) {
		if err := call.ExpectArgs(args, 1); err != nil {
			return Data{}, err
		}
		if args[0].Kind() != KindInt {
			return Data{}, call.Mismatch(0, "int", args[0])
		}
		return NewInt(args[0].Int() * 2), nil
	})
	if err := engine.Run(context.Background(), "test.oxi", "println(double(21));"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.String() != "42\n" {
		t.Fatalf("got %q", out.String())
	}
	err := engine.Run(context.Background(), "test.oxi", `println(double("x"));`)
	requireDiagnostic(t, err, "E0002")
}

func TestPrintedVectorIsNotInvertible(t *testing.T) {
	out := mustRun(t, `println(["a, b", "[c]"]);`)
	if out != "[a, b, [c]]\n" {
		t.Fatalf("got %q", out)
	}
	_, err := runProgram(t, "let v: vec<str> = "+strings.TrimSpace(out)+";")
	if err == nil {
		t.Fatalf("rendered vector %q should not evaluate back to a value", out)
	}
}
