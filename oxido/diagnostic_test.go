package oxido

import (
	"errors"
	"strings"
	"testing"
)

func TestDiagnosticRendersCodeFrame(t *testing.T) {
	_, err := runProgram(t, "let a = 1;\nlet x: int = \"a\";")
	diag := requireDiagnostic(t, err, "E00011")

	rendered := diag.Error()
	for _, want := range []string{
		"error[E00011]: incorrect data type",
		"  --> test.oxi:2:14",
		" 2 | let x: int = \"a\";",
		"   |              ^^^ mismatched data types expected int found str",
	} {
		if !strings.Contains(rendered, want) {
			t.Fatalf("rendered diagnostic missing %q:\n%s", want, rendered)
		}
	}
	if !strings.Contains(diag.Pretty(), "incorrect data type") {
		t.Fatalf("pretty rendering lost the message:\n%s", diag.Pretty())
	}
}

func TestDiagnosticWithoutSourceText(t *testing.T) {
	diag := newDiagnostic(Source{}, CategoryRuntime, codeArithmetic, Span{}, "division by zero", "the divisor evaluates to 0")
	if got := diag.Error(); got != "error[E0007]: division by zero\n  = note: the divisor evaluates to 0" {
		t.Fatalf("got %q", got)
	}
}

func TestExitErrorIsNotDiagnostic(t *testing.T) {
	var err error = &ExitError{Code: 2}
	var diag *Diagnostic
	if errors.As(err, &diag) {
		t.Fatalf("exit should not be a diagnostic")
	}
	if err.Error() != "exit status 2" {
		t.Fatalf("got %q", err.Error())
	}
}

func TestSourceLineColumn(t *testing.T) {
	src := Source{Name: "x", Text: "ab\ncdé\nf"}
	tests := []struct {
		offset, line, column int
	}{
		{0, 1, 1},
		{2, 1, 3},
		{3, 2, 1},
		{7, 2, 4},
		{8, 3, 1},
		{100, 3, 2},
	}
	for _, tc := range tests {
		line, column := src.LineColumn(tc.offset)
		if line != tc.line || column != tc.column {
			t.Fatalf("offset %d: got %d:%d want %d:%d", tc.offset, line, column, tc.line, tc.column)
		}
	}
}
