package main

import (
	"cmp"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/lipgloss"
	"github.com/mgomes/oxido/oxido"
)

const topLevelScope = "<main>"

var (
	checkOKStyle   = lipgloss.NewStyle().Foreground(successColor)
	checkWarnStyle = lipgloss.NewStyle().Foreground(highlightColor)
)

type lintWarning struct {
	Scope   string
	Line    int
	Column  int
	Message string
}

func checkCommand(args []string) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	if err := fs.Parse(args); err != nil {
		return err
	}

	targets := fs.Args()
	if len(targets) == 0 {
		return errors.New("oxido check: program path required")
	}

	engine := oxido.MustNewEngine(oxido.Config{DryRun: true})
	issues := 0
	for _, target := range targets {
		path, err := resolveProgramPath(target)
		if err != nil {
			return err
		}
		path, err = filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("resolve program path: %w", err)
		}
		input, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read program: %w", err)
		}
		prog, err := engine.Compile(path, string(input))
		if err != nil {
			return err
		}
		for _, w := range checkProgram(prog) {
			fmt.Printf("%s:%d:%d: %s (%s)\n", path, w.Line, w.Column, checkWarnStyle.Render(w.Message), w.Scope)
			issues++
		}
	}

	if issues == 0 {
		fmt.Println(checkOKStyle.Render("No issues found"))
		return nil
	}
	return fmt.Errorf("check found %d issue(s)", issues)
}

// checkProgram reports statements that can never run because an earlier
// statement in the same body always leaves it.
func checkProgram(prog *oxido.Program) []lintWarning {
	var found []lintWarning
	report := func(scope string, stmt oxido.Statement) {
		line, column := prog.Source().LineColumn(stmt.Span().Start)
		found = append(found, lintWarning{
			Scope:   scope,
			Line:    line,
			Column:  column,
			Message: "unreachable statement",
		})
	}
	lintStatements(topLevelScope, prog.Statements(), report)

	slices.SortStableFunc(found, func(a, b lintWarning) int {
		if c := cmp.Compare(a.Line, b.Line); c != 0 {
			return c
		}
		return cmp.Compare(a.Column, b.Column)
	})
	return found
}

type reportFunc func(scope string, stmt oxido.Statement)

func lintStatements(scope string, statements []oxido.Statement, report reportFunc) bool {
	terminated := false
	for _, stmt := range statements {
		if terminated {
			report(scope, stmt)
			continue
		}
		if statementTerminates(scope, stmt, report) {
			terminated = true
		}
	}
	return terminated
}

func statementTerminates(scope string, stmt oxido.Statement, report reportFunc) bool {
	switch typed := stmt.(type) {
	case *oxido.ReturnStmt, *oxido.ExitStmt, *oxido.BreakStmt:
		return true
	case *oxido.IfStmt:
		lintStatements(scope, typed.Body, report)
		return false
	case *oxido.IfElseStmt:
		thenTerminated := lintStatements(scope, typed.Then, report)
		elseTerminated := lintStatements(scope, typed.Else, report)
		return thenTerminated && elseTerminated
	case *oxido.LoopStmt:
		lintStatements(scope, typed.Body, report)
		// Only a break reaching this loop lets control continue after it.
		return !containsBreak(typed.Body)
	case *oxido.FunctionStmt:
		lintStatements(typed.Name, typed.Body, report)
		return false
	default:
		return false
	}
}

func containsBreak(statements []oxido.Statement) bool {
	for _, stmt := range statements {
		switch typed := stmt.(type) {
		case *oxido.BreakStmt:
			return true
		case *oxido.IfStmt:
			if containsBreak(typed.Body) {
				return true
			}
		case *oxido.IfElseStmt:
			if containsBreak(typed.Then) || containsBreak(typed.Else) {
				return true
			}
		}
	}
	return false
}
