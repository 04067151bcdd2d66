package oxido

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

// Category classifies a diagnostic by the stage and rule that produced it.
type Category string

const (
	CategoryLexical  Category = "lexical"
	CategorySyntax   Category = "syntax"
	CategoryType     Category = "type"
	CategoryName     Category = "name"
	CategoryRange    Category = "range"
	CategoryRuntime  Category = "runtime"
	CategoryResource Category = "resource"
)

const (
	codeSyntax        = "E0001"
	codeMismatch      = "E0002"
	codeLexical       = "E0003"
	codeFunction      = "E0004"
	codeUndeclared    = "E0005"
	codeOutOfBounds   = "E0006"
	codeArithmetic    = "E0007"
	codeResource      = "E0008"
	codeIncorrectType = "E00011"
)

// Source is a named program text. Spans in diagnostics index into Text.
type Source struct {
	Name string
	Text string
}

// LineColumn converts a byte offset into 1-based line and column numbers.
// Columns count runes, not bytes.
func (s Source) LineColumn(offset int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(s.Text) {
		offset = len(s.Text)
	}
	line := 1 + strings.Count(s.Text[:offset], "\n")
	lineStart := strings.LastIndexByte(s.Text[:offset], '\n') + 1
	column := 1 + utf8.RuneCountInString(s.Text[lineStart:offset])
	return line, column
}

func (s Source) lineAt(offset int) (string, int) {
	if offset > len(s.Text) {
		offset = len(s.Text)
	}
	start := strings.LastIndexByte(s.Text[:offset], '\n') + 1
	end := strings.IndexByte(s.Text[start:], '\n')
	if end < 0 {
		end = len(s.Text)
	} else {
		end += start
	}
	return strings.TrimRight(s.Text[start:end], "\r"), start
}

// Diagnostic is a source-anchored error report. Every failure in the lexer,
// parser and interpreter is a *Diagnostic.
type Diagnostic struct {
	Category Category
	Code     string
	Message  string
	Note     string
	Span     Span
	Source   Source

	cause error
}

func (d *Diagnostic) Error() string {
	return d.render(plainFrameStyles)
}

func (d *Diagnostic) Unwrap() error {
	return d.cause
}

// Pretty renders the diagnostic with terminal styling. Styles degrade to
// plain text when the output is not a color-capable terminal.
func (d *Diagnostic) Pretty() string {
	return d.render(prettyFrameStyles)
}

// Position returns the 1-based line and column of the span start.
func (d *Diagnostic) Position() (int, int) {
	return d.Source.LineColumn(d.Span.Start)
}

type frameStyles struct {
	header lipgloss.Style
	gutter lipgloss.Style
	marker lipgloss.Style
	note   lipgloss.Style
}

var (
	plainFrameStyles = frameStyles{
		header: lipgloss.NewStyle(),
		gutter: lipgloss.NewStyle(),
		marker: lipgloss.NewStyle(),
		note:   lipgloss.NewStyle(),
	}

	prettyFrameStyles = frameStyles{
		header: lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true),
		gutter: lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6")),
		marker: lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")),
		note:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")),
	}
)

func (d *Diagnostic) render(styles frameStyles) string {
	var b strings.Builder
	b.WriteString(styles.header.Render(fmt.Sprintf("error[%s]: %s", d.Code, d.Message)))
	if frame := formatCodeFrame(d.Source, d.Span, d.Note, styles); frame != "" {
		b.WriteString("\n")
		b.WriteString(frame)
	} else if d.Note != "" {
		b.WriteString("\n")
		b.WriteString(styles.note.Render("  = note: " + d.Note))
	}
	return b.String()
}

func formatCodeFrame(source Source, span Span, label string, styles frameStyles) string {
	if source.Text == "" && source.Name == "" {
		return ""
	}
	line, column := source.LineColumn(span.Start)
	name := source.Name
	if name == "" {
		name = "<input>"
	}
	location := fmt.Sprintf("  --> %s:%d:%d", name, line, column)
	if source.Text == "" {
		return styles.gutter.Render(location)
	}

	lineText, lineStart := source.lineAt(span.Start)
	lineLabel := strconv.Itoa(line)
	gutterPad := strings.Repeat(" ", len(lineLabel))

	start := span.Start
	if start > len(source.Text) {
		start = len(source.Text)
	}
	end := span.End
	if end > lineStart+len(lineText) {
		end = lineStart + len(lineText)
	}
	width := 1
	if end > start {
		width = utf8.RuneCountInString(source.Text[start:end])
	}
	caretPad := strings.Repeat(" ", column-1)
	underline := styles.marker.Render(strings.Repeat("^", width))
	if label != "" {
		underline += " " + styles.marker.Render(label)
	}

	return fmt.Sprintf(
		"%s\n %s %s %s\n %s %s %s%s",
		styles.gutter.Render(location),
		styles.gutter.Render(lineLabel),
		styles.gutter.Render("|"),
		lineText,
		gutterPad,
		styles.gutter.Render("|"),
		caretPad,
		underline,
	)
}

// ExitError is returned when a program runs an `exit` statement. It is not a
// failure: hosts terminate with Code.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

func newDiagnostic(src Source, category Category, code string, span Span, message, note string) *Diagnostic {
	return &Diagnostic{
		Category: category,
		Code:     code,
		Message:  message,
		Note:     note,
		Span:     span,
		Source:   src,
	}
}

func expectedError(src Source, expected string, found Token) *Diagnostic {
	return newDiagnostic(src, CategorySyntax, codeSyntax, found.Span,
		fmt.Sprintf("expected %s, found %s", expected, found),
		fmt.Sprintf("expected %s here", expected))
}

func mismatchError(src Source, span Span, expected string, found Data) *Diagnostic {
	return newDiagnostic(src, CategoryType, codeMismatch, span,
		fmt.Sprintf("mismatched data types, expected %s found %s", expected, found.Describe()),
		fmt.Sprintf("a value of type %s was expected", expected))
}

func incorrectTypeError(src Source, span Span, expected DataType, found Data) *Diagnostic {
	return newDiagnostic(src, CategoryType, codeIncorrectType, span,
		"incorrect data type",
		fmt.Sprintf("mismatched data types expected %s found %s", expected, found.Describe()))
}
