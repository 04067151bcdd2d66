package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mgomes/oxido/oxido"
)

var (
	accentColor    = lipgloss.Color("#3B82F6")
	successColor   = lipgloss.Color("#10B981")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
	highlightColor = lipgloss.Color("#F59E0B")

	promptStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	resultStyle = lipgloss.NewStyle().
			Foreground(successColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	headerStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true).
			Padding(0, 1)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(highlightColor)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(0, 1)
)

var replKeywords = []string{
	"let", "if", "else", "loop", "break", "fn", "return", "exit",
	"true", "false", "int", "bool", "str", "vec",
}

type historyEntry struct {
	input  string
	output string
	isErr  bool
}

// replModel keeps one interpreter alive for the whole session, so
// variables and functions declared on one line are visible on the next.
type replModel struct {
	textInput   textinput.Model
	engine      *oxido.Engine
	interp      *oxido.Interpreter
	stdout      *bytes.Buffer
	history     []historyEntry
	cmdHistory  []string
	historyIdx  int
	lines       int
	width       int
	height      int
	showHelp    bool
	showVars    bool
	quitting    bool
	initialized bool
}

type keyMap struct {
	Up    key.Binding
	Down  key.Binding
	Enter key.Binding
	CtrlC key.Binding
	CtrlD key.Binding
	CtrlL key.Binding
	Tab   key.Binding
	CtrlV key.Binding
	CtrlK key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("↑", "previous line"),
	),
	Down: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("↓", "next line"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "execute"),
	),
	CtrlC: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
	CtrlD: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("ctrl+d", "quit"),
	),
	CtrlL: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("ctrl+l", "clear"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "autocomplete"),
	),
	CtrlV: key.NewBinding(
		key.WithKeys("ctrl+v"),
		key.WithHelp("ctrl+v", "toggle vars"),
	),
	CtrlK: key.NewBinding(
		key.WithKeys("ctrl+k"),
		key.WithHelp("ctrl+k", "toggle help"),
	),
}

func newREPLModel() replModel {
	ti := textinput.New()
	ti.Placeholder = "let x = 1;"
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60
	ti.PromptStyle = promptStyle
	ti.Prompt = "oxido> "

	// The terminal belongs to bubbletea, so `read` sees end of input and
	// program output is collected per line.
	stdout := new(bytes.Buffer)
	engine := oxido.MustNewEngine(oxido.Config{
		Stdout: stdout,
		Stdin:  strings.NewReader(""),
	})

	return replModel{
		textInput:  ti,
		engine:     engine,
		interp:     engine.NewInterpreter(),
		stdout:     stdout,
		historyIdx: -1,
	}
}

func (m replModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tea.EnterAltScreen)
}

func (m replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.Width = msg.Width - 10
		m.initialized = true
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.CtrlC), key.Matches(msg, keys.CtrlD):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.CtrlL):
			m.history = nil
			return m, nil

		case key.Matches(msg, keys.CtrlV):
			m.showVars = !m.showVars
			return m, nil

		case key.Matches(msg, keys.CtrlK):
			m.showHelp = !m.showHelp
			return m, nil

		case key.Matches(msg, keys.Up):
			if len(m.cmdHistory) > 0 {
				if m.historyIdx == -1 {
					m.historyIdx = len(m.cmdHistory) - 1
				} else if m.historyIdx > 0 {
					m.historyIdx--
				}
				m.textInput.SetValue(m.cmdHistory[m.historyIdx])
				m.textInput.CursorEnd()
			}
			return m, nil

		case key.Matches(msg, keys.Down):
			if m.historyIdx != -1 {
				if m.historyIdx < len(m.cmdHistory)-1 {
					m.historyIdx++
					m.textInput.SetValue(m.cmdHistory[m.historyIdx])
				} else {
					m.historyIdx = -1
					m.textInput.SetValue("")
				}
				m.textInput.CursorEnd()
			}
			return m, nil

		case key.Matches(msg, keys.Tab):
			m = m.handleAutocomplete()
			return m, nil

		case key.Matches(msg, keys.Enter):
			input := strings.TrimSpace(m.textInput.Value())
			m.textInput.SetValue("")
			m.historyIdx = -1
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, ":") {
				return m.handleCommand(input)
			}

			entry, exited := m.evaluate(input)
			m.history = append(m.history, entry)
			m.cmdHistory = append(m.cmdHistory, input)
			if exited {
				m.quitting = true
				return m, tea.Quit
			}
			return m, nil
		}
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m replModel) handleCommand(input string) (replModel, tea.Cmd) {
	cmd := strings.Fields(input)[0]

	switch cmd {
	case ":help", ":h":
		m.showHelp = !m.showHelp
	case ":clear", ":c":
		m.history = nil
	case ":vars", ":v":
		m.showVars = !m.showVars
	case ":funcs", ":f":
		names := m.interp.FunctionNames()
		output := "No functions defined"
		if len(names) > 0 {
			output = "Functions: " + strings.Join(names, ", ")
		}
		m.history = append(m.history, historyEntry{input: input, output: output})
	case ":reset", ":r":
		m.interp.Reset()
		m.history = append(m.history, historyEntry{input: input, output: "Environment reset"})
	case ":quit", ":q":
		m.quitting = true
		return m, tea.Quit
	default:
		m.history = append(m.history, historyEntry{
			input:  input,
			output: fmt.Sprintf("Unknown command: %s", cmd),
			isErr:  true,
		})
	}
	return m, nil
}

func (m replModel) handleAutocomplete() replModel {
	input := m.textInput.Value()
	words := strings.FieldsFunc(input, func(r rune) bool {
		return !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	})
	if len(words) == 0 || !strings.HasSuffix(input, words[len(words)-1]) {
		return m
	}
	lastWord := words[len(words)-1]

	var candidates []string
	candidates = append(candidates, m.engine.Builtins()...)
	candidates = append(candidates, replKeywords...)
	candidates = append(candidates, m.interp.VariableNames()...)
	candidates = append(candidates, m.interp.FunctionNames()...)
	slices.Sort(candidates)
	candidates = slices.Compact(candidates)

	var completions []string
	for _, c := range candidates {
		if strings.HasPrefix(c, lastWord) {
			completions = append(completions, c)
		}
	}

	if len(completions) == 1 {
		prefix := strings.TrimSuffix(input, lastWord)
		m.textInput.SetValue(prefix + completions[0])
		m.textInput.CursorEnd()
	} else if len(completions) > 1 {
		m.history = append(m.history, historyEntry{
			output: "Completions: " + strings.Join(completions, ", "),
		})
	}
	return m
}

// evaluate runs one line against the session interpreter. A line that is
// not a statement is retried as an expression and its value printed.
// exited reports that the line ran `exit`.
func (m *replModel) evaluate(input string) (entry historyEntry, exited bool) {
	entry.input = input
	m.lines++
	name := fmt.Sprintf("repl:%d", m.lines)

	source := input
	if !strings.HasSuffix(source, ";") && !strings.HasSuffix(source, "}") {
		source += ";"
	}
	prog, err := m.engine.Compile(name, source)
	if err != nil {
		expr := strings.TrimSuffix(input, ";")
		if alt, altErr := m.engine.Compile(name, "println("+expr+");"); altErr == nil {
			prog, err = alt, nil
		}
	}
	if err != nil {
		entry.output = err.Error()
		entry.isErr = true
		return entry, false
	}
	if call := soleValueCall(prog, m.producesValue); call != "" {
		if alt, altErr := m.engine.Compile(name, "println("+call+");"); altErr == nil {
			prog = alt
		}
	}

	m.stdout.Reset()
	err = m.interp.Exec(context.Background(), prog)
	output := strings.TrimSuffix(m.stdout.String(), "\n")
	m.stdout.Reset()

	var exit *oxido.ExitError
	switch {
	case errors.As(err, &exit):
		entry.output = joinOutput(output, fmt.Sprintf("exit %d", exit.Code))
		return entry, true
	case err != nil:
		entry.output = joinOutput(output, err.Error())
		entry.isErr = true
		return entry, false
	}

	if bound := m.boundVariable(prog); bound != "" {
		output = joinOutput(output, bound)
	}
	if output == "" {
		output = "ok"
	}
	entry.output = output
	return entry, false
}

// soleValueCall returns the source text of prog's only statement when it is
// a call whose result would otherwise be dropped.
func soleValueCall(prog *oxido.Program, producesValue func(string) bool) string {
	stmts := prog.Statements()
	if len(stmts) != 1 {
		return ""
	}
	stmt, ok := stmts[0].(*oxido.CallStmt)
	if !ok || !producesValue(stmt.Call.Name) {
		return ""
	}
	span := stmt.Call.Span()
	return prog.Source().Text[span.Start:span.End]
}

func (m *replModel) producesValue(name string) bool {
	if b, ok := m.engine.Builtin(name); ok {
		return !b.Void
	}
	if fn, ok := m.interp.Function(name); ok {
		return fn.ReturnType != nil
	}
	return false
}

// boundVariable describes the variable written by the last statement of
// prog, if that statement was an assignment.
func (m *replModel) boundVariable(prog *oxido.Program) string {
	stmts := prog.Statements()
	if len(stmts) == 0 {
		return ""
	}
	var name string
	switch s := stmts[len(stmts)-1].(type) {
	case *oxido.AssignStmt:
		name = s.Name
	case *oxido.ReassignStmt:
		name = s.Name
	case *oxido.VecReassignStmt:
		name = s.Name
	default:
		return ""
	}
	v, ok := m.interp.Variable(name)
	if !ok {
		return ""
	}
	return formatVariable(name, v)
}

func formatVariable(name string, v oxido.Variable) string {
	return fmt.Sprintf("%s: %s = %s", name, v.Type, v.Data)
}

func joinOutput(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}

func (m replModel) View() string {
	if !m.initialized {
		return "Loading..."
	}

	if m.quitting {
		return mutedStyle.Render("Goodbye!\n")
	}

	var b strings.Builder

	header := headerStyle.Render("Oxido REPL")
	hint := mutedStyle.Render(":help for commands")
	b.WriteString(header + " " + hint + "\n")
	b.WriteString(mutedStyle.Render(strings.Repeat("─", max(min(m.width-2, 60), 0))) + "\n\n")

	reservedLines := 8
	if m.showHelp {
		reservedLines += 12
	}
	if m.showVars {
		reservedLines += len(m.interp.VariableNames()) + 3
	}
	availableHeight := max(m.height-reservedLines, 1)

	historyStart := 0
	if len(m.history) > availableHeight {
		historyStart = len(m.history) - availableHeight
	}

	for _, entry := range m.history[historyStart:] {
		if entry.input != "" {
			b.WriteString(mutedStyle.Render("  › ") + entry.input + "\n")
		}
		if entry.isErr {
			b.WriteString(errorStyle.Render(indentBlock("✗ ", entry.output)) + "\n")
		} else {
			b.WriteString(resultStyle.Render(indentBlock("→ ", entry.output)) + "\n")
		}
		b.WriteString("\n")
	}

	if m.showVars {
		b.WriteString(renderVarsPanel(m.interp))
		b.WriteString("\n")
	}

	if m.showHelp {
		b.WriteString(renderHelpPanel())
		b.WriteString("\n")
	}

	b.WriteString(m.textInput.View() + "\n\n")

	footer := helpKeyStyle.Render("ctrl+k") + helpDescStyle.Render(" help  ") +
		helpKeyStyle.Render("ctrl+v") + helpDescStyle.Render(" vars  ") +
		helpKeyStyle.Render("ctrl+l") + helpDescStyle.Render(" clear  ") +
		helpKeyStyle.Render("ctrl+c") + helpDescStyle.Render(" quit")
	b.WriteString(footer)

	return b.String()
}

// indentBlock prefixes the first line with marker and aligns the rest under it.
func indentBlock(marker, text string) string {
	lines := strings.Split(text, "\n")
	pad := strings.Repeat(" ", lipgloss.Width(marker))
	for i, line := range lines {
		if i == 0 {
			lines[i] = "  " + marker + line
		} else {
			lines[i] = "  " + pad + line
		}
	}
	return strings.Join(lines, "\n")
}

func renderVarsPanel(interp *oxido.Interpreter) string {
	names := interp.VariableNames()
	if len(names) == 0 {
		return borderStyle.Render(mutedStyle.Render("No variables defined"))
	}

	var lines []string
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("Variables"))
	varNameStyle := lipgloss.NewStyle().Foreground(highlightColor)
	for _, name := range names {
		v, _ := interp.Variable(name)
		lines = append(lines, fmt.Sprintf("  %s: %s = %s", varNameStyle.Render(name), v.Type, v.Data))
	}
	return borderStyle.Render(strings.Join(lines, "\n"))
}

func renderHelpPanel() string {
	help := []struct {
		key  string
		desc string
	}{
		{"↑/↓", "Navigate line history"},
		{"Tab", "Autocomplete"},
		{"Enter", "Execute line"},
		{":help", "Toggle this help"},
		{":vars", "Toggle variables panel"},
		{":funcs", "List declared functions"},
		{":clear", "Clear history"},
		{":reset", "Drop all variables and functions"},
		{":quit", "Exit REPL"},
	}

	var lines []string
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("Help"))
	for _, h := range help {
		line := fmt.Sprintf("  %s  %s",
			helpKeyStyle.Render(fmt.Sprintf("%-8s", h.key)),
			helpDescStyle.Render(h.desc))
		lines = append(lines, line)
	}

	return borderStyle.Render(strings.Join(lines, "\n"))
}

func runREPL() error {
	p := tea.NewProgram(newREPLModel(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
