package oxido

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"time"
)

const defaultRecursionLimit = 10000

// Config controls compilation output and execution bounds.
type Config struct {
	Debug          bool
	DryRun         bool
	Time           bool
	RecursionLimit int

	Stdout      io.Writer
	Stdin       io.Reader
	DebugOutput io.Writer
	Logger      *slog.Logger
}

// Engine compiles and runs Oxido programs.
type Engine struct {
	config   Config
	builtins map[string]Builtin
}

// NewEngine constructs an Engine with defaults applied and the standard
// library registered.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.RecursionLimit < 0 {
		return nil, fmt.Errorf("oxido: recursion limit must not be negative, got %d", cfg.RecursionLimit)
	}
	if cfg.RecursionLimit == 0 {
		cfg.RecursionLimit = defaultRecursionLimit
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stdin == nil {
		cfg.Stdin = os.Stdin
	}
	if cfg.DebugOutput == nil {
		cfg.DebugOutput = os.Stderr
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	engine := &Engine{
		config:   cfg,
		builtins: make(map[string]Builtin),
	}
	engine.RegisterVoidBuiltin("print", builtinPrint)
	engine.RegisterVoidBuiltin("println", builtinPrintln)
	engine.RegisterBuiltin("read", builtinRead)
	engine.RegisterBuiltin("int", builtinInt)
	engine.RegisterBuiltin("bool", builtinBool)
	engine.RegisterBuiltin("str", builtinStr)
	engine.RegisterBuiltin("vec", builtinVec)
	return engine, nil
}

// MustNewEngine constructs an Engine or panics if the config is invalid.
func MustNewEngine(cfg Config) *Engine {
	engine, err := NewEngine(cfg)
	if err != nil {
		panic(err)
	}
	return engine
}

// RegisterBuiltin registers a value-returning callable. Builtins are
// looked up before user functions, so a builtin name cannot be redeclared.
func (e *Engine) RegisterBuiltin(name string, fn BuiltinFunc) {
	e.builtins[name] = Builtin{Name: name, Fn: fn}
}

// RegisterVoidBuiltin registers a callable that produces no value.
func (e *Engine) RegisterVoidBuiltin(name string, fn BuiltinFunc) {
	e.builtins[name] = Builtin{Name: name, Fn: fn, Void: true}
}

// Builtin looks up a registered builtin by name.
func (e *Engine) Builtin(name string) (Builtin, bool) {
	b, ok := e.builtins[name]
	return b, ok
}

// Builtins returns the registered builtin names in sorted order.
func (e *Engine) Builtins() []string {
	return slices.Sorted(maps.Keys(e.builtins))
}

// ConfigSummary provides a human-readable description of the engine config.
func (e *Engine) ConfigSummary() string {
	return fmt.Sprintf("debug=%t dry_run=%t time=%t recursion=%d", e.config.Debug, e.config.DryRun, e.config.Time, e.config.RecursionLimit)
}

// Program is a lexed and parsed source file.
type Program struct {
	source     Source
	tokens     []Token
	statements []Statement
}

func (p *Program) Source() Source {
	return p.source
}

func (p *Program) Tokens() []Token {
	return p.tokens
}

func (p *Program) Statements() []Statement {
	return p.statements
}

// Tokenize runs only the lexer.
func (e *Engine) Tokenize(name, source string) ([]Token, error) {
	return tokenize(Source{Name: name, Text: source})
}

// Compile lexes and parses source. With Debug set, the token stream and
// statements are written to DebugOutput as YAML.
func (e *Engine) Compile(name, source string) (*Program, error) {
	src := Source{Name: name, Text: source}
	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	stmts, err := parseTokens(src, tokens)
	if err != nil {
		return nil, err
	}
	prog := &Program{source: src, tokens: tokens, statements: stmts}

	if e.config.Debug {
		e.config.Logger.Debug("compiled", "program", name, "tokens", len(tokens), "statements", len(stmts))
		dump, err := prog.DumpYAML()
		if err != nil {
			return nil, fmt.Errorf("oxido: dump %s: %w", name, err)
		}
		if _, err := e.config.DebugOutput.Write(dump); err != nil {
			return nil, fmt.Errorf("oxido: write debug dump: %w", err)
		}
	}
	return prog, nil
}

// NewInterpreter returns an interpreter with an empty environment.
func (e *Engine) NewInterpreter() *Interpreter {
	return &Interpreter{
		engine:    e,
		variables: make(map[string]Variable),
		functions: make(map[string]*Function),
	}
}

// Run compiles and executes source on a fresh interpreter. The result is
// nil, a *Diagnostic, or an *ExitError carrying the program's exit code.
func (e *Engine) Run(ctx context.Context, name, source string) error {
	start := time.Now()
	prog, err := e.Compile(name, source)
	if err != nil {
		return err
	}
	if e.config.DryRun {
		e.logElapsed(name, "compile", start)
		return nil
	}
	err = e.NewInterpreter().Exec(ctx, prog)
	e.logElapsed(name, "run", start)
	return err
}

func (e *Engine) logElapsed(name, stage string, start time.Time) {
	if !e.config.Time {
		return
	}
	e.config.Logger.Info("finished", "program", name, "stage", stage, "elapsed", time.Since(start))
}
