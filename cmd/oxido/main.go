package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mgomes/oxido/oxido"
)

func main() {
	err := runCLI(os.Args)
	if err == nil {
		return
	}
	var exit *oxido.ExitError
	if errors.As(err, &exit) {
		os.Exit(exit.Code)
	}
	var diag *oxido.Diagnostic
	if errors.As(err, &diag) {
		fmt.Fprintln(os.Stderr, diag.Pretty())
	} else {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(1)
}

func runCLI(args []string) error {
	if len(args) < 2 {
		return usageError()
	}
	switch args[1] {
	case "run":
		return runCommand(args[2:])
	case "check":
		return checkCommand(args[2:])
	case "fmt":
		return fmtCommand(args[2:])
	case "repl":
		return runREPL()
	case "lsp":
		return runLSP()
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		return usageError()
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	code := fs.String("code", "", "run inline source instead of a file")
	debug := fs.Bool("debug", false, "dump tokens and statements as YAML to stderr")
	dryRun := fs.Bool("dry-run", false, "compile without executing")
	timed := fs.Bool("time", false, "report elapsed time on stderr")
	recursion := fs.Int("recursion-limit", 0, "maximum call depth (0 uses the default)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	name, source, err := loadSource(*code, fs.Args())
	if err != nil {
		return err
	}

	engine, err := oxido.NewEngine(oxido.Config{
		Debug:          *debug,
		DryRun:         *dryRun,
		Time:           *timed,
		RecursionLimit: *recursion,
		Stdout:         os.Stdout,
		Stdin:          os.Stdin,
		DebugOutput:    os.Stderr,
		Logger:         newLogger(*debug),
	})
	if err != nil {
		return err
	}
	return engine.Run(context.Background(), name, source)
}

func loadSource(inline string, rest []string) (string, string, error) {
	if inline != "" {
		if len(rest) > 0 {
			return "", "", errors.New("oxido run: -code cannot be combined with a path")
		}
		return "<code>", inline, nil
	}
	if len(rest) == 0 {
		return "", "", errors.New("oxido run: program path required")
	}
	if len(rest) > 1 {
		return "", "", fmt.Errorf("oxido run: expected one path, got %d", len(rest))
	}
	path, err := resolveProgramPath(rest[0])
	if err != nil {
		return "", "", err
	}
	input, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("read program: %w", err)
	}
	return path, string(input), nil
}

// resolveProgramPath maps a directory to its entry file: main.oxi at the
// top level, then src/main.oxi.
func resolveProgramPath(target string) (string, error) {
	info, err := os.Stat(target)
	if err != nil {
		return "", fmt.Errorf("access %q: %w", target, err)
	}
	if !info.IsDir() {
		return target, nil
	}
	for _, candidate := range []string{
		filepath.Join(target, "main.oxi"),
		filepath.Join(target, "src", "main.oxi"),
	} {
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("access %q: %w", candidate, err)
		}
	}
	return "", fmt.Errorf("no main.oxi or src/main.oxi in %q", target)
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func usageError() error {
	printUsage()
	return errors.New("invalid command")
}

func printUsage() {
	prog := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [flags] [args]\n", prog)
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  run [flags] <file|dir>   compile and execute a program")
	fmt.Fprintln(os.Stderr, "  check <file>...          compile and report unreachable statements")
	fmt.Fprintln(os.Stderr, "  fmt [-w] [-check] <path>...")
	fmt.Fprintln(os.Stderr, "                           normalise whitespace and indentation")
	fmt.Fprintln(os.Stderr, "  repl                     start an interactive session")
	fmt.Fprintln(os.Stderr, "  lsp                      serve the language server protocol on stdio")
	fmt.Fprintln(os.Stderr, "Run flags:")
	fmt.Fprintln(os.Stderr, "  -code string       run inline source instead of a file")
	fmt.Fprintln(os.Stderr, "  -debug             dump tokens and statements as YAML to stderr")
	fmt.Fprintln(os.Stderr, "  -dry-run           compile without executing")
	fmt.Fprintln(os.Stderr, "  -time              report elapsed time on stderr")
	fmt.Fprintln(os.Stderr, "  -recursion-limit n maximum call depth")
}

type flagErrorSink struct{}

func (flagErrorSink) Write(p []byte) (int, error) {
	return len(p), nil
}
