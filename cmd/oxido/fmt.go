package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const indentUnit = "    "

func fmtCommand(args []string) error {
	fs := flag.NewFlagSet("fmt", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	write := fs.Bool("w", false, "write result to source files instead of stdout")
	check := fs.Bool("check", false, "fail if any source file needs formatting")
	if err := fs.Parse(args); err != nil {
		return err
	}

	targets := fs.Args()
	if len(targets) == 0 {
		return errors.New("oxido fmt: path required")
	}

	files, err := collectOxiFiles(targets)
	if err != nil {
		return err
	}

	changedCount := 0
	for _, path := range files {
		originalBytes, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		original := string(originalBytes)
		formatted := formatOxiSource(original)
		changed := formatted != original
		if changed {
			changedCount++
		}

		switch {
		case *write && changed:
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("stat %s: %w", path, err)
			}
			if err := os.WriteFile(path, []byte(formatted), info.Mode().Perm()); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
		case *check && changed:
			fmt.Println(path)
		case !*write && !*check:
			fmt.Print(formatted)
		}
	}

	if *check && changedCount > 0 {
		return fmt.Errorf("oxido fmt: %d file(s) need formatting", changedCount)
	}
	return nil
}

func collectOxiFiles(targets []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	addFile := func(path string) {
		if filepath.Ext(path) != ".oxi" {
			return
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return
		}
		if _, ok := seen[abs]; ok {
			return
		}
		seen[abs] = struct{}{}
		files = append(files, abs)
	}

	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", target, err)
		}
		if !info.IsDir() {
			addFile(target)
			continue
		}
		err = filepath.WalkDir(target, func(path string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if !entry.IsDir() {
				addFile(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", target, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// formatOxiSource normalises line endings, strips trailing whitespace,
// collapses runs of blank lines and re-indents each line by the brace depth
// at its start. Braces inside strings and comments are ignored. Text inside
// a multi-line string literal is never changed.
func formatOxiSource(source string) string {
	normalized := strings.ReplaceAll(source, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	var out []string
	depth := 0
	blank := false
	inString := false
	for _, raw := range strings.Split(normalized, "\n") {
		if inString {
			b := scanBraces(raw, true)
			out = append(out, raw)
			depth = max(depth+b.opens-b.closes, 0)
			inString = b.inString
			blank = false
			continue
		}

		line := strings.TrimLeft(raw, " \t")
		b := scanBraces(line, false)
		if !b.inString {
			line = strings.TrimRight(line, " \t")
		}
		if line == "" {
			if len(out) > 0 && !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false

		level := max(depth-b.leading, 0)
		out = append(out, strings.Repeat(indentUnit, level)+line)
		depth = max(depth+b.opens-b.closes, 0)
		inString = b.inString
	}

	joined := strings.TrimRight(strings.Join(out, "\n"), "\n")
	if joined == "" {
		return ""
	}
	return joined + "\n"
}

type braceCount struct {
	opens    int
	closes   int
	leading  int
	inString bool
}

// scanBraces counts the code braces on one line and how many closing braces
// it starts with. inString reports whether the line starts inside a string.
func scanBraces(line string, inString bool) braceCount {
	b := braceCount{inString: inString}
	escaped := false
	atStart := !inString
	for _, r := range line {
		if b.inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				b.inString = false
			}
			continue
		}
		switch r {
		case '#':
			return b
		case '"':
			b.inString = true
			atStart = false
		case '{':
			b.opens++
			atStart = false
		case '}':
			b.closes++
			if atStart {
				b.leading++
			}
		case ' ', '\t':
		default:
			atStart = false
		}
	}
	return b
}
