package oxido

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Call is the view of an in-flight builtin invocation.
type Call struct {
	Name     string
	interp   *Interpreter
	span     Span
	argSpans []Span
}

func (c *Call) Stdout() io.Writer {
	return c.interp.engine.config.Stdout
}

// ReadLine reads one line from the configured stdin without its line
// terminator. At end of input it returns what was read, possibly "".
func (c *Call) ReadLine() (string, error) {
	in := c.interp
	if in.stdin == nil {
		in.stdin = bufio.NewReader(in.engine.config.Stdin)
	}
	line, err := in.stdin.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}

// ExpectArgs fails unless exactly n arguments were supplied.
func (c *Call) ExpectArgs(args []Data, n int) error {
	if len(args) == n {
		return nil
	}
	return newDiagnostic(c.interp.src, CategoryType, codeFunction, c.span,
		fmt.Sprintf("function `%s` takes %d argument(s) but %d were supplied", c.Name, n, len(args)),
		"wrong number of arguments")
}

// Mismatch reports argument i as having the wrong type.
func (c *Call) Mismatch(i int, expected string, found Data) error {
	return mismatchError(c.interp.src, c.argSpan(i), expected, found)
}

// Fail reports a conversion failure anchored at argument i.
func (c *Call) Fail(i int, message, note string) error {
	return newDiagnostic(c.interp.src, CategoryType, codeMismatch, c.argSpan(i), message, note)
}

func (c *Call) argSpan(i int) Span {
	if i >= 0 && i < len(c.argSpans) {
		return c.argSpans[i]
	}
	return c.span
}

func builtinPrint(call *Call, args []Data) (Data, error) {
	for _, arg := range args {
		if _, err := io.WriteString(call.Stdout(), arg.String()); err != nil {
			return Data{}, err
		}
	}
	return Data{}, nil
}

func builtinPrintln(call *Call, args []Data) (Data, error) {
	if _, err := builtinPrint(call, args); err != nil {
		return Data{}, err
	}
	_, err := io.WriteString(call.Stdout(), "\n")
	return Data{}, err
}

func builtinRead(call *Call, args []Data) (Data, error) {
	if err := call.ExpectArgs(args, 0); err != nil {
		return Data{}, err
	}
	line, err := call.ReadLine()
	if err != nil {
		return Data{}, err
	}
	return NewStr(line), nil
}

func builtinInt(call *Call, args []Data) (Data, error) {
	if err := call.ExpectArgs(args, 1); err != nil {
		return Data{}, err
	}
	switch arg := args[0]; arg.Kind() {
	case KindInt:
		return arg, nil
	case KindBool:
		if arg.Bool() {
			return NewInt(1), nil
		}
		return NewInt(0), nil
	case KindStr:
		n, err := strconv.ParseInt(arg.Str(), 10, 64)
		if err != nil {
			return Data{}, call.Fail(0, "cannot convert string to int",
				fmt.Sprintf("%q is not a base-10 integer", arg.Str()))
		}
		return NewInt(n), nil
	default:
		return Data{}, call.Mismatch(0, "int, bool or str", arg)
	}
}

func builtinBool(call *Call, args []Data) (Data, error) {
	if err := call.ExpectArgs(args, 1); err != nil {
		return Data{}, err
	}
	switch arg := args[0]; arg.Kind() {
	case KindInt:
		return NewBool(arg.Int() != 0), nil
	case KindBool:
		return arg, nil
	case KindStr:
		switch arg.Str() {
		case "true":
			return NewBool(true), nil
		case "false":
			return NewBool(false), nil
		}
		return Data{}, call.Fail(0, "cannot convert string to bool",
			fmt.Sprintf("%q is neither \"true\" nor \"false\"", arg.Str()))
	default:
		return Data{}, call.Mismatch(0, "int, bool or str", arg)
	}
}

func builtinStr(call *Call, args []Data) (Data, error) {
	if err := call.ExpectArgs(args, 1); err != nil {
		return Data{}, err
	}
	switch arg := args[0]; arg.Kind() {
	case KindInt, KindBool:
		return NewStr(arg.String()), nil
	case KindStr:
		return arg, nil
	default:
		return Data{}, call.Mismatch(0, "int, bool or str", arg)
	}
}

// builtinVec splits a string into one-character strings so it can be
// indexed; vectors pass through unchanged.
func builtinVec(call *Call, args []Data) (Data, error) {
	if err := call.ExpectArgs(args, 1); err != nil {
		return Data{}, err
	}
	switch arg := args[0]; arg.Kind() {
	case KindStr:
		var chars []Data
		for _, r := range arg.Str() {
			chars = append(chars, NewStr(string(r)))
		}
		return NewVector(StrType, chars), nil
	case KindVector:
		return arg, nil
	default:
		return Data{}, call.Mismatch(0, "str or vec", arg)
	}
}
