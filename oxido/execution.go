package oxido

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Interpreter walks statements against one flat variable namespace and one
// function table. Both persist across Exec calls until Reset.
type Interpreter struct {
	engine    *Engine
	variables map[string]Variable
	functions map[string]*Function

	ctx      context.Context
	src      Source
	current  *Function
	stop     bool
	returned *Data
	depth    int
	stdin    *bufio.Reader
}

// Exec runs a compiled program. A top-level `return` ends the program
// early; `exit` surfaces as *ExitError.
func (in *Interpreter) Exec(ctx context.Context, prog *Program) error {
	if ctx == nil {
		ctx = context.Background()
	}
	in.ctx = ctx
	in.src = prog.source
	in.current = nil
	in.depth = 0
	in.stop = false
	in.returned = nil

	err := in.execBlock(prog.statements)
	in.stop = false
	in.returned = nil
	return err
}

// Variable looks up the current binding of name.
func (in *Interpreter) Variable(name string) (Variable, bool) {
	v, ok := in.variables[name]
	return v, ok
}

// Function looks up a declared user function.
func (in *Interpreter) Function(name string) (*Function, bool) {
	fn, ok := in.functions[name]
	return fn, ok
}

func (in *Interpreter) VariableNames() []string {
	return slices.Sorted(maps.Keys(in.variables))
}

func (in *Interpreter) FunctionNames() []string {
	return slices.Sorted(maps.Keys(in.functions))
}

// Reset drops every variable and user function.
func (in *Interpreter) Reset() {
	clear(in.variables)
	clear(in.functions)
	in.stop = false
	in.returned = nil
}

func (in *Interpreter) step(span Span) error {
	select {
	case <-in.ctx.Done():
		d := newDiagnostic(in.src, CategoryResource, codeResource, span,
			"execution cancelled", in.ctx.Err().Error())
		d.cause = in.ctx.Err()
		return d
	default:
		return nil
	}
}

func (in *Interpreter) execBlock(stmts []Statement) error {
	for _, stmt := range stmts {
		if in.stop || in.returned != nil {
			return nil
		}
		if err := in.execStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (in *Interpreter) execStatement(stmt Statement) error {
	switch s := stmt.(type) {
	case *AssignStmt:
		value, err := in.evalWithHint(s.Value, s.Type)
		if err != nil {
			return err
		}
		if s.Type != nil && !value.Type().Equal(*s.Type) {
			return incorrectTypeError(in.src, s.Value.Span(), *s.Type, value)
		}
		in.variables[s.Name] = Variable{Type: value.Type(), Data: value}
		return nil

	case *ReassignStmt:
		current, ok := in.variables[s.Name]
		if !ok {
			return in.undeclared(s.Name, s.nameSpan)
		}
		value, err := in.evalWithHint(s.Value, &current.Type)
		if err != nil {
			return err
		}
		if !value.Type().Equal(current.Type) {
			return incorrectTypeError(in.src, s.Value.Span(), current.Type, value)
		}
		in.variables[s.Name] = Variable{Type: current.Type, Data: value}
		return nil

	case *VecReassignStmt:
		return in.execVecReassign(s)

	case *IfStmt:
		cond, err := in.evalCondition(s.Condition)
		if err != nil {
			return err
		}
		if cond {
			return in.execBlock(s.Body)
		}
		return nil

	case *IfElseStmt:
		cond, err := in.evalCondition(s.Condition)
		if err != nil {
			return err
		}
		if cond {
			return in.execBlock(s.Then)
		}
		return in.execBlock(s.Else)

	case *LoopStmt:
		for {
			if err := in.step(s.span); err != nil {
				return err
			}
			if err := in.execBlock(s.Body); err != nil {
				return err
			}
			if in.returned != nil {
				return nil
			}
			if in.stop {
				in.stop = false
				return nil
			}
		}

	case *CallStmt:
		_, err := in.call(s.Call, false)
		return err

	case *FunctionStmt:
		in.functions[s.Name] = &Function{
			Name:       s.Name,
			Params:     s.Params,
			ReturnType: s.ReturnType,
			Body:       s.Body,
			source:     in.src,
		}
		return nil

	case *BreakStmt:
		in.stop = true
		return nil

	case *ReturnStmt:
		var hint *DataType
		if in.current != nil {
			hint = in.current.ReturnType
		}
		value, err := in.evalWithHint(s.Value, hint)
		if err != nil {
			return err
		}
		if hint != nil && !value.Type().Equal(*hint) {
			return incorrectTypeError(in.src, s.Value.Span(), *hint, value)
		}
		in.returned = &value
		return nil

	case *ExitStmt:
		value, err := in.evalExpression(s.Value)
		if err != nil {
			return err
		}
		if value.Kind() != KindInt {
			return mismatchError(in.src, s.Value.Span(), "int", value)
		}
		return &ExitError{Code: int(value.Int())}

	default:
		return newDiagnostic(in.src, CategoryRuntime, codeSyntax, stmt.Span(),
			fmt.Sprintf("unsupported statement %T", stmt), "")
	}
}

func (in *Interpreter) execVecReassign(s *VecReassignStmt) error {
	current, ok := in.variables[s.Name]
	if !ok {
		return in.undeclared(s.Name, s.nameSpan)
	}
	if current.Data.Kind() != KindVector {
		return mismatchError(in.src, s.nameSpan, "a vector", current.Data)
	}
	i, err := in.evalIndexValue(s.Index, current.Data.Len(), true)
	if err != nil {
		return err
	}
	elem, _ := current.Type.Element()
	value, err := in.evalWithHint(s.Value, &elem)
	if err != nil {
		return err
	}
	if !value.Type().Equal(elem) {
		return incorrectTypeError(in.src, s.Value.Span(), elem, value)
	}
	in.variables[s.Name] = Variable{Type: current.Type, Data: current.Data.withElement(i, value)}
	return nil
}

func (in *Interpreter) evalCondition(expr Expression) (bool, error) {
	value, err := in.evalExpression(expr)
	if err != nil {
		return false, err
	}
	if value.Kind() != KindBool {
		return false, mismatchError(in.src, expr.Span(), "bool", value)
	}
	return value.Bool(), nil
}

func (in *Interpreter) undeclared(name string, span Span) error {
	return newDiagnostic(in.src, CategoryName, codeUndeclared, span,
		fmt.Sprintf("undeclared variable `%s`", name),
		fmt.Sprintf("declare it first with `let %s = ...;`", name))
}

// evalWithHint evaluates expr, using hint to type vector literals that have
// no elements to infer from.
func (in *Interpreter) evalWithHint(expr Expression, hint *DataType) (Data, error) {
	if vec, ok := expr.(*VectorLiteral); ok {
		return in.evalVector(vec, hint)
	}
	return in.evalExpression(expr)
}

func (in *Interpreter) evalExpression(expr Expression) (Data, error) {
	switch e := expr.(type) {
	case *IntegerLiteral:
		return NewInt(e.Value), nil
	case *StringLiteral:
		return NewStr(e.Value), nil
	case *BoolLiteral:
		return NewBool(e.Value), nil
	case *Identifier:
		v, ok := in.variables[e.Name]
		if !ok {
			return Data{}, in.undeclared(e.Name, e.span)
		}
		return v.Data, nil
	case *VectorLiteral:
		return in.evalVector(e, nil)
	case *IndexExpr:
		return in.evalIndex(e)
	case *CallExpr:
		return in.call(e, true)
	case *BinaryExpr:
		return in.evalBinary(e)
	default:
		return Data{}, newDiagnostic(in.src, CategoryRuntime, codeSyntax, expr.Span(),
			fmt.Sprintf("unsupported expression %T", expr), "")
	}
}

func (in *Interpreter) evalVector(e *VectorLiteral, hint *DataType) (Data, error) {
	var elemHint *DataType
	if hint != nil {
		if elem, ok := hint.Element(); ok {
			elemHint = &elem
		}
	}
	elemType := e.ElemType
	if elemType == nil {
		elemType = elemHint
	}

	elems := make([]Data, 0, len(e.Elements))
	for _, el := range e.Elements {
		hintForElem := elemType
		if hintForElem == nil {
			hintForElem = elemHint
		}
		value, err := in.evalWithHint(el, hintForElem)
		if err != nil {
			return Data{}, err
		}
		if elemType == nil {
			elemType = typeRef(value.Type())
		}
		if !value.Type().Equal(*elemType) {
			return Data{}, incorrectTypeError(in.src, el.Span(), *elemType, value)
		}
		elems = append(elems, value)
	}
	if elemType == nil {
		return Data{}, newDiagnostic(in.src, CategoryType, codeIncorrectType, e.span,
			"cannot infer the element type of an empty vector",
			"declare the type, e.g. `let v: vec<int> = [];`")
	}
	return NewVector(*elemType, elems), nil
}

// call invokes a builtin or user function. wantValue is set in expression
// position, where the callee must produce a value.
func (in *Interpreter) call(e *CallExpr, wantValue bool) (Data, error) {
	if b, ok := in.engine.builtins[e.Name]; ok {
		return in.callBuiltin(b, e, wantValue)
	}
	fn, ok := in.functions[e.Name]
	if !ok {
		return Data{}, newDiagnostic(in.src, CategoryName, codeFunction, e.nameSpan,
			fmt.Sprintf("unknown function `%s`", e.Name), "no builtin or declared function has this name")
	}
	if wantValue && fn.ReturnType == nil {
		return Data{}, newDiagnostic(in.src, CategoryType, codeFunction, e.span,
			fmt.Sprintf("function `%s` does not return a value", e.Name),
			"declare a return type to use the call as a value")
	}
	if len(e.Args) != len(fn.Params) {
		return Data{}, newDiagnostic(in.src, CategoryType, codeFunction, e.span,
			fmt.Sprintf("function `%s` takes %d argument(s) but %d were supplied", e.Name, len(fn.Params), len(e.Args)),
			"wrong number of arguments")
	}

	args := make([]Data, len(e.Args))
	for i, arg := range e.Args {
		param := fn.Params[i]
		value, err := in.evalWithHint(arg, &param.Type)
		if err != nil {
			return Data{}, err
		}
		if !value.Type().Equal(param.Type) {
			return Data{}, incorrectTypeError(in.src, arg.Span(), param.Type, value)
		}
		args[i] = value
	}

	if limit := in.engine.config.RecursionLimit; in.depth >= limit {
		return Data{}, newDiagnostic(in.src, CategoryResource, codeResource, e.span,
			"recursion limit exceeded", fmt.Sprintf("call depth is limited to %d", limit))
	}
	if err := in.step(e.span); err != nil {
		return Data{}, err
	}

	for i, param := range fn.Params {
		in.variables[param.Name] = Variable{Type: param.Type, Data: args[i]}
	}

	callerSrc, caller := in.src, in.current
	in.src, in.current = fn.source, fn
	in.depth++
	err := in.execBlock(fn.Body)
	in.depth--
	in.src, in.current = callerSrc, caller
	if err != nil {
		return Data{}, err
	}

	returned := in.returned
	in.returned = nil
	if !wantValue {
		return Data{}, nil
	}
	if returned == nil {
		return Data{}, newDiagnostic(in.src, CategoryType, codeFunction, e.span,
			fmt.Sprintf("function `%s` finished without returning a value", e.Name),
			fmt.Sprintf("expected a %s from this call", *fn.ReturnType))
	}
	return *returned, nil
}

func (in *Interpreter) callBuiltin(b Builtin, e *CallExpr, wantValue bool) (Data, error) {
	if wantValue && b.Void {
		return Data{}, newDiagnostic(in.src, CategoryType, codeFunction, e.span,
			fmt.Sprintf("function `%s` does not return a value", e.Name),
			"this builtin can only be called as a statement")
	}
	args := make([]Data, len(e.Args))
	spans := make([]Span, len(e.Args))
	for i, arg := range e.Args {
		value, err := in.evalExpression(arg)
		if err != nil {
			return Data{}, err
		}
		args[i] = value
		spans[i] = arg.Span()
	}

	call := &Call{Name: b.Name, interp: in, span: e.span, argSpans: spans}
	value, err := b.Fn(call, args)
	if err != nil {
		var diag *Diagnostic
		var exit *ExitError
		if errors.As(err, &diag) || errors.As(err, &exit) {
			return Data{}, err
		}
		d := newDiagnostic(in.src, CategoryRuntime, codeFunction, e.span,
			fmt.Sprintf("%s: %v", b.Name, err), "")
		d.cause = err
		return Data{}, d
	}
	return value, nil
}
