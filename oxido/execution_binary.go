package oxido

import "fmt"

func (in *Interpreter) evalIndex(e *IndexExpr) (Data, error) {
	v, ok := in.variables[e.Name]
	if !ok {
		return Data{}, in.undeclared(e.Name, e.nameSpan)
	}
	if v.Data.Kind() != KindVector {
		return Data{}, mismatchError(in.src, e.nameSpan, "a vector", v.Data)
	}
	i, err := in.evalIndexValue(e.Index, v.Data.Len(), false)
	if err != nil {
		return Data{}, err
	}
	return v.Data.at(i), nil
}

// evalIndexValue evaluates an index against a vector of length n. When
// appending is allowed, n itself is a valid index.
func (in *Interpreter) evalIndexValue(expr Expression, n int, appending bool) (int, error) {
	idx, err := in.evalExpression(expr)
	if err != nil {
		return 0, err
	}
	if idx.Kind() != KindInt {
		return 0, mismatchError(in.src, expr.Span(), "int", idx)
	}
	i := idx.Int()
	limit := int64(n)
	if appending {
		limit++
	}
	if i < 0 || i >= limit {
		note := fmt.Sprintf("the vector has %d element(s)", n)
		if i < 0 {
			note = "indices cannot be negative"
		}
		return 0, newDiagnostic(in.src, CategoryRange, codeOutOfBounds, expr.Span(),
			fmt.Sprintf("index %d out of bounds", i), note)
	}
	return int(i), nil
}

func (in *Interpreter) evalBinary(e *BinaryExpr) (Data, error) {
	left, err := in.evalExpression(e.Left)
	if err != nil {
		return Data{}, err
	}
	right, err := in.evalExpression(e.Right)
	if err != nil {
		return Data{}, err
	}

	op := e.Operator.Type
	if isComparison(op) {
		if !left.Type().Equal(right.Type()) {
			return Data{}, in.operandError(e, left, right)
		}
		c := compareData(left, right)
		switch op {
		case tokenEQ:
			return NewBool(c == 0), nil
		case tokenNotEQ:
			return NewBool(c != 0), nil
		case tokenLT:
			return NewBool(c < 0), nil
		case tokenGT:
			return NewBool(c > 0), nil
		case tokenLTE:
			return NewBool(c <= 0), nil
		default:
			return NewBool(c >= 0), nil
		}
	}

	if op == tokenPlus && left.Kind() == KindStr && right.Kind() == KindStr {
		return NewStr(left.Str() + right.Str()), nil
	}
	if left.Kind() != KindInt || right.Kind() != KindInt {
		return Data{}, in.operandError(e, left, right)
	}

	a, b := left.Int(), right.Int()
	switch op {
	case tokenPlus:
		return NewInt(a + b), nil
	case tokenMinus:
		return NewInt(a - b), nil
	case tokenAsterisk:
		return NewInt(a * b), nil
	case tokenSlash:
		if b == 0 {
			return Data{}, newDiagnostic(in.src, CategoryRuntime, codeArithmetic, e.Right.Span(),
				"division by zero", "the divisor evaluates to 0")
		}
		return NewInt(a / b), nil
	case tokenCaret:
		if b < 0 {
			return Data{}, newDiagnostic(in.src, CategoryRuntime, codeArithmetic, e.Right.Span(),
				"negative exponent", fmt.Sprintf("exponent %d is below zero", b))
		}
		return NewInt(powInt(a, b)), nil
	default:
		return Data{}, in.operandError(e, left, right)
	}
}

func (in *Interpreter) operandError(e *BinaryExpr, left, right Data) error {
	return newDiagnostic(in.src, CategoryType, codeMismatch, e.span,
		fmt.Sprintf("mismatched data types for `%s`", e.Operator.Literal),
		fmt.Sprintf("cannot apply `%s` to %s and %s", e.Operator.Literal, left.Type(), right.Type()))
}

// powInt computes base^exp by squaring; overflow wraps.
func powInt(base, exp int64) int64 {
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}
