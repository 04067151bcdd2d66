package oxido

const lowestPrecedence = 0

// Binding powers. `+` and `-` do not share a level, and comparisons bind
// tighter than arithmetic: `a + b < c` parses as `a + (b < c)`.
var precedences = map[TokenType]int{
	tokenPlus:     1,
	tokenMinus:    2,
	tokenAsterisk: 3,
	tokenSlash:    4,
	tokenCaret:    5,
	tokenEQ:       6,
	tokenNotEQ:    6,
	tokenLT:       6,
	tokenGT:       6,
	tokenLTE:      6,
	tokenGTE:      6,
}

func (p *parser) reset(tokens []Token, end int) {
	p.tokens = tokens
	p.pos = 0
	p.end = end
	p.err = nil
	if len(tokens) > 0 {
		p.end = tokens[len(tokens)-1].Span.End
	}
}

func (p *parser) cur() Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return Token{Type: tokenEOF, Span: Span{p.end, p.end}}
}

func (p *parser) advance() Token {
	tok := p.cur()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *parser) fail(err *Diagnostic) {
	if p.err == nil {
		p.err = err
	}
}

func (p *parser) expect(tt TokenType, what string) (Token, bool) {
	tok := p.cur()
	if tok.Type != tt {
		p.fail(expectedError(p.src, what, tok))
		return tok, false
	}
	p.advance()
	return tok, true
}

// parseExpressionTokens parses tokens as exactly one expression. after is
// the token the expression follows and anchors the error for an empty slice.
func (p *parser) parseExpressionTokens(tokens []Token, after Token) (Expression, error) {
	p.reset(tokens, after.Span.End)
	if len(tokens) == 0 {
		return nil, newDiagnostic(p.src, CategorySyntax, codeSyntax, Span{after.Span.End, after.Span.End},
			"expected expression, found end of statement",
			"expected an expression after "+after.String())
	}
	expr := p.parseExpression(lowestPrecedence)
	if p.err != nil {
		return nil, p.err
	}
	if p.pos < len(p.tokens) {
		return nil, expectedError(p.src, "operator or end of expression", p.cur())
	}
	return expr, nil
}

func (p *parser) parseExpression(precedence int) Expression {
	prefix := p.prefixFns[p.cur().Type]
	if prefix == nil {
		p.fail(expectedError(p.src, "expression", p.cur()))
		return nil
	}
	left := prefix()
	for p.err == nil {
		bp, ok := precedences[p.cur().Type]
		if !ok || bp <= precedence {
			break
		}
		op := p.advance()
		right := p.parseExpression(bp)
		if p.err != nil {
			return nil
		}
		left = &BinaryExpr{Left: left, Operator: op, Right: right, span: left.Span().join(right.Span())}
	}
	if p.err != nil {
		return nil
	}
	return left
}

func (p *parser) parseIdentifier() Expression {
	name := p.advance()
	if p.cur().Type != tokenLBracket {
		return &Identifier{Name: name.Literal, span: name.Span}
	}
	p.advance()
	index := p.parseExpression(lowestPrecedence)
	closing, ok := p.expect(tokenRBracket, "`]`")
	if !ok {
		return nil
	}
	return &IndexExpr{Name: name.Literal, Index: index, nameSpan: name.Span, span: name.Span.join(closing.Span)}
}

func (p *parser) parseIntegerLiteral() Expression {
	tok := p.advance()
	return &IntegerLiteral{Value: tok.Int, span: tok.Span}
}

func (p *parser) parseNegativeLiteral() Expression {
	minus := p.advance()
	tok, ok := p.expect(tokenInt, "integer literal after `-`")
	if !ok {
		return nil
	}
	return &IntegerLiteral{Value: -tok.Int, span: minus.Span.join(tok.Span)}
}

func (p *parser) parseStringLiteral() Expression {
	tok := p.advance()
	return &StringLiteral{Value: tok.Literal, span: tok.Span}
}

func (p *parser) parseBooleanLiteral() Expression {
	tok := p.advance()
	return &BoolLiteral{Value: tok.Bool, span: tok.Span}
}

func (p *parser) parseGroupedExpression() Expression {
	p.advance()
	expr := p.parseExpression(lowestPrecedence)
	if _, ok := p.expect(tokenRParen, "`)`"); !ok {
		return nil
	}
	return expr
}

func (p *parser) parseVectorLiteral() Expression {
	open := p.advance()
	elems, closing, ok := p.parseExpressionList(tokenRBracket, "`,` or `]`")
	if !ok {
		return nil
	}
	vec := &VectorLiteral{Elements: elems, span: open.Span.join(closing.Span)}
	if len(elems) > 0 {
		vec.ElemType = inferType(elems[0])
	}
	return vec
}

func (p *parser) parseCallExpression() Expression {
	name := p.advance()
	if _, ok := p.expect(tokenLParen, "`(`"); !ok {
		return nil
	}
	args, closing, ok := p.parseExpressionList(tokenRParen, "`,` or `)`")
	if !ok {
		return nil
	}
	return &CallExpr{Name: name.Literal, Args: args, nameSpan: name.Span, span: name.Span.join(closing.Span)}
}

// parseExpressionList parses comma separated expressions up to and
// including the closing token.
func (p *parser) parseExpressionList(end TokenType, what string) ([]Expression, Token, bool) {
	var list []Expression
	if p.cur().Type == end {
		return list, p.advance(), true
	}
	for {
		expr := p.parseExpression(lowestPrecedence)
		if p.err != nil {
			return nil, Token{}, false
		}
		list = append(list, expr)
		switch p.cur().Type {
		case tokenComma:
			p.advance()
		case end:
			return list, p.advance(), true
		default:
			p.fail(expectedError(p.src, what, p.cur()))
			return nil, Token{}, false
		}
	}
}

// inferType derives a declared type from the shape of an expression.
// Identifiers, calls and index expressions are not inferable, and neither
// is anything built from them; the result is nil in that case.
func inferType(expr Expression) *DataType {
	switch e := expr.(type) {
	case *IntegerLiteral:
		return typeRef(IntType)
	case *StringLiteral:
		return typeRef(StrType)
	case *BoolLiteral:
		return typeRef(BoolType)
	case *VectorLiteral:
		if e.ElemType == nil {
			return nil
		}
		return typeRef(VectorOf(*e.ElemType))
	case *BinaryExpr:
		if isComparison(e.Operator.Type) {
			return typeRef(BoolType)
		}
		left, right := inferType(e.Left), inferType(e.Right)
		if left == nil || right == nil {
			return nil
		}
		for _, kind := range []TypeKind{TypeVector, TypeStr, TypeInt, TypeBool} {
			if left.Kind == kind {
				return left
			}
			if right.Kind == kind {
				return right
			}
		}
		return left
	default:
		return nil
	}
}

func typeRef(t DataType) *DataType {
	return &t
}
