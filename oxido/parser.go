package oxido

import "fmt"

type prefixParseFn func() Expression

// parser turns a token stream into statements. Statement grouping and
// statement parsing work on token slices; expressions are parsed by the
// precedence climber over the cursor fields below.
type parser struct {
	src Source
	err *Diagnostic

	tokens []Token
	pos    int
	end    int

	prefixFns map[TokenType]prefixParseFn
}

func newParser(src Source) *parser {
	p := &parser{src: src}
	p.prefixFns = map[TokenType]prefixParseFn{
		tokenIdent:    p.parseIdentifier,
		tokenInt:      p.parseIntegerLiteral,
		tokenString:   p.parseStringLiteral,
		tokenBool:     p.parseBooleanLiteral,
		tokenMinus:    p.parseNegativeLiteral,
		tokenLParen:   p.parseGroupedExpression,
		tokenLBracket: p.parseVectorLiteral,
		tokenFuncName: p.parseCallExpression,
	}
	return p
}

// parseTokens parses a complete program.
func parseTokens(src Source, tokens []Token) ([]Statement, error) {
	p := newParser(src)
	stmts, err := p.parseBlock(tokens)
	if err != nil {
		return nil, err
	}
	return stmts, nil
}

func (p *parser) parseBlock(tokens []Token) ([]Statement, error) {
	groups, err := p.splitStatements(tokens)
	if err != nil {
		return nil, err
	}
	stmts := make([]Statement, 0, len(groups))
	for _, group := range groups {
		stmt, err := p.parseStatement(group)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

// splitStatements slices the token list into one group per statement.
func (p *parser) splitStatements(tokens []Token) ([][]Token, error) {
	var groups [][]Token
	for start := 0; start < len(tokens); {
		end, err := p.statementEnd(tokens, start)
		if err != nil {
			return nil, err
		}
		groups = append(groups, tokens[start:end])
		start = end
	}
	return groups, nil
}

func (p *parser) statementEnd(tokens []Token, start int) (int, error) {
	lead := tokens[start]
	switch lead.Type {
	case tokenLet, tokenIdent, tokenFuncName, tokenReturn, tokenExit:
		for i := start + 1; i < len(tokens); i++ {
			switch tokens[i].Type {
			case tokenSemicolon:
				return i + 1, nil
			case tokenLet, tokenIf, tokenElse, tokenLoop, tokenFn, tokenBreak, tokenReturn, tokenExit, tokenLBrace, tokenRBrace:
				prev := tokens[i-1].Span
				return 0, newDiagnostic(p.src, CategorySyntax, codeSyntax, Span{prev.End, prev.End},
					fmt.Sprintf("expected `;`, found %s", tokens[i]), "statement must end with `;`")
			}
		}
		return 0, newDiagnostic(p.src, CategorySyntax, codeSyntax, spanOf(tokens[start:]),
			"unterminated statement", "expected `;` at the end of this statement")
	case tokenIf, tokenLoop, tokenFn:
		end, err := p.blockEnd(tokens, start)
		for err == nil && lead.Type == tokenIf && end < len(tokens) && tokens[end].Type == tokenElse {
			if next := p.tokenAt(tokens, end+1); next.Type != tokenLBrace {
				return 0, expectedError(p.src, "`{` after `else`", next)
			}
			end, err = p.blockEnd(tokens, end+1)
		}
		return end, err
	case tokenBreak:
		if start+1 < len(tokens) && tokens[start+1].Type == tokenSemicolon {
			return start + 2, nil
		}
		return start + 1, nil
	default:
		return 0, newDiagnostic(p.src, CategorySyntax, codeSyntax, lead.Span,
			fmt.Sprintf("expected statement, found %s", lead),
			"expected `let`, `if`, `loop`, `fn`, `break`, `return`, `exit`, a variable or a function call")
	}
}

// blockEnd returns the index just past the `}` that closes the first brace
// block at or after start.
func (p *parser) blockEnd(tokens []Token, start int) (int, error) {
	depth := 0
	for i := start; i < len(tokens); i++ {
		switch tokens[i].Type {
		case tokenLBrace:
			depth++
		case tokenRBrace:
			depth--
			if depth == 0 {
				return i + 1, nil
			}
			if depth < 0 {
				return 0, expectedError(p.src, "`{`", tokens[i])
			}
		}
	}
	return 0, newDiagnostic(p.src, CategorySyntax, codeSyntax, tokens[start].Span,
		"unterminated block", "expected `}` to close this block")
}

func (p *parser) parseStatement(group []Token) (Statement, error) {
	switch group[0].Type {
	case tokenLet:
		return p.parseAssignStatement(group)
	case tokenIdent:
		if len(group) > 1 && group[1].Type == tokenLBracket {
			return p.parseVecReassignStatement(group)
		}
		return p.parseReassignStatement(group)
	case tokenFuncName:
		return p.parseCallStatement(group)
	case tokenIf:
		return p.parseIfStatement(group)
	case tokenLoop:
		return p.parseLoopStatement(group)
	case tokenFn:
		return p.parseFunctionStatement(group)
	case tokenBreak:
		return &BreakStmt{span: spanOf(group)}, nil
	case tokenReturn:
		value, err := p.parseExpressionTokens(group[1:len(group)-1], group[0])
		if err != nil {
			return nil, err
		}
		return &ReturnStmt{Value: value, span: spanOf(group)}, nil
	case tokenExit:
		value, err := p.parseExpressionTokens(group[1:len(group)-1], group[0])
		if err != nil {
			return nil, err
		}
		return &ExitStmt{Value: value, span: spanOf(group)}, nil
	default:
		return nil, expectedError(p.src, "statement", group[0])
	}
}

// tokenAt returns group[i], or an end-of-statement token positioned after
// the last token of the group.
func (p *parser) tokenAt(group []Token, i int) Token {
	if i < len(group) {
		return group[i]
	}
	end := 0
	if len(group) > 0 {
		end = group[len(group)-1].Span.End
	}
	return Token{Type: tokenEOF, Span: Span{end, end}}
}

func (p *parser) expectAt(group []Token, i int, tt TokenType, what string) (Token, error) {
	tok := p.tokenAt(group, i)
	if tok.Type != tt {
		return tok, expectedError(p.src, what, tok)
	}
	return tok, nil
}

func (p *parser) parseAssignStatement(group []Token) (Statement, error) {
	name, err := p.expectAt(group, 1, tokenIdent, "variable name")
	if err != nil {
		return nil, err
	}
	stmt := &AssignStmt{Name: name.Literal, nameSpan: name.Span, span: spanOf(group)}
	i := 2
	if tok := p.tokenAt(group, i); tok.Type == tokenDataType {
		dt := tok.DataType
		stmt.Type = &dt
		stmt.Annotated = true
		i++
	}
	assign, err := p.expectAt(group, i, tokenAssign, "`=`")
	if err != nil {
		return nil, err
	}
	stmt.Value, err = p.parseExpressionTokens(group[i+1:len(group)-1], assign)
	if err != nil {
		return nil, err
	}
	if !stmt.Annotated {
		stmt.Type = inferType(stmt.Value)
	}
	return stmt, nil
}

func (p *parser) parseReassignStatement(group []Token) (Statement, error) {
	assign, err := p.expectAt(group, 1, tokenAssign, "`=`")
	if err != nil {
		return nil, err
	}
	value, err := p.parseExpressionTokens(group[2:len(group)-1], assign)
	if err != nil {
		return nil, err
	}
	return &ReassignStmt{Name: group[0].Literal, Value: value, nameSpan: group[0].Span, span: spanOf(group)}, nil
}

func (p *parser) parseVecReassignStatement(group []Token) (Statement, error) {
	closing := -1
	depth := 0
	for i := 1; i < len(group) && closing < 0; i++ {
		switch group[i].Type {
		case tokenLBracket:
			depth++
		case tokenRBracket:
			depth--
			if depth == 0 {
				closing = i
			}
		}
	}
	if closing < 0 {
		return nil, newDiagnostic(p.src, CategorySyntax, codeSyntax, group[1].Span,
			"unclosed index", "expected `]` to close this index")
	}
	index, err := p.parseExpressionTokens(group[2:closing], group[1])
	if err != nil {
		return nil, err
	}
	assign, err := p.expectAt(group, closing+1, tokenAssign, "`=`")
	if err != nil {
		return nil, err
	}
	value, err := p.parseExpressionTokens(group[closing+2:len(group)-1], assign)
	if err != nil {
		return nil, err
	}
	return &VecReassignStmt{
		Name:     group[0].Literal,
		Index:    index,
		Value:    value,
		nameSpan: group[0].Span,
		span:     spanOf(group),
	}, nil
}

func (p *parser) parseCallStatement(group []Token) (Statement, error) {
	p.reset(group[:len(group)-1], group[0].Span.Start)
	expr := p.parseCallExpression()
	if p.err != nil {
		return nil, p.err
	}
	if p.pos < len(p.tokens) {
		return nil, expectedError(p.src, "`;`", p.cur())
	}
	return &CallStmt{Call: expr.(*CallExpr), span: spanOf(group)}, nil
}

func (p *parser) parseIfStatement(group []Token) (Statement, error) {
	open := -1
	for i, tok := range group {
		if tok.Type == tokenLBrace {
			open = i
			break
		}
	}
	if open < 0 {
		return nil, expectedError(p.src, "`{`", p.tokenAt(group, len(group)))
	}
	cond, err := p.parseExpressionTokens(group[1:open], group[0])
	if err != nil {
		return nil, err
	}
	closeIdx, err := p.blockEnd(group, open)
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock(group[open+1 : closeIdx-1])
	if err != nil {
		return nil, err
	}
	if closeIdx == len(group) {
		return &IfStmt{Condition: cond, Body: then, span: spanOf(group)}, nil
	}

	if _, err := p.expectAt(group, closeIdx, tokenElse, "`else`"); err != nil {
		return nil, err
	}
	if _, err := p.expectAt(group, closeIdx+1, tokenLBrace, "`{`"); err != nil {
		return nil, err
	}
	elseEnd, err := p.blockEnd(group, closeIdx+1)
	if err != nil {
		return nil, err
	}
	if elseEnd != len(group) {
		return nil, expectedError(p.src, "end of `if` statement", group[elseEnd])
	}
	otherwise, err := p.parseBlock(group[closeIdx+2 : elseEnd-1])
	if err != nil {
		return nil, err
	}
	return &IfElseStmt{Condition: cond, Then: then, Else: otherwise, span: spanOf(group)}, nil
}

func (p *parser) parseLoopStatement(group []Token) (Statement, error) {
	if _, err := p.expectAt(group, 1, tokenLBrace, "`{`"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock(group[2 : len(group)-1])
	if err != nil {
		return nil, err
	}
	return &LoopStmt{Body: body, span: spanOf(group)}, nil
}

func (p *parser) parseFunctionStatement(group []Token) (Statement, error) {
	name, err := p.expectAt(group, 1, tokenFuncName, "function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expectAt(group, 2, tokenLParen, "`(`"); err != nil {
		return nil, err
	}

	stmt := &FunctionStmt{Name: name.Literal, span: spanOf(group)}
	i := 3
	if p.tokenAt(group, i).Type == tokenRParen {
		i++
	} else {
		for {
			paramName, err := p.expectAt(group, i, tokenIdent, "parameter name")
			if err != nil {
				return nil, err
			}
			paramType, err := p.expectAt(group, i+1, tokenDataType, "parameter type")
			if err != nil {
				return nil, err
			}
			stmt.Params = append(stmt.Params, Param{
				Name: paramName.Literal,
				Type: paramType.DataType,
				span: paramName.Span.join(paramType.Span),
			})
			i += 2
			sep := p.tokenAt(group, i)
			i++
			if sep.Type == tokenRParen {
				break
			}
			if sep.Type != tokenComma {
				return nil, expectedError(p.src, "`,` or `)`", sep)
			}
		}
	}

	if tok := p.tokenAt(group, i); tok.Type == tokenDataType {
		dt := tok.DataType
		stmt.ReturnType = &dt
		i++
	}
	if _, err := p.expectAt(group, i, tokenLBrace, "`{`"); err != nil {
		return nil, err
	}
	bodyEnd, err := p.blockEnd(group, i)
	if err != nil {
		return nil, err
	}
	if bodyEnd != len(group) {
		return nil, expectedError(p.src, "end of function", group[bodyEnd])
	}
	stmt.Body, err = p.parseBlock(group[i+1 : bodyEnd-1])
	if err != nil {
		return nil, err
	}
	return stmt, nil
}
