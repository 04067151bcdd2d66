package oxido

import "fmt"

// TokenType identifies the lexical category of a token.
type TokenType string

const (
	tokenIdent    TokenType = "IDENT"
	tokenFuncName TokenType = "FNAME"
	tokenInt      TokenType = "INT"
	tokenString   TokenType = "STRING"
	tokenBool     TokenType = "BOOL"
	tokenDataType TokenType = "TYPE"
	tokenEOF      TokenType = "EOF"

	tokenAssign   TokenType = "="
	tokenPlus     TokenType = "+"
	tokenMinus    TokenType = "-"
	tokenAsterisk TokenType = "*"
	tokenSlash    TokenType = "/"
	tokenCaret    TokenType = "^"
	tokenLT       TokenType = "<"
	tokenGT       TokenType = ">"
	tokenLTE      TokenType = "<="
	tokenGTE      TokenType = ">="
	tokenEQ       TokenType = "=="
	tokenNotEQ    TokenType = "!="

	tokenSemicolon TokenType = ";"
	tokenComma     TokenType = ","
	tokenLParen    TokenType = "("
	tokenRParen    TokenType = ")"
	tokenLBrace    TokenType = "{"
	tokenRBrace    TokenType = "}"
	tokenLBracket  TokenType = "["
	tokenRBracket  TokenType = "]"

	tokenLet    TokenType = "LET"
	tokenIf     TokenType = "IF"
	tokenElse   TokenType = "ELSE"
	tokenLoop   TokenType = "LOOP"
	tokenFn     TokenType = "FN"
	tokenBreak  TokenType = "BREAK"
	tokenReturn TokenType = "RETURN"
	tokenExit   TokenType = "EXIT"
)

// Token captures lexical information for the parser. Int, Bool and DataType
// are only meaningful for the matching token types.
type Token struct {
	Type     TokenType
	Literal  string
	Int      int64
	Bool     bool
	DataType DataType
	Span     Span
}

// Offset is the byte offset of the token's first character.
func (t Token) Offset() int {
	return t.Span.Start
}

// String renders the token the way diagnostics name it.
func (t Token) String() string {
	switch t.Type {
	case tokenIdent:
		return fmt.Sprintf("identifier `%s`", t.Literal)
	case tokenFuncName:
		return fmt.Sprintf("function name `%s`", t.Literal)
	case tokenInt:
		return fmt.Sprintf("integer `%d`", t.Int)
	case tokenString:
		return fmt.Sprintf("string %q", t.Literal)
	case tokenBool:
		return fmt.Sprintf("boolean `%t`", t.Bool)
	case tokenDataType:
		return fmt.Sprintf("type `%s`", t.DataType)
	case tokenEOF:
		return "end of statement"
	default:
		return "`" + t.Literal + "`"
	}
}

// Span is a half-open byte range into the source text.
type Span struct {
	Start int
	End   int
}

func (s Span) join(other Span) Span {
	out := s
	if other.Start < out.Start {
		out.Start = other.Start
	}
	if other.End > out.End {
		out.End = other.End
	}
	return out
}

func spanOf(tokens []Token) Span {
	if len(tokens) == 0 {
		return Span{}
	}
	return tokens[0].Span.join(tokens[len(tokens)-1].Span)
}

func isComparison(tt TokenType) bool {
	switch tt {
	case tokenEQ, tokenNotEQ, tokenLT, tokenGT, tokenLTE, tokenGTE:
		return true
	}
	return false
}
