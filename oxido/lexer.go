package oxido

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type lexer struct {
	src   Source
	input string

	offset int
	width  int

	ch rune
}

func newLexer(src Source) *lexer {
	l := &lexer{src: src, input: src.Text}
	l.readRune()
	return l
}

// tokenize converts source text into a position-tagged token stream.
func tokenize(src Source) ([]Token, error) {
	l := newLexer(src)
	var tokens []Token
	for {
		tok, ok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		if !ok {
			return tokens, nil
		}
		tokens = append(tokens, tok)
	}
}

func (l *lexer) readRune() {
	if l.offset >= len(l.input) {
		l.offset = len(l.input) + 1
		l.width = 1
		l.ch = 0
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.offset:])
	l.width = w
	l.offset += w
	l.ch = r
}

func (l *lexer) peekRune() rune {
	if l.offset >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.offset:])
	return r
}

func (l *lexer) atEOF() bool {
	return l.offset > len(l.input)
}

func (l *lexer) currentOffset() int {
	return l.offset - l.width
}

// NextToken scans one token. ok is false once the input is exhausted.
func (l *lexer) NextToken() (Token, bool, error) {
	l.skipWhitespaceAndComments()
	if l.atEOF() {
		return Token{}, false, nil
	}

	start := l.currentOffset()
	switch l.ch {
	case '+':
		return l.single(tokenPlus), true, nil
	case '*':
		return l.single(tokenAsterisk), true, nil
	case '/':
		return l.single(tokenSlash), true, nil
	case '^':
		return l.single(tokenCaret), true, nil
	case ';':
		return l.single(tokenSemicolon), true, nil
	case ',':
		return l.single(tokenComma), true, nil
	case '(':
		return l.single(tokenLParen), true, nil
	case ')':
		return l.single(tokenRParen), true, nil
	case '{':
		return l.single(tokenLBrace), true, nil
	case '}':
		return l.single(tokenRBrace), true, nil
	case '[':
		return l.single(tokenLBracket), true, nil
	case ']':
		return l.single(tokenRBracket), true, nil
	case '-':
		if l.peekRune() == '>' {
			l.readRune()
			l.readRune()
			tok, err := l.readTypeMarker(start)
			return tok, err == nil, err
		}
		return l.single(tokenMinus), true, nil
	case ':':
		l.readRune()
		tok, err := l.readTypeMarker(start)
		return tok, err == nil, err
	case '!':
		if l.peekRune() == '=' {
			return l.double(tokenNotEQ), true, nil
		}
		return Token{}, false, newDiagnostic(l.src, CategoryLexical, codeLexical, Span{start, start + 1},
			"unexpected character `!`", "did you mean `!=`?")
	case '=':
		if l.peekRune() == '=' {
			return l.double(tokenEQ), true, nil
		}
		return l.single(tokenAssign), true, nil
	case '>':
		if l.peekRune() == '=' {
			return l.double(tokenGTE), true, nil
		}
		return l.single(tokenGT), true, nil
	case '<':
		if l.peekRune() == '=' {
			return l.double(tokenLTE), true, nil
		}
		return l.single(tokenLT), true, nil
	case '"':
		tok, err := l.readString()
		return tok, err == nil, err
	}

	switch {
	case isIdentifierStart(l.ch):
		return l.readIdentifier(), true, nil
	case isDigit(l.ch):
		tok, err := l.readNumber()
		return tok, err == nil, err
	default:
		return Token{}, false, newDiagnostic(l.src, CategoryLexical, codeLexical, Span{start, start + l.width},
			fmt.Sprintf("unknown character %q", l.ch), "this character is not part of the language")
	}
}

func (l *lexer) single(tt TokenType) Token {
	start := l.currentOffset()
	l.readRune()
	return Token{Type: tt, Literal: string(tt), Span: Span{start, l.currentOffset()}}
}

func (l *lexer) double(tt TokenType) Token {
	start := l.currentOffset()
	l.readRune()
	l.readRune()
	return Token{Type: tt, Literal: string(tt), Span: Span{start, l.currentOffset()}}
}

func (l *lexer) skipWhitespaceAndComments() {
	for !l.atEOF() {
		switch {
		case l.ch == '#':
			for !l.atEOF() && l.ch != '\n' {
				l.readRune()
			}
		case unicode.IsSpace(l.ch):
			l.readRune()
		default:
			return
		}
	}
}

func (l *lexer) skipWhitespace() {
	for !l.atEOF() && unicode.IsSpace(l.ch) {
		l.readRune()
	}
}

// readTypeMarker scans the type name that follows a `:` or `->` marker. The
// marker has already been consumed; start is its offset.
func (l *lexer) readTypeMarker(start int) (Token, error) {
	l.skipWhitespace()
	from := l.currentOffset()
	if l.atEOF() {
		from = len(l.input)
	}
	rest := l.input[from:]
	dt, remaining, err := parseDataTypePrefix(rest)
	if err != nil {
		failedAt := from + len(rest) - len(remaining)
		return Token{}, newDiagnostic(l.src, CategoryLexical, codeLexical, Span{start, failedAt + 1},
			"invalid type annotation", err.Error())
	}
	end := from + len(rest) - len(remaining)
	for !l.atEOF() && l.currentOffset() < end {
		l.readRune()
	}
	return Token{
		Type:     tokenDataType,
		Literal:  l.input[start:end],
		DataType: dt,
		Span:     Span{start, end},
	}, nil
}

func (l *lexer) readIdentifier() Token {
	start := l.currentOffset()
	for !l.atEOF() && isIdentifierRune(l.ch) {
		l.readRune()
	}
	end := l.currentOffset()
	literal := l.input[start:end]
	tok := Token{Literal: literal, Span: Span{start, end}}

	switch literal {
	case "true", "false":
		tok.Type = tokenBool
		tok.Bool = literal == "true"
		return tok
	}
	if tt, ok := keywords[literal]; ok {
		tok.Type = tt
		return tok
	}
	if strings.HasPrefix(strings.TrimLeft(l.input[end:], " \t\r\n"), "(") {
		tok.Type = tokenFuncName
		return tok
	}
	tok.Type = tokenIdent
	return tok
}

func (l *lexer) readNumber() (Token, error) {
	start := l.currentOffset()
	for !l.atEOF() && isDigit(l.ch) {
		l.readRune()
	}
	end := l.currentOffset()
	literal := l.input[start:end]
	value, err := strconv.ParseInt(literal, 10, 64)
	if err != nil {
		return Token{}, newDiagnostic(l.src, CategoryLexical, codeLexical, Span{start, end},
			"invalid integer literal",
			fmt.Sprintf("`%s` does not fit in a 64-bit signed integer", literal))
	}
	return Token{Type: tokenInt, Literal: literal, Int: value, Span: Span{start, end}}, nil
}

func (l *lexer) readString() (Token, error) {
	start := l.currentOffset()
	var sb strings.Builder
	l.readRune()
	for {
		if l.atEOF() {
			return Token{}, newDiagnostic(l.src, CategoryLexical, codeLexical, Span{start, len(l.input)},
				"unterminated string", "string literal is missing its closing `\"`")
		}
		switch l.ch {
		case '"':
			l.readRune()
			return Token{Type: tokenString, Literal: sb.String(), Span: Span{start, l.currentOffset()}}, nil
		case '\\':
			escStart := l.currentOffset()
			l.readRune()
			if l.atEOF() {
				continue
			}
			r, ok := escapes[l.ch]
			if !ok {
				return Token{}, newDiagnostic(l.src, CategoryLexical, codeLexical, Span{escStart, l.currentOffset() + l.width},
					fmt.Sprintf("unknown escape sequence `\\%c`", l.ch), "supported escapes are \\t \\b \\n \\r \\f \\\" and \\\\")
			}
			sb.WriteRune(r)
			l.readRune()
		default:
			sb.WriteRune(l.ch)
			l.readRune()
		}
	}
}

var keywords = map[string]TokenType{
	"let":    tokenLet,
	"if":     tokenIf,
	"else":   tokenElse,
	"loop":   tokenLoop,
	"fn":     tokenFn,
	"break":  tokenBreak,
	"return": tokenReturn,
	"exit":   tokenExit,
}

var escapes = map[rune]rune{
	't':  '\t',
	'b':  '\b',
	'n':  '\n',
	'r':  '\r',
	'f':  '\f',
	'"':  '"',
	'\\': '\\',
}

func isIdentifierStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentifierRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
