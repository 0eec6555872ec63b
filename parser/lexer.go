package parser

import (
	"strconv"
	"strings"

	"tally/reader"
	"tally/types"
)

// Lexer tokenizes expression source read from a reader.Reader
type Lexer struct {
	r     *reader.Reader
	ioErr error
}

// NewLexer creates a new Lexer over r
func NewLexer(r *reader.Reader) *Lexer {
	return &Lexer{r: r}
}

// NewLexerString creates a new Lexer over input
func NewLexerString(input string) *Lexer {
	return NewLexer(reader.NewString(input))
}

// Close closes the underlying reader
func (l *Lexer) Close() error {
	return l.r.Close()
}

// peekChar returns the rune offset positions ahead without consuming it
func (l *Lexer) peekChar(offset int) rune {
	c, err := l.r.Peek(offset)
	if err != nil && l.ioErr == nil {
		l.ioErr = err
	}
	return c
}

// readChar consumes one rune
func (l *Lexer) readChar() rune {
	c, err := l.r.Read()
	if err != nil && l.ioErr == nil {
		l.ioErr = err
	}
	return c
}

func (l *Lexer) position() Position {
	return Position{Line: l.r.Line(), Column: l.r.Column()}
}

func lexError(pos Position, format string, args ...interface{}) error {
	return types.Errorf(types.ERR_LEX, pos.Line, pos.Column, format, args...)
}

// skipWhitespace skips over whitespace characters
func (l *Lexer) skipWhitespace() {
	for {
		switch l.peekChar(0) {
		case ' ', '\t', '\n', '\r', '\f':
			l.readChar()
		default:
			return
		}
	}
}

// PeekToken returns the next token without consuming it. It marks the
// reader, tokenizes and resets, so the reader's mark is not available to
// callers across a PeekToken.
func (l *Lexer) PeekToken() (Token, error) {
	if err := l.r.Mark(); err != nil {
		return Token{}, lexError(l.position(), "%v", err)
	}
	tok, err := l.NextToken()
	if rerr := l.r.Reset(); rerr != nil && err == nil {
		err = lexError(tok.Position, "%v", rerr)
	}
	return tok, err
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() (Token, error) {
	l.skipWhitespace()

	tok := Token{Position: l.position()}
	tok, err := l.scan(tok)
	if err == nil && l.ioErr != nil {
		err = types.WrapError(types.ERR_LEX, tok.Position.Line, tok.Position.Column, l.ioErr)
	}
	return tok, err
}

var singleCharTokens = map[rune]TokenType{
	'+': TOKEN_PLUS,
	'-': TOKEN_MINUS,
	'*': TOKEN_STAR,
	'/': TOKEN_SLASH,
	'%': TOKEN_PERCENT,
	'^': TOKEN_CARET,
	'?': TOKEN_QUESTION,
	':': TOKEN_COLON,
	'(': TOKEN_LPAREN,
	')': TOKEN_RPAREN,
	'[': TOKEN_LBRACKET,
	']': TOKEN_RBRACKET,
	',': TOKEN_COMMA,
	';': TOKEN_SEMICOLON,
}

func (l *Lexer) scan(tok Token) (Token, error) {
	ch := l.peekChar(0)
	switch {
	case ch == reader.EOF:
		tok.Type = TOKEN_EOF
		return tok, nil
	case isLetter(ch):
		return l.readIdentifier(tok), nil
	case isDigit(ch):
		return l.readNumber(tok)
	case ch == '\'' || ch == '"':
		return l.readString(tok)
	case ch == '#':
		return l.readDate(tok)
	}

	if t, ok := singleCharTokens[ch]; ok {
		tok.Type = t
		tok.Value = string(l.readChar())
		return tok, nil
	}

	next := l.peekChar(1)
	switch {
	case ch == '=' && next == '=':
		tok.Type = TOKEN_EQ
	case ch == '=':
		tok.Type = TOKEN_ASSIGN
	case ch == '!' && next == '=':
		tok.Type = TOKEN_NE
	case ch == '!':
		tok.Type = TOKEN_NOT
	case ch == '<' && next == '=':
		tok.Type = TOKEN_LE
	case ch == '<':
		tok.Type = TOKEN_LT
	case ch == '>' && next == '=':
		tok.Type = TOKEN_GE
	case ch == '>':
		tok.Type = TOKEN_GT
	case ch == '&' && next == '&':
		tok.Type = TOKEN_AND
	case ch == '|' && next == '|':
		tok.Type = TOKEN_OR
	default:
		l.readChar()
		return Token{Type: TOKEN_ILLEGAL, Value: string(ch), Position: tok.Position},
			lexError(tok.Position, "unexpected character %q", ch)
	}

	width := 1
	switch tok.Type {
	case TOKEN_EQ, TOKEN_NE, TOKEN_LE, TOKEN_GE, TOKEN_AND, TOKEN_OR:
		width = 2
	}
	var sb strings.Builder
	for i := 0; i < width; i++ {
		sb.WriteRune(l.readChar())
	}
	tok.Value = sb.String()
	return tok, nil
}

// readIdentifier reads an identifier or keyword
func (l *Lexer) readIdentifier(tok Token) Token {
	var sb strings.Builder
	for isLetter(l.peekChar(0)) || isDigit(l.peekChar(0)) {
		sb.WriteRune(l.readChar())
	}
	tok.Value = sb.String()
	tok.Type = LookupIdent(tok.Value)
	return tok
}

// readNumber reads an integer or decimal literal. A decimal needs at least
// one digit after the point.
func (l *Lexer) readNumber(tok Token) (Token, error) {
	var sb strings.Builder
	for isDigit(l.peekChar(0)) {
		sb.WriteRune(l.readChar())
	}
	tok.Type = TOKEN_INT

	if l.peekChar(0) == '.' {
		if !isDigit(l.peekChar(1)) {
			sb.WriteRune(l.readChar())
			return Token{Type: TOKEN_ILLEGAL, Value: sb.String(), Position: tok.Position},
				lexError(tok.Position, "unterminated number %q", sb.String())
		}
		sb.WriteRune(l.readChar())
		for isDigit(l.peekChar(0)) {
			sb.WriteRune(l.readChar())
		}
		tok.Type = TOKEN_DECIMAL
	}

	tok.Value = sb.String()
	if tok.Type == TOKEN_INT {
		if _, err := strconv.ParseInt(tok.Value, 10, 64); err != nil {
			return tok, lexError(tok.Position, "integer literal %s out of range", tok.Value)
		}
	}
	return tok, nil
}

// isLetter returns true if the character may start an identifier
func isLetter(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

// isDigit returns true if the character is a decimal digit
func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}
