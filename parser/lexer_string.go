package parser

import (
	"errors"
	"strconv"
	"strings"

	"tally/reader"
	"tally/types"
)

// readString reads a quoted string literal with escape sequences. Either
// quote character may delimit it; the other one needs no escape inside.
func (l *Lexer) readString(tok Token) (Token, error) {
	tok.Type = TOKEN_STRING

	var raw, result strings.Builder
	quote := l.readChar()
	raw.WriteRune(quote)

	for {
		escPos := l.position()
		ch := l.readChar()
		switch ch {
		case reader.EOF:
			return tok, lexError(tok.Position, "unterminated string")
		case quote:
			raw.WriteRune(ch)
			tok.Value = raw.String()
			tok.Literal = result.String()
			return tok, nil
		case '\\':
			raw.WriteRune(ch)
			esc := l.readChar()
			raw.WriteRune(esc)
			switch esc {
			case 'n':
				result.WriteByte('\n')
			case 't':
				result.WriteByte('\t')
			case 'r':
				result.WriteByte('\r')
			case '\\', '\'', '"':
				result.WriteRune(esc)
			case 'u':
				r, err := l.readUnicodeEscape(&raw)
				if err != nil {
					return tok, lexError(escPos, "%v", err)
				}
				result.WriteRune(r)
			case reader.EOF:
				return tok, lexError(tok.Position, "unterminated string")
			default:
				return tok, lexError(escPos, "unknown escape sequence \\%c", esc)
			}
		default:
			raw.WriteRune(ch)
			result.WriteRune(ch)
		}
	}
}

// readUnicodeEscape reads the four hex digits following \u
func (l *Lexer) readUnicodeEscape(raw *strings.Builder) (rune, error) {
	var hex strings.Builder
	for i := 0; i < 4; i++ {
		ch := l.peekChar(0)
		if !isHexDigit(ch) {
			return 0, errInvalidUnicodeEscape
		}
		hex.WriteRune(l.readChar())
	}
	raw.WriteString(hex.String())
	n, err := strconv.ParseUint(hex.String(), 16, 32)
	if err != nil {
		return 0, errInvalidUnicodeEscape
	}
	return rune(n), nil
}

var errInvalidUnicodeEscape = errors.New(`invalid \u escape, want four hex digits`)

func isHexDigit(ch rune) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

// readDate reads a #YYYY-MM-DD# or #YYYY-MM-DDTHH:MM:SSZ# literal
func (l *Lexer) readDate(tok Token) (Token, error) {
	tok.Type = TOKEN_DATE
	l.readChar() // skip opening #

	var body strings.Builder
	for {
		ch := l.peekChar(0)
		if ch == reader.EOF || ch == '\n' || ch == '\r' {
			return tok, lexError(tok.Position, "unterminated date literal")
		}
		l.readChar()
		if ch == '#' {
			break
		}
		body.WriteRune(ch)
	}

	if _, err := types.ParseDate(body.String()); err != nil {
		return tok, lexError(tok.Position, "%v", err)
	}
	tok.Literal = body.String()
	tok.Value = "#" + tok.Literal + "#"
	return tok, nil
}
