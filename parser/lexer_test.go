package parser

import (
	"testing"

	"tally/types"
)

func lexAll(t *testing.T, input string) []Token {
	t.Helper()
	l := NewLexerString(input)
	var toks []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatalf("lex %q: %v", input, err)
		}
		toks = append(toks, tok)
		if tok.Type == TOKEN_EOF {
			return toks
		}
	}
}

func TestLexerTokens(t *testing.T) {
	tests := []struct {
		input string
		want  []TokenType
	}{
		{"42", []TokenType{TOKEN_INT, TOKEN_EOF}},
		{"3.14", []TokenType{TOKEN_DECIMAL, TOKEN_EOF}},
		{"a_1 + b", []TokenType{TOKEN_IDENTIFIER, TOKEN_PLUS, TOKEN_IDENTIFIER, TOKEN_EOF}},
		{"a = b == c", []TokenType{TOKEN_IDENTIFIER, TOKEN_ASSIGN, TOKEN_IDENTIFIER, TOKEN_EQ, TOKEN_IDENTIFIER, TOKEN_EOF}},
		{"! != < <= > >=", []TokenType{TOKEN_NOT, TOKEN_NE, TOKEN_LT, TOKEN_LE, TOKEN_GT, TOKEN_GE, TOKEN_EOF}},
		{"&& || and or not", []TokenType{TOKEN_AND, TOKEN_OR, TOKEN_AND, TOKEN_OR, TOKEN_NOT, TOKEN_EOF}},
		{"* / % ^ - ?:", []TokenType{TOKEN_STAR, TOKEN_SLASH, TOKEN_PERCENT, TOKEN_CARET, TOKEN_MINUS, TOKEN_QUESTION, TOKEN_COLON, TOKEN_EOF}},
		{"f(x)[0], y;", []TokenType{TOKEN_IDENTIFIER, TOKEN_LPAREN, TOKEN_IDENTIFIER, TOKEN_RPAREN, TOKEN_LBRACKET, TOKEN_INT, TOKEN_RBRACKET, TOKEN_COMMA, TOKEN_IDENTIFIER, TOKEN_SEMICOLON, TOKEN_EOF}},
		{"true false null", []TokenType{TOKEN_TRUE, TOKEN_FALSE, TOKEN_NULL, TOKEN_EOF}},
		{"#2024-01-31#", []TokenType{TOKEN_DATE, TOKEN_EOF}},
		{"  \n\t ", []TokenType{TOKEN_EOF}},
		{"-5", []TokenType{TOKEN_MINUS, TOKEN_INT, TOKEN_EOF}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks := lexAll(t, tt.input)
			if len(toks) != len(tt.want) {
				t.Fatalf("got %d tokens %v, want %d", len(toks), toks, len(tt.want))
			}
			for i, tok := range toks {
				if tok.Type != tt.want[i] {
					t.Errorf("token %d: got %s, want %s", i, tok.Type, tt.want[i])
				}
			}
		})
	}
}

func TestLexerStrings(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`'aap'`, "aap"},
		{`"geen aap"`, "geen aap"},
		{`'it\'s'`, "it's"},
		{`"say \"hi\""`, `say "hi"`},
		{`'a"b'`, `a"b`},
		{`'tab\there'`, "tab\there"},
		{`'line\nbreak'`, "line\nbreak"},
		{`'back\\slash'`, `back\slash`},
		{`'été'`, "été"},
		{`''`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks := lexAll(t, tt.input)
			if toks[0].Type != TOKEN_STRING {
				t.Fatalf("got %s, want STRING", toks[0].Type)
			}
			if toks[0].Literal != tt.want {
				t.Errorf("Literal = %q, want %q", toks[0].Literal, tt.want)
			}
			if toks[0].Value != tt.input {
				t.Errorf("Value = %q, want %q", toks[0].Value, tt.input)
			}
		})
	}
}

func TestLexerPositions(t *testing.T) {
	toks := lexAll(t, "a = 3;\n  3-3;")
	want := []Position{
		{1, 1}, {1, 3}, {1, 5}, {1, 6},
		{2, 3}, {2, 4}, {2, 5}, {2, 6},
		{2, 7},
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, tok := range toks {
		if tok.Position != want[i] {
			t.Errorf("token %d (%s): position %s, want %s", i, tok.Type, tok.Position, want[i])
		}
	}
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		line   int
		column int
	}{
		{"unknown character", "1 $ 2", 1, 3},
		{"single ampersand", "a & b", 1, 3},
		{"unterminated string", "x + 'abc", 1, 5},
		{"unknown escape", `'a\qb'`, 1, 3},
		{"bad unicode escape", `'\u12'`, 1, 2},
		{"unterminated number", "12. + 1", 1, 1},
		{"integer out of range", "99999999999999999999", 1, 1},
		{"unterminated date", "#2024-01-31", 1, 1},
		{"invalid date", "#2024-13-01#", 1, 1},
		{"second line", "1 +\n  @", 2, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLexerString(tt.input)
			var err error
			for err == nil {
				var tok Token
				tok, err = l.NextToken()
				if err == nil && tok.Type == TOKEN_EOF {
					t.Fatalf("expected a lex error")
				}
			}
			e, ok := err.(*types.Error)
			if !ok {
				t.Fatalf("got %T, want *types.Error", err)
			}
			if e.Kind != types.ERR_LEX {
				t.Errorf("kind = %s, want LexError", e.Kind)
			}
			if e.Line != tt.line || e.Column != tt.column {
				t.Errorf("position = %d:%d, want %d:%d", e.Line, e.Column, tt.line, tt.column)
			}
		})
	}
}

func TestPeekTokenDoesNotConsume(t *testing.T) {
	l := NewLexerString("alpha >= 2")
	for i := 0; i < 3; i++ {
		tok, err := l.PeekToken()
		if err != nil {
			t.Fatal(err)
		}
		if tok.Type != TOKEN_IDENTIFIER || tok.Value != "alpha" {
			t.Fatalf("PeekToken = %s %q", tok.Type, tok.Value)
		}
	}
	tok, _ := l.NextToken()
	if tok.Value != "alpha" {
		t.Fatalf("NextToken after peek = %q", tok.Value)
	}
	peeked, _ := l.PeekToken()
	next, _ := l.NextToken()
	if peeked != next {
		t.Errorf("peeked %+v, next %+v", peeked, next)
	}
	if next.Type != TOKEN_GE || next.Position != (Position{1, 7}) {
		t.Errorf("got %s at %s", next.Type, next.Position)
	}
}

func TestTokenTypeExtension(t *testing.T) {
	derived := TOKEN_EXTENSION_BASE + 3
	if derived.String() != "EXTENSION(3)" {
		t.Errorf("String() = %s", derived.String())
	}
	if derived == TOKEN_IDENTIFIER || derived <= TOKEN_SEMICOLON {
		t.Error("extension kinds must not collide with base kinds")
	}
}
