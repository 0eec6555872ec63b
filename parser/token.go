package parser

import (
	"fmt"

	"tally/types"
)

// TokenType represents different types of lexical tokens.
//
// The set is closed for the base grammar. A derived lexer that needs more
// kinds allocates them from TOKEN_EXTENSION_BASE upward; the parser never
// produces or assigns meaning to those values.
type TokenType int

const (
	// Special tokens
	TOKEN_EOF TokenType = iota
	TOKEN_ILLEGAL

	// Literals
	TOKEN_INT     // 42
	TOKEN_DECIMAL // 3.14
	TOKEN_STRING  // 'hello'
	TOKEN_DATE    // #2024-01-31#

	// Keywords
	TOKEN_TRUE
	TOKEN_FALSE
	TOKEN_NULL

	// Identifiers
	TOKEN_IDENTIFIER

	// Operators
	TOKEN_PLUS    // +
	TOKEN_MINUS   // -
	TOKEN_STAR    // *
	TOKEN_SLASH   // /
	TOKEN_PERCENT // %
	TOKEN_CARET   // ^

	TOKEN_EQ // ==
	TOKEN_NE // !=
	TOKEN_LT // <
	TOKEN_GT // >
	TOKEN_LE // <=
	TOKEN_GE // >=

	TOKEN_AND // && and
	TOKEN_OR  // || or
	TOKEN_NOT // ! not

	TOKEN_ASSIGN   // =
	TOKEN_QUESTION // ?
	TOKEN_COLON    // :

	// Delimiters
	TOKEN_LPAREN    // (
	TOKEN_RPAREN    // )
	TOKEN_LBRACKET  // [
	TOKEN_RBRACKET  // ]
	TOKEN_COMMA     // ,
	TOKEN_SEMICOLON // ;
)

// TOKEN_EXTENSION_BASE is the first value reserved for derived grammars
const TOKEN_EXTENSION_BASE TokenType = 1 << 10

// Position represents a position in the source code
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token represents a lexical token
type Token struct {
	Type     TokenType
	Value    string // lexeme as written
	Literal  string // decoded value for TOKEN_STRING and TOKEN_DATE
	Position Position
}

var keywords = map[string]TokenType{
	"true":  TOKEN_TRUE,
	"false": TOKEN_FALSE,
	"null":  TOKEN_NULL,
	"and":   TOKEN_AND,
	"or":    TOKEN_OR,
	"not":   TOKEN_NOT,
}

// LookupIdent returns the keyword token type for ident, or TOKEN_IDENTIFIER
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return TOKEN_IDENTIFIER
}

// String returns a string representation of the token type
func (t TokenType) String() string {
	switch t {
	case TOKEN_EOF:
		return "EOF"
	case TOKEN_ILLEGAL:
		return "ILLEGAL"
	case TOKEN_INT:
		return "INT"
	case TOKEN_DECIMAL:
		return "DECIMAL"
	case TOKEN_STRING:
		return "STRING"
	case TOKEN_DATE:
		return "DATE"
	case TOKEN_TRUE:
		return "TRUE"
	case TOKEN_FALSE:
		return "FALSE"
	case TOKEN_NULL:
		return "NULL"
	case TOKEN_IDENTIFIER:
		return "IDENTIFIER"
	case TOKEN_PLUS:
		return "PLUS"
	case TOKEN_MINUS:
		return "MINUS"
	case TOKEN_STAR:
		return "STAR"
	case TOKEN_SLASH:
		return "SLASH"
	case TOKEN_PERCENT:
		return "PERCENT"
	case TOKEN_CARET:
		return "CARET"
	case TOKEN_EQ:
		return "EQ"
	case TOKEN_NE:
		return "NE"
	case TOKEN_LT:
		return "LT"
	case TOKEN_GT:
		return "GT"
	case TOKEN_LE:
		return "LE"
	case TOKEN_GE:
		return "GE"
	case TOKEN_AND:
		return "AND"
	case TOKEN_OR:
		return "OR"
	case TOKEN_NOT:
		return "NOT"
	case TOKEN_ASSIGN:
		return "ASSIGN"
	case TOKEN_QUESTION:
		return "QUESTION"
	case TOKEN_COLON:
		return "COLON"
	case TOKEN_LPAREN:
		return "LPAREN"
	case TOKEN_RPAREN:
		return "RPAREN"
	case TOKEN_LBRACKET:
		return "LBRACKET"
	case TOKEN_RBRACKET:
		return "RBRACKET"
	case TOKEN_COMMA:
		return "COMMA"
	case TOKEN_SEMICOLON:
		return "SEMICOLON"
	}
	if t >= TOKEN_EXTENSION_BASE {
		return fmt.Sprintf("EXTENSION(%d)", int(t-TOKEN_EXTENSION_BASE))
	}
	return "UNKNOWN"
}

// Symbol returns the operator text for operator tokens, or the type name
func (t TokenType) Symbol() string {
	switch t {
	case TOKEN_PLUS:
		return "+"
	case TOKEN_MINUS:
		return "-"
	case TOKEN_STAR:
		return "*"
	case TOKEN_SLASH:
		return "/"
	case TOKEN_PERCENT:
		return "%"
	case TOKEN_CARET:
		return "^"
	case TOKEN_EQ:
		return "=="
	case TOKEN_NE:
		return "!="
	case TOKEN_LT:
		return "<"
	case TOKEN_GT:
		return ">"
	case TOKEN_LE:
		return "<="
	case TOKEN_GE:
		return ">="
	case TOKEN_AND:
		return "&&"
	case TOKEN_OR:
		return "||"
	case TOKEN_NOT:
		return "!"
	case TOKEN_ASSIGN:
		return "="
	}
	return t.String()
}

// Arith maps an arithmetic operator token to its value operation
func (t TokenType) Arith() (types.ArithOp, bool) {
	switch t {
	case TOKEN_PLUS:
		return types.ARITH_ADD, true
	case TOKEN_MINUS:
		return types.ARITH_SUB, true
	case TOKEN_STAR:
		return types.ARITH_MUL, true
	case TOKEN_SLASH:
		return types.ARITH_DIV, true
	case TOKEN_PERCENT:
		return types.ARITH_REM, true
	case TOKEN_CARET:
		return types.ARITH_POW, true
	}
	return 0, false
}

// Compare maps a comparison operator token to its value operation
func (t TokenType) Compare() (types.CompareOp, bool) {
	switch t {
	case TOKEN_EQ:
		return types.CMP_EQ, true
	case TOKEN_NE:
		return types.CMP_NE, true
	case TOKEN_LT:
		return types.CMP_LT, true
	case TOKEN_LE:
		return types.CMP_LE, true
	case TOKEN_GT:
		return types.CMP_GT, true
	case TOKEN_GE:
		return types.CMP_GE, true
	}
	return 0, false
}

// IsLogical reports whether t is && or ||
func (t TokenType) IsLogical() bool {
	return t == TOKEN_AND || t == TOKEN_OR
}
