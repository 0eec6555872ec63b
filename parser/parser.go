package parser

import (
	"errors"
	"fmt"
	"strconv"

	"tally/reader"
	"tally/types"
)

// Parser builds an AST from the lexer's token stream
type Parser struct {
	lexer   *Lexer
	factory NodeFactory
	current Token
	err     error
}

// NewParser creates a Parser over input with the default node factory
func NewParser(input string) *Parser {
	return NewParserWith(NewLexerString(input), DefaultFactory{})
}

// NewReaderParser creates a Parser over a reader with the default factory
func NewReaderParser(r *reader.Reader) *Parser {
	return NewParserWith(NewLexer(r), DefaultFactory{})
}

// NewParserWith creates a Parser over lexer that builds nodes with factory
func NewParserWith(lexer *Lexer, factory NodeFactory) *Parser {
	p := &Parser{lexer: lexer, factory: factory}
	p.nextToken()
	return p
}

// Parse parses input into a Program
func Parse(input string) (*Program, error) {
	return NewParser(input).Parse()
}

// nextToken advances to the next token. The first lex error is kept and
// reported by the next expect or parse step.
func (p *Parser) nextToken() {
	if p.err != nil {
		return
	}
	tok, err := p.lexer.NextToken()
	if err != nil {
		p.err = wrapLexError(err)
	}
	p.current = tok
}

// peekToken returns the token after current without consuming it
func (p *Parser) peekToken() Token {
	if p.err != nil {
		return Token{Type: TOKEN_EOF}
	}
	tok, err := p.lexer.PeekToken()
	if err != nil {
		// surfaces when the parser reaches that token
		return Token{Type: TOKEN_ILLEGAL, Position: tok.Position}
	}
	return tok
}

func wrapLexError(err error) error {
	var lexErr *types.Error
	if errors.As(err, &lexErr) {
		return &types.Error{Kind: types.ERR_PARSE, Msg: lexErr.Msg, Line: lexErr.Line, Column: lexErr.Column, Cause: lexErr}
	}
	return &types.Error{Kind: types.ERR_PARSE, Msg: err.Error(), Cause: err}
}

func (p *Parser) errorf(tok Token, format string, args ...interface{}) error {
	if p.err != nil {
		return p.err
	}
	return types.Errorf(types.ERR_PARSE, tok.Position.Line, tok.Position.Column, format, args...)
}

func (p *Parser) unexpected(tok Token, want string) error {
	if tok.Type == TOKEN_EOF {
		return p.errorf(tok, "unexpected end of input, expected %s", want)
	}
	return p.errorf(tok, "unexpected %s %q, expected %s", tok.Type, tok.Value, want)
}

// expect consumes a token of type t
func (p *Parser) expect(t TokenType, want string) (Token, error) {
	if p.err != nil {
		return p.current, p.err
	}
	tok := p.current
	if tok.Type != t {
		return tok, p.unexpected(tok, want)
	}
	p.nextToken()
	return tok, nil
}

// Parse parses a sequence of statements separated by ';'. Empty statements
// are skipped; a program without any statement is an error.
func (p *Parser) Parse() (*Program, error) {
	start := p.current.Position
	var stmts []Expr

	for {
		if p.err != nil {
			return nil, p.err
		}
		for p.current.Type == TOKEN_SEMICOLON {
			p.nextToken()
		}
		if p.err != nil {
			return nil, p.err
		}
		if p.current.Type == TOKEN_EOF {
			break
		}
		stmt, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		if p.current.Type != TOKEN_SEMICOLON && p.current.Type != TOKEN_EOF {
			return nil, p.unexpected(p.current, "';' or end of input")
		}
	}

	if len(stmts) == 0 {
		return nil, p.errorf(p.current, "empty expression")
	}
	return p.factory.Program(start, stmts), nil
}

// ParseExpression parses a single expression and requires end of input
func (p *Parser) ParseExpression() (Expr, error) {
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.current.Type != TOKEN_EOF {
		return nil, p.unexpected(p.current, "end of input")
	}
	return expr, nil
}

// parseExpression is the lowest precedence level: assignment
func (p *Parser) parseExpression() (Expr, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.current.Type == TOKEN_IDENTIFIER && p.peekToken().Type == TOKEN_ASSIGN {
		name := p.current
		p.nextToken() // identifier
		p.nextToken() // =
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return p.factory.Assign(name.Position, name.Value, value), nil
	}

	expr, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if p.current.Type == TOKEN_ASSIGN {
		return nil, p.errorf(p.current, "assignment target must be a variable name")
	}
	return expr, nil
}

// parseTernary parses cond ? then : else, right-associative
func (p *Parser) parseTernary() (Expr, error) {
	cond, err := p.parseBinary(precedenceOr)
	if err != nil {
		return nil, err
	}
	if p.current.Type != TOKEN_QUESTION {
		return cond, nil
	}
	q := p.current
	p.nextToken()

	then, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TOKEN_COLON, "':'"); err != nil {
		return nil, err
	}
	els, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	return p.factory.Ternary(q.Position, cond, then, els), nil
}

// Binary operator precedence levels (higher = tighter binding)
const (
	precedenceLowest = iota
	precedenceOr         // ||
	precedenceAnd        // &&
	precedenceEquality   // == !=
	precedenceComparison // < <= > >=
	precedenceAdditive   // + -
	precedenceMultiply   // * / %
)

func binaryPrecedence(t TokenType) int {
	switch t {
	case TOKEN_OR:
		return precedenceOr
	case TOKEN_AND:
		return precedenceAnd
	case TOKEN_EQ, TOKEN_NE:
		return precedenceEquality
	case TOKEN_LT, TOKEN_LE, TOKEN_GT, TOKEN_GE:
		return precedenceComparison
	case TOKEN_PLUS, TOKEN_MINUS:
		return precedenceAdditive
	case TOKEN_STAR, TOKEN_SLASH, TOKEN_PERCENT:
		return precedenceMultiply
	}
	return precedenceLowest
}

// parseBinary does precedence climbing over the left-associative binary
// operators binding at least as tightly as minPrec
func (p *Parser) parseBinary(minPrec int) (Expr, error) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	for {
		op := p.current
		prec := binaryPrecedence(op.Type)
		if prec == precedenceLowest || prec < minPrec {
			return left, nil
		}
		p.nextToken()
		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = p.factory.Binary(op.Position, left, op.Type, right)
	}
}

// parsePower parses base ^ exponent, right-associative. Unary operators
// bind tighter, so -2 ^ 2 is (-2) ^ 2 and 2 ^ -1 takes a signed exponent.
func (p *Parser) parsePower() (Expr, error) {
	base, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.current.Type != TOKEN_CARET {
		return base, nil
	}
	op := p.current
	p.nextToken()
	exp, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	return p.factory.Binary(op.Position, base, TOKEN_CARET, exp), nil
}

// parseUnary parses prefix - and !
func (p *Parser) parseUnary() (Expr, error) {
	if p.err != nil {
		return nil, p.err
	}
	switch p.current.Type {
	case TOKEN_MINUS, TOKEN_NOT:
		op := p.current
		p.nextToken()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return p.factory.Unary(op.Position, op.Type, operand), nil
	}
	return p.parsePostfix()
}

// parsePostfix parses a primary followed by any number of [index]
func (p *Parser) parsePostfix() (Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.current.Type == TOKEN_LBRACKET {
		open := p.current
		p.nextToken()
		index, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TOKEN_RBRACKET, "']'"); err != nil {
			return nil, err
		}
		expr = p.factory.Index(open.Position, expr, index)
	}
	return expr, nil
}

func (p *Parser) parsePrimary() (Expr, error) {
	if p.err != nil {
		return nil, p.err
	}
	tok := p.current
	switch tok.Type {
	case TOKEN_INT:
		val, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			return nil, p.errorf(tok, "malformed integer %s", tok.Value)
		}
		p.nextToken()
		return p.factory.Literal(tok.Position, types.NewInt(val)), nil

	case TOKEN_DECIMAL:
		val, err := types.ParseDecimal(tok.Value)
		if err != nil {
			return nil, p.errorf(tok, "malformed decimal %s", tok.Value)
		}
		p.nextToken()
		return p.factory.Literal(tok.Position, val), nil

	case TOKEN_STRING:
		p.nextToken()
		return p.factory.Literal(tok.Position, types.NewStr(tok.Literal)), nil

	case TOKEN_DATE:
		val, err := types.ParseDate(tok.Literal)
		if err != nil {
			return nil, p.errorf(tok, "malformed date %s", tok.Value)
		}
		p.nextToken()
		return p.factory.Literal(tok.Position, val), nil

	case TOKEN_TRUE, TOKEN_FALSE:
		p.nextToken()
		return p.factory.Literal(tok.Position, types.NewBool(tok.Type == TOKEN_TRUE)), nil

	case TOKEN_NULL:
		p.nextToken()
		return p.factory.Literal(tok.Position, nil), nil

	case TOKEN_IDENTIFIER:
		p.nextToken()
		if p.current.Type == TOKEN_LPAREN {
			return p.parseCall(tok)
		}
		return p.factory.Identifier(tok.Position, tok.Value), nil

	case TOKEN_LPAREN:
		p.nextToken()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TOKEN_RPAREN, "')'"); err != nil {
			return nil, err
		}
		return expr, nil

	case TOKEN_LBRACKET:
		p.nextToken()
		elems, err := p.parseList(TOKEN_RBRACKET, "']'")
		if err != nil {
			return nil, err
		}
		return p.factory.Array(tok.Position, elems), nil
	}
	return nil, p.unexpected(tok, "an expression")
}

// parseCall parses the argument list of name(...); current is '('
func (p *Parser) parseCall(name Token) (Expr, error) {
	p.nextToken()
	args, err := p.parseList(TOKEN_RPAREN, "')'")
	if err != nil {
		return nil, err
	}
	return p.factory.Call(name.Position, name.Value, args), nil
}

// parseList parses comma-separated expressions up to and including closer
func (p *Parser) parseList(closer TokenType, want string) ([]Expr, error) {
	var items []Expr
	if p.current.Type == closer {
		p.nextToken()
		return items, nil
	}
	for {
		item, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if p.current.Type == TOKEN_COMMA {
			p.nextToken()
			continue
		}
		if _, err := p.expect(closer, fmt.Sprintf("',' or %s", want)); err != nil {
			return nil, err
		}
		return items, nil
	}
}
