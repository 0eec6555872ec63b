package parser

import "tally/types"

// Node is the base interface for all AST nodes.
//
// Every node has a type slot. The parser leaves it empty except on
// literals; the checker fills it in. A nil type after checking means the
// node is the null literal (or evaluates only to null).
type Node interface {
	Position() Position
	Type() *types.Type
	SetType(*types.Type)
}

// Expr represents an expression node
type Expr interface {
	Node
	exprNode()
}

// typed is embedded by every node to hold the resolved type
type typed struct {
	typ *types.Type
}

func (t *typed) Type() *types.Type     { return t.typ }
func (t *typed) SetType(x *types.Type) { t.typ = x }

// LiteralExpr is a constant. Value is nil for the null literal.
type LiteralExpr struct {
	typed
	Pos   Position
	Value types.Value
}

func (e *LiteralExpr) Position() Position { return e.Pos }
func (e *LiteralExpr) exprNode()          {}

// IdentifierExpr represents a variable reference
type IdentifierExpr struct {
	typed
	Pos  Position
	Name string
}

func (e *IdentifierExpr) Position() Position { return e.Pos }
func (e *IdentifierExpr) exprNode()          {}

// UnaryExpr represents a unary operation
type UnaryExpr struct {
	typed
	Pos      Position
	Operator TokenType // TOKEN_MINUS, TOKEN_NOT
	Operand  Expr
}

func (e *UnaryExpr) Position() Position { return e.Pos }
func (e *UnaryExpr) exprNode()          {}

// BinaryExpr represents a binary operation
type BinaryExpr struct {
	typed
	Pos      Position
	Left     Expr
	Operator TokenType
	Right    Expr
}

func (e *BinaryExpr) Position() Position { return e.Pos }
func (e *BinaryExpr) exprNode()          {}

// TernaryExpr represents conditional expression: cond ? then : else
type TernaryExpr struct {
	typed
	Pos       Position
	Condition Expr
	ThenExpr  Expr
	ElseExpr  Expr
}

func (e *TernaryExpr) Position() Position { return e.Pos }
func (e *TernaryExpr) exprNode()          {}

// AssignExpr represents variable assignment
type AssignExpr struct {
	typed
	Pos   Position
	Name  string
	Value Expr
}

func (e *AssignExpr) Position() Position { return e.Pos }
func (e *AssignExpr) exprNode()          {}

// CallExpr represents a host function call: name(args...)
type CallExpr struct {
	typed
	Pos  Position
	Name string
	Args []Expr
}

func (e *CallExpr) Position() Position { return e.Pos }
func (e *CallExpr) exprNode()          {}

// IndexExpr represents array indexing: expr[index]
type IndexExpr struct {
	typed
	Pos   Position
	Expr  Expr
	Index Expr
}

func (e *IndexExpr) Position() Position { return e.Pos }
func (e *IndexExpr) exprNode()          {}

// ArrayExpr represents an array literal: [a, b, c]
type ArrayExpr struct {
	typed
	Pos      Position
	Elements []Expr
}

func (e *ArrayExpr) Position() Position { return e.Pos }
func (e *ArrayExpr) exprNode()          {}

// CastExpr converts Expr to the node's type. The parser never produces it;
// the simplifier inserts it where it replaces a node by a narrower-typed
// subtree.
type CastExpr struct {
	typed
	Pos  Position
	Expr Expr
}

func (e *CastExpr) Position() Position { return e.Pos }
func (e *CastExpr) exprNode()          {}

// Program is the root: statements run in order and the program yields the
// value of the last one.
type Program struct {
	typed
	Pos        Position
	Statements []Expr
}

func (p *Program) Position() Position { return p.Pos }

// Result returns the final statement, whose type is the program type
func (p *Program) Result() Expr {
	if len(p.Statements) == 0 {
		return nil
	}
	return p.Statements[len(p.Statements)-1]
}
