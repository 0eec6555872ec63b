package parser

import "tally/types"

// NodeFactory builds the nodes the parser produces. Embedders that carry
// extra data on nodes supply their own factory; node kinds must still be
// the types in ast.go so the walkers can dispatch on them.
type NodeFactory interface {
	Literal(pos Position, v types.Value) Expr
	Identifier(pos Position, name string) Expr
	Unary(pos Position, op TokenType, operand Expr) Expr
	Binary(pos Position, left Expr, op TokenType, right Expr) Expr
	Ternary(pos Position, cond, then, els Expr) Expr
	Assign(pos Position, name string, value Expr) Expr
	Call(pos Position, name string, args []Expr) Expr
	Index(pos Position, expr, index Expr) Expr
	Array(pos Position, elements []Expr) Expr
	Program(pos Position, statements []Expr) *Program
}

// DefaultFactory builds plain nodes
type DefaultFactory struct{}

func (DefaultFactory) Literal(pos Position, v types.Value) Expr {
	e := &LiteralExpr{Pos: pos, Value: v}
	e.SetType(types.TypeOf(v))
	return e
}

func (DefaultFactory) Identifier(pos Position, name string) Expr {
	return &IdentifierExpr{Pos: pos, Name: name}
}

func (DefaultFactory) Unary(pos Position, op TokenType, operand Expr) Expr {
	return &UnaryExpr{Pos: pos, Operator: op, Operand: operand}
}

func (DefaultFactory) Binary(pos Position, left Expr, op TokenType, right Expr) Expr {
	return &BinaryExpr{Pos: pos, Left: left, Operator: op, Right: right}
}

func (DefaultFactory) Ternary(pos Position, cond, then, els Expr) Expr {
	return &TernaryExpr{Pos: pos, Condition: cond, ThenExpr: then, ElseExpr: els}
}

func (DefaultFactory) Assign(pos Position, name string, value Expr) Expr {
	return &AssignExpr{Pos: pos, Name: name, Value: value}
}

func (DefaultFactory) Call(pos Position, name string, args []Expr) Expr {
	return &CallExpr{Pos: pos, Name: name, Args: args}
}

func (DefaultFactory) Index(pos Position, expr, index Expr) Expr {
	return &IndexExpr{Pos: pos, Expr: expr, Index: index}
}

func (DefaultFactory) Array(pos Position, elements []Expr) Expr {
	return &ArrayExpr{Pos: pos, Elements: elements}
}

func (DefaultFactory) Program(pos Position, statements []Expr) *Program {
	return &Program{Pos: pos, Statements: statements}
}

// NewLiteral builds a typed literal node
func NewLiteral(pos Position, v types.Value) *LiteralExpr {
	return DefaultFactory{}.Literal(pos, v).(*LiteralExpr)
}

// NewCast builds a conversion of e to t
func NewCast(e Expr, t *types.Type) *CastExpr {
	c := &CastExpr{Pos: e.Position(), Expr: e}
	c.SetType(t)
	return c
}
