package parser

import "tally/types"

// Visitor is implemented by each pass over the tree. Walk does the
// dispatch on node kind; a handler recurses by calling Walk on the
// children it cares about, in the order it needs.
type Visitor[T any] interface {
	VisitLiteral(*LiteralExpr) (T, error)
	VisitIdentifier(*IdentifierExpr) (T, error)
	VisitUnary(*UnaryExpr) (T, error)
	VisitBinary(*BinaryExpr) (T, error)
	VisitTernary(*TernaryExpr) (T, error)
	VisitAssign(*AssignExpr) (T, error)
	VisitCall(*CallExpr) (T, error)
	VisitIndex(*IndexExpr) (T, error)
	VisitArray(*ArrayExpr) (T, error)
	VisitCast(*CastExpr) (T, error)
	VisitProgram(*Program) (T, error)
}

// Walk dispatches n to the matching Visitor method
func Walk[T any](v Visitor[T], n Node) (T, error) {
	switch n := n.(type) {
	case *LiteralExpr:
		return v.VisitLiteral(n)
	case *IdentifierExpr:
		return v.VisitIdentifier(n)
	case *UnaryExpr:
		return v.VisitUnary(n)
	case *BinaryExpr:
		return v.VisitBinary(n)
	case *TernaryExpr:
		return v.VisitTernary(n)
	case *AssignExpr:
		return v.VisitAssign(n)
	case *CallExpr:
		return v.VisitCall(n)
	case *IndexExpr:
		return v.VisitIndex(n)
	case *ArrayExpr:
		return v.VisitArray(n)
	case *CastExpr:
		return v.VisitCast(n)
	case *Program:
		return v.VisitProgram(n)
	}
	var zero T
	return zero, UnknownNode(n)
}

// WalkAll walks each node in order and collects the results
func WalkAll[T any](v Visitor[T], nodes []Expr) ([]T, error) {
	out := make([]T, len(nodes))
	for i, n := range nodes {
		r, err := Walk(v, n)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

// UnknownNode is the error for a node kind a pass cannot handle
func UnknownNode(n Node) error {
	if n == nil {
		return types.Errorf(types.ERR_TRANSLATION, 0, 0, "nil node")
	}
	pos := n.Position()
	return types.Errorf(types.ERR_TRANSLATION, pos.Line, pos.Column, "unsupported node %T", n)
}

// Children returns the direct children of n in evaluation order
func Children(n Node) []Node {
	var out []Node
	add := func(es ...Expr) {
		for _, e := range es {
			out = append(out, e)
		}
	}
	switch n := n.(type) {
	case *UnaryExpr:
		add(n.Operand)
	case *BinaryExpr:
		add(n.Left, n.Right)
	case *TernaryExpr:
		add(n.Condition, n.ThenExpr, n.ElseExpr)
	case *AssignExpr:
		add(n.Value)
	case *CallExpr:
		add(n.Args...)
	case *IndexExpr:
		add(n.Expr, n.Index)
	case *ArrayExpr:
		add(n.Elements...)
	case *CastExpr:
		add(n.Expr)
	case *Program:
		add(n.Statements...)
	}
	return out
}

// Inspect traverses the tree in depth-first order, calling f for each node.
// If f returns false, the children of that node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
}
