package eval

import (
	"fmt"

	"tally/parser"
	"tally/types"
)

// ============================================================================
// OPERATORS
// ============================================================================

// Unary applies a prefix operator to an evaluated operand
func Unary(op parser.TokenType, operand types.Value) (types.Value, error) {
	switch op {
	case parser.TOKEN_MINUS:
		return types.Negate(operand)
	case parser.TOKEN_NOT:
		return types.Not(operand)
	}
	return nil, fmt.Errorf("%w: unknown unary operator %s", types.ErrType, op)
}

// Binary applies an operator to two evaluated operands. && and || are
// combined with Kleene logic here; short-circuiting is up to the caller.
func Binary(op parser.TokenType, left, right types.Value) (types.Value, error) {
	if a, ok := op.Arith(); ok {
		return types.Arith(a, left, right)
	}
	if c, ok := op.Compare(); ok {
		return types.Compare(c, left, right)
	}
	switch op {
	case parser.TOKEN_AND:
		return types.And(left, right)
	case parser.TOKEN_OR:
		return types.Or(left, right)
	}
	return nil, fmt.Errorf("%w: unknown binary operator %s", types.ErrType, op)
}

// ShortCircuit returns the result of a logical operator that is decided by
// its left operand alone: false && x and true || x
func ShortCircuit(op parser.TokenType, left types.Value) (types.Value, bool) {
	switch {
	case op == parser.TOKEN_AND && types.IsFalse(left):
		return types.False, true
	case op == parser.TOKEN_OR && types.IsTrue(left):
		return types.True, true
	}
	return nil, false
}
