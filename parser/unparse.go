package parser

import (
	"strings"

	"tally/types"
)

// Unparse precedence levels (higher = tighter binding)
const (
	unparseAssign = iota + 1
	unparseTernary
	unparseOr
	unparseAnd
	unparseEquality
	unparseComparison
	unparseAdditive
	unparseMultiply
	unparsePower
	unparseUnary
	unparsePostfix
	unparsePrimary
)

// Unparse converts a node back to source text that parses to the same tree.
// Casts have no surface syntax and render as their operand.
func Unparse(n Node) string {
	if prog, ok := n.(*Program); ok {
		parts := make([]string, len(prog.Statements))
		for i, s := range prog.Statements {
			parts[i] = unparseExpr(s)
		}
		return strings.Join(parts, "; ")
	}
	if e, ok := n.(Expr); ok {
		return unparseExpr(e)
	}
	return ""
}

func precedenceOf(e Expr) int {
	switch n := e.(type) {
	case *AssignExpr:
		return unparseAssign
	case *TernaryExpr:
		return unparseTernary
	case *UnaryExpr:
		return unparseUnary
	case *BinaryExpr:
		switch n.Operator {
		case TOKEN_OR:
			return unparseOr
		case TOKEN_AND:
			return unparseAnd
		case TOKEN_EQ, TOKEN_NE:
			return unparseEquality
		case TOKEN_LT, TOKEN_LE, TOKEN_GT, TOKEN_GE:
			return unparseComparison
		case TOKEN_PLUS, TOKEN_MINUS:
			return unparseAdditive
		case TOKEN_CARET:
			return unparsePower
		}
		return unparseMultiply
	case *IndexExpr:
		return unparsePostfix
	case *CastExpr:
		return precedenceOf(n.Expr)
	case *LiteralExpr:
		if isNegative(n.Value) {
			return unparseUnary
		}
	}
	return unparsePrimary
}

func isNegative(v types.Value) bool {
	switch n := v.(type) {
	case types.IntValue:
		return n.Val < 0
	case types.DecimalValue:
		return n.Decimal().Sign() < 0
	}
	return false
}

// wrap renders e, parenthesized when it binds looser than min
func wrap(e Expr, min int) string {
	s := unparseExpr(e)
	if precedenceOf(e) < min {
		return "(" + s + ")"
	}
	return s
}

func unparseExpr(e Expr) string {
	switch n := e.(type) {
	case *LiteralExpr:
		return unparseValue(n.Value)

	case *IdentifierExpr:
		return n.Name

	case *UnaryExpr:
		return n.Operator.Symbol() + wrap(n.Operand, unparseUnary)

	case *BinaryExpr:
		prec := precedenceOf(n)
		if n.Operator == TOKEN_CARET {
			return wrap(n.Left, prec+1) + " ^ " + wrap(n.Right, prec)
		}
		return wrap(n.Left, prec) + " " + n.Operator.Symbol() + " " + wrap(n.Right, prec+1)

	case *TernaryExpr:
		return wrap(n.Condition, unparseOr) + " ? " + wrap(n.ThenExpr, unparseTernary) + " : " + wrap(n.ElseExpr, unparseTernary)

	case *AssignExpr:
		return n.Name + " = " + unparseExpr(n.Value)

	case *CallExpr:
		return n.Name + "(" + unparseList(n.Args) + ")"

	case *IndexExpr:
		return wrap(n.Expr, unparsePostfix) + "[" + unparseExpr(n.Index) + "]"

	case *ArrayExpr:
		return "[" + unparseList(n.Elements) + "]"

	case *CastExpr:
		return unparseExpr(n.Expr)
	}
	return "<?>"
}

func unparseList(es []Expr) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = unparseExpr(e)
	}
	return strings.Join(parts, ", ")
}

// unparseValue renders a literal. Integral decimals keep a fractional part
// so they read back as Decimal.
func unparseValue(v types.Value) string {
	switch n := v.(type) {
	case types.DecimalValue:
		s := n.String()
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	case types.ArrayValue:
		parts := make([]string, n.Len())
		for i, e := range n.Elements() {
			parts[i] = unparseValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return types.Format(v)
}
