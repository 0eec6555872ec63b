// Package simplify folds constant subtrees of a checked program into
// literals. The input tree is left untouched; Simplify returns a copy.
//
// A fold is only performed when every value it depends on is a literal, or
// when the left operand of && or || decides the result. A fold whose value
// operation fails is abandoned so that the failure still happens at run
// time, at the same position.
package simplify

import (
	"tally/eval"
	"tally/parser"
	"tally/symtab"
	"tally/types"
)

// Simplifier rebuilds a tree with constant subtrees folded. Function calls
// are resolved through the symbol table to decide whether they are pure.
type Simplifier struct {
	st          symtab.SymbolTable
	foldedCalls int
}

// New creates a Simplifier for st
func New(st symtab.SymbolTable) *Simplifier {
	return &Simplifier{st: st}
}

// Simplify returns a folded copy of the checked program prog
func Simplify(prog *parser.Program, st symtab.SymbolTable) (*parser.Program, error) {
	return New(st).Program(prog)
}

// Program returns a folded copy of prog
func (s *Simplifier) Program(prog *parser.Program) (*parser.Program, error) {
	out, err := parser.Walk[parser.Node](s, prog)
	if err != nil {
		return nil, err
	}
	return out.(*parser.Program), nil
}

// FoldedCalls reports how many host function calls were replaced by their
// result. Such a result depends on the table's implementation, not only on
// its signatures.
func (s *Simplifier) FoldedCalls() int {
	return s.foldedCalls
}

func (s *Simplifier) expr(e parser.Expr) (parser.Expr, error) {
	n, err := parser.Walk[parser.Node](s, e)
	if err != nil {
		return nil, err
	}
	out, ok := n.(parser.Expr)
	if !ok {
		return nil, parser.UnknownNode(n)
	}
	return out, nil
}

func (s *Simplifier) exprs(es []parser.Expr) ([]parser.Expr, []types.Value, bool, error) {
	out := make([]parser.Expr, len(es))
	vals := make([]types.Value, len(es))
	allConst := true
	for i, e := range es {
		x, err := s.expr(e)
		if err != nil {
			return nil, nil, false, err
		}
		out[i] = x
		v, ok := constant(x)
		allConst = allConst && ok
		vals[i] = v
	}
	return out, vals, allConst, nil
}

// constant returns the value of a literal node
func constant(e parser.Expr) (types.Value, bool) {
	if lit, ok := e.(*parser.LiteralExpr); ok {
		return lit.Value, true
	}
	return nil, false
}

// literal builds the folded replacement for n. The value is converted to
// the type of n so the replacement has the same type slot.
func literal(n parser.Node, v types.Value) (parser.Expr, bool) {
	return typedLiteral(n.Position(), n.Type(), v)
}

func typedLiteral(pos parser.Position, t *types.Type, v types.Value) (parser.Expr, bool) {
	c, err := types.Coerce(v, t)
	if err != nil {
		return nil, false
	}
	lit := parser.NewLiteral(pos, c)
	lit.SetType(t)
	return lit, true
}

// retype gives e the type t, folding the conversion of a literal and
// wrapping anything else in a cast
func retype(e parser.Expr, t *types.Type) parser.Expr {
	if e.Type() == t {
		return e
	}
	if v, ok := constant(e); ok {
		if lit, ok := typedLiteral(e.Position(), t, v); ok {
			return lit
		}
	}
	return parser.NewCast(e, t)
}

func (s *Simplifier) VisitProgram(n *parser.Program) (parser.Node, error) {
	stmts := make([]parser.Expr, 0, len(n.Statements))
	for i, stmt := range n.Statements {
		x, err := s.expr(stmt)
		if err != nil {
			return nil, err
		}
		if _, ok := constant(x); ok && i < len(n.Statements)-1 {
			continue
		}
		stmts = append(stmts, x)
	}
	out := &parser.Program{Pos: n.Pos, Statements: stmts}
	out.SetType(n.Type())
	return out, nil
}

func (s *Simplifier) VisitLiteral(n *parser.LiteralExpr) (parser.Node, error) {
	out := &parser.LiteralExpr{Pos: n.Pos, Value: n.Value}
	out.SetType(n.Type())
	return out, nil
}

func (s *Simplifier) VisitIdentifier(n *parser.IdentifierExpr) (parser.Node, error) {
	out := &parser.IdentifierExpr{Pos: n.Pos, Name: n.Name}
	out.SetType(n.Type())
	return out, nil
}

func (s *Simplifier) VisitUnary(n *parser.UnaryExpr) (parser.Node, error) {
	operand, err := s.expr(n.Operand)
	if err != nil {
		return nil, err
	}
	if v, ok := constant(operand); ok {
		if r, err := eval.Unary(n.Operator, v); err == nil {
			if lit, ok := literal(n, r); ok {
				return lit, nil
			}
		}
	}
	out := &parser.UnaryExpr{Pos: n.Pos, Operator: n.Operator, Operand: operand}
	out.SetType(n.Type())
	return out, nil
}

func (s *Simplifier) VisitBinary(n *parser.BinaryExpr) (parser.Node, error) {
	left, err := s.expr(n.Left)
	if err != nil {
		return nil, err
	}
	lv, lconst := constant(left)

	if n.Operator.IsLogical() && lconst {
		if r, ok := eval.ShortCircuit(n.Operator, lv); ok {
			if lit, ok := literal(n, r); ok {
				return lit, nil
			}
		}
	}

	right, err := s.expr(n.Right)
	if err != nil {
		return nil, err
	}
	rv, rconst := constant(right)

	switch {
	case lconst && rconst:
		if r, err := eval.Binary(n.Operator, lv, rv); err == nil {
			if lit, ok := literal(n, r); ok {
				return lit, nil
			}
		}
	case n.Operator.IsLogical() && lconst && lv != nil:
		// true && x and false || x are x
		return retype(right, n.Type()), nil
	}

	out := &parser.BinaryExpr{Pos: n.Pos, Left: left, Operator: n.Operator, Right: right}
	out.SetType(n.Type())
	return out, nil
}

// VisitTernary replaces a ternary with a constant condition by the branch
// it selects. The other branch is dropped without being simplified.
func (s *Simplifier) VisitTernary(n *parser.TernaryExpr) (parser.Node, error) {
	cond, err := s.expr(n.Condition)
	if err != nil {
		return nil, err
	}
	if v, ok := constant(cond); ok {
		branch := n.ElseExpr
		if types.IsTrue(v) {
			branch = n.ThenExpr
		}
		x, err := s.expr(branch)
		if err != nil {
			return nil, err
		}
		return retype(x, n.Type()), nil
	}

	then, err := s.expr(n.ThenExpr)
	if err != nil {
		return nil, err
	}
	els, err := s.expr(n.ElseExpr)
	if err != nil {
		return nil, err
	}
	out := &parser.TernaryExpr{Pos: n.Pos, Condition: cond, ThenExpr: then, ElseExpr: els}
	out.SetType(n.Type())
	return out, nil
}

func (s *Simplifier) VisitAssign(n *parser.AssignExpr) (parser.Node, error) {
	value, err := s.expr(n.Value)
	if err != nil {
		return nil, err
	}
	out := &parser.AssignExpr{Pos: n.Pos, Name: n.Name, Value: value}
	out.SetType(n.Type())
	return out, nil
}

func (s *Simplifier) VisitCall(n *parser.CallExpr) (parser.Node, error) {
	args, vals, allConst, err := s.exprs(n.Args)
	if err != nil {
		return nil, err
	}
	if allConst {
		if fn, ok := s.st.Function(n.Name); ok && fn.Pure() {
			if r, err := symtab.Invoke(fn, vals); err == nil {
				if lit, ok := literal(n, r); ok {
					s.foldedCalls++
					return lit, nil
				}
			}
		}
	}
	out := &parser.CallExpr{Pos: n.Pos, Name: n.Name, Args: args}
	out.SetType(n.Type())
	return out, nil
}

func (s *Simplifier) VisitIndex(n *parser.IndexExpr) (parser.Node, error) {
	coll, err := s.expr(n.Expr)
	if err != nil {
		return nil, err
	}
	idx, err := s.expr(n.Index)
	if err != nil {
		return nil, err
	}
	cv, cconst := constant(coll)
	iv, iconst := constant(idx)
	if cconst && iconst {
		if r, err := types.Index(cv, iv); err == nil {
			if lit, ok := literal(n, r); ok {
				return lit, nil
			}
		}
	}
	out := &parser.IndexExpr{Pos: n.Pos, Expr: coll, Index: idx}
	out.SetType(n.Type())
	return out, nil
}

func (s *Simplifier) VisitArray(n *parser.ArrayExpr) (parser.Node, error) {
	elems, vals, allConst, err := s.exprs(n.Elements)
	if err != nil {
		return nil, err
	}
	if allConst && n.Type().IsArray() {
		if arr, ok := constantArray(n.Type(), vals); ok {
			if lit, ok := literal(n, arr); ok {
				return lit, nil
			}
		}
	}
	out := &parser.ArrayExpr{Pos: n.Pos, Elements: elems}
	out.SetType(n.Type())
	return out, nil
}

func constantArray(t *types.Type, vals []types.Value) (types.Value, bool) {
	elems := make([]types.Value, len(vals))
	for i, v := range vals {
		c, err := types.Coerce(v, t.Elem())
		if err != nil {
			return nil, false
		}
		elems[i] = c
	}
	arr, err := types.NewArray(t, elems)
	if err != nil {
		return nil, false
	}
	return arr, true
}

func (s *Simplifier) VisitCast(n *parser.CastExpr) (parser.Node, error) {
	inner, err := s.expr(n.Expr)
	if err != nil {
		return nil, err
	}
	return retype(inner, n.Type()), nil
}
