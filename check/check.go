// Package check resolves the type of every node in a parsed program and
// rejects ill-typed programs with the first semantic error found.
package check

import (
	"strings"

	"tally/parser"
	"tally/symtab"
	"tally/types"
)

// Checker annotates a tree against a symbol table. Variables declared by
// assignments earlier in the program are tracked privately; the symbol
// table itself is only read.
//
// An assignment on a path that may not run (a ternary branch, the right
// side of && or ||) only declares its variable if every path declares it.
// Otherwise the variable may not be read later, but later assignments
// must still agree with its type.
type Checker struct {
	st       symtab.SymbolTable
	declared map[string]*types.Type
	maybe    map[string]*types.Type
}

// New creates a Checker for st
func New(st symtab.SymbolTable) *Checker {
	return &Checker{
		st:       st,
		declared: make(map[string]*types.Type),
		maybe:    make(map[string]*types.Type),
	}
}

// Check annotates prog in place and returns it
func Check(prog *parser.Program, st symtab.SymbolTable) (*parser.Program, error) {
	if _, err := parser.Walk[*types.Type](New(st), prog); err != nil {
		return nil, err
	}
	return prog, nil
}

func semanticError(kind types.ErrorKind, n parser.Node, format string, args ...interface{}) error {
	pos := n.Position()
	return types.Errorf(kind, pos.Line, pos.Column, format, args...)
}

func illegal(n parser.Node, format string, args ...interface{}) error {
	return semanticError(types.ERR_ILLEGAL_TYPE, n, format, args...)
}

func (c *Checker) walk(n parser.Node) (*types.Type, error) {
	return parser.Walk[*types.Type](c, n)
}

func (c *Checker) lookup(name string) (*types.Type, bool) {
	if t, ok := c.declared[name]; ok {
		return t, true
	}
	return c.st.Lookup(name)
}

// conditional walks e on a path that may not run and returns the variables
// it declared. Those declarations are rolled back.
func (c *Checker) conditional(e parser.Expr) (*types.Type, map[string]*types.Type, error) {
	before := make(map[string]*types.Type, len(c.declared))
	for k, v := range c.declared {
		before[k] = v
	}
	t, err := c.walk(e)
	if err != nil {
		return nil, nil, err
	}
	added := make(map[string]*types.Type)
	for k, v := range c.declared {
		if _, ok := before[k]; !ok {
			added[k] = v
		}
	}
	c.declared = before
	return t, added, nil
}

// mayDeclare records variables that exist only on some paths
func (c *Checker) mayDeclare(n parser.Node, vars map[string]*types.Type) error {
	for name, t := range vars {
		if prev, ok := c.maybe[name]; ok && prev != t {
			return illegal(n, "%s is assigned both %s and %s", name, prev, t)
		}
		c.maybe[name] = t
	}
	return nil
}

func (c *Checker) VisitProgram(n *parser.Program) (*types.Type, error) {
	var last *types.Type
	for _, s := range n.Statements {
		t, err := c.walk(s)
		if err != nil {
			return nil, err
		}
		last = t
	}
	n.SetType(last)
	return last, nil
}

func (c *Checker) VisitLiteral(n *parser.LiteralExpr) (*types.Type, error) {
	t := types.TypeOf(n.Value)
	n.SetType(t)
	return t, nil
}

func (c *Checker) VisitIdentifier(n *parser.IdentifierExpr) (*types.Type, error) {
	t, ok := c.lookup(n.Name)
	if !ok {
		return nil, semanticError(types.ERR_UNKNOWN_VARIABLE, n, "unknown variable %s", n.Name)
	}
	n.SetType(t)
	return t, nil
}

func (c *Checker) VisitUnary(n *parser.UnaryExpr) (*types.Type, error) {
	t, err := c.walk(n.Operand)
	if err != nil {
		return nil, err
	}
	switch n.Operator {
	case parser.TOKEN_MINUS:
		if t == nil {
			return nil, illegal(n, "cannot negate null")
		}
		if !t.IsNumeric() {
			return nil, illegal(n, "cannot negate %s", t)
		}
	case parser.TOKEN_NOT:
		if t != nil && t != types.Boolean {
			return nil, illegal(n, "operand of ! must be Boolean, got %s", t)
		}
		t = types.Boolean
	default:
		return nil, illegal(n, "unknown unary operator %s", n.Operator.Symbol())
	}
	n.SetType(t)
	return t, nil
}

func (c *Checker) VisitBinary(n *parser.BinaryExpr) (*types.Type, error) {
	lt, err := c.walk(n.Left)
	if err != nil {
		return nil, err
	}
	var rt *types.Type
	if n.Operator == parser.TOKEN_AND || n.Operator == parser.TOKEN_OR {
		var added map[string]*types.Type
		if rt, added, err = c.conditional(n.Right); err != nil {
			return nil, err
		}
		if err := c.mayDeclare(n.Right, added); err != nil {
			return nil, err
		}
	} else if rt, err = c.walk(n.Right); err != nil {
		return nil, err
	}

	var t *types.Type
	switch n.Operator {
	case parser.TOKEN_PLUS, parser.TOKEN_MINUS, parser.TOKEN_STAR, parser.TOKEN_SLASH, parser.TOKEN_PERCENT, parser.TOKEN_CARET:
		t, err = arithmeticType(n, lt, rt)
	case parser.TOKEN_EQ, parser.TOKEN_NE, parser.TOKEN_LT, parser.TOKEN_LE, parser.TOKEN_GT, parser.TOKEN_GE:
		if !types.Comparable(lt, rt) {
			err = illegal(n, "cannot compare %s %s %s", lt, n.Operator.Symbol(), rt)
		}
		t = types.Boolean
	case parser.TOKEN_AND, parser.TOKEN_OR:
		if (lt != nil && lt != types.Boolean) || (rt != nil && rt != types.Boolean) {
			err = illegal(n, "operands of %s must be Boolean, got %s and %s", n.Operator.Symbol(), lt, rt)
		}
		t = types.Boolean
	default:
		err = illegal(n, "unknown binary operator %s", n.Operator.Symbol())
	}
	if err != nil {
		return nil, err
	}
	n.SetType(t)
	return t, nil
}

// arithmeticType applies numeric promotion. One operand may be null, in
// which case the other decides the type.
func arithmeticType(n *parser.BinaryExpr, lt, rt *types.Type) (*types.Type, error) {
	if lt == nil && rt == nil {
		return nil, illegal(n, "cannot infer type of null %s null", n.Operator.Symbol())
	}
	if (lt != nil && !lt.IsNumeric()) || (rt != nil && !rt.IsNumeric()) {
		return nil, illegal(n, "operator %s needs numeric operands, got %s and %s", n.Operator.Symbol(), lt, rt)
	}
	if n.Operator == parser.TOKEN_SLASH || n.Operator == parser.TOKEN_CARET {
		return types.Decimal, nil
	}
	if lt == types.Decimal || rt == types.Decimal {
		return types.Decimal, nil
	}
	return types.Integer, nil
}

func (c *Checker) VisitTernary(n *parser.TernaryExpr) (*types.Type, error) {
	ct, err := c.walk(n.Condition)
	if err != nil {
		return nil, err
	}
	if ct != nil && ct != types.Boolean {
		return nil, illegal(n.Condition, "condition must be Boolean, got %s", ct)
	}
	tt, thenVars, err := c.conditional(n.ThenExpr)
	if err != nil {
		return nil, err
	}
	et, elseVars, err := c.conditional(n.ElseExpr)
	if err != nil {
		return nil, err
	}
	for name, vt := range thenVars {
		if other, ok := elseVars[name]; ok {
			if other != vt {
				return nil, illegal(n, "%s is assigned %s and %s in the branches", name, vt, other)
			}
			c.declared[name] = vt
			delete(thenVars, name)
			delete(elseVars, name)
		}
	}
	if err := c.mayDeclare(n.ThenExpr, thenVars); err != nil {
		return nil, err
	}
	if err := c.mayDeclare(n.ElseExpr, elseVars); err != nil {
		return nil, err
	}
	t, ok := types.Common(tt, et)
	if !ok {
		if tt == nil && et == nil {
			return nil, illegal(n, "cannot infer type of a ternary with two null branches")
		}
		return nil, illegal(n, "ternary branches have incompatible types %s and %s", tt, et)
	}
	n.SetType(t)
	return t, nil
}

func (c *Checker) VisitAssign(n *parser.AssignExpr) (*types.Type, error) {
	vt, err := c.walk(n.Value)
	if err != nil {
		return nil, err
	}
	if declared, ok := c.lookup(n.Name); ok {
		if !types.Assignable(declared, vt) {
			return nil, illegal(n, "cannot assign %s to %s of type %s", vt, n.Name, declared)
		}
		n.SetType(declared)
		return declared, nil
	}
	if maybe, ok := c.maybe[n.Name]; ok {
		if !types.Assignable(maybe, vt) {
			return nil, illegal(n, "cannot assign %s to %s of type %s", vt, n.Name, maybe)
		}
		c.declared[n.Name] = maybe
		n.SetType(maybe)
		return maybe, nil
	}
	if vt == nil {
		return nil, illegal(n, "cannot infer type of %s from null", n.Name)
	}
	c.declared[n.Name] = vt
	n.SetType(vt)
	return vt, nil
}

func (c *Checker) VisitCall(n *parser.CallExpr) (*types.Type, error) {
	fn, ok := c.st.Function(n.Name)
	if !ok {
		return nil, semanticError(types.ERR_UNKNOWN_FUNCTION, n, "unknown function %s", n.Name)
	}
	argTypes, err := parser.WalkAll[*types.Type](c, n.Args)
	if err != nil {
		return nil, err
	}
	sig := fn.Signature()
	if !sig.Accepts(argTypes) {
		names := make([]string, len(argTypes))
		for i, t := range argTypes {
			names[i] = t.String()
		}
		return nil, semanticError(types.ERR_UNKNOWN_FUNCTION, n, "%s%s cannot be called with (%s)",
			n.Name, sig, strings.Join(names, ", "))
	}
	t := fn.ReturnType()
	n.SetType(t)
	return t, nil
}

func (c *Checker) VisitIndex(n *parser.IndexExpr) (*types.Type, error) {
	at, err := c.walk(n.Expr)
	if err != nil {
		return nil, err
	}
	it, err := c.walk(n.Index)
	if err != nil {
		return nil, err
	}
	if !at.IsArray() {
		return nil, illegal(n, "cannot index %s", at)
	}
	if it != nil && it != types.Integer {
		return nil, illegal(n.Index, "index must be Integer, got %s", it)
	}
	t := at.Elem()
	n.SetType(t)
	return t, nil
}

func (c *Checker) VisitArray(n *parser.ArrayExpr) (*types.Type, error) {
	elemTypes, err := parser.WalkAll[*types.Type](c, n.Elements)
	if err != nil {
		return nil, err
	}
	var elem *types.Type
	for i, t := range elemTypes {
		common, ok := types.Common(elem, t)
		if !ok && (elem != nil || t != nil) {
			return nil, illegal(n.Elements[i], "array element has type %s, want %s", t, elem)
		}
		elem = common
	}
	if elem == nil {
		return nil, illegal(n, "cannot infer element type of array literal")
	}
	t, err := elem.ArrayOf()
	if err != nil {
		return nil, illegal(n, "%v", err)
	}
	n.SetType(t)
	return t, nil
}

func (c *Checker) VisitCast(n *parser.CastExpr) (*types.Type, error) {
	inner, err := c.walk(n.Expr)
	if err != nil {
		return nil, err
	}
	if !types.Assignable(n.Type(), inner) {
		return nil, illegal(n, "cannot convert %s to %s", inner, n.Type())
	}
	return n.Type(), nil
}
