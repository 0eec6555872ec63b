// Package script is the text backend. Emit lowers a checked tree into a
// JavaScript function over a small runtime shim; Host runs that text in an
// embedded goja runtime whose exact arithmetic comes from the types package.
package script

import (
	"encoding/json"
	"fmt"
	"strings"

	"tally/parser"
	"tally/symtab"
	"tally/types"
)

// Script is an emitted program. Source is a JavaScript function expression
// taking the constant table; the Prelude helpers and the host objects $int,
// $dec, $str, $date, $arr and $env must be in scope when it runs.
type Script struct {
	Source    string
	Constants []types.Value
	Result    *types.Type
}

// String returns the script text
func (s *Script) String() string {
	return s.Source
}

// Compute runs the script against st in a fresh host
func (s *Script) Compute(st symtab.SymbolTable) (types.Value, error) {
	return NewHost().Run(s, st)
}

// Emitter lowers nodes to JavaScript expressions
type Emitter struct {
	constants []types.Value
	index     map[string]int
}

// NewEmitter creates an emitter with an empty constant table
func NewEmitter() *Emitter {
	return &Emitter{index: make(map[string]int)}
}

// Emit lowers a checked program. Shapes the runtime shim cannot express are
// reported as ERR_TRANSLATION.
func Emit(prog *parser.Program) (*Script, error) {
	if prog == nil {
		return nil, parser.UnknownNode(nil)
	}
	e := NewEmitter()
	src, err := parser.Walk[string](e, prog)
	if err != nil {
		return nil, err
	}
	return &Script{Source: src, Constants: e.constants, Result: prog.Type()}, nil
}

func (e *Emitter) expr(n parser.Expr) (string, error) {
	return parser.Walk[string](e, n)
}

func (e *Emitter) constant(v types.Value) string {
	key := v.Type().String() + ":" + v.String()
	idx, ok := e.index[key]
	if !ok {
		idx = len(e.constants)
		e.constants = append(e.constants, v)
		e.index[key] = idx
	}
	return fmt.Sprintf("$k[%d]", idx)
}

func translationError(n parser.Node, format string, args ...interface{}) error {
	pos := n.Position()
	return types.Errorf(types.ERR_TRANSLATION, pos.Line, pos.Column, format, args...)
}

func typed(n parser.Expr) (*types.Type, error) {
	if t := n.Type(); t != nil {
		return t, nil
	}
	return nil, translationError(n, "untyped %T", n)
}

// at renders the position arguments passed to operations that may fail
func at(n parser.Node) string {
	pos := n.Position()
	return fmt.Sprintf("%d, %d", pos.Line, pos.Column)
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// convert wraps src, of static type from, so that it yields type to
func convert(n parser.Node, src string, from, to *types.Type) (string, error) {
	if from == nil || to == nil || from == to {
		return src, nil
	}
	if from == types.Integer && to == types.Decimal {
		return "$rt.toDec(" + src + ")", nil
	}
	if !types.Assignable(to, from) {
		return "", translationError(n, "cannot convert %s to %s", from, to)
	}
	return fmt.Sprintf("$rt.coerce(%s, %s)", src, quote(to.String())), nil
}

func (e *Emitter) VisitProgram(n *parser.Program) (string, error) {
	var sb strings.Builder
	sb.WriteString("(function ($k) {\n\tvar $v = null;\n")
	for i, stmt := range n.Statements {
		src, err := e.expr(stmt)
		if err != nil {
			return "", err
		}
		if i == len(n.Statements)-1 {
			if src, err = convert(stmt, src, stmt.Type(), n.Type()); err != nil {
				return "", err
			}
		}
		fmt.Fprintf(&sb, "\t$v = %s;\n", src)
	}
	sb.WriteString("\treturn $v;\n})")
	return sb.String(), nil
}

func (e *Emitter) VisitLiteral(n *parser.LiteralExpr) (string, error) {
	if n.Value == nil {
		return "null", nil
	}
	t, err := typed(n)
	if err != nil {
		return "", err
	}
	v, err := types.Coerce(n.Value, t)
	if err != nil {
		return "", translationError(n, "%v", err)
	}
	switch x := v.(type) {
	case types.BoolValue:
		if x.Val {
			return "true", nil
		}
		return "false", nil
	case types.StrValue:
		return quote(x.Val), nil
	}
	return e.constant(v), nil
}

func (e *Emitter) VisitIdentifier(n *parser.IdentifierExpr) (string, error) {
	if _, err := typed(n); err != nil {
		return "", err
	}
	return fmt.Sprintf("$env.get(%s, %s)", quote(n.Name), at(n)), nil
}

// kind names the runtime representation the shim dispatches on
func kind(t *types.Type) (string, bool) {
	if t == nil || t.IsArray() {
		return "", false
	}
	switch t.Kind() {
	case types.KIND_INTEGER:
		return "int", true
	case types.KIND_DECIMAL:
		return "dec", true
	case types.KIND_STRING:
		return "str", true
	case types.KIND_BOOLEAN:
		return "bool", true
	case types.KIND_DATE:
		return "date", true
	}
	return "", false
}

func (e *Emitter) VisitUnary(n *parser.UnaryExpr) (string, error) {
	t, err := typed(n)
	if err != nil {
		return "", err
	}
	operand, err := e.expr(n.Operand)
	if err != nil {
		return "", err
	}
	switch n.Operator {
	case parser.TOKEN_NOT:
		return "$rt.not(" + operand + ")", nil
	case parser.TOKEN_MINUS:
		k, ok := kind(t)
		if !ok || (k != "int" && k != "dec") {
			break
		}
		if operand, err = convert(n, operand, n.Operand.Type(), t); err != nil {
			return "", err
		}
		return fmt.Sprintf("$rt.neg(%q, %s, %s)", k, operand, at(n)), nil
	}
	return "", translationError(n, "no script operation for %s on %s", n.Operator.Symbol(), t)
}

var (
	arithNames = map[types.ArithOp]string{
		types.ARITH_ADD: "add",
		types.ARITH_SUB: "sub",
		types.ARITH_MUL: "mul",
		types.ARITH_DIV: "div",
		types.ARITH_REM: "rem",
		types.ARITH_POW: "pow",
	}
	compareNames = map[types.CompareOp]string{
		types.CMP_EQ: "eq",
		types.CMP_NE: "ne",
		types.CMP_LT: "lt",
		types.CMP_LE: "le",
		types.CMP_GT: "gt",
		types.CMP_GE: "ge",
	}
)

func (e *Emitter) VisitBinary(n *parser.BinaryExpr) (string, error) {
	t, err := typed(n)
	if err != nil {
		return "", err
	}
	left, err := e.expr(n.Left)
	if err != nil {
		return "", err
	}
	right, err := e.expr(n.Right)
	if err != nil {
		return "", err
	}

	switch n.Operator {
	case parser.TOKEN_AND:
		return fmt.Sprintf("$rt.and(%s, function () { return %s; })", left, right), nil
	case parser.TOKEN_OR:
		return fmt.Sprintf("$rt.or(%s, function () { return %s; })", left, right), nil
	}

	if a, ok := n.Operator.Arith(); ok {
		k, ok := kind(t)
		if !ok || (k != "int" && k != "dec") || (k == "int" && a.AlwaysDecimal()) {
			return "", translationError(n, "no script operation for %s on %s", a, t)
		}
		if left, err = convert(n.Left, left, n.Left.Type(), t); err != nil {
			return "", err
		}
		if right, err = convert(n.Right, right, n.Right.Type(), t); err != nil {
			return "", err
		}
		return fmt.Sprintf("$rt.%s(%q, %s, %s, %s)", k, arithNames[a], left, right, at(n)), nil
	}

	if c, ok := n.Operator.Compare(); ok {
		lt, rt := n.Left.Type(), n.Right.Type()
		common, ok := types.Common(lt, rt)
		if !ok && (lt != nil || rt != nil) {
			return "", translationError(n, "cannot compare %s and %s", lt, rt)
		}
		k := "null"
		if common != nil {
			if k, ok = kind(common); !ok {
				return "", translationError(n, "cannot compare %s", common)
			}
		}
		if left, err = convert(n.Left, left, lt, common); err != nil {
			return "", err
		}
		if right, err = convert(n.Right, right, rt, common); err != nil {
			return "", err
		}
		return fmt.Sprintf("$rt.cmp(%q, %q, %s, %s)", compareNames[c], k, left, right), nil
	}

	return "", translationError(n, "no script operation for operator %s", n.Operator.Symbol())
}

// VisitTernary takes the else branch for a false or null condition
func (e *Emitter) VisitTernary(n *parser.TernaryExpr) (string, error) {
	t, err := typed(n)
	if err != nil {
		return "", err
	}
	cond, err := e.expr(n.Condition)
	if err != nil {
		return "", err
	}
	then, err := e.expr(n.ThenExpr)
	if err != nil {
		return "", err
	}
	if then, err = convert(n.ThenExpr, then, n.ThenExpr.Type(), t); err != nil {
		return "", err
	}
	els, err := e.expr(n.ElseExpr)
	if err != nil {
		return "", err
	}
	if els, err = convert(n.ElseExpr, els, n.ElseExpr.Type(), t); err != nil {
		return "", err
	}
	return fmt.Sprintf("(%s === true ? %s : %s)", cond, then, els), nil
}

func (e *Emitter) VisitAssign(n *parser.AssignExpr) (string, error) {
	t, err := typed(n)
	if err != nil {
		return "", err
	}
	value, err := e.expr(n.Value)
	if err != nil {
		return "", err
	}
	if value, err = convert(n, value, n.Value.Type(), t); err != nil {
		return "", err
	}
	return fmt.Sprintf("$env.set(%s, %s, %s, %s)", quote(n.Name), quote(t.String()), value, at(n)), nil
}

func (e *Emitter) VisitCall(n *parser.CallExpr) (string, error) {
	if _, err := typed(n); err != nil {
		return "", err
	}
	args := make([]string, len(n.Args))
	for i, arg := range n.Args {
		src, err := e.expr(arg)
		if err != nil {
			return "", err
		}
		args[i] = src
	}
	return fmt.Sprintf("$env.call(%s, [%s], %s)", quote(n.Name), strings.Join(args, ", "), at(n)), nil
}

// VisitIndex reports failures at the index expression
func (e *Emitter) VisitIndex(n *parser.IndexExpr) (string, error) {
	if _, err := typed(n); err != nil {
		return "", err
	}
	coll, err := e.expr(n.Expr)
	if err != nil {
		return "", err
	}
	idx, err := e.expr(n.Index)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("$rt.index(%s, %s, %s)", coll, idx, at(n.Index)), nil
}

func (e *Emitter) VisitArray(n *parser.ArrayExpr) (string, error) {
	t, err := typed(n)
	if err != nil {
		return "", err
	}
	if !t.IsArray() {
		return "", translationError(n, "array literal has type %s", t)
	}
	elems := make([]string, len(n.Elements))
	for i, el := range n.Elements {
		src, err := e.expr(el)
		if err != nil {
			return "", err
		}
		if elems[i], err = convert(el, src, el.Type(), t.Elem()); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("$arr.make(%s, [%s])", quote(t.String()), strings.Join(elems, ", ")), nil
}

func (e *Emitter) VisitCast(n *parser.CastExpr) (string, error) {
	t, err := typed(n)
	if err != nil {
		return "", err
	}
	inner, err := e.expr(n.Expr)
	if err != nil {
		return "", err
	}
	return convert(n, inner, n.Expr.Type(), t)
}
