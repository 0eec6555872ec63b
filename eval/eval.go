// Package eval is the tree-walking interpreter. It runs a checked program
// directly against a live symbol table.
package eval

import (
	"errors"
	"fmt"

	"tally/parser"
	"tally/symtab"
	"tally/trace"
	"tally/types"
)

// Evaluator walks the AST and evaluates it against a symbol table
type Evaluator struct {
	st     symtab.SymbolTable
	tracer *trace.Tracer
}

// NewEvaluator creates an evaluator over st
func NewEvaluator(st symtab.SymbolTable) *Evaluator {
	return &Evaluator{st: st}
}

// WithTracer records assignments and calls on t
func (e *Evaluator) WithTracer(t *trace.Tracer) *Evaluator {
	e.tracer = t
	return e
}

// Evaluate runs prog against st and returns the value of its last statement
func Evaluate(prog *parser.Program, st symtab.SymbolTable) (types.Value, error) {
	return NewEvaluator(st).Eval(prog)
}

// Eval evaluates a node. Every failure is an *types.Error; failures of the
// value operations become ERR_RUNTIME at the position of the failing node.
func (e *Evaluator) Eval(node parser.Node) (types.Value, error) {
	return parser.Walk[types.Value](e, node)
}

func runtimeError(n parser.Node, err error) error {
	var te *types.Error
	if errors.As(err, &te) {
		return err
	}
	pos := n.Position()
	return types.WrapError(types.ERR_RUNTIME, pos.Line, pos.Column, err)
}

// convert coerces v to the checked type of n
func convert(n parser.Node, v types.Value) (types.Value, error) {
	out, err := types.Coerce(v, n.Type())
	if err != nil {
		return nil, runtimeError(n, err)
	}
	return out, nil
}

func (e *Evaluator) VisitProgram(n *parser.Program) (types.Value, error) {
	var last types.Value
	for i, stmt := range n.Statements {
		v, err := e.Eval(stmt)
		if err != nil {
			return nil, err
		}
		e.tracer.Statement(i, v)
		last = v
	}
	return last, nil
}

// VisitLiteral returns the literal's value. Folded literals may carry a
// wider slot type than their value.
func (e *Evaluator) VisitLiteral(n *parser.LiteralExpr) (types.Value, error) {
	return convert(n, n.Value)
}

func (e *Evaluator) VisitIdentifier(n *parser.IdentifierExpr) (types.Value, error) {
	v, err := e.st.Get(n.Name)
	if err != nil {
		return nil, runtimeError(n, err)
	}
	return v, nil
}

func (e *Evaluator) VisitUnary(n *parser.UnaryExpr) (types.Value, error) {
	operand, err := e.Eval(n.Operand)
	if err != nil {
		return nil, err
	}
	v, err := Unary(n.Operator, operand)
	if err != nil {
		return nil, runtimeError(n, err)
	}
	return v, nil
}

// VisitBinary evaluates both operands left to right, except that && and
// || skip the right operand when the left one decides the result
func (e *Evaluator) VisitBinary(n *parser.BinaryExpr) (types.Value, error) {
	left, err := e.Eval(n.Left)
	if err != nil {
		return nil, err
	}
	if n.Operator.IsLogical() {
		if v, ok := ShortCircuit(n.Operator, left); ok {
			return v, nil
		}
	}
	right, err := e.Eval(n.Right)
	if err != nil {
		return nil, err
	}
	v, err := Binary(n.Operator, left, right)
	if err != nil {
		return nil, runtimeError(n, err)
	}
	return v, nil
}

// VisitTernary takes the else branch for a false or null condition
func (e *Evaluator) VisitTernary(n *parser.TernaryExpr) (types.Value, error) {
	cond, err := e.Eval(n.Condition)
	if err != nil {
		return nil, err
	}
	branch := n.ElseExpr
	if types.IsTrue(cond) {
		branch = n.ThenExpr
	}
	v, err := e.Eval(branch)
	if err != nil {
		return nil, err
	}
	return convert(n, v)
}

func (e *Evaluator) VisitAssign(n *parser.AssignExpr) (types.Value, error) {
	v, err := e.Eval(n.Value)
	if err != nil {
		return nil, err
	}
	if v, err = convert(n, v); err != nil {
		return nil, err
	}
	if err := e.st.Set(n.Name, n.Type(), v); err != nil {
		return nil, runtimeError(n, err)
	}
	e.tracer.Assign(n.Name, n.Type(), v)
	return v, nil
}

func (e *Evaluator) VisitCall(n *parser.CallExpr) (types.Value, error) {
	fn, ok := e.st.Function(n.Name)
	if !ok {
		return nil, runtimeError(n, fmt.Errorf("unknown function %s", n.Name))
	}
	args, err := parser.WalkAll[types.Value](e, n.Args)
	if err != nil {
		return nil, err
	}
	v, err := symtab.Invoke(fn, args)
	e.tracer.Call(n.Name, args, v, err)
	if err != nil {
		return nil, runtimeError(n, err)
	}
	return v, nil
}

// VisitIndex reports an out-of-range index at the index expression
func (e *Evaluator) VisitIndex(n *parser.IndexExpr) (types.Value, error) {
	coll, err := e.Eval(n.Expr)
	if err != nil {
		return nil, err
	}
	idx, err := e.Eval(n.Index)
	if err != nil {
		return nil, err
	}
	v, err := types.Index(coll, idx)
	if errors.Is(err, types.ErrIndexOutOfRange) {
		return nil, runtimeError(n.Index, err)
	}
	if err != nil {
		return nil, runtimeError(n, err)
	}
	return v, nil
}

func (e *Evaluator) VisitArray(n *parser.ArrayExpr) (types.Value, error) {
	if !n.Type().IsArray() {
		return nil, runtimeError(n, fmt.Errorf("%w: array literal has type %s", types.ErrType, n.Type()))
	}
	elems, err := parser.WalkAll[types.Value](e, n.Elements)
	if err != nil {
		return nil, err
	}
	elemType := n.Type().Elem()
	for i, v := range elems {
		if elems[i], err = types.Coerce(v, elemType); err != nil {
			return nil, runtimeError(n.Elements[i], err)
		}
	}
	arr, err := types.NewArray(n.Type(), elems)
	if err != nil {
		return nil, runtimeError(n, err)
	}
	return arr, nil
}

func (e *Evaluator) VisitCast(n *parser.CastExpr) (types.Value, error) {
	v, err := e.Eval(n.Expr)
	if err != nil {
		return nil, err
	}
	return convert(n, v)
}
