package types

import (
	"fmt"
	"math"

	"github.com/cockroachdb/apd/v3"
)

// ArithOp is an arithmetic operator
type ArithOp int

const (
	ARITH_ADD ArithOp = iota
	ARITH_SUB
	ARITH_MUL
	ARITH_DIV
	ARITH_REM
	ARITH_POW
)

// String returns the operator symbol
func (op ArithOp) String() string {
	switch op {
	case ARITH_ADD:
		return "+"
	case ARITH_SUB:
		return "-"
	case ARITH_MUL:
		return "*"
	case ARITH_DIV:
		return "/"
	case ARITH_REM:
		return "%"
	case ARITH_POW:
		return "^"
	default:
		return "?"
	}
}

// AlwaysDecimal reports whether op yields a Decimal even for Integer operands
func (op ArithOp) AlwaysDecimal() bool {
	return op == ARITH_DIV || op == ARITH_POW
}

// ============================================================================
// INTEGER PRIMITIVES
// ============================================================================

// IntAdd adds exactly, failing on int64 overflow
func IntAdd(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// IntSub subtracts exactly, failing on int64 overflow
func IntSub(a, b int64) (int64, error) {
	if (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b) {
		return 0, ErrOverflow
	}
	return a - b, nil
}

// IntMul multiplies exactly, failing on int64 overflow
func IntMul(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, ErrOverflow
	}
	c := a * b
	if c/b != a {
		return 0, ErrOverflow
	}
	return c, nil
}

// IntRem returns the truncated remainder; the result has the dividend's sign
func IntRem(a, b int64) (int64, error) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	return a % b, nil
}

// IntNeg negates, failing for math.MinInt64
func IntNeg(a int64) (int64, error) {
	if a == math.MinInt64 {
		return 0, ErrOverflow
	}
	return -a, nil
}

// ============================================================================
// DECIMAL PRIMITIVES
// ============================================================================

type decimalOp func(d, x, y *apd.Decimal) (apd.Condition, error)

func applyDecimal(op decimalOp, x, y DecimalValue) (DecimalValue, error) {
	d := new(apd.Decimal)
	if _, err := op(d, x.Decimal(), y.Decimal()); err != nil {
		return DecimalValue{}, fmt.Errorf("%w: %v", ErrDecimal, err)
	}
	return NewDecimal(d), nil
}

// DecAdd adds in DecimalContext
func DecAdd(x, y DecimalValue) (DecimalValue, error) {
	return applyDecimal(DecimalContext.Add, x, y)
}

// DecSub subtracts in DecimalContext
func DecSub(x, y DecimalValue) (DecimalValue, error) {
	return applyDecimal(DecimalContext.Sub, x, y)
}

// DecMul multiplies in DecimalContext
func DecMul(x, y DecimalValue) (DecimalValue, error) {
	return applyDecimal(DecimalContext.Mul, x, y)
}

// DecQuo divides in DecimalContext
func DecQuo(x, y DecimalValue) (DecimalValue, error) {
	if y.Decimal().IsZero() {
		return DecimalValue{}, ErrDivisionByZero
	}
	return applyDecimal(DecimalContext.Quo, x, y)
}

// DecRem returns the truncated remainder in DecimalContext
func DecRem(x, y DecimalValue) (DecimalValue, error) {
	if y.Decimal().IsZero() {
		return DecimalValue{}, ErrDivisionByZero
	}
	return applyDecimal(DecimalContext.Rem, x, y)
}

// DecPow raises x to the power y in DecimalContext
func DecPow(x, y DecimalValue) (DecimalValue, error) {
	if x.Decimal().IsZero() && y.Decimal().Sign() < 0 {
		return DecimalValue{}, ErrDivisionByZero
	}
	return applyDecimal(DecimalContext.Pow, x, y)
}

// DecNeg negates
func DecNeg(x DecimalValue) DecimalValue {
	d := new(apd.Decimal)
	d.Neg(x.Decimal())
	return NewDecimal(d)
}

// ============================================================================
// DYNAMIC OPERATORS
// ============================================================================

// Arith applies op with numeric promotion: Integer op Integer stays Integer
// for + - * %, anything involving a Decimal (and every / and ^) is computed
// in DecimalContext. A null operand yields null.
func Arith(op ArithOp, a, b Value) (Value, error) {
	if a == nil || b == nil {
		return nil, nil
	}
	if ai, ok := a.(IntValue); ok && !op.AlwaysDecimal() {
		if bi, ok := b.(IntValue); ok {
			return intArith(op, ai.Val, bi.Val)
		}
	}
	x, err := ToDecimal(a)
	if err != nil {
		return nil, err
	}
	y, err := ToDecimal(b)
	if err != nil {
		return nil, err
	}
	return DecArith(op, x, y)
}

func intArith(op ArithOp, a, b int64) (Value, error) {
	var (
		r   int64
		err error
	)
	switch op {
	case ARITH_ADD:
		r, err = IntAdd(a, b)
	case ARITH_SUB:
		r, err = IntSub(a, b)
	case ARITH_MUL:
		r, err = IntMul(a, b)
	case ARITH_REM:
		r, err = IntRem(a, b)
	default:
		return nil, fmt.Errorf("%w: %s is not an integer operator", ErrType, op)
	}
	if err != nil {
		return nil, err
	}
	return IntValue{Val: r}, nil
}

// DecArith applies op to two decimals
func DecArith(op ArithOp, x, y DecimalValue) (Value, error) {
	var (
		r   DecimalValue
		err error
	)
	switch op {
	case ARITH_ADD:
		r, err = DecAdd(x, y)
	case ARITH_SUB:
		r, err = DecSub(x, y)
	case ARITH_MUL:
		r, err = DecMul(x, y)
	case ARITH_DIV:
		r, err = DecQuo(x, y)
	case ARITH_REM:
		r, err = DecRem(x, y)
	case ARITH_POW:
		r, err = DecPow(x, y)
	default:
		return nil, fmt.Errorf("%w: unknown operator %d", ErrType, int(op))
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Negate implements unary minus. Null yields null.
func Negate(v Value) (Value, error) {
	switch n := v.(type) {
	case nil:
		return nil, nil
	case IntValue:
		r, err := IntNeg(n.Val)
		if err != nil {
			return nil, err
		}
		return IntValue{Val: r}, nil
	case DecimalValue:
		return DecNeg(n), nil
	default:
		return nil, fmt.Errorf("%w: cannot negate %s", ErrType, v.Type())
	}
}
