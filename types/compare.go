package types

import (
	"fmt"
	"strings"
)

// CompareOp is a comparison operator
type CompareOp int

const (
	CMP_EQ CompareOp = iota
	CMP_NE
	CMP_LT
	CMP_LE
	CMP_GT
	CMP_GE
)

// String returns the operator symbol
func (op CompareOp) String() string {
	switch op {
	case CMP_EQ:
		return "=="
	case CMP_NE:
		return "!="
	case CMP_LT:
		return "<"
	case CMP_LE:
		return "<="
	case CMP_GT:
		return ">"
	case CMP_GE:
		return ">="
	default:
		return "?"
	}
}

// IsEquality reports whether op is == or !=
func (op CompareOp) IsEquality() bool {
	return op == CMP_EQ || op == CMP_NE
}

// Compare applies op with three-valued null semantics:
//   - null == null is true, null == x is false, and != is the negation;
//   - an ordering comparison with a null operand is indeterminate (null).
func Compare(op CompareOp, a, b Value) (Value, error) {
	if op.IsEquality() {
		var eq bool
		if a == nil || b == nil {
			eq = a == nil && b == nil
		} else {
			var err error
			if eq, err = equalValues(a, b); err != nil {
				return nil, err
			}
		}
		if op == CMP_NE {
			eq = !eq
		}
		return BoolValue{Val: eq}, nil
	}

	if a == nil || b == nil {
		return nil, nil
	}
	c, err := Order(a, b)
	if err != nil {
		return nil, err
	}
	switch op {
	case CMP_LT:
		return BoolValue{Val: c < 0}, nil
	case CMP_LE:
		return BoolValue{Val: c <= 0}, nil
	case CMP_GT:
		return BoolValue{Val: c > 0}, nil
	case CMP_GE:
		return BoolValue{Val: c >= 0}, nil
	}
	return nil, fmt.Errorf("%w: unknown comparison %d", ErrType, int(op))
}

func equalValues(a, b Value) (bool, error) {
	if a.Type().IsNumeric() && b.Type().IsNumeric() {
		c, err := Order(a, b)
		return c == 0, err
	}
	if a.Type() != b.Type() {
		return false, fmt.Errorf("%w: cannot compare %s with %s", ErrType, a.Type(), b.Type())
	}
	return a.Equal(b), nil
}

// Order returns -1, 0 or 1 for two non-null comparable scalars
func Order(a, b Value) (int, error) {
	switch x := a.(type) {
	case IntValue:
		if y, ok := b.(IntValue); ok {
			switch {
			case x.Val < y.Val:
				return -1, nil
			case x.Val > y.Val:
				return 1, nil
			}
			return 0, nil
		}
	case StrValue:
		if y, ok := b.(StrValue); ok {
			return strings.Compare(x.Val, y.Val), nil
		}
	case BoolValue:
		if y, ok := b.(BoolValue); ok {
			switch {
			case x.Val == y.Val:
				return 0, nil
			case !x.Val:
				return -1, nil
			}
			return 1, nil
		}
	case DateValue:
		if y, ok := b.(DateValue); ok {
			return x.Val.Compare(y.Val), nil
		}
	}
	if a.Type().IsNumeric() && b.Type().IsNumeric() {
		x, _ := ToDecimal(a)
		y, _ := ToDecimal(b)
		return x.Decimal().Cmp(y.Decimal()), nil
	}
	return 0, fmt.Errorf("%w: cannot order %s and %s", ErrType, a.Type(), b.Type())
}

// ============================================================================
// KLEENE LOGIC
// ============================================================================

// IsTrue reports whether v is the Boolean true (null is not true)
func IsTrue(v Value) bool {
	b, ok := v.(BoolValue)
	return ok && b.Val
}

// IsFalse reports whether v is the Boolean false (null is not false)
func IsFalse(v Value) bool {
	b, ok := v.(BoolValue)
	return ok && !b.Val
}

func checkLogical(v Value) error {
	if v == nil {
		return nil
	}
	if _, ok := v.(BoolValue); !ok {
		return fmt.Errorf("%w: logical operand must be Boolean, got %s", ErrType, v.Type())
	}
	return nil
}

// Not negates a Boolean; !null is null
func Not(v Value) (Value, error) {
	if err := checkLogical(v); err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return BoolValue{Val: !IsTrue(v)}, nil
}

// And combines two evaluated operands: false wins, then null, then true
func And(a, b Value) (Value, error) {
	if err := checkLogical(a); err != nil {
		return nil, err
	}
	if err := checkLogical(b); err != nil {
		return nil, err
	}
	switch {
	case IsFalse(a) || IsFalse(b):
		return False, nil
	case a == nil || b == nil:
		return nil, nil
	}
	return True, nil
}

// Or combines two evaluated operands: true wins, then null, then false
func Or(a, b Value) (Value, error) {
	if err := checkLogical(a); err != nil {
		return nil, err
	}
	if err := checkLogical(b); err != nil {
		return nil, err
	}
	switch {
	case IsTrue(a) || IsTrue(b):
		return True, nil
	case a == nil || b == nil:
		return nil, nil
	}
	return False, nil
}
