package types

import (
	"fmt"
	"strconv"
)

// ToDecimal converts a numeric value to Decimal
func ToDecimal(v Value) (DecimalValue, error) {
	switch n := v.(type) {
	case DecimalValue:
		return n, nil
	case IntValue:
		return DecimalFromInt(n.Val), nil
	}
	return DecimalValue{}, fmt.Errorf("%w: %s is not numeric", ErrType, TypeOf(v))
}

// Coerce converts v to type t. Null stays null, values already of type t are
// returned unchanged, and Integer widens to Decimal, element-wise for arrays.
func Coerce(v Value, t *Type) (Value, error) {
	if v == nil || t == nil || v.Type() == t {
		return v, nil
	}
	if !Assignable(t, v.Type()) {
		return nil, fmt.Errorf("%w: cannot convert %s to %s", ErrType, v.Type(), t)
	}
	switch n := v.(type) {
	case IntValue:
		return DecimalFromInt(n.Val), nil
	case ArrayValue:
		elem := t.Elem()
		out := make([]Value, n.Len())
		for i, e := range n.Elements() {
			c, err := Coerce(e, elem)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return NewArray(t, out)
	}
	return nil, fmt.Errorf("%w: cannot convert %s to %s", ErrType, v.Type(), t)
}

// ParseScalar parses the text form of a scalar of type t: digits for
// Integer, a decimal number, raw text for String, true/false, or a date as
// accepted by ParseDate
func ParseScalar(t *Type, s string) (Value, error) {
	if t == nil || t.IsArray() {
		return nil, fmt.Errorf("%w: %s is not a scalar type", ErrType, t)
	}
	switch t.Kind() {
	case KIND_INTEGER:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid Integer %q", s)
		}
		return NewInt(i), nil
	case KIND_DECIMAL:
		return ParseDecimal(s)
	case KIND_STRING:
		return NewStr(s), nil
	case KIND_BOOLEAN:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("invalid Boolean %q", s)
		}
		return NewBool(b), nil
	case KIND_DATE:
		return ParseDate(s)
	}
	return nil, fmt.Errorf("%w: cannot parse %s", ErrType, t)
}
