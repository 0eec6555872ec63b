package types

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"
)

// DecimalContext is the numeric context for all Decimal arithmetic:
// 34 significant digits, round half to even.
var DecimalContext = apd.Context{
	Precision:   34,
	MaxExponent: apd.MaxExponent,
	MinExponent: apd.MinExponent,
	Traps:       apd.DefaultTraps,
	Rounding:    apd.RoundHalfEven,
}

// DecimalValue represents a Decimal. The wrapped *apd.Decimal is never
// mutated after construction.
type DecimalValue struct {
	val *apd.Decimal
}

// NewDecimal wraps d, taking ownership of it. The value is reduced so equal
// numbers share one textual form.
func NewDecimal(d *apd.Decimal) DecimalValue {
	out := new(apd.Decimal)
	out.Reduce(d)
	if out.IsZero() {
		out = apd.New(0, 0)
	}
	return DecimalValue{val: out}
}

// DecimalFromInt converts an integer exactly
func DecimalFromInt(i int64) DecimalValue {
	return DecimalValue{val: apd.New(i, 0)}
}

// ParseDecimal parses a decimal literal such as "12.50"
func ParseDecimal(s string) (DecimalValue, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return DecimalValue{}, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	if d.Form != apd.Finite {
		return DecimalValue{}, fmt.Errorf("invalid decimal %q", s)
	}
	rounded := new(apd.Decimal)
	if _, err := DecimalContext.Round(rounded, d); err != nil {
		return DecimalValue{}, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	return NewDecimal(rounded), nil
}

// MustDecimal is ParseDecimal for constants known to be valid
func MustDecimal(s string) DecimalValue {
	d, err := ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Decimal returns the wrapped number. Callers must not modify it.
func (d DecimalValue) Decimal() *apd.Decimal {
	if d.val == nil {
		return apd.New(0, 0)
	}
	return d.val
}

// Type returns the Decimal type
func (d DecimalValue) Type() *Type {
	return Decimal
}

// String returns the plain (non-exponent) representation
func (d DecimalValue) String() string {
	return d.Decimal().Text('f')
}

// Equal compares numerically; 1.5 and 1.50 are equal
func (d DecimalValue) Equal(other Value) bool {
	o, ok := other.(DecimalValue)
	return ok && d.Decimal().Cmp(o.Decimal()) == 0
}

// Int64 truncates toward zero and converts to int64
func (d DecimalValue) Int64() (int64, error) {
	truncated := new(apd.Decimal)
	ctx := DecimalContext
	ctx.Rounding = apd.RoundDown
	if _, err := ctx.RoundToIntegralValue(truncated, d.Decimal()); err != nil {
		return 0, err
	}
	i, err := truncated.Int64()
	if err != nil {
		return 0, ErrOverflow
	}
	return i, nil
}
