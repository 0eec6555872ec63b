package builtins

import (
	"fmt"
	"math"

	"github.com/cockroachdb/apd/v3"

	"tally/types"
)

// ============================================================================
// MATH BUILTINS
// ============================================================================

func decimalArg(args []types.Value, i int) *apd.Decimal {
	return args[i].(types.DecimalValue).Decimal()
}

// builtinAbs returns absolute value
// abs(Decimal) -> Decimal
func builtinAbs(args []types.Value) (types.Value, error) {
	d := new(apd.Decimal)
	d.Abs(decimalArg(args, 0))
	return types.NewDecimal(d), nil
}

// builtinRound rounds to a number of places, half to even
// round(Decimal, Integer) -> Decimal
func builtinRound(args []types.Value) (types.Value, error) {
	places := args[1].(types.IntValue).Val
	if places < -100 || places > 100 {
		return nil, fmt.Errorf("round: places %d out of range", places)
	}
	d := new(apd.Decimal)
	if _, err := types.DecimalContext.Quantize(d, decimalArg(args, 0), int32(-places)); err != nil {
		return nil, fmt.Errorf("round: %w", err)
	}
	return types.NewDecimal(d), nil
}

func integral(name string, op func(d, x *apd.Decimal) (apd.Condition, error), x *apd.Decimal) (types.Value, error) {
	d := new(apd.Decimal)
	if _, err := op(d, x); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	i, err := types.NewDecimal(d).Int64()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return types.NewInt(i), nil
}

// builtinFloor rounds toward negative infinity
// floor(Decimal) -> Integer
func builtinFloor(args []types.Value) (types.Value, error) {
	return integral("floor", types.DecimalContext.Floor, decimalArg(args, 0))
}

// builtinCeil rounds toward positive infinity
// ceil(Decimal) -> Integer
func builtinCeil(args []types.Value) (types.Value, error) {
	return integral("ceil", types.DecimalContext.Ceil, decimalArg(args, 0))
}

func extreme(args []types.Value, want int) types.Value {
	best := args[0].(types.DecimalValue)
	for _, a := range args[1:] {
		d := a.(types.DecimalValue)
		if d.Decimal().Cmp(best.Decimal()) == want {
			best = d
		}
	}
	return best
}

// builtinMin returns the smallest value
// min(Decimal, Decimal...) -> Decimal
func builtinMin(args []types.Value) (types.Value, error) {
	return extreme(args, -1), nil
}

// builtinMax returns the largest value
// max(Decimal, Decimal...) -> Decimal
func builtinMax(args []types.Value) (types.Value, error) {
	return extreme(args, 1), nil
}

// builtinSum adds the non-null elements
// sum(Decimal[]) -> Decimal
func builtinSum(args []types.Value) (types.Value, error) {
	total := types.DecimalFromInt(0)
	for _, e := range args[0].(types.ArrayValue).Elements() {
		if e == nil {
			continue
		}
		var err error
		if total, err = types.DecAdd(total, e.(types.DecimalValue)); err != nil {
			return nil, err
		}
	}
	return total, nil
}

// builtinCount counts the non-null elements
// count(Decimal[]) -> Integer
func builtinCount(args []types.Value) (types.Value, error) {
	n := int64(0)
	for _, e := range args[0].(types.ArrayValue).Elements() {
		if e != nil {
			n++
		}
	}
	return types.NewInt(n), nil
}

// builtinCoalesce returns the first non-null argument
// coalesce(Decimal, Decimal...) -> Decimal
func builtinCoalesce(args []types.Value) (types.Value, error) {
	for _, a := range args {
		if a != nil {
			return a, nil
		}
	}
	return nil, nil
}

// builtinStr formats a number
// str(Decimal) -> String
func builtinStr(args []types.Value) (types.Value, error) {
	return types.NewStr(args[0].String()), nil
}

// builtinRandom returns a value in [0, 1) with nine digits
// random() -> Decimal
func (r *Registry) builtinRandom(args []types.Value) (types.Value, error) {
	n := r.opts.Rand.Int63n(int64(math.Pow10(9)))
	return types.NewDecimal(apd.New(n, -9)), nil
}
