package builtins

import (
	"fmt"
	"time"

	"tally/types"
)

// ============================================================================
// DATE BUILTINS
// ============================================================================

func dateArg(args []types.Value, i int) time.Time {
	return args[i].(types.DateValue).Val
}

// builtinDate builds a date at midnight UTC
// date(Integer, Integer, Integer) -> Date
func builtinDate(args []types.Value) (types.Value, error) {
	y := args[0].(types.IntValue).Val
	m := args[1].(types.IntValue).Val
	d := args[2].(types.IntValue).Val
	if y < 1 || y > 9999 || m < 1 || m > 12 || d < 1 || d > 31 {
		return nil, fmt.Errorf("date: invalid date %d-%d-%d", y, m, d)
	}
	t := time.Date(int(y), time.Month(m), int(d), 0, 0, 0, 0, time.UTC)
	if t.Day() != int(d) {
		return nil, fmt.Errorf("date: invalid date %d-%d-%d", y, m, d)
	}
	return types.NewDate(t), nil
}

// year(Date) -> Integer
func builtinYear(args []types.Value) (types.Value, error) {
	return types.NewInt(int64(dateArg(args, 0).Year())), nil
}

// month(Date) -> Integer
func builtinMonth(args []types.Value) (types.Value, error) {
	return types.NewInt(int64(dateArg(args, 0).Month())), nil
}

// day(Date) -> Integer
func builtinDay(args []types.Value) (types.Value, error) {
	return types.NewInt(int64(dateArg(args, 0).Day())), nil
}

// builtinDaysBetween counts whole days from the first date to the second
// days_between(Date, Date) -> Integer
func builtinDaysBetween(args []types.Value) (types.Value, error) {
	d := dateArg(args, 1).Sub(dateArg(args, 0))
	return types.NewInt(int64(d / (24 * time.Hour))), nil
}

// builtinNow returns the current time to the second
// now() -> Date
func (r *Registry) builtinNow(args []types.Value) (types.Value, error) {
	return types.NewDate(r.opts.Now().Truncate(time.Second)), nil
}
