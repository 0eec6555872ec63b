package builtins

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tally/symtab"
	"tally/types"
)

func call(t *testing.T, r *Registry, name string, args ...types.Value) types.Value {
	t.Helper()
	fn, ok := r.Get(name)
	require.True(t, ok, "function %s", name)
	v, err := symtab.Invoke(fn, args)
	require.NoError(t, err)
	return v
}

func TestBuiltins(t *testing.T) {
	r := NewRegistry()
	decArr, _ := types.Decimal.ArrayOf()
	nums, err := types.NewArray(decArr, []types.Value{types.MustDecimal("1.5"), nil, types.DecimalFromInt(2)})
	require.NoError(t, err)
	jan31 := types.NewDate(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	mar1 := types.NewDate(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		name string
		fn   string
		args []types.Value
		want string
	}{
		{"abs", "abs", []types.Value{types.MustDecimal("-2.5")}, "2.5"},
		{"abs of integer", "abs", []types.Value{types.NewInt(-3)}, "3"},
		{"round half even down", "round", []types.Value{types.MustDecimal("2.345"), types.NewInt(2)}, "2.34"},
		{"round half even up", "round", []types.Value{types.MustDecimal("2.355"), types.NewInt(2)}, "2.36"},
		{"round to integer", "round", []types.Value{types.MustDecimal("2.5"), types.NewInt(0)}, "2"},
		{"floor", "floor", []types.Value{types.MustDecimal("-1.5")}, "-2"},
		{"ceil", "ceil", []types.Value{types.MustDecimal("1.2")}, "2"},
		{"min", "min", []types.Value{types.NewInt(3), types.MustDecimal("1.5"), types.NewInt(2)}, "1.5"},
		{"max", "max", []types.Value{types.NewInt(3), types.MustDecimal("3.5")}, "3.5"},
		{"max single", "max", []types.Value{types.NewInt(7)}, "7"},
		{"sum skips null", "sum", []types.Value{nums}, "3.5"},
		{"count skips null", "count", []types.Value{nums}, "2"},
		{"coalesce", "coalesce", []types.Value{nil, nil, types.NewInt(4)}, "4"},
		{"str", "str", []types.Value{types.MustDecimal("1.50")}, "'1.5'"},
		{"len", "len", []types.Value{types.NewStr("été")}, "3"},
		{"concat", "concat", []types.Value{types.NewStr("a"), nil, types.NewStr("b")}, "'ab'"},
		{"concat none", "concat", nil, "''"},
		{"upper", "upper", []types.Value{types.NewStr("aap")}, "'AAP'"},
		{"lower", "lower", []types.Value{types.NewStr("AaP")}, "'aap'"},
		{"trim", "trim", []types.Value{types.NewStr("  x ")}, "'x'"},
		{"substr", "substr", []types.Value{types.NewStr("geen aap"), types.NewInt(5), types.NewInt(10)}, "'aap'"},
		{"date", "date", []types.Value{types.NewInt(2024), types.NewInt(2), types.NewInt(29)}, "#2024-02-29#"},
		{"year", "year", []types.Value{jan31}, "2024"},
		{"month", "month", []types.Value{jan31}, "1"},
		{"day", "day", []types.Value{jan31}, "31"},
		{"days_between", "days_between", []types.Value{jan31, mar1}, "30"},
		{"days_between backwards", "days_between", []types.Value{mar1, jan31}, "-30"},
		{"hash default", "hash", []types.Value{types.NewStr("abc")}, "'8eb208f7e05d987a9b044a8e98c6b087f15a0bfc'"},
		{"hash sha256", "hash", []types.Value{types.NewStr("abc"), types.NewStr("sha256")}, "'ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := call(t, r, tt.fn, tt.args...)
			require.Equal(t, tt.want, types.Format(v))
		})
	}
}

func TestBuiltinNullPropagation(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"abs", "floor", "str", "len", "upper", "year", "hash"} {
		require.Nil(t, call(t, r, name, nil), name)
	}
	require.Nil(t, call(t, r, "coalesce", nil, nil))
	require.Nil(t, call(t, r, "max", types.NewInt(1), nil))
}

func TestBuiltinErrors(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		fn   string
		args []types.Value
	}{
		{"date", []types.Value{types.NewInt(2023), types.NewInt(2), types.NewInt(29)}},
		{"date", []types.Value{types.NewInt(2023), types.NewInt(13), types.NewInt(1)}},
		{"substr", []types.Value{types.NewStr("abc"), types.NewInt(4), types.NewInt(1)}},
		{"substr", []types.Value{types.NewStr("abc"), types.NewInt(0), types.NewInt(-1)}},
		{"hash", []types.Value{types.NewStr("abc"), types.NewStr("crc32")}},
		{"floor", []types.Value{types.MustDecimal("1e30")}},
	}
	for _, tt := range tests {
		fn, _ := r.Get(tt.fn)
		_, err := symtab.Invoke(fn, tt.args)
		require.Error(t, err, "%s(%v)", tt.fn, tt.args)
	}
}

func TestImpureFunctions(t *testing.T) {
	clock := time.Date(2025, 6, 1, 12, 30, 15, 999, time.UTC)
	r := NewRegistryWith(Options{
		Now:  func() time.Time { return clock },
		Rand: rand.New(rand.NewSource(1)),
	})

	now, _ := r.Get("now")
	require.False(t, now.Pure())
	require.Equal(t, "#2025-06-01T12:30:15Z#", types.Format(call(t, r, "now")))

	random, _ := r.Get("random")
	require.False(t, random.Pure())
	v := call(t, r, "random").(types.DecimalValue)
	require.True(t, v.Decimal().Sign() >= 0)
	require.True(t, v.Decimal().Cmp(types.DecimalFromInt(1).Decimal()) < 0)

	abs, _ := r.Get("abs")
	require.True(t, abs.Pure())
}

func TestInstall(t *testing.T) {
	tab := symtab.NewTable()
	Register(tab)
	require.Equal(t, NewRegistry().Names(), tab.Functions())
	fn, ok := tab.Function("days_between")
	require.True(t, ok)
	require.Equal(t, types.Integer, fn.ReturnType())
}
