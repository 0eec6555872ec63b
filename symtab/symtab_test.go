package symtab

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"tally/types"
)

func TestSignatureAccepts(t *testing.T) {
	decArr, _ := types.Decimal.ArrayOf()
	intArr, _ := types.Integer.ArrayOf()
	tests := []struct {
		name string
		sig  Signature
		args []*types.Type
		want bool
	}{
		{"exact", Sig(types.Decimal, types.Integer), []*types.Type{types.Decimal, types.Integer}, true},
		{"widening", Sig(types.Decimal), []*types.Type{types.Integer}, true},
		{"null argument", Sig(types.String), []*types.Type{nil}, true},
		{"too few", Sig(types.Decimal, types.Integer), []*types.Type{types.Decimal}, false},
		{"too many", Sig(types.Decimal), []*types.Type{types.Decimal, types.Decimal}, false},
		{"wrong type", Sig(types.Integer), []*types.Type{types.Decimal}, false},
		{"variadic none", VarSig(types.String), nil, true},
		{"variadic many", VarSig(types.Decimal, types.Decimal), []*types.Type{types.Integer, types.Decimal, types.Integer}, true},
		{"variadic needs fixed part", VarSig(types.Date, types.Decimal), nil, false},
		{"variadic bad trailing", VarSig(types.Decimal), []*types.Type{types.Decimal, types.String}, false},
		{"array widening", Sig(decArr), []*types.Type{intArr}, true},
		{"no params", Sig(), nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.sig.Accepts(tt.args))
		})
	}
}

func TestSignatureString(t *testing.T) {
	require.Equal(t, "(Decimal, Integer...)", VarSig(types.Decimal, types.Integer).String())
	require.Equal(t, "()", Sig().String())
	require.True(t, Sig(types.Date).Equal(Sig(types.Date)))
	require.False(t, Sig(types.Date).Equal(VarSig(types.Date)))
}

func TestTableVariables(t *testing.T) {
	tab := NewTable()
	require.NoError(t, tab.Declare("a", types.Decimal, types.NewInt(2)))

	typ, ok := tab.Lookup("a")
	require.True(t, ok)
	require.Equal(t, types.Decimal, typ)

	v, err := tab.Get("a")
	require.NoError(t, err)
	require.IsType(t, types.DecimalValue{}, v)
	require.Equal(t, "2", v.String())

	// first Set declares, later ones keep the declared type
	require.NoError(t, tab.Set("n", types.Integer, types.NewInt(1)))
	require.NoError(t, tab.Set("n", types.Integer, types.NewInt(5)))
	err = tab.Set("n", types.Decimal, types.MustDecimal("1.5"))
	require.ErrorIs(t, err, types.ErrType)

	v, _ = tab.Get("n")
	require.Equal(t, types.NewInt(5), v)

	require.NoError(t, tab.Set("n", types.Integer, nil))
	v, _ = tab.Get("n")
	require.Nil(t, v)

	_, err = tab.Get("missing")
	require.Error(t, err)
	require.Error(t, tab.Set("fresh", nil, nil))

	vars := tab.Variables()
	require.Len(t, vars, 2)
	require.Equal(t, "a", vars[0].Name)
	require.Equal(t, "n", vars[1].Name)
}

func TestInvokeConverts(t *testing.T) {
	var seen []types.Value
	fn := NewFunc("twice", types.Decimal, VarSig(types.Decimal), func(args []types.Value) (types.Value, error) {
		seen = args
		return types.NewInt(2), nil
	})
	out, err := Invoke(fn, []types.Value{types.NewInt(1), types.MustDecimal("1.5")})
	require.NoError(t, err)
	require.IsType(t, types.DecimalValue{}, out, "result widened to the return type")
	require.IsType(t, types.DecimalValue{}, seen[0], "argument widened to the parameter type")

	bad := NewFunc("bad", types.Integer, Sig(), func([]types.Value) (types.Value, error) {
		return types.NewStr("x"), nil
	})
	_, err = Invoke(bad, nil)
	require.ErrorIs(t, err, types.ErrType)

	boom := errors.New("boom")
	failing := NewFunc("failing", types.Integer, Sig(), func([]types.Value) (types.Value, error) {
		return nil, boom
	})
	_, err = Invoke(failing, nil)
	require.ErrorIs(t, err, boom)
}

func TestNullSafe(t *testing.T) {
	called := false
	impl := NullSafe(func([]types.Value) (types.Value, error) {
		called = true
		return types.True, nil
	})
	v, err := impl([]types.Value{types.NewInt(1), nil})
	require.NoError(t, err)
	require.Nil(t, v)
	require.False(t, called)
}

func TestFingerprint(t *testing.T) {
	build := func(aType *types.Type, value types.Value) *Table {
		tab := NewTable()
		require.NoError(t, tab.Declare("a", aType, value))
		tab.Define(NewFunc("f", types.Integer, Sig(types.Integer), func([]types.Value) (types.Value, error) { return nil, nil }))
		return tab
	}
	a := build(types.Integer, types.NewInt(1))
	b := build(types.Integer, types.NewInt(99))
	c := build(types.Decimal, types.NewInt(1))

	require.Equal(t, a.Fingerprint(), b.Fingerprint(), "values do not affect the fingerprint")
	require.NotEqual(t, a.Fingerprint(), c.Fingerprint())

	var fp Fingerprinter = a
	require.NotZero(t, fp.Fingerprint())
}

func TestClone(t *testing.T) {
	tab := NewTable()
	require.NoError(t, tab.Declare("x", types.Integer, types.NewInt(1)))
	cp := tab.Clone()
	require.NoError(t, cp.Set("x", types.Integer, types.NewInt(2)))
	v, _ := tab.Get("x")
	require.Equal(t, types.NewInt(1), v)
}
