package trace

import (
	"bytes"
	"errors"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/require"

	"tally/types"
)

func TestTracerWritesEvents(t *testing.T) {
	var buf bytes.Buffer
	tr := New(log.NewLogfmtLogger(&buf))
	require.True(t, tr.Enabled())

	tr.Assign("a", types.Integer, types.NewInt(3))
	tr.Call("abs", []types.Value{types.MustDecimal("-1.5"), nil}, types.MustDecimal("1.5"), nil)
	tr.Call("substr", nil, nil, errors.New("boom"))
	tr.Statement(0, nil)

	out := buf.String()
	require.Contains(t, out, "event=assign name=a type=Integer value=3")
	require.Contains(t, out, `event=call name=abs args="-1.5, null" result=1.5`)
	require.Contains(t, out, "err=boom")
	require.Contains(t, out, "event=statement index=0 value=null")
	require.Contains(t, out, "component=trace")
}

func TestTracerFilters(t *testing.T) {
	var buf bytes.Buffer
	tr := New(log.NewLogfmtLogger(&buf), "tmp_*")
	tr.Assign("total", types.Integer, types.NewInt(1))
	require.Empty(t, buf.String())
	tr.Assign("tmp_x", types.Integer, types.NewInt(1))
	require.Contains(t, buf.String(), "name=tmp_x")
}

func TestDisabledTracers(t *testing.T) {
	var nilTracer *Tracer
	require.False(t, nilTracer.Enabled())
	nilTracer.Assign("a", types.Integer, nil)
	nilTracer.Call("f", nil, nil, nil)
	nilTracer.Statement(1, nil)

	require.False(t, Nop().Enabled())
	Nop().Assign("a", types.Integer, nil)
}
